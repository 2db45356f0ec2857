package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/manifests/core/merge"
	"github.com/kilianp07/manifests/core/metrics"
	"github.com/kilianp07/manifests/infra/logger"
	"github.com/kilianp07/manifests/infra/refstore"
	"github.com/kilianp07/manifests/infra/report"
	"github.com/kilianp07/manifests/infra/trigger"
)

// EnvPrefix prefixes environment overrides, e.g. MANIFESTS_MERGE__OUTPUT.
const EnvPrefix = "MANIFESTS_"

type Config struct {
	Log       logger.Options  `json:"log"`
	Merge     merge.Config    `json:"merge"`
	Reference refstore.Config `json:"reference"`
	Metrics   metrics.Config  `json:"metrics"`
	Report    report.Config   `json:"report"`
	Trigger   trigger.Config  `json:"trigger"`
}

// Load reads the file at path, applies environment overrides, then fills
// defaults and validates every section. An empty path loads the
// environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	if c.Log.Backend == "" {
		c.Log.Backend = "zerolog"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	c.Merge.SetDefaults()
	c.Reference.SetDefaults()
	c.Report.SetDefaults()
	c.Trigger.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	switch c.Log.Backend {
	case "zerolog", "logrus":
	default:
		return fmt.Errorf("log: unknown backend %q", c.Log.Backend)
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("log: unknown format %q", c.Log.Format)
	}
	if err := c.Merge.Validate(); err != nil {
		return err
	}
	if err := c.Reference.Validate(); err != nil {
		return err
	}
	for i, s := range c.Metrics.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics: sink %d has no type", i)
		}
	}
	if err := c.Report.Validate(); err != nil {
		return err
	}
	return c.Trigger.Validate()
}
