package merge

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kilianp07/manifests/core/blocks"
)

// Columns names the source columns the merger interprets and the reserved
// columns it writes. All names are matched after header normalization.
type Columns struct {
	Vehicle             string `json:"vehicle"`
	Client              string `json:"client"`
	OriginOdometer      string `json:"origin_odometer"`
	DestinationOdometer string `json:"destination_odometer"`
	Distance            string `json:"distance"`

	VehicleStatus  string `json:"vehicle_status"`
	VehicleClass   string `json:"vehicle_class"`
	ResolvedClient string `json:"resolved_client"`
	FixedCost      string `json:"fixed_cost"`
	VariableCost   string `json:"variable_cost"`
}

// Config defines one merge job.
type Config struct {
	// Sources lists the directories scanned for exports.
	Sources []string `json:"sources"`
	// Patterns are glob patterns matched against file names.
	Patterns       []string `json:"patterns"`
	Output         string   `json:"output"`
	FallbackOutput string   `json:"fallback_output"`
	LockPath       string   `json:"lock_path"`
	// Sheet selects the workbook sheet to read; the first sheet by default.
	Sheet   string  `json:"sheet"`
	Columns Columns `json:"columns"`

	Sentinel   *blocks.SentinelConfig   `json:"sentinel"`
	RunningSum *blocks.RunningSumConfig `json:"running_sum"`

	CorrectedFreight *FreightConfig `json:"corrected_freight"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if len(c.Patterns) == 0 {
		c.Patterns = []string{"*.xlsx", "*.xlsm", "*.csv"}
	}
	if c.Output == "" {
		c.Output = filepath.Join("out", "manifests_consolidated.xlsx")
	}
	if c.FallbackOutput == "" {
		ext := filepath.Ext(c.Output)
		c.FallbackOutput = strings.TrimSuffix(c.Output, ext) + "_alt" + ext
	}
	if c.LockPath == "" {
		c.LockPath = filepath.Join(filepath.Dir(c.Output), ".merge.lock")
	}
	c.Columns.setDefaults()
	if c.CorrectedFreight != nil {
		c.CorrectedFreight.setDefaults()
	}
}

func (c *Columns) setDefaults() {
	def := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	def(&c.Vehicle, "PLACA")
	def(&c.Client, "CLIENTE")
	def(&c.OriginOdometer, "KM SAIDA")
	def(&c.DestinationOdometer, "KM CHEGADA")
	def(&c.Distance, "KM RODADO")
	def(&c.VehicleStatus, "STATUS VEICULO")
	def(&c.VehicleClass, "TIPO VEICULO")
	def(&c.ResolvedClient, "CLIENTE PADRONIZADO")
	def(&c.FixedCost, "CUSTO FIXO")
	def(&c.VariableCost, "CUSTO VARIAVEL")
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("merge: at least one source directory is required")
	}
	if c.Output == "" {
		return fmt.Errorf("merge: output is required")
	}
	for _, p := range c.Patterns {
		if _, err := filepath.Match(p, "x"); err != nil {
			return fmt.Errorf("merge: bad pattern %q: %w", p, err)
		}
	}
	if c.Sentinel != nil {
		if err := c.Sentinel.Validate(); err != nil {
			return err
		}
	}
	if c.RunningSum != nil {
		if err := c.RunningSum.Validate(); err != nil {
			return err
		}
	}
	if c.CorrectedFreight != nil {
		f := *c.CorrectedFreight
		f.setDefaults()
		if err := f.Validate(); err != nil {
			return fmt.Errorf("merge: %w", err)
		}
	}
	return nil
}

// reserved lists the headings the merger writes to, in output order. The
// outputs of the transforms named in disabled are left out.
func (c Config) reserved(disabled map[string]error) []string {
	cols := c.Columns
	out := []string{cols.VehicleStatus, cols.VehicleClass, cols.ResolvedClient, cols.FixedCost, cols.VariableCost}
	if c.Sentinel != nil && disabled[transformSentinel] == nil {
		out = append(out, c.Sentinel.OutputColumn)
	}
	if c.RunningSum != nil && disabled[transformRunningSum] == nil {
		out = append(out, c.RunningSum.SumColumn, c.RunningSum.TransformColumn)
	}
	if c.CorrectedFreight != nil {
		out = append(out, c.CorrectedFreight.OutputColumn)
	}
	return out
}
