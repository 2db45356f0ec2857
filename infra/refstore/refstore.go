// Package refstore provides the persistent reference backends: an
// embedded SQLite database, a Postgres pool and file seeds loaded into
// memory.
package refstore

import (
	"context"
	"fmt"

	"github.com/kilianp07/manifests/core/reference"
)

// Backend names.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config selects and configures the reference backend.
type Config struct {
	Backend string `json:"backend"`
	// Path is the SQLite database file.
	Path string `json:"path"`
	// DSN is the Postgres connection string.
	DSN string `json:"dsn"`
	// Seed is an optional YAML/JSON file imported on open.
	Seed string `json:"seed"`
	// Rates is an optional YAML/JSON rate table imported on open.
	Rates string `json:"rates"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.Backend == BackendSQLite && c.Path == "" {
		c.Path = "reference.db"
	}
}

// Validate checks the backend settings.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.DSN == "" {
			return fmt.Errorf("reference: dsn is required for postgres")
		}
	default:
		return fmt.Errorf("reference: unknown backend %q", c.Backend)
	}
	return nil
}

// Importer accepts reference rows in bulk.
type Importer interface {
	Import(ctx context.Context, seed Seed) error
}

// Open returns the configured store with seed and rate files imported.
func Open(ctx context.Context, cfg Config) (reference.Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var (
		store interface {
			reference.Store
			Importer
		}
		err error
	)
	switch cfg.Backend {
	case BackendSQLite:
		store, err = NewSQLiteStore(cfg.Path)
	case BackendPostgres:
		store, err = NewPostgresStore(ctx, cfg.DSN)
	default:
		store = NewMemory()
	}
	if err != nil {
		return nil, err
	}
	for _, path := range []string{cfg.Seed, cfg.Rates} {
		if path == "" {
			continue
		}
		seed, err := LoadSeed(path)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		if err := store.Import(ctx, seed); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("import %s: %w", path, err)
		}
	}
	return store, nil
}

// Memory is a MemoryStore that accepts seeds.
type Memory struct {
	*reference.MemoryStore
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory { return &Memory{MemoryStore: reference.NewMemoryStore()} }

// Import adds every seed row to the store.
func (m *Memory) Import(_ context.Context, seed Seed) error {
	for _, v := range seed.Vehicles {
		if err := v.Validate(); err != nil {
			return err
		}
		m.PutVehicle(v)
	}
	for _, c := range seed.Clients {
		m.AddClient(c)
	}
	for _, r := range seed.Rates {
		m.PutRate(r)
	}
	return nil
}
