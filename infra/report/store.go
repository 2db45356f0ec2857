// Package report keeps the history of merge runs.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kilianp07/manifests/core/merge"
	"github.com/kilianp07/manifests/core/metrics"
)

// Entry is one stored run.
type Entry struct {
	Timestamp time.Time       `json:"timestamp"`
	RunID     string          `json:"run_id"`
	Outcome   metrics.Outcome `json:"outcome"`
	Error     string          `json:"error,omitempty"`
	Summary   merge.Summary   `json:"summary"`
}

// NewEntry builds the entry stored for a run. err is the run error, if any.
func NewEntry(s merge.Summary, err error) Entry {
	rec := metrics.FromSummary(s, err)
	ts := s.FinishedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return Entry{Timestamp: ts, RunID: s.RunID, Outcome: rec.Outcome, Error: rec.Error, Summary: s}
}

// Query defines filters for retrieving entries.
type Query struct {
	Start   time.Time
	End     time.Time
	Outcome metrics.Outcome
	// File matches entries that processed a file whose path contains it.
	File string
	// Limit keeps the most recent entries. Zero means no limit.
	Limit int
}

// Store persists entries and supports querying.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Query(ctx context.Context, q Query) ([]Entry, error)
	Close() error
}

// Config selects the history backend.
type Config struct {
	// Backend is "jsonl", "sqlite" or "none".
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		switch c.Backend {
		case "sqlite":
			c.Path = "runs.db"
		default:
			c.Path = "runs.jsonl"
		}
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 5
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 90
	}
}

// Validate checks the backend name.
func (c Config) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite", "none":
		return nil
	default:
		return fmt.Errorf("report: unknown backend %q", c.Backend)
	}
}

// Open returns the configured store.
func Open(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "none":
		return NopStore{}, nil
	default:
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	}
}

// NopStore discards entries.
type NopStore struct{}

func (NopStore) Append(context.Context, Entry) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Entry, error) { return nil, nil }
func (NopStore) Close() error                                  { return nil }

func (q Query) match(e Entry) bool {
	if !q.Start.IsZero() && e.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && e.Timestamp.After(q.End) {
		return false
	}
	if q.Outcome != "" && e.Outcome != q.Outcome {
		return false
	}
	if q.File != "" {
		for _, f := range e.Summary.FilesProcessed {
			if strings.Contains(f, q.File) {
				return true
			}
		}
		return false
	}
	return true
}

// finish orders entries by time and applies the limit.
func (q Query) finish(res []Entry) []Entry {
	sort.SliceStable(res, func(i, j int) bool { return res[i].Timestamp.Before(res[j].Timestamp) })
	if q.Limit > 0 && len(res) > q.Limit {
		res = res[len(res)-q.Limit:]
	}
	return res
}
