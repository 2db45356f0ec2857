package merge

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kilianp07/manifests/core/header"
	"github.com/kilianp07/manifests/core/model"
	"github.com/kilianp07/manifests/infra/sheet"
)

const (
	defaultFreightKey    = `(?i)\bTOTAL\b.*\bMANIFESTO\b`
	defaultFreightNumber = `(\d{3,})`
)

// FreightConfig joins corrected freight values from a second set of
// ledgers onto the merged rows by manifest number.
type FreightConfig struct {
	// Ledgers lists the directories holding the freight ledgers.
	Ledgers  []string `json:"ledgers"`
	Patterns []string `json:"patterns"`
	// KeyColumn holds the total marker in a ledger; the first column when empty.
	KeyColumn string `json:"key_column"`
	// KeyPattern selects the total rows carrying a manifest value.
	KeyPattern string `json:"key_pattern"`
	// NumberPattern extracts the manifest number from the key cell; the
	// first capture group is used.
	NumberPattern string `json:"number_pattern"`
	ValueColumn   string `json:"value_column"`
	// ManifestColumn is the merged column holding the manifest number.
	ManifestColumn string `json:"manifest_column"`
	// FallbackColumn is the merged column copied when no ledger matches.
	FallbackColumn string `json:"fallback_column"`
	OutputColumn   string `json:"output_column"`
}

func (c *FreightConfig) setDefaults() {
	if len(c.Patterns) == 0 {
		c.Patterns = []string{"*.xlsx", "*.xlsm", "*.csv"}
	}
	if c.KeyPattern == "" {
		c.KeyPattern = defaultFreightKey
	}
	if c.NumberPattern == "" {
		c.NumberPattern = defaultFreightNumber
	}
	if c.ManifestColumn == "" {
		c.ManifestColumn = "MANIFESTO"
	}
	if c.OutputColumn == "" {
		c.OutputColumn = "FRETE CORRETO"
	}
}

// Validate checks the patterns and mandatory columns.
func (c FreightConfig) Validate() error {
	if c.ValueColumn == "" {
		return fmt.Errorf("corrected_freight: value_column is required")
	}
	if _, err := regexp.Compile(c.KeyPattern); err != nil {
		return fmt.Errorf("corrected_freight: key_pattern: %w", err)
	}
	re, err := regexp.Compile(c.NumberPattern)
	if err != nil {
		return fmt.Errorf("corrected_freight: number_pattern: %w", err)
	}
	if re.NumSubexp() < 1 {
		return fmt.Errorf("corrected_freight: number_pattern needs a capture group")
	}
	return nil
}

// FreightStats summarizes the corrected freight join.
type FreightStats struct {
	Ledgers  int       `json:"ledgers"`
	Keys     int       `json:"keys"`
	Joined   int       `json:"joined"`
	Fallback int       `json:"fallback"`
	Missing  int       `json:"missing"`
	Skipped  []Skipped `json:"skipped,omitempty"`
}

type freightEntry struct {
	modTime time.Time
	value   model.Value
	source  string
}

// freight loads the ledgers and fills the output column of recs. A
// manifest found in several ledgers takes the value of the most recently
// modified one.
func (m *Merger) freight(ctx context.Context, s *model.Schema, recs []*model.Record) (*FreightStats, error) {
	cfg := *m.cfg.CorrectedFreight
	keyRe := regexp.MustCompile(cfg.KeyPattern)
	numRe := regexp.MustCompile(cfg.NumberPattern)
	stats := &FreightStats{}

	files, skipped := Discover(cfg.Ledgers, cfg.Patterns, m.cfg.OwnFiles())
	stats.Skipped = skipped
	index := map[string]freightEntry{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		t, err := m.tables.Get(f.Path)
		if err != nil {
			stats.Skipped = append(stats.Skipped, Skipped{Path: f.Path, Reason: err.Error()})
			continue
		}
		keyCol := 0
		if cfg.KeyColumn != "" {
			keyCol = headerIndex(t, cfg.KeyColumn)
		}
		valCol := headerIndex(t, cfg.ValueColumn)
		if keyCol < 0 || valCol < 0 {
			stats.Skipped = append(stats.Skipped, Skipped{Path: f.Path, Reason: "freight columns not found"})
			continue
		}
		stats.Ledgers++
		for i := range t.Rows {
			key := t.Cell(i, keyCol)
			if !keyRe.MatchString(key) {
				continue
			}
			n := numRe.FindStringSubmatch(key)
			if n == nil {
				continue
			}
			v := freightValue(t.Cell(i, valCol))
			if v.IsNull() {
				continue
			}
			if prev, ok := index[n[1]]; ok && !f.ModTime.After(prev.modTime) {
				continue
			}
			index[n[1]] = freightEntry{modTime: f.ModTime, value: v, source: f.Path}
		}
	}
	stats.Keys = len(index)

	manifest := s.Index(header.Normalize(cfg.ManifestColumn))
	fallback := -1
	if cfg.FallbackColumn != "" {
		fallback = s.Index(header.Normalize(cfg.FallbackColumn))
	}
	out := s.Index(header.Normalize(cfg.OutputColumn))
	for _, r := range recs {
		if e, ok := index[digits(r.Get(manifest).String())]; ok {
			r.Set(out, e.value)
			stats.Joined++
			continue
		}
		if f, ok := r.Get(fallback).Float(); ok {
			r.Set(out, model.Number(f))
			stats.Fallback++
			continue
		}
		r.Set(out, model.Null())
		stats.Missing++
	}
	return stats, nil
}

// freightValue keeps numbers as numbers and unparseable content verbatim.
func freightValue(raw string) model.Value {
	if f, ok := model.ParseNumber(raw); ok {
		return model.Number(f)
	}
	return model.Text(raw)
}

func headerIndex(t *sheet.Table, name string) int {
	key := header.Normalize(name)
	for i, h := range t.Headers {
		if header.Normalize(h) == key {
			return i
		}
	}
	return -1
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
