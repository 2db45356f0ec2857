// Package blocks applies group-scoped formulas to an ordered stream of
// shipment records. A group opens on a start marker row and closes on a
// total row; formulas only ever touch the rows of the group they were
// parsed from.
package blocks

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kilianp07/manifests/core/header"
	"github.com/kilianp07/manifests/core/model"
)

// DefaultTotalPattern matches total rows.
const DefaultTotalPattern = `(?i)\bTOTAL\b`

// Transform rewrites records in place and reports what it found.
type Transform interface {
	Name() string
	// OutputColumns lists the headings the transform writes to.
	OutputColumns() []string
	Apply(recs []*model.Record) Report
}

// Group summarizes one closed group.
type Group struct {
	Source   string          `json:"source"`
	StartRow int             `json:"start_row"`
	EndRow   int             `json:"end_row"`
	Members  int             `json:"members"`
	Sentinel bool            `json:"sentinel,omitempty"`
	Total    decimal.Decimal `json:"total"`
}

// Unterminated describes a group still open when the stream ended, or
// superseded by a new start marker. Its rows are left untouched.
type Unterminated struct {
	Source   string `json:"source"`
	StartRow int    `json:"start_row"`
	Members  int    `json:"members"`
}

func (u Unterminated) String() string {
	return fmt.Sprintf("%s: group starting at row %d (%d rows) has no total row", u.Source, u.StartRow, u.Members)
}

// Report is the outcome of one Apply call.
type Report struct {
	Groups       []Group        `json:"groups"`
	Unterminated []Unterminated `json:"unterminated,omitempty"`
}

type state uint8

const (
	outsideGroup state = iota
	inGroup
)

func column(s *model.Schema, name, field string) (int, error) {
	if strings.TrimSpace(name) == "" {
		return -1, fmt.Errorf("%s is required", field)
	}
	idx := s.Index(header.Normalize(name))
	if idx < 0 {
		return -1, fmt.Errorf("%s %q not in schema", field, name)
	}
	return idx, nil
}

func compile(pattern, fallback string) (*regexp.Regexp, error) {
	if pattern == "" {
		pattern = fallback
	}
	return regexp.Compile(pattern)
}

// amount reads a numeric cell; anything unparsable counts as zero.
func amount(v model.Value) decimal.Decimal {
	f, ok := v.Float()
	if !ok {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func number(d decimal.Decimal) model.Value {
	f, _ := d.Float64()
	return model.Number(f)
}

func collapse(s string) string { return strings.Join(strings.Fields(strings.ToUpper(s)), " ") }
