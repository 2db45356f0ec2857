package blocks

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/kilianp07/manifests/core/model"
)

var (
	runningNum = decimal.RequireFromString("0.63")
	runningDen = decimal.RequireFromString("0.97")
)

// RunningSumConfig configures the running-sum transform.
type RunningSumConfig struct {
	IdentifierColumn string `json:"identifier_column"`
	TotalPattern     string `json:"total_pattern"`
	WeightColumn     string `json:"weight_column"`
	SumColumn        string `json:"sum_column"`
	TransformColumn  string `json:"transform_column"`
}

// Validate checks mandatory fields and the total pattern.
func (c RunningSumConfig) Validate() error {
	if c.SumColumn == "" || c.TransformColumn == "" {
		return fmt.Errorf("running_sum: sum_column and transform_column are required")
	}
	if _, err := compile(c.TotalPattern, DefaultTotalPattern); err != nil {
		return fmt.Errorf("running_sum: total_pattern: %w", err)
	}
	return nil
}

// RunningSum accumulates a weight column over consecutive rows and, on each
// total row, writes the sum and sum*0.63/0.97 before resetting.
type RunningSum struct {
	cfg   RunningSumConfig
	total *regexp.Regexp

	idCol, weightCol, sum, tr int
}

// NewRunningSum binds cfg to the columns of s.
func NewRunningSum(cfg RunningSumConfig, s *model.Schema) (*RunningSum, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &RunningSum{cfg: cfg}
	var err error
	if t.total, err = compile(cfg.TotalPattern, DefaultTotalPattern); err != nil {
		return nil, err
	}
	for _, b := range []struct {
		dst   *int
		name  string
		field string
	}{
		{&t.idCol, cfg.IdentifierColumn, "identifier_column"},
		{&t.weightCol, cfg.WeightColumn, "weight_column"},
		{&t.sum, cfg.SumColumn, "sum_column"},
		{&t.tr, cfg.TransformColumn, "transform_column"},
	} {
		if *b.dst, err = column(s, b.name, b.field); err != nil {
			return nil, fmt.Errorf("running_sum: %w", err)
		}
	}
	return t, nil
}

func (t *RunningSum) Name() string { return "running_sum" }

func (t *RunningSum) OutputColumns() []string {
	return []string{t.cfg.SumColumn, t.cfg.TransformColumn}
}

// Apply walks recs once. Rows after the last total row are only summed.
func (t *RunningSum) Apply(recs []*model.Record) Report {
	var rep Report
	sum := decimal.Zero
	members := 0
	var first *model.Record
	for _, r := range recs {
		if !t.total.MatchString(r.Get(t.idCol).Raw()) {
			if first == nil {
				first = r
			}
			sum = sum.Add(amount(r.Get(t.weightCol)))
			members++
			continue
		}
		r.Set(t.sum, number(sum))
		r.Set(t.tr, number(sum.Mul(runningNum).Div(runningDen).Round(2)))
		start := r.Row
		if first != nil {
			start = first.Row
		}
		rep.Groups = append(rep.Groups, Group{Source: r.Source, StartRow: start, EndRow: r.Row, Members: members, Total: sum})
		sum, members, first = decimal.Zero, 0, nil
	}
	return rep
}
