package blocks

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/kilianp07/manifests/core/model"
)

var (
	sentinelNum = decimal.RequireFromString("0.67")
	sentinelDen = decimal.RequireFromString("0.88")
)

// SentinelConfig configures the sentinel-counterparty correction.
type SentinelConfig struct {
	StartColumn        string `json:"start_column"`
	StartPattern       string `json:"start_pattern"`
	EndColumn          string `json:"end_column"`
	EndPattern         string `json:"end_pattern"`
	CounterpartyColumn string `json:"counterparty_column"`
	ValueColumn        string `json:"value_column"`
	OutputColumn       string `json:"output_column"`
	Sentinel           string `json:"sentinel"`
}

// Validate checks mandatory fields and patterns.
func (c SentinelConfig) Validate() error {
	if c.StartPattern == "" {
		return fmt.Errorf("sentinel: start_pattern is required")
	}
	if c.Sentinel == "" {
		return fmt.Errorf("sentinel: sentinel counterparty is required")
	}
	if c.OutputColumn == "" {
		return fmt.Errorf("sentinel: output_column is required")
	}
	if _, err := regexp.Compile(c.StartPattern); err != nil {
		return fmt.Errorf("sentinel: start_pattern: %w", err)
	}
	if _, err := compile(c.EndPattern, DefaultTotalPattern); err != nil {
		return fmt.Errorf("sentinel: end_pattern: %w", err)
	}
	return nil
}

// SentinelCorrector rewrites the value of groups containing the sentinel
// counterparty. Inside such a group sentinel rows are scaled by 0.67/0.88,
// other rows keep their value, and the total row receives the sum. Groups
// without the sentinel get a blank output column.
type SentinelCorrector struct {
	cfg        SentinelConfig
	start, end *regexp.Regexp
	sentinel   string

	startCol, endCol, partyCol, valCol, out int
}

// NewSentinelCorrector binds cfg to the columns of s.
func NewSentinelCorrector(cfg SentinelConfig, s *model.Schema) (*SentinelCorrector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &SentinelCorrector{cfg: cfg, sentinel: collapse(cfg.Sentinel)}
	var err error
	if c.start, err = compile(cfg.StartPattern, ""); err != nil {
		return nil, err
	}
	if c.end, err = compile(cfg.EndPattern, DefaultTotalPattern); err != nil {
		return nil, err
	}
	endCol := cfg.EndColumn
	if endCol == "" {
		endCol = cfg.StartColumn
	}
	for _, b := range []struct {
		dst   *int
		name  string
		field string
	}{
		{&c.startCol, cfg.StartColumn, "start_column"},
		{&c.endCol, endCol, "end_column"},
		{&c.partyCol, cfg.CounterpartyColumn, "counterparty_column"},
		{&c.valCol, cfg.ValueColumn, "value_column"},
		{&c.out, cfg.OutputColumn, "output_column"},
	} {
		if *b.dst, err = column(s, b.name, b.field); err != nil {
			return nil, fmt.Errorf("sentinel: %w", err)
		}
	}
	return c, nil
}

func (c *SentinelCorrector) Name() string { return "sentinel" }

func (c *SentinelCorrector) OutputColumns() []string { return []string{c.cfg.OutputColumn} }

// Apply walks recs once. Rows outside any group are not modified.
func (c *SentinelCorrector) Apply(recs []*model.Record) Report {
	var (
		rep    Report
		st     = outsideGroup
		buf    []*model.Record
		opener *model.Record
	)
	for _, r := range recs {
		switch {
		case st == inGroup && c.end.MatchString(r.Get(c.endCol).Raw()):
			rep.Groups = append(rep.Groups, c.finalize(opener, buf, r))
			st, buf, opener = outsideGroup, nil, nil
		case c.start.MatchString(r.Get(c.startCol).Raw()):
			if st == inGroup {
				rep.Unterminated = append(rep.Unterminated, unterminated(opener, buf))
			}
			st, buf, opener = inGroup, nil, r
		case st == inGroup:
			buf = append(buf, r)
		}
	}
	if st == inGroup {
		rep.Unterminated = append(rep.Unterminated, unterminated(opener, buf))
	}
	return rep
}

func (c *SentinelCorrector) finalize(opener *model.Record, members []*model.Record, total *model.Record) Group {
	g := Group{Source: total.Source, StartRow: opener.Row, EndRow: total.Row, Members: len(members), Total: decimal.Zero}
	for _, m := range members {
		if collapse(m.Get(c.partyCol).Raw()) == c.sentinel {
			g.Sentinel = true
			break
		}
	}
	if !g.Sentinel {
		for _, m := range members {
			m.Set(c.out, model.Null())
		}
		total.Set(c.out, model.Null())
		return g
	}
	for _, m := range members {
		v := amount(m.Get(c.valCol))
		if collapse(m.Get(c.partyCol).Raw()) == c.sentinel {
			v = v.Mul(sentinelNum).Div(sentinelDen)
		}
		v = v.Round(2)
		m.Set(c.out, number(v))
		g.Total = g.Total.Add(v)
	}
	total.Set(c.out, number(g.Total))
	return g
}

func unterminated(opener *model.Record, members []*model.Record) Unterminated {
	return Unterminated{Source: opener.Source, StartRow: opener.Row, Members: len(members)}
}
