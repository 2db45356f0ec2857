package merge

import (
	"errors"
	"fmt"
	"io"

	"github.com/kilianp07/manifests/core/blocks"
	"github.com/kilianp07/manifests/infra/sheet"
)

// ErrNoTransform is returned by Ledger when no block transform is configured.
var ErrNoTransform = errors.New("no block transform configured")

// Ledger runs the configured block transforms over a single table, outside
// of any merge: no discovery, no enrichment, no distance recomputation.
// Unlike a merge run, a transform whose columns are missing is an error.
func (m *Merger) Ledger(t *sheet.Table) (*Dataset, blocks.Report, error) {
	var reserved []string
	if m.cfg.Sentinel != nil {
		reserved = append(reserved, m.cfg.Sentinel.OutputColumn)
	}
	if m.cfg.RunningSum != nil {
		reserved = append(reserved, m.cfg.RunningSum.SumColumn, m.cfg.RunningSum.TransformColumn)
	}
	if len(reserved) == 0 {
		return nil, blocks.Report{}, ErrNoTransform
	}
	plan := BuildSchema([]*sheet.Table{t}, SchemaOptions{Reserved: reserved})

	var transforms []blocks.Transform
	if m.cfg.Sentinel != nil {
		tr, err := blocks.NewSentinelCorrector(*m.cfg.Sentinel, plan.Schema)
		if err != nil {
			return nil, blocks.Report{}, err
		}
		transforms = append(transforms, tr)
	}
	if m.cfg.RunningSum != nil {
		tr, err := blocks.NewRunningSum(*m.cfg.RunningSum, plan.Schema)
		if err != nil {
			return nil, blocks.Report{}, err
		}
		transforms = append(transforms, tr)
	}

	recs, _ := plan.Map(t)
	var rep blocks.Report
	for _, tr := range transforms {
		r := tr.Apply(recs)
		rep.Groups = append(rep.Groups, r.Groups...)
		rep.Unterminated = append(rep.Unterminated, r.Unterminated...)
		for _, u := range r.Unterminated {
			m.log.Warnf("ledger %s: %s: %s", t.Path, tr.Name(), u)
		}
	}
	m.log.Infof("ledger %s: %d groups, %d unterminated", t.Path, len(rep.Groups), len(rep.Unterminated))
	return &Dataset{Schema: plan.Schema, Records: recs}, rep, nil
}

// WriteLedger runs Ledger over the file at in and publishes the result to out.
func (m *Merger) WriteLedger(in, out string) (blocks.Report, error) {
	t, err := sheet.Read(in, sheet.ReadOptions{Sheet: m.cfg.Sheet})
	if err != nil {
		return blocks.Report{}, err
	}
	ds, rep, err := m.Ledger(t)
	if err != nil {
		return rep, err
	}
	format, err := sheet.FormatOf(out)
	if err != nil {
		return rep, err
	}
	if _, err := m.publisher.Publish(out, "", func(w io.Writer) error {
		return sheet.Write(w, format, ds.Schema.Headings(), ds.Records)
	}); err != nil {
		return rep, fmt.Errorf("publish ledger: %w", err)
	}
	return rep, nil
}
