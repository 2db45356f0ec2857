// Package merge consolidates monthly shipment exports into one canonical
// dataset: schema union, month selection, row mapping, distance
// recomputation, block transforms and enrichment.
package merge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/manifests/core/blocks"
	"github.com/kilianp07/manifests/core/cache"
	"github.com/kilianp07/manifests/core/logger"
	"github.com/kilianp07/manifests/core/model"
	"github.com/kilianp07/manifests/infra/artifact"
	"github.com/kilianp07/manifests/infra/sheet"
)

// ErrNoInput is returned by Run when no source file could be read.
var ErrNoInput = errors.New("no readable source files")

// Dataset is the merged, enriched output of a run.
type Dataset struct {
	Schema  *model.Schema
	Records []*model.Record
}

// Deps are the collaborators of a Merger. Zero fields get defaults.
type Deps struct {
	Tables    *cache.Cache[*sheet.Table]
	Enricher  *Enricher
	Publisher *artifact.Publisher
	Logger    logger.Logger
	Now       func() time.Time
}

// Merger runs merge jobs for one configuration.
type Merger struct {
	cfg       Config
	tables    *cache.Cache[*sheet.Table]
	enricher  *Enricher
	publisher *artifact.Publisher
	log       logger.Logger
	now       func() time.Time
}

// New returns a Merger. cfg is completed with defaults.
func New(cfg Config, d Deps) *Merger {
	cfg.SetDefaults()
	m := &Merger{
		cfg:       cfg,
		tables:    d.Tables,
		enricher:  d.Enricher,
		publisher: d.Publisher,
		log:       logger.OrNop(d.Logger),
		now:       d.Now,
	}
	if m.tables == nil {
		m.tables = cache.New[*sheet.Table](sheet.Loader(sheet.ReadOptions{Sheet: cfg.Sheet}))
	}
	if m.enricher == nil {
		m.enricher = NewEnricher(nil, nil, nil)
	}
	if m.publisher == nil {
		m.publisher = artifact.NewPublisher()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Config returns the effective configuration.
func (m *Merger) Config() Config { return m.cfg }

// Run discovers the configured sources, merges them and publishes the
// artifact. Unreadable files are reported in the summary and skipped.
func (m *Merger) Run(ctx context.Context) (Summary, error) {
	files, skipped := Discover(m.cfg.Sources, m.cfg.Patterns, m.cfg.OwnFiles())
	ds, sum, err := m.Build(ctx, files)
	sum.FilesSkipped = append(skipped, sum.FilesSkipped...)
	if err != nil {
		sum.FinishedAt = m.now()
		return sum, err
	}
	if len(sum.FilesProcessed) == 0 {
		sum.FinishedAt = m.now()
		m.log.Warnf("run %s: nothing to publish, keeping %s", sum.RunID, m.cfg.Output)
		return sum, ErrNoInput
	}

	format, err := sheet.FormatOf(m.cfg.Output)
	if err != nil {
		sum.FinishedAt = m.now()
		return sum, err
	}
	res, err := m.publisher.Publish(m.cfg.Output, m.cfg.FallbackOutput, func(w io.Writer) error {
		return sheet.Write(w, format, ds.Schema.Headings(), ds.Records)
	})
	sum.FinishedAt = m.now()
	if err != nil {
		m.log.Errorf("run %s: %v", sum.RunID, err)
		return sum, err
	}
	if res.Fallback {
		m.log.Warnf("run %s: primary output unavailable (%s), wrote %s", sum.RunID, res.PrimaryErr, res.Path)
	}
	sum.Output = &res
	m.log.Infow("merge finished", map[string]any{
		"run_id":       sum.RunID,
		"files":        len(sum.FilesProcessed),
		"skipped":      len(sum.FilesSkipped),
		"rows_written": sum.RowsWritten,
		"output":       res.Path,
		"backup":       res.Backup,
	})
	return sum, nil
}

// Build merges files without publishing. The returned summary is filled
// even when an error is returned.
func (m *Merger) Build(ctx context.Context, files []SourceFile) (*Dataset, Summary, error) {
	sum := Summary{RunID: uuid.NewString(), StartedAt: m.now(), FilesDiscovered: len(files)}

	selected, buckets := SelectLatest(files, m.now())
	sum.Buckets = buckets
	for _, b := range buckets {
		for _, s := range b.Superseded {
			m.log.Infof("run %s: month %s uses %s, superseding %s", sum.RunID, b.Key, b.Winner, s)
		}
	}

	var tables []*sheet.Table
	for _, f := range selected {
		if err := ctx.Err(); err != nil {
			return nil, sum, err
		}
		t, err := m.tables.Get(f.Path)
		if err != nil {
			m.log.Warnf("run %s: skipping %s: %v", sum.RunID, f.Path, err)
			sum.FilesSkipped = append(sum.FilesSkipped, Skipped{Path: f.Path, Reason: err.Error()})
			continue
		}
		tables = append(tables, t)
		sum.FilesProcessed = append(sum.FilesProcessed, f.Path)
	}

	cols := m.cfg.Columns
	plan := m.plan(tables, nil)
	transforms, disabled := m.transforms(plan.Schema)
	if len(disabled) > 0 {
		for name, err := range disabled {
			m.log.Warnf("run %s: %s transform disabled: %v", sum.RunID, name, err)
		}
		plan = m.plan(tables, disabled)
		transforms, _ = m.transforms(plan.Schema)
	}
	sum.Columns = plan.Schema.Headings()
	sum.DuplicateHeaders = plan.Duplicates
	for _, d := range plan.Duplicates {
		m.log.Warnf("run %s: %s: dropped duplicate header %q (kept %q)", sum.RunID, d.Source, d.Heading, d.Kept)
	}

	ds := &Dataset{Schema: plan.Schema}
	for _, t := range tables {
		recs, dropped := plan.Map(t)
		sum.RowsRead += len(t.Rows)
		sum.RowsDropped += dropped
		RecomputeDistance(plan.Schema, recs, cols.OriginOdometer, cols.DestinationOdometer, cols.Distance)
		for _, tr := range transforms {
			rep := tr.Apply(recs)
			sum.Groups += len(rep.Groups)
			for _, u := range rep.Unterminated {
				m.log.Warnf("run %s: %s: %s", sum.RunID, tr.Name(), u)
			}
			sum.Unterminated = append(sum.Unterminated, rep.Unterminated...)
		}
		ds.Records = append(ds.Records, recs...)
	}

	stats, err := m.enricher.Enrich(ctx, plan.Schema, cols, ds.Records)
	sum.Enrichment = stats
	if err != nil {
		return nil, sum, fmt.Errorf("enrich: %w", err)
	}
	if stats.VehicleErr != "" {
		m.log.Errorf("run %s: vehicle resolution skipped: %s", sum.RunID, stats.VehicleErr)
	}
	if m.cfg.CorrectedFreight != nil {
		fs, err := m.freight(ctx, plan.Schema, ds.Records)
		sum.Freight = fs
		if err != nil {
			return nil, sum, fmt.Errorf("corrected freight: %w", err)
		}
		for _, sk := range fs.Skipped {
			m.log.Warnf("run %s: freight ledger %s skipped: %s", sum.RunID, sk.Path, sk.Reason)
		}
	}
	sum.RowsWritten = len(ds.Records)
	sum.FinishedAt = m.now()
	return ds, sum, nil
}

const (
	transformSentinel   = "sentinel"
	transformRunningSum = "running_sum"
)

func (m *Merger) plan(tables []*sheet.Table, disabled map[string]error) *Plan {
	cols := m.cfg.Columns
	return BuildSchema(tables, SchemaOptions{
		OriginOdometer:      cols.OriginOdometer,
		DestinationOdometer: cols.DestinationOdometer,
		Distance:            cols.Distance,
		Reserved:            m.cfg.reserved(disabled),
	})
}

// transforms binds the configured block transforms to s. A transform whose
// columns are absent from every source is returned in disabled with the
// binding error.
func (m *Merger) transforms(s *model.Schema) (out []blocks.Transform, disabled map[string]error) {
	disabled = map[string]error{}
	if m.cfg.Sentinel != nil {
		if t, err := blocks.NewSentinelCorrector(*m.cfg.Sentinel, s); err != nil {
			disabled[transformSentinel] = err
		} else {
			out = append(out, t)
		}
	}
	if m.cfg.RunningSum != nil {
		if t, err := blocks.NewRunningSum(*m.cfg.RunningSum, s); err != nil {
			disabled[transformRunningSum] = err
		} else {
			out = append(out, t)
		}
	}
	return out, disabled
}
