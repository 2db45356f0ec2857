package metrics

import (
	"time"

	"github.com/kilianp07/manifests/core/merge"
)

// Outcome classifies a finished run.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	// OutcomePartial means the artifact was written but inputs were skipped
	// or the fallback path was used.
	OutcomePartial Outcome = "partial"
	OutcomeFailed  Outcome = "failed"
)

// RunRecord is the flat view of a merge summary exported to sinks.
type RunRecord struct {
	RunID      string
	Outcome    Outcome
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time

	FilesProcessed  int
	FilesSkipped    int
	FilesSuperseded int
	RowsRead        int
	RowsDropped     int
	RowsWritten     int

	VehiclesFound    int
	VehiclesNotFound int
	ClientsFound     int
	ClientsNotFound  int
	RowsCosted       int

	DuplicateHeaders int
	Groups           int
	Unterminated     int
	Fallback         bool
}

// Duration returns the wall time of the run.
func (r RunRecord) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// FromSummary flattens s. err is the error returned by the run, if any.
func FromSummary(s merge.Summary, err error) RunRecord {
	r := RunRecord{
		RunID:            s.RunID,
		StartedAt:        s.StartedAt,
		FinishedAt:       s.FinishedAt,
		FilesProcessed:   len(s.FilesProcessed),
		FilesSkipped:     len(s.FilesSkipped),
		FilesSuperseded:  len(s.Superseded()),
		RowsRead:         s.RowsRead,
		RowsDropped:      s.RowsDropped,
		RowsWritten:      s.RowsWritten,
		VehiclesFound:    s.Enrichment.Vehicles.Found,
		VehiclesNotFound: s.Enrichment.Vehicles.NotFound,
		ClientsFound:     s.Enrichment.Clients.Found,
		ClientsNotFound:  s.Enrichment.Clients.NotFound,
		RowsCosted:       s.Enrichment.Costed,
		DuplicateHeaders: len(s.DuplicateHeaders),
		Groups:           s.Groups,
		Unterminated:     len(s.Unterminated),
		Fallback:         s.Output != nil && s.Output.Fallback,
	}
	switch {
	case err != nil:
		r.Outcome = OutcomeFailed
		r.Error = err.Error()
	case r.FilesSkipped > 0 || r.Fallback || s.Enrichment.VehicleErr != "":
		r.Outcome = OutcomePartial
	default:
		r.Outcome = OutcomeSuccess
	}
	return r
}

// MetricsSink records merge runs for observability purposes.
type MetricsSink interface {
	RecordRun(r RunRecord) error
}

// TriggerEvent is a trigger that did not start a run because another run
// held the lock.
type TriggerEvent struct {
	Source string
	Time   time.Time
}

// TriggerRecorder is implemented by sinks able to count skipped triggers.
type TriggerRecorder interface {
	RecordSkippedTrigger(ev TriggerEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunRecord) error               { return nil }
func (NopSink) RecordSkippedTrigger(TriggerEvent) error { return nil }

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordRun(r RunRecord) error {
	var first error
	for _, s := range m.Sinks {
		if err := s.RecordRun(r); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// RecordSkippedTrigger forwards to the sinks supporting it.
func (m *MultiSink) RecordSkippedTrigger(ev TriggerEvent) error {
	var first error
	for _, s := range m.Sinks {
		if rec, ok := s.(TriggerRecorder); ok {
			if err := rec.RecordSkippedTrigger(ev); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
