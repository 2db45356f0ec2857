package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/manifests/core/metrics"
)

// PromSink records merge runs in Prometheus metrics.
type PromSink struct {
	runs       *prometheus.CounterVec
	rows       *prometheus.CounterVec
	resolution *prometheus.CounterVec
	files      *prometheus.CounterVec
	duration   prometheus.Histogram
	lastRun    prometheus.Gauge
	triggers   *prometheus.CounterVec
}

// NewPromSink registers run metrics on the default Prometheus registerer.
// The endpoint is served separately by StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "manifest_runs_total",
			Help: "Total number of merge runs by outcome",
		}, []string{"outcome"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "manifest_rows_total",
			Help: "Rows handled by merge runs per stage",
		}, []string{"stage"}),
		resolution: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "manifest_resolutions_total",
			Help: "Distinct identifiers resolved per entity and result",
		}, []string{"entity", "result"}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "manifest_files_total",
			Help: "Source files per selection result",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "manifest_run_duration_seconds",
			Help:    "Wall time of merge runs",
			Buckets: prometheus.DefBuckets,
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "manifest_last_run_timestamp_seconds",
			Help: "Unix time of the last finished merge run",
		}),
		triggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "manifest_triggers_skipped_total",
			Help: "Triggers ignored because a run was in flight",
		}, []string{"source"}),
	}
	var err error
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.rows, err = register(reg, s.rows); err != nil {
		return nil, err
	}
	if s.resolution, err = register(reg, s.resolution); err != nil {
		return nil, err
	}
	if s.files, err = register(reg, s.files); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.lastRun, err = register(reg, s.lastRun); err != nil {
		return nil, err
	}
	if s.triggers, err = register(reg, s.triggers); err != nil {
		return nil, err
	}
	return s, nil
}

// register reuses an already registered collector of the same shape.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun updates the counters with one run.
func (s *PromSink) RecordRun(r coremetrics.RunRecord) error {
	s.runs.WithLabelValues(string(r.Outcome)).Inc()
	s.rows.WithLabelValues("read").Add(float64(r.RowsRead))
	s.rows.WithLabelValues("dropped").Add(float64(r.RowsDropped))
	s.rows.WithLabelValues("written").Add(float64(r.RowsWritten))
	s.rows.WithLabelValues("costed").Add(float64(r.RowsCosted))
	s.resolution.WithLabelValues("vehicle", "found").Add(float64(r.VehiclesFound))
	s.resolution.WithLabelValues("vehicle", "not_found").Add(float64(r.VehiclesNotFound))
	s.resolution.WithLabelValues("client", "found").Add(float64(r.ClientsFound))
	s.resolution.WithLabelValues("client", "not_found").Add(float64(r.ClientsNotFound))
	s.files.WithLabelValues("processed").Add(float64(r.FilesProcessed))
	s.files.WithLabelValues("skipped").Add(float64(r.FilesSkipped))
	s.files.WithLabelValues("superseded").Add(float64(r.FilesSuperseded))
	if d := r.Duration(); d > 0 {
		s.duration.Observe(d.Seconds())
	}
	if !r.FinishedAt.IsZero() {
		s.lastRun.Set(float64(r.FinishedAt.Unix()))
	}
	return nil
}

// RecordSkippedTrigger counts a trigger dropped by the run lock.
func (s *PromSink) RecordSkippedTrigger(ev coremetrics.TriggerEvent) error {
	s.triggers.WithLabelValues(ev.Source).Inc()
	return nil
}
