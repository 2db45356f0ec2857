// Package app wires the reference stores, the merger and the observability
// stack into a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kilianp07/manifests/config"
	"github.com/kilianp07/manifests/core/cache"
	"github.com/kilianp07/manifests/core/cost"
	"github.com/kilianp07/manifests/core/merge"
	coremetrics "github.com/kilianp07/manifests/core/metrics"
	"github.com/kilianp07/manifests/core/reference"
	"github.com/kilianp07/manifests/core/resolve"
	"github.com/kilianp07/manifests/infra/lock"
	"github.com/kilianp07/manifests/infra/logger"
	"github.com/kilianp07/manifests/infra/metrics"
	"github.com/kilianp07/manifests/infra/refstore"
	"github.com/kilianp07/manifests/infra/report"
	"github.com/kilianp07/manifests/infra/sheet"
	"github.com/kilianp07/manifests/infra/trigger"
	"github.com/kilianp07/manifests/internal/eventbus"
)

// Service runs merge jobs for one configuration.
type Service struct {
	cfg      *config.Config
	store    reference.Store
	tables   *cache.Cache[*sheet.Table]
	sink     coremetrics.MetricsSink
	history  report.Store
	runs     *eventbus.TypedBus[coremetrics.RunRecord]
	triggers *trigger.Bus
	log      logger.Logger

	collected <-chan struct{}
	stop      context.CancelFunc
	running   atomic.Bool
	wg        sync.WaitGroup
}

// Option overrides a collaborator built from the configuration.
type Option func(*Service)

// WithSink replaces the configured metrics sinks.
func WithSink(s coremetrics.MetricsSink) Option { return func(svc *Service) { svc.sink = s } }

// WithHistory replaces the configured run history store.
func WithHistory(h report.Store) Option { return func(svc *Service) { svc.history = h } }

// WithStore replaces the configured reference store.
func WithStore(st reference.Store) Option { return func(svc *Service) { svc.store = st } }

// New creates a Service from the configuration.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	svc := &Service{
		cfg:      cfg,
		tables:   cache.New[*sheet.Table](sheet.Loader(sheet.ReadOptions{Sheet: cfg.Merge.Sheet})),
		runs:     eventbus.NewTyped[coremetrics.RunRecord](),
		triggers: trigger.NewBus(),
		log:      logger.New("service"),
	}
	for _, o := range opts {
		o(svc)
	}
	var err error
	if svc.store == nil {
		if svc.store, err = refstore.Open(ctx, cfg.Reference); err != nil {
			return nil, fmt.Errorf("reference store: %w", err)
		}
	}
	if svc.sink == nil {
		if svc.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
			_ = svc.store.Close()
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
	}
	if svc.history == nil {
		if svc.history, err = report.Open(cfg.Report); err != nil {
			_ = svc.store.Close()
			return nil, fmt.Errorf("run history: %w", err)
		}
	}
	cctx, cancel := context.WithCancel(context.Background())
	svc.stop = cancel
	svc.collected = metrics.StartRunCollector(cctx, svc.runs, svc.sink)
	return svc, nil
}

// Store returns the reference store.
func (s *Service) Store() reference.Store { return s.store }

// History returns the run history store.
func (s *Service) History() report.Store { return s.history }

// Runs returns the bus on which every finished run is published.
func (s *Service) Runs() *eventbus.TypedBus[coremetrics.RunRecord] { return s.runs }

// Triggers returns the bus consumed by Watch.
func (s *Service) Triggers() *trigger.Bus { return s.triggers }

// Merger builds a merger over the current reference data.
func (s *Service) Merger(ctx context.Context) (*merge.Merger, error) {
	clients, err := resolve.LoadClientResolver(ctx, s.store)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	calc, err := cost.LoadCalculator(ctx, s.store)
	if err != nil {
		return nil, fmt.Errorf("load rates: %w", err)
	}
	enricher := merge.NewEnricher(resolve.NewVehicleResolver(s.store), clients, calc)
	return merge.New(s.cfg.Merge, merge.Deps{
		Tables:   s.tables,
		Enricher: enricher,
		Logger:   logger.New("merge"),
	}), nil
}

// RunOnce performs one merge under the advisory lock. When another run
// holds the lock it returns ran=false and a nil error without touching the
// output.
func (s *Service) RunOnce(ctx context.Context) (merge.Summary, bool, error) {
	return s.run(ctx, trigger.Event{Source: trigger.SourceManual, Time: time.Now()})
}

func (s *Service) run(ctx context.Context, ev trigger.Event) (merge.Summary, bool, error) {
	var (
		sum    merge.Summary
		runErr error
	)
	ran, err := lock.With(s.cfg.Merge.LockPath, func() error {
		if _, rerr := s.tables.Refresh(); rerr != nil {
			s.log.Debugf("cache refresh: %v", rerr)
		}
		m, err := s.Merger(ctx)
		if err != nil {
			runErr = err
			sum = merge.Summary{StartedAt: time.Now(), FinishedAt: time.Now()}
		} else {
			sum, runErr = m.Run(ctx)
		}
		s.record(ctx, sum, runErr)
		return nil
	})
	if err != nil {
		return sum, false, fmt.Errorf("lock: %w", err)
	}
	if !ran {
		s.skipped(ev)
		return merge.Summary{}, false, nil
	}
	return sum, true, runErr
}

func (s *Service) record(ctx context.Context, sum merge.Summary, err error) {
	s.runs.Publish(coremetrics.FromSummary(sum, err))
	if herr := s.history.Append(ctx, report.NewEntry(sum, err)); herr != nil {
		s.log.Warnf("append run history: %v", herr)
	}
}

func (s *Service) skipped(ev trigger.Event) {
	s.log.Debugf("run in progress, ignoring %s trigger", ev.Source)
	if rec, ok := s.sink.(coremetrics.TriggerRecorder); ok {
		if err := rec.RecordSkippedTrigger(coremetrics.TriggerEvent{Source: ev.Source, Time: ev.Time}); err != nil {
			s.log.Warnf("record skipped trigger: %v", err)
		}
	}
}

// Watch runs a merge at start and then once per trigger until ctx is done.
// A trigger arriving while a run is in flight is dropped.
func (s *Service) Watch(ctx context.Context) error {
	sub := s.triggers.Subscribe()
	defer s.triggers.Unsubscribe(sub)

	tc := s.cfg.Trigger
	if tc.Watch.Enabled {
		w := trigger.NewWatcher(s.cfg.Merge.Sources, s.cfg.Merge.Patterns, s.cfg.Merge.OwnFiles(), tc.Watch.Debounce(), s.triggers, logger.New("watch"))
		if err := w.Run(ctx); err != nil {
			return err
		}
	}
	if tc.MQTT.Enabled {
		mq, err := trigger.NewSubscriber(tc.MQTT, s.triggers, logger.New("mqtt-trigger"))
		if err != nil {
			return err
		}
		defer mq.Close()
	}
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	s.dispatch(ctx, trigger.Event{Source: trigger.SourceManual, Time: time.Now()})
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return nil
		case ev, ok := <-sub:
			if !ok {
				s.wg.Wait()
				return nil
			}
			s.dispatch(ctx, ev)
		}
	}
}

func (s *Service) dispatch(ctx context.Context, ev trigger.Event) {
	if !s.running.CompareAndSwap(false, true) {
		s.skipped(ev)
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		sum, ran, err := s.run(ctx, ev)
		switch {
		case errors.Is(err, merge.ErrNoInput):
			s.log.Warnf("%s trigger: no readable sources", ev.Source)
		case err != nil:
			s.log.Errorf("%s trigger: %v", ev.Source, err)
		case ran:
			s.log.Infof("%s trigger: run %s wrote %d rows", ev.Source, sum.RunID, sum.RowsWritten)
		}
	}()
}

// Close flushes pending run records and releases the stores.
func (s *Service) Close() error {
	s.wg.Wait()
	s.triggers.Close()
	s.runs.Close()
	<-s.collected
	s.stop()
	if n := s.runs.Dropped(); n > 0 {
		s.log.Warnf("%d run records were not delivered to subscribers", n)
	}
	var errs []error
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	errs = append(errs, s.history.Close(), s.store.Close())
	return errors.Join(errs...)
}
