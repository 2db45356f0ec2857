package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/manifests/core/metrics"
	"github.com/kilianp07/manifests/infra/logger"
	"github.com/kilianp07/manifests/internal/eventbus"
)

// StartRunCollector subscribes to the run bus and records every finished
// run in sink. It stops when the context is canceled or the bus is closed.
// The returned channel is closed once the collector has exited.
func StartRunCollector(ctx context.Context, bus *eventbus.TypedBus[coremetrics.RunRecord], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("metrics-collector")
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case rec, ok := <-sub:
				if !ok {
					return
				}
				if err := sink.RecordRun(rec); err != nil {
					log.Warnf("record run %s: %v", rec.RunID, err)
				}
			}
		}
	}()
	return done
}
