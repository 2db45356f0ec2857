package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	coremetrics "github.com/kilianp07/manifests/core/metrics"
	"github.com/kilianp07/manifests/internal/eventbus"
)

type captureSink struct {
	mu   sync.Mutex
	runs []coremetrics.RunRecord
}

func (c *captureSink) RecordRun(r coremetrics.RunRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs = append(c.runs, r)
	return nil
}

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.runs)
}

func TestStartRunCollector(t *testing.T) {
	bus := eventbus.NewTyped[coremetrics.RunRecord]()
	sink := &captureSink{}
	ctx, cancel := context.WithCancel(context.Background())
	done := StartRunCollector(ctx, bus, sink)

	bus.Publish(coremetrics.RunRecord{RunID: "a"})
	deadline := time.Now().Add(time.Second)
	for sink.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sink.count() != 1 {
		t.Fatalf("expected 1 run recorded, got %d", sink.count())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}
