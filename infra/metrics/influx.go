package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/manifests/core/metrics"
	"github.com/kilianp07/manifests/infra/logger"
)

// InfluxSink writes run summaries to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRun writes one merge_run point.
func (s *InfluxSink) RecordRun(r coremetrics.RunRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, runPoint(r))
}

func runPoint(r coremetrics.RunRecord) *write.Point {
	ts := r.FinishedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return write.NewPointWithMeasurement("merge_run").
		AddTag("run_id", r.RunID).
		AddTag("outcome", string(r.Outcome)).
		AddField("files_processed", r.FilesProcessed).
		AddField("files_skipped", r.FilesSkipped).
		AddField("files_superseded", r.FilesSuperseded).
		AddField("rows_read", r.RowsRead).
		AddField("rows_dropped", r.RowsDropped).
		AddField("rows_written", r.RowsWritten).
		AddField("vehicles_found", r.VehiclesFound).
		AddField("vehicles_not_found", r.VehiclesNotFound).
		AddField("clients_found", r.ClientsFound).
		AddField("clients_not_found", r.ClientsNotFound).
		AddField("rows_costed", r.RowsCosted).
		AddField("unterminated_groups", r.Unterminated).
		AddField("fallback", r.Fallback).
		AddField("duration_ms", r.Duration().Milliseconds()).
		SetTime(ts)
}

// RecordSkippedTrigger writes a trigger_skipped point.
func (s *InfluxSink) RecordSkippedTrigger(ev coremetrics.TriggerEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("trigger_skipped").
		AddTag("source", ev.Source).
		AddField("count", 1).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }
