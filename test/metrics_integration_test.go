package test

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/manifests/app"
	"github.com/kilianp07/manifests/config"
	"github.com/kilianp07/manifests/core/factory"
	"github.com/kilianp07/manifests/test/util"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestWatchExposesRunMetrics(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	require.NoError(t, os.MkdirAll(in, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(in, "manifest 10-2025.csv"),
		[]byte("PLACA;CLIENTE;KM SAIDA;KM CHEGADA\nABC1234;Loja;10;20\nXYZ0001;Loja;5;9\n"), 0o644))

	addr := freeAddr(t)
	cfg := &config.Config{}
	cfg.Merge.Sources = []string{in}
	cfg.Merge.Output = filepath.Join(dir, "out", "merged.xlsx")
	cfg.Report.Path = filepath.Join(dir, "runs.jsonl")
	cfg.Metrics.PrometheusAddr = addr
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "prometheus"}}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, err := app.New(ctx, cfg)
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- svc.Watch(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(ctx, util.MetricTimeout)
	defer waitCancel()
	url := fmt.Sprintf("http://%s/metrics", addr)
	require.NoError(t, util.WaitForMetric(waitCtx, url, `manifest_runs_total{outcome="success"} 1`))
	require.NoError(t, util.WaitForMetric(waitCtx, url, `manifest_rows_total{stage="written"} 2`))

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, svc.Close())
	_, err = os.Stat(cfg.Merge.Output)
	require.NoError(t, err)
}
