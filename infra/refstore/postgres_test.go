package refstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/manifests/test/util"
)

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()
	dsn, cleanup, err := util.StartPostgres(ctx)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	defer cleanup()

	cfg := Config{Backend: BackendPostgres, DSN: dsn, Seed: writeSeed(t, "seed.yaml", seedYAML)}
	store, err := Open(ctx, cfg)
	require.NoError(t, err)
	exerciseStore(t, store)
	require.NoError(t, store.Close())

	store, err = Open(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}
