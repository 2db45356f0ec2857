package refstore

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/manifests/core/reference"
)

const seedYAML = `vehicles:
  - id: " abc1234 "
    status: fixo
    class: TRUCK
    active: true
  - id: XYZ0001
    status: SPOT
    class: VAN
clients:
  - raw_name: Big Retail
    canonical_name: BIG RETAIL SA
    active: true
  - raw_name: Loja Azul
    canonical_name: LOJA AZUL LTDA
rates:
  - class: TRUCK
    fixed_per_unit: 3.25
    variable: 1.1
    reference_distance: 1000
    reference_days: 22
`

func writeSeed(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadSeedNormalizes(t *testing.T) {
	seed, err := LoadSeed(writeSeed(t, "seed.yaml", seedYAML))
	require.NoError(t, err)
	require.Len(t, seed.Vehicles, 2)
	assert.Equal(t, "ABC1234", seed.Vehicles[0].ID)
	assert.Equal(t, reference.StatusFixed, seed.Vehicles[0].Status)
	assert.Len(t, seed.Clients, 2)
	assert.Equal(t, 3.25, seed.Rates[0].FixedPerUnit)
}

func TestLoadSeedJSONAndErrors(t *testing.T) {
	seed, err := LoadSeed(writeSeed(t, "rates.json", `{"rates":[{"class":"VAN","fixed_per_unit":2}]}`))
	require.NoError(t, err)
	assert.Equal(t, "VAN", seed.Rates[0].Class)

	_, err = LoadSeed(writeSeed(t, "seed.toml", ""))
	assert.Error(t, err)
	_, err = LoadSeed(writeSeed(t, "bad.yaml", "vehicles: {"))
	assert.Error(t, err)
}

func exerciseStore(t *testing.T, store reference.Store) {
	t.Helper()
	ctx := context.Background()

	got, err := store.LookupVehicles(ctx, []string{"abc1234", "ABC1234", "MISSING"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "TRUCK", got["abc1234"].Class)
	assert.Equal(t, reference.StatusFixed, got["ABC1234"].Status)
	assert.True(t, got["ABC1234"].Active)
	_, ok := got["MISSING"]
	assert.False(t, ok)

	clients, err := store.Clients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "Big Retail", clients[0].RawName)
	assert.Equal(t, "LOJA AZUL LTDA", clients[1].CanonicalName)

	rates, err := store.Rates(ctx)
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, 22, rates[0].ReferenceDays)
}

func TestOpenMemoryWithSeed(t *testing.T) {
	store, err := Open(context.Background(), Config{Seed: writeSeed(t, "seed.yaml", seedYAML)})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.db")
	cfg := Config{Backend: BackendSQLite, Path: path, Seed: writeSeed(t, "seed.yaml", seedYAML)}
	store, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	exerciseStore(t, store)
	require.NoError(t, store.Close())

	// Reopening and importing again must not duplicate clients.
	store, err = Open(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestSQLiteLookupSpansChunks(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ref.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	var seed Seed
	var ids []string
	for i := 0; i < lookupChunk+20; i++ {
		id := "P" + strconv.Itoa(i)
		seed.Vehicles = append(seed.Vehicles, reference.Vehicle{ID: id, Status: reference.StatusSpot, Class: "VAN"})
		ids = append(ids, id)
	}
	require.NoError(t, store.Import(context.Background(), seed))
	got, err := store.LookupVehicles(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, got, len(ids))
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{Backend: BackendPostgres}.Validate())
	assert.Error(t, Config{Backend: "redis"}.Validate())
	c := Config{Backend: BackendSQLite}
	c.SetDefaults()
	assert.Equal(t, "reference.db", c.Path)
	assert.NoError(t, c.Validate())
}
