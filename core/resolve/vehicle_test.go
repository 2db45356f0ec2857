package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/manifests/core/reference"
)

type countingStore struct {
	*reference.MemoryStore
	calls int
	err   error
}

func (c *countingStore) LookupVehicles(ctx context.Context, ids []string) (map[string]reference.Vehicle, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.MemoryStore.LookupVehicles(ctx, ids)
}

func newVehicleStore() *countingStore {
	s := reference.NewMemoryStore()
	s.PutVehicle(reference.Vehicle{ID: "ABC1234", Status: reference.StatusFixed, Class: "TRUCK", Active: true})
	s.PutVehicle(reference.Vehicle{ID: "XYZ9876", Status: reference.StatusSpot, Class: "VAN"})
	return &countingStore{MemoryStore: s}
}

func TestVehicleResolve_Found(t *testing.T) {
	r := NewVehicleResolver(newVehicleStore())
	res, err := r.Resolve(context.Background(), " abc1234 ")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, reference.StatusFixed, res.Status)
	assert.Equal(t, "TRUCK", res.Class)
	assert.True(t, res.Active)
}

func TestVehicleResolve_NotFound(t *testing.T) {
	r := NewVehicleResolver(newVehicleStore())
	for _, id := range []string{"NOPE000", "", "   ", "abc-1234"} {
		res, err := r.Resolve(context.Background(), id)
		require.NoError(t, err, id)
		assert.False(t, res.Found, id)
		assert.Equal(t, reference.StatusUnknown, res.Status, id)
		assert.Equal(t, UnknownClass, res.Class, id)
	}
}

func TestVehicleResolveMany_SingleBulkLookup(t *testing.T) {
	store := newVehicleStore()
	r := NewVehicleResolver(store)
	ids := []string{"XYZ9876", "abc1234", "MISSING", "ABC1234", "XYZ9876"}
	res, err := r.ResolveMany(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
	assert.Len(t, res, 4)
	assert.True(t, res["abc1234"].Found)
	assert.True(t, res["ABC1234"].Found)
	assert.Equal(t, reference.StatusSpot, res["XYZ9876"].Status)
	assert.False(t, res["MISSING"].Found)
}

func TestVehicleResolveMany_OrderIndependent(t *testing.T) {
	r := NewVehicleResolver(newVehicleStore())
	a, err := r.ResolveMany(context.Background(), []string{"ABC1234", "NOPE", "XYZ9876"})
	require.NoError(t, err)
	b, err := r.ResolveMany(context.Background(), []string{"XYZ9876", "ABC1234", "NOPE"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestVehicleResolveMany_StoreError(t *testing.T) {
	store := newVehicleStore()
	store.err = errors.New("boom")
	r := NewVehicleResolver(store)
	res, err := r.ResolveMany(context.Background(), []string{"ABC1234"})
	require.Error(t, err)
	assert.False(t, res["ABC1234"].Found)
}
