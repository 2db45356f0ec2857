// Package resolve maps free-text identifiers found in shipment rows onto
// reference records.
package resolve

import (
	"context"
	"fmt"

	"github.com/kilianp07/manifests/core/reference"
)

// VehicleResult is the outcome of resolving one plate.
type VehicleResult struct {
	ID     string
	Status reference.Status
	// Class is UnknownClass when the plate is not found.
	Class  string
	Active bool
	Found  bool
}

// UnknownClass is the class reported for plates missing from the store.
const UnknownClass = "UNKNOWN"

func notFoundVehicle(id string) VehicleResult {
	return VehicleResult{ID: id, Status: reference.StatusUnknown, Class: UnknownClass}
}

// VehicleResolver looks up plates in a VehicleStore.
type VehicleResolver struct {
	store reference.VehicleStore
}

// NewVehicleResolver returns a resolver backed by store.
func NewVehicleResolver(store reference.VehicleStore) *VehicleResolver {
	return &VehicleResolver{store: store}
}

// Resolve looks up a single plate. A miss is not an error.
func (r *VehicleResolver) Resolve(ctx context.Context, id string) (VehicleResult, error) {
	res, err := r.ResolveMany(ctx, []string{id})
	if err != nil {
		return notFoundVehicle(reference.NormalizeID(id)), err
	}
	return res[id], nil
}

// ResolveMany resolves every id with a single bulk lookup. The result holds
// an entry for each input id, keyed by the id as given.
func (r *VehicleResolver) ResolveMany(ctx context.Context, ids []string) (map[string]VehicleResult, error) {
	out := make(map[string]VehicleResult, len(ids))
	seen := make(map[string]struct{}, len(ids))
	var keys []string
	for _, id := range ids {
		key := reference.NormalizeID(id)
		out[id] = notFoundVehicle(key)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return out, nil
	}
	found, err := r.store.LookupVehicles(ctx, keys)
	if err != nil {
		return out, fmt.Errorf("vehicle lookup: %w", err)
	}
	for _, id := range ids {
		key := reference.NormalizeID(id)
		v, ok := found[key]
		if !ok {
			continue
		}
		status := v.Status
		if status != reference.StatusFixed && status != reference.StatusSpot {
			status = reference.ParseStatus(string(status))
		}
		class := v.Class
		if class == "" {
			class = UnknownClass
		}
		out[id] = VehicleResult{ID: key, Status: status, Class: class, Active: v.Active, Found: true}
	}
	return out, nil
}
