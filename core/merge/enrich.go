package merge

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/manifests/core/cost"
	"github.com/kilianp07/manifests/core/header"
	"github.com/kilianp07/manifests/core/model"
	"github.com/kilianp07/manifests/core/reference"
	"github.com/kilianp07/manifests/core/resolve"
)

// EntityStats counts distinct identifiers by outcome.
type EntityStats struct {
	Unique   int `json:"unique"`
	Found    int `json:"found"`
	NotFound int `json:"not_found"`
}

// EnrichStats summarizes one enrichment pass.
type EnrichStats struct {
	Vehicles    EntityStats            `json:"vehicles"`
	Clients     EntityStats            `json:"clients"`
	Methods     map[resolve.Method]int `json:"client_methods,omitempty"`
	Costed      int                    `json:"costed"`
	VarCosted   int                    `json:"variable_costed"`
	UnknownRate int                    `json:"unknown_rate"`
	// VehicleErr is set when the vehicle store failed; vehicle columns are
	// then left unresolved.
	VehicleErr string `json:"vehicle_error,omitempty"`
}

// Enricher resolves vehicles and clients and prices legs: fixed cost for
// FIXED vehicles, variable cost for SPOT ones.
type Enricher struct {
	vehicles *resolve.VehicleResolver
	clients  *resolve.ClientResolver
	costs    *cost.Calculator
}

// NewEnricher wires the resolvers. Any of them may be nil, in which case
// the matching columns are left unresolved.
func NewEnricher(v *resolve.VehicleResolver, c *resolve.ClientResolver, k *cost.Calculator) *Enricher {
	return &Enricher{vehicles: v, clients: c, costs: k}
}

type enrichCols struct {
	vehicle, client, distance        int
	status, class, resolved, fixCost int
	varCost                          int
}

func bindEnrich(s *model.Schema, c Columns) enrichCols {
	idx := func(name string) int { return s.Index(header.Normalize(name)) }
	return enrichCols{
		vehicle:  idx(c.Vehicle),
		client:   idx(c.Client),
		distance: idx(c.Distance),
		status:   idx(c.VehicleStatus),
		class:    idx(c.VehicleClass),
		resolved: idx(c.ResolvedClient),
		fixCost:  idx(c.FixedCost),
		varCost:  idx(c.VariableCost),
	}
}

// Enrich fills the reserved columns of recs. Vehicle and client lookups
// run concurrently, each as one bulk pass over the distinct identifiers.
func (e *Enricher) Enrich(ctx context.Context, s *model.Schema, cols Columns, recs []*model.Record) (EnrichStats, error) {
	ix := bindEnrich(s, cols)
	stats := EnrichStats{Methods: map[resolve.Method]int{}}

	var ids, names []string
	for _, r := range recs {
		if v := r.Get(ix.vehicle).Raw(); v != "" {
			ids = append(ids, v)
		}
		if v := r.Get(ix.client).Raw(); v != "" {
			names = append(names, v)
		}
	}

	var (
		vres  map[string]resolve.VehicleResult
		cres  map[string]resolve.ClientResult
		verr  error
		g, gc = errgroup.WithContext(ctx)
	)
	if e.vehicles != nil && len(ids) > 0 {
		g.Go(func() error {
			vres, verr = e.vehicles.ResolveMany(gc, ids)
			if errors.Is(verr, context.Canceled) {
				return verr
			}
			return nil
		})
	}
	if e.clients != nil && len(names) > 0 {
		g.Go(func() error {
			cres = e.clients.ResolveMany(names)
			return gc.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	if verr != nil {
		stats.VehicleErr = verr.Error()
		vres = nil
	}

	countVehicles(&stats, vres)
	countClients(&stats, cres)

	for _, r := range recs {
		e.fill(r, ix, vres, cres, &stats)
	}
	return stats, nil
}

func (e *Enricher) fill(r *model.Record, ix enrichCols, vres map[string]resolve.VehicleResult, cres map[string]resolve.ClientResult, stats *EnrichStats) {
	vehicle := model.Resolution[resolve.VehicleResult]{}
	if id := r.Get(ix.vehicle).Raw(); id != "" && vres != nil {
		if v, ok := vres[id]; ok && v.Found {
			vehicle = model.FoundValue(v)
		} else {
			vehicle = model.Missing[resolve.VehicleResult]()
		}
	}
	switch vehicle.State {
	case model.Found:
		r.Set(ix.status, model.Text(string(vehicle.Value.Status)))
		r.Set(ix.class, model.Text(vehicle.Value.Class))
	case model.NotFound:
		r.Set(ix.status, model.Unknown())
		r.Set(ix.class, model.Unknown())
	default:
		r.Set(ix.status, model.Null())
		r.Set(ix.class, model.Null())
	}

	if name := r.Get(ix.client).Raw(); name != "" && cres != nil {
		if c, ok := cres[name]; ok && c.Found {
			r.Set(ix.resolved, model.Text(c.CanonicalName))
		} else {
			r.Set(ix.resolved, model.Unknown())
		}
	} else {
		r.Set(ix.resolved, model.Null())
	}

	r.Set(ix.fixCost, model.NotApplicable())
	r.Set(ix.varCost, model.NotApplicable())
	v, ok := vehicle.Get()
	if !ok || e.costs == nil {
		return
	}
	dist, _ := r.Get(ix.distance).Float()
	switch v.Status {
	case reference.StatusFixed:
		if e.price(r, ix.fixCost, e.costs.Calculate, v.Class, dist, stats) {
			stats.Costed++
		}
	case reference.StatusSpot:
		if e.price(r, ix.varCost, e.costs.Variable, v.Class, dist, stats) {
			stats.VarCosted++
		}
	}
}

// price writes the cost of dist into column idx; an unknown class is
// written as UNKNOWN.
func (e *Enricher) price(r *model.Record, idx int, calc func(string, float64) (decimal.Decimal, error), class string, dist float64, stats *EnrichStats) bool {
	amount, err := calc(class, dist)
	if err != nil {
		stats.UnknownRate++
		r.Set(idx, model.Unknown())
		return false
	}
	f, _ := amount.Float64()
	r.Set(idx, model.Number(f))
	return true
}

func countVehicles(stats *EnrichStats, res map[string]resolve.VehicleResult) {
	seen := map[string]struct{}{}
	for _, v := range res {
		if v.ID == "" {
			continue
		}
		if _, ok := seen[v.ID]; ok {
			continue
		}
		seen[v.ID] = struct{}{}
		stats.Vehicles.Unique++
		if v.Found {
			stats.Vehicles.Found++
		} else {
			stats.Vehicles.NotFound++
		}
	}
}

func countClients(stats *EnrichStats, res map[string]resolve.ClientResult) {
	for _, c := range res {
		stats.Clients.Unique++
		stats.Methods[c.Method]++
		if c.Found {
			stats.Clients.Found++
		} else {
			stats.Clients.NotFound++
		}
	}
}
