// Package reference defines the read-only reference data consumed by the
// enrichment pass: vehicles, clients and fixed-cost rates.
package reference

import (
	"context"
	"fmt"
	"strings"
)

// Status is the operating status of a vehicle.
type Status string

const (
	StatusFixed   Status = "FIXED"
	StatusSpot    Status = "SPOT"
	StatusUnknown Status = "UNKNOWN"
)

// ParseStatus maps free text onto a Status. Anything unrecognized is
// reported as StatusUnknown.
func ParseStatus(s string) Status {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FIXED", "FIXO", "FIXA":
		return StatusFixed
	case "SPOT":
		return StatusSpot
	default:
		return StatusUnknown
	}
}

// Vehicle describes one plate in the fleet.
type Vehicle struct {
	ID     string `json:"id" yaml:"id"`
	Status Status `json:"status" yaml:"status"`
	Class  string `json:"class" yaml:"class"`
	Active bool   `json:"active" yaml:"active"`
}

// Client maps a raw counterparty spelling to its canonical name.
type Client struct {
	RawName       string `json:"raw_name" yaml:"raw_name"`
	CanonicalName string `json:"canonical_name" yaml:"canonical_name"`
	Active        bool   `json:"active" yaml:"active"`
}

// CostRate holds the cost model of a vehicle class.
type CostRate struct {
	Class string `json:"class" yaml:"class"`
	// FixedPerUnit is the fixed-fleet cost per distance unit.
	FixedPerUnit float64 `json:"fixed_per_unit" yaml:"fixed_per_unit"`
	// Variable is the variable cost per distance unit used for SPOT vehicles.
	Variable          float64 `json:"variable" yaml:"variable"`
	ReferenceDistance float64 `json:"reference_distance" yaml:"reference_distance"`
	ReferenceDays     int     `json:"reference_days" yaml:"reference_days"`
}

// VehicleStore looks up vehicles in bulk. The returned map is keyed by the
// ids as passed in and omits ids that are not known.
type VehicleStore interface {
	LookupVehicles(ctx context.Context, ids []string) (map[string]Vehicle, error)
}

// ClientStore lists the client references in a stable order.
type ClientStore interface {
	Clients(ctx context.Context) ([]Client, error)
}

// RateStore lists the cost rates per vehicle class.
type RateStore interface {
	Rates(ctx context.Context) ([]CostRate, error)
}

// Store bundles every reference source.
type Store interface {
	VehicleStore
	ClientStore
	RateStore
	Close() error
}

// NormalizeID canonicalizes a plate for lookup.
func NormalizeID(id string) string { return strings.ToUpper(strings.TrimSpace(id)) }

// Validate checks the mandatory vehicle fields.
func (v Vehicle) Validate() error {
	if NormalizeID(v.ID) == "" {
		return fmt.Errorf("vehicle id is required")
	}
	return nil
}
