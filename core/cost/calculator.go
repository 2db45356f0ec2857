// Package cost computes fleet costs from the rate table.
package cost

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kilianp07/manifests/core/header"
	"github.com/kilianp07/manifests/core/reference"
)

// ErrUnknownClass is returned when the rate table has no entry for a class.
var ErrUnknownClass = errors.New("unknown vehicle class")

// Calculator prices distances per vehicle class.
type Calculator struct {
	rates map[string]reference.CostRate
}

// NewCalculator indexes rates by normalized class name. The first rate of a
// class wins.
func NewCalculator(rates []reference.CostRate) *Calculator {
	c := &Calculator{rates: make(map[string]reference.CostRate, len(rates))}
	for _, r := range rates {
		key := header.Normalize(r.Class)
		if _, ok := c.rates[key]; ok {
			continue
		}
		c.rates[key] = r
	}
	return c
}

// LoadCalculator reads the rate table from store.
func LoadCalculator(ctx context.Context, store reference.RateStore) (*Calculator, error) {
	rates, err := store.Rates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rates: %w", err)
	}
	return NewCalculator(rates), nil
}

// Rate returns the rate of class.
func (c *Calculator) Rate(class string) (reference.CostRate, bool) {
	r, ok := c.rates[header.Normalize(class)]
	return r, ok
}

// Calculate returns the fixed-fleet cost of driving distance with a vehicle
// of class, rounded to cents. Negative distances count as zero.
func (c *Calculator) Calculate(class string, distance float64) (decimal.Decimal, error) {
	r, ok := c.Rate(class)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}
	return price(r.FixedPerUnit, distance), nil
}

// Variable returns the variable cost of distance for class.
func (c *Calculator) Variable(class string, distance float64) (decimal.Decimal, error) {
	r, ok := c.Rate(class)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}
	return price(r.Variable, distance), nil
}

func price(perUnit, distance float64) decimal.Decimal {
	if distance < 0 {
		distance = 0
	}
	return decimal.NewFromFloat(perUnit).Mul(decimal.NewFromFloat(distance)).Round(2)
}
