// Package discount computes the first-order discount.
package discount

import "github.com/shopspring/decimal"

// DefaultRate is the first-order discount rate.
var DefaultRate = decimal.RequireFromString("0.10")

// Engine applies a flat-rate discount. It is stateless and safe for
// concurrent use.
type Engine struct {
	rate decimal.Decimal
}

// New creates an Engine with the given rate. A zero rate disables the
// discount; a negative rate falls back to DefaultRate.
func New(rate decimal.Decimal) *Engine {
	if rate.IsNegative() {
		rate = DefaultRate
	}
	return &Engine{rate: rate}
}

// Rate returns the configured rate.
func (e *Engine) Rate() decimal.Decimal { return e.rate }

// DiscountFor returns the per-unit discount for unitPrice, rounded half-up
// to cents.
func (e *Engine) DiscountFor(unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(e.rate).Round(2)
}

// ApplyIfEligible returns total minus the rounded discount when eligible,
// and total unchanged otherwise.
func (e *Engine) ApplyIfEligible(total decimal.Decimal, eligible bool) decimal.Decimal {
	if !eligible {
		return total
	}
	return total.Sub(total.Mul(e.rate).Round(2))
}
