package cashback

import (
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Policy computes the reward for an amount paid. Implementations return the
// unrounded reward; the engine rounds.
type Policy interface {
	Reward(amountPaid decimal.Decimal) decimal.Decimal
}

// DefaultRate is the percentage policy rate used when none is configured.
var DefaultRate = decimal.RequireFromString("0.05")

// PercentagePolicy rewards a flat share of the amount paid.
type PercentagePolicy struct {
	Rate decimal.Decimal
}

func (p PercentagePolicy) Reward(amountPaid decimal.Decimal) decimal.Decimal {
	return amountPaid.Mul(p.Rate)
}

// Tier applies Rate to payments of at least Min.
type Tier struct {
	Min  decimal.Decimal
	Rate decimal.Decimal
}

// TieredPolicy rewards with the rate of the highest tier whose minimum does
// not exceed the amount paid. Payments below every tier earn nothing.
type TieredPolicy struct {
	tiers []Tier
}

// NewTieredPolicy validates and sorts tiers by ascending minimum.
func NewTieredPolicy(tiers []Tier) (*TieredPolicy, error) {
	if len(tiers) == 0 {
		return nil, errors.New("at least one tier required")
	}
	sorted := slices.Clone(tiers)
	for _, t := range sorted {
		if t.Min.IsNegative() || t.Rate.IsNegative() {
			return nil, errors.Errorf("tier %s/%s: negative value", t.Min, t.Rate)
		}
	}
	slices.SortFunc(sorted, func(a, b Tier) int { return a.Min.Cmp(b.Min) })
	return &TieredPolicy{tiers: sorted}, nil
}

func (p *TieredPolicy) Reward(amountPaid decimal.Decimal) decimal.Decimal {
	rate := decimal.Zero
	for _, t := range p.tiers {
		if t.Min.GreaterThan(amountPaid) {
			break
		}
		rate = t.Rate
	}
	return amountPaid.Mul(rate)
}
