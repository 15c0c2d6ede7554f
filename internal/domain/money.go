package domain

import (
	"github.com/shopspring/decimal"
)

// Kobo is an amount of Naira in minor units. Every amount handled by the
// service (prices, thresholds, order totals, referral amounts, payouts) is Kobo.
type Kobo int64

// DefaultMinPayout is used when a referral program has no minimum of its own.
const DefaultMinPayout Kobo = 500000

var hundred = decimal.NewFromInt(100)

// KoboFromNaira converts a Naira amount to Kobo, rounding half away from zero.
func KoboFromNaira(naira decimal.Decimal) Kobo {
	return Kobo(naira.Mul(hundred).Round(0).IntPart())
}

// Naira returns the value in major units.
func (k Kobo) Naira() decimal.Decimal {
	return decimal.NewFromInt(int64(k)).Div(hundred)
}

// String returns the value in Naira with two decimals.
func (k Kobo) String() string {
	return k.Naira().StringFixed(2)
}

// ApplyRate multiplies k by rate and rounds to the nearest kobo.
func (k Kobo) ApplyRate(rate decimal.Decimal) Kobo {
	return Kobo(decimal.NewFromInt(int64(k)).Mul(rate).Round(0).IntPart())
}
