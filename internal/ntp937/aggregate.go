package ntp937

import "github.com/shopspring/decimal"

// Factors are the five independent multipliers of the final score.
type Factors struct {
	PotentialRisk decimal.Decimal
	Volatility    decimal.Decimal
	Procedure     decimal.Decimal
	Protection    decimal.Decimal
	Correction    decimal.Decimal
}

// Aggregate multiplies the factors and characterises the product.
func Aggregate(f Factors) (decimal.Decimal, Band) {
	score := f.PotentialRisk.
		Mul(f.Volatility).
		Mul(f.Procedure).
		Mul(f.Protection).
		Mul(f.Correction)
	return score, BandFor(score)
}

// BandFor maps a score to its band. Zero is checked before LOW because it
// also satisfies score <= 100.
func BandFor(score decimal.Decimal) Band {
	switch {
	case score.GreaterThan(HighAbove):
		return BandHigh
	case score.GreaterThan(ModerateAbove):
		return BandModerate
	case score.IsZero():
		return BandNone
	default:
		return BandLow
	}
}
