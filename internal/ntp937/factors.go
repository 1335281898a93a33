package ntp937

import "github.com/shopspring/decimal"

// VolatilityFactor returns the multiplier for a volatility class, or
// DefaultVolatilityFactor with ok=false for an unknown class.
func VolatilityFactor(c VolatilityClass) (decimal.Decimal, bool) {
	if !c.Valid() {
		return DefaultVolatilityFactor, false
	}
	return VolatilityFactors[c-1], true
}

// ProcedureFactor returns the multiplier for a procedure class, or
// DefaultProcedureFactor with ok=false for an unknown class.
func ProcedureFactor(c ProcedureClass) (decimal.Decimal, bool) {
	if !c.Valid() {
		return DefaultProcedureFactor, false
	}
	return ProcedureFactors[c-1], true
}

// ProtectionFactor returns the multiplier for a protection class, or
// DefaultProtectionFactor with ok=false for an unknown class.
func ProtectionFactor(c ProtectionClass) (decimal.Decimal, bool) {
	if !c.Valid() {
		return DefaultProtectionFactor, false
	}
	return ProtectionFactors[c-1], true
}

// CorrectionFactor derives the exposure-limit correction from the reference
// (lowest) limit. No limits means NoCorrection.
func CorrectionFactor(limits []float64) decimal.Decimal {
	ref, ok := ReferenceLimit(limits)
	if !ok {
		return NoCorrection
	}
	for _, t := range CorrectionThresholds {
		if ref <= t.AtMost {
			return t.Factor
		}
	}
	return NoCorrection
}
