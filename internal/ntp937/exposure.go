package ntp937

import (
	"math"

	"github.com/shopspring/decimal"
)

// ClassifyQuantity maps grams handled per day to a quantity class.
func ClassifyQuantity(grams float64) (QuantityClass, error) {
	if err := checkQuantity(grams); err != nil {
		return 0, err
	}
	for _, b := range QuantityBreakpoints {
		if grams < b.Below {
			return b.Class, nil
		}
	}
	return QuantityMax, nil
}

func checkQuantity(grams float64) error {
	switch {
	case math.IsNaN(grams) || math.IsInf(grams, 0):
		return violation("quantity_g_day", grams, "must be a finite number")
	case grams < 0:
		return violation("quantity_g_day", grams, "must not be negative")
	}
	return nil
}

// CombineExposure looks up the exposure potential for a quantity and
// frequency. ok is false when the pair lies outside the matrix, in which
// case UnmappedExposureClass is returned.
func CombineExposure(q QuantityClass, f FrequencyClass) (ExposureClass, bool) {
	if !q.Valid() || !f.Valid() {
		return UnmappedExposureClass, false
	}
	return ExposureMatrix[q-1][f], true
}

// CombineRisk looks up the potential-risk class. No exposure short-circuits
// to RiskNone whatever the hazard. ok is false when the pair lies outside
// the matrix, in which case UnmappedRiskClass is returned.
func CombineRisk(e ExposureClass, h HazardClass) (RiskClass, bool) {
	if e == ExposureNone {
		return RiskNone, true
	}
	if !e.Valid() || !h.Valid() {
		return UnmappedRiskClass, false
	}
	return RiskMatrix[e-1][h-1], true
}

// RiskScore converts a potential-risk class to its decade-scale score.
func RiskScore(r RiskClass) decimal.Decimal {
	if !r.Valid() {
		return decimal.Zero
	}
	return RiskScores[r]
}
