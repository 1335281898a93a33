package ntp937

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Input is one task to assess. The engine never modifies it.
type Input struct {
	HazardPhrases       []HazardPhrase
	ExposureLimits      []float64 // mg/m³, one per source; the lowest is the reference
	QuantityGramsPerDay float64
	Frequency           FrequencyClass
	Volatility          VolatilityClass
	Procedure           ProcedureClass
	Protection          ProtectionClass
}

// Breakdown exposes every intermediate value behind a score so that it can
// be reproduced or challenged. It is populated on every path.
type Breakdown struct {
	HazardClass       HazardClass
	HazardSource      HazardSource
	NoHazardData      bool
	ReferenceLimit    float64
	HasReferenceLimit bool

	QuantityClass QuantityClass
	ExposureClass ExposureClass
	RiskClass     RiskClass

	PotentialRiskScore decimal.Decimal
	VolatilityFactor   decimal.Decimal
	ProcedureFactor    decimal.Decimal
	ProtectionFactor   decimal.Decimal
	CorrectionFactor   decimal.Decimal

	Fallbacks []Fallback
}

// Result is the outcome of an assessment.
type Result struct {
	Score     decimal.Decimal
	Band      Band
	Breakdown Breakdown
}

// Options control input validation.
type Options struct {
	// Strict rejects ordinal classes outside their declared range instead of
	// applying the table fallbacks.
	Strict bool
}

// Engine runs assessments. The zero value is a lenient engine.
type Engine struct {
	opts Options
}

// NewEngine returns an engine with the given options.
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Options returns the engine's options.
func (e *Engine) Options() Options {
	return e.opts
}

var lenient = &Engine{}

// Assess runs a lenient assessment.
func Assess(in Input) (Result, error) {
	return lenient.Assess(in)
}

// Assess validates the input and scores it. The only error is a
// *ContractError, returned before any stage runs.
func (e *Engine) Assess(in Input) (Result, error) {
	if err := e.Validate(in); err != nil {
		return Result{}, err
	}

	var b Breakdown

	b.HazardClass, b.HazardSource, b.Fallbacks = ClassifyHazard(in.HazardPhrases, in.ExposureLimits)
	b.NoHazardData = b.HazardSource == HazardNoData
	b.ReferenceLimit, b.HasReferenceLimit = ReferenceLimit(in.ExposureLimits)

	// Validated above, cannot fail.
	b.QuantityClass, _ = ClassifyQuantity(in.QuantityGramsPerDay)

	var ok bool
	if b.ExposureClass, ok = CombineExposure(b.QuantityClass, in.Frequency); !ok {
		b.Fallbacks = append(b.Fallbacks, Fallback{
			Kind:   FallbackUnmappedExposure,
			Detail: fmt.Sprintf("quantity %d x frequency %d is outside the exposure matrix; assumed %d", b.QuantityClass, in.Frequency, UnmappedExposureClass),
			Value:  strconv.Itoa(int(UnmappedExposureClass)),
		})
	}
	if b.RiskClass, ok = CombineRisk(b.ExposureClass, b.HazardClass); !ok {
		b.Fallbacks = append(b.Fallbacks, Fallback{
			Kind:   FallbackUnmappedRisk,
			Detail: fmt.Sprintf("exposure %d x hazard %d is outside the risk matrix; assumed %d", b.ExposureClass, b.HazardClass, UnmappedRiskClass),
			Value:  strconv.Itoa(int(UnmappedRiskClass)),
		})
	}
	b.PotentialRiskScore = RiskScore(b.RiskClass)

	if b.VolatilityFactor, ok = VolatilityFactor(in.Volatility); !ok {
		b.Fallbacks = append(b.Fallbacks, classFallback(FallbackUnknownVolatility, "volatility", int(in.Volatility), b.VolatilityFactor))
	}
	if b.ProcedureFactor, ok = ProcedureFactor(in.Procedure); !ok {
		b.Fallbacks = append(b.Fallbacks, classFallback(FallbackUnknownProcedure, "procedure", int(in.Procedure), b.ProcedureFactor))
	}
	if b.ProtectionFactor, ok = ProtectionFactor(in.Protection); !ok {
		b.Fallbacks = append(b.Fallbacks, classFallback(FallbackUnknownProtection, "protection", int(in.Protection), b.ProtectionFactor))
	}
	b.CorrectionFactor = CorrectionFactor(in.ExposureLimits)

	score, band := Aggregate(Factors{
		PotentialRisk: b.PotentialRiskScore,
		Volatility:    b.VolatilityFactor,
		Procedure:     b.ProcedureFactor,
		Protection:    b.ProtectionFactor,
		Correction:    b.CorrectionFactor,
	})

	return Result{Score: score, Band: band, Breakdown: b}, nil
}

func classFallback(kind FallbackKind, name string, class int, factor decimal.Decimal) Fallback {
	return Fallback{
		Kind:   kind,
		Detail: fmt.Sprintf("%s class %d is not recognised; factor %s applied", name, class, factor),
		Value:  factor.String(),
	}
}

// Validate checks the input contract: a finite non-negative quantity,
// finite positive exposure limits and, in strict mode, in-range classes.
func (e *Engine) Validate(in Input) error {
	if err := checkQuantity(in.QuantityGramsPerDay); err != nil {
		return err
	}
	for i, l := range in.ExposureLimits {
		if math.IsNaN(l) || math.IsInf(l, 0) || l <= 0 {
			return violation(fmt.Sprintf("exposure_limits[%d]", i), l, "must be a finite positive number")
		}
	}

	if !e.opts.Strict {
		return nil
	}
	switch {
	case !in.Frequency.Valid():
		return violation("frequency_class", int(in.Frequency), fmt.Sprintf("must be in %d..%d", FrequencyNever, FrequencyMax))
	case !in.Volatility.Valid():
		return violation("volatility_class", int(in.Volatility), fmt.Sprintf("must be in %d..%d", VolatilityLow, VolatilityHigh))
	case !in.Procedure.Valid():
		return violation("procedure_class", int(in.Procedure), fmt.Sprintf("must be in %d..%d", ProcedureClosed, ProcedureDispersive))
	case !in.Protection.Valid():
		return violation("protection_class", int(in.Protection), fmt.Sprintf("must be in %d..%d", ProtectionFull, ProtectionNone))
	}
	return nil
}
