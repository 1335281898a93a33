package ntp937

import "github.com/shopspring/decimal"

// HazardPhraseClasses maps recognised hazard statements to their hazard class.
// Codes are matched exactly; H360FD and H360Fd are distinct statements.
var HazardPhraseClasses = map[HazardPhrase]HazardClass{
	"H335": 2, "H336": 2,

	"H304": 3, "H332": 3, "H361": 3, "H361d": 3, "H361f": 3, "H361fd": 3,
	"H362": 3, "H371": 3, "H373": 3, "EUH071": 3,

	"H331": 4, "H334": 4, "H341": 4, "H351": 4, "H360": 4, "H360F": 4,
	"H360FD": 4, "H360D": 4, "H360Df": 4, "H360Fd": 4, "H370": 4, "H372": 4,
	"EUH029": 4, "EUH031": 4,

	"H330": 5, "H340": 5, "H350": 5, "H350i": 5, "EUH032": 5, "EUH070": 5,
}

// LimitThreshold assigns a hazard class to exposure limits at or below AtMost (mg/m³).
type LimitThreshold struct {
	AtMost float64
	Class  HazardClass
}

// HazardLimitThresholds classify hazard from the reference exposure limit
// when no hazard phrases are supplied. Checked in order; no match is HazardMin.
var HazardLimitThresholds = []LimitThreshold{
	{AtMost: 0.1, Class: 5},
	{AtMost: 1, Class: 4},
	{AtMost: 10, Class: 3},
	{AtMost: 100, Class: 2},
}

// QuantityBreakpoint assigns a quantity class to daily masses strictly below Below (g).
type QuantityBreakpoint struct {
	Below float64
	Class QuantityClass
}

// QuantityBreakpoints are checked in order; no match is QuantityMax.
var QuantityBreakpoints = []QuantityBreakpoint{
	{Below: 100, Class: 1},
	{Below: 10_000, Class: 2},
	{Below: 100_000, Class: 3},
	{Below: 1_000_000, Class: 4},
}

// ExposureMatrix is indexed [quantity-1][frequency]. The frequency-0 column
// is all zero: a task that is never performed has no exposure potential.
var ExposureMatrix = [QuantityMax][FrequencyMax + 1]ExposureClass{
	{0, 1, 1, 1, 1},
	{0, 2, 2, 2, 2},
	{0, 3, 3, 3, 4},
	{0, 3, 4, 4, 5},
	{0, 4, 5, 5, 5},
}

// RiskMatrix is indexed [exposure-1][hazard-1]. Exposure 0 never reaches it.
var RiskMatrix = [ExposureMax][HazardMax]RiskClass{
	{1, 1, 2, 3, 4},
	{1, 1, 2, 3, 4},
	{1, 2, 3, 4, 5},
	{1, 2, 3, 4, 5},
	{2, 3, 4, 5, 5},
}

// RiskScores converts a potential-risk class to its score. Each class step
// is one order of magnitude.
var RiskScores = [RiskMax + 1]decimal.Decimal{
	decimal.Zero,
	decimal.NewFromInt(1),
	decimal.NewFromInt(10),
	decimal.NewFromInt(100),
	decimal.NewFromInt(1000),
	decimal.NewFromInt(10000),
}

// VolatilityFactors is indexed by volatility class - 1.
var VolatilityFactors = [VolatilityHigh]decimal.Decimal{
	decimal.NewFromInt(1),
	decimal.NewFromInt(10),
	decimal.NewFromInt(100),
}

// ProcedureFactors is indexed by procedure class - 1.
var ProcedureFactors = [ProcedureDispersive]decimal.Decimal{
	decimal.New(1, -3),
	decimal.New(5, -2),
	decimal.New(5, -1),
	decimal.NewFromInt(1),
}

// ProtectionFactors is indexed by protection class - 1.
var ProtectionFactors = [ProtectionNone]decimal.Decimal{
	decimal.New(1, -3),
	decimal.New(1, -1),
	decimal.New(7, -1),
	decimal.NewFromInt(1),
	decimal.NewFromInt(10),
}

// CorrectionThreshold assigns a correction factor to exposure limits at or below AtMost (mg/m³).
type CorrectionThreshold struct {
	AtMost float64
	Factor decimal.Decimal
}

// CorrectionThresholds sharpen the score for very toxic substances.
// Checked in order; no match is NoCorrection.
var CorrectionThresholds = []CorrectionThreshold{
	{AtMost: 0.001, Factor: decimal.NewFromInt(100)},
	{AtMost: 0.01, Factor: decimal.NewFromInt(30)},
	{AtMost: 0.1, Factor: decimal.NewFromInt(10)},
}

// Band boundaries on the final score.
var (
	HighAbove     = decimal.NewFromInt(1000)
	ModerateAbove = decimal.NewFromInt(100)
)

// Fallback values applied when an input falls outside a table. They are not
// uniformly precautionary: volatility falls back to its best case,
// protection to a mid-range value and procedure to its worst case.
// Changing one is a one-line edit here; tests pin the current values.
const (
	DefaultHazardClass    HazardClass   = HazardMin
	UnmappedExposureClass ExposureClass = ExposureNone
	UnmappedRiskClass     RiskClass     = 1
)

var (
	DefaultVolatilityFactor = decimal.NewFromInt(1)
	DefaultProcedureFactor  = decimal.NewFromInt(1)
	DefaultProtectionFactor = decimal.NewFromInt(1)
	NoCorrection            = decimal.NewFromInt(1)
)
