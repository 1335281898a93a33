package ntp937

import "fmt"

// HazardPhrase is a coded hazard statement such as "H350" or "EUH070".
type HazardPhrase string

// HazardClass ranks the intrinsic danger of a substance. Higher = more hazardous.
type HazardClass int

const (
	HazardMin HazardClass = 1
	HazardMax HazardClass = 5
)

func (c HazardClass) Valid() bool { return c >= HazardMin && c <= HazardMax }

// QuantityClass ranks the mass handled per day.
type QuantityClass int

const (
	QuantityMin QuantityClass = 1
	QuantityMax QuantityClass = 5
)

func (c QuantityClass) Valid() bool { return c >= QuantityMin && c <= QuantityMax }

// FrequencyClass ranks how often the task is performed. 0 means never.
type FrequencyClass int

const (
	FrequencyNever FrequencyClass = 0
	FrequencyMax   FrequencyClass = 4
)

func (c FrequencyClass) Valid() bool { return c >= FrequencyNever && c <= FrequencyMax }

// ExposureClass is the exposure potential derived from quantity and frequency.
type ExposureClass int

const (
	ExposureNone ExposureClass = 0
	ExposureMax  ExposureClass = 5
)

func (c ExposureClass) Valid() bool { return c >= ExposureNone && c <= ExposureMax }

// RiskClass is the potential-risk class derived from exposure and hazard.
type RiskClass int

const (
	RiskNone RiskClass = 0
	RiskMax  RiskClass = 5
)

func (c RiskClass) Valid() bool { return c >= RiskNone && c <= RiskMax }

// VolatilityClass ranks how readily the substance becomes airborne
// (vapour pressure for liquids, dustiness for solids).
type VolatilityClass int

const (
	VolatilityLow    VolatilityClass = 1
	VolatilityMedium VolatilityClass = 2
	VolatilityHigh   VolatilityClass = 3
)

func (c VolatilityClass) Valid() bool { return c >= VolatilityLow && c <= VolatilityHigh }

// ProcedureClass ranks process containment. 1 is fully closed, 4 is dispersive.
type ProcedureClass int

const (
	ProcedureClosed     ProcedureClass = 1
	ProcedureDispersive ProcedureClass = 4
)

func (c ProcedureClass) Valid() bool { return c >= ProcedureClosed && c <= ProcedureDispersive }

// ProtectionClass ranks the collective protective measures in place.
// 1 is full containment, 5 is none at all.
type ProtectionClass int

const (
	ProtectionFull ProtectionClass = 1
	ProtectionNone ProtectionClass = 5
)

func (c ProtectionClass) Valid() bool { return c >= ProtectionFull && c <= ProtectionNone }

// Band is the qualitative characterisation of the final score.
type Band string

const (
	BandNone     Band = "NONE"
	BandLow      Band = "LOW"
	BandModerate Band = "MODERATE"
	BandHigh     Band = "HIGH"
)

// Label returns the human-readable characterisation of the band.
func (b Band) Label() string {
	switch b {
	case BandHigh:
		return "HIGH — immediate corrective action probably required"
	case BandModerate:
		return "MODERATE — corrective measures and/or more detailed evaluation probably needed"
	case BandLow:
		return "LOW — a priori low risk"
	case BandNone:
		return "No exposure risk (task never performed)"
	default:
		return fmt.Sprintf("unknown band %q", string(b))
	}
}

// ParseBand maps a band code (case-sensitive) to a Band.
func ParseBand(s string) (Band, error) {
	switch Band(s) {
	case BandNone, BandLow, BandModerate, BandHigh:
		return Band(s), nil
	default:
		return "", fmt.Errorf("unknown band %q", s)
	}
}
