package report

import (
	"github.com/ppiankov/inhalrisk/internal/ntp937"
)

// AssessResponse is the wire form of an assessment result.
type AssessResponse struct {
	Score      float64 `json:"score" yaml:"score"`
	ScoreExact string  `json:"score_exact" yaml:"score_exact"`
	Band       string  `json:"band" yaml:"band"`
	BandLabel  string  `json:"band_label" yaml:"band_label"`
	Extra      Extra   `json:"extra" yaml:"extra"`
}

// Extra carries the breakdown. The first six keys keep the names existing
// consumers already read.
type Extra struct {
	RiskClass                 int     `json:"risk_class" yaml:"risk_class"`
	RiskPotentialScore        float64 `json:"risk_potential_score" yaml:"risk_potential_score"`
	VolatilityScore           float64 `json:"volatility_score" yaml:"volatility_score"`
	ProcedureScore            float64 `json:"procedure_score" yaml:"procedure_score"`
	CollectiveProtectionScore float64 `json:"collective_protection_score" yaml:"collective_protection_score"`
	VLACorrectionFactor       float64 `json:"vla_correction_factor" yaml:"vla_correction_factor"`

	QuantityClass      int               `json:"quantity_class" yaml:"quantity_class"`
	ExposureClass      int               `json:"exposure_class" yaml:"exposure_class"`
	RiskPotentialClass int               `json:"risk_potential_class" yaml:"risk_potential_class"`
	ReferenceLimit     *float64          `json:"reference_limit,omitempty" yaml:"reference_limit,omitempty"`
	HazardSource       string            `json:"hazard_source" yaml:"hazard_source"`
	NoHazardData       bool              `json:"no_hazard_data" yaml:"no_hazard_data"`
	Fallbacks          []ntp937.Fallback `json:"fallbacks" yaml:"fallbacks"`
}

// FromResult builds the wire response for an engine result.
func FromResult(r ntp937.Result) AssessResponse {
	b := r.Breakdown
	score, _ := r.Score.Float64()
	resp := AssessResponse{
		Score:      score,
		ScoreExact: r.Score.String(),
		Band:       string(r.Band),
		BandLabel:  r.Band.Label(),
		Extra: Extra{
			RiskClass:                 int(b.HazardClass),
			RiskPotentialScore:        b.PotentialRiskScore.InexactFloat64(),
			VolatilityScore:           b.VolatilityFactor.InexactFloat64(),
			ProcedureScore:            b.ProcedureFactor.InexactFloat64(),
			CollectiveProtectionScore: b.ProtectionFactor.InexactFloat64(),
			VLACorrectionFactor:       b.CorrectionFactor.InexactFloat64(),
			QuantityClass:             int(b.QuantityClass),
			ExposureClass:             int(b.ExposureClass),
			RiskPotentialClass:        int(b.RiskClass),
			HazardSource:              string(b.HazardSource),
			NoHazardData:              b.NoHazardData,
			Fallbacks:                 b.Fallbacks,
		},
	}
	if b.HasReferenceLimit {
		ref := b.ReferenceLimit
		resp.Extra.ReferenceLimit = &ref
	}
	if resp.Extra.Fallbacks == nil {
		resp.Extra.Fallbacks = []ntp937.Fallback{}
	}
	return resp
}
