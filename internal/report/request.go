// Package report converts between the wire representation of an assessment
// (JSON/YAML) and the ntp937 engine types, and renders results for humans.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/inhalrisk/internal/ntp937"
)

// Defaults for omitted ordinal classes: a task never performed, low
// volatility, dispersive procedure, no particular collective protection.
const (
	DefaultFrequencyClass  = 0
	DefaultVolatilityClass = 1
	DefaultProcedureClass  = 4
	DefaultProtectionClass = 4
)

// ErrInvalidRequest marks a request that could not be decoded or failed
// shape validation. Range checks are left to the engine.
var ErrInvalidRequest = errors.New("invalid request")

var validate = validator.New()

// AssessRequest is the wire form of an assessment input.
type AssessRequest struct {
	HazardPhrases  []string  `json:"hazard_phrases,omitempty" yaml:"hazard_phrases,omitempty" validate:"max=200,dive,max=32"`
	ExposureLimits []float64 `json:"exposure_limits,omitempty" yaml:"exposure_limits,omitempty" validate:"max=50"`
	// ExposureLimit is the single-value form used by older callers. It is
	// added to ExposureLimits.
	ExposureLimit       *float64 `json:"vla_mg_m3,omitempty" yaml:"vla_mg_m3,omitempty"`
	QuantityGramsPerDay float64  `json:"quantity_g_day" yaml:"quantity_g_day"`
	FrequencyClass      *int     `json:"frequency_class,omitempty" yaml:"frequency_class,omitempty"`
	VolatilityClass     *int     `json:"volatility_class,omitempty" yaml:"volatility_class,omitempty"`
	ProcedureClass      *int     `json:"procedure_class,omitempty" yaml:"procedure_class,omitempty"`
	ProtectionClass     *int     `json:"protection_class,omitempty" yaml:"protection_class,omitempty"`
}

// Validate checks request shape (sizes). It does not range-check classes.
func (r *AssessRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: request body is required", ErrInvalidRequest)
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// Input converts the request to an engine input, applying defaults for
// omitted classes.
func (r *AssessRequest) Input() ntp937.Input {
	in := ntp937.Input{
		QuantityGramsPerDay: r.QuantityGramsPerDay,
		Frequency:           ntp937.FrequencyClass(intOr(r.FrequencyClass, DefaultFrequencyClass)),
		Volatility:          ntp937.VolatilityClass(intOr(r.VolatilityClass, DefaultVolatilityClass)),
		Procedure:           ntp937.ProcedureClass(intOr(r.ProcedureClass, DefaultProcedureClass)),
		Protection:          ntp937.ProtectionClass(intOr(r.ProtectionClass, DefaultProtectionClass)),
	}
	for _, p := range r.HazardPhrases {
		in.HazardPhrases = append(in.HazardPhrases, ntp937.HazardPhrase(p))
	}
	in.ExposureLimits = append(in.ExposureLimits, r.ExposureLimits...)
	if r.ExposureLimit != nil {
		in.ExposureLimits = append(in.ExposureLimits, *r.ExposureLimit)
	}
	return in
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// IntPtr is a convenience for building requests in code.
func IntPtr(v int) *int { return &v }

// DecodeRequest parses a JSON or YAML request and validates its shape.
// YAML is a superset of JSON, so format "yaml" accepts both.
func DecodeRequest(data []byte, format string) (*AssessRequest, error) {
	var req AssessRequest
	var err error
	switch format {
	case "json":
		err = json.Unmarshal(data, &req)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &req)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidRequest, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// FormatForPath picks the decode format from a file extension.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	default:
		return "yaml"
	}
}
