package ntp937

import (
	"errors"
	"fmt"
)

// ErrContractViolation is wrapped by every input rejection. Callers match it
// with errors.Is; the computation never starts when it is returned.
var ErrContractViolation = errors.New("contract violation")

// ContractError describes which input field broke the engine contract.
type ContractError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("contract violation: %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ContractError) Unwrap() error { return ErrContractViolation }

func violation(field string, value any, reason string) error {
	return &ContractError{Field: field, Value: value, Reason: reason}
}

// FallbackKind names a default that was applied instead of a table value.
type FallbackKind string

const (
	FallbackUnknownPhrase     FallbackKind = "unrecognized_hazard_phrase"
	FallbackNoHazardData      FallbackKind = "no_hazard_data"
	FallbackUnmappedExposure  FallbackKind = "unmapped_exposure_cell"
	FallbackUnmappedRisk      FallbackKind = "unmapped_risk_cell"
	FallbackUnknownVolatility FallbackKind = "unrecognized_volatility_class"
	FallbackUnknownProcedure  FallbackKind = "unrecognized_procedure_class"
	FallbackUnknownProtection FallbackKind = "unrecognized_protection_class"
)

// Fallback records one default applied during an assessment. Fallbacks never
// fail the assessment; they are surfaced so reports can tell an explicit
// classification from an assumed one. Value is the class or factor that was
// assumed; it is empty when the input was ignored rather than replaced.
type Fallback struct {
	Kind   FallbackKind `json:"kind"`
	Detail string       `json:"detail"`
	Value  string       `json:"value,omitempty"`
}
