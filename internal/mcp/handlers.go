package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/inhalrisk/internal/assess"
	"github.com/ppiankov/inhalrisk/internal/report"
	"github.com/ppiankov/inhalrisk/internal/sds"
)

// AssessInput defines parameters for the ntp937_assess tool.
type AssessInput struct {
	HazardPhrases       []string       `json:"hazard_phrases,omitempty" jsonschema:"hazard statement codes such as H350 or EUH070"`
	ExposureLimits      []float64      `json:"exposure_limits,omitempty" jsonschema:"occupational exposure limits in mg/m3; the lowest is the reference"`
	QuantityGramsPerDay float64        `json:"quantity_g_day" jsonschema:"mass of substance handled per day in grams"`
	FrequencyClass      *int           `json:"frequency_class,omitempty" jsonschema:"0 never, 1 occasional, 2 intermittent, 3 frequent, 4 permanent (default 0)"`
	VolatilityClass     *int           `json:"volatility_class,omitempty" jsonschema:"1 low, 2 medium, 3 high (default 1)"`
	ProcedureClass      *int           `json:"procedure_class,omitempty" jsonschema:"1 closed, 2 semi-closed, 3 open, 4 dispersive (default 4)"`
	ProtectionClass     *int           `json:"protection_class,omitempty" jsonschema:"1 full enclosure to 5 no ventilation (default 4)"`
	Chemicals           []sds.Chemical `json:"quimicos_datos,omitempty" jsonschema:"safety data sheet summary per chemical; merged into hazard phrases and limits"`
}

// Request converts the tool input to a wire request.
func (in AssessInput) Request() *report.AssessRequest {
	req := &report.AssessRequest{
		HazardPhrases:       in.HazardPhrases,
		ExposureLimits:      in.ExposureLimits,
		QuantityGramsPerDay: in.QuantityGramsPerDay,
		FrequencyClass:      in.FrequencyClass,
		VolatilityClass:     in.VolatilityClass,
		ProcedureClass:      in.ProcedureClass,
		ProtectionClass:     in.ProtectionClass,
	}
	if len(in.Chemicals) > 0 {
		p := sds.Payload{Chemicals: in.Chemicals}
		p.Apply(req)
	}
	return req
}

// TablesInput is empty; no parameters needed.
type TablesInput struct{}

func (s *Server) handleAssess(ctx context.Context, req *mcpsdk.CallToolRequest, input AssessInput) (*mcpsdk.CallToolResult, report.AssessResponse, error) {
	resp, err := s.svc.Assess(assess.WithRequestID(ctx, ""), assess.SurfaceMCP, input.Request())
	if err != nil {
		return nil, report.AssessResponse{}, err
	}
	return nil, resp, nil
}

func (s *Server) handleTables(ctx context.Context, req *mcpsdk.CallToolRequest, input TablesInput) (*mcpsdk.CallToolResult, report.Tables, error) {
	return nil, s.svc.Tables(), nil
}
