package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/inhalrisk/internal/ntp937"
)

func TestInputDefaults(t *testing.T) {
	req := AssessRequest{QuantityGramsPerDay: 50}
	in := req.Input()

	assert.Equal(t, ntp937.FrequencyClass(0), in.Frequency)
	assert.Equal(t, ntp937.VolatilityClass(1), in.Volatility)
	assert.Equal(t, ntp937.ProcedureClass(4), in.Procedure)
	assert.Equal(t, ntp937.ProtectionClass(4), in.Protection)
	assert.Empty(t, in.HazardPhrases)
	assert.Empty(t, in.ExposureLimits)
}

func TestInputMergesSingleLimit(t *testing.T) {
	v := 0.05
	req := AssessRequest{ExposureLimits: []float64{2, 0.5}, ExposureLimit: &v}
	in := req.Input()
	assert.Equal(t, []float64{2, 0.5, 0.05}, in.ExposureLimits)
}

func TestDecodeRequestJSON(t *testing.T) {
	data := []byte(`{
		"hazard_phrases": ["H350", "H315"],
		"exposure_limits": [0.05],
		"quantity_g_day": 50000,
		"frequency_class": 3,
		"volatility_class": 3,
		"procedure_class": 1,
		"protection_class": 1
	}`)
	req, err := DecodeRequest(data, "json")
	require.NoError(t, err)
	assert.Equal(t, []string{"H350", "H315"}, req.HazardPhrases)
	assert.Equal(t, 50000.0, req.QuantityGramsPerDay)
	require.NotNil(t, req.FrequencyClass)
	assert.Equal(t, 3, *req.FrequencyClass)
}

func TestDecodeRequestYAML(t *testing.T) {
	data := []byte(`
hazard_phrases: [H332]
quantity_g_day: 5000
frequency_class: 2
vla_mg_m3: 0.5
`)
	req, err := DecodeRequest(data, "yaml")
	require.NoError(t, err)
	in := req.Input()
	assert.Equal(t, []ntp937.HazardPhrase{"H332"}, in.HazardPhrases)
	assert.Equal(t, []float64{0.5}, in.ExposureLimits)
	assert.Equal(t, ntp937.FrequencyClass(2), in.Frequency)
}

func TestDecodeRequestRejects(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format string
	}{
		{"malformed json", `{"quantity_g_day": `, "json"},
		{"wrong type", `{"quantity_g_day": "lots"}`, "json"},
		{"unknown format", `{}`, "toml"},
		{"phrase too long", `{"hazard_phrases": ["` + strings.Repeat("H", 40) + `"]}`, "json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRequest([]byte(tt.data), tt.format)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRequest))
		})
	}
}

func TestValidateTooManyLimits(t *testing.T) {
	req := AssessRequest{ExposureLimits: make([]float64, 51)}
	err := req.Validate()
	assert.ErrorIs(t, err, ErrInvalidRequest)

	var nilReq *AssessRequest
	assert.ErrorIs(t, nilReq.Validate(), ErrInvalidRequest)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, "json", FormatForPath("task.JSON"))
	assert.Equal(t, "yaml", FormatForPath("task.yaml"))
	assert.Equal(t, "yaml", FormatForPath("task"))
}

func assessReq(t *testing.T, req AssessRequest) AssessResponse {
	t.Helper()
	res, err := ntp937.Assess(req.Input())
	require.NoError(t, err)
	return FromResult(res)
}

func TestFromResultLegacyKeys(t *testing.T) {
	resp := assessReq(t, AssessRequest{
		HazardPhrases:       []string{"H350"},
		ExposureLimits:      []float64{0.05},
		QuantityGramsPerDay: 50000,
		FrequencyClass:      IntPtr(3),
		VolatilityClass:     IntPtr(3),
		ProcedureClass:      IntPtr(1),
		ProtectionClass:     IntPtr(1),
	})

	// 10000 x 100 x 0.001 x 0.001 x 10
	assert.Equal(t, 10.0, resp.Score)
	assert.Equal(t, "10", resp.ScoreExact)
	assert.Equal(t, "LOW", resp.Band)
	assert.Equal(t, "LOW — a priori low risk", resp.BandLabel)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	extra := raw["extra"].(map[string]any)
	for _, key := range []string{
		"risk_class", "risk_potential_score", "volatility_score",
		"procedure_score", "collective_protection_score", "vla_correction_factor",
	} {
		assert.Contains(t, extra, key)
	}
	assert.Equal(t, 5.0, extra["risk_class"])
	assert.Equal(t, 10000.0, extra["risk_potential_score"])
	assert.Equal(t, 10.0, extra["vla_correction_factor"])
	assert.Equal(t, 0.05, extra["reference_limit"])
	assert.Equal(t, []any{}, extra["fallbacks"])
}

func TestFromResultNoHazardData(t *testing.T) {
	resp := assessReq(t, AssessRequest{QuantityGramsPerDay: 500, FrequencyClass: IntPtr(2)})
	assert.True(t, resp.Extra.NoHazardData)
	assert.Equal(t, "no_data", resp.Extra.HazardSource)
	assert.Nil(t, resp.Extra.ReferenceLimit)
	require.Len(t, resp.Extra.Fallbacks, 1)
	assert.Equal(t, ntp937.FallbackNoHazardData, resp.Extra.Fallbacks[0].Kind)
}

func TestFormatText(t *testing.T) {
	resp := assessReq(t, AssessRequest{
		HazardPhrases:       []string{"H999"},
		QuantityGramsPerDay: 500,
		FrequencyClass:      IntPtr(2),
	})
	var buf bytes.Buffer
	require.NoError(t, FormatText(&buf, resp))
	out := buf.String()

	assert.Contains(t, out, "Inhalation risk (NTP 937)")
	assert.Contains(t, out, "Band:  LOW")
	assert.Contains(t, out, "hazard class")
	assert.Contains(t, out, "unrecognized_hazard_phrase")
	assert.NotContains(t, out, "WARNING")

	buf.Reset()
	resp = assessReq(t, AssessRequest{QuantityGramsPerDay: 500, FrequencyClass: IntPtr(2)})
	require.NoError(t, FormatText(&buf, resp))
	assert.Contains(t, buf.String(), "WARNING: no hazard phrases")
}

func TestFormatDispatch(t *testing.T) {
	resp := assessReq(t, AssessRequest{QuantityGramsPerDay: 1})
	var buf bytes.Buffer
	require.NoError(t, Format(&buf, "json", resp))
	var decoded AssessResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "NONE", decoded.Band)

	assert.Error(t, Format(&buf, "xml", resp))
}

func TestBuildTables(t *testing.T) {
	tables := BuildTables()
	assert.Len(t, tables.HazardPhrases, len(ntp937.HazardPhraseClasses))
	assert.Equal(t, 5, tables.HazardPhrases["H350"])
	assert.Len(t, tables.ExposureMatrix, 5)
	assert.Equal(t, []int{0, 4, 5, 5, 5}, tables.ExposureMatrix[4])
	assert.Equal(t, []int{2, 3, 4, 5, 5}, tables.RiskMatrix[4])
	assert.Equal(t, "0.001", tables.ProcedureFactors["1"])
	assert.Equal(t, "10", tables.ProtectionFactors["5"])
	assert.Equal(t, "1", tables.Fallbacks["procedure_factor"])
	assert.Len(t, tables.Bands, 4)

	var buf bytes.Buffer
	require.NoError(t, FormatTablesText(&buf, tables))
	assert.Contains(t, buf.String(), "class 5: EUH032 EUH070 H330 H340 H350 H350i")
}
