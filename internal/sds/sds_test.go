package sds

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/inhalrisk/internal/ntp937"
	"github.com/ppiankov/inhalrisk/internal/report"
)

const twoChemicals = `{
  "quimicos_datos": [
    {"nombre_quimico": "toluene", "vla_mg_m3": 192, "frases_h": ["H225", "H304", "H361d", "H373"]},
    {"nombre_quimico": "benzene", "vla_mg_m3": 3.25, "frases_h": ["H350", "H340", "H304"]},
    {"nombre_quimico": "water", "vla_mg_m3": null, "frases_h": null}
  ],
  "contexto_legal": {"pais": "ES"}
}`

func TestParseMergesChemicals(t *testing.T) {
	p, err := Parse([]byte(twoChemicals), "json")
	require.NoError(t, err)

	assert.Equal(t, []string{"toluene", "benzene", "water"}, p.Names())
	assert.Equal(t, []string{"H225", "H304", "H361d", "H373", "H350", "H340"}, p.HazardPhrases())
	assert.Equal(t, []float64{192, 3.25}, p.ExposureLimits())
}

func TestApplyFeedsReferenceLimit(t *testing.T) {
	p, err := Parse([]byte(twoChemicals), "json")
	require.NoError(t, err)

	req := report.AssessRequest{QuantityGramsPerDay: 500, FrequencyClass: report.IntPtr(3)}
	p.Apply(&req)

	res, err := ntp937.Assess(req.Input())
	require.NoError(t, err)
	assert.Equal(t, ntp937.HazardClass(5), res.Breakdown.HazardClass)
	assert.Equal(t, 3.25, res.Breakdown.ReferenceLimit)
	assert.True(t, res.Breakdown.HasReferenceLimit)
}

func TestParseYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
quimicos_datos:
  - nombre_quimico: formaldehyde
    vla_mg_m3: 0.37
    frases_h: [" H350 ", H331, ""]
`), 0o600))

	p, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"H350", "H331"}, p.HazardPhrases())
	assert.Equal(t, []float64{0.37}, p.ExposureLimits())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`{"quimicos_datos": [`), "json")
	assert.Error(t, err)

	_, err = Parse([]byte(`{}`), "xml")
	assert.Error(t, err)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestEmptyPayload(t *testing.T) {
	p, err := Parse([]byte(`{}`), "json")
	require.NoError(t, err)
	assert.Empty(t, p.HazardPhrases())
	assert.Empty(t, p.ExposureLimits())
	assert.Empty(t, p.Names())
}
