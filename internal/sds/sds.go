// Package sds reads the per-chemical safety data sheet summary produced
// upstream and turns it into assessment inputs.
package sds

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/inhalrisk/internal/report"
)

// Chemical is one substance extracted from a safety data sheet. Only the
// fields the assessment reads are decoded.
type Chemical struct {
	Name                string   `json:"nombre_quimico" yaml:"nombre_quimico"`
	ExposureLimitMgM3   *float64 `json:"vla_mg_m3" yaml:"vla_mg_m3"`
	ExposureLimitPPM    *float64 `json:"vla_ppm,omitempty" yaml:"vla_ppm,omitempty"`
	VapourPressureHPa   *float64 `json:"presion_vapor_hpa,omitempty" yaml:"presion_vapor_hpa,omitempty"`
	BoilingPointCelsius *float64 `json:"punto_ebullicion_c,omitempty" yaml:"punto_ebullicion_c,omitempty"`
	HazardPhrases       []string `json:"frases_h" yaml:"frases_h"`
}

// Payload is the enrichment document: one entry per chemical in the task.
type Payload struct {
	Chemicals []Chemical `json:"quimicos_datos" yaml:"quimicos_datos"`
}

// Parse decodes a payload. format is "json" or "yaml".
func Parse(data []byte, format string) (*Payload, error) {
	var p Payload
	var err error
	switch format {
	case "json":
		err = json.Unmarshal(data, &p)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &p)
	default:
		return nil, fmt.Errorf("unsupported sds format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("parse sds: %w", err)
	}
	return &p, nil
}

// ParseFile reads and decodes a payload, picking the format from the extension.
func ParseFile(path string) (*Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sds %s: %w", path, err)
	}
	return Parse(data, report.FormatForPath(path))
}

// HazardPhrases returns the union of all chemicals' hazard phrases in first
// seen order. Blank entries are dropped.
func (p *Payload) HazardPhrases() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range p.Chemicals {
		for _, h := range c.HazardPhrases {
			h = strings.TrimSpace(h)
			if h == "" || seen[h] {
				continue
			}
			seen[h] = true
			out = append(out, h)
		}
	}
	return out
}

// ExposureLimits returns every non-null mg/m³ limit, one per chemical.
func (p *Payload) ExposureLimits() []float64 {
	var out []float64
	for _, c := range p.Chemicals {
		if c.ExposureLimitMgM3 != nil {
			out = append(out, *c.ExposureLimitMgM3)
		}
	}
	return out
}

// Names lists the chemicals in payload order.
func (p *Payload) Names() []string {
	out := make([]string, 0, len(p.Chemicals))
	for _, c := range p.Chemicals {
		out = append(out, c.Name)
	}
	return out
}

// Apply adds the payload's hazard phrases and exposure limits to req.
// Values already on the request are kept.
func (p *Payload) Apply(req *report.AssessRequest) {
	req.HazardPhrases = append(req.HazardPhrases, p.HazardPhrases()...)
	req.ExposureLimits = append(req.ExposureLimits, p.ExposureLimits()...)
}
