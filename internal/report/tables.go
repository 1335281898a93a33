package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ppiankov/inhalrisk/internal/ntp937"
)

// Tables is a serialisable dump of every lookup table the engine uses.
type Tables struct {
	HazardPhrases         map[string]int    `json:"hazard_phrases"`
	HazardLimitThresholds []Threshold       `json:"hazard_limit_thresholds"`
	QuantityBreakpoints   []Threshold       `json:"quantity_breakpoints"`
	ExposureMatrix        [][]int           `json:"exposure_matrix"`
	RiskMatrix            [][]int           `json:"risk_matrix"`
	RiskScores            []string          `json:"risk_scores"`
	VolatilityFactors     map[string]string `json:"volatility_factors"`
	ProcedureFactors      map[string]string `json:"procedure_factors"`
	ProtectionFactors     map[string]string `json:"protection_factors"`
	CorrectionThresholds  []FactorThreshold `json:"correction_thresholds"`
	Bands                 map[string]string `json:"bands"`
	Fallbacks             map[string]string `json:"fallbacks"`
}

// Threshold is a numeric boundary mapped to a class.
type Threshold struct {
	Bound float64 `json:"bound"`
	Class int     `json:"class"`
}

// FactorThreshold is a limit boundary mapped to a correction factor.
type FactorThreshold struct {
	AtMost float64 `json:"at_most"`
	Factor string  `json:"factor"`
}

// BuildTables snapshots the engine tables.
func BuildTables() Tables {
	t := Tables{
		HazardPhrases:     make(map[string]int, len(ntp937.HazardPhraseClasses)),
		VolatilityFactors: map[string]string{},
		ProcedureFactors:  map[string]string{},
		ProtectionFactors: map[string]string{},
		Bands:             map[string]string{},
		Fallbacks: map[string]string{
			"hazard_class":      fmt.Sprint(int(ntp937.DefaultHazardClass)),
			"exposure_class":    fmt.Sprint(int(ntp937.UnmappedExposureClass)),
			"risk_class":        fmt.Sprint(int(ntp937.UnmappedRiskClass)),
			"volatility_factor": ntp937.DefaultVolatilityFactor.String(),
			"procedure_factor":  ntp937.DefaultProcedureFactor.String(),
			"protection_factor": ntp937.DefaultProtectionFactor.String(),
		},
	}
	for p, c := range ntp937.HazardPhraseClasses {
		t.HazardPhrases[string(p)] = int(c)
	}
	for _, th := range ntp937.HazardLimitThresholds {
		t.HazardLimitThresholds = append(t.HazardLimitThresholds, Threshold{Bound: th.AtMost, Class: int(th.Class)})
	}
	for _, bp := range ntp937.QuantityBreakpoints {
		t.QuantityBreakpoints = append(t.QuantityBreakpoints, Threshold{Bound: bp.Below, Class: int(bp.Class)})
	}
	for _, row := range ntp937.ExposureMatrix {
		r := make([]int, len(row))
		for i, v := range row {
			r[i] = int(v)
		}
		t.ExposureMatrix = append(t.ExposureMatrix, r)
	}
	for _, row := range ntp937.RiskMatrix {
		r := make([]int, len(row))
		for i, v := range row {
			r[i] = int(v)
		}
		t.RiskMatrix = append(t.RiskMatrix, r)
	}
	for _, s := range ntp937.RiskScores {
		t.RiskScores = append(t.RiskScores, s.String())
	}
	for i, f := range ntp937.VolatilityFactors {
		t.VolatilityFactors[fmt.Sprint(i+1)] = f.String()
	}
	for i, f := range ntp937.ProcedureFactors {
		t.ProcedureFactors[fmt.Sprint(i+1)] = f.String()
	}
	for i, f := range ntp937.ProtectionFactors {
		t.ProtectionFactors[fmt.Sprint(i+1)] = f.String()
	}
	for _, c := range ntp937.CorrectionThresholds {
		t.CorrectionThresholds = append(t.CorrectionThresholds, FactorThreshold{AtMost: c.AtMost, Factor: c.Factor.String()})
	}
	for _, b := range []ntp937.Band{ntp937.BandNone, ntp937.BandLow, ntp937.BandModerate, ntp937.BandHigh} {
		t.Bands[string(b)] = b.Label()
	}
	return t
}

// FormatTablesText writes the tables for a terminal.
func FormatTablesText(w io.Writer, t Tables) error {
	var b strings.Builder

	b.WriteString("Hazard phrases\n")
	byClass := map[int][]string{}
	for p, c := range t.HazardPhrases {
		byClass[c] = append(byClass[c], p)
	}
	for c := int(ntp937.HazardMin); c <= int(ntp937.HazardMax); c++ {
		phrases := byClass[c]
		if len(phrases) == 0 {
			continue
		}
		sort.Strings(phrases)
		fmt.Fprintf(&b, "  class %d: %s\n", c, strings.Join(phrases, " "))
	}

	b.WriteString("\nHazard from exposure limit (mg/m3)\n")
	for _, th := range t.HazardLimitThresholds {
		fmt.Fprintf(&b, "  <= %-8s class %d\n", num(th.Bound), th.Class)
	}

	b.WriteString("\nQuantity (g/day)\n")
	for _, th := range t.QuantityBreakpoints {
		fmt.Fprintf(&b, "  < %-9s class %d\n", num(th.Bound), th.Class)
	}

	b.WriteString("\nExposure matrix (rows quantity 1-5, columns frequency 0-4)\n")
	writeMatrix(&b, t.ExposureMatrix)
	b.WriteString("\nRisk matrix (rows exposure 1-5, columns hazard 1-5)\n")
	writeMatrix(&b, t.RiskMatrix)

	fmt.Fprintf(&b, "\nRisk scores (class 0-5): %s\n", strings.Join(t.RiskScores, " "))
	writeFactors(&b, "Volatility factors", t.VolatilityFactors)
	writeFactors(&b, "Procedure factors", t.ProcedureFactors)
	writeFactors(&b, "Protection factors", t.ProtectionFactors)

	b.WriteString("\nExposure limit correction (mg/m3)\n")
	for _, c := range t.CorrectionThresholds {
		fmt.Fprintf(&b, "  <= %-8s x%s\n", num(c.AtMost), c.Factor)
	}

	b.WriteString("\nBands\n")
	for _, band := range []ntp937.Band{ntp937.BandHigh, ntp937.BandModerate, ntp937.BandLow, ntp937.BandNone} {
		fmt.Fprintf(&b, "  %-9s %s\n", band, t.Bands[string(band)])
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeMatrix(b *strings.Builder, m [][]int) {
	for i, row := range m {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		fmt.Fprintf(b, "  %d | %s\n", i+1, strings.Join(cells, " "))
	}
}

func writeFactors(b *strings.Builder, title string, f map[string]string) {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + f[k]
	}
	fmt.Fprintf(b, "%s: %s\n", title, strings.Join(parts, " "))
}
