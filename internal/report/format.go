package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FormatJSON writes the response as indented JSON.
func FormatJSON(w io.Writer, resp AssessResponse) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// FormatText writes a human-readable summary of the response.
func FormatText(w io.Writer, resp AssessResponse) error {
	var b strings.Builder
	e := resp.Extra

	b.WriteString("Inhalation risk (NTP 937)\n")
	fmt.Fprintf(&b, "  Score: %s\n", resp.ScoreExact)
	fmt.Fprintf(&b, "  Band:  %s\n", resp.BandLabel)
	b.WriteString("\n")

	b.WriteString("Breakdown\n")
	fmt.Fprintf(&b, "  %-22s %d (%s)\n", "hazard class", e.RiskClass, e.HazardSource)
	if e.ReferenceLimit != nil {
		fmt.Fprintf(&b, "  %-22s %s mg/m3\n", "reference limit", num(*e.ReferenceLimit))
	}
	fmt.Fprintf(&b, "  %-22s %d\n", "quantity class", e.QuantityClass)
	fmt.Fprintf(&b, "  %-22s %d\n", "exposure potential", e.ExposureClass)
	fmt.Fprintf(&b, "  %-22s %d (score %s)\n", "potential risk", e.RiskPotentialClass, num(e.RiskPotentialScore))
	fmt.Fprintf(&b, "  %-22s %s\n", "volatility factor", num(e.VolatilityScore))
	fmt.Fprintf(&b, "  %-22s %s\n", "procedure factor", num(e.ProcedureScore))
	fmt.Fprintf(&b, "  %-22s %s\n", "protection factor", num(e.CollectiveProtectionScore))
	fmt.Fprintf(&b, "  %-22s %s\n", "correction factor", num(e.VLACorrectionFactor))

	if len(e.Fallbacks) > 0 {
		b.WriteString("\nFallbacks\n")
		for _, f := range e.Fallbacks {
			fmt.Fprintf(&b, "  - [%s] %s\n", f.Kind, f.Detail)
		}
	}
	if e.NoHazardData {
		b.WriteString("\nWARNING: no hazard phrases or exposure limits were supplied; hazard class 1 was assumed.\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Format writes the response in the named format ("text" or "json").
func Format(w io.Writer, format string, resp AssessResponse) error {
	switch format {
	case "", "text":
		return FormatText(w, resp)
	case "json":
		return FormatJSON(w, resp)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
