package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const separator = "──────────────────────────────────────────────────────────────────"

var bandOrder = []string{"HIGH", "MODERATE", "LOW", "NONE"}

// FormatTimeline renders a query result as a text timeline.
func FormatTimeline(r *QueryResult) string {
	if len(r.Entries) == 0 {
		return "No audit entries found.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Assessments %s to %s UTC\n",
		formatTime(r.Summary.FirstTimestamp, "2006-01-02 15:04:05"),
		formatTime(r.Summary.LastTimestamp, "2006-01-02 15:04:05"))
	b.WriteString(separator + "\n")

	for _, e := range r.Entries {
		outcome := e.Band
		detail := "score " + e.Score
		if e.Outcome == OutcomeRejected {
			outcome = "REJECTED"
			detail = truncate(e.Error, 40)
		} else if e.Fallbacks > 0 {
			detail += fmt.Sprintf(" (%d fallbacks)", e.Fallbacks)
		}
		fmt.Fprintf(&b, "%-10s %-7s %-9s %-36s %s\n",
			formatTime(e.Timestamp, "15:04:05"), e.Surface, outcome, e.RequestID, detail)
	}

	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(r.Summary))
	return b.String()
}

// FormatJSON renders a query result as indented JSON.
func FormatJSON(r *QueryResult) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal audit query: %w", err)
	}
	return string(data), nil
}

func formatSummary(s Summary) string {
	var parts []string
	for _, band := range bandOrder {
		if n := s.ByBand[band]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, band))
		}
	}
	if s.Rejected > 0 {
		parts = append(parts, fmt.Sprintf("%d rejected", s.Rejected))
	}
	return fmt.Sprintf("Summary: %d total | %s | %d with fallbacks\n",
		s.Total, strings.Join(parts, ", "), s.WithFallbacks)
}

func formatTime(ts, layout string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format(layout)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
