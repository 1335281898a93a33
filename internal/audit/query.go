package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Filter selects entries. Zero fields match everything.
type Filter struct {
	RequestID string
	Surface   string
	Band      string
	From      time.Time
	To        time.Time
}

func (f Filter) match(e Entry) bool {
	if f.RequestID != "" && e.RequestID != f.RequestID {
		return false
	}
	if f.Surface != "" && !strings.EqualFold(e.Surface, f.Surface) {
		return false
	}
	if f.Band != "" && !strings.EqualFold(e.Band, f.Band) {
		return false
	}
	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	ts, err := time.Parse(TimestampFormat, e.Timestamp)
	if err != nil {
		return false
	}
	if !f.From.IsZero() && ts.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && ts.After(f.To) {
		return false
	}
	return true
}

// Summary counts the selected entries.
type Summary struct {
	Total          int            `json:"total"`
	Rejected       int            `json:"rejected"`
	ByBand         map[string]int `json:"by_band"`
	WithFallbacks  int            `json:"with_fallbacks"`
	FirstTimestamp string         `json:"first_timestamp,omitempty"`
	LastTimestamp  string         `json:"last_timestamp,omitempty"`
}

// QueryResult holds the selected entries and their summary.
type QueryResult struct {
	Entries []Entry `json:"entries"`
	Summary Summary `json:"summary"`
}

// Query reads the log at path and returns the entries matching f.
// Malformed lines are skipped; Verify reports them.
func Query(path string, f Filter) (*QueryResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	result := &QueryResult{Summary: Summary{ByBand: map[string]int{}}}
	scanner := newScanner(file)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		if !f.match(e) {
			continue
		}
		result.Entries = append(result.Entries, e)
		result.Summary.add(e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return result, nil
}

func (s *Summary) add(e Entry) {
	s.Total++
	if e.Outcome == OutcomeRejected {
		s.Rejected++
	} else {
		s.ByBand[e.Band]++
	}
	if e.Fallbacks > 0 {
		s.WithFallbacks++
	}
	if s.FirstTimestamp == "" {
		s.FirstTimestamp = e.Timestamp
	}
	s.LastTimestamp = e.Timestamp
}
