// Package audit keeps a tamper-evident trail of assessments: one JSON line
// per request, each carrying the hash of the line before it.
package audit

// Outcomes recorded in Entry.Outcome.
const (
	OutcomeAssessed = "assessed"
	OutcomeRejected = "rejected"
)

// Entry is one line in the hash-chained JSONL audit log.
// All fields are plain values so json.Marshal output is stable and the
// chain hashes are reproducible.
type Entry struct {
	Timestamp   string `json:"ts"`
	RequestID   string `json:"request_id"`
	Surface     string `json:"surface"`
	Outcome     string `json:"outcome"`
	Band        string `json:"band,omitempty"`
	Score       string `json:"score,omitempty"`
	HazardClass int    `json:"hazard_class,omitempty"`
	Fallbacks   int    `json:"fallbacks,omitempty"`
	Error       string `json:"error,omitempty"`
	ConfigHash  string `json:"config_hash"`
	PrevHash    string `json:"prev_hash"`
}
