// Package daemon implements the inhalrisk inbox/outbox job processor.
// Jobs arrive as JSON files in the inbox directory, are assessed by a
// fixed pool of workers, and results are written to the outbox directory.
package daemon

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/inhalrisk/internal/assess"
	"github.com/ppiankov/inhalrisk/internal/report"
	"github.com/ppiankov/inhalrisk/internal/sds"
)

// validID matches alphanumeric characters, dashes, and underscores only.
var validID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Job is a unit of work dropped into the inbox. Exactly one of Request and
// Batch is set. SDS, when present, is merged into Request.
//
// A file that has neither "request" nor "batch" is read as a bare
// AssessRequest, optionally carrying "quimicos_datos" alongside.
type Job struct {
	ID        string                  `json:"id,omitempty"`
	Request   *report.AssessRequest   `json:"request,omitempty"`
	Batch     []*report.AssessRequest `json:"batch,omitempty"`
	SDS       *sds.Payload            `json:"sds,omitempty"`
	CreatedAt time.Time               `json:"created_at,omitempty"`
}

// Result is written to the outbox after processing a job.
type Result struct {
	ID          string                 `json:"id"`
	Status      string                 `json:"status"`
	Response    *report.AssessResponse `json:"response,omitempty"`
	Batch       []assess.BatchItem     `json:"batch,omitempty"`
	Chemicals   []string               `json:"chemicals,omitempty"`
	Error       string                 `json:"error,omitempty"`
	RequestID   string                 `json:"request_id,omitempty"`
	ConfigHash  string                 `json:"config_hash,omitempty"`
	CompletedAt time.Time              `json:"completed_at"`
}

// Result status values.
const (
	ResultDone   = "done"
	ResultFailed = "failed"
)

// IDFromPath derives a job id from its file name.
func IDFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".json")
}

// DecodeJob parses a job file. fallbackID is used when the file names no id.
func DecodeJob(data []byte, fallbackID string) (*Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if job.ID == "" {
		job.ID = fallbackID
	}

	if job.Request == nil && job.Batch == nil {
		var req report.AssessRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("invalid request: %w", err)
		}
		payload, err := sds.Parse(data, "json")
		if err != nil {
			return nil, err
		}
		job.Request = &req
		if len(payload.Chemicals) > 0 {
			job.SDS = payload
		}
	}
	return &job, nil
}

// ValidateJob checks that a job has a safe id and a single kind of work.
func ValidateJob(j *Job) error {
	if j.ID == "" {
		return fmt.Errorf("job ID is required")
	}
	if strings.Contains(j.ID, "..") {
		return fmt.Errorf("job ID must not contain '..'")
	}
	if !validID.MatchString(j.ID) {
		return fmt.Errorf("job ID contains invalid characters: only alphanumeric, dash, and underscore allowed")
	}
	if j.Request != nil && j.Batch != nil {
		return fmt.Errorf("job must carry either request or batch, not both")
	}
	if j.Request == nil && len(j.Batch) == 0 {
		return fmt.Errorf("job carries no request")
	}
	if j.SDS != nil && j.Batch != nil {
		return fmt.Errorf("sds payload applies to a single request, not a batch")
	}
	if len(j.Batch) > assess.MaxBatch {
		return fmt.Errorf("batch of %d exceeds limit %d", len(j.Batch), assess.MaxBatch)
	}
	return nil
}
