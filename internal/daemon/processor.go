package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/inhalrisk/internal/assess"
	"github.com/ppiankov/inhalrisk/internal/logging"
)

// ProcessorConfig holds runtime configuration for job processing.
type ProcessorConfig struct {
	Dirs         DirConfig
	BatchWorkers int
	Logger       *slog.Logger
}

// Processor handles job lifecycle transitions.
type Processor struct {
	cfg ProcessorConfig
	svc *assess.Service
	now func() time.Time
}

// NewProcessor creates a processor that scores jobs with svc.
func NewProcessor(cfg ProcessorConfig, svc *assess.Service) *Processor {
	if cfg.BatchWorkers < 1 {
		cfg.BatchWorkers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	return &Processor{cfg: cfg, svc: svc, now: time.Now}
}

// Process handles a single job file through its full lifecycle:
// read, validate, move to processing, assess, write result, archive.
// Bad jobs produce a failed result rather than an error; errors are
// reserved for filesystem failures.
func (p *Processor) Process(ctx context.Context, jobPath string) error {
	// Symlinks could point anywhere on the filesystem.
	fi, err := os.Lstat(jobPath)
	if err != nil {
		return fmt.Errorf("stat job file: %w", err)
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		_ = os.Remove(jobPath)
		return fmt.Errorf("rejected symlink: %s", filepath.Base(jobPath))
	}

	data, err := os.ReadFile(jobPath)
	if err != nil {
		return fmt.Errorf("read job file: %w", err)
	}

	fileID := IDFromPath(jobPath)
	job, err := DecodeJob(data, fileID)
	if err != nil {
		return p.reject(jobPath, fileID, err.Error())
	}
	if err := ValidateJob(job); err != nil {
		return p.reject(jobPath, job.ID, fmt.Sprintf("validation failed: %v", err))
	}

	processingPath := filepath.Join(p.cfg.Dirs.ProcessingDir(), job.ID+".json")
	if err := moveFile(jobPath, processingPath); err != nil {
		return fmt.Errorf("move to processing: %w", err)
	}

	ctx = assess.WithRequestID(ctx, "")
	result := p.execute(ctx, job)
	result.RequestID = assess.RequestID(ctx)

	if err := p.writeResult(result); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	p.svc.Metrics().IncrementJob(result.Status)
	p.cfg.Logger.Info("job complete",
		"job_id", job.ID,
		"status", result.Status,
		"request_id", result.RequestID,
	)

	return moveFile(processingPath, filepath.Join(p.cfg.Dirs.ArchiveDir(), job.ID+".json"))
}

// execute runs the assessment. Rejections become a failed result.
func (p *Processor) execute(ctx context.Context, job *Job) *Result {
	result := &Result{
		ID:         job.ID,
		ConfigHash: p.svc.ConfigHash(),
	}

	if job.Batch != nil {
		items, err := p.svc.AssessBatch(ctx, assess.SurfaceDaemon, job.Batch, p.cfg.BatchWorkers)
		if err != nil {
			return p.failed(result, err)
		}
		result.Batch = items
		result.Status = ResultDone
		result.CompletedAt = p.now().UTC()
		return result
	}

	req := job.Request
	if job.SDS != nil {
		job.SDS.Apply(req)
		result.Chemicals = job.SDS.Names()
	}
	resp, err := p.svc.Assess(ctx, assess.SurfaceDaemon, req)
	if err != nil {
		return p.failed(result, err)
	}
	result.Response = &resp
	result.Status = ResultDone
	result.CompletedAt = p.now().UTC()
	return result
}

func (p *Processor) failed(r *Result, err error) *Result {
	r.Status = ResultFailed
	r.Error = err.Error()
	r.CompletedAt = p.now().UTC()
	return r
}

// reject writes a failed result for a job that never reached processing
// and archives the job file.
func (p *Processor) reject(jobPath, id, msg string) error {
	if id == "" || !validID.MatchString(id) {
		id = fmt.Sprintf("unknown-%d", p.now().UnixNano())
	}
	p.cfg.Logger.Warn("job rejected", "job_id", id, "error", msg)
	r := &Result{
		ID:          id,
		Status:      ResultFailed,
		Error:       msg,
		CompletedAt: p.now().UTC(),
	}
	if err := p.writeResult(r); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	p.svc.Metrics().IncrementJob(ResultFailed)
	return moveFile(jobPath, filepath.Join(p.cfg.Dirs.ArchiveDir(), id+".json"))
}

// writeResult writes a result to the outbox directory atomically.
func (p *Processor) writeResult(r *Result) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	filename := r.ID + ".json"
	tmpPath := filepath.Join(p.cfg.Dirs.Outbox, filename+".tmp")
	finalPath := filepath.Join(p.cfg.Dirs.Outbox, filename)

	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	return os.Rename(tmpPath, finalPath)
}
