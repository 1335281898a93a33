// Package assess is the shared entry point every surface (CLI, gRPC, HTTP,
// daemon, MCP) uses to run assessments.
package assess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/inhalrisk/internal/audit"
	"github.com/ppiankov/inhalrisk/internal/logging"
	"github.com/ppiankov/inhalrisk/internal/metrics"
	"github.com/ppiankov/inhalrisk/internal/ntp937"
	"github.com/ppiankov/inhalrisk/internal/report"
)

// Surfaces label where an assessment came from in logs and metrics.
const (
	SurfaceCLI    = "cli"
	SurfaceGRPC   = "grpc"
	SurfaceHTTP   = "http"
	SurfaceDaemon = "daemon"
	SurfaceMCP    = "mcp"
)

// MaxBatch caps the number of requests in one batch.
const MaxBatch = 500

// Service runs assessments with the current engine options. The engine is
// swapped atomically on config reload.
type Service struct {
	mu         sync.RWMutex
	engine     *ntp937.Engine
	configHash string

	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   *audit.Log
}

// New creates a service. logger and m may be nil.
func New(opts ntp937.Options, logger *slog.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		engine:  ntp937.NewEngine(opts),
		logger:  logger,
		metrics: m,
	}
}

// SetOptions replaces the engine. hash identifies the config it came from.
func (s *Service) SetOptions(opts ntp937.Options, hash string) {
	s.mu.Lock()
	s.engine = ntp937.NewEngine(opts)
	s.configHash = hash
	s.mu.Unlock()
	s.logger.Info("engine options updated", "strict", opts.Strict, "config_hash", hash)
}

// Options returns the active engine options.
func (s *Service) Options() ntp937.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Options()
}

// ConfigHash returns the hash of the config the engine was built from.
func (s *Service) ConfigHash() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.configHash
}

// SetAudit makes the service record every assessment to l. Call before
// serving.
func (s *Service) SetAudit(l *audit.Log) { s.audit = l }

// Metrics returns the service's metrics, possibly nil.
func (s *Service) Metrics() *metrics.Metrics { return s.metrics }

// Logger returns the service logger.
func (s *Service) Logger() *slog.Logger { return s.logger }

// Tables returns the engine's lookup tables.
func (s *Service) Tables() report.Tables {
	return report.BuildTables()
}

// Assess validates and scores one request.
func (s *Service) Assess(ctx context.Context, surface string, req *report.AssessRequest) (report.AssessResponse, error) {
	if err := ctx.Err(); err != nil {
		return report.AssessResponse{}, err
	}
	id := RequestID(ctx)
	log := s.logger.With("surface", surface)
	if id != "" {
		log = log.With("request_id", id)
	}

	s.mu.RLock()
	engine, hash := s.engine, s.configHash
	s.mu.RUnlock()
	entry := audit.Entry{RequestID: id, Surface: surface, ConfigHash: hash}

	if err := req.Validate(); err != nil {
		s.metrics.IncrementRejection(surface, "request")
		log.Warn("assessment rejected", "error", err)
		s.record(log, rejected(entry, err))
		return report.AssessResponse{}, err
	}

	start := time.Now()
	res, err := engine.Assess(req.Input())
	if err != nil {
		s.metrics.IncrementRejection(surface, "contract")
		log.Warn("assessment rejected", "error", err)
		s.record(log, rejected(entry, err))
		return report.AssessResponse{}, err
	}
	s.metrics.ObserveAssessment(surface, string(res.Band), time.Since(start))

	for _, f := range res.Breakdown.Fallbacks {
		s.metrics.IncrementFallback(string(f.Kind))
		log.Debug("fallback applied", "kind", f.Kind, "value", f.Value, "detail", f.Detail)
	}
	if res.Breakdown.NoHazardData {
		log.Warn("no hazard data supplied; hazard class 1 assumed")
	}
	log.Info("assessment complete",
		"band", res.Band,
		"score", res.Score.String(),
		"hazard_class", int(res.Breakdown.HazardClass),
		"fallbacks", len(res.Breakdown.Fallbacks),
	)

	entry.Outcome = audit.OutcomeAssessed
	entry.Band = string(res.Band)
	entry.Score = res.Score.String()
	entry.HazardClass = int(res.Breakdown.HazardClass)
	entry.Fallbacks = len(res.Breakdown.Fallbacks)
	s.record(log, entry)

	return report.FromResult(res), nil
}

// record appends to the audit trail. A failed write is logged, not returned.
func (s *Service) record(log *slog.Logger, e audit.Entry) {
	if err := s.audit.Record(e); err != nil {
		log.Error("audit write failed", "error", err)
	}
}

// BatchItem is the outcome of one request in a batch. Exactly one of
// Response and Error is set.
type BatchItem struct {
	Response *report.AssessResponse `json:"response,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// AssessBatch scores requests concurrently with at most workers in flight.
// A rejected request fails only its own item. Results keep request order.
func (s *Service) AssessBatch(ctx context.Context, surface string, reqs []*report.AssessRequest, workers int) ([]BatchItem, error) {
	if len(reqs) > MaxBatch {
		return nil, fmt.Errorf("%w: batch of %d exceeds limit %d", report.ErrInvalidRequest, len(reqs), MaxBatch)
	}
	if workers < 1 {
		workers = 1
	}

	items := make([]BatchItem, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, req := range reqs {
		g.Go(func() error {
			resp, err := s.Assess(gctx, surface, req)
			if err != nil {
				if IsInvalid(err) {
					items[i] = BatchItem{Error: err.Error()}
					return nil
				}
				return err
			}
			items[i] = BatchItem{Response: &resp}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// IsInvalid reports whether err is a caller error (malformed request or
// contract violation) as opposed to an operational failure.
func IsInvalid(err error) bool {
	return errors.Is(err, ntp937.ErrContractViolation) || errors.Is(err, report.ErrInvalidRequest)
}

func rejected(e audit.Entry, err error) audit.Entry {
	e.Outcome = audit.OutcomeRejected
	e.Error = err.Error()
	return e
}
