// Package httpapi serves assessments over HTTP/JSON.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/inhalrisk/internal/assess"
	"github.com/ppiankov/inhalrisk/internal/ntp937"
	"github.com/ppiankov/inhalrisk/internal/ratelimit"
	"github.com/ppiankov/inhalrisk/internal/report"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

// maxBody bounds request bodies.
const maxBody = 1 << 20

// Handler serves the assessment API.
type Handler struct {
	svc      *assess.Service
	logger   *slog.Logger
	limiter  *ratelimit.Limiter
	gatherer prometheus.Gatherer
	workers  int
}

// Option configures a Handler.
type Option func(*Handler)

// WithLimiter enables per-client rate limiting.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(h *Handler) { h.limiter = l }
}

// WithGatherer exposes metrics from g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handler) { h.gatherer = g }
}

// WithBatchWorkers sets the concurrency of batch requests.
func WithBatchWorkers(n int) Option {
	return func(h *Handler) { h.workers = n }
}

// New creates a handler.
func New(svc *assess.Service, opts ...Option) *Handler {
	h := &Handler{
		svc:     svc,
		logger:  svc.Logger(),
		workers: 4,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Routes returns the router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.requestID)
	r.Use(h.accessLog)

	r.Get("/healthz", h.handleHealth)
	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Use(h.rateLimit)
		r.Post("/assess", h.handleAssess)
		r.Post("/assess/batch", h.handleAssessBatch)
		r.Get("/tables", h.handleTables)
	})
	return r
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"strict": h.svc.Options().Strict,
	})
}

func (h *Handler) handleAssess(w http.ResponseWriter, r *http.Request) {
	var req report.AssessRequest
	if err := decodeBody(r, &req); err != nil {
		h.svc.Metrics().IncrementRejection(assess.SurfaceHTTP, "request")
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	resp, err := h.svc.Assess(r.Context(), assess.SurfaceHTTP, &req)
	if err != nil {
		h.writeAssessError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type batchRequest struct {
	Requests []*report.AssessRequest `json:"requests"`
}

type batchResponse struct {
	Results []assess.BatchItem `json:"results"`
}

func (h *Handler) handleAssessBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeBody(r, &req); err != nil {
		h.svc.Metrics().IncrementRejection(assess.SurfaceHTTP, "request")
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	items, err := h.svc.AssessBatch(r.Context(), assess.SurfaceHTTP, req.Requests, h.workers)
	if err != nil {
		h.writeAssessError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: items})
}

func (h *Handler) handleTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Tables())
}

func (h *Handler) writeAssessError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, report.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ntp937.ErrContractViolation):
		writeError(w, http.StatusUnprocessableEntity, "contract_violation", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", "")
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful to write
	default:
		h.logger.ErrorContext(r.Context(), "assessment failed", "error", err, "request_id", assess.RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func (h *Handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := assess.WithRequestID(r.Context(), r.Header.Get(RequestIDHeader))
		w.Header().Set(RequestIDHeader, assess.RequestID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.DebugContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", assess.RequestID(r.Context()),
		)
	})
}

func (h *Handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := h.limiter.Check(clientKey(r))
		if res.Exceeded {
			h.svc.Metrics().IncrementRateLimited()
			secs := int(math.Ceil(res.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
			writeError(w, http.StatusTooManyRequests, "rate_limited", res.Reason)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBody {
		return fmt.Errorf("body exceeds %d bytes", maxBody)
	}
	if len(body) == 0 {
		return errors.New("request body is required")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, desc string) {
	writeJSON(w, status, errorBody{Error: code, ErrorDescription: desc})
}
