// Package metrics exposes Prometheus instrumentation for assessments.
// All methods are safe on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the assessment surfaces.
type Metrics struct {
	// Completed assessments by band and surface (cli, grpc, http, daemon, mcp)
	Assessments *prometheus.CounterVec

	// Inputs rejected before scoring, by surface and reason (contract, request)
	Rejections *prometheus.CounterVec

	// Table fallbacks applied, by kind
	Fallbacks *prometheus.CounterVec

	AssessDuration *prometheus.HistogramVec

	// Daemon jobs by final status
	Jobs *prometheus.CounterVec

	// Config reloads by outcome
	Reloads *prometheus.CounterVec

	// Requests refused by the HTTP rate limiter
	RateLimited prometheus.Counter
}

// New registers all metrics on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Assessments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "inhalrisk_assessments_total",
			Help: "Total completed assessments by band and surface",
		}, []string{"band", "surface"}),

		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "inhalrisk_rejections_total",
			Help: "Total assessment inputs rejected before scoring",
		}, []string{"surface", "reason"}),

		Fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "inhalrisk_fallbacks_total",
			Help: "Total table fallbacks applied during assessments",
		}, []string{"kind"}),

		AssessDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inhalrisk_assess_duration_seconds",
			Help:    "Duration of a single assessment including validation",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}, []string{"surface"}),

		Jobs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "inhalrisk_daemon_jobs_total",
			Help: "Total daemon jobs processed by status",
		}, []string{"status"}),

		Reloads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "inhalrisk_config_reloads_total",
			Help: "Total config reloads by outcome",
		}, []string{"outcome"}),

		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "inhalrisk_http_rate_limited_total",
			Help: "Total HTTP requests refused by the rate limiter",
		}),
	}
}

// ObserveAssessment records one completed assessment.
func (m *Metrics) ObserveAssessment(surface, band string, d time.Duration) {
	if m == nil {
		return
	}
	m.Assessments.WithLabelValues(band, surface).Inc()
	m.AssessDuration.WithLabelValues(surface).Observe(d.Seconds())
}

// IncrementRejection records an input rejected before scoring.
func (m *Metrics) IncrementRejection(surface, reason string) {
	if m != nil {
		m.Rejections.WithLabelValues(surface, reason).Inc()
	}
}

// IncrementFallback records one applied fallback.
func (m *Metrics) IncrementFallback(kind string) {
	if m != nil {
		m.Fallbacks.WithLabelValues(kind).Inc()
	}
}

// IncrementJob records a finished daemon job.
func (m *Metrics) IncrementJob(status string) {
	if m != nil {
		m.Jobs.WithLabelValues(status).Inc()
	}
}

// IncrementReload records a config reload attempt.
func (m *Metrics) IncrementReload(ok bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.Reloads.WithLabelValues(outcome).Inc()
}

// IncrementRateLimited records a refused HTTP request.
func (m *Metrics) IncrementRateLimited() {
	if m != nil {
		m.RateLimited.Inc()
	}
}
