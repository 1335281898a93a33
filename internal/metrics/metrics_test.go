package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAssessment(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveAssessment("http", "LOW", time.Millisecond)
	m.ObserveAssessment("http", "LOW", time.Millisecond)
	m.ObserveAssessment("grpc", "HIGH", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Assessments.WithLabelValues("LOW", "http")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Assessments.WithLabelValues("HIGH", "grpc")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.AssessDuration))
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncrementRejection("cli", "contract")
	m.IncrementFallback("no_hazard_data")
	m.IncrementJob("done")
	m.IncrementReload(true)
	m.IncrementReload(false)
	m.IncrementRateLimited()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejections.WithLabelValues("cli", "contract")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks.WithLabelValues("no_hazard_data")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Jobs.WithLabelValues("done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reloads.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited))
}

func TestSeparateRegistries(t *testing.T) {
	require.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}

func TestNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAssessment("cli", "LOW", time.Second)
		m.IncrementRejection("cli", "request")
		m.IncrementFallback("x")
		m.IncrementJob("failed")
		m.IncrementReload(true)
		m.IncrementRateLimited()
	})
}
