package assess

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/inhalrisk/internal/audit"
	"github.com/ppiankov/inhalrisk/internal/metrics"
	"github.com/ppiankov/inhalrisk/internal/ntp937"
	"github.com/ppiankov/inhalrisk/internal/report"
)

func newTestService(t *testing.T, opts ntp937.Options) (*Service, *metrics.Metrics, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m := metrics.New(prometheus.NewRegistry())
	return New(opts, logger, m), m, &buf
}

func poorControls() *report.AssessRequest {
	return &report.AssessRequest{
		HazardPhrases:       []string{"H331"},
		QuantityGramsPerDay: 2_000_000,
		FrequencyClass:      report.IntPtr(4),
		VolatilityClass:     report.IntPtr(3),
		ProcedureClass:      report.IntPtr(4),
		ProtectionClass:     report.IntPtr(5),
	}
}

func TestAssessHigh(t *testing.T) {
	svc, m, logs := newTestService(t, ntp937.Options{})
	ctx := WithRequestID(context.Background(), "req-1")

	resp, err := svc.Assess(ctx, SurfaceHTTP, poorControls())
	require.NoError(t, err)
	assert.Equal(t, "HIGH", resp.Band)
	// 10000 x 100 x 1 x 10 x 1
	assert.Equal(t, "10000000", resp.ScoreExact)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Assessments.WithLabelValues("HIGH", SurfaceHTTP)))
	assert.Contains(t, logs.String(), `"request_id":"req-1"`)
	assert.Contains(t, logs.String(), "assessment complete")
}

func TestAssessRecordsFallbacks(t *testing.T) {
	svc, m, logs := newTestService(t, ntp937.Options{})

	resp, err := svc.Assess(context.Background(), SurfaceCLI, &report.AssessRequest{
		QuantityGramsPerDay: 10,
		FrequencyClass:      report.IntPtr(1),
		VolatilityClass:     report.IntPtr(9),
	})
	require.NoError(t, err)
	assert.True(t, resp.Extra.NoHazardData)
	assert.Len(t, resp.Extra.Fallbacks, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks.WithLabelValues("no_hazard_data")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks.WithLabelValues("unrecognized_volatility_class")))
	assert.Contains(t, logs.String(), "no hazard data supplied")
}

func TestAssessContractViolation(t *testing.T) {
	svc, m, _ := newTestService(t, ntp937.Options{})

	_, err := svc.Assess(context.Background(), SurfaceGRPC, &report.AssessRequest{QuantityGramsPerDay: math.Inf(1)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ntp937.ErrContractViolation))
	assert.True(t, IsInvalid(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejections.WithLabelValues(SurfaceGRPC, "contract")))
}

func TestAssessInvalidRequest(t *testing.T) {
	svc, m, _ := newTestService(t, ntp937.Options{})

	_, err := svc.Assess(context.Background(), SurfaceHTTP, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, report.ErrInvalidRequest))
	assert.True(t, IsInvalid(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejections.WithLabelValues(SurfaceHTTP, "request")))
}

func TestAssessCancelledContext(t *testing.T) {
	svc, _, _ := newTestService(t, ntp937.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Assess(ctx, SurfaceCLI, poorControls())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsInvalid(err))
}

func TestSetOptionsSwitchesToStrict(t *testing.T) {
	svc, _, _ := newTestService(t, ntp937.Options{})
	req := &report.AssessRequest{QuantityGramsPerDay: 10, ProtectionClass: report.IntPtr(7)}

	_, err := svc.Assess(context.Background(), SurfaceCLI, req)
	require.NoError(t, err)

	svc.SetOptions(ntp937.Options{Strict: true}, "sha256:abc")
	assert.True(t, svc.Options().Strict)
	assert.Equal(t, "sha256:abc", svc.ConfigHash())

	_, err = svc.Assess(context.Background(), SurfaceCLI, req)
	var ce *ntp937.ContractError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "protection_class", ce.Field)
}

func TestConcurrentAssessAndReload(t *testing.T) {
	svc, _, _ := newTestService(t, ntp937.Options{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if j%10 == 0 {
					svc.SetOptions(ntp937.Options{Strict: (i+j)%2 == 0}, "")
				}
				resp, err := svc.Assess(context.Background(), SurfaceGRPC, poorControls())
				if assert.NoError(t, err) {
					assert.Equal(t, "HIGH", resp.Band)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestAssessBatch(t *testing.T) {
	svc, _, _ := newTestService(t, ntp937.Options{})
	reqs := []*report.AssessRequest{
		poorControls(),
		{QuantityGramsPerDay: -1},
		{QuantityGramsPerDay: 1},
	}

	items, err := svc.AssessBatch(context.Background(), SurfaceDaemon, reqs, 2)
	require.NoError(t, err)
	require.Len(t, items, 3)

	require.NotNil(t, items[0].Response)
	assert.Equal(t, "HIGH", items[0].Response.Band)
	assert.Nil(t, items[1].Response)
	assert.Contains(t, items[1].Error, "quantity_g_day")
	require.NotNil(t, items[2].Response)
	assert.Equal(t, "NONE", items[2].Response.Band)
}

func TestAssessBatchLimits(t *testing.T) {
	svc, _, _ := newTestService(t, ntp937.Options{})

	_, err := svc.AssessBatch(context.Background(), SurfaceHTTP, make([]*report.AssessRequest, MaxBatch+1), 4)
	assert.ErrorIs(t, err, report.ErrInvalidRequest)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.AssessBatch(ctx, SurfaceHTTP, []*report.AssessRequest{poorControls()}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
	assert.Equal(t, "abc", RequestID(WithRequestID(context.Background(), "abc")))
	assert.Len(t, RequestID(WithRequestID(context.Background(), "")), 36)
}

func TestRequestIDReplacesUnsafeValues(t *testing.T) {
	for _, id := range []string{
		strings.Repeat("a", 129),
		"has space",
		"line\nbreak",
		`quote"d`,
		"über",
	} {
		got := RequestID(WithRequestID(context.Background(), id))
		assert.NotEqual(t, id, got)
		assert.Len(t, got, 36, "id %q", id)
	}
	long := strings.Repeat("a", 128)
	assert.Equal(t, long, RequestID(WithRequestID(context.Background(), long)))
	assert.Equal(t, "trace_1.v-2", RequestID(WithRequestID(context.Background(), "trace_1.v-2")))
}

func TestTables(t *testing.T) {
	svc, _, _ := newTestService(t, ntp937.Options{})
	assert.Equal(t, 4, svc.Tables().HazardPhrases["H331"])
}

func TestAssessWritesAuditTrail(t *testing.T) {
	svc, _, _ := newTestService(t, ntp937.Options{})
	svc.SetOptions(ntp937.Options{}, "sha256:cfg")
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	l, err := audit.Open(path)
	require.NoError(t, err)
	svc.SetAudit(l)

	ctx := WithRequestID(context.Background(), "req-audit")
	_, err = svc.Assess(ctx, SurfaceHTTP, poorControls())
	require.NoError(t, err)
	_, err = svc.Assess(ctx, SurfaceHTTP, &report.AssessRequest{QuantityGramsPerDay: -1})
	require.Error(t, err)
	require.NoError(t, l.Close())

	assert.True(t, audit.Verify(path).Valid)
	r, err := audit.Query(path, audit.Filter{RequestID: "req-audit"})
	require.NoError(t, err)
	require.Len(t, r.Entries, 2)

	ok, bad := r.Entries[0], r.Entries[1]
	assert.Equal(t, audit.OutcomeAssessed, ok.Outcome)
	assert.Equal(t, "HIGH", ok.Band)
	assert.Equal(t, "10000000", ok.Score)
	assert.Equal(t, 4, ok.HazardClass)
	assert.Equal(t, "sha256:cfg", ok.ConfigHash)
	assert.Equal(t, audit.OutcomeRejected, bad.Outcome)
	assert.Contains(t, bad.Error, "contract violation")
}
