package client

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ppiankov/inhalrisk/internal/assess"
	"github.com/ppiankov/inhalrisk/internal/ntp937"
	"github.com/ppiankov/inhalrisk/internal/report"
	"github.com/ppiankov/inhalrisk/internal/server"
)

// startTestServer creates a server and returns its address.
func startTestServer(t *testing.T, opts ntp937.Options) string {
	t.Helper()

	srv := server.New(server.Config{}, assess.New(opts, nil, nil))

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.ServeOn(lis)
	t.Cleanup(srv.GracefulStop)

	return lis.Addr().String()
}

func newClient(t *testing.T, addr string) *Client {
	t.Helper()
	c, err := New(addr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientAssessPoorControls(t *testing.T) {
	c := newClient(t, startTestServer(t, ntp937.Options{}))

	resp, err := c.Assess(context.Background(), &report.AssessRequest{
		HazardPhrases:       []string{"H331"},
		QuantityGramsPerDay: 2_000_000,
		FrequencyClass:      report.IntPtr(4),
		VolatilityClass:     report.IntPtr(3),
		ProcedureClass:      report.IntPtr(4),
		ProtectionClass:     report.IntPtr(5),
	})
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if resp.Band != "HIGH" {
		t.Errorf("expected HIGH, got %s", resp.Band)
	}
	if resp.Extra.CollectiveProtectionScore != 10 {
		t.Errorf("expected protection factor 10, got %v", resp.Extra.CollectiveProtectionScore)
	}
}

func TestClientStrictServerRejects(t *testing.T) {
	c := newClient(t, startTestServer(t, ntp937.Options{Strict: true}))

	_, err := c.Assess(context.Background(), &report.AssessRequest{
		QuantityGramsPerDay: 1,
		ProcedureClass:      report.IntPtr(0),
	})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestClientAssessBatch(t *testing.T) {
	c := newClient(t, startTestServer(t, ntp937.Options{}))

	items, err := c.AssessBatch(context.Background(), []*report.AssessRequest{
		{QuantityGramsPerDay: 1},
		{QuantityGramsPerDay: 1, ExposureLimits: []float64{0}},
	})
	if err != nil {
		t.Fatalf("AssessBatch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Response == nil || items[0].Response.Band != "NONE" {
		t.Errorf("unexpected first item %+v", items[0])
	}
	if items[1].Error == "" {
		t.Error("expected zero exposure limit to be rejected")
	}
}

func TestClientTables(t *testing.T) {
	c := newClient(t, startTestServer(t, ntp937.Options{}))

	tables, err := c.Tables(assess.WithRequestID(context.Background(), "tables-1"))
	if err != nil {
		t.Fatalf("Tables: %v", err)
	}
	if len(tables.HazardPhrases) != len(ntp937.HazardPhraseClasses) {
		t.Errorf("expected %d phrases, got %d", len(ntp937.HazardPhraseClasses), len(tables.HazardPhrases))
	}
}

func TestClientUnreachable(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := lis.Addr().String()
	lis.Close()

	c := newClient(t, addr)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err = c.Assess(ctx, &report.AssessRequest{QuantityGramsPerDay: 1})
	if err == nil {
		t.Fatal("expected error for unreachable server")
	}
	if code := status.Code(err); code != codes.Unavailable && code != codes.DeadlineExceeded {
		t.Errorf("expected Unavailable or DeadlineExceeded, got %v", code)
	}
}
