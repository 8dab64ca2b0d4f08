package runner

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/studiowebux/loadgrid/internal/config"
	"github.com/studiowebux/loadgrid/internal/grid"
	"github.com/studiowebux/loadgrid/internal/stats"
)

func testConfig(target string, rows, cols int) *config.Config {
	cfg := config.Default()
	cfg.Target = target
	cfg.Concurrency = rows
	cfg.Requests = cols
	cfg.RequestTimeout = 2 * time.Second
	return cfg
}

func newRunner(t *testing.T, cfg *config.Config) (*Runner, *grid.Grid) {
	t.Helper()
	g, err := grid.New(cfg.Concurrency, cfg.Requests)
	if err != nil {
		t.Fatalf("grid.New failed: %v", err)
	}
	r, err := New(cfg, g)
	if err != nil {
		t.Fatalf("runner.New failed: %v", err)
	}
	return r, g
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default() // no target
	g, _ := grid.New(1, 1)
	if _, err := New(cfg, g); err == nil {
		t.Error("New accepted a config without a target")
	}
}

func TestRun_AllResponded(t *testing.T) {
	var requestCount int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requestCount, 1)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	r, g := newRunner(t, testConfig(server.URL, 5, 10))
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	snap := g.Snapshot()
	if !stats.Complete(snap) {
		t.Fatal("grid incomplete after Run returned")
	}

	counts := stats.CountsByState(snap)
	if counts[grid.Responded] != 50 || counts[grid.Failed] != 0 {
		t.Errorf("counts = %v, want 50 responded / 0 failed", counts)
	}
	for _, s := range snap {
		if s.Status != http.StatusOK {
			t.Fatalf("slot (%d,%d) status = %d, want 200", s.Row, s.Col, s.Status)
		}
		if s.Latency <= 0 {
			t.Fatalf("slot (%d,%d) has no recorded latency", s.Row, s.Col)
		}
	}

	if got := atomic.LoadInt64(&requestCount); got != 50 {
		t.Errorf("server saw %d requests, want 50", got)
	}

	if g.StartedAt().IsZero() || g.EndedAt().IsZero() {
		t.Error("run timestamps not recorded")
	}
	if _, err := stats.Throughput(g, snap); err != nil {
		t.Errorf("Throughput failed after completed run: %v", err)
	}
}

func TestRun_ServerErrorsAreResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	r, g := newRunner(t, testConfig(server.URL, 2, 3))
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// A 500 is still a response with an outcome code, never a failure
	classes := stats.CountsByClass(g.Snapshot())
	if classes[stats.Class5xx] != 6 || classes[stats.ClassFailed] != 0 {
		t.Errorf("classes = %v, want 6x 5xx and no failed", classes)
	}
}

func TestRun_NetworkErrorsAreFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := server.URL
	server.Close() // connection refused from here on

	r, g := newRunner(t, testConfig(target, 2, 2))
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	snap := g.Snapshot()
	if !stats.Complete(snap) {
		t.Fatal("grid incomplete after Run returned")
	}
	counts := stats.CountsByState(snap)
	if counts[grid.Failed] != 4 || counts[grid.Responded] != 0 {
		t.Errorf("counts = %v, want 4 failed / 0 responded", counts)
	}
}

func TestRun_SecondRunRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r, _ := newRunner(t, testConfig(server.URL, 1, 1))
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	if err := r.Run(context.Background()); !errors.Is(err, grid.ErrAlreadyStarted) {
		t.Errorf("second Run = %v, want ErrAlreadyStarted", err)
	}
}

func TestRun_Cancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	defer close(release)

	r, g := newRunner(t, testConfig(server.URL, 2, 5))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("Run after cancel = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	// Claimed slots settle as failed, unclaimed ones stay untried
	counts := stats.CountsByState(g.Snapshot())
	if counts[grid.Requested] != 0 {
		t.Errorf("left %d slots stuck in requested", counts[grid.Requested])
	}
	if g.EndedAt().IsZero() {
		t.Error("end timestamp missing after cancelled run")
	}
}

func TestRun_RampUpSpreadsRowStarts(t *testing.T) {
	var requestCount int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requestCount, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testConfig(server.URL, 4, 2)
	cfg.RampUp = 100 * time.Millisecond

	r, g := newRunner(t, cfg)
	start := time.Now()
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// The last row starts 3/4 into the ramp-up window
	if elapsed := time.Since(start); elapsed < 75*time.Millisecond {
		t.Errorf("run finished in %v, before the last row's ramp-up offset", elapsed)
	}
	if !stats.Complete(g.Snapshot()) {
		t.Error("grid incomplete after ramped run")
	}
}

func TestRun_SendsConfiguredHeadersAndMethod(t *testing.T) {
	var gotMethod, gotHeader atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod.Store(r.Method)
		gotHeader.Store(r.Header.Get("X-Bench"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	cfg := testConfig(server.URL, 1, 1)
	cfg.Method = "POST"
	cfg.Body = `{"ping":true}`
	cfg.Headers = map[string]string{"X-Bench": "loadgrid"}

	r, g := newRunner(t, cfg)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if gotMethod.Load() != "POST" || gotHeader.Load() != "loadgrid" {
		t.Errorf("server saw method=%v header=%v, want POST/loadgrid", gotMethod.Load(), gotHeader.Load())
	}
	s, _ := g.Slot(0, 0)
	if s.Status != http.StatusNoContent {
		t.Errorf("slot status = %d, want 204", s.Status)
	}
}
