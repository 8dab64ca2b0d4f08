// Package runner drives a benchmark run: one goroutine per grid row
// walks that worker's request sequence, moving each slot through
// Requested into Responded or Failed as the real network call resolves.
// The runner owns the only writers to slot lifecycle state besides the
// display consumers' rendered bookkeeping.
package runner

import (
	"context"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/studiowebux/loadgrid/internal/config"
	"github.com/studiowebux/loadgrid/internal/grid"
)

const (
	// TCPDialTimeout is the max time to establish a TCP connection
	TCPDialTimeout = 5 * time.Second
	// TCPKeepAliveInterval is the keep-alive probe interval
	TCPKeepAliveInterval = 30 * time.Second
	// TLSHandshakeTimeout bounds the TLS handshake
	TLSHandshakeTimeout = 5 * time.Second
	// IdleConnTimeout is how long idle connections stay open
	IdleConnTimeout = 90 * time.Second
	// ExpectContinueTimeout bounds the 100-continue wait
	ExpectContinueTimeout = 1 * time.Second
)

// Runner executes one benchmark run against a single grid
type Runner struct {
	cfg    *config.Config
	grid   *grid.Grid
	client *http.Client
}

// New creates a runner for the given configuration and grid
func New(cfg *config.Config, g *grid.Grid) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runner{
		cfg:    cfg,
		grid:   g,
		client: buildHTTPClient(cfg),
	}, nil
}

// Run performs the whole benchmark: records the start timestamp, fires
// every row's request sequence concurrently, and records the end
// timestamp once all workers have drained. Callers wanting the prewarm
// barrier wait on grid.WaitRendered before calling Run. Cancelling ctx
// stops workers between requests; slots never claimed stay Untried.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.grid.MarkStarted(); err != nil {
		return err
	}

	rampUpPerRow := time.Duration(0)
	if r.cfg.RampUp > 0 && r.grid.Rows() > 1 {
		rampUpPerRow = r.cfg.RampUp / time.Duration(r.grid.Rows())
	}

	g, ctx := errgroup.WithContext(ctx)
	for row := 0; row < r.grid.Rows(); row++ {
		row := row
		g.Go(func() error {
			if offset := time.Duration(row) * rampUpPerRow; offset > 0 {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(offset):
				}
			}
			r.runRow(ctx, row)
			return nil
		})
	}

	err := g.Wait()
	if endErr := r.grid.MarkEnded(); endErr != nil && err == nil {
		err = endErr
	}
	return err
}

// runRow walks one worker's request sequence in column order. Each slot
// is claimed with Requested before the call and settled with exactly
// one terminal transition afterwards. A worker only ever touches its
// own row.
func (r *Runner) runRow(ctx context.Context, row int) {
	for col := 0; col < r.grid.Cols(); col++ {
		if ctx.Err() != nil {
			return
		}

		// Transitions can only fail on caller bugs here, so the
		// errors are deliberately not recoverable state.
		if err := r.grid.Transition(row, col, grid.Requested, 0); err != nil {
			return
		}

		start := time.Now()
		status, err := r.execute(ctx)
		latency := time.Since(start)

		r.grid.RecordLatency(row, col, latency)
		if err != nil {
			r.grid.Transition(row, col, grid.Failed, 0)
			continue
		}
		r.grid.Transition(row, col, grid.Responded, status)
	}
}

// execute performs one HTTP request and returns its status code.
// Network-level errors (including cancellation of an in-flight call)
// come back as an error and end up in the Failed bucket; any response,
// whatever its status code, counts as Responded.
func (r *Runner) execute(ctx context.Context) (int, error) {
	req, err := newRequest(ctx, r.cfg)
	if err != nil {
		return 0, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// Drain the body so the connection goes back to the pool
	drain(resp)

	return resp.StatusCode, nil
}

// buildHTTPClient creates a client tuned for load generation: the
// connection pool is sized to the worker count so rows reuse
// connections instead of exhausting ephemeral ports.
func buildHTTPClient(cfg *config.Config) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Concurrency,
		MaxIdleConnsPerHost: cfg.Concurrency,
		MaxConnsPerHost:     cfg.Concurrency * 2,
		IdleConnTimeout:     IdleConnTimeout,
		ForceAttemptHTTP2:   true,

		DialContext: (&net.Dialer{
			Timeout:   TCPDialTimeout,
			KeepAlive: TCPKeepAliveInterval,
		}).DialContext,

		TLSHandshakeTimeout:   TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		ExpectContinueTimeout: ExpectContinueTimeout,
	}

	return &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: transport,
	}
}
