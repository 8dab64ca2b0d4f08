// Package report is the console display consumer: it polls the grid on
// a fixed wall-clock interval, prints the live counts per lifecycle
// state, and renders a final summary table once every slot has reached
// a terminal state.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/studiowebux/loadgrid/internal/grid"
	"github.com/studiowebux/loadgrid/internal/stats"
)

// Reporter prints live benchmark statistics to a writer
type Reporter struct {
	grid     *grid.Grid
	out      io.Writer
	interval time.Duration

	prewarmed bool
}

// New creates a reporter polling g every interval
func New(g *grid.Grid, out io.Writer, interval time.Duration) *Reporter {
	return &Reporter{
		grid:     g,
		out:      out,
		interval: interval,
	}
}

// Run polls until the grid completes or ctx is cancelled, printing one
// status line per interval and the final summary at the end. On its
// first poll the reporter marks every slot rendered: with no graphical
// consumer attached, the first status line is the "first draw", so the
// prewarm barrier releases instead of waiting forever.
func (r *Reporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.prewarm()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		snap := r.grid.Snapshot()
		r.printStatus(snap)

		if stats.Complete(snap) {
			r.PrintSummary(snap)
			return nil
		}
	}
}

// prewarm marks every slot rendered exactly once
func (r *Reporter) prewarm() {
	if r.prewarmed {
		return
	}
	r.prewarmed = true
	for row := 0; row < r.grid.Rows(); row++ {
		for col := 0; col < r.grid.Cols(); col++ {
			r.grid.MarkRendered(row, col)
		}
	}
}

// printStatus prints one live status line
func (r *Reporter) printStatus(snap []grid.Slot) {
	counts := stats.CountsByState(snap)
	line := fmt.Sprintf("untried=%d requested=%d responded=%d failed=%d",
		counts[grid.Untried], counts[grid.Requested], counts[grid.Responded], counts[grid.Failed])

	if throughput, err := stats.Throughput(r.grid, snap); err == nil {
		line += fmt.Sprintf(" | %.1f resp/s", throughput)
	}
	fmt.Fprintln(r.out, line)
}

// PrintSummary renders the final run summary: total elapsed time,
// overall responded-requests-per-second, a per-outcome-class count
// table, and the latency aggregates.
func (r *Reporter) PrintSummary(snap []grid.Slot) {
	elapsed, err := stats.Elapsed(r.grid)
	if err != nil {
		fmt.Fprintf(r.out, "no timing data: %v\n", err)
		return
	}

	fmt.Fprintf(r.out, "\nTotal time: %s\n", FormatElapsed(elapsed))
	if throughput, err := stats.Throughput(r.grid, snap); err == nil {
		fmt.Fprintf(r.out, "Throughput: %.2f responses/sec\n\n", throughput)
	}

	counts := stats.CountsByClass(snap)
	table := tablewriter.NewTable(r.out,
		tablewriter.WithHeader([]string{"Outcome", "Count"}),
	)
	for _, class := range stats.Classes {
		table.Append([]string{string(class), fmt.Sprintf("%d", counts[class])})
	}
	table.Render()

	lat := stats.Latencies(snap)
	if lat.Samples == 0 {
		return
	}
	fmt.Fprintf(r.out, "\nLatency: min=%s avg=%s max=%s p50=%s p95=%s p99=%s\n",
		ms(lat.Min), ms(lat.Avg), ms(lat.Max), ms(lat.P50), ms(lat.P95), ms(lat.P99))
}

// FormatElapsed renders a duration as HH:MM:SS.mmmm
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := d.Seconds() - float64(hours*3600+minutes*60)
	return fmt.Sprintf("%02d:%02d:%07.4f", hours, minutes, seconds)
}

func ms(d time.Duration) string {
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
