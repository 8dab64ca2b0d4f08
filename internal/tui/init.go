// Package tui is the graphical display consumer: a Bubble Tea program
// that redraws the whole request grid at a fixed frame rate, coloring
// each cell by lifecycle state or response outcome class, with live
// aggregate stats underneath. It is a read-only client of the grid
// except for the rendered-flag bookkeeping of the prewarm handshake.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/loadgrid/internal/config"
	"github.com/studiowebux/loadgrid/internal/grid"
)

// Run starts the TUI and the benchmark together. The benchmark only
// begins once the first full render pass has marked every slot, so
// terminal setup cost stays out of the measurements. Run returns after
// the user exits; the grid keeps the results for the final report.
func Run(cfg *config.Config, g *grid.Grid, bench func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runBench := func() tea.Msg {
		if err := g.WaitRendered(ctx); err != nil {
			return benchDoneMsg{err: err}
		}
		return benchDoneMsg{err: bench(ctx)}
	}

	p := tea.NewProgram(New(cfg, g, cancel, runBench))
	final, err := p.Run()
	if err != nil {
		return err
	}

	if m, ok := final.(Model); ok {
		return m.BenchErr()
	}
	return nil
}
