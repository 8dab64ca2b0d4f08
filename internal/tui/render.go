package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/studiowebux/loadgrid/internal/grid"
	"github.com/studiowebux/loadgrid/internal/report"
	"github.com/studiowebux/loadgrid/internal/stats"
)

// cellRune is the glyph each slot cell is built from
const cellRune = "█"

var (
	styleTitle  = lipgloss.NewStyle().Bold(true)
	styleSubtle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	// One style per display bucket. Failed is dark red rather than the
	// classic black cell so a dead network never looks like an idle or
	// off-screen slot.
	classStyles = map[stats.Class]lipgloss.Style{
		stats.ClassUntried:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		stats.ClassRequested: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		stats.Class2xx:       lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		stats.Class3xx:       lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		stats.Class4xx:       lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		stats.Class5xx:       lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		stats.ClassOther:     lipgloss.NewStyle().Foreground(lipgloss.Color("16")),
		stats.ClassFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("88")),
	}
)

// View renders the full grid plus the stats footer. Rendering a slot
// for the first time marks it rendered, which is what releases the
// prewarm barrier once the whole grid has been on screen.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render(fmt.Sprintf("loadgrid — %s %s", m.cfg.Method, m.cfg.Target)))
	b.WriteString("\n\n")

	snap := m.grid.Snapshot()
	b.WriteString(m.renderGrid(snap))
	b.WriteString("\n")
	b.WriteString(m.renderFooter(snap))

	for _, s := range snap {
		if !s.Rendered {
			m.grid.MarkRendered(s.Row, s.Col)
		}
	}

	return b.String()
}

// renderGrid draws one line per worker row, one colored cell per slot
func (m Model) renderGrid(snap []grid.Slot) string {
	cell := strings.Repeat(cellRune, m.cfg.Scale)
	var b strings.Builder
	for _, s := range snap {
		b.WriteString(classStyles[stats.Classify(s)].Render(cell))
		if s.Col == m.grid.Cols()-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderFooter draws the live counts, progress bar, and timing line
func (m Model) renderFooter(snap []grid.Slot) string {
	counts := stats.CountsByState(snap)
	terminal := counts[grid.Responded] + counts[grid.Failed]

	var b strings.Builder
	b.WriteString(fmt.Sprintf("untried %d · requested %d · responded %d · failed %d\n",
		counts[grid.Untried], counts[grid.Requested], counts[grid.Responded], counts[grid.Failed]))

	b.WriteString(m.progress.ViewAs(float64(terminal) / float64(m.grid.Size())))
	b.WriteString("\n")

	if elapsed, err := stats.Elapsed(m.grid); err == nil {
		line := fmt.Sprintf("elapsed %s", report.FormatElapsed(elapsed))
		if throughput, err := stats.Throughput(m.grid, snap); err == nil {
			line += fmt.Sprintf(" · %.1f resp/s", throughput)
		}
		b.WriteString(line + "\n")
	}

	if m.done {
		b.WriteString(styleTitle.Render("run complete") + styleSubtle.Render(" — press q to exit") + "\n")
	} else {
		b.WriteString(styleSubtle.Render("q: stop and exit") + "\n")
	}
	return b.String()
}
