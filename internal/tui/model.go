package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/loadgrid/internal/config"
	"github.com/studiowebux/loadgrid/internal/grid"
)

// tickMsg drives the fixed-rate redraw loop
type tickMsg time.Time

// benchDoneMsg reports that the benchmark goroutine finished
type benchDoneMsg struct {
	err error
}

// Model is the TUI state: a read-only view over the shared grid plus
// the cancel handle for the benchmark running underneath it
type Model struct {
	cfg    *config.Config
	grid   *grid.Grid
	cancel context.CancelFunc

	bench func() tea.Msg

	progress progress.Model
	width    int
	height   int

	done     bool
	benchErr error
}

// New creates the TUI model. bench runs the benchmark and is launched
// as a command from Init; cancel aborts it when the user quits early.
func New(cfg *config.Config, g *grid.Grid, cancel context.CancelFunc, bench func() tea.Msg) Model {
	return Model{
		cfg:      cfg,
		grid:     g,
		cancel:   cancel,
		bench:    bench,
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

// Init starts the redraw ticker and the benchmark command
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.bench)
}

// tick schedules the next frame
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.cfg.FrameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles input, frame ticks, and benchmark completion
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 4
		if m.progress.Width > 60 {
			m.progress.Width = 60
		}

	case benchDoneMsg:
		m.done = true
		m.benchErr = msg.err

	case tickMsg:
		return m, m.tick()
	}

	return m, nil
}

// Done reports whether the benchmark has finished
func (m Model) Done() bool {
	return m.done
}

// BenchErr returns the benchmark error, nil on a clean run
func (m Model) BenchErr() error {
	return m.benchErr
}
