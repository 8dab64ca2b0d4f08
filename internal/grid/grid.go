package grid

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrInvalidDimensions indicates a grid constructed with a non-positive size
	ErrInvalidDimensions = errors.New("grid dimensions must be positive")
	// ErrInvalidTransition indicates a transition not permitted by the slot state machine
	ErrInvalidTransition = errors.New("invalid slot transition")
	// ErrOutOfRange indicates a (row, col) pair outside the grid
	ErrOutOfRange = errors.New("slot coordinates out of range")
	// ErrAlreadyStarted indicates MarkStarted was called twice for one run
	ErrAlreadyStarted = errors.New("benchmark already started")
	// ErrNotStarted indicates timing data was requested before MarkStarted
	ErrNotStarted = errors.New("benchmark not started")
)

// Bit layout of a cell's packed word:
//
//	bits 0-7   slot state
//	bits 8-23  HTTP status code (valid only in Responded)
//	bit  24    rendered flag
const (
	stateMask   = 0x0000_00ff
	statusMask  = 0x00ff_ff00
	statusShift = 8
	renderedBit = 1 << 24
)

// prewarmDelay is the polling interval of the prewarm barrier
const prewarmDelay = 10 * time.Millisecond

// cell is the mutable storage behind one slot. All lifecycle fields
// live in a single word so concurrent writers never tear them apart.
type cell struct {
	packed    uint32
	latencyNs int64
}

// Slot is a point-in-time value copy of one request slot, as returned
// by Snapshot. Status is meaningful only when State is Responded.
type Slot struct {
	Row      int
	Col      int
	State    SlotState
	Status   int
	Rendered bool
	Latency  time.Duration
}

// Grid tracks the lifecycle of every individual request of a benchmark
// run: Rows() concurrent workers, Cols() requests per worker. All
// methods are safe for concurrent use.
type Grid struct {
	rows  int
	cols  int
	cells []cell

	timeMu    sync.Mutex
	startedAt time.Time
	endedAt   time.Time
}

// New creates a grid of rows x cols slots, all Untried
func New(rows, cols int) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}
	return &Grid{
		rows:  rows,
		cols:  cols,
		cells: make([]cell, rows*cols),
	}, nil
}

// Rows returns the number of worker rows
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of requests per worker
func (g *Grid) Cols() int { return g.cols }

// Size returns the total slot count
func (g *Grid) Size() int { return len(g.cells) }

func (g *Grid) cellAt(row, col int) (*cell, error) {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return nil, fmt.Errorf("%w: (%d,%d) in %dx%d grid", ErrOutOfRange, row, col, g.rows, g.cols)
	}
	return &g.cells[row*g.cols+col], nil
}

// Transition atomically moves one slot to a new lifecycle state.
// status is recorded only when to is Responded and cleared otherwise,
// so a reader can never observe a Responded slot without its code or a
// non-Responded slot with a stale one. Illegal edges are rejected with
// ErrInvalidTransition and leave the slot unchanged.
func (g *Grid) Transition(row, col int, to SlotState, status int) error {
	c, err := g.cellAt(row, col)
	if err != nil {
		return err
	}
	for {
		old := atomic.LoadUint32(&c.packed)
		from := SlotState(old & stateMask)
		if !canTransition(from, to) {
			return fmt.Errorf("%w: %s -> %s at (%d,%d)", ErrInvalidTransition, from, to, row, col)
		}
		next := old &^ uint32(stateMask|statusMask)
		next |= uint32(to)
		if to == Responded {
			next |= (uint32(status) << statusShift) & statusMask
		}
		if atomic.CompareAndSwapUint32(&c.packed, old, next) {
			return nil
		}
	}
}

// RecordLatency stores the observed request duration for a slot.
// Workers call it just before the terminal transition; readers only
// consult it on terminal slots.
func (g *Grid) RecordLatency(row, col int, d time.Duration) error {
	c, err := g.cellAt(row, col)
	if err != nil {
		return err
	}
	atomic.StoreInt64(&c.latencyNs, int64(d))
	return nil
}

// MarkRendered flags a slot as drawn at least once. Idempotent, pure
// bookkeeping for the prewarm handshake.
func (g *Grid) MarkRendered(row, col int) error {
	c, err := g.cellAt(row, col)
	if err != nil {
		return err
	}
	for {
		old := atomic.LoadUint32(&c.packed)
		if old&renderedBit != 0 {
			return nil
		}
		if atomic.CompareAndSwapUint32(&c.packed, old, old|renderedBit) {
			return nil
		}
	}
}

// Slot returns a value copy of one slot
func (g *Grid) Slot(row, col int) (Slot, error) {
	c, err := g.cellAt(row, col)
	if err != nil {
		return Slot{}, err
	}
	return loadSlot(c, row, col), nil
}

// Snapshot returns value copies of every slot in row-major order. Each
// slot is read with a single atomic load, so no individual slot is ever
// torn; the snapshot as a whole may span a grid that is mid-update,
// which consumers tolerate because per-slot progress is monotonic.
func (g *Grid) Snapshot() []Slot {
	out := make([]Slot, 0, len(g.cells))
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			out = append(out, loadSlot(&g.cells[row*g.cols+col], row, col))
		}
	}
	return out
}

func loadSlot(c *cell, row, col int) Slot {
	packed := atomic.LoadUint32(&c.packed)
	s := Slot{
		Row:      row,
		Col:      col,
		State:    SlotState(packed & stateMask),
		Rendered: packed&renderedBit != 0,
		Latency:  time.Duration(atomic.LoadInt64(&c.latencyNs)),
	}
	if s.State == Responded {
		s.Status = int((packed & statusMask) >> statusShift)
	}
	return s
}

// AllRendered reports whether every slot has been drawn at least once
func (g *Grid) AllRendered() bool {
	for i := range g.cells {
		if atomic.LoadUint32(&g.cells[i].packed)&renderedBit == 0 {
			return false
		}
	}
	return true
}

// WaitRendered blocks until every slot has been drawn at least once,
// polling on a short interval. This is the one-time prewarm barrier:
// it keeps terminal/window setup cost out of the timing measurements.
// Returns the context error if ctx is cancelled first.
func (g *Grid) WaitRendered(ctx context.Context) error {
	ticker := time.NewTicker(prewarmDelay)
	defer ticker.Stop()
	for {
		if g.AllRendered() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
