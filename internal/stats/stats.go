// Package stats computes point-in-time aggregates over grid snapshots:
// counts by lifecycle state and outcome class, completion detection,
// elapsed duration, throughput, and latency percentiles. Every function
// is a pure scan over slot values, so aggregates are order-independent
// and independently testable against a fabricated grid.
package stats

import (
	"errors"
	"fmt"
	"time"

	"github.com/studiowebux/loadgrid/internal/grid"
)

// ErrZeroElapsed indicates a throughput query over a zero-length run
var ErrZeroElapsed = errors.New("elapsed duration is zero")

// Class buckets a slot for display: responded slots by the coarse
// status-code family, everything else by lifecycle state. Failed stays
// distinct from Untried/Requested so a dead network and an idle slot
// never collapse into one bucket.
type Class string

const (
	ClassUntried   Class = "untried"
	ClassRequested Class = "requested"
	ClassFailed    Class = "failed"
	Class2xx       Class = "2xx"
	Class3xx       Class = "3xx"
	Class4xx       Class = "4xx"
	Class5xx       Class = "5xx"
	ClassOther     Class = "other"
)

// Classes lists every bucket in display order
var Classes = []Class{ClassUntried, ClassRequested, Class2xx, Class3xx, Class4xx, Class5xx, ClassOther, ClassFailed}

// Classify maps one slot to its display bucket
func Classify(s grid.Slot) Class {
	switch s.State {
	case grid.Untried:
		return ClassUntried
	case grid.Requested:
		return ClassRequested
	case grid.Failed:
		return ClassFailed
	}
	switch {
	case s.Status >= 200 && s.Status < 300:
		return Class2xx
	case s.Status >= 300 && s.Status < 400:
		return Class3xx
	case s.Status >= 400 && s.Status < 500:
		return Class4xx
	case s.Status >= 500 && s.Status < 600:
		return Class5xx
	default:
		return ClassOther
	}
}

// CountsByState returns the number of slots in each lifecycle state.
// The counts always sum to the grid size.
func CountsByState(snap []grid.Slot) map[grid.SlotState]int {
	counts := map[grid.SlotState]int{
		grid.Untried:   0,
		grid.Requested: 0,
		grid.Responded: 0,
		grid.Failed:    0,
	}
	for _, s := range snap {
		counts[s.State]++
	}
	return counts
}

// CountsByClass returns the number of slots in each display bucket
func CountsByClass(snap []grid.Slot) map[Class]int {
	counts := make(map[Class]int, len(Classes))
	for _, c := range Classes {
		counts[c] = 0
	}
	for _, s := range snap {
		counts[Classify(s)]++
	}
	return counts
}

// Complete reports whether every slot has reached a terminal state
func Complete(snap []grid.Slot) bool {
	for _, s := range snap {
		if !s.State.Terminal() {
			return false
		}
	}
	return true
}

// Elapsed returns the benchmark duration: end minus start once the run
// has ended, now minus start while it is in progress. Fails with
// grid.ErrNotStarted before MarkStarted.
func Elapsed(g *grid.Grid) (time.Duration, error) {
	started := g.StartedAt()
	if started.IsZero() {
		return 0, grid.ErrNotStarted
	}
	ended := g.EndedAt()
	if ended.IsZero() {
		return time.Since(started), nil
	}
	return ended.Sub(started), nil
}

// Throughput returns responded requests per second over the elapsed
// duration. Fails with ErrZeroElapsed when no time has passed yet.
func Throughput(g *grid.Grid, snap []grid.Slot) (float64, error) {
	elapsed, err := Elapsed(g)
	if err != nil {
		return 0, err
	}
	if elapsed <= 0 {
		return 0, fmt.Errorf("%w: cannot compute throughput", ErrZeroElapsed)
	}
	return float64(CountsByState(snap)[grid.Responded]) / elapsed.Seconds(), nil
}
