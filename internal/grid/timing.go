package grid

import "time"

// MarkStarted records the benchmark start timestamp. Exactly one call
// per run; a second call fails with ErrAlreadyStarted.
func (g *Grid) MarkStarted() error {
	return g.MarkStartedAt(time.Now())
}

// MarkStartedAt is MarkStarted with an explicit timestamp
func (g *Grid) MarkStartedAt(t time.Time) error {
	g.timeMu.Lock()
	defer g.timeMu.Unlock()
	if !g.startedAt.IsZero() {
		return ErrAlreadyStarted
	}
	g.startedAt = t
	return nil
}

// MarkEnded records the benchmark end timestamp. The start timestamp
// must already be set; repeat calls keep the first recorded end.
func (g *Grid) MarkEnded() error {
	return g.MarkEndedAt(time.Now())
}

// MarkEndedAt is MarkEnded with an explicit timestamp
func (g *Grid) MarkEndedAt(t time.Time) error {
	g.timeMu.Lock()
	defer g.timeMu.Unlock()
	if g.startedAt.IsZero() {
		return ErrNotStarted
	}
	if g.endedAt.IsZero() {
		g.endedAt = t
	}
	return nil
}

// StartedAt returns the start timestamp, zero if the run has not started
func (g *Grid) StartedAt() time.Time {
	g.timeMu.Lock()
	defer g.timeMu.Unlock()
	return g.startedAt
}

// EndedAt returns the end timestamp, zero while the run is in progress
func (g *Grid) EndedAt() time.Time {
	g.timeMu.Lock()
	defer g.timeMu.Unlock()
	return g.endedAt
}
