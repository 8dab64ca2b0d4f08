/*
Package grid implements the shared request-state grid at the heart of
loadgrid.

# Overview

A benchmark run is modeled as a fixed 2-D grid of request slots:
  - Rows are concurrent workers
  - Columns are each worker's request sequence
  - Every cell tracks the lifecycle of exactly one planned request

The grid is the only shared mutable structure in the system. Workers
mutate their own row's slots as requests progress; display consumers
(the TUI renderer and the console reporter) poll read-only snapshots on
their own schedules.

# Slot Lifecycle

Each slot moves through a small state machine:

	Untried -> Requested -> Responded (carries an HTTP status code)
	                     -> Failed

Responded and Failed are terminal. Any other transition is rejected
with ErrInvalidTransition and leaves the slot untouched.

# Concurrency Model

Every slot's mutable fields (state, status code, rendered flag) are
packed into a single machine word updated with compare-and-swap. This
gives three properties without a grid-wide lock:

  - Writers to different slots never contend
  - A reader can never observe a torn state/status pair
  - Per-slot transitions are monotonic along the state machine

Snapshots copy each slot with one atomic load apiece. Cross-slot
consistency is intentionally not provided; consumers poll frequently
and the grid only ever converges toward terminal states.

# Timing

Benchmark start/end timestamps live on the grid and are written exactly
once each (MarkStarted guards with ErrAlreadyStarted). Aggregation over
them lives in the stats package.

# Prewarm

WaitRendered blocks until every slot has been drawn at least once, so
window/terminal setup cost does not skew early timing measurements. The
rendered flag is pure bookkeeping and never affects lifecycle state.
*/
package grid
