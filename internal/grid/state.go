package grid

// SlotState is the lifecycle state of one request slot
type SlotState uint8

const (
	// Untried means the slot has not been claimed by a worker yet
	Untried SlotState = iota
	// Requested means a worker has claimed the slot and the request is in flight
	Requested
	// Responded means the request completed and carries an HTTP status code
	Responded
	// Failed means the request errored at the network level
	Failed
)

// String returns the lowercase name of the state
func (s SlotState) String() string {
	switch s {
	case Untried:
		return "untried"
	case Requested:
		return "requested"
	case Responded:
		return "responded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal returns true if no further transitions are permitted from s
func (s SlotState) Terminal() bool {
	return s == Responded || s == Failed
}

// legalTransitions is the full edge set of the slot state machine.
// Everything not listed here is rejected with ErrInvalidTransition.
var legalTransitions = map[SlotState][]SlotState{
	Untried:   {Requested},
	Requested: {Responded, Failed},
}

// canTransition reports whether the state machine permits from -> to
func canTransition(from, to SlotState) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
