package transaction

// State is the top-level lifecycle state of a transaction.
type State int

const (
	StatePending State = iota
	StateRunning
	StateFinished
	StateCancelled
	StateError
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateCancelled:
		return "cancelled"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	return s >= StateFinished
}

// canMove reports whether the machine allows from -> to. States only move
// forward; a pending transaction may be cancelled before it ever runs.
func canMove(from, to State) bool {
	switch from {
	case StatePending:
		return to == StateRunning || to == StateCancelled
	case StateRunning:
		return to.Terminal()
	}
	return false
}
