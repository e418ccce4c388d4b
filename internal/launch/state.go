package launch

import "fmt"

// State tracks the progress of one launch through the lifecycle.
type State string

const (
	StateRequested    State = "requested"
	StateVersionGuard State = "version-guard"
	StateCheckout     State = "checkout"
	StateExecuting    State = "executing"
	StateCapturing    State = "capturing"
	StateStored       State = "stored"
	StateAborted      State = "aborted"
)

// IsTerminal reports whether the state ends the launch.
func (s State) IsTerminal() bool {
	return s == StateStored || s == StateAborted
}

// allowedTransition defines the only legal moves. Every non-terminal
// state may also abort.
func allowedTransition(from, to State) bool {
	if to == StateAborted {
		return !from.IsTerminal()
	}
	switch from {
	case StateRequested:
		return to == StateVersionGuard
	case StateVersionGuard:
		return to == StateCheckout
	case StateCheckout:
		return to == StateExecuting
	case StateExecuting:
		return to == StateCapturing
	case StateCapturing:
		return to == StateStored
	default:
		return false
	}
}

// transition validates and applies a state change.
func (o *Orchestrator) transition(to State) error {
	if !allowedTransition(o.state, to) {
		return fmt.Errorf("disallowed launch transition: %s -> %s", o.state, to)
	}
	o.state = to
	return nil
}
