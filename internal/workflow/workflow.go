// Package workflow holds the shared pieces of the status state machines:
// the transition graph type and the typed errors every status-bearing
// entity reports when an edge or a derived value is rejected.
package workflow

import "fmt"

// Graph maps a status to the set of statuses it may advance to.
// A status absent from the map is terminal.
type Graph map[string][]string

func (g Graph) Can(from, to string) bool {
	for _, next := range g[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InvalidTransitionError reports a status edge not permitted from the
// entity's current state.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid_transition: %s %s -> %s", e.Entity, e.From, e.To)
}

// InvariantViolationError reports a derived value disagreeing with its
// recomputation. It indicates a caller or engine bug and is logged at
// higher severity than the other taxonomy members.
type InvariantViolationError struct {
	Entity string
	Reason string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant_violation: %s: %s", e.Entity, e.Reason)
}
