// ABOUTME: Search lifecycle states for the favicon orchestrator
// ABOUTME: Defines the legal transitions between idle, searching, fetching and terminal states

package finder

// State is a step of a single favicon search
type State int

const (
	StateIdle State = iota
	StateSearching
	StateLocateFailed
	StateLocated
	StateFetching
	StateFetchFailed
	StateFetchSucceeded
	StateDone
	StateFailed
	StateCancelled
)

var stateNames = map[State]string{
	StateIdle:           "idle",
	StateSearching:      "searching",
	StateLocateFailed:   "locate_failed",
	StateLocated:        "located",
	StateFetching:       "fetching",
	StateFetchFailed:    "fetch_failed",
	StateFetchSucceeded: "fetch_succeeded",
	StateDone:           "done",
	StateFailed:         "failed",
	StateCancelled:      "cancelled",
}

// String returns the state name used in logs
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// transitions lists the legal successor states. Cancellation is legal from
// every non-terminal state.
var transitions = map[State][]State{
	StateIdle:           {StateSearching, StateFailed},
	StateSearching:      {StateLocateFailed, StateLocated},
	StateLocateFailed:   {StateSearching, StateFailed},
	StateLocated:        {StateFetching, StateDone},
	StateFetching:       {StateFetchFailed, StateFetchSucceeded},
	StateFetchFailed:    {StateSearching, StateFailed},
	StateFetchSucceeded: {StateDone},
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateCancelled
}

// CanTransition reports whether moving from s to next is legal
func (s State) CanTransition(next State) bool {
	if s.Terminal() {
		return false
	}
	if next == StateCancelled {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
