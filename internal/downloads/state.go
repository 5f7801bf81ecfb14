package downloads

// State is one step in a download's lifecycle.
type State string

const (
	StateInitializing State = "INITIALIZING"
	StateQueued       State = "QUEUED"
	StatePaused       State = "PAUSED"
	StateDownloading  State = "DOWNLOADING"
	StateSharing      State = "SHARING"
	StateDone         State = "DONE"
	StateArchived     State = "ARCHIVED"
	StateCancelled    State = "CANCELLED"
)

// transitions holds the forward edges of the lifecycle. CANCELLED is
// reachable from every non-terminal state and is handled in CanTransition
// rather than listed per state.
var transitions = map[State][]State{
	StateInitializing: {StateQueued},
	StateQueued:       {StatePaused, StateDownloading},
	StatePaused:       {StateQueued, StateDownloading},
	StateDownloading:  {StatePaused, StateSharing},
	StateSharing:      {StateDone},
	StateDone:         {StateArchived},
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case StateInitializing, StateQueued, StatePaused, StateDownloading,
		StateSharing, StateDone, StateArchived, StateCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition leaves s.
func (s State) Terminal() bool {
	return s == StateArchived || s == StateCancelled
}

// ReachedSharing reports whether the download got at least as far as
// seeding back. Reconciliation uses this to decide between archive and
// cancel for externally removed downloads.
func (s State) ReachedSharing() bool {
	return s == StateSharing || s == StateDone || s == StateArchived
}

// CanTransition reports whether moving from s to next is legal.
func (s State) CanTransition(next State) bool {
	if next == StateCancelled {
		return !s.Terminal()
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
