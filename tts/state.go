package tts

// StateType represents the playback lifecycle state.
type StateType int

const (
	// StateIdle indicates no session is active.
	StateIdle StateType = iota
	// StatePrerolling indicates the sequencer is waiting for the initial
	// synthesis results before starting playback.
	StatePrerolling
	// StatePlaying indicates audio is streaming to the sink.
	StatePlaying
	// StatePaused indicates playback is suspended mid-sentence.
	StatePaused
	// StateSeeking is the transient state while the sink is being replaced
	// after a seek command.
	StateSeeking
	// StateStopped is terminal for a session.
	StateStopped
)

// String returns the state name.
func (s StateType) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePrerolling:
		return "prerolling"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateSeeking:
		return "seeking"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Active reports whether the state is part of playback (playing, paused,
// seeking, or still prerolling).
func (s StateType) Active() bool {
	switch s {
	case StatePrerolling, StatePlaying, StatePaused, StateSeeking:
		return true
	}
	return false
}

// StateMachine guards playback state transitions. A fresh machine is created
// per session; Stopped is terminal.
type StateMachine struct {
	current     StateType
	transitions map[StateType][]StateType
}

// NewStateMachine creates a machine in the Idle state.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[StateType][]StateType{
			StateIdle:       {StatePrerolling, StateStopped},
			StatePrerolling: {StatePlaying, StateStopped},
			StatePlaying:    {StatePaused, StateSeeking, StateStopped},
			StatePaused:     {StatePlaying, StateSeeking, StateStopped},
			StateSeeking:    {StatePlaying, StateStopped},
			StateStopped:    {},
		},
	}
}

// Transition moves to the given state if the transition is valid and reports
// whether it happened. Transitioning to the current state is a no-op success.
func (sm *StateMachine) Transition(to StateType) bool {
	if to == sm.current {
		return true
	}
	for _, valid := range sm.transitions[sm.current] {
		if valid == to {
			sm.current = to
			return true
		}
	}
	return false
}

// Current returns the current state.
func (sm *StateMachine) Current() StateType {
	return sm.current
}

// Active reports whether playback is in progress.
func (sm *StateMachine) Active() bool {
	return sm.current.Active()
}
