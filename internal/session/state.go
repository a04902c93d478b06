// internal/session/state.go
package session

// State represents the session state.
//
// Idle means nothing is loaded. Paused and Playing both mean an episode
// is loaded; only Playing advances the position.
type State int

const (
	StateIdle State = iota
	StatePaused
	StatePlaying
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePaused:
		return "Paused"
	case StatePlaying:
		return "Playing"
	default:
		return "Unknown"
	}
}

// IsLoaded returns true if an episode is loaded (playing or paused).
func (s State) IsLoaded() bool {
	return s == StatePlaying || s == StatePaused
}
