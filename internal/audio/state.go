// internal/audio/state.go
package audio

// State represents the playback state machine.
//
// The state machine has three states with the following valid transitions:
//
//	┌──────────┐      load       ┌──────────┐
//	│  Stopped │ ───────────────▶│  Paused  │
//	└──────────┘                 └──────────┘
//	     ▲                            │ │
//	     │ stop                resume │ │ stop
//	     │                            ▼ │
//	     │                       ┌──────────┐
//	     └───────────────────────│  Playing │
//	                  stop       └──────────┘
//	                                  │
//	                            pause │
//	                                  ▼
//	                               Paused
//
// Valid transitions:
//   - Stopped → Paused  (via Load; streams start paused, the session
//     decides when audible playback begins)
//   - Paused  → Playing (via Resume)
//   - Playing → Paused  (via Pause)
//   - Playing → Stopped (via Stop)
//   - Paused  → Stopped (via Stop)
//
// Toggle() cycles: Playing ↔ Paused (no-op if Stopped)
//
// Invalid/No-op transitions (handled gracefully):
//   - Stopped → Playing (ignored, nothing loaded)
//   - Paused  → Paused  (ignored)
//   - Playing → Playing (ignored)
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsLoaded returns true if a stream is loaded (Playing or Paused).
func (s State) IsLoaded() bool {
	return s == Playing || s == Paused
}
