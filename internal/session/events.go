package session

import (
	"time"

	"github.com/tlemoine/earshot/internal/episode"
)

// StateChange is emitted when the session state changes.
type StateChange struct {
	Previous State
	Current  State
}

// EpisodeChange is emitted when a different episode becomes current.
//
// Emitted by:
//   - Load: when the loaded episode differs from the previous one
//   - Stop: Current is nil after a full teardown
//
// NOT emitted by:
//   - Load with the ID already current: that is a visibility-only re-show
//   - Toggle / completion: state changes do not emit EpisodeChange
//
// The app should handle episode-related side effects (transcript fetch,
// MPRIS metadata, notifications) in response to this event.
type EpisodeChange struct {
	Previous *episode.Episode
	Current  *episode.Episode
}

// PositionChange is emitted on every position poll tick and after seeks.
type PositionChange struct {
	Position time.Duration
	Duration time.Duration
}

// RateChange is emitted when the playback rate changes.
type RateChange struct {
	Rate float64
}

// VisibilityChange is emitted when the player chrome should be shown or hidden.
// Visibility is pure UI state; it never affects playback.
type VisibilityChange struct {
	Visible bool
}

// ErrorEvent is emitted when an operation fails.
// Only "load" failures are worth surfacing to the user; persistence and
// restore failures are informational and playback continues without them.
type ErrorEvent struct {
	Operation string // e.g., "load", "persist", "restore"
	EpisodeID string
	Err       error
}
