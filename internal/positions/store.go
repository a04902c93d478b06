// Package positions persists last-known playback positions per episode.
//
// Records are written periodically while an episode plays and on
// unload/stop, and read back once when an episode is loaded again.
// Persistence failures are never fatal to playback; callers are expected
// to treat every error from this package as best-effort.
package positions

import "time"

// Record is the saved playback position for one episode.
type Record struct {
	Position  time.Duration
	Duration  time.Duration
	UpdatedAt time.Time
}

// Store defines the position store contract for dependency injection and testing.
type Store interface {
	// Get returns the saved record for an episode, or nil if none exists.
	Get(episodeID string) (*Record, error)
	// Put saves or replaces the record for an episode.
	Put(episodeID string, rec Record) error
	// Delete removes the record for an episode. Deleting a missing record is not an error.
	Delete(episodeID string) error
	Close() error
}

// Verify implementations at compile time.
var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
