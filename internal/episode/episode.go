// Package episode defines the playable episode model served by the backend.
package episode

import "time"

// Generation status values reported by the backend.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Episode is an audio-bearing item from the user's library.
// The playback engine treats it as immutable; only the backend mutates it.
type Episode struct {
	ID            string
	Title         string
	Category      string
	AudioURL      string
	TranscriptURL string
	Transcript    string
	Duration      time.Duration
	Status        string
}

// Playable reports whether the episode has audio to load.
// Episodes still generating (or failed) have no audio URL yet.
func (e *Episode) Playable() bool {
	return e != nil && e.AudioURL != ""
}
