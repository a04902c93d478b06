// internal/audio/interface.go
package audio

import (
	"context"
	"time"
)

// Interface defines the audio device contract for dependency injection and testing.
//
// Position and Duration are reads of the live decoder and may lag the last
// command by one buffer; consumers should poll rather than assume a command
// is reflected synchronously.
type Interface interface {
	Load(ctx context.Context, url string) error
	Stop()
	Pause()
	Resume()
	Toggle()
	State() State
	Position() time.Duration
	Duration() time.Duration
	SeekTo(pos time.Duration)
	ResetToStart()
	SetRate(rate float64)
	Rate() float64
	FinishedChan() <-chan struct{}
}

// Verify Player implements Interface at compile time.
var _ Interface = (*Player)(nil)
