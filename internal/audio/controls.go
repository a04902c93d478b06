package audio

import (
	"os"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Stop stops playback and releases the stream, the spool file, and the
// speaker slot.
func (p *Player) Stop() {
	if p.state == Stopped {
		return
	}

	speaker.Clear()

	if p.streamer != nil {
		// Closing the stream closes the spool file handle with it.
		p.streamer.Close()
		p.streamer = nil
		p.spool = nil
	}
	if p.spoolPath != "" {
		os.Remove(p.spoolPath)
		p.spoolPath = ""
	}

	p.ctrl = nil
	p.resampler = nil
	p.info = nil
	p.state = Stopped
}

// Pause pauses playback.
func (p *Player) Pause() {
	if p.state != Playing || p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	p.state = Paused
}

// Resume resumes paused playback.
func (p *Player) Resume() {
	if p.state != Paused || p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	p.state = Playing
}

// Toggle toggles between playing and paused states.
func (p *Player) Toggle() {
	switch p.state {
	case Playing:
		p.Pause()
	case Paused:
		p.Resume()
	case Stopped:
		// Nothing to toggle when stopped
	}
}

// State returns the current player state.
func (p *Player) State() State {
	return p.state
}

// Position returns the current playback position in the source stream.
// Rate changes do not affect it: one media second is one second here.
func (p *Player) Position() time.Duration {
	if p.streamer == nil {
		return 0
	}
	// Read without the speaker lock - may be one buffer stale, which is
	// fine for progress display and autosave.
	return p.format.SampleRate.D(p.streamer.Position())
}

// Duration returns the total length of the loaded stream.
func (p *Player) Duration() time.Duration {
	if p.streamer == nil {
		return 0
	}
	return p.format.SampleRate.D(p.streamer.Len())
}

// SeekTo moves playback to an absolute position, clamped to the stream
// bounds. Seeking at or past the end signals completion instead.
func (p *Player) SeekTo(pos time.Duration) {
	if p.streamer == nil || p.state == Stopped {
		return
	}

	target := p.format.SampleRate.N(pos)
	if target < 0 {
		target = 0
	}

	if target >= p.streamer.Len() {
		select {
		case p.finishedCh <- struct{}{}:
		default:
		}
		return
	}

	speaker.Lock()
	// Re-check under lock in case Stop() won the race
	if p.streamer != nil && p.state != Stopped {
		_ = p.streamer.Seek(target)
	}
	speaker.Unlock()
}

// SetRate changes the playback rate without restarting the stream.
// The rate also applies to streams loaded later.
func (p *Player) SetRate(rate float64) {
	if rate <= 0 {
		return
	}
	p.rate = rate

	if p.resampler != nil {
		speaker.Lock()
		p.resampler.SetRatio(rate)
		speaker.Unlock()
	}
}

// Rate returns the current playback rate multiplier.
func (p *Player) Rate() float64 {
	return p.rate
}

// ResetToStart rewinds the loaded stream to the beginning and leaves it
// paused, ready to be replayed. Used after the stream plays to its end:
// a finished sequence has left the speaker, so it is re-queued here.
func (p *Player) ResetToStart() {
	if p.streamer == nil || p.ctrl == nil || p.state == Stopped {
		return
	}

	speaker.Lock()
	_ = p.streamer.Seek(0)
	p.ctrl.Paused = true
	speaker.Unlock()
	p.state = Paused

	speaker.Play(beep.Seq(p.ctrl, beep.Callback(func() {
		select {
		case p.finishedCh <- struct{}{}:
		default:
		}
	})))
}
