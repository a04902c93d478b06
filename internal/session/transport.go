package session

import (
	"context"
	"fmt"
	"time"

	"github.com/tlemoine/earshot/internal/audio"
	"github.com/tlemoine/earshot/internal/episode"
)

// Load makes ep the current episode.
//
// Loading the episode that is already current only re-shows the player;
// the stream is not reloaded and the position is untouched. Otherwise
// the outgoing episode's position is persisted and its stream released
// strictly before the new stream is acquired, so at most one audio
// resource exists at any instant. A previously saved position for ep is
// restored when it exceeds the restore threshold.
//
// Acquiring the stream downloads the episode, so it runs with the
// session lock released; readers see an idle session until the load
// commits. A Stop or Close that lands during the download cancels the
// load, which then releases its stream and returns ErrSuperseded.
//
// On failure the session is left cleanly idle and the error is both
// returned and emitted as an ErrorEvent.
func (m *Manager) Load(ctx context.Context, ep *episode.Episode) error {
	if !ep.Playable() {
		return ErrNoAudio
	}

	// One acquisition at a time: a second Load waits here until the
	// first has its stream, then tears it down like any other.
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}

	if m.current != nil && m.current.ID == ep.ID && m.player.State().IsLoaded() {
		// Re-show without reloading
		changed := !m.visible
		m.visible = true
		m.mu.Unlock()
		if changed {
			m.emitVisibility(VisibilityChange{Visible: true})
		}
		return nil
	}

	prev := m.current
	prevState := m.stateLocked()

	m.persistLocked()
	m.teardownLocked()
	m.resetLocked()
	m.loading = true
	gen := m.gen
	m.mu.Unlock()

	err := m.player.Load(ctx, ep.AudioURL)

	m.mu.Lock()
	if m.closed || gen != m.gen {
		wasClosed := m.closed
		m.mu.Unlock()
		if err == nil {
			m.player.Stop()
		}
		if prev != nil {
			m.emitEpisode(EpisodeChange{Previous: prev, Current: nil})
		}
		if prevState != StateIdle {
			m.emitState(StateChange{Previous: prevState, Current: StateIdle})
		}
		if wasClosed {
			return ErrClosed
		}
		return ErrSuperseded
	}
	m.loading = false

	if err != nil {
		m.mu.Unlock()
		m.emitError("load", ep.ID, err)
		if prev != nil {
			m.emitEpisode(EpisodeChange{Previous: prev, Current: nil})
		}
		if prevState != StateIdle {
			m.emitState(StateChange{Previous: prevState, Current: StateIdle})
		}
		return fmt.Errorf("load episode %s: %w", ep.ID, err)
	}

	restored := m.restoreLocked(ep)

	m.current = ep
	m.playing = false
	m.position = restored
	m.duration = m.player.Duration()
	m.visible = true

	stop := make(chan struct{})
	m.watchStop = stop
	pos, dur := m.position, m.duration
	m.mu.Unlock()

	go m.watch(gen, stop)

	m.emitEpisode(EpisodeChange{Previous: prev, Current: ep})
	m.emitState(StateChange{Previous: prevState, Current: StatePaused})
	m.emitVisibility(VisibilityChange{Visible: true})
	m.emitPosition(PositionChange{Position: pos, Duration: dur})
	return nil
}

// restoreLocked applies a saved position for ep if one exists and is
// far enough from the start to be meaningful.
func (m *Manager) restoreLocked(ep *episode.Episode) time.Duration {
	rec, err := m.store.Get(ep.ID)
	if err != nil {
		m.emitError("restore", ep.ID, err)
		return 0
	}
	if rec == nil || rec.Position < m.opts.RestoreThreshold {
		return 0
	}
	m.player.SeekTo(rec.Position)
	return rec.Position
}

// Toggle switches between playing and paused. No-op when idle.
//
// The playing flag is read back from the player after the command
// rather than set optimistically, so it reflects what the device
// actually did.
func (m *Manager) Toggle() {
	m.mu.Lock()
	if m.current == nil || !m.player.State().IsLoaded() {
		m.mu.Unlock()
		return
	}

	prev := m.stateLocked()
	m.player.Toggle()
	m.playing = m.player.State() == audio.Playing
	cur := m.stateLocked()
	m.mu.Unlock()

	if prev != cur {
		m.emitState(StateChange{Previous: prev, Current: cur})
	}
}

// SeekTo moves playback to an absolute position. The session position
// updates immediately (optimistic); the next poll tick confirms it.
// No-op when idle.
func (m *Manager) SeekTo(pos time.Duration) {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return
	}

	if pos < 0 {
		pos = 0
	}
	if m.duration > 0 && pos > m.duration {
		pos = m.duration
	}

	m.player.SeekTo(pos)
	m.position = pos
	e := PositionChange{Position: pos, Duration: m.duration}
	m.mu.Unlock()

	m.emitPosition(e)
}

// SkipForward seeks ahead by the configured skip offset.
func (m *Manager) SkipForward() {
	m.skip(m.opts.SkipOffset)
}

// SkipBackward seeks back by the configured skip offset.
func (m *Manager) SkipBackward() {
	m.skip(-m.opts.SkipOffset)
}

func (m *Manager) skip(delta time.Duration) {
	m.mu.RLock()
	if m.current == nil {
		m.mu.RUnlock()
		return
	}
	target := m.position + delta
	m.mu.RUnlock()

	m.SeekTo(target)
}

// SetRate changes the playback rate. It always updates the session rate
// so later loads pick it up, and applies it live when a stream is
// loaded. Non-positive rates are ignored.
func (m *Manager) SetRate(rate float64) {
	if rate <= 0 {
		return
	}

	m.mu.Lock()
	m.rate = rate
	m.player.SetRate(rate)
	m.mu.Unlock()

	m.emitRate(RateChange{Rate: rate})
}

// Stop persists the current position and fully tears the session down
// to idle. This is the only operation that hides the player; Load only
// tears down the previous episode on the way to the next one.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.loading {
		// Cancel the acquisition in flight; the loading goroutine
		// releases its stream and reports the teardown.
		m.gen++
		m.loading = false
		m.mu.Unlock()
		return
	}
	if m.current == nil {
		m.mu.Unlock()
		return
	}

	prev := m.current
	prevState := m.stateLocked()

	m.persistLocked()
	m.teardownLocked()
	m.resetLocked()
	m.mu.Unlock()

	m.emitEpisode(EpisodeChange{Previous: prev, Current: nil})
	m.emitState(StateChange{Previous: prevState, Current: StateIdle})
	m.emitVisibility(VisibilityChange{Visible: false})
	m.emitPosition(PositionChange{})
}

// SetVisible shows or hides the player chrome without touching
// playback. A paused or playing session keeps going either way.
func (m *Manager) SetVisible(visible bool) {
	m.mu.Lock()
	changed := m.visible != visible
	m.visible = visible
	m.mu.Unlock()

	if changed {
		m.emitVisibility(VisibilityChange{Visible: visible})
	}
}
