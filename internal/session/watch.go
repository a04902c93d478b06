package session

import (
	"time"

	"github.com/tlemoine/earshot/internal/positions"
)

// watch runs for the lifetime of one loaded episode. It owns the two
// session timers (fast position poll, slow autosave) and the player's
// completion signal. The stop channel is closed by teardownLocked, and
// every handler re-checks the load generation under the lock, so a tick
// racing a teardown is a no-op rather than a write against a dead
// stream.
func (m *Manager) watch(gen int, stop <-chan struct{}) {
	pollT := time.NewTicker(m.opts.PollInterval)
	defer pollT.Stop()
	saveT := time.NewTicker(m.opts.AutosaveInterval)
	defer saveT.Stop()

	finished := m.player.FinishedChan()

	for {
		select {
		case <-stop:
			return
		case <-finished:
			m.handleFinished(gen)
		case <-pollT.C:
			m.poll(gen)
		case <-saveT.C:
			m.autosave(gen)
		}
	}
}

// poll samples the player's live position and duration. Only runs work
// while playing; a paused session's position cannot move except through
// SeekTo, which reports its own PositionChange.
func (m *Manager) poll(gen int) {
	m.mu.Lock()
	if m.staleLocked(gen) || !m.playing {
		m.mu.Unlock()
		return
	}

	pos := m.player.Position()
	dur := m.player.Duration()
	m.position = pos
	if dur > 0 {
		m.duration = dur
	}
	e := PositionChange{Position: m.position, Duration: m.duration}
	m.mu.Unlock()

	m.emitPosition(e)
}

// autosave persists the current position. Positions at zero are
// meaningless to restore and are skipped.
func (m *Manager) autosave(gen int) {
	m.mu.Lock()
	if m.staleLocked(gen) || m.position <= 0 {
		m.mu.Unlock()
		return
	}
	id := m.current.ID
	rec := positions.Record{Position: m.position, Duration: m.duration}
	m.mu.Unlock()

	if err := m.store.Put(id, rec); err != nil {
		m.emitError("persist", id, err)
	}
}

// handleFinished reacts to the stream playing to its end: the session
// rewinds to a pause at the start, keeping the episode loaded and
// visible so it can be replayed. The saved position is cleared so the
// next load starts from the beginning too.
func (m *Manager) handleFinished(gen int) {
	m.mu.Lock()
	if m.staleLocked(gen) {
		m.mu.Unlock()
		return
	}

	prev := m.stateLocked()
	m.player.ResetToStart()
	m.playing = false
	m.position = 0
	id := m.current.ID
	dur := m.duration
	m.mu.Unlock()

	if err := m.store.Delete(id); err != nil {
		m.emitError("persist", id, err)
	}

	if prev != StatePaused {
		m.emitState(StateChange{Previous: prev, Current: StatePaused})
	}
	m.emitPosition(PositionChange{Position: 0, Duration: dur})
}

// staleLocked reports whether a timer or completion handler outlived
// the load it belongs to.
func (m *Manager) staleLocked(gen int) bool {
	return m.closed || gen != m.gen || m.current == nil
}
