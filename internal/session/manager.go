// Package session owns the process-wide "now playing" state: which
// episode is loaded, whether it is audibly playing, where it is, and at
// what rate. All UI surfaces observe this one instance instead of
// keeping playback state of their own; only the manager's operations
// mutate it.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/tlemoine/earshot/internal/audio"
	"github.com/tlemoine/earshot/internal/episode"
	"github.com/tlemoine/earshot/internal/positions"
)

// ErrNoAudio is returned by Load for episodes without an audio URL
// (still generating, or failed generation).
var ErrNoAudio = errors.New("episode has no audio")

// ErrClosed is returned by operations on a closed manager.
var ErrClosed = errors.New("session closed")

// ErrSuperseded is returned by Load when a Stop or Close lands while
// the stream is still being acquired; the acquisition is abandoned.
var ErrSuperseded = errors.New("load superseded")

// Options tunes the manager's timers and thresholds.
// Zero values fall back to the defaults below.
type Options struct {
	SkipOffset       time.Duration // seek delta for skip operations
	PollInterval     time.Duration // position poll period while playing
	AutosaveInterval time.Duration // position persistence period while loaded
	RestoreThreshold time.Duration // saved positions below this are ignored
	InitialRate      float64
}

const (
	defaultSkipOffset       = 15 * time.Second
	defaultPollInterval     = 250 * time.Millisecond
	defaultAutosaveInterval = 5 * time.Second
	defaultRestoreThreshold = time.Second
)

func (o Options) withDefaults() Options {
	if o.SkipOffset <= 0 {
		o.SkipOffset = defaultSkipOffset
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.AutosaveInterval <= 0 {
		o.AutosaveInterval = defaultAutosaveInterval
	}
	if o.RestoreThreshold <= 0 {
		o.RestoreThreshold = defaultRestoreThreshold
	}
	if o.InitialRate <= 0 {
		o.InitialRate = 1.0
	}
	return o
}

// Snapshot is a consistent read of the session state.
type Snapshot struct {
	Episode  *episode.Episode
	State    State
	Position time.Duration
	Duration time.Duration
	Rate     float64
	Visible  bool
}

// Manager is the playback session manager. Construct one at app start
// with New and share it; it is safe for concurrent use.
type Manager struct {
	mu sync.RWMutex

	// loadMu serializes stream acquisition. Load takes it for its whole
	// duration so that mu never has to be held across the download.
	loadMu sync.Mutex

	player audio.Interface
	store  positions.Store
	opts   Options

	current  *episode.Episode
	playing  bool
	position time.Duration
	duration time.Duration
	rate     float64
	visible  bool

	// gen is bumped on every load and teardown; timer and completion
	// handlers compare it to detect that their episode is gone.
	gen       int
	watchStop chan struct{}

	// loading marks an acquisition in flight: the previous episode is
	// torn down but the next stream has not committed yet.
	loading bool

	subs   []*Subscription
	subsMu sync.RWMutex

	closed bool
}

// New creates a session manager on top of an audio player and a
// position store.
func New(p audio.Interface, store positions.Store, opts Options) *Manager {
	opts = opts.withDefaults()
	p.SetRate(opts.InitialRate)
	return &Manager{
		player: p,
		store:  store,
		opts:   opts,
		rate:   opts.InitialRate,
	}
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stateLocked()
}

func (m *Manager) stateLocked() State {
	if m.current == nil {
		return StateIdle
	}
	if m.playing {
		return StatePlaying
	}
	return StatePaused
}

// IsPlaying returns true if audio is audibly advancing.
func (m *Manager) IsPlaying() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.playing
}

// Current returns the loaded episode, or nil.
func (m *Manager) Current() *episode.Episode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Position returns the last polled (or seeked-to) playback position.
func (m *Manager) Position() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.position
}

// Duration returns the loaded episode's duration, 0 if unknown.
func (m *Manager) Duration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.duration
}

// Rate returns the playback rate multiplier.
func (m *Manager) Rate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rate
}

// Visible returns whether a player affordance should be rendered.
func (m *Manager) Visible() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.visible
}

// Snapshot returns a consistent copy of the whole session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Episode:  m.current,
		State:    m.stateLocked(),
		Position: m.position,
		Duration: m.duration,
		Rate:     m.rate,
		Visible:  m.visible,
	}
}

// Subscribe creates a new event subscription.
func (m *Manager) Subscribe() *Subscription {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	sub := newSubscription()
	m.subs = append(m.subs, sub)
	return sub
}

// Close persists the current position, tears down playback, and closes
// all subscriptions. The manager is unusable afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.persistLocked()
	m.teardownLocked()
	m.resetLocked()
	m.mu.Unlock()

	m.subsMu.Lock()
	for _, sub := range m.subs {
		sub.close()
	}
	m.subs = nil
	m.subsMu.Unlock()

	return nil
}

// persistLocked saves the current episode's position, best-effort.
// Positions at zero carry no information and are skipped.
func (m *Manager) persistLocked() {
	if m.current == nil || m.position <= 0 {
		return
	}
	err := m.store.Put(m.current.ID, positions.Record{
		Position: m.position,
		Duration: m.duration,
	})
	if err != nil {
		m.emitError("persist", m.current.ID, err)
	}
}

// teardownLocked cancels the watch goroutine and releases the player
// resource. It must run before a new resource is acquired so that at
// most one stream exists at any instant.
func (m *Manager) teardownLocked() {
	m.gen++
	if m.watchStop != nil {
		close(m.watchStop)
		m.watchStop = nil
	}
	// While an acquisition is in flight there is no committed stream to
	// release; the loading goroutine drops its stream when it sees the
	// generation bump.
	if !m.loading {
		m.player.Stop()
	}
	m.loading = false
}

// resetLocked returns the session fields to their idle values.
func (m *Manager) resetLocked() {
	m.current = nil
	m.playing = false
	m.position = 0
	m.duration = 0
	m.visible = false
}

// Event emission helpers. Sends are non-blocking; slow subscribers drop
// events rather than stall the session.

func (m *Manager) emitState(e StateChange) {
	m.subsMu.RLock()
	defer m.subsMu.RUnlock()
	for _, sub := range m.subs {
		sub.sendState(e)
	}
}

func (m *Manager) emitEpisode(e EpisodeChange) {
	m.subsMu.RLock()
	defer m.subsMu.RUnlock()
	for _, sub := range m.subs {
		sub.sendEpisode(e)
	}
}

func (m *Manager) emitPosition(e PositionChange) {
	m.subsMu.RLock()
	defer m.subsMu.RUnlock()
	for _, sub := range m.subs {
		sub.sendPosition(e)
	}
}

func (m *Manager) emitRate(e RateChange) {
	m.subsMu.RLock()
	defer m.subsMu.RUnlock()
	for _, sub := range m.subs {
		sub.sendRate(e)
	}
}

func (m *Manager) emitVisibility(e VisibilityChange) {
	m.subsMu.RLock()
	defer m.subsMu.RUnlock()
	for _, sub := range m.subs {
		sub.sendVisibility(e)
	}
}

func (m *Manager) emitError(op, episodeID string, err error) {
	m.subsMu.RLock()
	defer m.subsMu.RUnlock()
	for _, sub := range m.subs {
		sub.sendError(ErrorEvent{Operation: op, EpisodeID: episodeID, Err: err})
	}
}
