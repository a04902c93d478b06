package session

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/tlemoine/earshot/internal/audio"
	"github.com/tlemoine/earshot/internal/episode"
	"github.com/tlemoine/earshot/internal/positions"
)

func testEpisode(id string) *episode.Episode {
	return &episode.Episode{
		ID:       id,
		Title:    "Episode " + id,
		Category: "Tech",
		AudioURL: "https://cdn.example.com/" + id + ".mp3",
	}
}

func newTestManager(t *testing.T) (*Manager, *audio.Mock, *positions.MemoryStore) {
	t.Helper()
	p := audio.NewMock()
	store := positions.NewMemory()
	m := New(p, store, Options{})
	t.Cleanup(func() { m.Close() })
	return m, p, store
}

func TestLoad_RequiresAudioURL(t *testing.T) {
	m, p, _ := newTestManager(t)

	err := m.Load(context.Background(), &episode.Episode{ID: "ep-1", Status: episode.StatusPending})
	if !errors.Is(err, ErrNoAudio) {
		t.Fatalf("Load = %v, want ErrNoAudio", err)
	}
	if len(p.LoadCalls()) != 0 {
		t.Error("no load should be attempted without an audio URL")
	}
	if m.State() != StateIdle {
		t.Errorf("State = %v, want Idle", m.State())
	}
}

func TestLoad_Success(t *testing.T) {
	m, p, _ := newTestManager(t)
	ep := testEpisode("ep-1")

	if err := m.Load(context.Background(), ep); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	snap := m.Snapshot()
	if snap.Episode == nil || snap.Episode.ID != "ep-1" {
		t.Errorf("Episode = %+v, want ep-1", snap.Episode)
	}
	if snap.State != StatePaused {
		t.Errorf("State = %v, want Paused (streams load paused)", snap.State)
	}
	if !snap.Visible {
		t.Error("Visible = false, want true after load")
	}
	if snap.Position != 0 {
		t.Errorf("Position = %v, want 0", snap.Position)
	}

	calls := p.LoadCalls()
	if len(calls) != 1 || calls[0] != ep.AudioURL {
		t.Errorf("LoadCalls = %v, want [%s]", calls, ep.AudioURL)
	}
}

func TestLoad_Failure_LeavesIdle(t *testing.T) {
	m, p, _ := newTestManager(t)
	p.SetLoadError(errors.New("404 not found"))

	err := m.Load(context.Background(), testEpisode("ep-1"))
	if err == nil {
		t.Fatal("Load should fail")
	}

	snap := m.Snapshot()
	if snap.State != StateIdle {
		t.Errorf("State = %v, want Idle after failed load", snap.State)
	}
	if snap.Episode != nil {
		t.Errorf("Episode = %+v, want nil after failed load", snap.Episode)
	}
	if snap.Visible {
		t.Error("Visible = true after failed load, want false")
	}
}

func TestLoad_Failure_EmitsError(t *testing.T) {
	m, p, _ := newTestManager(t)
	sub := m.Subscribe()
	p.SetLoadError(errors.New("network down"))

	_ = m.Load(context.Background(), testEpisode("ep-1"))

	select {
	case e := <-sub.Error:
		if e.Operation != "load" || e.EpisodeID != "ep-1" {
			t.Errorf("ErrorEvent = %+v, want load/ep-1", e)
		}
	default:
		t.Error("no ErrorEvent emitted for failed load")
	}
}

func TestLoad_IdempotentReload(t *testing.T) {
	m, p, _ := newTestManager(t)
	ep := testEpisode("ep-1")

	if err := m.Load(context.Background(), ep); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	p.SetDuration(2 * time.Minute)
	m.SeekTo(30 * time.Second)
	m.SetVisible(false)

	// Same ID again: no reallocation, no position reset, re-shown
	if err := m.Load(context.Background(), ep); err != nil {
		t.Fatalf("second Load failed: %v", err)
	}

	if len(p.LoadCalls()) != 1 {
		t.Errorf("LoadCalls = %d, want 1 (no reallocation)", len(p.LoadCalls()))
	}
	if m.Position() != 30*time.Second {
		t.Errorf("Position = %v, want 30s (not reset)", m.Position())
	}
	if !m.Visible() {
		t.Error("Visible = false, want true (re-show)")
	}
}

func TestLoad_SwitchReleasesBeforeAcquire(t *testing.T) {
	m, p, store := newTestManager(t)

	if err := m.Load(context.Background(), testEpisode("ep-1")); err != nil {
		t.Fatalf("Load ep-1 failed: %v", err)
	}
	m.SeekTo(45 * time.Second)

	stopsBefore := p.StopCalls()
	if err := m.Load(context.Background(), testEpisode("ep-2")); err != nil {
		t.Fatalf("Load ep-2 failed: %v", err)
	}

	// Old stream released before new one acquired
	if p.StopCalls() <= stopsBefore {
		t.Error("previous stream was not released on switch")
	}
	calls := p.LoadCalls()
	if len(calls) != 2 {
		t.Fatalf("LoadCalls = %d, want 2", len(calls))
	}

	// Outgoing position persisted
	rec, err := store.Get("ep-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec == nil || rec.Position != 45*time.Second {
		t.Errorf("persisted record = %+v, want position 45s", rec)
	}

	if got := m.Current().ID; got != "ep-2" {
		t.Errorf("Current = %s, want ep-2", got)
	}
}

func TestLoad_RestoreThresholdGated(t *testing.T) {
	tests := []struct {
		name        string
		saved       time.Duration
		wantSeek    bool
		wantRestore time.Duration
	}{
		{name: "below threshold ignored", saved: 500 * time.Millisecond, wantSeek: false},
		{name: "above threshold restored", saved: 45 * time.Second, wantSeek: true, wantRestore: 45 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, p, store := newTestManager(t)
			if err := store.Put("ep-1", positions.Record{Position: tt.saved, Duration: 2 * time.Minute}); err != nil {
				t.Fatalf("Put failed: %v", err)
			}

			if err := m.Load(context.Background(), testEpisode("ep-1")); err != nil {
				t.Fatalf("Load failed: %v", err)
			}

			seeks := p.SeekToCalls()
			if tt.wantSeek {
				if len(seeks) != 1 || seeks[0] != tt.wantRestore {
					t.Errorf("SeekToCalls = %v, want [%v]", seeks, tt.wantRestore)
				}
				if m.Position() != tt.wantRestore {
					t.Errorf("Position = %v, want %v", m.Position(), tt.wantRestore)
				}
			} else {
				if len(seeks) != 0 {
					t.Errorf("SeekToCalls = %v, want none below threshold", seeks)
				}
				if m.Position() != 0 {
					t.Errorf("Position = %v, want 0", m.Position())
				}
			}
		})
	}
}

func TestLoad_RestoreFailure_NonFatal(t *testing.T) {
	m, _, store := newTestManager(t)
	sub := m.Subscribe()
	store.SetGetError(errors.New("disk error"))

	if err := m.Load(context.Background(), testEpisode("ep-1")); err != nil {
		t.Fatalf("Load should succeed despite restore failure: %v", err)
	}
	if m.State() != StatePaused {
		t.Errorf("State = %v, want Paused", m.State())
	}

	select {
	case e := <-sub.Error:
		if e.Operation != "restore" {
			t.Errorf("ErrorEvent.Operation = %q, want restore", e.Operation)
		}
	default:
		t.Error("no ErrorEvent for restore failure")
	}
}

func TestToggle_NoopWhenIdle(t *testing.T) {
	m, _, _ := newTestManager(t)

	m.Toggle() // must not panic or change state

	if m.State() != StateIdle {
		t.Errorf("State = %v, want Idle", m.State())
	}
}

func TestToggle_ConfirmedByDevice(t *testing.T) {
	m, p, _ := newTestManager(t)
	if err := m.Load(context.Background(), testEpisode("ep-1")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	m.Toggle()
	if !m.IsPlaying() {
		t.Error("IsPlaying = false after toggle from paused")
	}
	if p.State() != audio.Playing {
		t.Errorf("player state = %v, want Playing", p.State())
	}

	m.Toggle()
	if m.IsPlaying() {
		t.Error("IsPlaying = true after toggle from playing")
	}
}

func TestSeekTo_Clamps(t *testing.T) {
	m, p, _ := newTestManager(t)
	if err := m.Load(context.Background(), testEpisode("ep-1")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	p.SetDuration(10 * time.Second)
	forceDuration(m, 10*time.Second)

	m.SeekTo(5 * time.Second)
	if m.Position() != 5*time.Second {
		t.Fatalf("Position = %v, want 5s", m.Position())
	}

	m.SeekTo(-3 * time.Second)
	if m.Position() != 0 {
		t.Errorf("Position after negative seek = %v, want 0", m.Position())
	}

	m.SeekTo(25 * time.Second)
	if m.Position() != 10*time.Second {
		t.Errorf("Position after overshoot = %v, want 10s (duration)", m.Position())
	}
}

func TestSkip_Clamping(t *testing.T) {
	m, p, _ := newTestManager(t)
	if err := m.Load(context.Background(), testEpisode("ep-1")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	p.SetDuration(10 * time.Second)
	forceDuration(m, 10*time.Second)
	m.SeekTo(5 * time.Second)

	m.SkipBackward() // 5s - 15s clamps to 0
	if m.Position() != 0 {
		t.Errorf("Position after SkipBackward = %v, want 0", m.Position())
	}

	m.SeekTo(5 * time.Second)
	m.SkipForward() // 5s + 15s clamps to duration
	if m.Position() != 10*time.Second {
		t.Errorf("Position after SkipForward = %v, want 10s (duration)", m.Position())
	}
}

func TestSeekTo_NoopWhenIdle(t *testing.T) {
	m, p, _ := newTestManager(t)

	m.SeekTo(30 * time.Second)

	if len(p.SeekToCalls()) != 0 {
		t.Error("SeekTo should not reach the player when idle")
	}
}

func TestSetRate_PersistsAcrossLoads(t *testing.T) {
	m, p, _ := newTestManager(t)

	m.SetRate(1.5)
	if err := m.Load(context.Background(), testEpisode("ep-1")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if p.Rate() != 1.5 {
		t.Errorf("player rate = %v, want 1.5 applied to new loads", p.Rate())
	}
	if m.Rate() != 1.5 {
		t.Errorf("session rate = %v, want 1.5", m.Rate())
	}
}

func TestSetRate_IgnoresNonPositive(t *testing.T) {
	m, _, _ := newTestManager(t)

	m.SetRate(-1)
	m.SetRate(0)

	if m.Rate() != 1.0 {
		t.Errorf("Rate = %v, want 1.0 unchanged", m.Rate())
	}
}

func TestStop_ClearsState(t *testing.T) {
	m, _, store := newTestManager(t)
	if err := m.Load(context.Background(), testEpisode("ep-1")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	m.SeekTo(30 * time.Second)
	m.Toggle()

	m.Stop()

	snap := m.Snapshot()
	if snap.Episode != nil {
		t.Errorf("Episode = %+v, want nil", snap.Episode)
	}
	if snap.State != StateIdle {
		t.Errorf("State = %v, want Idle", snap.State)
	}
	if snap.Position != 0 || snap.Duration != 0 {
		t.Errorf("Position/Duration = %v/%v, want 0/0", snap.Position, snap.Duration)
	}
	if snap.Visible {
		t.Error("Visible = true after stop, want false")
	}

	// Position persisted on the way down
	rec, err := store.Get("ep-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec == nil || rec.Position != 30*time.Second {
		t.Errorf("persisted record = %+v, want position 30s", rec)
	}
}

func TestStop_PersistFailure_NonFatal(t *testing.T) {
	m, _, store := newTestManager(t)
	sub := m.Subscribe()
	if err := m.Load(context.Background(), testEpisode("ep-1")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	m.SeekTo(30 * time.Second)
	store.SetPutError(errors.New("disk full"))

	m.Stop() // must not panic or stay loaded

	if m.State() != StateIdle {
		t.Errorf("State = %v, want Idle despite persist failure", m.State())
	}

	found := false
	for {
		select {
		case e := <-sub.Error:
			if e.Operation == "persist" {
				found = true
			}
		default:
			goto checked
		}
	}
checked:
	if !found {
		t.Error("no ErrorEvent for persist failure")
	}
}

func TestSetVisible_DoesNotAffectPlayback(t *testing.T) {
	m, _, _ := newTestManager(t)
	if err := m.Load(context.Background(), testEpisode("ep-1")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	m.Toggle()

	m.SetVisible(false)

	if !m.IsPlaying() {
		t.Error("hiding the player must not pause playback")
	}
	if m.Visible() {
		t.Error("Visible = true, want false")
	}

	m.SetVisible(true)
	if !m.Visible() {
		t.Error("Visible = false, want true")
	}
}

func TestLoad_EmitsEvents(t *testing.T) {
	m, _, _ := newTestManager(t)
	sub := m.Subscribe()

	if err := m.Load(context.Background(), testEpisode("ep-1")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	select {
	case e := <-sub.EpisodeChanged:
		if e.Current == nil || e.Current.ID != "ep-1" {
			t.Errorf("EpisodeChanged = %+v, want ep-1", e)
		}
		if e.Previous != nil {
			t.Errorf("EpisodeChanged.Previous = %+v, want nil", e.Previous)
		}
	default:
		t.Error("no EpisodeChanged emitted")
	}

	select {
	case e := <-sub.StateChanged:
		if e.Previous != StateIdle || e.Current != StatePaused {
			t.Errorf("StateChanged = %+v, want Idle -> Paused", e)
		}
	default:
		t.Error("no StateChanged emitted")
	}
}

func TestClose_SignalsSubscribers(t *testing.T) {
	p := audio.NewMock()
	m := New(p, positions.NewMemory(), Options{})
	sub := m.Subscribe()

	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case <-sub.Done:
	default:
		t.Error("Done not closed after Close")
	}

	// Close is idempotent
	if err := m.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}

	// Operations after close fail cleanly
	if err := m.Load(context.Background(), testEpisode("ep-1")); !errors.Is(err, ErrClosed) {
		t.Errorf("Load after Close = %v, want ErrClosed", err)
	}
}

// forceDuration runs a session-level seek so m.duration picks up the
// player-reported duration without waiting for a poll tick.
func forceDuration(m *Manager, d time.Duration) {
	m.mu.Lock()
	m.duration = d
	m.mu.Unlock()
}

// gatedPlayer holds Load open until release is closed, so tests can
// observe the session while an acquisition is in flight.
type gatedPlayer struct {
	*audio.Mock
	release chan struct{}
}

func (p *gatedPlayer) Load(ctx context.Context, url string) error {
	<-p.release
	return p.Mock.Load(ctx, url)
}

func TestLoad_ReadsStayAvailableDuringAcquire(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p := &gatedPlayer{Mock: audio.NewMock(), release: make(chan struct{})}
		m := New(p, positions.NewMemory(), Options{})
		defer m.Close()

		done := make(chan error, 1)
		go func() { done <- m.Load(context.Background(), testEpisode("ep-1")) }()
		synctest.Wait() // loader is parked inside the acquire

		// Reads answer while the download runs; the session reports
		// idle until the load commits.
		snap := m.Snapshot()
		if snap.State != StateIdle {
			t.Errorf("State = %v during acquire, want Idle", snap.State)
		}
		if snap.Episode != nil {
			t.Errorf("Episode = %+v during acquire, want nil", snap.Episode)
		}
		if m.Position() != 0 {
			t.Errorf("Position = %v during acquire, want 0", m.Position())
		}

		close(p.release)
		if err := <-done; err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if m.State() != StatePaused {
			t.Errorf("State = %v after commit, want Paused", m.State())
		}
	})
}

func TestLoad_StopDuringAcquireCancels(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p := &gatedPlayer{Mock: audio.NewMock(), release: make(chan struct{})}
		m := New(p, positions.NewMemory(), Options{})
		defer m.Close()

		done := make(chan error, 1)
		go func() { done <- m.Load(context.Background(), testEpisode("ep-1")) }()
		synctest.Wait()

		m.Stop()
		close(p.release)

		if err := <-done; !errors.Is(err, ErrSuperseded) {
			t.Fatalf("Load = %v, want ErrSuperseded", err)
		}
		if m.State() != StateIdle {
			t.Errorf("State = %v, want Idle", m.State())
		}
		if p.State() != audio.Stopped {
			t.Errorf("player state = %v, want Stopped (stream released)", p.State())
		}
	})
}
