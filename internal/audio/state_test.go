package audio

import (
	"testing"
	"time"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Stopped, "Stopped"},
		{Playing, "Playing"},
		{Paused, "Paused"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestState_IsLoaded(t *testing.T) {
	if Stopped.IsLoaded() {
		t.Error("Stopped.IsLoaded() = true, want false")
	}
	if !Playing.IsLoaded() {
		t.Error("Playing.IsLoaded() = false, want true")
	}
	if !Paused.IsLoaded() {
		t.Error("Paused.IsLoaded() = false, want true")
	}
}

func TestMock_StateMachine(t *testing.T) {
	m := NewMock()

	if m.State() != Stopped {
		t.Fatalf("initial state = %v, want Stopped", m.State())
	}

	// Toggle with nothing loaded is a no-op
	m.Toggle()
	if m.State() != Stopped {
		t.Errorf("Toggle when stopped = %v, want Stopped", m.State())
	}

	// Load leaves the stream paused
	if err := m.Load(t.Context(), "https://cdn.example.com/ep.mp3"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.State() != Paused {
		t.Errorf("state after Load = %v, want Paused", m.State())
	}

	m.Toggle()
	if m.State() != Playing {
		t.Errorf("state after Toggle = %v, want Playing", m.State())
	}

	m.Toggle()
	if m.State() != Paused {
		t.Errorf("state after second Toggle = %v, want Paused", m.State())
	}

	m.Stop()
	if m.State() != Stopped {
		t.Errorf("state after Stop = %v, want Stopped", m.State())
	}
}

func TestMock_SeekClamps(t *testing.T) {
	m := NewMock()
	_ = m.Load(t.Context(), "https://cdn.example.com/ep.mp3")
	m.SetDuration(10 * time.Second)

	m.SeekTo(-5 * time.Second)
	if m.Position() != 0 {
		t.Errorf("Position after negative seek = %v, want 0", m.Position())
	}

	m.SeekTo(25 * time.Second)
	if m.Position() != 10*time.Second {
		t.Errorf("Position after overshoot seek = %v, want duration", m.Position())
	}
}
