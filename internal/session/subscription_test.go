package session

import (
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/tlemoine/earshot/internal/episode"
)

func TestNewSubscription_ChannelsReadable(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sub := newSubscription()

		sub.sendState(StateChange{Previous: StateIdle, Current: StatePaused})
		sub.sendEpisode(EpisodeChange{Current: &episode.Episode{ID: "ep-1"}})
		sub.sendPosition(PositionChange{Position: 30 * time.Second, Duration: 2 * time.Minute})
		sub.sendRate(RateChange{Rate: 1.5})
		sub.sendVisibility(VisibilityChange{Visible: true})
		sub.sendError(ErrorEvent{Operation: "load", EpisodeID: "ep-1", Err: errors.New("boom")})

		e := <-sub.StateChanged
		if e.Current != StatePaused {
			t.Errorf("StateChanged.Current = %v, want Paused", e.Current)
		}

		ep := <-sub.EpisodeChanged
		if ep.Current == nil || ep.Current.ID != "ep-1" {
			t.Errorf("EpisodeChanged.Current = %+v, want ep-1", ep.Current)
		}

		pos := <-sub.PositionChanged
		if pos.Position != 30*time.Second {
			t.Errorf("PositionChanged.Position = %v, want 30s", pos.Position)
		}

		r := <-sub.RateChanged
		if r.Rate != 1.5 {
			t.Errorf("RateChanged.Rate = %v, want 1.5", r.Rate)
		}

		v := <-sub.VisibilityChanged
		if !v.Visible {
			t.Error("VisibilityChanged.Visible = false, want true")
		}

		ev := <-sub.Error
		if ev.Operation != "load" || ev.EpisodeID != "ep-1" {
			t.Errorf("Error = %+v, want load/ep-1", ev)
		}
	})
}

func TestSubscription_Close_SignalsDone(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		sub := newSubscription()
		sub.close()
		<-sub.Done
	})
}

func TestSubscription_NonBlocking_DropsWhenFull(t *testing.T) {
	sub := newSubscription()

	// Fill buffer
	for range eventBufferSize + 5 {
		sub.sendPosition(PositionChange{})
	}

	// Should not block or panic - count what we got
	count := 0
	for {
		select {
		case <-sub.PositionChanged:
			count++
		default:
			goto done
		}
	}
done:
	if count != eventBufferSize {
		t.Errorf("received %d events, want %d (buffer size)", count, eventBufferSize)
	}
}
