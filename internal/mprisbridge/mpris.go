//go:build linux

// Package mprisbridge exposes the playback session on the desktop
// media-control bus (MPRIS over D-Bus).
package mprisbridge

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/tlemoine/earshot/internal/session"
)

const (
	minRate = 0.5
	maxRate = 3.0
)

// Adapter connects a session.Manager to MPRIS over D-Bus.
type Adapter struct {
	manager *session.Manager
	server  *server.Server
	done    chan struct{}
}

// New creates and starts a new MPRIS adapter.
func New(manager *session.Manager) (*Adapter, error) {
	a := &Adapter{
		manager: manager,
		done:    make(chan struct{}),
	}

	rootAdapter := &rootAdapter{}
	playerAdapter := &playerAdapter{manager: manager}

	a.server = server.NewServer("earshot", rootAdapter, playerAdapter)

	go func() {
		_ = a.server.Listen()
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	close(a.done)
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - app manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Earshot", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"https", "http"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/mp3"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter.
type playerAdapter struct {
	manager *session.Manager
}

func (p *playerAdapter) Next() error {
	return nil // No queue
}

func (p *playerAdapter) Previous() error {
	return nil // No queue
}

func (p *playerAdapter) Pause() error {
	if p.manager.IsPlaying() {
		p.manager.Toggle()
	}
	return nil
}

func (p *playerAdapter) PlayPause() error {
	p.manager.Toggle()
	return nil
}

func (p *playerAdapter) Stop() error {
	p.manager.Stop()
	return nil
}

func (p *playerAdapter) Play() error {
	if !p.manager.IsPlaying() {
		p.manager.Toggle()
	}
	return nil
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	p.manager.SeekTo(p.manager.Position() + time.Duration(offset)*time.Microsecond)
	return nil
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	p.manager.SeekTo(time.Duration(position) * time.Microsecond)
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.manager.State() {
	case session.StatePlaying:
		return types.PlaybackStatusPlaying, nil
	case session.StatePaused:
		return types.PlaybackStatusPaused, nil
	case session.StateIdle:
		return types.PlaybackStatusStopped, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return p.manager.Rate(), nil
}

func (p *playerAdapter) SetRate(rate float64) error {
	if rate >= minRate && rate <= maxRate {
		p.manager.SetRate(rate)
	}
	return nil
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	ep := p.manager.Current()
	if ep == nil {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(ep.ID)),
		Length:  types.Microseconds(p.manager.Duration().Microseconds()),
		Title:   ep.Title,
	}
	if ep.Category != "" {
		// Desktop widgets show the artist slot; the category is the
		// closest thing an episode has.
		meta.Artist = []string{ep.Category}
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return 1.0, nil // Volume control not exposed
}

func (p *playerAdapter) SetVolume(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Position() (int64, error) {
	return p.manager.Position().Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return minRate, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return maxRate, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.manager.State().IsLoaded(), nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

func formatTrackID(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
