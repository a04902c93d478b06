// Package notify provides desktop notifications via D-Bus.
package notify

import (
	"fmt"

	"github.com/tlemoine/earshot/internal/episode"
)

// Urgency represents notification priority levels per freedesktop spec.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification contains data for a desktop notification.
type Notification struct {
	Title      string  // Summary text (required)
	Body       string  // Body text (optional, supports basic markup)
	Icon       string  // Path to image file or icon name (optional)
	Timeout    int32   // ms, -1 = server default, 0 = never expire
	ReplacesID uint32  // 0 = new notification, >0 = replace existing
	Urgency    Urgency // Low, Normal, Critical
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify sends a notification and returns its ID.
	// Returns 0 and nil error if notifications are disabled or unavailable.
	Notify(n Notification) (uint32, error)
	// Close closes a notification by ID.
	Close(id uint32) error
}

// Episodes wraps a Notifier with episode-aware notifications. Each new
// notification replaces the previous one so transport actions don't
// stack up in the notification tray.
type Episodes struct {
	notifier Notifier
	lastID   uint32
}

// NewEpisodes creates an episode notifier on top of n.
func NewEpisodes(n Notifier) *Episodes {
	return &Episodes{notifier: n}
}

// NowPlaying announces a newly loaded episode.
func (e *Episodes) NowPlaying(ep *episode.Episode) {
	if ep == nil {
		return
	}
	body := ep.Category
	if ep.Duration > 0 {
		if body != "" {
			body += " · "
		}
		m := int(ep.Duration.Minutes())
		body += fmt.Sprintf("%d min", m)
	}
	e.send(Notification{
		Title:   ep.Title,
		Body:    body,
		Timeout: 4000,
		Urgency: UrgencyLow,
	})
}

// Finished announces that an episode played to the end.
func (e *Episodes) Finished(ep *episode.Episode) {
	if ep == nil {
		return
	}
	e.send(Notification{
		Title:   "Finished: " + ep.Title,
		Timeout: 4000,
		Urgency: UrgencyLow,
	})
}

func (e *Episodes) send(n Notification) {
	if e.notifier == nil {
		return
	}
	n.ReplacesID = e.lastID
	if id, err := e.notifier.Notify(n); err == nil && id != 0 {
		e.lastID = id
	}
}
