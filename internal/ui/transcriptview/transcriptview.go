// Package transcriptview renders a synchronized transcript panel that
// follows playback position.
package transcriptview

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tlemoine/earshot/internal/api"
	"github.com/tlemoine/earshot/internal/episode"
	"github.com/tlemoine/earshot/internal/transcript"
	"github.com/tlemoine/earshot/internal/ui/render"
	"github.com/tlemoine/earshot/internal/ui/styles"
)

// State represents the current state of the transcript panel.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateLoaded
	StateNotFound
	StateError
)

// FetchedMsg carries a transcript fetch result back to the model.
type FetchedMsg struct {
	EpisodeID  string
	Transcript *transcript.Transcript
	Err        error
}

// Model holds the state for the transcript panel.
type Model struct {
	client *api.Client

	state      State
	errorMsg   string
	transcript *transcript.Transcript

	episodeID    string
	episodeTitle string
	position     time.Duration

	currentLine  int
	scrollOffset int
	autoScroll   bool

	width  int
	height int
}

// New creates a new transcript panel model.
func New(client *api.Client) *Model {
	return &Model{
		client:      client,
		currentLine: -1,
		autoScroll:  true,
	}
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.autoScroll {
		m.centerCurrentLine()
	}
}

// SetEpisode switches the panel to a new episode and triggers a
// transcript fetch. Passing nil clears the panel.
func (m *Model) SetEpisode(ep *episode.Episode) tea.Cmd {
	m.transcript = nil
	m.currentLine = -1
	m.scrollOffset = 0
	m.autoScroll = true
	m.errorMsg = ""

	if ep == nil {
		m.episodeID = ""
		m.episodeTitle = ""
		m.state = StateEmpty
		return nil
	}

	m.episodeID = ep.ID
	m.episodeTitle = ep.Title

	// Inlined transcript text skips the fetch round-trip.
	if ep.Transcript != "" {
		tr, err := transcript.ParseString(ep.Transcript)
		if err == nil {
			m.transcript = tr
			m.state = StateLoaded
			return nil
		}
	}

	if ep.TranscriptURL == "" {
		m.state = StateNotFound
		return nil
	}

	m.state = StateLoading
	return m.fetchCmd(ep)
}

func (m *Model) fetchCmd(ep *episode.Episode) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		text, err := client.Transcript(ctx, ep)
		if err != nil {
			return FetchedMsg{EpisodeID: ep.ID, Err: err}
		}
		tr, err := transcript.ParseString(text)
		if err != nil {
			return FetchedMsg{EpisodeID: ep.ID, Err: err}
		}
		return FetchedMsg{EpisodeID: ep.ID, Transcript: tr}
	}
}

// SetPosition updates the playback position the panel follows.
func (m *Model) SetPosition(pos time.Duration) {
	m.position = pos
	if m.transcript == nil {
		return
	}
	newLine := m.transcript.LineAt(pos)
	if newLine != m.currentLine {
		m.currentLine = newLine
		if m.autoScroll {
			m.centerCurrentLine()
		}
	}
}

// HandleFetched applies a fetch result. Stale results from a previous
// episode are ignored.
func (m *Model) HandleFetched(msg FetchedMsg) {
	if msg.EpisodeID != m.episodeID {
		return
	}
	if msg.Err != nil {
		if errors.Is(msg.Err, api.ErrNotFound) {
			m.state = StateNotFound
			return
		}
		m.state = StateError
		m.errorMsg = msg.Err.Error()
		return
	}
	m.transcript = msg.Transcript
	m.state = StateLoaded
	m.currentLine = m.transcript.LineAt(m.position)
	m.centerCurrentLine()
}

// ScrollDown moves the view one line down and disables auto-scroll.
func (m *Model) ScrollDown() {
	m.autoScroll = false
	if m.scrollOffset < m.maxScroll() {
		m.scrollOffset++
	}
}

// ScrollUp moves the view one line up and disables auto-scroll.
func (m *Model) ScrollUp() {
	m.autoScroll = false
	if m.scrollOffset > 0 {
		m.scrollOffset--
	}
}

// Follow re-enables auto-scroll and recenters on the active line.
func (m *Model) Follow() {
	m.autoScroll = true
	m.centerCurrentLine()
}

func (m *Model) centerCurrentLine() {
	if m.currentLine < 0 || m.transcript == nil {
		return
	}
	m.scrollOffset = m.currentLine - m.visibleHeight()/2
	m.scrollOffset = max(0, min(m.scrollOffset, m.maxScroll()))
}

func (m *Model) visibleHeight() int {
	// Title row + blank row above the text
	return max(m.height-2, 1)
}

func (m *Model) maxScroll() int {
	if m.transcript == nil {
		return 0
	}
	return max(len(m.transcript.Lines)-m.visibleHeight(), 0)
}

// View renders the panel.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	t := styles.T()

	var content string
	switch m.state {
	case StateEmpty:
		content = t.S().Subtle.Render("Nothing playing")
	case StateLoading:
		content = t.S().Subtle.Render("Loading transcript…")
	case StateNotFound:
		content = t.S().Subtle.Render("No transcript for this episode")
	case StateError:
		content = t.S().Error.Render("Transcript error") + "\n\n" + t.S().Subtle.Render(m.errorMsg)
	case StateLoaded:
		content = m.renderLines()
	}

	var sb strings.Builder
	sb.WriteString(t.S().Title.Render(render.Truncate(m.title(), m.width)))
	sb.WriteString("\n\n")
	sb.WriteString(content)
	return sb.String()
}

func (m *Model) title() string {
	if m.episodeTitle == "" {
		return "Transcript"
	}
	return "Transcript · " + m.episodeTitle
}

func (m *Model) renderLines() string {
	if m.transcript == nil || len(m.transcript.Lines) == 0 {
		return styles.T().S().Subtle.Render("No transcript for this episode")
	}

	t := styles.T()
	currentStyle := lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	speakerStyle := lipgloss.NewStyle().Foreground(t.Secondary)
	normalStyle := t.S().Muted

	start := m.scrollOffset
	end := min(start+m.visibleHeight(), len(m.transcript.Lines))

	var sb strings.Builder
	for i := start; i < end; i++ {
		line := m.transcript.Lines[i]
		text := render.Truncate(line.Text, max(m.width-4, 10))

		prefix := "  "
		style := normalStyle
		if i == m.currentLine {
			prefix = "▶ "
			style = currentStyle
		}

		sb.WriteString(prefix)
		if line.Speaker != "" {
			sb.WriteString(speakerStyle.Render(line.Speaker + ": "))
		}
		sb.WriteString(style.Render(text))
		if i < end-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
