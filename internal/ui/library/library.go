// Package library renders the episode library list with filtering.
package library

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tlemoine/earshot/internal/episode"
	"github.com/tlemoine/earshot/internal/ui/render"
	"github.com/tlemoine/earshot/internal/ui/styles"
)

// scrollMargin is the number of rows kept visible above/below the cursor.
const scrollMargin = 3

// Model is the scrollable, filterable episode list.
type Model struct {
	episodes []*episode.Episode
	filtered []*episode.Episode

	cursor       int
	scrollOffset int

	filter    textinput.Model
	filtering bool

	// ID of the episode currently loaded in the session, for the
	// playing marker.
	nowPlayingID string

	width  int
	height int
}

// New creates an empty library list.
func New() *Model {
	ti := textinput.New()
	ti.Placeholder = "filter episodes"
	ti.CharLimit = 64
	return &Model{filter: ti}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.clampScroll()
}

// SetEpisodes replaces the episode list, preserving the cursor where
// possible.
func (m *Model) SetEpisodes(episodes []*episode.Episode) {
	m.episodes = episodes
	m.applyFilter()
}

// SetNowPlaying marks the loaded episode. Empty string clears the marker.
func (m *Model) SetNowPlaying(id string) {
	m.nowPlayingID = id
}

// Selected returns the episode under the cursor, or nil when the list
// is empty.
func (m *Model) Selected() *episode.Episode {
	if len(m.filtered) == 0 || m.cursor >= len(m.filtered) {
		return nil
	}
	return m.filtered[m.cursor]
}

// Filtering reports whether the filter input is capturing keys.
func (m *Model) Filtering() bool {
	return m.filtering
}

// Update handles key input. Returns true when the key was consumed.
func (m *Model) Update(msg tea.KeyMsg) (tea.Cmd, bool) {
	if m.filtering {
		switch msg.String() {
		case "esc":
			m.filtering = false
			m.filter.SetValue("")
			m.filter.Blur()
			m.applyFilter()
			return nil, true
		case "enter":
			m.filtering = false
			m.filter.Blur()
			return nil, true
		default:
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.applyFilter()
			return cmd, true
		}
	}

	switch msg.String() {
	case "j", "down":
		m.moveCursor(1)
		return nil, true
	case "k", "up":
		m.moveCursor(-1)
		return nil, true
	case "g", "home":
		m.cursor = 0
		m.clampScroll()
		return nil, true
	case "G", "end":
		m.cursor = max(len(m.filtered)-1, 0)
		m.clampScroll()
		return nil, true
	case "ctrl+d", "pgdown":
		m.moveCursor(m.listHeight() / 2)
		return nil, true
	case "ctrl+u", "pgup":
		m.moveCursor(-m.listHeight() / 2)
		return nil, true
	case "/":
		m.filtering = true
		return m.filter.Focus(), true
	}
	return nil, false
}

func (m *Model) moveCursor(delta int) {
	m.cursor = max(0, min(m.cursor+delta, len(m.filtered)-1))
	m.clampScroll()
}

func (m *Model) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	if query == "" {
		m.filtered = m.episodes
	} else {
		m.filtered = nil
		for _, ep := range m.episodes {
			if strings.Contains(strings.ToLower(ep.Title), query) ||
				strings.Contains(strings.ToLower(ep.Category), query) {
				m.filtered = append(m.filtered, ep)
			}
		}
	}
	m.cursor = max(0, min(m.cursor, len(m.filtered)-1))
	m.clampScroll()
}

func (m *Model) listHeight() int {
	// Title row + separator + optional filter row
	overhead := 2
	if m.filtering || m.filter.Value() != "" {
		overhead++
	}
	return max(m.height-overhead, 1)
}

func (m *Model) clampScroll() {
	h := m.listHeight()
	if m.cursor < m.scrollOffset+scrollMargin {
		m.scrollOffset = m.cursor - scrollMargin
	}
	if m.cursor >= m.scrollOffset+h-scrollMargin {
		m.scrollOffset = m.cursor - h + scrollMargin + 1
	}
	m.scrollOffset = max(0, min(m.scrollOffset, max(len(m.filtered)-h, 0)))
}

// View renders the list.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	t := styles.T()

	var sb strings.Builder
	header := fmt.Sprintf("Library (%d)", len(m.filtered))
	sb.WriteString(t.S().Title.Render(header))
	sb.WriteString("\n")

	if m.filtering || m.filter.Value() != "" {
		sb.WriteString(t.S().Muted.Render("/ " + m.filter.View()))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if len(m.filtered) == 0 {
		sb.WriteString(t.S().Subtle.Render("No episodes"))
		return sb.String()
	}

	start := m.scrollOffset
	end := min(start+m.listHeight(), len(m.filtered))
	for i := start; i < end; i++ {
		sb.WriteString(m.renderRow(i))
		if i < end-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (m *Model) renderRow(i int) string {
	t := styles.T()
	ep := m.filtered[i]

	marker := "  "
	if ep.ID == m.nowPlayingID {
		marker = t.S().Playing.Render("♪ ")
	}

	status := ""
	switch ep.Status {
	case episode.StatusPending:
		status = t.S().Warning.Render(" [generating]")
	case episode.StatusFailed:
		status = t.S().Error.Render(" [failed]")
	}

	dur := ""
	if ep.Duration > 0 {
		dur = formatDuration(ep.Duration)
	}
	durWidth := lipgloss.Width(dur)

	category := ""
	if ep.Category != "" {
		category = " · " + ep.Category
	}

	avail := m.width - 2 - durWidth - 3 - lipgloss.Width(status) - lipgloss.Width(category)
	title := render.Truncate(ep.Title, max(avail, 10))

	line := marker + title + t.S().Subtle.Render(category) + status
	gap := m.width - lipgloss.Width(line) - durWidth - 1
	if gap > 0 {
		line += strings.Repeat(" ", gap)
	}
	line += t.S().Muted.Render(dur)

	if i == m.cursor {
		return t.S().Cursor.Render(line)
	}
	return line
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	mm := int(d.Minutes()) % 60
	ss := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mm, ss)
	}
	return fmt.Sprintf("%d:%02d", mm, ss)
}
