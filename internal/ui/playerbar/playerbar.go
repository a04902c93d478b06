// Package playerbar renders the persistent mini-player bar shown at
// the bottom of every screen while an episode is loaded.
package playerbar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tlemoine/earshot/internal/session"
	"github.com/tlemoine/earshot/internal/ui/render"
	"github.com/tlemoine/earshot/internal/ui/styles"
)

const (
	playSymbol  = "▶"
	pauseSymbol = "⏸"

	// Minimum usable width for the progress bar segment.
	minBarWidth = 5

	filledBlock = "━"
	emptyBlock  = "─"
)

// Height is the vertical space the bar consumes (border + content).
const Height = 3

// Render returns the player bar string for the given width. Returns
// an empty string when no episode is loaded or the bar is hidden.
func Render(s session.Snapshot, width int) string {
	if !s.State.IsLoaded() || !s.Visible || s.Episode == nil {
		return ""
	}

	innerWidth := max(width-6, 0)

	status := pauseSymbol
	if s.State == session.StatePlaying {
		status = playSymbol
	}

	title := s.Episode.Title
	if title == "" {
		title = "Untitled Episode"
	}

	timeStr := fmt.Sprintf("%s / %s", formatDuration(s.Position), formatDuration(s.Duration))
	rateStr := formatRate(s.Rate)

	separator := "   "
	sepWidth := lipgloss.Width(separator)
	fixedWidth := lipgloss.Width(status+"  ") + lipgloss.Width(timeStr) + sepWidth*2

	rateSpace := 0
	if rateStr != "" {
		rateSpace = lipgloss.Width(rateStr) + sepWidth
	}

	categorySpace := 0
	category := s.Episode.Category
	if category != "" {
		categorySpace = lipgloss.Width(category) + sepWidth
	}

	availableForTitle := innerWidth - fixedWidth - minBarWidth - rateSpace - categorySpace
	if availableForTitle < 10 && category != "" {
		// Drop the category before mangling the title
		category = ""
		availableForTitle += categorySpace
		categorySpace = 0
	}

	titleWidth := lipgloss.Width(title)
	if titleWidth > availableForTitle {
		title = render.Truncate(title, max(availableForTitle, 10))
		titleWidth = lipgloss.Width(title)
	}

	barWidth := max(innerWidth-titleWidth-categorySpace-rateSpace-fixedWidth, minBarWidth)

	var ratio float64
	if s.Duration > 0 {
		ratio = float64(s.Position) / float64(s.Duration)
	}
	filled := min(int(float64(barWidth)*ratio), barWidth)

	th := styles.T()
	filledBar := lipgloss.NewStyle().Foreground(th.Primary).Render(strings.Repeat(filledBlock, filled))
	emptyBar := th.S().Subtle.Render(strings.Repeat(emptyBlock, barWidth-filled))

	var content strings.Builder
	content.WriteString(th.S().Title.Render(render.Sanitize(title)))
	if category != "" {
		content.WriteString(separator)
		content.WriteString(th.S().Muted.Render(category))
	}
	if rateStr != "" {
		content.WriteString(separator)
		content.WriteString(lipgloss.NewStyle().Foreground(th.Secondary).Render(rateStr))
	}
	content.WriteString(separator)
	content.WriteString(status)
	content.WriteString("  ")
	content.WriteString(filledBar)
	content.WriteString(emptyBar)
	content.WriteString(separator)
	content.WriteString(th.S().Muted.Render(timeStr))

	bar := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(th.Border)

	return bar.Padding(0, 2).Width(width - 2).Render(content.String())
}

// formatRate renders the playback rate badge. Normal speed shows no
// badge.
func formatRate(rate float64) string {
	if rate == 0 || rate == 1.0 {
		return ""
	}
	s := fmt.Sprintf("%.2f", rate)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s + "×"
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
