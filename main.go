package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tlemoine/earshot/internal/api"
	"github.com/tlemoine/earshot/internal/audio"
	"github.com/tlemoine/earshot/internal/config"
	"github.com/tlemoine/earshot/internal/episode"
	"github.com/tlemoine/earshot/internal/mprisbridge"
	"github.com/tlemoine/earshot/internal/notify"
	"github.com/tlemoine/earshot/internal/positions"
	"github.com/tlemoine/earshot/internal/session"
	"github.com/tlemoine/earshot/internal/ui/library"
	"github.com/tlemoine/earshot/internal/ui/playerbar"
	"github.com/tlemoine/earshot/internal/ui/styles"
	"github.com/tlemoine/earshot/internal/ui/transcriptview"
)

// sessionEventMsg wraps one event from the session subscription.
type sessionEventMsg struct {
	event any
}

type sessionClosedMsg struct{}

type libraryLoadedMsg struct {
	episodes []*episode.Episode
	err      error
}

type loadResultMsg struct {
	episodeID string
	err       error
}

type model struct {
	sess       *session.Manager
	sub        *session.Subscription
	client     *api.Client
	mpris      *mprisbridge.Adapter
	notifier   *notify.Episodes
	library    *library.Model
	transcript *transcriptview.Model

	snapshot  session.Snapshot
	statusMsg string
	loading   bool

	transcriptFocused bool

	width  int
	height int
}

func initialModel() (model, error) {
	cfg, err := config.Load()
	if err != nil {
		return model{}, err
	}
	if !cfg.HasAPIConfig() {
		return model{}, fmt.Errorf("no API endpoint configured; set [api] url in config.toml")
	}

	store, err := positions.Open()
	if err != nil {
		return model{}, err
	}

	pc := cfg.GetPlayerConfig()
	sess := session.New(audio.New(), store, session.Options{
		SkipOffset:       pc.SkipOffset(),
		PollInterval:     pc.PollInterval(),
		AutosaveInterval: pc.AutosaveInterval(),
		RestoreThreshold: pc.RestoreThreshold(),
		InitialRate:      pc.Rate,
	})

	mpris, err := mprisbridge.New(sess)
	if err != nil {
		// Desktop integration is optional; keep going without it.
		mpris = nil
	}

	client := api.New(cfg.API.URL, cfg.API.Token)

	notifier, err := notify.New()
	if err != nil {
		notifier = nil
	}

	return model{
		sess:       sess,
		sub:        sess.Subscribe(),
		client:     client,
		mpris:      mpris,
		notifier:   notify.NewEpisodes(notifier),
		library:    library.New(),
		transcript: transcriptview.New(client),
		snapshot:   sess.Snapshot(),
	}, nil
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.watchSessionCmd(), m.fetchLibraryCmd())
}

// watchSessionCmd waits for the next session event and converts it to
// a message. Re-issued after every received event.
func (m model) watchSessionCmd() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		select {
		case e := <-sub.StateChanged:
			return sessionEventMsg{event: e}
		case e := <-sub.EpisodeChanged:
			return sessionEventMsg{event: e}
		case e := <-sub.PositionChanged:
			return sessionEventMsg{event: e}
		case e := <-sub.RateChanged:
			return sessionEventMsg{event: e}
		case e := <-sub.VisibilityChanged:
			return sessionEventMsg{event: e}
		case e := <-sub.Error:
			return sessionEventMsg{event: e}
		case <-sub.Done:
			return sessionClosedMsg{}
		}
	}
}

func (m model) fetchLibraryCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		episodes, err := client.Library(ctx)
		return libraryLoadedMsg{episodes: episodes, err: err}
	}
}

func (m model) loadCmd(ep *episode.Episode) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		return loadResultMsg{episodeID: ep.ID, err: sess.Load(ctx, ep)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case libraryLoadedMsg:
		if msg.err != nil {
			m.statusMsg = "library: " + msg.err.Error()
			return m, nil
		}
		m.statusMsg = ""
		m.library.SetEpisodes(msg.episodes)
		return m, nil

	case loadResultMsg:
		m.loading = false
		if msg.err != nil {
			m.statusMsg = "load: " + msg.err.Error()
		}
		return m, nil

	case sessionEventMsg:
		return m.handleSessionEvent(msg.event)

	case sessionClosedMsg:
		return m, tea.Quit

	case transcriptview.FetchedMsg:
		m.transcript.HandleFetched(msg)
		return m, nil
	}
	return m, nil
}

func (m *model) handleSessionEvent(event any) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.watchSessionCmd()}

	switch e := event.(type) {
	case session.EpisodeChange:
		m.snapshot = m.sess.Snapshot()
		m.layout()
		id := ""
		if e.Current != nil {
			id = e.Current.ID
		}
		m.library.SetNowPlaying(id)
		if e.Current != nil {
			m.notifier.NowPlaying(e.Current)
		}
		if cmd := m.transcript.SetEpisode(e.Current); cmd != nil {
			cmds = append(cmds, cmd)
		}
	case session.PositionChange:
		m.snapshot = m.sess.Snapshot()
		m.transcript.SetPosition(e.Position)
	case session.StateChange:
		m.snapshot = m.sess.Snapshot()
		m.layout()
		// Natural completion rewinds to the start while staying paused.
		if e.Previous == session.StatePlaying && e.Current == session.StatePaused &&
			m.snapshot.Position == 0 && m.snapshot.Duration > 0 {
			m.notifier.Finished(m.snapshot.Episode)
		}
	case session.ErrorEvent:
		m.statusMsg = e.Operation + ": " + e.Err.Error()
		m.snapshot = m.sess.Snapshot()
	default:
		m.snapshot = m.sess.Snapshot()
		m.layout()
	}
	return *m, tea.Batch(cmds...)
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The filter input swallows everything except its own exit keys.
	if m.library.Filtering() {
		cmd, _ := m.library.Update(msg)
		return *m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quit()
		return *m, tea.Quit
	case "tab":
		m.transcriptFocused = !m.transcriptFocused
		return *m, nil
	case "enter":
		if ep := m.library.Selected(); ep.Playable() && !m.loading {
			m.loading = true
			m.statusMsg = ""
			return *m, m.loadCmd(ep)
		}
		return *m, nil
	case " ":
		m.sess.Toggle()
	case "s":
		m.sess.Stop()
	case "left", "h":
		m.sess.SkipBackward()
	case "right", "l":
		m.sess.SkipForward()
	case "+", "=":
		m.sess.SetRate(m.sess.Rate() + 0.25)
	case "-":
		if r := m.sess.Rate() - 0.25; r >= 0.5 {
			m.sess.SetRate(r)
		}
	case "1":
		m.sess.SetRate(1.0)
	case "m":
		m.sess.SetVisible(!m.sess.Visible())
	case "r":
		return *m, m.fetchLibraryCmd()
	case "J":
		m.transcript.ScrollDown()
	case "K":
		m.transcript.ScrollUp()
	case "f":
		m.transcript.Follow()
	default:
		if m.transcriptFocused {
			switch msg.String() {
			case "j", "down":
				m.transcript.ScrollDown()
			case "k", "up":
				m.transcript.ScrollUp()
			}
			return *m, nil
		}
		cmd, _ := m.library.Update(msg)
		return *m, cmd
	}
	return *m, nil
}

func (m *model) quit() {
	if m.mpris != nil {
		_ = m.mpris.Close()
	}
	_ = m.sess.Close()
}

func (m *model) layout() {
	contentHeight := m.height - 1 // status line
	if m.barVisible() {
		contentHeight -= playerbar.Height
	}
	libWidth := m.width / 2
	m.library.SetSize(libWidth-styles.PanelOverhead, contentHeight-styles.PanelOverhead)
	m.transcript.SetSize(m.width-libWidth-styles.PanelOverhead, contentHeight-styles.PanelOverhead)
}

func (m model) barVisible() bool {
	return m.snapshot.State.IsLoaded() && m.snapshot.Visible
}

func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	contentHeight := m.height - 1
	if m.barVisible() {
		contentHeight -= playerbar.Height
	}

	libWidth := m.width / 2
	panelHeight := contentHeight - styles.PanelOverhead
	libPanel := styles.PanelStyle(!m.transcriptFocused).
		Width(libWidth - styles.PanelOverhead).
		Height(panelHeight).
		Render(m.library.View())
	transcriptPanel := styles.PanelStyle(m.transcriptFocused).
		Width(m.width - libWidth - styles.PanelOverhead).
		Height(panelHeight).
		Render(m.transcript.View())

	content := lipgloss.JoinHorizontal(lipgloss.Top, libPanel, transcriptPanel)
	if n := contentHeight - lipgloss.Height(content); n > 0 {
		content += strings.Repeat("\n", n)
	}

	var sb strings.Builder
	sb.WriteString(content)
	if m.barVisible() {
		sb.WriteString("\n")
		sb.WriteString(playerbar.Render(m.snapshot, m.width))
	}
	sb.WriteString("\n")
	sb.WriteString(m.statusLine())
	return sb.String()
}

func (m model) statusLine() string {
	t := styles.T()
	if m.statusMsg != "" {
		return t.S().Error.Render(m.statusMsg)
	}
	if m.loading {
		return t.S().Muted.Render("Loading episode…")
	}
	return t.S().Subtle.Render("enter play · space pause · ←/→ skip · +/- speed · / filter · q quit")
}

func main() {
	m, err := initialModel()
	if err != nil {
		fmt.Printf("Error initializing: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
