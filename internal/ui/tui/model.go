package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	"github.com/mattn/go-runewidth"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/groove/internal/app/keymap"
	"github.com/osa030/groove/internal/app/playback"
	"github.com/osa030/groove/internal/domain/playlist"
	"github.com/osa030/groove/internal/domain/track"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	artistStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	activeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	searchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	progressWidth = 30
	chromeLines   = 9 // Lines used by everything except the list
)

// Player is the control surface the terminal drives.
type Player interface {
	keymap.Target
	Previous()
	Next()
	LoadTrack(i int) error
	ToggleShuffle() bool
	CycleRepeatMode() playback.RepeatMode
	ToggleMute()
	FilterList(query string) []playlist.Entry
}

type refreshMsg struct{}

// Model is the bubbletea model of the player.
type Model struct {
	name    string
	player  Player
	keys    *keymap.Dispatcher
	surface *Surface

	view      View
	cursor    int // Position in view.Entries
	offset    int // First visible list row
	searching bool
	query     string
	width     int
	height    int
}

// New creates the terminal model.
func New(name string, player Player, surface *Surface, keys keymap.Config) Model {
	return Model{
		name:    name,
		player:  player,
		keys:    keymap.NewDispatcher(player, keys),
		surface: surface,
		view:    surface.View(),
		width:   defaultWidth,
		height:  defaultHeight,
	}
}

func (m Model) Init() tea.Cmd {
	return waitRefresh(m.surface)
}

// waitRefresh blocks until the surface changes.
func waitRefresh(s *Surface) tea.Cmd {
	return func() tea.Msg {
		<-s.refresh
		return refreshMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		m = m.syncView()
		return m, waitRefresh(m.surface)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m.clampCursor(), nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg), nil
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) Model {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		if m.query != "" {
			m.query = ""
			m.player.FilterList("")
		}
	case tea.KeyEnter:
		m.searching = false
	case tea.KeyBackspace:
		if r := []rune(m.query); len(r) > 0 {
			m.query = string(r[:len(r)-1])
			m.player.FilterList(m.query)
		}
	case tea.KeyCtrlU:
		m.query = ""
		m.player.FilterList("")
	case tea.KeySpace:
		m.query += " "
		m.player.FilterList(m.query)
	case tea.KeyRunes:
		m.query += string(msg.Runes)
		m.player.FilterList(m.query)
	}
	// Playback shortcuts are not dispatched while typing.
	return m.syncView()
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.keys.DispatchName(keyName(msg), false) {
		return m.syncView(), nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/":
		m.searching = true
	case "esc":
		if m.query != "" {
			m.query = ""
			m.player.FilterList("")
		}
	case "j":
		if m.cursor < len(m.view.Entries)-1 {
			m.cursor++
		}
	case "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		if m.cursor < len(m.view.Entries) {
			if err := m.player.LoadTrack(m.view.Entries[m.cursor].Index); err != nil {
				zlog.Warn().Err(err).Msg("tui: failed to load track")
			}
		}
	case "n":
		m.player.Next()
	case "p":
		m.player.Previous()
	case "s":
		m.player.ToggleShuffle()
	case "r":
		m.player.CycleRepeatMode()
	case "m":
		m.player.ToggleMute()
	}
	return m.syncView().clampCursor(), nil
}

// keyName maps a key press onto the names keymap understands.
func keyName(msg tea.KeyMsg) string {
	if msg.Type == tea.KeySpace {
		return "space"
	}
	return msg.String()
}

func (m Model) syncView() Model {
	m.view = m.surface.View()
	return m.clampCursor()
}

func (m Model) clampCursor() Model {
	if m.cursor >= len(m.view.Entries) {
		m.cursor = len(m.view.Entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	rows := m.listRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	return m
}

func (m Model) listRows() int {
	return max(m.height-chromeLines, 1)
}

func (m Model) View() string {
	v := m.view
	var b strings.Builder

	b.WriteString(headerStyle.Render(m.name))
	b.WriteString("\n\n")

	state := "||"
	if v.Playing {
		state = "> "
	}
	b.WriteString(fmt.Sprintf("%s %s\n", state, titleStyle.Render(truncate(v.Track.Title, m.width-3))))
	b.WriteString("   " + artistStyle.Render(truncate(v.Track.Artist, m.width-3)) + "\n")

	b.WriteString(fmt.Sprintf("   %s %s %s\n",
		track.FormatTime(v.Position),
		progressBar(v.Position.Seconds(), v.Duration.Seconds(), progressWidth),
		track.FormatTime(v.Duration)))

	b.WriteString("   " + dimStyle.Render(modesLine(v)) + "\n")

	if m.searching || m.query != "" {
		cursor := ""
		if m.searching {
			cursor = "_"
		}
		b.WriteString(searchStyle.Render("/"+m.query+cursor) + "\n")
	} else {
		b.WriteString("\n")
	}

	rows := m.listRows()
	end := min(m.offset+rows, len(v.Entries))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderEntry(i) + "\n")
	}
	if len(v.Entries) == 0 {
		b.WriteString(dimStyle.Render("  no matching tracks") + "\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space play/pause  ←/→ seek  ↑/↓ volume  n/p next/prev  j/k move  enter load  / search  s shuffle  r repeat  m mute  q quit"))
	return b.String()
}

func (m Model) renderEntry(i int) string {
	e := m.view.Entries[i]
	dur := track.FormatTime(e.Track.Duration)
	if e.Track.Duration == 0 {
		dur = "--:--"
	}

	marker := "  "
	if e.Index == m.view.Active {
		marker = "> "
	}

	// "> " + label + " " + duration
	labelWidth := max(m.width-runewidth.StringWidth(dur)-3, 1)
	label := runewidth.FillRight(truncate(e.Track.Title+" - "+e.Track.Artist, labelWidth), labelWidth)
	line := marker + label + " " + dur

	switch {
	case i == m.cursor:
		return selectedStyle.Render(line)
	case e.Index == m.view.Active:
		return activeStyle.Render(line)
	default:
		return line
	}
}

func modesLine(v View) string {
	shuffle := "off"
	if v.Shuffle {
		shuffle = "on"
	}
	volume := fmt.Sprintf("%d%%", int(v.Volume*100+0.5))
	if v.Muted {
		volume = "muted"
	}
	return fmt.Sprintf("shuffle %s  repeat %s  volume %s", shuffle, v.Repeat, volume)
}

func progressBar(position, duration float64, width int) string {
	filled := 0
	if duration > 0 {
		filled = int(position / duration * float64(width))
	}
	filled = min(max(filled, 0), width)
	return "[" + strings.Repeat("=", filled) + strings.Repeat("-", width-filled) + "]"
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// Run starts the terminal program and blocks until the user quits.
func Run(ctx context.Context, m Model) error {
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		if cause := context.Cause(ctx); cause != nil {
			return cause
		}
		return errors.Wrap(err, "terminal program failed")
	}
	return nil
}
