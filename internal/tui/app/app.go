package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tank-rc/tank/internal/tui/client"
	"github.com/tank-rc/tank/internal/tui/theme"
	"github.com/tank-rc/tank/internal/tui/views/status"
)

// Terminals report no key releases, so auto-repeat stands in for "held".
// The first repeat only arrives after the terminal's initial delay
// (375ms on macOS, 660ms on X11, up to 1s on Windows), so a fresh press
// gets a longer window than the gap between repeats.
const (
	DefaultInitialHold = 1100 * time.Millisecond
	repeatHold         = 300 * time.Millisecond
)

// holdExpiredMsg fires when the armed hold window passes with no repeat.
type holdExpiredMsg struct{ seq int }

// sendErrMsg reports a command that could not be written.
type sendErrMsg struct{ err error }

// Model is the root Bubble Tea model.
type Model struct {
	ws     *client.WSClient
	ctx    context.Context
	cancel context.CancelFunc

	keys   KeyMap
	help   help.Model
	width  int
	height int

	// Drive state.
	active      string // engaged direction, "" when braked
	holdSeq     int
	initialHold time.Duration
	armed       time.Duration
	lastSent    string

	statusBar status.Model
	connected bool
}

// New creates the root model. ws may be nil in tests.
func New(ws *client.WSClient) Model {
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		ws:          ws,
		ctx:         ctx,
		cancel:      cancel,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		initialHold: DefaultInitialHold,
		statusBar:   status.New(),
	}
}

// WithInitialHold sets how long a fresh press stays engaged while waiting
// for the terminal's first key repeat. Non-positive values are ignored.
func (m Model) WithInitialHold(d time.Duration) Model {
	if d > 0 {
		m.initialHold = d
	}
	return m
}

// Init starts the WebSocket connection.
func (m Model) Init() tea.Cmd {
	if m.ws == nil {
		return nil
	}
	return m.ws.Listen(m.ctx)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case holdExpiredMsg:
		if msg.seq != m.holdSeq || m.active == "" {
			return m, nil
		}
		return m.release()

	case sendErrMsg:
		m.statusBar.LastError = msg.err.Error()
		return m, nil

	case client.WSConnectedMsg:
		m.connected = true
		m.statusBar.Connected = true
		m.statusBar.LastError = ""
		return m, m.ws.ReadLoop(m.ctx)

	case client.WSDisconnectedMsg:
		m.connected = false
		m.statusBar.Connected = false
		m.active = ""
		m.statusBar.Active = ""
		return m, m.ws.Listen(m.ctx)

	case client.WSUsersCountMsg:
		m.statusBar.TotalUsers = msg.Payload.TotalUsers
		return m, m.ws.ReadLoop(m.ctx)

	case client.WSSignalMsg:
		m.statusBar.Signal = msg.Payload.Value
		m.statusBar.SignalAt = time.UnixMilli(msg.Payload.Date)
		return m, m.ws.ReadLoop(m.ctx)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		var cmd tea.Cmd
		if m.active != "" {
			cmd = m.send(client.CommandName(m.active, false))
		}
		m.cancel()
		return m, tea.Sequence(cmd, tea.Quit)

	case key.Matches(msg, m.keys.Forward):
		return m.engage("forward")
	case key.Matches(msg, m.keys.Reverse):
		return m.engage("reverse")
	case key.Matches(msg, m.keys.Left):
		return m.engage("left")
	case key.Matches(msg, m.keys.Right):
		return m.engage("right")

	case key.Matches(msg, m.keys.Brake):
		if m.active == "" {
			// Nothing engaged locally; another operator may still be
			// driving, so brake anyway.
			m.holdSeq++
			cmd := m.send(client.CommandName("forward", false))
			return m, cmd
		}
		return m.release()
	}

	return m, nil
}

// engage sends dir's on command unless dir is already engaged, and re-arms
// the hold timer either way: initialHold on a fresh press, repeatHold once
// repeats are arriving.
func (m Model) engage(dir string) (tea.Model, tea.Cmd) {
	if dir == m.active {
		hold := m.arm(repeatHold)
		return m, hold
	}
	m.active = dir
	m.statusBar.Active = dir
	cmd := m.send(client.CommandName(dir, true))
	hold := m.arm(m.initialHold)
	return m, tea.Batch(cmd, hold)
}

func (m *Model) arm(window time.Duration) tea.Cmd {
	m.holdSeq++
	m.armed = window
	seq := m.holdSeq
	return tea.Tick(window, func(time.Time) tea.Msg { return holdExpiredMsg{seq: seq} })
}

func (m Model) release() (tea.Model, tea.Cmd) {
	dir := m.active
	m.active = ""
	m.statusBar.Active = ""
	m.holdSeq++
	cmd := m.send(client.CommandName(dir, false))
	return m, cmd
}

func (m *Model) send(event string) tea.Cmd {
	m.lastSent = event
	ws := m.ws
	if ws == nil {
		return nil
	}
	return func() tea.Msg {
		if err := ws.Send(event); err != nil {
			return sendErrMsg{err: err}
		}
		return nil
	}
}

// View renders the full console.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	if !m.connected {
		overlay := theme.StyleBorder.
			Padding(1, 4).
			BorderForeground(theme.ColorDanger).
			Render(lipgloss.JoinVertical(lipgloss.Center,
				lipgloss.NewStyle().Bold(true).Foreground(theme.ColorDanger).Render("DISCONNECTED"),
				theme.StyleDimmed.Render("Reconnecting..."),
			))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, overlay)
	}

	sections := []string{
		m.statusBar.View(),
		m.renderPad(),
		m.help.View(m.keys),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderPad() string {
	cell := func(dir string) string {
		style := lipgloss.NewStyle().Width(5).Align(lipgloss.Center).Foreground(theme.ColorDimmed)
		if dir == m.active {
			style = style.Bold(true).Foreground(theme.DirectionColor(dir))
		}
		return style.Render(theme.DirectionGlyph(dir))
	}
	blank := lipgloss.NewStyle().Width(5).Render("")

	centre := cell("")
	if m.active != "" {
		centre = blank
	}

	pad := lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.JoinHorizontal(lipgloss.Top, blank, cell("forward"), blank),
		lipgloss.JoinHorizontal(lipgloss.Top, cell("left"), centre, cell("right")),
		lipgloss.JoinHorizontal(lipgloss.Top, blank, cell("reverse"), blank),
	)
	return theme.StyleBorder.Padding(1, 2).Render(pad)
}
