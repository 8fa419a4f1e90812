package status

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tank-rc/tank/internal/tui/theme"
)

// Model holds the status bar state.
type Model struct {
	Connected  bool
	TotalUsers int
	Active     string
	Signal     string
	SignalAt   time.Time
	LastError  string
	Width      int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	if m.Connected {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	} else {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Connecting...")
	}

	users := fmt.Sprintf("%d operator", m.TotalUsers)
	if m.TotalUsers != 1 {
		users += "s"
	}

	drive := "braked"
	if m.Active != "" {
		drive = m.Active
	}
	driveStr := lipgloss.NewStyle().Foreground(theme.DirectionColor(m.Active)).Render(drive)

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr + sep + users + sep + driveStr
	if m.Signal != "" {
		content += sep + theme.StyleDimmed.Render(fmt.Sprintf("%s %s", m.SignalAt.Format("15:04:05"), m.Signal))
	}
	if m.LastError != "" {
		content += sep + lipgloss.NewStyle().Foreground(theme.ColorWarning).Render(m.LastError)
	}

	bar := lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)

	return bar
}
