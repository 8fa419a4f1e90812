// Package theme provides the Lip Gloss color palette and reusable styles
// for the operator console. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Direction colors.
var (
	ColorForward = lipgloss.Color("#22c55e")
	ColorReverse = lipgloss.Color("#d97706")
	ColorTurn    = lipgloss.Color("#2563eb")
	ColorBrake   = lipgloss.Color("#dc2626")
	ColorDefault = lipgloss.Color("#9ca3af")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#111827")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// DirectionColor returns the color for a drive direction ("" means braked).
func DirectionColor(dir string) lipgloss.Color {
	switch dir {
	case "forward":
		return ColorForward
	case "reverse":
		return ColorReverse
	case "left", "right":
		return ColorTurn
	case "":
		return ColorBrake
	default:
		return ColorDefault
	}
}

// DirectionGlyph returns an arrow for a drive direction.
func DirectionGlyph(dir string) string {
	switch dir {
	case "forward":
		return "▲"
	case "reverse":
		return "▼"
	case "left":
		return "◀"
	case "right":
		return "▶"
	default:
		return "■"
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
		Foreground(ColorDimmed)
)
