package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/osa030/tapedeck/internal/app/playback"
)

// Colors
var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorActive  = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorBorder  = lipgloss.Color("#4B5563")
	colorText    = lipgloss.Color("#F9FAFB")
	colorMuted   = lipgloss.Color("#9CA3AF")
	colorDim     = lipgloss.Color("#6B7280")
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText)

	artistStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	activeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorActive)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	barFilledStyle = lipgloss.NewStyle().Foreground(colorPrimary)
	barEmptyStyle  = lipgloss.NewStyle().Foreground(colorBorder)

	promptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)
)

// progressBar renders percent (0..100) as a bar exactly width cells wide.
func progressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	filled = max(0, min(filled, width))

	return barFilledStyle.Render(strings.Repeat("━", filled)) +
		barEmptyStyle.Render(strings.Repeat("─", width-filled))
}

// glyphIcon renders the play/pause control.
func glyphIcon(g playback.Glyph) string {
	if g == playback.GlyphPause {
		return activeStyle.Render("⏸")
	}
	return statusStyle.Render("▶")
}

// toggle renders a mode indicator, highlighted while active.
func toggle(label string, active bool) string {
	if active {
		return activeStyle.Render(label)
	}
	return dimStyle.Render(label)
}
