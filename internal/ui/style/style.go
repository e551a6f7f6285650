// Package style holds the colors and symbols shared by the notionstatus renderers.
package style

import (
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/charmbracelet/lipgloss"
)

// Status colors, matching the extension icon.
var (
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Orange = lipgloss.Color("#EA7A17")
	Gray   = lipgloss.Color("#98A2B3")
)

// Text colors.
var (
	White = lipgloss.Color("#FFFFFF")
	Slate = lipgloss.Color("#667085")
)

// Symbols prefixing notices and log lines.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Circle  = "○"
)

// ForState returns the badge color of state. Unknown states are gray.
func ForState(state domain.State) lipgloss.Color {
	switch state {
	case domain.StateGreen:
		return Green
	case domain.StateRed:
		return Red
	case domain.StateOrange:
		return Orange
	default:
		return Gray
	}
}

// Badge returns a bold label style with the given background, rendered by r.
func Badge(r *lipgloss.Renderer, background lipgloss.Color) lipgloss.Style {
	return r.NewStyle().
		Bold(true).
		Padding(0, 1).
		Background(background).
		Foreground(White)
}

// Muted returns the style for secondary detail lines, rendered by r.
func Muted(r *lipgloss.Renderer) lipgloss.Style {
	return r.NewStyle().Foreground(Slate)
}
