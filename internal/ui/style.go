// Package ui provides the terminal dashboard for awake.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Colors defines the color scheme used throughout the application
type Colors struct {
	Subtle    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Special   lipgloss.AdaptiveColor
	Warning   lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor
}

var defaultColors = Colors{
	Subtle:    lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"},
	Highlight: lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"},
	Special:   lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"},
	Warning:   lipgloss.AdaptiveColor{Light: "#C08000", Dark: "#F5C542"},
	Error:     lipgloss.AdaptiveColor{Light: "#FF0000", Dark: "#FF4040"},
}

// Progress bar gradient, purple to green.
const (
	gradientStart = "#7D56F4"
	gradientEnd   = "#43BF6D"
	progressWidth = 24
)

// Style represents a collection of styles used in the application
type Style struct {
	Title      lipgloss.Style
	Active     lipgloss.Style
	Inactive   lipgloss.Style
	Warning    lipgloss.Style
	Selected   lipgloss.Style
	Unselected lipgloss.Style
	Label      lipgloss.Style
	Value      lipgloss.Style
	InputBox   lipgloss.Style
	Help       lipgloss.Style
	Error      lipgloss.Style
	Countdown  lipgloss.Style
	Panel      lipgloss.Style
}

// DefaultStyle returns the default style configuration
func DefaultStyle() Style {
	base := lipgloss.NewStyle().
		PaddingLeft(1).
		PaddingRight(1)
	plain := lipgloss.NewStyle()

	return Style{
		Title: base.
			Bold(true).
			Foreground(defaultColors.Highlight),

		Active: plain.
			Foreground(defaultColors.Special),

		Inactive: plain.
			Foreground(defaultColors.Subtle),

		Warning: plain.
			Foreground(defaultColors.Warning),

		Selected: base.
			Bold(true).
			Foreground(defaultColors.Highlight),

		Unselected: base,

		Label: plain.
			Foreground(defaultColors.Subtle).
			Width(14),

		Value: plain,

		InputBox: base.
			Border(lipgloss.RoundedBorder()).
			BorderForeground(defaultColors.Highlight).
			Padding(0, 1),

		Help: base.
			Foreground(defaultColors.Subtle),

		Error: base.
			Foreground(defaultColors.Error),

		Countdown: plain.
			Foreground(defaultColors.Highlight).
			Bold(true),

		Panel: base.
			Border(lipgloss.RoundedBorder()).
			BorderForeground(defaultColors.Subtle).
			Padding(0, 1),
	}
}

// Current holds the current style configuration
var Current = DefaultStyle()

// FormatError renders err for the terminal, one line per wrapped cause
// separated by ": ".
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	parts := strings.Split(err.Error(), ": ")
	var b strings.Builder
	b.WriteString(Current.Error.Render("Error: " + parts[0]))
	for _, p := range parts[1:] {
		b.WriteString("\n")
		b.WriteString(Current.Help.Render("  " + p))
	}
	return b.String()
}
