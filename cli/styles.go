package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Terminal styles. Lipgloss degrades colors to what the terminal supports.
var (
	StyleCyan   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	StyleRed    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	StyleYellow = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	StyleGreen  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	StyleGray   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// render applies style when colors are enabled.
func render(style lipgloss.Style, text string, useColors bool) string {
	if !useColors {
		return text
	}
	return style.Render(text)
}

// useColors reports whether output should be styled: --color or color: true wins,
// then FORCE_COLOR, then whether stdout is a terminal.
func useColors() bool {
	if getBoolWithFallback("color", "color", false) {
		return true
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if fi, err := os.Stdout.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		return true
	}
	return false
}
