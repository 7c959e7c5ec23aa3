package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the color scheme for CLI output.
type Theme struct {
	Reply   lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
	Warn    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Reply:   lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
	Warn:    lipgloss.Color("#FFAF00"), // amber
}

func (t Theme) replyStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Reply)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) warnStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Warn)
}
