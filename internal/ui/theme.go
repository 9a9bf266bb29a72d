// Package ui renders stage progress and runs the interactive stack wizard.
// Every component has a headless rendition used when stdin is not a
// terminal or colour is disabled.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Colors holds the palette as lipgloss colour strings.
type Colors struct {
	Primary string
	Success string
	Warning string
	Error   string
	Muted   string
}

// Theme controls colour output.
type Theme struct {
	NoColor bool
	Colors  Colors
}

// NewTheme returns the default palette. Colour is disabled when noColor
// is set or the NO_COLOR environment variable is present.
func NewTheme(noColor bool) *Theme {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		noColor = true
	}
	return &Theme{
		NoColor: noColor,
		Colors: Colors{
			Primary: "#7C3AED",
			Success: "#10B981",
			Warning: "#F59E0B",
			Error:   "#EF4444",
			Muted:   "#6B7280",
		},
	}
}

func (t *Theme) style(color string) lipgloss.Style {
	if t.NoColor {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// Success, Warning, Error, Muted and Title render text in the theme.
func (t *Theme) Success(s string) string { return t.style(t.Colors.Success).Render(s) }
func (t *Theme) Warning(s string) string { return t.style(t.Colors.Warning).Render(s) }
func (t *Theme) Error(s string) string   { return t.style(t.Colors.Error).Render(s) }
func (t *Theme) Muted(s string) string   { return t.style(t.Colors.Muted).Render(s) }
func (t *Theme) Title(s string) string   { return t.style(t.Colors.Primary).Bold(!t.NoColor).Render(s) }
