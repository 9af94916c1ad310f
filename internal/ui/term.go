package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/javiermolinar/rota/internal/render"
)

// Color definitions for consistent styling across the UI.
var (
	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Warnings: conflicts and hidden days
	colorWarning = color.New(color.FgRed, color.Bold)

	// Success: records written, proposals applied
	colorSuccess = color.New(color.FgGreen)

	// Muted: for secondary information
	colorMuted = color.New(color.FgWhite, color.Faint)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // sensible default
	}
	return width
}

// labelWidth sizes the resource column to a fifth of the terminal.
func labelWidth() int {
	return min(max(render.DefaultLabelWidth, termWidth()/5), 32)
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// formatHeader formats text as a header.
func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

// formatWarning formats text as a warning.
func formatWarning(s string) string {
	return colorWarning.Sprint(s)
}

// formatSuccess formats text as a success message.
func formatSuccess(s string) string {
	return colorSuccess.Sprint(s)
}

// formatMuted formats text as secondary/muted.
func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}
