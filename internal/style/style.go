// Package style provides consistent terminal styling for the car park console.
package style

import "github.com/charmbracelet/lipgloss"

var (
	// Success style for completed operations
	Success = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10")). // Green
		Bold(true)

	// Warning style for refused operations
	Warning = lipgloss.NewStyle().
		Foreground(lipgloss.Color("11")). // Yellow
		Bold(true)

	// Error style for failures
	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")). // Red
		Bold(true)

	// Heading style for section banners
	Heading = lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")). // Blue
		Bold(true)

	// Bold style for table headers
	Bold = lipgloss.NewStyle().
		Bold(true)

	SuccessPrefix = Success.Render("✓")
	WarningPrefix = Warning.Render("⚠")
	ErrorPrefix   = Error.Render("✗")
)
