package output

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette — named constants for all ANSI 256 colors used in the CLI.
// These are the single source of truth; never use inline lipgloss.Color literals.
var (
	// ColorCyan is used for identifiable nouns: component names, module names, device addresses.
	ColorCyan = lipgloss.Color("14")

	// ColorGreen is used for passing tests and fresh file additions.
	ColorGreen = lipgloss.Color("82")

	// ColorYellow is used for skipped files and ignored tests.
	ColorYellow = lipgloss.Color("220")

	// ColorRed is used for failing tests and replaced files.
	ColorRed = lipgloss.Color("196")

	// ColorBoldRed is used for harness errors (matches ERROR level).
	ColorBoldRed = lipgloss.Color("204")

	// ColorGreenCheck is used for the completion checkmark (✔).
	ColorGreenCheck = lipgloss.Color("10")

	// ColorDimGray is used for borders and other structural chrome.
	ColorDimGray = lipgloss.Color("240")
)

// Semantic styles — map domain concepts to visual presentation.
var (
	// StyleNoun styles identifiable nouns (component names, module names, device addresses).
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleAction styles action verbs (linking, merging, installing, testing).
	StyleAction = lipgloss.NewStyle().Bold(true)

	// StyleDim styles structural chrome (scope prefixes, separators, timestamps).
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleSummary styles completion and summary lines.
	StyleSummary = lipgloss.NewStyle().Bold(true)
)

// Test outcome constants as rendered in summaries.
const (
	OutcomePass    = "pass"
	OutcomeFail    = "fail"
	OutcomeError   = "error"
	OutcomeIgnored = "ignored"
)

// OutcomeStyle returns the lipgloss style for a test outcome string.
// Unknown outcomes return an unstyled default.
func OutcomeStyle(outcome string) lipgloss.Style {
	switch outcome {
	case OutcomePass:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case OutcomeFail:
		return lipgloss.NewStyle().Foreground(ColorRed)
	case OutcomeError:
		return lipgloss.NewStyle().Foreground(ColorBoldRed)
	case OutcomeIgnored:
		return lipgloss.NewStyle().Foreground(ColorYellow)
	default:
		return lipgloss.NewStyle()
	}
}

// Checkmark returns a styled completion checkmark.
func Checkmark() string {
	return lipgloss.NewStyle().Foreground(ColorGreenCheck).Render("✔")
}
