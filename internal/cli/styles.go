// Package cli provides styled terminal output for the shiwake commands.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette. Vermilion is the seal-ink color used for titles and prompts.
var (
	Vermilion = lipgloss.Color("#E4572E")
	Indigo    = lipgloss.Color("#3D5A80")
	Matcha    = lipgloss.Color("#8AB17D")
	Kohaku    = lipgloss.Color("#E9C46A")
	Beni      = lipgloss.Color("#D62828")
	Nezumi    = lipgloss.Color("#6C757D")
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(Vermilion).MarginBottom(1)
	PromptStyle  = lipgloss.NewStyle().Bold(true).Foreground(Vermilion)
	SuccessStyle = lipgloss.NewStyle().Foreground(Matcha)
	WarningStyle = lipgloss.NewStyle().Foreground(Kohaku)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Beni)
	InfoStyle    = lipgloss.NewStyle().Foreground(Indigo)
	SubtleStyle  = lipgloss.NewStyle().Foreground(Nezumi)

	// Debit and credit sides of an entry are told apart by color.
	DebitStyle  = lipgloss.NewStyle().Foreground(Indigo)
	CreditStyle = lipgloss.NewStyle().Foreground(Vermilion)
	AmountStyle = lipgloss.NewStyle().Bold(true)

	TableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(Indigo).Underline(true)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Nezumi).
			Padding(0, 2)
)

const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	LedgerIcon  = "📒"
	LearnIcon   = "🧠"
	ExportIcon  = "📤"
)

func FormatSuccess(message string) string { return SuccessStyle.Render(SuccessIcon + " " + message) }
func FormatError(message string) string { return ErrorStyle.Render(ErrorIcon + " " + message) }
func FormatWarning(message string) string { return WarningStyle.Render(WarningIcon + " " + message) }
func FormatInfo(message string) string { return InfoStyle.Render(InfoIcon + " " + message) }

// FormatTitle renders a section title with the ledger icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(LedgerIcon + " " + title)
}

// FormatPrompt renders a question awaiting input on the same line.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt) + " "
}

// FormatExported marks exported ledger records; unexported ones render a dim dot.
func FormatExported(exported bool) string {
	if exported {
		return SuccessStyle.Render(ExportIcon)
	}
	return SubtleStyle.Render("·")
}

// RenderBox renders content under a title inside a rounded border.
func RenderBox(title, content string) string {
	return BoxStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		TitleStyle.UnsetMargins().Render(title),
		content,
	))
}
