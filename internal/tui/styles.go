package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/mrz1836/autosync/internal/syncer"
)

// Semantic colors. AdaptiveColor picks the variant for light or dark terminals.
//
//nolint:gochecknoglobals // Intentional package-level constants for TUI styling API
var (
	// ColorPrimary is blue, used for informational lines and keys.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}

	// ColorSuccess is green.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}

	// ColorWarning is yellow.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}

	// ColorError is red.
	ColorError = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}

	// ColorMuted is gray, used for secondary text.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}
)

// TableStyles holds lipgloss styles for table rendering.
type TableStyles struct {
	Header lipgloss.Style
	Cell   lipgloss.Style
	Dim    lipgloss.Style
}

// NewTableStyles creates styles for table rendering.
func NewTableStyles() *TableStyles {
	return &TableStyles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}),
		Cell: lipgloss.NewStyle(),
		Dim: lipgloss.NewStyle().
			Foreground(ColorMuted),
	}
}

// OutputStyles holds common output styles.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
	Key     lipgloss.Style
}

// NewOutputStyles creates the message styles.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),
		Info: lipgloss.NewStyle().
			Foreground(ColorPrimary),
		Dim: lipgloss.NewStyle().
			Foreground(ColorMuted),
		Key: lipgloss.NewStyle().
			Foreground(ColorPrimary),
	}
}

// CheckNoColor drops to the ASCII profile when colors are unwanted.
// Call it before rendering styled text.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport returns false when NO_COLOR is present (any value,
// per https://no-color.org/) or TERM=dumb.
func HasColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// OutcomeIcon returns the status icon for a run outcome.
func OutcomeIcon(outcome syncer.Outcome) string {
	switch outcome {
	case syncer.OutcomeNoOp, syncer.OutcomePushed, syncer.OutcomeCommittedAndPushed:
		return "✓"
	case syncer.OutcomeCommittedOnly, syncer.OutcomePushRejected:
		return "⚠"
	case syncer.OutcomeAbortedConflict, syncer.OutcomeFailed:
		return "✗"
	}
	return "?"
}

// OutcomeColor returns the semantic color for a run outcome.
func OutcomeColor(outcome syncer.Outcome) lipgloss.AdaptiveColor {
	switch outcome {
	case syncer.OutcomeNoOp:
		return ColorMuted
	case syncer.OutcomePushed, syncer.OutcomeCommittedAndPushed:
		return ColorSuccess
	case syncer.OutcomeCommittedOnly, syncer.OutcomePushRejected:
		return ColorWarning
	case syncer.OutcomeAbortedConflict, syncer.OutcomeFailed:
		return ColorError
	}
	return ColorMuted
}

// RenderOutcome styles line with the icon and color of outcome.
func RenderOutcome(outcome syncer.Outcome, line string) string {
	return lipgloss.NewStyle().Foreground(OutcomeColor(outcome)).Render(OutcomeIcon(outcome) + " " + line)
}
