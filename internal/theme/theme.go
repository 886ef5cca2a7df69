package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the top bar carrying the account and folder.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PromptStyle renders the prompt before the edited line.
var PromptStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGreen)

// CursorStyle marks the cell under the cursor.
var CursorStyle = lipgloss.NewStyle().Reverse(true)

// InputLineStyle renders submitted lines echoed in the log.
var InputLineStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// ErrorStyle renders failed commands.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorRed)

// CandidateStyle renders completion candidates.
var CandidateStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	PaddingRight(2)

// SelectedCandidateStyle highlights the best completion candidate.
var SelectedCandidateStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue).
	PaddingRight(2)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// TableHeaderStyle renders table header cells.
var TableHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Padding(0, 1)

// TableCellStyle is the base style of table cells.
var TableCellStyle = lipgloss.NewStyle().
	Padding(0, 1)

// Envelope column colors used when the account does not set its own.
var (
	EnvelopeIDColor      lipgloss.TerminalColor = ColorRed
	EnvelopeFlagsColor   lipgloss.TerminalColor = ColorGray
	EnvelopeSubjectColor lipgloss.TerminalColor = ColorGreen
	EnvelopeSenderColor  lipgloss.TerminalColor = ColorBlue
	EnvelopeDateColor    lipgloss.TerminalColor = ColorYellow
)

// ColorOr returns configured as a lipgloss color (ANSI number or hex), or
// fallback when it is empty.
func ColorOr(configured string, fallback lipgloss.TerminalColor) lipgloss.TerminalColor {
	if configured == "" {
		return fallback
	}
	return lipgloss.Color(configured)
}

// UnseenStyle emphasises the unseen counter in the header.
func UnseenStyle(unseen uint32) lipgloss.Style {
	base := HeaderStyle.Padding(0, 1)
	if unseen == 0 {
		return base
	}
	return base.Foreground(ColorYellow)
}
