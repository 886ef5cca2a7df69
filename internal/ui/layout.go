package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailrepl/internal/theme"
)

// Layout holds the dimensions of the REPL screen: a header, the session
// log, the input area and a status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	InputHeight     int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions. The
// input area holds the candidate line and the prompt.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		InputHeight:     2,
		StatusBarHeight: 1,
	}
}

// LogHeight returns the height left for the session log.
func (l Layout) LogHeight() int {
	h := l.Height - l.HeaderHeight - l.InputHeight - l.StatusBarHeight
	if h < 1 {
		return 1
	}
	return h
}

// fill joins left and right with a gap painted in the background of
// style, so that the bar spans the full width.
func (l Layout) fill(style lipgloss.Style, left, right string) string {
	gap := l.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}

// RenderHeader renders the top bar with the title on the left and the
// watcher status on the right.
func (l Layout) RenderHeader(title string, status string) string {
	return l.fill(theme.HeaderStyle,
		theme.HeaderStyle.Render(title),
		theme.HeaderStyle.Align(lipgloss.Right).Render(status),
	)
}

// RenderStatusBar renders the bottom bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	return l.fill(theme.StatusBarStyle, theme.StatusBarStyle.Render(hints), "")
}

// RenderWithFrame stacks the header, content and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}
