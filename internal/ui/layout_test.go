package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestLogHeight(t *testing.T) {
	assert.Equal(t, 20, NewLayout(80, 24).LogHeight())
	assert.Equal(t, 1, NewLayout(80, 3).LogHeight())
}

func TestRenderHeaderFillsWidth(t *testing.T) {
	l := NewLayout(60, 24)
	header := l.RenderHeader("mailrepl · work", "[3 unseen]")

	assert.Equal(t, 60, lipgloss.Width(header))
	assert.Less(t, strings.Index(header, "mailrepl"), strings.Index(header, "[3 unseen]"))
}

func TestRenderStatusBarFillsWidth(t *testing.T) {
	l := NewLayout(40, 24)
	assert.Equal(t, 40, lipgloss.Width(l.RenderStatusBar("tab complete")))
}

func TestRenderWithFrame(t *testing.T) {
	out := NewLayout(20, 5).RenderWithFrame("h", "c", "s")
	assert.Equal(t, []string{"h", "c", "s"}, strings.Split(stripTrailing(out), "\n"))
}

func stripTrailing(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n")
}
