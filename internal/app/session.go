package app

import (
	"strings"

	"github.com/nhle/mailrepl/internal/theme"
)

// EntryKind tells submitted lines apart from what commands printed.
type EntryKind int

const (
	EntryInput EntryKind = iota
	EntryOutput
	EntryError
)

// Entry is one line group of the session log.
type Entry struct {
	Kind EntryKind
	Text string
}

// SessionLog is the append-only record of a session: every submitted
// line and every command outcome, in order.
type SessionLog struct {
	entries []Entry
}

// Submit records a submitted line.
func (l *SessionLog) Submit(line string) {
	l.entries = append(l.entries, Entry{Kind: EntryInput, Text: line})
}

// Report records command output.
func (l *SessionLog) Report(text string) {
	l.entries = append(l.entries, Entry{Kind: EntryOutput, Text: text})
}

// Fail records a failed command.
func (l *SessionLog) Fail(err error) {
	l.entries = append(l.entries, Entry{Kind: EntryError, Text: "error: " + err.Error()})
}

// Entries returns a copy of the log entries.
func (l *SessionLog) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// Inputs returns the submitted lines, oldest first.
func (l *SessionLog) Inputs() []string {
	var out []string
	for _, e := range l.entries {
		if e.Kind == EntryInput {
			out = append(out, e.Text)
		}
	}
	return out
}

// String returns the plain log text, one entry per line.
func (l *SessionLog) String() string {
	var b strings.Builder
	for _, e := range l.entries {
		if e.Kind == EntryInput {
			b.WriteString(prompt)
		}
		b.WriteString(e.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// Render returns the log styled for the terminal.
func (l *SessionLog) Render() string {
	var b strings.Builder
	for _, e := range l.entries {
		switch e.Kind {
		case EntryInput:
			b.WriteString(theme.InputLineStyle.Render(prompt + e.Text))
		case EntryError:
			b.WriteString(theme.ErrorStyle.Render(e.Text))
		default:
			b.WriteString(e.Text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Frame is what a renderer needs to draw the editor: the line, the
// cursor as a character offset, the completion candidates and the log.
type Frame struct {
	Text       string
	Cursor     int
	Candidates []string
	Log        string
}
