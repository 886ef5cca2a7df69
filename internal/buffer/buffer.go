package buffer

import "unicode/utf8"

// TextBuffer is a single line of editable text with a cursor. The cursor
// counts characters (runes) from the start of the content, never bytes.
type TextBuffer struct {
	content string
	cursor  int
}

// New returns an empty buffer.
func New() *TextBuffer {
	return &TextBuffer{}
}

// String returns the buffer content.
func (b *TextBuffer) String() string {
	return b.content
}

// Cursor returns the cursor position in characters.
func (b *TextBuffer) Cursor() int {
	return b.cursor
}

// Len returns the number of characters in the buffer.
func (b *TextBuffer) Len() int {
	return utf8.RuneCountInString(b.content)
}

// InsertChar inserts c at the cursor and advances the cursor past it.
func (b *TextBuffer) InsertChar(c rune) {
	at := b.byteOffset(b.cursor)
	b.content = b.content[:at] + string(c) + b.content[at:]
	b.cursor = b.clamp(b.cursor + 1)
}

// DeleteCharBeforeCursor removes the character left of the cursor.
// It does nothing when the cursor is at the start.
func (b *TextBuffer) DeleteCharBeforeCursor() {
	if b.cursor == 0 {
		return
	}
	start := b.byteOffset(b.cursor - 1)
	end := b.byteOffset(b.cursor)
	b.content = b.content[:start] + b.content[end:]
	b.cursor = b.clamp(b.cursor - 1)
}

// DeleteCharAtCursor removes the character under the cursor. It does
// nothing when the cursor is at the end.
func (b *TextBuffer) DeleteCharAtCursor() {
	if b.cursor >= b.Len() {
		return
	}
	start := b.byteOffset(b.cursor)
	end := b.byteOffset(b.cursor + 1)
	b.content = b.content[:start] + b.content[end:]
	b.cursor = b.clamp(b.cursor)
}

// MoveLeft moves the cursor one character left, stopping at the start.
func (b *TextBuffer) MoveLeft() {
	b.cursor = b.clamp(b.cursor - 1)
}

// MoveRight moves the cursor one character right, stopping at the end.
func (b *TextBuffer) MoveRight() {
	b.cursor = b.clamp(b.cursor + 1)
}

// MoveHome moves the cursor to the start of the buffer.
func (b *TextBuffer) MoveHome() {
	b.cursor = b.clamp(0)
}

// MoveEnd moves the cursor past the last character.
func (b *TextBuffer) MoveEnd() {
	b.cursor = b.clamp(b.Len())
}

// SetText replaces the content and puts the cursor at the end.
func (b *TextBuffer) SetText(s string) {
	b.content = s
	b.cursor = b.clamp(b.Len())
}

// Reset empties the buffer.
func (b *TextBuffer) Reset() {
	b.content = ""
	b.cursor = 0
}

// clamp bounds pos to [0, Len()]. Every mutator goes through it so the
// cursor can never point outside the content.
func (b *TextBuffer) clamp(pos int) int {
	if pos < 0 {
		return 0
	}
	if n := b.Len(); pos > n {
		return n
	}
	return pos
}

// byteOffset translates a character position into a byte offset into
// content. Positions past the end map to len(content).
func (b *TextBuffer) byteOffset(pos int) int {
	if pos <= 0 {
		return 0
	}
	i := 0
	for offset := range b.content {
		if i == pos {
			return offset
		}
		i++
	}
	return len(b.content)
}
