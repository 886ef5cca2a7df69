package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typed(s string) *TextBuffer {
	b := New()
	for _, r := range s {
		b.InsertChar(r)
	}
	return b
}

func TestInsertCharAdvancesCursor(t *testing.T) {
	b := typed("abc")
	assert.Equal(t, "abc", b.String())
	assert.Equal(t, 3, b.Cursor())

	b.MoveLeft()
	b.InsertChar('X')
	assert.Equal(t, "abXc", b.String())
	assert.Equal(t, 3, b.Cursor())
}

func TestDeleteCharBeforeCursor(t *testing.T) {
	b := typed("abc")
	b.MoveLeft()
	b.DeleteCharBeforeCursor()
	assert.Equal(t, "ac", b.String())
	assert.Equal(t, 1, b.Cursor())
}

func TestDeleteCharBeforeCursorAtStartIsNoop(t *testing.T) {
	b := typed("abc")
	b.MoveHome()
	b.DeleteCharBeforeCursor()
	assert.Equal(t, "abc", b.String())
	assert.Equal(t, 0, b.Cursor())

	empty := New()
	empty.DeleteCharBeforeCursor()
	assert.Equal(t, "", empty.String())
	assert.Equal(t, 0, empty.Cursor())
}

func TestDeleteCharAtCursor(t *testing.T) {
	b := typed("héllo")
	b.MoveHome()
	b.MoveRight()
	b.DeleteCharAtCursor()
	assert.Equal(t, "hllo", b.String())
	assert.Equal(t, 1, b.Cursor())

	b.MoveEnd()
	b.DeleteCharAtCursor()
	assert.Equal(t, "hllo", b.String())
}

func TestMovesSaturate(t *testing.T) {
	b := typed("ab")
	b.MoveRight()
	assert.Equal(t, 2, b.Cursor())

	b.MoveLeft()
	b.MoveLeft()
	b.MoveLeft()
	assert.Equal(t, 0, b.Cursor())
}

func TestLeftRightRoundTrip(t *testing.T) {
	const text = "message m"
	for start := 0; start <= len(text); start++ {
		for steps := 1; steps <= len(text)+1; steps++ {
			b := typed(text)
			b.MoveHome()
			for i := 0; i < start; i++ {
				b.MoveRight()
			}
			require.Equal(t, start, b.Cursor())

			// Only walk as far as the boundary allows so the walk back is exact.
			n := steps
			if n > start {
				n = start
			}
			for i := 0; i < n; i++ {
				b.MoveLeft()
			}
			for i := 0; i < n; i++ {
				b.MoveRight()
			}
			assert.Equal(t, start, b.Cursor(), "start=%d steps=%d", start, n)
		}
	}
}

func TestMultiByteInsertDeleteRoundTrip(t *testing.T) {
	for _, c := range []rune{'é', '日', '🙂'} {
		const text = "añb日c"
		for pos := 0; pos <= 5; pos++ {
			b := typed(text)
			b.MoveHome()
			for i := 0; i < pos; i++ {
				b.MoveRight()
			}
			before := b.String()
			beforeLen := b.Len()

			b.InsertChar(c)
			require.Equal(t, beforeLen+1, b.Len())
			require.Equal(t, pos+1, b.Cursor())

			b.DeleteCharBeforeCursor()
			assert.Equal(t, before, b.String())
			assert.Equal(t, pos, b.Cursor())
		}
	}
}

func TestSetTextMovesCursorToEnd(t *testing.T) {
	b := typed("acc")
	b.MoveHome()
	b.SetText("account ")
	assert.Equal(t, "account ", b.String())
	assert.Equal(t, 8, b.Cursor())
}

func TestReset(t *testing.T) {
	b := typed("folder list")
	b.Reset()
	assert.Equal(t, "", b.String())
	assert.Equal(t, 0, b.Cursor())
	assert.Equal(t, 0, b.Len())
}

func TestClamp(t *testing.T) {
	b := typed("日本")
	assert.Equal(t, 0, b.clamp(-4))
	assert.Equal(t, 1, b.clamp(1))
	assert.Equal(t, 2, b.clamp(9))
}
