package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testCursor(lines ...string) *Cursor {
	return NewCursor(ClassifyLines(lines))
}

func TestCursorSeekRole(t *testing.T) {
	cur := testCursor("noise", "RUCH/0393", "07-04-2024", "9876543210")

	idx, ok := cur.SeekRole(RoleBillNumber, 0)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	// Seek does not move the cursor.
	assert.Equal(t, 0, cur.Pos())

	cur.MoveTo(idx + 1)
	idx, ok = cur.SeekRole(RoleDate, 0)
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = cur.SeekRole(RoleAmountWords, 0)
	assert.False(t, ok)
}

func TestCursorSeekRoleBounded(t *testing.T) {
	cur := testCursor("a b c", "d e f", "g h i", "07-04-2024")

	_, ok := cur.SeekRole(RoleDate, 2)
	assert.False(t, ok)

	idx, ok := cur.SeekRole(RoleDate, 4)
	assert.True(t, ok)
	assert.Equal(t, 3, idx)
}

func TestCursorAdvanceClamps(t *testing.T) {
	cur := testCursor("one", "two")

	cur.Advance(10)
	assert.Equal(t, 2, cur.Pos())
	assert.Equal(t, 0, cur.Remaining())

	_, ok := cur.Peek(0)
	assert.False(t, ok)
}

func TestCursorWindow(t *testing.T) {
	cur := testCursor("zero", "one", "two", "three")

	window := cur.Window(1, 3)
	assert.Len(t, window, 2)
	assert.Equal(t, "one", window[0].Text)
	assert.Equal(t, "two", window[1].Text)

	assert.Nil(t, cur.Window(3, 3))
	assert.Nil(t, cur.Window(5, 2))
	assert.Len(t, cur.Window(-1, 99), 4)
}

func TestCursorSeekFunc(t *testing.T) {
	cur := testCursor("one", "Rs. Ten Only", "two")

	idx, ok := cur.SeekFunc(func(l ClassifiedLine) bool {
		return l.Has(RoleAmountWords)
	}, 0)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}
