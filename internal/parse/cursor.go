package parse

// Cursor walks a classified segment. Seek operations are bounded forward
// scans; they never move the cursor past the end and never wrap.
type Cursor struct {
	lines []ClassifiedLine
	pos   int
}

// NewCursor positions a cursor at the start of the segment.
func NewCursor(lines []ClassifiedLine) *Cursor {
	return &Cursor{lines: lines}
}

// Pos returns the current absolute position.
func (c *Cursor) Pos() int {
	return c.pos
}

// Len returns the total segment length.
func (c *Cursor) Len() int {
	return len(c.lines)
}

// Remaining returns how many lines are left including the current one.
func (c *Cursor) Remaining() int {
	if c.pos >= len(c.lines) {
		return 0
	}
	return len(c.lines) - c.pos
}

// Peek returns the line n positions ahead of the cursor without moving it.
func (c *Cursor) Peek(n int) (ClassifiedLine, bool) {
	idx := c.pos + n
	if idx < 0 || idx >= len(c.lines) {
		return ClassifiedLine{}, false
	}
	return c.lines[idx], true
}

// At returns the line at an absolute position.
func (c *Cursor) At(idx int) (ClassifiedLine, bool) {
	if idx < 0 || idx >= len(c.lines) {
		return ClassifiedLine{}, false
	}
	return c.lines[idx], true
}

// Advance moves the cursor forward by n, clamped to the segment end.
func (c *Cursor) Advance(n int) {
	c.pos += n
	if c.pos > len(c.lines) {
		c.pos = len(c.lines)
	}
}

// MoveTo places the cursor at an absolute position, clamped to the segment.
func (c *Cursor) MoveTo(idx int) {
	if idx < 0 {
		idx = 0
	}
	if idx > len(c.lines) {
		idx = len(c.lines)
	}
	c.pos = idx
}

// SeekRole returns the absolute index of the next line carrying role, looking
// at most limit lines ahead of the cursor. limit <= 0 scans to the end.
func (c *Cursor) SeekRole(role Role, limit int) (int, bool) {
	end := len(c.lines)
	if limit > 0 && c.pos+limit < end {
		end = c.pos + limit
	}
	for i := c.pos; i < end; i++ {
		if c.lines[i].Has(role) {
			return i, true
		}
	}
	return 0, false
}

// SeekFunc returns the absolute index of the next line matching pred within
// limit lines of the cursor.
func (c *Cursor) SeekFunc(pred func(ClassifiedLine) bool, limit int) (int, bool) {
	end := len(c.lines)
	if limit > 0 && c.pos+limit < end {
		end = c.pos + limit
	}
	for i := c.pos; i < end; i++ {
		if pred(c.lines[i]) {
			return i, true
		}
	}
	return 0, false
}

// Window returns the lines in [from, to), clamped to the segment bounds.
func (c *Cursor) Window(from, to int) []ClassifiedLine {
	if from < 0 {
		from = 0
	}
	if to > len(c.lines) {
		to = len(c.lines)
	}
	if from >= to {
		return nil
	}
	return c.lines[from:to]
}
