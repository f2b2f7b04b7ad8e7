package source

import "unicode/utf8"

// EOFRune is the sentinel code point exposed once the Cursor has run past
// the end of the source buffer. It never occurs in well-formed UTF-8 text.
const EOFRune rune = 0

// Cursor walks a UTF-8 source buffer one code point at a time. It never
// crosses a code-point boundary and never produces an invalid byte offset.
type Cursor struct {
	src  string
	pos  int
	c    rune
	size int // UTF-8 width in bytes of c
}

// NewCursor builds a Cursor positioned at the first code point of src (or
// at EOFRune if src is empty).
func NewCursor(src string) *Cursor {
	cur := &Cursor{src: src}
	cur.decodeAt(0)
	return cur
}

func (c *Cursor) decodeAt(pos int) {
	c.pos = pos
	if pos >= len(c.src) {
		c.c, c.size = EOFRune, 0
		return
	}
	r, size := utf8.DecodeRuneInString(c.src[pos:])
	c.c, c.size = r, size
}

// Current returns the code point the cursor is positioned on (EOFRune past the end).
func (c *Cursor) Current() rune { return c.c }

// Pos returns the current byte offset into the source buffer.
func (c *Cursor) Pos() int { return c.pos }

// AtEOF reports whether the cursor has run past the end of the buffer.
func (c *Cursor) AtEOF() bool { return c.pos >= len(c.src) }

// Peek returns the code point one position past the current one, without
// moving the cursor. Returns EOFRune if there is no such code point.
func (c *Cursor) Peek() rune {
	if c.size == 0 {
		return EOFRune
	}
	next := c.pos + c.size
	if next >= len(c.src) {
		return EOFRune
	}
	r, _ := utf8.DecodeRuneInString(c.src[next:])
	return r
}

// Advance moves the cursor forward by the current code point's UTF-8 width.
// Advancing past the end of the buffer is a no-op that leaves the cursor on EOFRune.
func (c *Cursor) Advance() {
	if c.size == 0 {
		return
	}
	c.decodeAt(c.pos + c.size)
}

// Slice returns the substring of the underlying source buffer covered by span.
func (c *Cursor) Slice(span Span) string {
	end := span.End
	if end > len(c.src) {
		end = len(c.src)
	}
	start := span.Start
	if start > end {
		start = end
	}
	return c.src[start:end]
}

// EatWhile advances the cursor while predicate holds for the current code
// point, and returns the Span of bytes consumed (possibly empty).
func (c *Cursor) EatWhile(predicate func(rune) bool) Span {
	start := c.pos
	for !c.AtEOF() && predicate(c.c) {
		c.Advance()
	}
	return NewSpan(start, c.pos)
}
