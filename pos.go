package fizz

import "fmt"

// Location is a 1-based line/column position paired with a 0-based byte
// cursor into the source text.
type Location struct {
	Line   int
	Column int
	Cursor int
}

// Span is a half-open range between two Locations, used to anchor
// diagnostics to source text.
type Span struct {
	Start Location
	End   Location
}

func NewSpan(start, end Location) Span {
	return Span{Start: start, End: end}
}

func (s Span) String() string {
	if s.Start.Line == s.End.Line && s.Start.Column == s.End.Column {
		return fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Column)
	}
	return fmt.Sprintf("%d:%d..%d:%d", s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}

const eof = -1

// cursor tracks line/column while scanning a byte slice; the tokenizer
// and the parser's error reporting both need to report positions.
type cursor struct {
	input  []byte
	pos    int
	line   int
	column int
}

func newCursor(input []byte) *cursor {
	return &cursor{input: input, line: 1, column: 1}
}

func (c *cursor) peek() int {
	if c.pos >= len(c.input) {
		return eof
	}
	return int(c.input[c.pos])
}

func (c *cursor) advance() int {
	ch := c.peek()
	if ch == eof {
		return eof
	}
	c.pos++
	if ch == '\n' {
		c.line++
		c.column = 1
	} else {
		c.column++
	}
	return ch
}

func (c *cursor) location() Location {
	return Location{Line: c.line, Column: c.column, Cursor: c.pos}
}
