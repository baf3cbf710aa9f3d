package lang

import (
	"strings"
)

// tabWidth is the number of columns a leading tab occupies.
const tabWidth = 4

// Stream is a line-oriented view of source text with multi-token lookahead.
//
// The stream position is always at the start of a token or at the end of
// input: blank lines, comment lines, whitespace, and trailing comments are
// skipped whenever the position advances. [Stream.Peek] matches a sequence
// of token patterns without consuming anything; [Stream.Commit] advances past
// the tokens matched by the most recent successful Peek.
type Stream struct {
	file  string
	lines []string // lines with leading tabs expanded
	nums  []int    // 1-based source line number of each line
	offs  []int    // byte offset of each line in the source

	n   int // current line index
	pos int // current column (0-based)

	// position after the last successful Peek
	peekN, peekPos int
	peeked         bool

	implicitFStrings bool
}

// NewStream returns a stream positioned at the first token of src.
func NewStream(src string) *Stream {
	s := &Stream{}

	offset := 0

	for i, line := range strings.Split(src, "\n") {
		start := offset
		offset += len(line) + 1

		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		s.lines = append(s.lines, expandIndent(line))
		s.nums = append(s.nums, i+1)
		s.offs = append(s.offs, start)
	}

	s.skipLines()

	return s
}

// expandIndent replaces tabs in the leading whitespace of line with spaces.
func expandIndent(line string) string {
	end := 0
	for end < len(line) && (line[end] == ' ' || line[end] == '\t') {
		end++
	}

	if !strings.Contains(line[:end], "\t") {
		return line
	}

	return strings.ReplaceAll(line[:end], "\t", strings.Repeat(" ", tabWidth)) +
		line[end:]
}

// More reports whether input remains.
func (s *Stream) More() bool { return s.n < len(s.lines) }

// Column returns the current 0-based column.
func (s *Stream) Column() int { return s.pos }

// AtLineStart reports whether only whitespace precedes the current position
// on its line.
func (s *Stream) AtLineStart() bool {
	if !s.More() {
		return true
	}

	return strings.TrimSpace(s.lines[s.n][:s.pos]) == ""
}

// Position returns the current source position.
func (s *Stream) Position() Position {
	if !s.More() {
		if len(s.lines) == 0 {
			return Position{Line: 1, Column: 1}
		}

		last := len(s.lines) - 1

		return Position{
			Offset: s.offs[last] + len(s.lines[last]),
			Line:   s.nums[last],
			Column: len(s.lines[last]) + 1,
		}
	}

	return Position{
		Offset: s.offs[s.n] + s.pos,
		Line:   s.nums[s.n],
		Column: s.pos + 1,
	}
}

// Peek matches pats in order starting at the current position. Tokens of one
// Peek must lie on the current line; whitespace between them is skipped. It
// returns nil if any pattern fails to match, and an error only when a token
// is recognized but malformed (for example an unclosed literal).
func (s *Stream) Peek(pats ...Pattern) ([]Token, error) {
	s.peeked = false

	if !s.More() {
		return nil, nil
	}

	line := s.lines[s.n]
	pos := s.pos
	toks := make([]Token, 0, len(pats))

	for i, pat := range pats {
		if i > 0 {
			pos = skipSpace(line, pos)
		}

		if pos >= len(line) {
			return nil, nil
		}

		tok, width, err := pat(s, line[pos:])
		if err != nil {
			return nil, s.lexError(pos, err.Error())
		}

		if width == 0 {
			return nil, nil
		}

		tok.Pos = Position{
			Offset: s.offs[s.n] + pos,
			Line:   s.nums[s.n],
			Column: pos + 1,
		}
		toks = append(toks, tok)
		pos += width
	}

	s.peekN, s.peekPos, s.peeked = s.n, pos, true

	return toks, nil
}

// Commit advances past the tokens matched by the last successful Peek.
func (s *Stream) Commit() {
	if !s.peeked {
		return
	}

	s.n, s.pos, s.peeked = s.peekN, s.peekPos, false
	s.move()
}

// move skips whitespace and, at the end of a line or at a comment, advances
// to the first token of the next significant line.
func (s *Stream) move() {
	if !s.More() {
		return
	}

	line := s.lines[s.n]
	s.pos = skipSpace(line, s.pos)

	if s.pos < len(line) && line[s.pos] != '#' {
		return
	}

	s.n++
	s.skipLines()
}

// skipLines advances past blank and comment-only lines and positions the
// stream at the indentation of the next line.
func (s *Stream) skipLines() {
	for s.More() {
		line := s.lines[s.n]
		s.pos = skipSpace(line, 0)

		if s.pos < len(line) && line[s.pos] != '#' {
			return
		}

		s.n++
	}

	s.pos = 0
}

func (s *Stream) lineText() string {
	if !s.More() {
		if len(s.lines) == 0 {
			return ""
		}

		return s.lines[len(s.lines)-1]
	}

	return s.lines[s.n]
}

func (s *Stream) syntaxError(col int, msg string) SyntaxError {
	pos := s.Position()
	if s.More() {
		pos.Offset += col - s.pos
		pos.Column = col + 1
	}

	return SyntaxError{File: s.file, Pos: pos, Msg: msg, Text: s.lineText()}
}

func (s *Stream) lexError(col int, msg string) *LexError {
	return &LexError{SyntaxError: s.syntaxError(col, msg)}
}

// errorf returns a ParseError at the current position.
func (s *Stream) errorf(msg string) *ParseError {
	return &ParseError{SyntaxError: s.syntaxError(s.pos, msg)}
}

func skipSpace(line string, pos int) int {
	for pos < len(line) && (line[pos] == ' ' || line[pos] == '\t') {
		pos++
	}

	return pos
}
