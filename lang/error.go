package lang

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrLex          = NewError("lexical error")
	ErrParse        = NewError("parse error")
	ErrConstruct    = NewError("construction error")
	ErrLink         = NewError("link resolution error")
	ErrSweep        = NewError("sweep structure error")
	ErrUnregistered = NewError("builder not registered")
	ErrRegistered   = NewError("builder already registered")
	ErrTypeMismatch = NewError("argument type mismatch")
	ErrDirective    = NewError("directive error")
	ErrReadInput    = NewError("failed to read input")
	ErrEvaluate     = NewError("expression evaluation failed")
	ErrNoEvaluator  = NewError("expression evaluator not configured")
	ErrIterIndex    = NewError("iterator index not set")
	ErrNodePath     = NewError("invalid node path")
	ErrConvert      = NewError("unsupported value type")
	ErrBuilderArgs  = NewError("invalid builder arguments")
	ErrWriteFile    = NewError("failed to write document")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error. An *Error is returned
// unchanged.
func WrapError(err error) *Error {
	if ee, ok := err.(*Error); ok { //nolint:errorlint
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an Error with the same message, so that values
// derived from a sentinel with Wrap or With still match it.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.msg != "" && t.msg == e.msg
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// Wrapf is like Wrap with a formatted cause.
func (e *Error) Wrapf(format string, args ...any) *Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// Position is a location in source text. Line and Column are 1-based.
type Position struct {
	Offset int
	Line   int
	Column int
}

// String returns "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// IsValid reports whether the position refers to source text.
func (p Position) IsValid() bool { return p.Line > 0 }

// SyntaxError is the shared representation of lexical and grammar errors.
type SyntaxError struct {
	File string
	Pos  Position
	Msg  string
	// Text is the source line containing Pos, used for snippets.
	Text string
}

func (e *SyntaxError) error() string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteByte(':')
	}

	sb.WriteString(e.Pos.String())
	sb.WriteString(": ")
	sb.WriteString(e.Msg)

	return sb.String()
}

// Snippet renders the offending source line with a caret under the column.
func (e *SyntaxError) Snippet() string {
	if !e.Pos.IsValid() || e.Text == "" {
		return ""
	}

	var src strings.Builder

	lineNum := strconv.Itoa(e.Pos.Line)

	src.WriteString("  ")
	src.WriteString(lineNum)
	src.WriteString(" | ")
	src.WriteString(e.Text)
	src.WriteRune('\n')

	// +5 accounts for: 2 leading spaces + " | " (3 chars)
	padding := strings.Repeat(" ", len(lineNum)+5)
	if e.Pos.Column > 0 {
		padding += strings.Repeat(" ", e.Pos.Column-1)
	}

	src.WriteString(padding + "^\n")

	return src.String()
}

func (e *SyntaxError) logValue(kind string) slog.Value {
	attrs := []slog.Attr{
		slog.String("error", kind),
		slog.String("msg", e.Msg),
		slog.Int("line", e.Pos.Line),
		slog.Int("column", e.Pos.Column),
	}
	if e.File != "" {
		attrs = append(attrs, slog.String("file", e.File))
	}

	return slog.GroupValue(attrs...)
}

// LexError reports input that no token kind matches, or an unclosed
// delimited literal.
type LexError struct{ SyntaxError }

func (e *LexError) Error() string { return e.error() }

// Unwrap returns [ErrLex].
func (e *LexError) Unwrap() error { return ErrLex }

// LogValue implements slog.LogValuer.
func (e *LexError) LogValue() slog.Value { return e.logValue(ErrLex.msg) }

// ParseError reports a grammar mismatch or leftover input.
type ParseError struct {
	SyntaxError
	// Err is an optional cause, e.g. the failure of an inserted document.
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return e.error() + ": " + e.Err.Error()
	}

	return e.error()
}

// Unwrap returns [ErrParse] and the cause, if any.
func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrParse, e.Err}
	}

	return []error{ErrParse}
}

// LogValue implements slog.LogValuer.
func (e *ParseError) LogValue() slog.Value { return e.logValue(ErrParse.msg) }

// ConstructError reports a failure to build a tag or class: the builder is
// missing, it failed, or its arguments did not type check in strict mode.
type ConstructError struct {
	Kind   Kind // KindTag or KindClass
	Tag    string
	Args   []any
	Kwargs map[string]any
	Path   string
	Err    error
}

func (e *ConstructError) Error() string {
	var sb strings.Builder

	sb.WriteString("unable to construct ")
	sb.WriteString(strings.ToLower(e.Kind.String()))
	sb.WriteString(" '")
	sb.WriteString(e.Tag)
	sb.WriteByte('\'')

	if e.Path != "" {
		sb.WriteString(" at ")
		sb.WriteString(e.Path)
	}

	if len(e.Args) > 0 || len(e.Kwargs) > 0 {
		fmt.Fprintf(&sb, " with args: %v and kwargs: %v", e.Args, e.Kwargs)
	}

	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

// Unwrap returns [ErrConstruct] and the cause.
func (e *ConstructError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConstruct, e.Err}
	}

	return []error{ErrConstruct}
}

// LogValue implements slog.LogValuer.
func (e *ConstructError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("error", ErrConstruct.msg),
		slog.String("tag", e.Tag),
		slog.Int("args", len(e.Args)),
		slog.Any("kwargs", sortedKeys(e.Kwargs)),
	}
	if e.Path != "" {
		attrs = append(attrs, slog.String("path", e.Path))
	}

	if e.Err != nil {
		attrs = append(attrs, slog.String("cause", e.Err.Error()))
	}

	return slog.GroupValue(attrs...)
}

// LinkReason classifies a [LinkError].
type LinkReason int

const (
	LinkUnresolved LinkReason = iota // unresolved link
	LinkRecursive                    // recursive construction
	LinkRedefined                    // redefined link
	LinkBeforeAssignment             // used before its declaration
)

// LinkError reports a link that cannot be resolved.
type LinkError struct {
	Name   string
	Reason LinkReason
}

func (e *LinkError) Error() string {
	switch e.Reason {
	case LinkRecursive:
		return "recursive construction of '" + e.Name + "'"
	case LinkRedefined:
		return "redefined link '" + e.Name + "'"
	case LinkBeforeAssignment:
		return "link usage before assignment '" + e.Name + "'"
	default:
		return "unresolved link '" + e.Name + "'"
	}
}

// Unwrap returns [ErrLink].
func (e *LinkError) Unwrap() error { return ErrLink }

// LogValue implements slog.LogValuer.
func (e *LinkError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", ErrLink.msg),
		slog.String("link", e.Name),
		slog.Int("reason", int(e.Reason)),
	)
}

// SweepError reports iterators of one group with different domain lengths.
type SweepError struct {
	Group   string
	Lengths []int
}

func (e *SweepError) Error() string {
	return fmt.Sprintf(
		"iterators of group '%s' have different lengths: %v",
		e.Group, e.Lengths,
	)
}

// Unwrap returns [ErrSweep].
func (e *SweepError) Unwrap() error { return ErrSweep }

// LogValue implements slog.LogValuer.
func (e *SweepError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", ErrSweep.msg),
		slog.String("group", e.Group),
		slog.Any("lengths", e.Lengths),
	)
}
