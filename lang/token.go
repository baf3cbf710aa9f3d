package lang

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind identifies the lexical class of a [Token].
type TokenKind int

const (
	TokenOperator TokenKind = iota // operator
	TokenName                      // name
	TokenNumber                    // number
	TokenBool                      // bool
	TokenString                    // string
	TokenList                      // list
	TokenDict                      // dict
	TokenExpr                      // expr
	TokenFString                   // fstring
)

// String returns the token kind name.
func (k TokenKind) String() string {
	switch k {
	case TokenOperator:
		return "operator"
	case TokenName:
		return "name"
	case TokenNumber:
		return "number"
	case TokenBool:
		return "bool"
	case TokenString:
		return "string"
	case TokenList:
		return "list"
	case TokenDict:
		return "dict"
	case TokenExpr:
		return "expr"
	case TokenFString:
		return "fstring"
	default:
		return "TokenKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Token is a lexical token read from a [Stream].
type Token struct {
	Kind  TokenKind
	Text  string // source text of the token
	Value any    // decoded value
	Pos   Position
}

// Pattern reads one token from the start of text. It returns the token and
// its width in bytes, or zero width if text does not begin with such a token.
type Pattern func(s *Stream, text string) (Token, int, error)

// operators cannot begin a bare string.
var operators = []string{
	"---", "@", "#", "&", "!&", "!!", "!", "- ", ": ", "*",
	"{", "}", "[", "]", "(", ")",
}

// opTok matches the operator op. An operator ending with a space ("- " and
// ": ") also matches at the end of a line.
func opTok(op string) Pattern {
	bare, spaced := strings.CutSuffix(op, " ")

	return func(_ *Stream, text string) (Token, int, error) {
		switch {
		case strings.HasPrefix(text, op):
			return Token{Kind: TokenOperator, Text: op, Value: op}, len(op), nil
		case spaced && text == bare:
			return Token{Kind: TokenOperator, Text: op, Value: op}, len(bare), nil
		default:
			return Token{}, 0, nil
		}
	}
}

// nameTok matches an identifier: a letter followed by letters, digits, '_',
// or '.'.
func nameTok(_ *Stream, text string) (Token, int, error) {
	r, size := utf8.DecodeRuneInString(text)
	if !unicode.IsLetter(r) {
		return Token{}, 0, nil
	}

	pos := size
	for pos < len(text) {
		r, size := utf8.DecodeRuneInString(text[pos:])
		if !isNameContinue(r) {
			break
		}

		pos += size
	}

	return Token{Kind: TokenName, Text: text[:pos], Value: text[:pos]}, pos, nil
}

func isNameContinue(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.'
}

// IsName reports whether s is a valid name.
func IsName(s string) bool {
	_, n, _ := nameTok(nil, s)

	return n > 0 && n == len(s)
}

// bareText returns the text up to a comment with trailing space removed.
func bareText(text string) string {
	if i := strings.IndexByte(text, '#'); i >= 0 {
		text = text[:i]
	}

	return strings.TrimRight(text, " \t")
}

// numberTok matches a scalar consisting entirely of a decimal integer or float.
func numberTok(_ *Stream, text string) (Token, int, error) {
	bare := bareText(text)
	if !isNumeric(bare) {
		return Token{}, 0, nil
	}

	if i, err := strconv.Atoi(bare); err == nil {
		return Token{Kind: TokenNumber, Text: bare, Value: i}, len(bare), nil
	}

	if f, err := strconv.ParseFloat(bare, 64); err == nil {
		return Token{Kind: TokenNumber, Text: bare, Value: f}, len(bare), nil
	}

	return Token{}, 0, nil
}

func isNumeric(s string) bool {
	digit := false

	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(".eE+-", r):
		default:
			return false
		}
	}

	return digit
}

// boolTok matches a scalar consisting entirely of a boolean word.
func boolTok(_ *Stream, text string) (Token, int, error) {
	bare := bareText(text)

	switch bare {
	case "true", "True", "yes":
		return Token{Kind: TokenBool, Text: bare, Value: true}, len(bare), nil
	case "false", "False", "no":
		return Token{Kind: TokenBool, Text: bare, Value: false}, len(bare), nil
	default:
		return Token{}, 0, nil
	}
}

var (
	errUnclosedString = errors.New("string was not closed")
	errUnclosedExpr   = errors.New("inline expression was not closed")
	errUnclosedFStr   = errors.New("f-string was not closed")
)

// stringTok matches a quoted string without escapes, or bare text up to a
// comment. Bare text may not begin with an operator.
func stringTok(_ *Stream, text string) (Token, int, error) {
	for _, op := range operators {
		if strings.HasPrefix(text, op) {
			return Token{}, 0, nil
		}
	}

	if text[0] == '\'' || text[0] == '"' {
		end := strings.IndexByte(text[1:], text[0])
		if end < 0 {
			return Token{}, 0, errUnclosedString
		}

		width := end + 2

		return Token{
			Kind:  TokenString,
			Text:  text[:width],
			Value: text[1 : width-1],
		}, width, nil
	}

	bare := bareText(text)
	if bare == "" {
		return Token{}, 0, nil
	}

	return Token{Kind: TokenString, Text: bare, Value: bare}, len(bare), nil
}

// listTok matches a bracketed list literal, evaluated eagerly.
func listTok(_ *Stream, text string) (Token, int, error) {
	return literal(text, '[', TokenList, "list")
}

// tupleTok matches a parenthesized literal, evaluated eagerly as a list.
func tupleTok(_ *Stream, text string) (Token, int, error) {
	return literal(text, '(', TokenList, "tuple")
}

// dictTok matches a braced map literal, evaluated eagerly.
func dictTok(_ *Stream, text string) (Token, int, error) {
	return literal(text, '{', TokenDict, "dict")
}

func literal(
	text string,
	open byte,
	kind TokenKind,
	what string,
) (Token, int, error) {
	if text[0] != open {
		return Token{}, 0, nil
	}

	width := matchBracket(text)
	if width == 0 {
		return Token{}, 0, errors.New(what + " was not closed")
	}

	src := text[:width]
	if open == '(' {
		src = "[" + strings.TrimSuffix(strings.TrimSpace(src[1:width-1]), ",") + "]"
	}

	value, err := evalLiteral(src)
	if err != nil {
		return Token{}, 0, errors.New("invalid " + what + " literal: " + err.Error())
	}

	return Token{Kind: kind, Text: text[:width], Value: value}, width, nil
}

// matchBracket returns the width of the balanced bracketed text at the start
// of text, or zero if it is not closed on this line. Brackets inside quoted
// strings are ignored.
func matchBracket(text string) int {
	var (
		stack []byte
		quote byte
	)

	for i := 0; i < len(text); i++ {
		c := text[i]

		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}

			continue
		}

		switch c {
		case '\'', '"', '`':
			quote = c
		case '[':
			stack = append(stack, ']')
		case '(':
			stack = append(stack, ')')
		case '{':
			stack = append(stack, '}')
		case ']', ')', '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0
			}

			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i + 1
			}
		}
	}

	return 0
}

// exprTok matches backtick-delimited expression source.
func exprTok(_ *Stream, text string) (Token, int, error) {
	if text[0] != '`' {
		return Token{}, 0, nil
	}

	end := strings.IndexByte(text[1:], '`')
	if end < 0 {
		return Token{}, 0, errUnclosedExpr
	}

	width := end + 2

	return Token{
		Kind:  TokenExpr,
		Text:  text[:width],
		Value: text[1 : width-1],
	}, width, nil
}

// fstringLit is the value of a [TokenFString] token.
type fstringLit struct {
	text  string
	quote byte
	raw   bool // r-prefixed: a plain string
}

// fstringTok matches an f- or r-prefixed quoted string. When the stream has
// implicit f-strings enabled, a plain quoted string containing '{' also
// matches.
func fstringTok(s *Stream, text string) (Token, int, error) {
	start := 0

	switch {
	case len(text) > 1 && (text[0] == 'f' || text[0] == 'r') &&
		(text[1] == '"' || text[1] == '\''):
		start = 1
	case s != nil && s.implicitFStrings && (text[0] == '"' || text[0] == '\''):
	default:
		return Token{}, 0, nil
	}

	quote := text[start]

	end := strings.IndexByte(text[start+1:], quote)
	if end < 0 {
		if start == 0 {
			return Token{}, 0, nil
		}

		return Token{}, 0, errUnclosedFStr
	}

	width := start + end + 2
	body := text[start+1 : width-1]

	if start == 0 && !strings.Contains(body, "{") {
		return Token{}, 0, nil
	}

	return Token{
		Kind: TokenFString,
		Text: text[:width],
		Value: fstringLit{
			text:  body,
			quote: quote,
			raw:   start == 1 && text[0] == 'r',
		},
	}, width, nil
}
