package lang

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// ParseString parses a document from source text.
func ParseString(ctx context.Context, src string, opts ...Option) (*Document, error) {
	return parse(ctx, src, "", makeOptions(opts...), map[string]bool{})
}

// ParseFile parses the document stored in the named file. Relative insert
// paths in the document resolve against the file's directory.
func ParseFile(ctx context.Context, path string, opts ...Option) (*Document, error) {
	o := makeOptions(opts...)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("file", path))
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("file", path))
	}
	defer f.Close()

	src, err := readAll(f)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("file", path))
	}

	o.including = append(o.including, abs)

	return parse(ctx, src, abs, o, map[string]bool{})
}

// ParseReader parses a document read from r.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*Document, error) {
	src, err := readAll(r)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("source", "reader"))
	}

	return parseCached(ctx, src, makeOptions(opts...))
}

// parser holds the state of one document parse.
type parser struct {
	ctx  context.Context
	s    *Stream
	opts options
	file string

	// links holds every declared link name. It is shared with the parsers of
	// inserted documents so names stay unique across the whole tree.
	links map[string]bool

	// lastIndent is the column of the innermost open Args block.
	lastIndent int

	inserts []string
}

func parse(
	ctx context.Context,
	src, file string,
	o options,
	links map[string]bool,
) (*Document, error) {
	s := NewStream(src)
	s.file = file
	s.implicitFStrings = o.implicitFStrings

	p := &parser{
		ctx:        ctx,
		s:          s,
		opts:       o,
		file:       file,
		links:      links,
		lastIndent: -1,
	}

	o.logger.TraceContext(ctx, "parse start",
		slog.String("file", file),
		slog.Int("source_bytes", len(src)))

	doc, err := p.parseDocument()
	if err != nil {
		return nil, err
	}

	o.logger.TraceContext(ctx, "parse complete",
		slog.String("document", doc.name),
		slog.Int("nodes", len(doc.arena)),
		slog.Int("links", len(doc.Links())),
		slog.Int("iterators", len(doc.Iters())))

	return doc, nil
}

// parseDocument reads: ["---" [Name]] Node.
func (p *parser) parseDocument() (*Document, error) {
	pos := p.s.Position()
	name := ""

	toks, err := p.s.Peek(opTok("---"), nameTok)
	if err != nil {
		return nil, err
	}

	if toks == nil {
		if toks, err = p.s.Peek(opTok("---")); err != nil {
			return nil, err
		}
	}

	if toks != nil {
		p.s.Commit()

		if len(toks) == 2 {
			name = toks[1].Text
		}
	}

	value, err := p.readNode()
	if err != nil {
		return nil, err
	}

	if p.s.More() {
		return nil, p.s.errorf("wrong statement")
	}

	doc := &Document{
		nodeBase: makeBase(name, pos),
		Value:    value,
		file:     p.file,
		inserts:  p.inserts,
		opts:     p.opts,
	}
	doc.opts.replacements = nil
	doc.reindex()

	return doc, nil
}

// reader reads one node variant at the current position, returning a nil
// node if the input does not start with that variant.
type reader func(p *parser) (Node, error)

// readers lists node readers in grammar precedence order.
var readers []reader

func init() {
	readers = []reader{
		(*parser).readDirective,
		(*parser).readLinkCreation,
		(*parser).readLink,
		(*parser).readClass,
		(*parser).readTag,
		(*parser).readIter,
		(*parser).readArgs,
		(*parser).readFString,
		(*parser).readNothing,
		(*parser).readInline,
		(*parser).readValue,
	}
}

// readNode reads a right-hand value: the first reader that matches wins.
func (p *parser) readNode() (Node, error) {
	for _, read := range readers {
		n, err := read(p)
		if err != nil {
			return nil, err
		}

		if n != nil {
			return n, nil
		}
	}

	return nil, p.s.errorf("wrong right value")
}

// peekName matches op followed by a name and commits on success.
func (p *parser) peekName(op string) (Token, bool, error) {
	toks, err := p.s.Peek(opTok(op), nameTok)
	if err != nil || toks == nil {
		return Token{}, false, err
	}

	p.s.Commit()

	return toks[1], true, nil
}

func (p *parser) readDirective() (Node, error) {
	pos := p.s.Position()

	tok, ok, err := p.peekName("!!")
	if !ok {
		return nil, err
	}

	dir, ok := directives[tok.Text]
	if !ok {
		return nil, p.errorAt(tok.Pos, "unknown parser directive '"+tok.Text+"'")
	}

	value, err := p.readNode()
	if err != nil {
		return nil, err
	}

	return dir(p, value, pos)
}

func (p *parser) readLinkCreation() (Node, error) {
	pos := p.s.Position()

	tok, ok, err := p.peekName("&")
	if !ok {
		return nil, err
	}

	if p.links[tok.Text] {
		return nil, p.errorAt(tok.Pos, "redefining of link '"+tok.Text+"'")
	}

	p.links[tok.Text] = true

	value, err := p.readNode()
	if err != nil {
		return nil, err
	}

	return &LinkCreation{nodeBase: makeBase(tok.Text, pos), Value: value}, nil
}

func (p *parser) readLink() (Node, error) {
	pos := p.s.Position()

	tok, ok, err := p.peekName("*")
	if !ok {
		return nil, err
	}

	if r, ok := p.opts.replacements[tok.Text]; ok {
		return cloneNode(r), nil
	}

	if p.opts.sequentialLinks && !p.links[tok.Text] {
		return nil, p.errorAt(tok.Pos, "link usage before assignment '"+tok.Text+"'")
	}

	return &Link{nodeBase: makeBase(tok.Text, pos)}, nil
}

func (p *parser) readClass() (Node, error) {
	pos := p.s.Position()

	tok, ok, err := p.peekName("!&")
	if !ok {
		return nil, err
	}

	value, err := p.readNode()
	if err != nil {
		return nil, err
	}

	if _, ok := value.(*Nothing); !ok {
		return nil, p.errorAt(value.Pos(),
			"class should be created with nothing to the right")
	}

	return &Class{nodeBase: makeBase(tok.Text, pos)}, nil
}

func (p *parser) readTag() (Node, error) {
	pos := p.s.Position()

	tok, ok, err := p.peekName("!")
	if !ok {
		return nil, err
	}

	value, err := p.readNode()
	if err != nil {
		return nil, err
	}

	return &Tag{nodeBase: makeBase(tok.Text, pos), Value: value}, nil
}

func (p *parser) readIter() (Node, error) {
	pos := p.s.Position()

	toks, err := p.s.Peek(opTok("@"), nameTok)
	if err != nil {
		return nil, err
	}

	if toks == nil {
		if toks, err = p.s.Peek(opTok("@")); toks == nil {
			return nil, err
		}
	}

	p.s.Commit()

	name := ""
	if len(toks) == 2 {
		name = toks[1].Text
	}

	value, err := p.readNode()
	if err != nil {
		return nil, err
	}

	switch v := value.(type) {
	case *Value:
		if _, ok := v.Data.([]any); ok {
			return makeIter(name, pos, v), nil
		}
	case *Args:
		if !v.HasKeys() {
			return makeIter(name, pos, v), nil
		}
	}

	return nil, p.errorAt(value.Pos(), "list is expected as a value for iterable node")
}

// readArgs reads a block of "- item" and "key: value" entries that all start
// at the current column.
func (p *parser) readArgs() (Node, error) {
	start := p.s.Column()
	if !p.s.More() || start <= p.lastIndent {
		return nil, nil
	}

	prev := p.lastIndent
	args := &Args{nodeBase: makeBase("", p.s.Position())}
	seen := map[string]bool{}

	for p.s.More() && p.s.Column() == start {
		p.lastIndent = start

		toks, err := p.s.Peek(opTok("- "))
		if err != nil {
			return nil, err
		}

		if toks != nil {
			if p.opts.strict && len(seen) > 0 {
				return nil, p.s.errorf(
					"positional argument after keyword argument is forbidden in strict mode")
			}

			p.s.Commit()

			value, err := p.readNode()
			if err != nil {
				return nil, err
			}

			args.Items = append(args.Items, Item{Node: value})

			continue
		}

		toks, err = p.s.Peek(nameTok, opTok(": "))
		if err != nil {
			return nil, err
		}

		if toks == nil {
			break
		}

		key := toks[0].Text
		if p.opts.strict && seen[key] {
			return nil, p.s.errorf(
				"dict key overwriting is forbidden in strict mode, overwritten key: '" +
					key + "'")
		}

		p.s.Commit()

		value, err := p.readNode()
		if err != nil {
			return nil, err
		}

		seen[key] = true
		args.set(key, value)
	}

	if p.s.More() && p.s.AtLineStart() && p.s.Column() > start {
		return nil, p.s.errorf("unexpected indent")
	}

	if len(args.Items) == 0 {
		if p.s.AtLineStart() && start > 0 {
			return nil, p.s.errorf("unexpected indent")
		}

		p.lastIndent = prev

		return nil, nil
	}

	return args, nil
}

func (p *parser) readFString() (Node, error) {
	toks, err := p.s.Peek(fstringTok)
	if toks == nil {
		return nil, err
	}

	p.s.Commit()

	tok := toks[0]
	lit, _ := tok.Value.(fstringLit)

	if lit.raw {
		p.opts.logger.WarnContext(p.ctx,
			"all strings are raw, r-prefix is not needed",
			slog.String("position", tok.Pos.String()))

		return &Value{nodeBase: makeBase("", tok.Pos), Data: lit.text}, nil
	}

	return &FString{nodeBase: makeBase("", tok.Pos), Text: lit.text, Quote: lit.quote}, nil
}

// readNothing matches the absence of a right-hand value: end of input, or a
// line that does not indent past the enclosing block.
func (p *parser) readNothing() (Node, error) {
	if !p.s.More() ||
		(p.s.AtLineStart() && p.s.Column() <= p.lastIndent) {
		return &Nothing{nodeBase: makeBase("", p.s.Position())}, nil
	}

	return nil, nil
}

func (p *parser) readInline() (Node, error) {
	toks, err := p.s.Peek(exprTok)
	if toks == nil {
		return nil, err
	}

	p.s.Commit()

	src, _ := toks[0].Value.(string)

	return &Inline{nodeBase: makeBase("", toks[0].Pos), Source: src}, nil
}

// valuePatterns lists scalar and literal token patterns in match order.
var valuePatterns = []Pattern{
	numberTok, boolTok, stringTok, listTok, tupleTok, dictTok,
}

func (p *parser) readValue() (Node, error) {
	for _, pat := range valuePatterns {
		toks, err := p.s.Peek(pat)
		if err != nil {
			return nil, err
		}

		if toks != nil {
			p.s.Commit()

			return &Value{nodeBase: makeBase("", toks[0].Pos), Data: toks[0].Value}, nil
		}
	}

	return nil, nil
}

func (p *parser) errorAt(pos Position, msg string) *ParseError {
	text := ""
	if p.s.More() || pos.Line > 0 {
		for i, num := range p.s.nums {
			if num == pos.Line {
				text = p.s.lines[i]

				break
			}
		}
	}

	return &ParseError{SyntaxError: SyntaxError{
		File: p.file,
		Pos:  pos,
		Msg:  msg,
		Text: text,
	}}
}
