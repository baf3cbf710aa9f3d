package lang

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"
)

// directive performs a document-level operation while parsing. It receives
// the right-hand node of "!!name" and returns the node to put in its place.
type directive func(p *parser, value Node, pos Position) (Node, error)

// directives is the fixed directive table.
var directives map[string]directive

func init() {
	directives = map[string]directive{
		"insert": insertDirective,
	}
}

// Directives returns the names of the parser directives.
func Directives() []string { return sortedKeys(directives) }

// insertDirective parses another document and substitutes its content.
//
//	!!insert path/to/file.nip
//	!!insert
//	  - path/to/file.nip
//	  name: replacement for *name
func insertDirective(p *parser, value Node, pos Position) (Node, error) {
	var (
		pathNode     Node
		replacements map[string]Node
	)

	switch v := value.(type) {
	case *Value, *Inline, *FString:
		pathNode = v
	case *Args:
		positional := v.Positional()
		if len(positional) != 1 {
			return nil, p.errorAt(pos,
				"insert expects a single positional argument as the document path")
		}

		pathNode = positional[0]
		replacements = map[string]Node{}

		for key, n := range v.Keyed() {
			replacements[key] = n
		}
	default:
		return nil, p.errorAt(pos,
			"string or combination of args and kwargs are expected as value of insert directive")
	}

	c := newConstructor(p.ctx, nil, p.opts)

	raw, err := c.realize(pathNode)
	if err != nil {
		return nil, &ParseError{SyntaxError: p.errorAt(pos, "insert path").SyntaxError, Err: err}
	}

	path, ok := raw.(string)
	if !ok {
		return nil, p.errorAt(pos, "insert expects a string path")
	}

	abs := p.resolvePath(path)
	if slices.Contains(p.opts.including, abs) {
		return nil, p.errorAt(pos, "insert cycle through '"+path+"'")
	}

	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, &ParseError{
			SyntaxError: p.errorAt(pos, "insert '"+path+"'").SyntaxError,
			Err:         ErrDirective.Wrap(err),
		}
	}

	p.opts.logger.DebugContext(p.ctx, "insert document",
		slog.String("path", abs),
		slog.Int("replacements", len(replacements)))

	o := p.opts
	o.replacements = replacements
	o.including = append(slices.Clip(p.opts.including), abs)

	doc, err := parse(p.ctx, string(src), abs, o, p.links)
	if err != nil {
		return nil, &ParseError{
			SyntaxError: p.errorAt(pos, "insert '"+path+"'").SyntaxError,
			Err:         err,
		}
	}

	p.inserts = append(p.inserts, abs)
	p.inserts = append(p.inserts, doc.inserts...)

	return doc.Value, nil
}

// resolvePath resolves path relative to the current document's directory,
// the configured base directory, or the working directory.
func (p *parser) resolvePath(path string) string {
	if !filepath.IsAbs(path) {
		switch {
		case p.file != "":
			path = filepath.Join(filepath.Dir(p.file), path)
		case p.opts.baseDir != "":
			path = filepath.Join(p.opts.baseDir, path)
		}
	}

	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}

	return filepath.Clean(path)
}
