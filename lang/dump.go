package lang

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// shift is the indentation width of nested blocks in dumped text.
const shift = 2

// dumper renders a tree as canonical source text.
type dumper struct {
	sb    strings.Builder
	level int // current block depth, -1 outside any block
}

// Dump writes the canonical text of n to w.
func Dump(w io.Writer, n Node) error {
	d := &dumper{level: -1}
	n.dump(d)

	if d.sb.Len() > 0 {
		d.sb.WriteByte('\n')
	}

	_, err := io.WriteString(w, d.sb.String())

	return err
}

// Dump writes the canonical text of the document to w. Parsing the output
// yields a document that constructs to an equal value.
func (d *Document) Dump(w io.Writer) error { return Dump(w, d) }

// String returns the canonical text of the document.
func (d *Document) String() string {
	var sb strings.Builder

	_ = d.Dump(&sb)

	return sb.String()
}

func (d *dumper) write(s string) { d.sb.WriteString(s) }

// newline starts a line at the current block's indentation.
func (d *dumper) newline() {
	if d.sb.Len() > 0 {
		d.sb.WriteByte('\n')
	}

	d.sb.WriteString(strings.Repeat(" ", max(d.level, 0)*shift))
}

// layout classifies how a node renders after a prefix.
type layout int

const (
	layoutEmpty layout = iota
	layoutInline
	layoutBlock
)

func layoutOf(n Node) layout {
	switch t := n.(type) {
	case nil, *Nothing:
		return layoutEmpty
	case *Args:
		return layoutBlock
	case *Iter:
		if node, _, err := t.element(); err == nil && node != nil {
			return layoutOf(node)
		}
	}

	return layoutInline
}

// value writes n as the right-hand side of a prefix already on the line.
func (d *dumper) value(n Node) {
	switch layoutOf(n) {
	case layoutEmpty:
		return
	case layoutInline:
		d.write(" ")
	}

	n.dump(d)
}

func (doc *Document) dump(d *dumper) {
	if doc.name != "" {
		d.write("--- " + doc.name)
	}

	if doc.Value == nil {
		return
	}

	if doc.name == "" || layoutOf(doc.Value) == layoutBlock {
		doc.Value.dump(d)

		return
	}

	d.value(doc.Value)
}

func (v *Value) dump(d *dumper) { d.write(formatValue(v.Data)) }

func (a *Args) dump(d *dumper) {
	d.level++
	defer func() { d.level-- }()

	for _, item := range a.Items {
		d.newline()

		if item.Key == "" {
			d.write("-")
		} else {
			d.write(item.Key + ":")
		}

		d.value(item.Node)
	}
}

func (t *Tag) dump(d *dumper) {
	d.write("!" + t.name)
	d.value(t.Value)
}

func (c *Class) dump(d *dumper) { d.write("!&" + c.name) }

func (l *LinkCreation) dump(d *dumper) {
	d.write("&" + l.name)
	d.value(l.Value)
}

func (l *Link) dump(d *dumper) { d.write("*" + l.name) }

func (it *Iter) dump(d *dumper) {
	if it.index < 0 {
		d.write("@" + it.name)
		d.value(it.Domain)

		return
	}

	node, raw, err := it.element()

	switch {
	case err != nil:
		d.write("@" + it.name)
		d.value(it.Domain)
	case node != nil:
		node.dump(d)
	default:
		d.write(formatValue(raw))
	}
}

func (e *Inline) dump(d *dumper) { d.write("`" + e.Source + "`") }

func (f *FString) dump(d *dumper) {
	q := string(f.Quote)
	if q == "\x00" {
		q = `"`
	}

	d.write("f" + q + f.Text + q)
}

func (*Nothing) dump(*dumper) {}

// formatValue renders scalar or literal data as it would be read back.
func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return quoteString(t)
	case []any, map[string]any:
		return formatLiteral(t)
	case nil, NothingValue:
		return "`nil`"
	default:
		return formatLiteral(t)
	}
}

// quoteString quotes s with a quote character it does not contain. Other
// strings are written as expressions.
func quoteString(s string) string {
	switch {
	case strings.ContainsAny(s, "\r\n"):
		return exprString(s)
	case !strings.Contains(s, `"`):
		return `"` + s + `"`
	case !strings.Contains(s, "'"):
		return "'" + s + "'"
	default:
		return exprString(s)
	}
}

// exprString writes s as an inline expression evaluating to s. Backticks
// delimit the expression, so they are escaped inside it.
func exprString(s string) string {
	return "`" + strings.ReplaceAll(strconv.Quote(s), "`", `\x60`) + "`"
}

// formatLiteral renders v in bracket literal syntax.
func formatLiteral(v any) string {
	switch t := v.(type) {
	case nil, NothingValue:
		return "nil"
	case string:
		return strconv.Quote(t)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case float64:
		s := strconv.FormatFloat(t, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEIN") {
			s += ".0"
		}

		return s
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = formatLiteral(e)
		}

		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := sortedKeys(t)
		parts := make([]string, len(keys))

		for i, k := range keys {
			parts[i] = strconv.Quote(k) + ": " + formatLiteral(t[k])
		}

		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprint(t)
	}
}
