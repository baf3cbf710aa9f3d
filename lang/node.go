package lang

import (
	"iter"
	"maps"
	"slices"
	"strconv"
	"sync/atomic"
)

// sortedKeys returns the keys of m in order, or nil for an empty map.
func sortedKeys[T any](m map[string]T) []string {
	return slices.Sorted(maps.Keys(m))
}

// Kind identifies a node variant.
type Kind int

const (
	KindDocument     Kind = iota // Document
	KindValue                    // Value
	KindArgs                     // Args
	KindTag                      // Tag
	KindClass                    // Class
	KindLinkCreation             // LinkCreation
	KindLink                     // Link
	KindIter                     // Iter
	KindInline                   // Inline
	KindFString                  // FString
	KindNothing                  // Nothing
)

var kindNames = [...]string{
	KindDocument:     "Document",
	KindValue:        "Value",
	KindArgs:         "Args",
	KindTag:          "Tag",
	KindClass:        "Class",
	KindLinkCreation: "LinkCreation",
	KindLink:         "Link",
	KindIter:         "Iter",
	KindInline:       "Inline",
	KindFString:      "FString",
	KindNothing:      "Nothing",
}

// String returns the variant name.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Node is an element of a parsed document tree. The set of implementations
// is closed: [*Document], [*Value], [*Args], [*Tag], [*Class],
// [*LinkCreation], [*Link], [*Iter], [*Inline], [*FString], and [*Nothing].
type Node interface {
	Kind() Kind
	// Name returns the tag, link, iterator, or document name, if any.
	Name() string
	// Pos returns the source position where the node was read.
	Pos() Position

	base() *nodeBase
	realize(c *constructor) (any, error)
	dump(d *dumper)
	native() (any, error)
	clone() Node
	children() []Node
}

// nodeBase holds the fields shared by all nodes. Parents are referenced by
// index into the owning document's arena, never by pointer.
type nodeBase struct {
	name   string
	pos    Position
	id     int
	parent int
}

func makeBase(name string, pos Position) nodeBase {
	return nodeBase{name: name, pos: pos, id: -1, parent: -1}
}

func (b *nodeBase) Name() string { return b.name }
func (b *nodeBase) Pos() Position { return b.pos }
func (b *nodeBase) base() *nodeBase { return b }
func (b nodeBase) detached() nodeBase {
	b.id, b.parent = -1, -1

	return b
}

// Document is the root of a parsed tree.
type Document struct {
	nodeBase

	Value Node

	file    string   // source file, if parsed from one
	inserts []string // files substituted by the insert directive
	arena   []Node
	opts    options
}

// NewDocument returns a document named name holding value, with default
// options.
func NewDocument(name string, value Node) *Document {
	d := &Document{nodeBase: makeBase(name, Position{}), Value: value, opts: makeOptions()}
	d.reindex()

	return d
}

func (*Document) Kind() Kind { return KindDocument }

// File returns the path of the file the document was parsed from.
func (d *Document) File() string { return d.file }

// Inserts returns the absolute paths of the files inserted while parsing,
// including those inserted by inserted files.
func (d *Document) Inserts() []string { return slices.Clone(d.inserts) }

func (d *Document) children() []Node { return []Node{d.Value} }

// Value is a scalar or an eagerly evaluated literal list or map.
type Value struct {
	nodeBase

	// Data is an int, float64, bool, string, []any, or map[string]any.
	Data any
}

// NewValue returns a Value node holding data.
func NewValue(data any) *Value {
	return &Value{nodeBase: makeBase("", Position{}), Data: data}
}

func (*Value) Kind() Kind { return KindValue }
func (*Value) children() []Node { return nil }

// Item is one entry of an [Args] block. Key is empty for positional items.
type Item struct {
	Key  string
	Node Node
}

// Args is an indentation block of "- item" and "key: value" entries, kept
// in source order.
type Args struct {
	nodeBase

	Items []Item
}

// NewArgs returns an Args node holding items.
func NewArgs(items ...Item) *Args {
	return &Args{nodeBase: makeBase("", Position{}), Items: items}
}

func (*Args) Kind() Kind { return KindArgs }

func (a *Args) children() []Node {
	nodes := make([]Node, len(a.Items))
	for i, item := range a.Items {
		nodes[i] = item.Node
	}

	return nodes
}

// Positional returns the positional items in order.
func (a *Args) Positional() []Node {
	var nodes []Node

	for _, item := range a.Items {
		if item.Key == "" {
			nodes = append(nodes, item.Node)
		}
	}

	return nodes
}

// Keyed returns an iterator over keyed items in order.
func (a *Args) Keyed() iter.Seq2[string, Node] {
	return func(yield func(string, Node) bool) {
		for _, item := range a.Items {
			if item.Key != "" && !yield(item.Key, item.Node) {
				return
			}
		}
	}
}

// Get returns the node stored under key.
func (a *Args) Get(key string) (Node, bool) {
	for _, item := range a.Items {
		if item.Key != "" && item.Key == key {
			return item.Node, true
		}
	}

	return nil, false
}

// HasKeys reports whether any item is keyed.
func (a *Args) HasKeys() bool {
	return slices.ContainsFunc(a.Items, func(it Item) bool { return it.Key != "" })
}

// set replaces the value under key in place, or appends a new item.
func (a *Args) set(key string, n Node) {
	if key != "" {
		for i := range a.Items {
			if a.Items[i].Key == key {
				a.Items[i].Node = n

				return
			}
		}
	}

	a.Items = append(a.Items, Item{Key: key, Node: n})
}

// replace swaps the item holding old for n. A link declaration keeps its
// name and takes n as its value.
func (a *Args) replace(old, n Node) {
	for i := range a.Items {
		if a.Items[i].Node != old {
			continue
		}

		if lc, ok := old.(*LinkCreation); ok {
			lc.Value = n

			return
		}

		a.Items[i].Node = n

		return
	}
}

// Tag requests construction by the builder registered under its name.
type Tag struct {
	nodeBase

	Value Node
}

// NewTag returns a Tag node for builder name applied to value.
func NewTag(name string, value Node) *Tag {
	return &Tag{nodeBase: makeBase(name, Position{}), Value: value}
}

func (*Tag) Kind() Kind { return KindTag }
func (t *Tag) children() []Node { return []Node{t.Value} }

// Class resolves to the builder registered under its name without
// invoking it.
type Class struct{ nodeBase }

// NewClass returns a Class node for builder name.
func NewClass(name string) *Class {
	return &Class{nodeBase: makeBase(name, Position{})}
}

func (*Class) Kind() Kind { return KindClass }
func (*Class) children() []Node { return nil }

// LinkCreation binds its name to the constructed value of its child.
type LinkCreation struct {
	nodeBase

	Value Node
}

// NewLinkCreation returns a node binding name to value.
func NewLinkCreation(name string, value Node) *LinkCreation {
	return &LinkCreation{nodeBase: makeBase(name, Position{}), Value: value}
}

func (*LinkCreation) Kind() Kind { return KindLinkCreation }
func (l *LinkCreation) children() []Node { return []Node{l.Value} }

// Link refers to the value bound by the LinkCreation of the same name.
type Link struct{ nodeBase }

// NewLink returns a reference to link name.
func NewLink(name string) *Link {
	return &Link{nodeBase: makeBase(name, Position{})}
}

func (*Link) Kind() Kind { return KindLink }
func (*Link) children() []Node { return nil }

// Iter declares an iteration domain: a literal list or a block of
// positional items. Its value is the domain element at the index set by a
// [Sweep]; an unset index is -1.
type Iter struct {
	nodeBase

	Domain Node
	index  int
	tie    uint64
}

// iterTies issues the ids that keep copies of one anonymous iterator in the
// same sweep group.
var iterTies atomic.Uint64

func makeIter(name string, pos Position, domain Node) *Iter {
	return &Iter{
		nodeBase: makeBase(name, pos),
		Domain:   domain,
		index:    -1,
		tie:      iterTies.Add(1),
	}
}

// NewIter returns an iterator named name over domain, which must be a
// *Value holding a []any or an *Args without keys.
func NewIter(name string, domain Node) *Iter {
	return makeIter(name, Position{}, domain)
}

func (*Iter) Kind() Kind { return KindIter }

func (it *Iter) children() []Node { return []Node{it.Domain} }

// Index returns the selected element index, or -1.
func (it *Iter) Index() int { return it.index }

// SetIndex selects element i. A negative i clears the selection.
func (it *Iter) SetIndex(i int) {
	if i < 0 {
		i = -1
	}

	it.index = i
}

// Len returns the number of elements in the domain, or -1 if the domain is
// not a list.
func (it *Iter) Len() int {
	switch d := it.Domain.(type) {
	case *Value:
		if list, ok := d.Data.([]any); ok {
			return len(list)
		}
	case *Args:
		return len(d.Items)
	}

	return -1
}

// element returns the selected domain element as a node or a raw value.
func (it *Iter) element() (node Node, value any, err error) {
	n := it.Len()
	if it.index < 0 || it.index >= n {
		return nil, nil, ErrIterIndex.Wrapf("iterator '%s' index %d of %d",
			it.name, it.index, n)
	}

	switch d := it.Domain.(type) {
	case *Args:
		return d.Items[it.index].Node, nil, nil
	case *Value:
		return nil, d.Data.([]any)[it.index], nil
	}

	return nil, nil, ErrIterIndex
}

// Inline is backtick-delimited expression source, evaluated at
// construction time.
type Inline struct {
	nodeBase

	Source string
}

// NewInline returns an inline expression node.
func NewInline(source string) *Inline {
	return &Inline{nodeBase: makeBase("", Position{}), Source: source}
}

func (*Inline) Kind() Kind { return KindInline }
func (*Inline) children() []Node { return nil }

// FString is an interpolated string whose {expression} segments are
// evaluated at construction time.
type FString struct {
	nodeBase

	Text  string
	Quote byte
}

// NewFString returns an f-string node for text.
func NewFString(text string) *FString {
	return &FString{nodeBase: makeBase("", Position{}), Text: text, Quote: '"'}
}

func (*FString) Kind() Kind { return KindFString }
func (*FString) children() []Node { return nil }

// Nothing marks an absent right-hand value.
type Nothing struct{ nodeBase }

// NewNothing returns a Nothing node.
func NewNothing() *Nothing {
	return &Nothing{nodeBase: makeBase("", Position{})}
}

func (*Nothing) Kind() Kind { return KindNothing }
func (*Nothing) children() []Node { return nil }

// NothingValue is the constructed value of a [Nothing] node.
type NothingValue struct{}

// Null is the value Nothing nodes construct to.
var Null = NothingValue{}

// IsNothing reports whether v is the constructed value of a Nothing node.
func IsNothing(v any) bool {
	_, ok := v.(NothingValue)

	return ok
}

// MarshalJSON encodes Nothing as null.
func (NothingValue) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// MarshalYAML encodes Nothing as null.
func (NothingValue) MarshalYAML() (any, error) { return nil, nil }

func (NothingValue) String() string { return "nothing" }

// ---------------------------------------------------------------------------
// Traversal and arena
// ---------------------------------------------------------------------------

// walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the visited node.
func walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}

	for _, c := range n.children() {
		walk(c, fn)
	}
}

// walkPost visits the descendants of n before n itself.
func walkPost(n Node, fn func(Node)) {
	if n == nil {
		return
	}

	for _, c := range n.children() {
		walkPost(c, fn)
	}

	fn(n)
}

// reindex rebuilds the arena and parent indices after structural changes.
func (d *Document) reindex() {
	d.arena = d.arena[:0]

	var visit func(n Node, parent int)

	visit = func(n Node, parent int) {
		if n == nil {
			return
		}

		b := n.base()
		b.id = len(d.arena)
		b.parent = parent
		d.arena = append(d.arena, n)

		for _, c := range n.children() {
			visit(c, b.id)
		}
	}

	visit(d, -1)
}

// Nodes returns an iterator over all nodes in pre-order.
func (d *Document) Nodes() iter.Seq[Node] {
	return slices.Values(d.arena)
}

// owns reports whether n is indexed in d.
func (d *Document) owns(n Node) bool {
	if n == nil {
		return false
	}

	id := n.base().id

	return id >= 0 && id < len(d.arena) && d.arena[id] == n
}

// Parent returns the parent of n, or nil for the root and for nodes not in
// the document.
func (d *Document) Parent(n Node) Node {
	if !d.owns(n) {
		return nil
	}

	p := n.base().parent
	if p < 0 {
		return nil
	}

	return d.arena[p]
}

// Path returns the dotted key path of n: keys for keyed items, indices for
// positional items.
func (d *Document) Path(n Node) string {
	var segs []string

	for cur := n; d.owns(cur); cur = d.Parent(cur) {
		args, ok := d.Parent(cur).(*Args)
		if !ok {
			continue
		}

		pos := 0

		for _, item := range args.Items {
			if item.Node == cur {
				if item.Key != "" {
					segs = append(segs, item.Key)
				} else {
					segs = append(segs, strconv.Itoa(pos))
				}

				break
			}

			if item.Key == "" {
				pos++
			}
		}
	}

	slices.Reverse(segs)

	return joinPath(segs, ".")
}

func joinPath(segs []string, delim string) string {
	out := ""

	for i, s := range segs {
		if i > 0 {
			out += delim
		}

		out += s
	}

	return out
}

// Links returns the link declarations of the document by name.
func (d *Document) Links() map[string]*LinkCreation {
	links := map[string]*LinkCreation{}

	for _, n := range d.arena {
		if lc, ok := n.(*LinkCreation); ok {
			if _, dup := links[lc.name]; !dup {
				links[lc.name] = lc
			}
		}
	}

	return links
}

// Iters returns the iterators of the document in post-order, which is the
// order their declarations complete in the source.
func (d *Document) Iters() []*Iter {
	var iters []*Iter

	walkPost(d.Value, func(n Node) {
		if it, ok := n.(*Iter); ok {
			iters = append(iters, it)
		}
	})

	return iters
}

// Clone returns a deep copy of the document. Iterator indices are copied.
func (d *Document) Clone() *Document {
	c, _ := d.clone().(*Document)

	return c
}

func (d *Document) clone() Node {
	c := &Document{
		nodeBase: d.nodeBase.detached(),
		Value:    cloneNode(d.Value),
		file:     d.file,
		inserts:  slices.Clone(d.inserts),
		opts:     d.opts,
	}
	c.reindex()

	return c
}

func cloneNode(n Node) Node {
	if n == nil {
		return nil
	}

	return n.clone()
}

func (v *Value) clone() Node {
	return &Value{nodeBase: v.nodeBase.detached(), Data: cloneData(v.Data)}
}

func (a *Args) clone() Node {
	items := make([]Item, len(a.Items))
	for i, item := range a.Items {
		items[i] = Item{Key: item.Key, Node: cloneNode(item.Node)}
	}

	return &Args{nodeBase: a.nodeBase.detached(), Items: items}
}

func (t *Tag) clone() Node {
	return &Tag{nodeBase: t.nodeBase.detached(), Value: cloneNode(t.Value)}
}

func (c *Class) clone() Node { return &Class{nodeBase: c.nodeBase.detached()} }

func (l *LinkCreation) clone() Node {
	return &LinkCreation{nodeBase: l.nodeBase.detached(), Value: cloneNode(l.Value)}
}

func (l *Link) clone() Node { return &Link{nodeBase: l.nodeBase.detached()} }

func (it *Iter) clone() Node {
	return &Iter{
		nodeBase: it.nodeBase.detached(),
		Domain:   cloneNode(it.Domain),
		index:    it.index,
		tie:      it.tie,
	}
}

func (e *Inline) clone() Node {
	return &Inline{nodeBase: e.nodeBase.detached(), Source: e.Source}
}

func (f *FString) clone() Node {
	return &FString{nodeBase: f.nodeBase.detached(), Text: f.Text, Quote: f.Quote}
}

func (n *Nothing) clone() Node { return &Nothing{nodeBase: n.nodeBase.detached()} }

// cloneData deep-copies literal lists and maps.
func cloneData(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneData(e)
		}

		return out
	case map[string]any:
		out := maps.Clone(t)
		for k, e := range out {
			out[k] = cloneData(e)
		}

		return out
	default:
		return v
	}
}
