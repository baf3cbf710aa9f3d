package lang

import (
	"maps"
	"reflect"
	"strconv"
)

// ToNative converts the document to plain Go values without invoking any
// builder or evaluating any expression. Tags are replaced by their
// arguments, classes by their names, links by nil, and expressions by their
// source text. An Args block with keys becomes a map; positional items of a
// mixed block are keyed by their index.
func (d *Document) ToNative() (any, error) { return d.native() }

func nativeOf(n Node) (any, error) {
	if n == nil {
		return nil, nil
	}

	return n.native()
}

func (d *Document) native() (any, error) { return nativeOf(d.Value) }

func (v *Value) native() (any, error) { return cloneData(v.Data), nil }

func (a *Args) native() (any, error) {
	if !a.HasKeys() {
		list := make([]any, 0, len(a.Items))

		for _, item := range a.Items {
			v, err := nativeOf(item.Node)
			if err != nil {
				return nil, err
			}

			list = append(list, v)
		}

		return list, nil
	}

	m := make(map[string]any, len(a.Items))
	pos := 0

	for _, item := range a.Items {
		v, err := nativeOf(item.Node)
		if err != nil {
			return nil, err
		}

		key := item.Key
		if key == "" {
			key = strconv.Itoa(pos)
			pos++
		}

		m[key] = v
	}

	return m, nil
}

func (t *Tag) native() (any, error) { return nativeOf(t.Value) }

func (c *Class) native() (any, error) { return c.name, nil }

func (l *LinkCreation) native() (any, error) { return nativeOf(l.Value) }

func (*Link) native() (any, error) { return nil, nil }

func (it *Iter) native() (any, error) {
	if it.index < 0 {
		return nativeOf(it.Domain)
	}

	node, raw, err := it.element()
	if err != nil {
		return nil, err
	}

	if node != nil {
		return node.native()
	}

	return cloneData(raw), nil
}

func (e *Inline) native() (any, error) { return e.Source, nil }

func (f *FString) native() (any, error) { return f.Text, nil }

func (*Nothing) native() (any, error) { return nil, nil }

// Flatten flattens nested maps, slices, and [Pair] values into a single map
// whose keys join the path segments with delim. Slice elements are keyed by
// index. Empty containers are kept as leaves.
func Flatten(v any, delim string) map[string]any {
	out := map[string]any{}
	flatten(out, nil, v, delim)

	return out
}

func flatten(out map[string]any, prefix []string, v any, delim string) {
	key := joinPath(prefix, delim)

	switch t := v.(type) {
	case Pair:
		for i, e := range t.Args {
			flatten(out, append(prefix, strconv.Itoa(i)), e, delim)
		}

		for _, k := range sortedKeys(t.Kwargs) {
			flatten(out, append(prefix, k), t.Kwargs[k], delim)
		}

		if len(t.Args) == 0 && len(t.Kwargs) == 0 && key != "" {
			out[key] = t
		}

		return
	case map[string]any:
		if len(t) == 0 && key != "" {
			out[key] = maps.Clone(t)
		}

		for _, k := range sortedKeys(t) {
			flatten(out, append(prefix, k), t[k], delim)
		}

		return
	}

	rv := reflect.ValueOf(v)
	if v != nil && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) &&
		rv.Type().Elem().Kind() != reflect.Uint8 {
		if rv.Len() == 0 && key != "" {
			out[key] = v
		}

		for i := range rv.Len() {
			flatten(out, append(prefix, strconv.Itoa(i)), rv.Index(i).Interface(), delim)
		}

		return
	}

	out[key] = v
}

// FlattenStrings is like [Flatten] with every leaf formatted as a string.
func FlattenStrings(v any, delim string) map[string]string {
	flat := Flatten(v, delim)
	out := make(map[string]string, len(flat))

	for k, e := range flat {
		out[k] = formatScalar(e)
	}

	return out
}
