package lang

import (
	"log/slog"
	"reflect"
	"strconv"
	"strings"
)

// Nodeable is implemented by values that convert themselves to a tree.
type Nodeable interface {
	Node() (Node, error)
}

// Convert turns a Go value into a tree that dumps to equivalent source.
// Maps with string keys become keyed Args and slices become positional
// Args, except that empty ones become literal Values. A [Pair] becomes a
// mixed Args, and scalars become Values. Map keys must be valid names.
func Convert(v any) (Node, error) {
	switch t := v.(type) {
	case nil, NothingValue:
		return NewNothing(), nil
	case Node:
		return cloneNode(t), nil
	case Nodeable:
		return t.Node()
	case Pair:
		items := make([]Item, 0, len(t.Args)+len(t.Kwargs))

		for _, e := range t.Args {
			n, err := Convert(e)
			if err != nil {
				return nil, err
			}

			items = append(items, Item{Node: n})
		}

		for _, k := range sortedKeys(t.Kwargs) {
			n, err := convertKeyed(k, t.Kwargs[k])
			if err != nil {
				return nil, err
			}

			items = append(items, Item{Key: k, Node: n})
		}

		return NewArgs(items...), nil
	case string, bool, int, float64:
		return NewValue(t), nil
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return NewNothing(), nil
		}

		return Convert(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewValue(int(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return NewValue(int(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return NewValue(rv.Float()), nil
	case reflect.Bool:
		return NewValue(rv.Bool()), nil
	case reflect.String:
		return NewValue(rv.String()), nil
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return NewValue([]any{}), nil
		}

		items := make([]Item, rv.Len())

		for i := range rv.Len() {
			n, err := Convert(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}

			items[i] = Item{Node: n}
		}

		return NewArgs(items...), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}

		if rv.Len() == 0 {
			return NewValue(map[string]any{}), nil
		}

		values := make(map[string]any, rv.Len())

		iter := rv.MapRange()
		for iter.Next() {
			values[iter.Key().String()] = iter.Value().Interface()
		}

		items := make([]Item, 0, len(values))

		for _, k := range sortedKeys(values) {
			n, err := convertKeyed(k, values[k])
			if err != nil {
				return nil, err
			}

			items = append(items, Item{Key: k, Node: n})
		}

		return NewArgs(items...), nil
	}

	return nil, ErrConvert.With(slog.String("type", reflect.TypeOf(v).String()))
}

func convertKeyed(key string, v any) (Node, error) {
	if !IsName(key) {
		return nil, ErrConvert.Wrapf("invalid key %q", key)
	}

	return Convert(v)
}

// ConvertDocument is like [Convert] and wraps the tree in a document.
func ConvertDocument(name string, v any) (*Document, error) {
	n, err := Convert(v)
	if err != nil {
		return nil, err
	}

	return NewDocument(name, n), nil
}

// Lookup returns the node at path, a sequence of keys and positional
// indices separated by '.'. Tags, link declarations, selected iterator
// elements, and the document root are traversed transparently. Because
// names may contain '.', the longest matching key wins.
func (d *Document) Lookup(path string) (Node, error) {
	var segs []string
	if path != "" {
		segs = strings.Split(path, ".")
	}

	n := d.Value

	for len(segs) > 0 {
		args, ok := unwrap(n).(*Args)
		if !ok {
			return nil, ErrNodePath.Wrapf("'%s' is not a block", strings.Join(segs, "."))
		}

		next, used := lookupItem(args, segs)
		if used == 0 {
			return nil, ErrNodePath.Wrapf("no item '%s'", segs[0])
		}

		n, segs = next, segs[used:]
	}

	return n, nil
}

// unwrap descends through nodes that wrap a single value.
func unwrap(n Node) Node {
	for {
		switch t := n.(type) {
		case *Tag:
			n = t.Value
		case *LinkCreation:
			n = t.Value
		case *Document:
			n = t.Value
		case *Iter:
			node, _, err := t.element()
			if err != nil || node == nil {
				return n
			}

			n = node
		default:
			return n
		}
	}
}

// lookupItem matches the longest key prefix of segs, or a positional index.
func lookupItem(a *Args, segs []string) (Node, int) {
	for used := len(segs); used > 0; used-- {
		if n, ok := a.Get(strings.Join(segs[:used], ".")); ok {
			return n, used
		}
	}

	i, err := strconv.Atoi(segs[0])
	if err != nil || i < 0 {
		return nil, 0
	}

	if pos := a.Positional(); i < len(pos) {
		return pos[i], 1
	}

	return nil, 0
}
