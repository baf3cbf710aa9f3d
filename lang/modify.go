package lang

import (
	"os"
	"strings"
)

// Set replaces the node at path with the tree converted from v. When the
// last segment of path names no item, a keyed item is added to the block
// holding it. A link declaration at path keeps its name and takes the new
// value, so links to it stay valid.
func (d *Document) Set(path string, v any) error {
	n, err := Convert(v)
	if err != nil {
		return err
	}

	if path == "" {
		d.Value = n
		d.reindex()

		return nil
	}

	segs := strings.Split(path, ".")
	cur := d.Value

	for {
		args, ok := unwrap(cur).(*Args)
		if !ok {
			return ErrNodePath.Wrapf("'%s' is not a block", strings.Join(segs, "."))
		}

		next, used := lookupItem(args, segs)

		switch {
		case used == len(segs):
			args.replace(next, n)
		case used == 0 && len(segs) == 1:
			if !IsName(segs[0]) {
				return ErrNodePath.Wrapf("invalid key '%s'", segs[0])
			}

			args.set(segs[0], n)
		case used == 0:
			return ErrNodePath.Wrapf("no item '%s'", segs[0])
		default:
			cur, segs = next, segs[used:]

			continue
		}

		d.reindex()

		return nil
	}
}

// Append converts v and adds it as a positional item of the block at path.
func (d *Document) Append(path string, v any) error {
	n, err := d.Lookup(path)
	if err != nil {
		return err
	}

	args, ok := unwrap(n).(*Args)
	if !ok {
		return ErrNodePath.Wrapf("'%s' is not a block", path)
	}

	if err := args.Append(v); err != nil {
		return err
	}

	d.reindex()

	return nil
}

// Append converts v and adds it as a positional item. Use [Document.Append]
// for blocks already held by a document.
func (a *Args) Append(v any) error {
	n, err := Convert(v)
	if err != nil {
		return err
	}

	a.Items = append(a.Items, Item{Node: n})

	return nil
}

// Update writes the dump of d back to the file it was parsed from.
func (d *Document) Update() error {
	if d.file == "" {
		return ErrWriteFile.Wrapf("document '%s' was not read from a file", d.Name())
	}

	if err := os.WriteFile(d.file, []byte(d.String()), 0o644); err != nil { //nolint:gosec
		return ErrWriteFile.Wrap(err)
	}

	return nil
}
