package lang

import (
	"context"
	"io"
	"log/slog"
)

// Load parses the document read from r and constructs it. If the document
// declares iterators, or [WithAlwaysIter] is given, the result is a []any
// holding the constructed value of every sweep view in enumeration order.
func Load(ctx context.Context, r io.Reader, opts ...Option) (any, error) {
	doc, err := ParseReader(ctx, r, opts...)
	if err != nil {
		return nil, err
	}

	return doc.Load(ctx, opts...)
}

// LoadFile is like [Load] for the named file.
func LoadFile(ctx context.Context, path string, opts ...Option) (any, error) {
	doc, err := ParseFile(ctx, path, opts...)
	if err != nil {
		return nil, err
	}

	return doc.Load(ctx, opts...)
}

// Load constructs the document, or every view of its sweep; see [Load].
func (d *Document) Load(ctx context.Context, opts ...Option) (any, error) {
	return d.each(ctx, opts, func(v any) (any, error) { return v, nil })
}

// Run constructs the document, or every view of its sweep, and calls fn
// with each constructed value as its arguments: a map supplies keyword
// arguments, a list supplies positional arguments, a [Pair] supplies both,
// and any other value is the single positional argument. The result has the
// shape of [Load]'s.
func Run(ctx context.Context, doc *Document, fn Builder, opts ...Option) (any, error) {
	return doc.each(ctx, opts, func(v any) (any, error) {
		args, kwargs := spread(v)

		return invoke(fn, args, kwargs)
	})
}

// spread splits a constructed value into builder arguments.
func spread(v any) ([]any, map[string]any) {
	switch t := v.(type) {
	case Pair:
		return t.Args, t.Kwargs
	case map[string]any:
		return nil, t
	case []any:
		return t, nil
	case NothingValue, nil:
		return nil, nil
	default:
		return []any{v}, nil
	}
}

func (d *Document) each(
	ctx context.Context,
	opts []Option,
	fn func(any) (any, error),
) (any, error) {
	o := d.opts.with(opts...)

	if len(d.Iters()) == 0 && !o.alwaysIter {
		v, err := d.Construct(ctx, opts...)
		if err != nil {
			return nil, err
		}

		return fn(v)
	}

	sweep, err := d.Sweep(ctx, opts...)
	if err != nil {
		return nil, err
	}

	out := make([]any, 0, sweep.Len())

	for idx, view := range sweep.All() {
		v, err := view.Construct(ctx, opts...)
		if err != nil {
			return nil, WrapError(err).With(slog.String("view", idx.String()))
		}

		if v, err = fn(v); err != nil {
			return nil, WrapError(err).With(slog.String("view", idx.String()))
		}

		out = append(out, v)
	}

	return out, nil
}
