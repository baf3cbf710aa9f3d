package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/ardnew/nip/lang"
)

// Flatten prints a constructed document as flattened key/value pairs.
type Flatten struct {
	Build `embed:""`

	Delim  string `default:"." help:"Separator between the segments of a key."`
	Native bool   `help:"Convert the tree without invoking builders."`

	File string `arg:"" default:"-" help:"Source file or '-' for stdin." name:"file"`
}

// Run executes the flatten command.
func (f *Flatten) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	opts := f.options(ctx)

	doc, err := parse(ctx, f.File, opts...)
	if err != nil {
		return err
	}

	var v any
	if f.Native {
		v, err = doc.ToNative()
	} else {
		v, err = doc.Load(ctx, opts...)
	}

	if err != nil {
		return lang.WrapError(err).With(slog.String("file", f.File))
	}

	pairs := lang.FlattenStrings(v, f.Delim)
	out := streamsFrom(ctx).out

	for _, k := range slices.Sorted(maps.Keys(pairs)) {
		fmt.Fprintf(out, "%s=%s\n", k, pairs[k])
	}

	return nil
}
