package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/nip/lang"
)

// Load constructs a document and prints the result.
type Load struct {
	Build `embed:""`

	Format string `default:"json" enum:"json,yaml,text" help:"Output format (${enum})."                  short:"F"`
	Indent int    `default:"2"                          help:"Indent width; 0 selects compact output." short:"i"`
	Native bool   `help:"Convert the tree without invoking builders."`

	File string `arg:"" default:"-" help:"Source file or '-' for stdin." name:"file"`
}

// Run executes the load command.
func (l *Load) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	opts := l.options(ctx)

	doc, err := parse(ctx, l.File, opts...)
	if err != nil {
		return err
	}

	var v any
	if l.Native {
		v, err = doc.ToNative()
	} else {
		v, err = doc.Load(ctx, opts...)
	}

	if err != nil {
		return lang.WrapError(err).With(slog.String("file", l.File))
	}

	return format(ctx, streamsFrom(ctx).out, l.Format, l.Indent, v)
}

// format writes v in the named output format.
func format(ctx context.Context, w io.Writer, name string, indent int, v any) error {
	switch name {
	case "json":
		return lang.FormatJSON(ctx, w, v, indent)
	case "yaml":
		return lang.FormatYAML(ctx, w, v, indent)
	case "text":
		return lang.FormatText(ctx, w, v)
	default:
		return ErrFormat.With(slog.String("format", name))
	}
}
