package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/nip/log"
)

// Fmt parses documents and prints them in canonical form.
type Fmt struct {
	Parse `embed:""`

	Write bool     `help:"Write the result to the source file instead of standard output." short:"w"`
	Files []string `arg:"" default:"-" help:"Source file(s) or '-' for stdin." name:"file"`
}

// Run executes the fmt command.
func (f *Fmt) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	out := streamsFrom(ctx).out

	for _, src := range uniqueSources(f.Files) {
		if f.Write && src == stdinSource {
			return ErrWriteStdin
		}

		doc, err := parse(ctx, src, f.options(ctx)...)
		if err != nil {
			return err
		}

		if !f.Write {
			if err := doc.Dump(out); err != nil {
				return err
			}

			continue
		}

		info, err := os.Stat(src)
		if err != nil {
			return err
		}

		if err := os.WriteFile(src, []byte(doc.String()), info.Mode().Perm()); err != nil {
			return err
		}

		log.DebugContext(ctx, "formatted", slog.String("file", src))
	}

	return nil
}
