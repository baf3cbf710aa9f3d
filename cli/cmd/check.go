package cmd

import (
	"context"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/ardnew/nip/log"
)

// Check parses documents and reports syntax errors.
type Check struct {
	Parse `embed:""`

	Quiet bool     `help:"Report failures only."                     short:"q"`
	Files []string `arg:"" default:"-" help:"Source file(s) or '-' for stdin." name:"file"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	s := streamsFrom(ctx)
	rep := newReporter(s.out)

	var result *multierror.Error

	for _, src := range uniqueSources(c.Files) {
		if _, perr := parse(ctx, src, c.options(ctx)...); perr != nil {
			rep.fail(src, perr)
			result = multierror.Append(result, perr)

			continue
		}

		log.DebugContext(ctx, "checked", slog.String("source", src))

		if !c.Quiet {
			rep.ok(src)
		}
	}

	if result != nil {
		return ErrCheck.
			With(slog.Int("failed", result.Len())).
			Wrap(result.ErrorOrNil())
	}

	return nil
}
