package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/ardnew/nip/lang"
	"github.com/ardnew/nip/log"
	"github.com/ardnew/nip/pkg"
)

// defaultViewMode is the permission mode of written view files.
const defaultViewMode os.FileMode = 0o644

// Sweep enumerates the views of a document's iterators.
type Sweep struct {
	Build `embed:""`

	Out  string `help:"Write each view to DIR/<index>-<hash>.nip instead of printing it." placeholder:"DIR" short:"o" type:"path"`
	Diff bool   `help:"Print each view as a line diff against the previous one."          short:"d"`

	File string `arg:"" default:"-" help:"Source file or '-' for stdin." name:"file"`
}

// Run executes the sweep command.
func (s *Sweep) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	opts := s.options(ctx)

	doc, err := parse(ctx, s.File, opts...)
	if err != nil {
		return err
	}

	sweep, err := doc.Sweep(ctx, opts...)
	if err != nil {
		return err
	}

	if s.Out != "" {
		if err := os.MkdirAll(s.Out, 0o755); err != nil {
			return ErrWriteView.With(slog.String("dir", s.Out)).Wrap(err)
		}
	}

	out := streamsFrom(ctx).out
	rep := newReporter(out)

	var prev string

	for idx, view := range sweep.All() {
		text := view.String()

		switch {
		case s.Out != "":
			path := filepath.Join(s.Out, viewFileName(idx, view.Fingerprint()))

			if err := os.WriteFile(path, []byte(text), defaultViewMode); err != nil {
				return ErrWriteView.With(slog.String("file", path)).Wrap(err)
			}

			log.DebugContext(ctx, "wrote view",
				slog.String("index", idx.String()),
				slog.String("file", path))

			fmt.Fprintln(out, path)

		case s.Diff && prev != "":
			fmt.Fprintf(out, "# view %s\n", idx)

			for _, d := range lineDiff(prev, text) {
				rep.diff(d.op, d.line)
			}

		default:
			fmt.Fprintf(out, "# view %s\n%s", idx, text)
		}

		prev = text
	}

	return nil
}

// viewFileName returns "<i>_<j>...-<hash>.nip" for a view index and its
// fingerprint.
func viewFileName(idx lang.Index, hash uint64) string {
	parts := make([]string, len(idx))
	for i, v := range idx {
		parts[i] = strconv.Itoa(v)
	}

	if len(parts) == 0 {
		parts = []string{"0"}
	}

	return fmt.Sprintf("%s-%016x%s", strings.Join(parts, "_"), hash, pkg.Extension)
}

type diffLine struct {
	op   byte
	line string
}

// lineDiff compares two texts line by line. Unchanged lines have op ' '.
func lineDiff(from, to string) []diffLine {
	dmp := diffmatchpatch.New()

	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []diffLine

	for _, d := range diffs {
		op := byte(' ')

		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = '-'
		case diffmatchpatch.DiffInsert:
			op = '+'
		case diffmatchpatch.DiffEqual:
		}

		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}

			out = append(out, diffLine{op: op, line: strings.TrimSuffix(line, "\n")})
		}
	}

	return out
}
