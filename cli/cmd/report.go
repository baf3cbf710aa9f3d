package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// reporter writes human-readable diagnostics, colored when the destination
// is a terminal.
type reporter struct {
	w       io.Writer
	bad     *color.Color
	good    *color.Color
	name    *color.Color
	snippet *color.Color
}

func newReporter(w io.Writer) reporter {
	r := reporter{
		w:       w,
		bad:     color.New(color.FgRed, color.Bold),
		good:    color.New(color.FgGreen),
		name:    color.New(color.Bold),
		snippet: color.New(color.FgYellow),
	}

	if !isTerminal(w) {
		for _, c := range []*color.Color{r.bad, r.good, r.name, r.snippet} {
			c.DisableColor()
		}
	} else {
		for _, c := range []*color.Color{r.bad, r.good, r.name, r.snippet} {
			c.EnableColor()
		}
	}

	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ok reports a source that passed.
func (r reporter) ok(source string) {
	fmt.Fprintf(r.w, "%s: %s\n", r.name.Sprint(source), r.good.Sprint("ok"))
}

// fail reports err for source. Syntax errors include the offending line
// with a caret under the column.
func (r reporter) fail(source string, err error) {
	fmt.Fprintf(r.w, "%s: %s %s\n", r.name.Sprint(source), r.bad.Sprint("error:"), err)

	var syn interface{ Snippet() string }
	if errors.As(err, &syn) {
		if s := syn.Snippet(); s != "" {
			fmt.Fprintln(r.w, r.snippet.Sprint(strings.TrimRight(s, "\n")))
		}
	}
}

// diff writes one line of a line diff with the given operation marker.
func (r reporter) diff(op byte, line string) {
	switch op {
	case '-':
		fmt.Fprintln(r.w, r.bad.Sprint("-"+line))
	case '+':
		fmt.Fprintln(r.w, r.good.Sprint("+"+line))
	default:
		fmt.Fprintln(r.w, " "+line)
	}
}
