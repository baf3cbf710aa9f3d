package cmd

import (
	"context"
	"fmt"

	"github.com/ardnew/nip/lang"
)

// Tags lists the registered builders and parser directives.
type Tags struct {
	Env bool `help:"Also list the names predefined in the expression environment." short:"e"`
}

// Run executes the tags command.
func (t *Tags) Run(ctx context.Context) error {
	out := streamsFrom(ctx).out

	for _, tag := range registryFrom(ctx).Tags() {
		fmt.Fprintf(out, "!%s\n", tag)
	}

	for _, d := range lang.Directives() {
		fmt.Fprintf(out, "!!%s\n", d)
	}

	if t.Env {
		for _, name := range lang.BuiltinNames() {
			fmt.Fprintf(out, "`%s`\n", name)
		}
	}

	return nil
}
