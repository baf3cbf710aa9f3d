package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/nip/cli/cmd"
	"github.com/ardnew/nip/lang"
)

// run parses args with a configuration file holding src, then runs the
// selected command and returns its output.
func run(t *testing.T, src string, args ...string) (string, error) {
	t.Helper()

	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.nip")

	if src != "" {
		if err := os.WriteFile(configFile, []byte(src), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	var (
		cli CLI
		out bytes.Buffer
	)

	ctx := t.Context()

	parser, err := newParser(func() context.Context { return ctx }, &cli, configFile,
		kong.Writers(&out, &out),
		kong.Exit(func(int) { t.Fatalf("unexpected exit") }),
	)
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithStreams(ctx, ktx.Stdout, ktx.Stderr)
	ctx = cmd.WithRegistry(ctx, lang.Builtins())

	err = ktx.Run(ctx, &cli)

	return out.String(), err
}

func writeDoc(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "doc.nip")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestCLI_Commands(t *testing.T) {
	doc := writeDoc(t, "x: &x !sum\n  - 1\n  - 2\ny: *x\n")

	tests := []struct {
		name   string
		config string
		args   []string
		want   string
	}{
		{
			name: "load",
			args: []string{"load", "--indent=0", doc},
			want: `{"x":3,"y":3}` + "\n",
		},
		{
			name: "default command",
			args: []string{doc},
			want: "{\n  \"x\": 3,\n  \"y\": 3\n}\n",
		},
		{
			name:   "format from config",
			config: "format: text\n",
			args:   []string{"load", doc},
			want:   "x: 3\ny: 3\n",
		},
		{
			name:   "flag overrides config",
			config: "load:\n  format: text\nformat: text\n",
			args:   []string{"load", "--format=json", "-i", "0", doc},
			want:   `{"x":3,"y":3}` + "\n",
		},
		{
			name: "fmt",
			args: []string{"fmt", doc},
			want: "x: &x !sum\n  - 1\n  - 2\ny: *x\n",
		},
		{
			name: "flatten",
			args: []string{"flatten", "--delim=/", doc},
			want: "x=3\ny=3\n",
		},
		{
			name: "check",
			args: []string{"check", doc},
			want: doc + ": ok\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, tt.config, tt.args...)
			if err != nil {
				t.Fatalf("run(%v) error = %v", tt.args, err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCLI_Init(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.nip")

	var (
		cli CLI
		out bytes.Buffer
	)

	ctx := t.Context()

	parser, err := newParser(func() context.Context { return ctx }, &cli, configFile,
		kong.Writers(&out, &out),
	)
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse([]string{"init", "--log-format=json"})
	if err != nil {
		t.Fatal(err)
	}

	ctx = cmd.WithContext(ctx, ktx)

	if err := ktx.Run(ctx, &cli); err != nil {
		t.Fatalf("init error = %v", err)
	}

	v, err := lang.LoadFile(ctx, configFile, lang.WithRegistry(lang.Builtins()))
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}

	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("generated config is %T, want map", v)
	}

	if m["log_format"] != "json" || m["log_level"] != "info" {
		t.Errorf("unexpected config %v", m)
	}
}

func TestCLI_ParseErrors(t *testing.T) {
	if _, err := run(t, "", "load", "--format=toml", "x.nip"); err == nil {
		t.Error("expected enum error for --format")
	}

	if _, err := run(t, "", "nope-command-or-missing-file.nip"); err == nil {
		t.Error("expected error for missing file")
	}
}
