package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/nip/lang"
)

// writeFile writes content to name in a new temporary directory and returns
// its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

// testContext returns a context whose command output is captured in out.
func testContext(t *testing.T) (context.Context, *bytes.Buffer) {
	t.Helper()

	var out, errOut bytes.Buffer

	ctx := WithStreams(t.Context(), &out, &errOut)

	return WithRegistry(ctx, lang.Builtins()), &out
}

func TestUniqueSources(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.nip")
	b := filepath.Join(dir, "b.nip")
	link := filepath.Join(dir, "link.nip")

	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	if err := os.Symlink(a, link); err != nil {
		t.Fatal(err)
	}

	missing := filepath.Join(dir, "missing.nip")

	got := uniqueSources([]string{"-", a, link, b, "-", a, missing})
	want := []string{a, b, missing, "-"}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("uniqueSources() mismatch (-want +got):\n%s", diff)
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()

	good := writeFile(t, "good.nip", "a: 1\nb:\n  - x\n")
	bad := writeFile(t, "bad.nip", "a: 1\n    b: 2\n")

	ctx, out := testContext(t)

	err := (&Check{Files: []string{good, bad}}).Run(ctx)
	if !errors.Is(err, ErrCheck) {
		t.Fatalf("Check.Run() error = %v, want ErrCheck", err)
	}

	if !errors.Is(err, lang.ErrParse) {
		t.Errorf("Check.Run() error = %v, want wrapped ErrParse", err)
	}

	text := out.String()

	if !strings.Contains(text, good+": ok") {
		t.Errorf("missing ok line for %s in:\n%s", good, text)
	}

	if !strings.Contains(text, bad+": error:") {
		t.Errorf("missing error line for %s in:\n%s", bad, text)
	}

	if !strings.Contains(text, "2 |") {
		t.Errorf("missing source snippet in:\n%s", text)
	}
}

func TestCheck_Quiet(t *testing.T) {
	t.Parallel()

	good := writeFile(t, "good.nip", "a: 1\n")
	ctx, out := testContext(t)

	if err := (&Check{Quiet: true, Files: []string{good}}).Run(ctx); err != nil {
		t.Fatalf("Check.Run() error = %v", err)
	}

	if out.Len() != 0 {
		t.Errorf("expected no output, got %q", out.String())
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	src := writeFile(t, "doc.nip", "x: &x !echo 1\nuse: *x\nlist:\n  - a\n  - 2\n")

	tests := []struct {
		name  string
		cmd   Load
		want  string
		errIs error
	}{
		{
			name: "json_compact",
			cmd:  Load{Format: "json", Indent: 0},
			want: `{"list":["a",2],"use":1,"x":1}` + "\n",
		},
		{
			name: "text",
			cmd:  Load{Format: "text"},
			want: "list:\n  - \"a\"\n  - 2\nuse: 1\nx: 1\n",
		},
		{
			name: "native",
			cmd:  Load{Format: "json", Native: true},
			want: `{"list":["a",2],"use":null,"x":1}` + "\n",
		},
		{
			name:  "bad_format",
			cmd:   Load{Format: "toml"},
			errIs: ErrFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, out := testContext(t)

			cmd := tt.cmd
			cmd.File = src

			err := cmd.Run(ctx)
			if tt.errIs != nil {
				if !errors.Is(err, tt.errIs) {
					t.Fatalf("Load.Run() error = %v, want %v", err, tt.errIs)
				}

				return
			}

			if err != nil {
				t.Fatalf("Load.Run() error = %v", err)
			}

			if diff := cmp.Diff(tt.want, out.String()); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad_YAML(t *testing.T) {
	t.Parallel()

	src := writeFile(t, "doc.nip", "b: x\na: `1 + 2`\n")
	ctx, out := testContext(t)

	if err := (&Load{Format: "yaml", Indent: 2, File: src}).Run(ctx); err != nil {
		t.Fatalf("Load.Run() error = %v", err)
	}

	if diff := cmp.Diff("a: 3\nb: x\n", out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		cmd   Load
		errIs error
	}{
		{
			name:  "unregistered_tag",
			input: "a: !nope 1\n",
			errIs: lang.ErrUnregistered,
		},
		{
			name:  "sequential_forward_link",
			input: "use: *x\nx: &x 1\n",
			cmd:   Load{Build: Build{Sequential: true}},
			errIs: lang.ErrLink,
		},
		{
			name:  "strict_duplicate_key",
			input: "a: 1\na: 2\n",
			cmd:   Load{Build: Build{Parse: Parse{Strict: true}}},
			errIs: lang.ErrParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, _ := testContext(t)

			cmd := tt.cmd
			cmd.Format = "json"
			cmd.File = writeFile(t, "doc.nip", tt.input)

			if err := cmd.Run(ctx); !errors.Is(err, tt.errIs) {
				t.Errorf("Load.Run() error = %v, want %v", err, tt.errIs)
			}
		})
	}
}

func TestSweep(t *testing.T) {
	t.Parallel()

	src := writeFile(t, "doc.nip", "a: @g [1, 2]\nb: @g [3, 4]\n")
	ctx, out := testContext(t)

	if err := (&Sweep{File: src}).Run(ctx); err != nil {
		t.Fatalf("Sweep.Run() error = %v", err)
	}

	want := "# view (0)\na: 1\nb: 3\n# view (1)\na: 2\nb: 4\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestSweep_Diff(t *testing.T) {
	t.Parallel()

	src := writeFile(t, "doc.nip", "a: @ [1, 2]\nb: 3\n")
	ctx, out := testContext(t)

	if err := (&Sweep{File: src, Diff: true}).Run(ctx); err != nil {
		t.Fatalf("Sweep.Run() error = %v", err)
	}

	want := "# view (0)\na: 1\nb: 3\n# view (1)\n-a: 1\n+a: 2\n b: 3\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestSweep_Out(t *testing.T) {
	t.Parallel()

	src := writeFile(t, "doc.nip", "a: @ [1, 2]\nb: @ [\"x\", \"y\"]\n")
	dir := filepath.Join(t.TempDir(), "views")
	ctx, out := testContext(t)

	if err := (&Sweep{File: src, Out: dir}).Run(ctx); err != nil {
		t.Fatalf("Sweep.Run() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	if len(entries) != 4 {
		t.Fatalf("expected 4 view files, got %d", len(entries))
	}

	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".nip") {
			t.Errorf("unexpected file name %q", e.Name())
		}

		doc, err := lang.ParseFile(ctx, filepath.Join(dir, e.Name()))
		if err != nil {
			t.Errorf("view %s does not parse: %v", e.Name(), err)

			continue
		}

		if len(doc.Iters()) != 0 {
			t.Errorf("view %s still has iterators", e.Name())
		}
	}

	if got := strings.Count(out.String(), "\n"); got != 4 {
		t.Errorf("expected 4 written paths, got %d lines", got)
	}
}

func TestSweep_LengthMismatch(t *testing.T) {
	t.Parallel()

	src := writeFile(t, "doc.nip", "a: @g [1, 2]\nb: @g [1, 2, 3]\n")
	ctx, _ := testContext(t)

	if err := (&Sweep{File: src}).Run(ctx); !errors.Is(err, lang.ErrSweep) {
		t.Errorf("Sweep.Run() error = %v, want ErrSweep", err)
	}
}

func TestViewFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		idx  lang.Index
		want string
	}{
		{idx: lang.Index{0, 12}, want: "0_12-00000000000000ff.nip"},
		{idx: lang.Index{}, want: "0-00000000000000ff.nip"},
	}

	for _, tt := range tests {
		if got := viewFileName(tt.idx, 0xff); got != tt.want {
			t.Errorf("viewFileName(%v) = %q, want %q", tt.idx, got, tt.want)
		}
	}
}

func TestLineDiff(t *testing.T) {
	t.Parallel()

	got := lineDiff("a\nb\nc\n", "a\nB\nc\n")
	want := []diffLine{
		{op: ' ', line: "a"},
		{op: '-', line: "b"},
		{op: '+', line: "B"},
		{op: ' ', line: "c"},
	}

	if diff := cmp.Diff(want, got, cmp.AllowUnexported(diffLine{})); diff != "" {
		t.Errorf("lineDiff() mismatch (-want +got):\n%s", diff)
	}
}

func TestFmt(t *testing.T) {
	t.Parallel()

	src := writeFile(t, "doc.nip", "a:    1\nb:\n    - x   # comment\n")

	ctx, out := testContext(t)

	if err := (&Fmt{Files: []string{src}}).Run(ctx); err != nil {
		t.Fatalf("Fmt.Run() error = %v", err)
	}

	want := "a: 1\nb:\n  - \"x\"\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	out.Reset()

	if err := (&Fmt{Write: true, Files: []string{src}}).Run(ctx); err != nil {
		t.Fatalf("Fmt.Run() error = %v", err)
	}

	buf, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(want, string(buf)); diff != "" {
		t.Errorf("rewritten file mismatch (-want +got):\n%s", diff)
	}

	if out.Len() != 0 {
		t.Errorf("expected no output with --write, got %q", out.String())
	}

	if err := (&Fmt{Write: true, Files: []string{"-"}}).Run(ctx); !errors.Is(err, ErrWriteStdin) {
		t.Errorf("Fmt.Run() error = %v, want ErrWriteStdin", err)
	}
}

func TestFlatten(t *testing.T) {
	t.Parallel()

	src := writeFile(t, "doc.nip", "server:\n  host: localhost\n  ports:\n    - 80\n    - 443\nn: `1 + 1`\n")

	tests := []struct {
		name string
		cmd  Flatten
		want string
	}{
		{
			name: "dot",
			cmd:  Flatten{Delim: "."},
			want: "n=2\nserver.host=localhost\nserver.ports.0=80\nserver.ports.1=443\n",
		},
		{
			name: "underscore_native",
			cmd:  Flatten{Delim: "_", Native: true},
			want: "n=1 + 1\nserver_host=localhost\nserver_ports_0=80\nserver_ports_1=443\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, out := testContext(t)

			cmd := tt.cmd
			cmd.File = src

			if err := cmd.Run(ctx); err != nil {
				t.Fatalf("Flatten.Run() error = %v", err)
			}

			if diff := cmp.Diff(tt.want, out.String()); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTags(t *testing.T) {
	t.Parallel()

	ctx, out := testContext(t)

	if err := (&Tags{Env: true}).Run(ctx); err != nil {
		t.Fatalf("Tags.Run() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")

	for _, want := range []string{"!echo", "!range", "!path.prefix", "!!insert", "`env`"} {
		found := false

		for _, l := range lines {
			if l == want {
				found = true

				break
			}
		}

		if !found {
			t.Errorf("missing %q in output:\n%s", want, out.String())
		}
	}
}

func TestErrorIs(t *testing.T) {
	t.Parallel()

	err := ErrWriteConfig.With().Wrap(ErrFileExists)

	if !errors.Is(err, ErrWriteConfig) || !errors.Is(err, ErrFileExists) {
		t.Errorf("errors.Is failed for %v", err)
	}

	if errors.Is(err, ErrCheck) {
		t.Errorf("unexpected match of ErrCheck for %v", err)
	}
}
