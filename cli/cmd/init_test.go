package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/nip/lang"
)

type level string

// TestInitRun tests the Init.Run command.
func TestInitRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		force   bool
		setup   func(t *testing.T, path string)
		wantErr error
	}{
		{
			name: "create_new_config",
		},
		{
			name:  "overwrite_existing_with_force",
			force: true,
			setup: func(t *testing.T, path string) {
				if err := os.WriteFile(path, []byte("existing content"), 0o600); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "fail_without_force",
			setup: func(t *testing.T, path string) {
				if err := os.WriteFile(path, []byte("existing content"), 0o600); err != nil {
					t.Fatal(err)
				}
			},
			wantErr: ErrFileExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			confPath := filepath.Join(t.TempDir(), "config.nip")

			if tt.setup != nil {
				tt.setup(t, confPath)
			}

			var cli struct {
				Level  level  `default:"info"`
				Pretty bool   `default:"true"`
				Tags   []string
			}

			parser, err := kong.New(&cli, kong.Vars{ConfigIdentifier: confPath})
			if err != nil {
				t.Fatal(err)
			}

			kctx, err := parser.Parse(nil)
			if err != nil {
				t.Fatal(err)
			}

			ctx := WithContext(context.Background(), kctx)

			err = (&Init{Force: tt.force}).Run(ctx)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Init.Run() error = %v, want %v", err, tt.wantErr)
				}

				if !errors.Is(err, ErrWriteConfig) {
					t.Errorf("Init.Run() error = %v, want ErrWriteConfig", err)
				}

				return
			}

			if err != nil {
				t.Fatalf("Init.Run() error = %v", err)
			}

			got, err := lang.LoadFile(ctx, confPath, lang.WithRegistry(lang.Builtins()))
			if err != nil {
				t.Fatalf("generated config does not load: %v", err)
			}

			want := map[string]any{"level": "info", "pretty": true}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInitBuildDocument(t *testing.T) {
	t.Parallel()

	var cli struct {
		Verbose  bool     `help:"Enable verbose output"`
		Output   string   `help:"Output file"`
		Count    int      `help:"Number of items"`
		Ratio    float64  `help:"A ratio"`
		LogLevel string   `help:"Log level"`
		Paths    []string `help:"Paths"`
	}

	parser, err := kong.New(&cli)
	if err != nil {
		t.Fatal(err)
	}

	kctx, err := parser.Parse([]string{
		"--verbose", "--output=test.txt", "--count=5", "--ratio=0.5",
		"--log-level=debug", "--paths=a,b",
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithContext(context.Background(), kctx)

	doc, err := (&Init{}).buildDocument(ctx)
	if err != nil {
		t.Fatalf("buildDocument() error = %v", err)
	}

	got, err := doc.ToNative()
	if err != nil {
		t.Fatalf("ToNative() error = %v", err)
	}

	want := map[string]any{
		"verbose":   true,
		"output":    "test.txt",
		"count":     5,
		"ratio":     0.5,
		"log_level": "debug",
		"paths":     []any{"a", "b"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestFlagValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     any
		want   any
		wantOK bool
	}{
		{name: "nil", in: nil},
		{name: "bool", in: false, want: false, wantOK: true},
		{name: "string", in: "x", want: "x", wantOK: true},
		{name: "empty_string", in: ""},
		{name: "named_string", in: level("warn"), want: "warn", wantOK: true},
		{name: "int64", in: int64(7), want: 7, wantOK: true},
		{name: "uint", in: uint(3), want: 3, wantOK: true},
		{name: "float32", in: float32(0.5), want: 0.5, wantOK: true},
		{name: "slice", in: []int{1, 2}, want: []any{1, 2}, wantOK: true},
		{name: "empty_slice", in: []string{}},
		{name: "slice_of_empty", in: []string{""}},
		{name: "map", in: map[string]int{"a": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := flagValue(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("flagValue(%#v) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("flagValue(%#v) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}
