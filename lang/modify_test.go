package lang

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDocument_Modify(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"config.nip": "main:\n  first: 1\n  second: &s 2\n  list:\n    - a\n" +
			"note: !echo\n  text: hello\n  comment: none\nref: *s",
	})

	path := filepath.Join(dir, "config.nip")
	ctx := context.Background()

	doc, err := ParseFile(ctx, path)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	edits := []struct {
		name string
		fn   func() error
	}{
		{"replace value", func() error { return doc.Set("main.first", "modified_value") }},
		{"replace link value", func() error { return doc.Set("main.second", []any{1, 3}) }},
		{"add key", func() error { return doc.Set("main.third", map[string]any{"k": true}) }},
		{"append", func() error { return doc.Append("main.list", "b") }},
		{"through tag", func() error { return doc.Set("note.comment", "what a comment!") }},
	}

	for _, e := range edits {
		if err := e.fn(); err != nil {
			t.Fatalf("%s: %v", e.name, err)
		}
	}

	if err := doc.Update(); err != nil {
		t.Fatalf("update error: %v", err)
	}

	again, err := ParseFile(ctx, path)
	if err != nil {
		src, _ := os.ReadFile(path)
		t.Fatalf("parse error after update %q: %v", src, err)
	}

	got, err := again.Construct(ctx, WithRegistry(Builtins()))
	if err != nil {
		t.Fatalf("construct error: %v", err)
	}

	want := map[string]any{
		"main": map[string]any{
			"first":  "modified_value",
			"second": []any{1, 3},
			"third":  map[string]any{"k": true},
			"list":   []any{"a", "b"},
		},
		"note": map[string]any{"text": "hello", "comment": "what a comment!"},
		"ref":  []any{1, 3},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDocument_SetReindexes(t *testing.T) {
	doc := mustParse(t, "a: 1\nb: 2")

	if err := doc.Set("b", NewIter("", NewValue([]any{1, 2}))); err != nil {
		t.Fatalf("set error: %v", err)
	}

	if n := len(doc.Iters()); n != 1 {
		t.Fatalf("expected 1 iterator after set, got %d", n)
	}

	sweep, err := doc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep error: %v", err)
	}

	if sweep.Len() != 2 {
		t.Errorf("expected 2 views, got %d", sweep.Len())
	}
}

func TestDocument_ModifyErrors(t *testing.T) {
	doc := mustParse(t, "main:\n  first: 1\nlist:\n  - a")

	tests := []struct {
		name   string
		fn     func() error
		target error
	}{
		{"not a block", func() error { return doc.Set("main.first.x", 1) }, ErrNodePath},
		{"missing parent", func() error { return doc.Set("missing.x", 1) }, ErrNodePath},
		{"invalid key", func() error { return doc.Set("main.9", 1) }, ErrNodePath},
		{"unsupported value", func() error { return doc.Set("main.first", make(chan int)) }, ErrConvert},
		{"append to scalar", func() error { return doc.Append("main.first", 1) }, ErrNodePath},
		{"update without file", doc.Update, ErrWriteFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			if !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestArgs_Append(t *testing.T) {
	args := NewArgs()

	for _, v := range []any{1, "two", []any{3}} {
		if err := args.Append(v); err != nil {
			t.Fatalf("append %v: %v", v, err)
		}
	}

	got, err := NewDocument("", args).Construct(context.Background())
	if err != nil {
		t.Fatalf("construct error: %v", err)
	}

	if diff := cmp.Diff([]any{1, "two", []any{3}}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
