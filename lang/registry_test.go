package lang

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	one := BuilderFunc(func([]any, map[string]any) (any, error) { return 1, nil })
	two := BuilderFunc(func([]any, map[string]any) (any, error) { return 2, nil })

	if err := r.Register("num", one); err != nil {
		t.Fatalf("register error: %v", err)
	}

	if err := r.Register("num", two); !errors.Is(err, ErrRegistered) {
		t.Errorf("expected ErrRegistered, got %v", err)
	}

	if err := r.Rewrite("num", two); err != nil {
		t.Fatalf("rewrite error: %v", err)
	}

	b, ok := r.Lookup("num")
	if !ok {
		t.Fatal("expected builder for 'num'")
	}

	if v, _ := b.Build(nil, nil); v != 2 {
		t.Errorf("expected rewritten builder, got %v", v)
	}

	for _, tag := range []string{"", "1x", "a b"} {
		if err := r.Register(tag, one); !errors.Is(err, ErrBuilderArgs) {
			t.Errorf("Register(%q): expected ErrBuilderArgs, got %v", tag, err)
		}
	}

	if err := r.Register("nil", nil); !errors.Is(err, ErrBuilderArgs) {
		t.Errorf("expected ErrBuilderArgs for nil builder, got %v", err)
	}

	_ = r.Register("a.b", one)

	if diff := cmp.Diff([]string{"a.b", "num"}, r.Tags()); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}

	c := r.Clone()
	_ = c.Register("extra", one)

	if _, ok := r.Lookup("extra"); ok {
		t.Error("registering on a clone affected the original")
	}
}

func TestRegistry_MustRegisterPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()

	NewRegistry().
		MustRegister("x", BuilderFunc(echo)).
		MustRegister("x", BuilderFunc(echo))
}

func TestFunc_Build(t *testing.T) {
	greet := Func(func(name string, times int) string {
		return strings.Repeat("hi "+name+" ", times)
	}, "name", "times")

	concat := Func(func(sep string, parts ...string) string {
		return strings.Join(parts, sep)
	}, "sep")

	small := Func(func(n uint8) uint8 { return n }, "n")
	half := Func(func(f float64) float64 { return f / 2 }, "f")

	fail := Func(func(v int) (int, error) {
		if v < 0 {
			return 0, errors.New("negative")
		}

		return v, nil
	}, "v")

	tests := []struct {
		name    string
		b       Builder
		args    []any
		kwargs  map[string]any
		want    any
		wantErr string
	}{
		{"positional", greet, []any{"a", 2}, nil, "hi a hi a ", ""},
		{"keyword", greet, nil, map[string]any{"name": "b", "times": 1}, "hi b ", ""},
		{"mixed", greet, []any{"c"}, map[string]any{"times": 1}, "hi c ", ""},
		{"missing gets zero", greet, []any{"d"}, nil, "", ""},
		{"float to int", greet, []any{"e", 1.0}, nil, "hi e ", ""},
		{"fractional float", greet, []any{"e", 1.5}, nil, nil, "times: float64 1.5 does not fit int"},
		{"uint8 in range", small, []any{200}, nil, uint8(200), ""},
		{"uint8 overflow", small, []any{300}, nil, nil, "int 300 does not fit uint8"},
		{"uint8 negative", small, []any{-1}, nil, nil, "int -1 does not fit uint8"},
		{"int to float", half, []any{3}, nil, 1.5, ""},
		{"variadic", concat, []any{"-", "x", "y", "z"}, nil, "x-y-z", ""},
		{"nothing is zero", concat, []any{Null}, nil, "", ""},
		{"too many", greet, []any{"a", 1, 2}, nil, nil, "too many positional arguments: 3 > 2"},
		{"unknown keyword", greet, nil, map[string]any{"nope": 1}, nil, "unexpected keyword argument 'nope'"},
		{"duplicate", greet, []any{"a"}, map[string]any{"name": "b"}, nil, "multiple values for argument 'name'"},
		{"bad type", greet, []any{1}, nil, nil, "name: int is not assignable to string"},
		{"bad variadic", concat, []any{"-", 1}, nil, nil, "variadic argument 0"},
		{"returned error", fail, []any{-1}, nil, nil, "negative"},
		{"returned value", fail, []any{4}, nil, 4, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.b.Build(tt.args, tt.kwargs)

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFunc_Signature(t *testing.T) {
	b := Func(func(a int, b []string, c ...float64) bool { return true }, "a", "b")

	sig := b.(Typed).Signature()

	want := Signature{
		Params: []Param{
			{Name: "a", Type: reflect.TypeFor[int]()},
			{Name: "b", Type: reflect.TypeFor[[]string]()},
		},
		Variadic: reflect.TypeFor[float64](),
	}

	if diff := cmp.Diff(want, sig, cmp.Comparer(func(x, y reflect.Type) bool { return x == y })); diff != "" {
		t.Errorf("signature mismatch (-want +got):\n%s", diff)
	}
}

func TestFunc_Panics(t *testing.T) {
	for _, fn := range []any{42, func() {}, func() (int, int) { return 0, 0 }} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("expected Func(%T) to panic", fn)
				}
			}()

			Func(fn)
		}()
	}
}

func TestFunc_ConvertsContainers(t *testing.T) {
	b := Func(func(xs []int, m map[string]float64) float64 {
		total := 0.0
		for _, x := range xs {
			total += float64(x)
		}

		for _, v := range m {
			total += v
		}

		return total
	}, "xs", "m")

	got, err := b.Build([]any{[]any{1, 2}}, map[string]any{"m": map[string]any{"a": 3, "b": 0.5}})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}

	if got != 6.5 {
		t.Errorf("expected 6.5, got %v", got)
	}
}

func TestSignatureChecker(t *testing.T) {
	b := Func(func(name string, n int, tags ...string) string { return name }, "name", "n")

	tests := []struct {
		name   string
		args   []any
		kwargs map[string]any
		want   []string
	}{
		{"match", []any{"x", 1, "a"}, nil, nil},
		{"numbers convert", []any{"x", 2.0}, nil, nil},
		{"fraction", []any{"x", 1.5}, nil, []string{"n: float64 1.5 does not fit int"}},
		{"overflow", []any{"x", uint64(math.MaxUint64)}, nil, []string{"n: uint64 18446744073709551615 does not fit int"}},
		{"nothing is accepted", []any{Null, nil}, nil, nil},
		{"positional mismatch", []any{1}, nil, []string{"name: int is not an instance of string"}},
		{"keyword mismatch", nil, map[string]any{"n": "one"}, []string{"n: string is not an instance of int"}},
		{"variadic mismatch", []any{"x", 1, true}, nil, []string{"argument 2: bool is not an instance of string"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SignatureChecker{}.Check(b, tt.args, tt.kwargs)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if got := (SignatureChecker{}).Check(BuilderFunc(echo), []any{1}, nil); got != nil {
		t.Errorf("expected untyped builders to pass, got %v", got)
	}
}
