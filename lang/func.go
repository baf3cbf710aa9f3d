package lang

import (
	"fmt"
	"math"
	"reflect"
)

// Param describes one parameter of a builder.
type Param struct {
	Name string
	Type reflect.Type
}

// Signature describes the parameters a builder accepts. Variadic is the
// element type of a trailing variadic parameter, or nil.
type Signature struct {
	Params   []Param
	Variadic reflect.Type
}

// Typed is implemented by builders that declare a [Signature].
type Typed interface {
	Signature() Signature
}

// funcBuilder adapts an arbitrary Go function to [Builder].
type funcBuilder struct {
	fn    reflect.Value
	sig   Signature
	names map[string]int
}

var errorType = reflect.TypeFor[error]()

// Func returns a Builder that calls fn, which must be a function returning
// one value, or one value and an error. Positional arguments fill the
// parameters in order; keyword arguments fill the parameter with the
// matching name from names, given in parameter order. Arguments are
// converted to the parameter types where Go allows the conversion.
//
// Func panics if fn is not a function of that shape.
func Func(fn any, names ...string) Builder {
	v := reflect.ValueOf(fn)
	t := v.Type()

	if t.Kind() != reflect.Func {
		panic(fmt.Sprintf("lang.Func: %T is not a function", fn))
	}

	switch {
	case t.NumOut() == 1:
	case t.NumOut() == 2 && t.Out(1) == errorType:
	default:
		panic(fmt.Sprintf("lang.Func: %T must return (T) or (T, error)", fn))
	}

	fixed := t.NumIn()

	var sig Signature

	if t.IsVariadic() {
		fixed--
		sig.Variadic = t.In(fixed).Elem()
	}

	b := &funcBuilder{fn: v, names: map[string]int{}}

	for i := range fixed {
		p := Param{Type: t.In(i)}
		if i < len(names) {
			p.Name = names[i]
			b.names[p.Name] = i
		}

		sig.Params = append(sig.Params, p)
	}

	b.sig = sig

	return b
}

// Signature implements [Typed].
func (b *funcBuilder) Signature() Signature { return b.sig }

// Build implements [Builder].
func (b *funcBuilder) Build(args []any, kwargs map[string]any) (any, error) {
	in, err := b.bind(args, kwargs)
	if err != nil {
		return nil, err
	}

	out := b.fn.Call(in)

	if len(out) == 2 && !out[1].IsNil() {
		err, _ := out[1].Interface().(error)

		return nil, err
	}

	return out[0].Interface(), nil
}

// bind maps arguments to call values.
func (b *funcBuilder) bind(args []any, kwargs map[string]any) ([]reflect.Value, error) {
	fixed := len(b.sig.Params)
	slots := make([]any, fixed)
	set := make([]bool, fixed)

	var extra []any

	for i, a := range args {
		if i < fixed {
			slots[i], set[i] = a, true

			continue
		}

		if b.sig.Variadic == nil {
			return nil, ErrBuilderArgs.Wrapf("too many positional arguments: %d > %d",
				len(args), fixed)
		}

		extra = append(extra, a)
	}

	for _, key := range sortedKeys(kwargs) {
		i, ok := b.names[key]
		if !ok {
			return nil, ErrBuilderArgs.Wrapf("unexpected keyword argument '%s'", key)
		}

		if set[i] {
			return nil, ErrBuilderArgs.Wrapf("multiple values for argument '%s'", key)
		}

		slots[i], set[i] = kwargs[key], true
	}

	in := make([]reflect.Value, 0, fixed+len(extra))

	for i, p := range b.sig.Params {
		if !set[i] {
			in = append(in, reflect.Zero(p.Type))

			continue
		}

		v, err := convertArg(slots[i], p.Type)
		if err != nil {
			return nil, ErrBuilderArgs.Wrapf("%s: %v", paramLabel(p, i), err)
		}

		in = append(in, v)
	}

	for i, a := range extra {
		v, err := convertArg(a, b.sig.Variadic)
		if err != nil {
			return nil, ErrBuilderArgs.Wrapf("variadic argument %d: %v", i, err)
		}

		in = append(in, v)
	}

	return in, nil
}

func paramLabel(p Param, i int) string {
	if p.Name != "" {
		return p.Name
	}

	return fmt.Sprintf("argument %d", i)
}

// convertArg converts a constructed value to type t.
func convertArg(a any, t reflect.Type) (reflect.Value, error) {
	if a == nil || IsNothing(a) {
		return reflect.Zero(t), nil
	}

	v := reflect.ValueOf(a)

	switch {
	case v.Type().AssignableTo(t):
		return v, nil
	case isNumberKind(v.Kind()) && isNumberKind(t.Kind()):
		return convertNumber(v, t)
	case v.Kind() == reflect.Slice && t.Kind() == reflect.Slice:
		out := reflect.MakeSlice(t, v.Len(), v.Len())

		for i := range v.Len() {
			e, err := convertArg(v.Index(i).Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("[%d]: %w", i, err)
			}

			out.Index(i).Set(e)
		}

		return out, nil
	case v.Kind() == reflect.Map && t.Kind() == reflect.Map &&
		v.Type().Key().AssignableTo(t.Key()):
		out := reflect.MakeMapWithSize(t, v.Len())

		iter := v.MapRange()
		for iter.Next() {
			e, err := convertArg(iter.Value().Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("[%v]: %w", iter.Key(), err)
			}

			out.SetMapIndex(iter.Key(), e)
		}

		return out, nil
	}

	return reflect.Value{}, fmt.Errorf("%s is not assignable to %s", v.Type(), t)
}

// convertNumber converts v to the numeric type t only when the value is kept
// exactly: no truncated fraction, no overflow, no negative unsigned.
func convertNumber(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	lossy := fmt.Errorf("%s %v does not fit %s", v.Type(), v, t)

	switch {
	case v.CanInt():
		n := v.Int()

		switch {
		case out.CanInt():
			if out.OverflowInt(n) {
				return reflect.Value{}, lossy
			}

			out.SetInt(n)
		case out.CanUint():
			if n < 0 || out.OverflowUint(uint64(n)) {
				return reflect.Value{}, lossy
			}

			out.SetUint(uint64(n))
		default:
			out.SetFloat(float64(n))
		}
	case v.CanUint():
		n := v.Uint()

		switch {
		case out.CanInt():
			if n > math.MaxInt64 || out.OverflowInt(int64(n)) {
				return reflect.Value{}, lossy
			}

			out.SetInt(int64(n))
		case out.CanUint():
			if out.OverflowUint(n) {
				return reflect.Value{}, lossy
			}

			out.SetUint(n)
		default:
			out.SetFloat(float64(n))
		}
	default:
		f := v.Float()

		switch {
		case out.CanFloat():
			if out.OverflowFloat(f) {
				return reflect.Value{}, lossy
			}

			out.SetFloat(f)
		case math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f):
			return reflect.Value{}, lossy
		case out.CanInt():
			if f < math.MinInt64 || f >= math.MaxInt64 || out.OverflowInt(int64(f)) {
				return reflect.Value{}, lossy
			}

			out.SetInt(int64(f))
		default:
			if f < 0 || f >= math.MaxUint64 || out.OverflowUint(uint64(f)) {
				return reflect.Value{}, lossy
			}

			out.SetUint(uint64(f))
		}
	}

	return out, nil
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// SignatureChecker is a [TypeChecker] for builders implementing [Typed].
// Builders without a signature are not checked.
type SignatureChecker struct{}

// Check implements [TypeChecker]. It reports an argument whose value is not
// assignable to its parameter type. A number is accepted for a numeric
// parameter only when it converts without loss.
func (SignatureChecker) Check(b Builder, args []any, kwargs map[string]any) []string {
	typed, ok := b.(Typed)
	if !ok {
		return nil
	}

	sig := typed.Signature()

	var mismatches []string

	report := func(label string, a any, t reflect.Type) {
		if a == nil || IsNothing(a) || t == nil {
			return
		}

		at := reflect.TypeOf(a)
		if at.AssignableTo(t) {
			return
		}

		_, err := convertArg(a, t)
		if err == nil {
			return
		}

		if isNumberKind(at.Kind()) && isNumberKind(t.Kind()) {
			mismatches = append(mismatches, fmt.Sprintf("%s: %v", label, err))

			return
		}

		mismatches = append(mismatches,
			fmt.Sprintf("%s: %s is not an instance of %s", label, at, t))
	}

	for i, a := range args {
		switch {
		case i < len(sig.Params):
			report(paramLabel(sig.Params[i], i), a, sig.Params[i].Type)
		case sig.Variadic != nil:
			report(fmt.Sprintf("argument %d", i), a, sig.Variadic)
		}
	}

	for _, key := range sortedKeys(kwargs) {
		for _, p := range sig.Params {
			if p.Name == key {
				report(key, kwargs[key], p.Type)
			}
		}
	}

	return mismatches
}

// TypeChecker validates builder arguments before a builder is invoked. It
// returns a description of each mismatch.
type TypeChecker interface {
	Check(b Builder, args []any, kwargs map[string]any) []string
}
