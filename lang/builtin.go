package lang

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Builtins returns a new registry holding the builtin builders:
//
//	echo           its arguments: one value, a list, a map, or a Pair
//	list, dict     the positional or keyword arguments
//	str, int,      a scalar converted to the named type
//	float, bool
//	env            the value of an environment variable, or a default
//	join           list items formatted and joined by a separator
//	sum            the sum of numbers; ints stay ints
//	range          [start, stop) by step, Python style
//	path.prefix    a PATH-like list with items prepended
//	path.prefixif  like path.prefix, keeping only existing directories
func Builtins() *Registry {
	r := NewRegistry()

	r.MustRegister("echo", BuilderFunc(echo))
	r.MustRegister("list", BuilderFunc(func(args []any, _ map[string]any) (any, error) {
		return append([]any{}, args...), nil
	}))
	r.MustRegister("dict", BuilderFunc(func(_ []any, kwargs map[string]any) (any, error) {
		out := make(map[string]any, len(kwargs))
		for k, v := range kwargs {
			out[k] = v
		}

		return out, nil
	}))
	r.MustRegister("str", Func(formatScalar, "value"))
	r.MustRegister("int", Func(toInt, "value"))
	r.MustRegister("float", Func(toFloat, "value"))
	r.MustRegister("bool", Func(toBool, "value"))
	r.MustRegister("env", Func(getenv, "name", "default"))
	r.MustRegister("join", Func(join, "items", "sep"))
	r.MustRegister("sum", BuilderFunc(sum))
	r.MustRegister("range", BuilderFunc(intRange))
	r.MustRegister("path.prefix", Func(mungPrefix, "subject"))
	r.MustRegister("path.prefixif", Func(func(subject string, prefix ...string) string {
		return mungPrefixIf(subject, fileIsDir, prefix...)
	}, "subject"))

	return r
}

func echo(args []any, kwargs map[string]any) (any, error) {
	switch {
	case len(args) > 0 && len(kwargs) > 0:
		return Pair{Args: args, Kwargs: kwargs}, nil
	case len(kwargs) > 0:
		return kwargs, nil
	case len(args) == 1:
		return args[0], nil
	case len(args) == 0:
		return Null, nil
	default:
		return args, nil
	}
}

func toInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case float64:
		return int(math.Trunc(t)), nil
	case bool:
		if t {
			return 1, nil
		}

		return 0, nil
	case string:
		return strconv.Atoi(strings.TrimSpace(t))
	default:
		return 0, fmt.Errorf("cannot convert %T to int", v)
	}
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case int:
		return float64(t), nil
	case float64:
		return t, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float", v)
	}
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case int:
		return t != 0, nil
	case float64:
		return t != 0, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(t))
	case nil, NothingValue:
		return false, nil
	default:
		return false, fmt.Errorf("cannot convert %T to bool", v)
	}
}

func getenv(name, def string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}

	return def
}

func join(items []any, sep string) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = formatScalar(it)
	}

	return strings.Join(parts, sep)
}

func sum(args []any, _ map[string]any) (any, error) {
	var (
		i     int
		f     float64
		float bool
	)

	for n, a := range args {
		switch t := a.(type) {
		case int:
			i += t
		case float64:
			f += t
			float = true
		default:
			return nil, fmt.Errorf("argument %d: %T is not a number", n, a)
		}
	}

	if float {
		return f + float64(i), nil
	}

	return i, nil
}

func intRange(args []any, kwargs map[string]any) (any, error) {
	if len(kwargs) > 0 {
		return nil, ErrBuilderArgs.Wrapf("range takes no keyword arguments")
	}

	bounds := make([]int, len(args))

	for n, a := range args {
		v, ok := a.(int)
		if !ok {
			return nil, fmt.Errorf("argument %d: %T is not an int", n, a)
		}

		bounds[n] = v
	}

	start, stop, step := 0, 0, 1

	switch len(bounds) {
	case 1:
		stop = bounds[0]
	case 2:
		start, stop = bounds[0], bounds[1]
	case 3:
		start, stop, step = bounds[0], bounds[1], bounds[2]
	default:
		return nil, ErrBuilderArgs.Wrapf("range expects 1 to 3 arguments, got %d", len(bounds))
	}

	if step == 0 {
		return nil, ErrBuilderArgs.Wrapf("range step must not be zero")
	}

	out := []any{}

	for v := start; (step > 0 && v < stop) || (step < 0 && v > stop); v += step {
		out = append(out, v)
	}

	return out, nil
}
