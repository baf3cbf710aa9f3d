package lang

import (
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	exprparser "github.com/expr-lang/expr/parser"
)

// Evaluator evaluates opaque expression source against an environment of
// named values. It backs inline expressions, f-string segments, and the
// insert directive's path argument.
type Evaluator interface {
	Evaluate(source string, env map[string]any) (any, error)
}

// NameLister is implemented by evaluators that can report the names an
// expression refers to. Lazy construction uses it to resolve only the links
// an expression needs.
type NameLister interface {
	Names(source string) ([]string, error)
}

// ExprEvaluator is the default [Evaluator], backed by expr-lang.
type ExprEvaluator struct {
	opts []expr.Option
}

// NewExprEvaluator returns an evaluator compiling each source with the
// given expr-lang options in addition to the environment.
func NewExprEvaluator(opts ...expr.Option) *ExprEvaluator {
	return &ExprEvaluator{opts: opts}
}

// Evaluate implements [Evaluator].
func (e *ExprEvaluator) Evaluate(source string, env map[string]any) (any, error) {
	if strings.TrimSpace(source) == "" {
		return Null, nil
	}

	opts := append([]expr.Option{expr.Env(env)}, e.opts...)

	program, err := expr.Compile(source, opts...)
	if err != nil {
		return nil, err
	}

	return expr.Run(program, env)
}

// Names implements [NameLister]. It returns every identifier in source and
// every dotted member chain rooted at an identifier, so that a link named
// "a.b" is found in the expression a.b.c.
func (e *ExprEvaluator) Names(source string) ([]string, error) {
	tree, err := exprparser.Parse(source)
	if err != nil {
		return nil, err
	}

	v := &nameVisitor{seen: map[string]bool{}}
	ast.Walk(&tree.Node, v)

	slices.Sort(v.names)

	return v.names, nil
}

type nameVisitor struct {
	names []string
	seen  map[string]bool
}

func (v *nameVisitor) Visit(node *ast.Node) {
	segs, ok := memberPath(*node)
	if !ok {
		return
	}

	for i := range segs {
		name := strings.Join(segs[:i+1], ".")
		if !v.seen[name] {
			v.seen[name] = true
			v.names = append(v.names, name)
		}
	}
}

// memberPath returns the segments of an identifier or a chain of constant
// member accesses on one.
func memberPath(node ast.Node) ([]string, bool) {
	switch n := node.(type) {
	case *ast.IdentifierNode:
		return []string{n.Value}, true
	case *ast.MemberNode:
		prop, ok := n.Property.(*ast.StringNode)
		if !ok {
			return nil, false
		}

		base, ok := memberPath(n.Node)
		if !ok {
			return nil, false
		}

		return append(base, prop.Value), true
	default:
		return nil, false
	}
}

// evalLiteral evaluates a bracketed literal. Literals are constant: they
// are evaluated once while parsing, without access to links or builtins.
func evalLiteral(src string) (any, error) {
	program, err := expr.Compile(src, expr.Env(map[string]any{}))
	if err != nil {
		return nil, err
	}

	v, err := expr.Run(program, map[string]any{})
	if err != nil {
		return nil, err
	}

	return normalizeLiteral(v), nil
}

// normalizeLiteral converts nested literal values to the []any and
// map[string]any shapes used by Value nodes.
func normalizeLiteral(v any) any {
	switch t := v.(type) {
	case []any:
		for i, e := range t {
			t[i] = normalizeLiteral(e)
		}

		return t
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeLiteral(e)
		}

		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[formatScalar(k)] = normalizeLiteral(e)
		}

		return out
	default:
		return v
	}
}
