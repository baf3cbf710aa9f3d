package lang

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Pair is the constructed value of an Args block holding both positional
// and keyed items.
type Pair struct {
	Args   []any
	Kwargs map[string]any
}

// MarshalJSON encodes the pair as a two-element array.
func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Args, p.Kwargs})
}

// MarshalYAML encodes the pair as a two-element sequence.
func (p Pair) MarshalYAML() (any, error) {
	return []any{p.Args, p.Kwargs}, nil
}

// constructor turns a tree into host values.
//
// In sequential mode link values are bound in vars as their declarations
// are visited. In lazy (non-sequential) mode every declaration is indexed up
// front and a link is constructed on first use, at most once.
type constructor struct {
	ctx      context.Context
	doc      *Document
	opts     options
	registry *Registry

	vars       map[string]any
	links      map[string]*LinkCreation
	inProgress map[string]bool
	lazy       bool
}

func newConstructor(ctx context.Context, doc *Document, o options) *constructor {
	return &constructor{
		ctx:        ctx,
		doc:        doc,
		opts:       o,
		registry:   o.registryOrEmpty(),
		vars:       map[string]any{},
		links:      map[string]*LinkCreation{},
		inProgress: map[string]bool{},
		lazy:       !o.sequential,
	}
}

// Construct builds the host value of the document. Options override those
// the document was parsed with.
func (d *Document) Construct(ctx context.Context, opts ...Option) (any, error) {
	o := d.opts.with(opts...)
	c := newConstructor(ctx, d, o)

	if c.lazy {
		if err := c.index(d.Value); err != nil {
			return nil, err
		}
	}

	o.logger.TraceContext(ctx, "construct",
		slog.String("document", d.name),
		slog.Bool("sequential", o.sequential),
		slog.Int("links", len(c.links)))

	return c.realize(d)
}

// index records every link declaration under n by name.
func (c *constructor) index(n Node) error {
	var err error

	walk(n, func(n Node) bool {
		lc, ok := n.(*LinkCreation)
		if !ok || err != nil {
			return err == nil
		}

		if _, dup := c.links[lc.name]; dup {
			err = &LinkError{Name: lc.name, Reason: LinkRedefined}

			return false
		}

		c.links[lc.name] = lc

		return true
	})

	return err
}

func (c *constructor) realize(n Node) (any, error) {
	if n == nil {
		return Null, nil
	}

	return n.realize(c)
}

// resolve returns the value bound to name, constructing its declaration on
// first use.
func (c *constructor) resolve(name string) (any, error) {
	if v, ok := c.vars[name]; ok {
		return v, nil
	}

	lc, ok := c.links[name]
	if !ok {
		return nil, &LinkError{Name: name, Reason: LinkUnresolved}
	}

	if c.inProgress[name] {
		return nil, &LinkError{Name: name, Reason: LinkRecursive}
	}

	c.inProgress[name] = true
	defer delete(c.inProgress, name)

	c.opts.logger.TraceContext(c.ctx, "resolve link", slog.String("link", name))

	v, err := c.realize(lc.Value)
	if err != nil {
		return nil, err
	}

	c.vars[name] = v

	return v, nil
}

func (d *Document) realize(c *constructor) (any, error) { return c.realize(d.Value) }

func (v *Value) realize(*constructor) (any, error) { return cloneData(v.Data), nil }

func (a *Args) realize(c *constructor) (any, error) {
	args, kwargs, err := c.realizeArgs(a)
	if err != nil {
		return nil, err
	}

	switch {
	case len(args) > 0 && len(kwargs) > 0:
		return Pair{Args: args, Kwargs: kwargs}, nil
	case len(kwargs) > 0:
		return kwargs, nil
	default:
		return args, nil
	}
}

// realizeArgs constructs the items of a into positional and keyed values.
func (c *constructor) realizeArgs(a *Args) ([]any, map[string]any, error) {
	args := []any{}
	kwargs := map[string]any{}

	for _, item := range a.Items {
		v, err := c.realize(item.Node)
		if err != nil {
			return nil, nil, err
		}

		if item.Key == "" {
			args = append(args, v)
		} else {
			kwargs[item.Key] = v
		}
	}

	return args, kwargs, nil
}

func (t *Tag) realize(c *constructor) (any, error) {
	var (
		args   []any
		kwargs map[string]any
	)

	if a, ok := t.Value.(*Args); ok {
		var err error
		if args, kwargs, err = c.realizeArgs(a); err != nil {
			return nil, err
		}
	} else {
		v, err := c.realize(t.Value)
		if err != nil {
			return nil, err
		}

		if !IsNothing(v) {
			args = []any{v}
		}
	}

	return c.build(t, args, kwargs)
}

func (c *constructor) path(n Node) string {
	if c.doc == nil {
		return ""
	}

	return c.doc.Path(n)
}

func (c *constructor) build(t *Tag, args []any, kwargs map[string]any) (any, error) {
	fail := func(err error) error {
		return &ConstructError{
			Kind:   KindTag,
			Tag:    t.name,
			Args:   args,
			Kwargs: kwargs,
			Path:   c.path(t),
			Err:    err,
		}
	}

	b, ok := c.registry.Lookup(t.name)
	if !ok {
		return nil, fail(ErrUnregistered.Wrapf("no builder for tag '%s'", t.name))
	}

	if err := c.check(t, b, args, kwargs); err != nil {
		return nil, fail(err)
	}

	c.opts.logger.DebugContext(c.ctx, "build",
		slog.String("tag", t.name),
		slog.Int("args", len(args)),
		slog.Any("kwargs", sortedKeys(kwargs)))

	v, err := invoke(b, args, kwargs)
	if err != nil {
		return nil, fail(err)
	}

	return v, nil
}

// check validates builder arguments with the configured type checker. In
// strict typing mode mismatches fail the construction; otherwise they are
// logged and construction proceeds.
func (c *constructor) check(t *Tag, b Builder, args []any, kwargs map[string]any) error {
	if c.opts.checker == nil {
		return nil
	}

	var merr *multierror.Error

	for _, m := range c.opts.checker.Check(b, args, kwargs) {
		merr = multierror.Append(merr, errors.New(m))
	}

	if merr.ErrorOrNil() == nil {
		return nil
	}

	merr.ErrorFormat = func(errs []error) string {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}

		return strings.Join(msgs, "; ")
	}

	if c.opts.strictTyping {
		return ErrTypeMismatch.Wrap(merr)
	}

	c.opts.logger.WarnContext(c.ctx, ErrTypeMismatch.msg,
		slog.String("tag", t.name),
		slog.String("path", c.path(t)),
		slog.String("mismatch", merr.Error()))

	return nil
}

// invoke calls b, converting a panic into an error.
func invoke(b Builder, args []any, kwargs map[string]any) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("builder panic: %v", r)
		}
	}()

	return b.Build(args, kwargs)
}

func (cl *Class) realize(c *constructor) (any, error) {
	b, ok := c.registry.Lookup(cl.name)
	if !ok {
		return nil, &ConstructError{
			Kind: KindClass,
			Tag:  cl.name,
			Path: c.path(cl),
			Err:  ErrUnregistered.Wrapf("no builder for class '%s'", cl.name),
		}
	}

	return b, nil
}

func (l *LinkCreation) realize(c *constructor) (any, error) {
	if c.lazy {
		if _, indexed := c.links[l.name]; indexed {
			return c.resolve(l.name)
		}
	}

	v, err := c.realize(l.Value)
	if err != nil {
		return nil, err
	}

	c.vars[l.name] = v

	return v, nil
}

func (l *Link) realize(c *constructor) (any, error) {
	if v, ok := c.vars[l.name]; ok {
		return v, nil
	}

	if c.lazy {
		return c.resolve(l.name)
	}

	if c.doc != nil {
		if _, declared := c.doc.Links()[l.name]; declared {
			return nil, &LinkError{Name: l.name, Reason: LinkBeforeAssignment}
		}
	}

	return nil, &LinkError{Name: l.name, Reason: LinkUnresolved}
}

func (it *Iter) realize(c *constructor) (any, error) {
	node, raw, err := it.element()
	if err != nil {
		return nil, err
	}

	if node != nil {
		return c.realize(node)
	}

	return cloneData(raw), nil
}

func (e *Inline) realize(c *constructor) (any, error) {
	return c.evaluate(e.Source)
}

func (f *FString) realize(c *constructor) (any, error) {
	return c.interpolate(f.Text)
}

func (*Nothing) realize(*constructor) (any, error) { return Null, nil }

// evaluate runs src through the evaluator with the bound links in scope.
func (c *constructor) evaluate(src string) (any, error) {
	if c.opts.evaluator == nil {
		return nil, ErrNoEvaluator.With(slog.String("source", src))
	}

	env, err := c.environment(src)
	if err != nil {
		return nil, err
	}

	v, err := c.opts.evaluator.Evaluate(src, env)
	if err != nil {
		return nil, ErrEvaluate.Wrap(err).With(slog.String("source", src))
	}

	return v, nil
}

// environment returns the variables visible to src. In lazy mode the links
// src refers to are constructed first; if the evaluator cannot list them,
// every link not currently being constructed is.
func (c *constructor) environment(src string) (map[string]any, error) {
	if c.lazy {
		var names []string

		if lister, ok := c.opts.evaluator.(NameLister); ok {
			names, _ = lister.Names(src)
		} else {
			names = sortedKeys(c.links)
		}

		for _, name := range names {
			if _, ok := c.links[name]; !ok {
				continue
			}

			if _, ok := c.vars[name]; ok {
				continue
			}

			if c.inProgress[name] {
				if _, listed := c.opts.evaluator.(NameLister); listed {
					return nil, &LinkError{Name: name, Reason: LinkRecursive}
				}

				continue
			}

			if _, err := c.resolve(name); err != nil {
				return nil, err
			}
		}
	}

	env := makeEnvCache()

	for _, name := range sortedKeys(c.vars) {
		envSet(env, name, c.vars[name])
	}

	return env, nil
}

// envSet stores v in env under a possibly dotted name, creating nested maps
// so that "a.b" is reachable as a member expression.
func envSet(env map[string]any, name string, v any) {
	head, tail, dotted := strings.Cut(name, ".")
	if !dotted {
		env[name] = v

		return
	}

	sub, ok := env[head].(map[string]any)
	if !ok {
		if _, taken := env[head]; taken && !isBuiltin(head) {
			return
		}

		sub = map[string]any{}
	} else {
		sub = cloneShallow(sub)
	}

	envSet(sub, tail, v)
	env[head] = sub
}

func cloneShallow(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

// interpolate replaces each {expression} in text with its value. Doubled
// braces are literal.
func (c *constructor) interpolate(text string) (string, error) {
	var sb strings.Builder

	for i := 0; i < len(text); {
		switch {
		case strings.HasPrefix(text[i:], "{{"):
			sb.WriteByte('{')
			i += 2
		case strings.HasPrefix(text[i:], "}}"):
			sb.WriteByte('}')
			i += 2
		case text[i] == '{':
			width := matchBracket(text[i:])
			if width == 0 {
				return "", ErrEvaluate.Wrapf("unclosed '{' in f-string %q", text)
			}

			v, err := c.evaluate(strings.TrimSpace(text[i+1 : i+width-1]))
			if err != nil {
				return "", err
			}

			sb.WriteString(formatScalar(v))
			i += width
		default:
			sb.WriteByte(text[i])
			i++
		}
	}

	return sb.String(), nil
}

// formatScalar formats a constructed value for string interpolation.
func formatScalar(v any) string {
	switch t := v.(type) {
	case nil, NothingValue:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
