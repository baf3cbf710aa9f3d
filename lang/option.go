package lang

import (
	"github.com/ardnew/nip/log"
)

// options holds parser, construction, and sweep configuration.
type options struct {
	registry     *Registry
	evaluator    Evaluator
	checker      TypeChecker
	replacements map[string]Node
	logger       log.Logger
	baseDir      string
	including    []string // absolute paths of documents being inserted

	strict           bool
	sequential       bool
	sequentialLinks  bool
	strictTyping     bool
	alwaysIter       bool
	snapshot         bool
	implicitFStrings bool
}

// Option configures parsing, construction, or sweep behavior.
type Option func(*options)

// WithStrict enables strict grammar checks: positional items may not follow
// keyed items in one block, and keys may not repeat.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithSequential selects sequential construction, where a link is visible
// only after its declaration has been constructed. The default is
// non-sequential construction with lazily resolved links.
func WithSequential(sequential bool) Option {
	return func(o *options) { o.sequential = sequential }
}

// WithSequentialLinks makes the parser reject a link reference that
// textually precedes its declaration.
func WithSequentialLinks(sequential bool) Option {
	return func(o *options) { o.sequentialLinks = sequential }
}

// WithStrictTyping turns type-check mismatches into construction errors.
// Otherwise mismatches are logged as warnings.
func WithStrictTyping(strict bool) Option {
	return func(o *options) { o.strictTyping = strict }
}

// WithRegistry sets the builder registry used to construct tags and classes.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithEvaluator sets the expression evaluator for inline expressions and
// f-strings. A nil evaluator disables those two node kinds.
func WithEvaluator(e Evaluator) Option {
	return func(o *options) { o.evaluator = e }
}

// WithTypeChecker sets the checker used to validate builder arguments.
func WithTypeChecker(c TypeChecker) Option {
	return func(o *options) { o.checker = c }
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithAlwaysIter makes [Load] return a list of values even when the
// document declares no iterators.
func WithAlwaysIter(always bool) Option {
	return func(o *options) { o.alwaysIter = always }
}

// WithSnapshot makes a [Sweep] yield an independent deep copy of the
// document for each view instead of the shared, mutated document.
func WithSnapshot(snapshot bool) Option {
	return func(o *options) { o.snapshot = snapshot }
}

// WithImplicitFStrings parses every quoted string containing '{' as an
// f-string.
func WithImplicitFStrings(implicit bool) Option {
	return func(o *options) { o.implicitFStrings = implicit }
}

// WithBaseDir sets the directory against which relative insert paths are
// resolved when the document itself has no file path.
func WithBaseDir(dir string) Option {
	return func(o *options) { o.baseDir = dir }
}

// WithReplacements substitutes the given nodes for link references with
// matching names while parsing. It is how the insert directive passes
// parameters to the inserted document.
func WithReplacements(nodes map[string]Node) Option {
	return func(o *options) { o.replacements = nodes }
}

// applyDefaults sets default option values.
func applyDefaults(o *options) {
	o.evaluator = NewExprEvaluator()
	o.checker = SignatureChecker{}
}

// makeOptions returns default options overridden by opts.
func makeOptions(opts ...Option) options {
	var o options

	applyDefaults(&o)
	applyOptions(&o, opts...)

	return o
}

// applyOptions applies functional options.
func applyOptions(o *options, opts ...Option) {
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
}

// with returns a copy of o with opts applied.
func (o options) with(opts ...Option) options {
	applyOptions(&o, opts...)

	return o
}

func (o options) registryOrEmpty() *Registry {
	if o.registry == nil {
		return NewRegistry()
	}

	return o.registry
}
