package lang

import (
	"log/slog"
	"maps"
	"sync"

	"github.com/ardnew/nip/log"
)

// Builder constructs a host value from positional and keyword arguments.
type Builder interface {
	Build(args []any, kwargs map[string]any) (any, error)
}

// BuilderFunc adapts a function to the [Builder] interface.
type BuilderFunc func(args []any, kwargs map[string]any) (any, error)

// Build calls f.
func (f BuilderFunc) Build(args []any, kwargs map[string]any) (any, error) {
	return f(args, kwargs)
}

// Registry maps tag names to builders. A Registry is safe for concurrent
// use; it is typically populated once at startup and passed to parsing and
// construction with [WithRegistry].
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
	logger   log.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: map[string]Builder{}}
}

// SetLogger sets the logger used to report registrations.
func (r *Registry) SetLogger(logger log.Logger) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger = logger

	return r
}

// Register adds b under tag. It fails if tag is already registered.
func (r *Registry) Register(tag string, b Builder) error {
	return r.register(tag, b, false)
}

// Rewrite adds b under tag, replacing any builder already registered.
func (r *Registry) Rewrite(tag string, b Builder) error {
	return r.register(tag, b, true)
}

func (r *Registry) register(tag string, b Builder, rewrite bool) error {
	if !IsName(tag) {
		return ErrBuilderArgs.Wrapf("invalid tag name %q", tag)
	}

	if b == nil {
		return ErrBuilderArgs.Wrapf("nil builder for tag '%s'", tag)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.builders[tag]; exists && !rewrite {
		return ErrRegistered.With(slog.String("tag", tag))
	}

	r.builders[tag] = b

	r.logger.Trace("registered builder",
		slog.String("tag", tag),
		slog.Bool("rewrite", rewrite))

	return nil
}

// MustRegister is like Register but panics on failure. It is intended for
// registrations at program initialization.
func (r *Registry) MustRegister(tag string, b Builder) *Registry {
	if err := r.Register(tag, b); err != nil {
		panic(err)
	}

	return r
}

// Lookup returns the builder registered under tag.
func (r *Registry) Lookup(tag string) (Builder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.builders[tag]

	return b, ok
}

// Tags returns the registered tag names in sorted order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return sortedKeys(r.builders)
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return &Registry{builders: maps.Clone(r.builders), logger: r.logger}
}
