package typecache

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/mixer/internal/identity"
	"github.com/roach88/mixer/internal/ir"
)

// GeneratedType is a concrete runtime type produced for one identity.
type GeneratedType interface {
	TypeName() string
	Constructors() []ir.Constructor
}

// Plan is what a Builder receives: the identity to realize and the contexts
// of the mixins being composed.
type Plan struct {
	Identity identity.CompositionIdentity
	Contexts []ir.MixinContext
}

// Builder generates the concrete type for a plan. It is called at most once
// per successful identity.
type Builder interface {
	Build(plan Plan) (GeneratedType, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(plan Plan) (GeneratedType, error)

// Build implements Builder.
func (f BuilderFunc) Build(plan Plan) (GeneratedType, error) {
	return f(plan)
}

// Stats counts cache activity since creation.
type Stats struct {
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
	Builds   uint64 `json:"builds"`
	Failures uint64 `json:"failures"`
}

// Option configures a Cache.
type Option func(*Cache)

// WithBuilder sets the builder used on cache misses.
func WithBuilder(b Builder) Option {
	return func(c *Cache) {
		c.builder = b
	}
}

// Cache maps composition identities to generated types.
// Safe for concurrent use; the zero value is not usable, use New.
type Cache struct {
	builder Builder

	entries sync.Map // identity key -> GeneratedType
	group   singleflight.Group
	size    atomic.Int64

	hits     atomic.Uint64
	misses   atomic.Uint64
	builds   atomic.Uint64
	failures atomic.Uint64
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCreate returns the generated type for id, building it on first use.
//
// contexts are handed to the builder unchanged. They do not take part in the
// cache key: two calls with equal identities share one type regardless of the
// contexts passed. The type keeps the contexts of the call that built it;
// contexts passed on a hit, or by waiters joining an in-flight build, are
// ignored. Builds triggered through the constructor cache pass none.
func (c *Cache) GetOrCreate(id identity.CompositionIdentity, contexts ...ir.MixinContext) (GeneratedType, error) {
	if id.IsZero() {
		return nil, ErrZeroIdentity
	}
	key := id.Key()

	if t, ok := c.load(key); ok {
		c.hits.Add(1)
		return t, nil
	}
	c.misses.Add(1)

	v, err, shared := c.group.Do(key, func() (any, error) {
		// A build for key may have completed between the fast-path miss and
		// entering the group.
		if t, ok := c.load(key); ok {
			return t, nil
		}
		return c.build(key, id, slices.Clone(contexts))
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("composed type shared with in-flight build",
			"mixin", id.Mixin().Name(),
			"key", shortKey(key))
	}
	return v.(GeneratedType), nil
}

func (c *Cache) build(key string, id identity.CompositionIdentity, contexts []ir.MixinContext) (GeneratedType, error) {
	mixin := id.Mixin().Name()
	fail := func(err error) error {
		c.failures.Add(1)
		slog.Warn("composed type build failed",
			"mixin", mixin,
			"key", shortKey(key),
			"error", err)
		return &CompositionBuildError{Mixin: mixin, Key: key, Err: err}
	}

	if c.builder == nil {
		return nil, fail(ErrNoBuilder)
	}

	c.builds.Add(1)
	t, err := c.builder.Build(Plan{Identity: id, Contexts: contexts})
	if err != nil {
		return nil, fail(err)
	}
	if t == nil {
		return nil, fail(ErrNilType)
	}

	c.entries.Store(key, t)
	c.size.Add(1)
	slog.Info("composed type built",
		"mixin", mixin,
		"type", t.TypeName(),
		"key", shortKey(key))
	return t, nil
}

func (c *Cache) load(key string) (GeneratedType, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	return v.(GeneratedType), true
}

// Lookup returns the already-built type for id without building.
func (c *Cache) Lookup(id identity.CompositionIdentity) (GeneratedType, bool) {
	if id.IsZero() {
		return nil, false
	}
	return c.load(id.Key())
}

// Len returns the number of cached types.
func (c *Cache) Len() int {
	return int(c.size.Load())
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Builds:   c.builds.Load(),
		Failures: c.failures.Load(),
	}
}
