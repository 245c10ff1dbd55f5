// Package ctorcache memoizes fast constructor call paths for generated types.
//
// An entry is keyed by composition identity, constructor signature and
// requested visibility. Each key is compiled at most once. A request that no
// constructor can satisfy is remembered as a negative entry; type build
// failures and compiler failures are not remembered.
package ctorcache

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/mixer/internal/identity"
	"github.com/roach88/mixer/internal/ir"
	"github.com/roach88/mixer/internal/typecache"
)

// Invoker constructs an instance of a generated type.
type Invoker func(args ...any) (any, error)

// Compiler turns a resolved constructor into an Invoker.
type Compiler interface {
	Compile(t typecache.GeneratedType, ctor ir.Constructor) (Invoker, error)
}

// CompilerFunc adapts a function to Compiler.
type CompilerFunc func(t typecache.GeneratedType, ctor ir.Constructor) (Invoker, error)

// Compile implements Compiler.
func (f CompilerFunc) Compile(t typecache.GeneratedType, ctor ir.Constructor) (Invoker, error) {
	return f(t, ctor)
}

// TypeSource resolves identities to generated types. *typecache.Cache
// implements it.
type TypeSource interface {
	GetOrCreate(id identity.CompositionIdentity, contexts ...ir.MixinContext) (typecache.GeneratedType, error)
}

var _ TypeSource = (*typecache.Cache)(nil)

// Stats counts cache activity since creation.
type Stats struct {
	Hits     uint64
	Misses   uint64
	Compiles uint64
	Negative uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithCompiler sets the constructor compiler.
func WithCompiler(c Compiler) Option {
	return func(cache *Cache) {
		cache.compiler = c
	}
}

type entry struct {
	invoker Invoker
	err     *NoMatchingConstructorError
}

// Cache maps (identity, signature, visibility) to invokers.
// Safe for concurrent use.
type Cache struct {
	types    TypeSource
	compiler Compiler

	entries sync.Map // call key -> *entry
	group   singleflight.Group

	hits     atomic.Uint64
	misses   atomic.Uint64
	compiles atomic.Uint64
	negative atomic.Uint64
}

// New creates a constructor cache resolving types through types.
func New(types TypeSource, opts ...Option) *Cache {
	c := &Cache{types: types}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// callKey quotes each parameter type so that a separator inside a type name
// cannot make two signatures share a key.
func callKey(id identity.CompositionIdentity, sig ir.Signature, allowNonPublic bool) string {
	return fmt.Sprintf("%s|%t|%q", id.Key(), allowNonPublic, []string(sig))
}

// GetOrCreateConstructorCall returns the invoker for the constructor of id's
// generated type matching sig. With allowNonPublic false only public
// constructors are considered.
func (c *Cache) GetOrCreateConstructorCall(id identity.CompositionIdentity, sig ir.Signature, allowNonPublic bool) (Invoker, error) {
	key := callKey(id, sig, allowNonPublic)

	if e, ok := c.load(key); ok {
		c.hits.Add(1)
		return e.result()
	}
	c.misses.Add(1)

	v, err, _ := c.group.Do(key, func() (any, error) {
		if e, ok := c.load(key); ok {
			return e, nil
		}
		return c.compile(key, id, sig, allowNonPublic)
	})
	if err != nil {
		return nil, err
	}
	return v.(*entry).result()
}

func (e *entry) result() (Invoker, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.invoker, nil
}

// compile resolves the generated type without mixin contexts. If this is the
// first request for id, the type is built with none and later callers that
// pass contexts get that same type.
func (c *Cache) compile(key string, id identity.CompositionIdentity, sig ir.Signature, allowNonPublic bool) (*entry, error) {
	t, err := c.types.GetOrCreate(id)
	if err != nil {
		return nil, err
	}

	ctor, ok := findConstructor(t.Constructors(), sig, allowNonPublic)
	if !ok {
		e := &entry{err: &NoMatchingConstructorError{
			Type:           t.TypeName(),
			Signature:      sig,
			AllowNonPublic: allowNonPublic,
		}}
		c.entries.Store(key, e)
		c.negative.Add(1)
		slog.Debug("no matching constructor",
			"type", t.TypeName(),
			"signature", sig.String(),
			"allow_non_public", allowNonPublic)
		return e, nil
	}

	if c.compiler == nil {
		return nil, ErrNoCompiler
	}
	c.compiles.Add(1)
	inv, err := c.compiler.Compile(t, ctor)
	if err != nil {
		return nil, fmt.Errorf("compile constructor %s%s: %w", t.TypeName(), sig, err)
	}
	if inv == nil {
		return nil, fmt.Errorf("compile constructor %s%s: %w", t.TypeName(), sig, ErrNilInvoker)
	}

	e := &entry{invoker: inv}
	c.entries.Store(key, e)
	slog.Debug("constructor call compiled",
		"type", t.TypeName(),
		"signature", sig.String(),
		"allow_non_public", allowNonPublic)
	return e, nil
}

func findConstructor(ctors []ir.Constructor, sig ir.Signature, allowNonPublic bool) (ir.Constructor, bool) {
	for _, ctor := range ctors {
		if ctor.Matches(sig, allowNonPublic) {
			return ctor, true
		}
	}
	return ir.Constructor{}, false
}

func (c *Cache) load(key string) (*entry, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Compiles: c.compiles.Load(),
		Negative: c.negative.Load(),
	}
}
