package ir

import (
	"fmt"
	"maps"
	"slices"
)

// MixinKind distinguishes how a mixin is attached to its target.
type MixinKind int

const (
	// KindExtending mixins are configured on the mixin side ("extends target").
	KindExtending MixinKind = iota
	// KindUsed mixins are configured on the target side ("uses mixin").
	KindUsed
)

// String returns the configuration spelling of the kind.
func (k MixinKind) String() string {
	switch k {
	case KindExtending:
		return "extending"
	case KindUsed:
		return "used"
	default:
		return fmt.Sprintf("MixinKind(%d)", int(k))
	}
}

// ParseMixinKind parses "extending" or "used". Empty means extending.
func ParseMixinKind(s string) (MixinKind, error) {
	switch s {
	case "", "extending":
		return KindExtending, nil
	case "used":
		return KindUsed, nil
	default:
		return KindExtending, fmt.Errorf("unknown mixin kind %q", s)
	}
}

// MixinContext is one assignment of a mixin to a target.
// It is an immutable value; construct it with NewMixinContext.
type MixinContext struct {
	mixin      *Descriptor
	kind       MixinKind
	deps       []TypeName
	introduces []TypeName
	priority   int
}

// ContextOption configures a MixinContext during construction.
type ContextOption func(*MixinContext)

// WithKind sets the mixin kind.
func WithKind(kind MixinKind) ContextOption {
	return func(c *MixinContext) {
		c.kind = kind
	}
}

// WithDependencies declares mixins that must be applied before this one.
func WithDependencies(deps ...TypeName) ContextOption {
	return func(c *MixinContext) {
		c.deps = append(c.deps, deps...)
	}
}

// WithIntroducedInterfaces declares interfaces the mixin introduces on the target.
func WithIntroducedInterfaces(ifaces ...TypeName) ContextOption {
	return func(c *MixinContext) {
		c.introduces = append(c.introduces, ifaces...)
	}
}

// WithPriority sets the ordering priority. Higher values are applied first
// among mixins that are otherwise unordered.
func WithPriority(p int) ContextOption {
	return func(c *MixinContext) {
		c.priority = p
	}
}

// NewMixinContext creates a context assigning mixin to a target.
func NewMixinContext(mixin *Descriptor, opts ...ContextOption) MixinContext {
	c := MixinContext{mixin: mixin}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Mixin returns the mixin descriptor.
func (c MixinContext) Mixin() *Descriptor { return c.mixin }

// Name returns the mixin's type name.
func (c MixinContext) Name() TypeName { return c.mixin.Name() }

// Kind returns how the mixin is attached.
func (c MixinContext) Kind() MixinKind { return c.kind }

// Dependencies returns the explicit ordering dependencies.
func (c MixinContext) Dependencies() []TypeName { return slices.Clone(c.deps) }

// IntroducedInterfaces returns the interfaces the mixin introduces.
func (c MixinContext) IntroducedInterfaces() []TypeName { return slices.Clone(c.introduces) }

// Priority returns the ordering priority.
func (c MixinContext) Priority() int { return c.priority }

// MixinMap maps mixin type names to their contexts for one target.
// It is caller-owned and not safe for concurrent mutation.
type MixinMap map[TypeName]MixinContext

// NewMixinMap builds a map keyed by each context's mixin name.
// Later contexts for the same mixin replace earlier ones.
func NewMixinMap(contexts ...MixinContext) MixinMap {
	m := make(MixinMap, len(contexts))
	for _, c := range contexts {
		m[c.Name()] = c
	}
	return m
}

// Clone returns a shallow copy; contexts are immutable so this is a full copy.
func (m MixinMap) Clone() MixinMap {
	return maps.Clone(m)
}

// SortedNames returns the map's keys in ascending order.
func (m MixinMap) SortedNames() []TypeName {
	return slices.Sorted(maps.Keys(m))
}
