// Package composer wires mixin resolution to the type and constructor caches.
//
// For a target class it applies suppression rules to the configured mixins,
// orders the survivors by their declared dependencies, derives a
// CompositionIdentity per mixin and obtains the generated type for each from
// the type cache.
package composer

import (
	"fmt"
	"log/slog"

	"github.com/roach88/mixer/internal/ctorcache"
	"github.com/roach88/mixer/internal/identity"
	"github.com/roach88/mixer/internal/ir"
	"github.com/roach88/mixer/internal/suppression"
	"github.com/roach88/mixer/internal/typecache"
)

// ConstructorSource resolves constructor calls. *ctorcache.Cache implements it.
type ConstructorSource interface {
	GetOrCreateConstructorCall(id identity.CompositionIdentity, sig ir.Signature, allowNonPublic bool) (ctorcache.Invoker, error)
}

var _ ConstructorSource = (*ctorcache.Cache)(nil)

// Composer composes targets through shared caches. Safe for concurrent use
// when its caches are.
type Composer struct {
	types ctorcache.TypeSource
	ctors ConstructorSource
}

// New creates a composer.
func New(types ctorcache.TypeSource, ctors ConstructorSource) *Composer {
	return &Composer{types: types, ctors: ctors}
}

// Entry is one integrated mixin of a composition.
type Entry struct {
	Context  ir.MixinContext
	Identity identity.CompositionIdentity
	Type     typecache.GeneratedType
}

// Composition is the resolved runtime shape of a target.
type Composition struct {
	Target  *ir.Descriptor
	Entries []Entry
}

// IdentityFor derives the identity of integrating ctx's mixin into target.
//
// Overriders are the target methods, declared on target or a base, that a
// mixin method marked OverrideTarget matches by name and signature.
// Overridden are the mixin methods that a target method marked OverrideMixin
// matches by name and signature.
func IdentityFor(target *ir.Descriptor, ctx ir.MixinContext) identity.CompositionIdentity {
	mixin := ctx.Mixin()

	var overriders, overridden []ir.MethodRef
	for _, m := range mixin.Methods() {
		if m.Override != ir.OverrideTarget {
			continue
		}
		if tm, ok := target.FindMethod(m.Ref.Name, m.Ref.Signature); ok {
			overriders = append(overriders, tm.Ref)
		}
	}
	for t := target; t != nil; t = t.Base() {
		for _, tm := range t.Methods() {
			if tm.Override != ir.OverrideMixin {
				continue
			}
			if mm, ok := mixin.FindMethod(tm.Ref.Name, tm.Ref.Signature); ok {
				overridden = append(overridden, mm.Ref)
			}
		}
	}

	return identity.Build(mixin, overriders, overridden)
}

// Compose resolves target's mixins and obtains a generated type for each.
func (c *Composer) Compose(target *ir.Descriptor, mixins ir.MixinMap, rules ...suppression.Rule) (*Composition, error) {
	contexts, err := Resolve(target, mixins, rules...)
	if err != nil {
		return nil, err
	}

	comp := &Composition{Target: target, Entries: make([]Entry, 0, len(contexts))}
	for _, ctx := range contexts {
		id := IdentityFor(target, ctx)
		t, err := c.types.GetOrCreate(id, ctx)
		if err != nil {
			return nil, fmt.Errorf("compose %s: %w", target.Name(), err)
		}
		comp.Entries = append(comp.Entries, Entry{Context: ctx, Identity: id, Type: t})
	}

	slog.Debug("target composed",
		"target", target.Name(),
		"mixins", len(comp.Entries),
		"configured", len(mixins))
	return comp, nil
}

// NewInstance constructs an instance of the i-th generated type of comp.
func (c *Composer) NewInstance(comp *Composition, i int, sig ir.Signature, allowNonPublic bool, args ...any) (any, error) {
	if comp == nil || i < 0 || i >= len(comp.Entries) {
		return nil, fmt.Errorf("composer: no entry %d in composition", i)
	}
	inv, err := c.ctors.GetOrCreateConstructorCall(comp.Entries[i].Identity, sig, allowNonPublic)
	if err != nil {
		return nil, err
	}
	return inv(args...)
}

// Names returns the mixin names of comp in integration order.
func (comp *Composition) Names() []ir.TypeName {
	names := make([]ir.TypeName, len(comp.Entries))
	for i, e := range comp.Entries {
		names[i] = e.Context.Name()
	}
	return names
}
