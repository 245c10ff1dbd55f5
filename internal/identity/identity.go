// Package identity names the concrete types generated for mixin integration.
//
// A CompositionIdentity captures exactly what distinguishes one generated type
// from another: the mixin being integrated, the target methods it overrides
// (overriders), and the mixin methods overridden by generated call-through
// members (overridden). Both method collections are sets; enumeration order
// never affects equality or the content hash.
//
// Identities serialize to a strictly flat carrier (one primitive per key) so a
// consumer that populates fields in arbitrary order can still rehydrate them.
package identity

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/hashicorp/go-set/v3"

	"github.com/roach88/mixer/internal/ir"
)

// CompositionIdentity is the unique, immutable name of one generated type.
// The zero value is not a valid identity; use Build or Deserialize.
type CompositionIdentity struct {
	mixin      *ir.Descriptor
	overriders *set.Set[ir.MethodRef]
	overridden *set.Set[ir.MethodRef]
	key        string
}

// Build creates an identity. Duplicate method refs collapse.
func Build(mixin *ir.Descriptor, overriders, overridden []ir.MethodRef) CompositionIdentity {
	id := CompositionIdentity{
		mixin:      mixin,
		overriders: set.From(overriders),
		overridden: set.From(overridden),
	}
	id.key = ir.FieldHash(ir.DomainComposition, id.fields()...)
	return id
}

// fields lists the hashed content: the mixin name, then each sorted set as a
// count followed by its refs. Names are taken as given, matching Equal.
func (id CompositionIdentity) fields() []string {
	out := []string{string(id.mixin.Name())}
	for _, refs := range [][]ir.MethodRef{id.Overriders(), id.Overridden()} {
		out = append(out, strconv.Itoa(len(refs)))
		for _, r := range refs {
			out = append(out,
				string(r.DeclaringType), r.Name, r.Signature, strconv.FormatBool(r.GenericInstance))
		}
	}
	return out
}

// IsZero reports whether id was never built.
func (id CompositionIdentity) IsZero() bool {
	return id.mixin == nil
}

// Mixin returns the mixin descriptor being integrated.
func (id CompositionIdentity) Mixin() *ir.Descriptor {
	return id.mixin
}

// Overriders returns the target methods the mixin overrides, sorted.
func (id CompositionIdentity) Overriders() []ir.MethodRef {
	return sortedRefs(id.overriders)
}

// Overridden returns the mixin methods overridden by generated members, sorted.
func (id CompositionIdentity) Overridden() []ir.MethodRef {
	return sortedRefs(id.overridden)
}

func sortedRefs(s *set.Set[ir.MethodRef]) []ir.MethodRef {
	if s == nil {
		return nil
	}
	refs := s.Slice()
	slices.SortFunc(refs, ir.CompareMethodRefs)
	return refs
}

// Key returns the content hash used as cache key. Equal identities have equal keys.
func (id CompositionIdentity) Key() string {
	return id.key
}

// Hash is an alias of Key for callers that think in hash codes.
func (id CompositionIdentity) Hash() string {
	return id.key
}

// Equal reports structural equality: same mixin name and set-equal method sets.
func (id CompositionIdentity) Equal(other CompositionIdentity) bool {
	if id.IsZero() || other.IsZero() {
		return id.IsZero() && other.IsZero()
	}
	return id.mixin.Equal(other.mixin) &&
		id.overriders.Equal(other.overriders) &&
		id.overridden.Equal(other.overridden)
}

// String implements fmt.Stringer.
func (id CompositionIdentity) String() string {
	if id.IsZero() {
		return "CompositionIdentity{}"
	}
	return fmt.Sprintf("%s{overriders=%d, overridden=%d}",
		id.mixin.Name(), id.overriders.Size(), id.overridden.Size())
}
