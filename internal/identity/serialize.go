package identity

import (
	"fmt"

	"github.com/roach88/mixer/internal/ir"
)

// Flat key layout under a prefix P:
//
//	P.MixinType
//	P.Overriders.Count
//	P.Overriders[i].DeclaringType | .Name | .Signature
//	P.Overridden.Count
//	P.Overridden[i].DeclaringType | .Name | .Signature
//
// Every entry is independently addressable. Readers must not assume any
// population order.
const (
	keyMixinType  = "MixinType"
	setOverrider  = "Overriders"
	setOverridden = "Overridden"
)

func mixinKey(prefix string) string {
	return prefix + "." + keyMixinType
}

func countKey(prefix, set string) string {
	return fmt.Sprintf("%s.%s.Count", prefix, set)
}

func memberKey(prefix, set string, i int, field string) string {
	return fmt.Sprintf("%s.%s[%d].%s", prefix, set, i, field)
}

// Serialize writes id to sink under prefix. Method refs that are closed
// generic instantiations are rejected before anything is written.
func (id CompositionIdentity) Serialize(sink Sink, prefix string) error {
	if id.IsZero() {
		return fmt.Errorf("identity: serialize zero identity under %q", prefix)
	}

	overriders := id.Overriders()
	overridden := id.Overridden()
	for _, refs := range [][]ir.MethodRef{overriders, overridden} {
		for _, r := range refs {
			if r.GenericInstance {
				return &UnsupportedSerializationError{
					Mixin:  id.mixin.Name(),
					Method: r,
					Reason: "closed generic method instantiations cannot be serialized",
				}
			}
		}
	}

	sink.AddString(mixinKey(prefix), string(id.mixin.Name()))
	writeRefs(sink, prefix, setOverrider, overriders)
	writeRefs(sink, prefix, setOverridden, overridden)
	return nil
}

func writeRefs(sink Sink, prefix, set string, refs []ir.MethodRef) {
	sink.AddInt(countKey(prefix, set), len(refs))
	for i, r := range refs {
		sink.AddString(memberKey(prefix, set, i, "DeclaringType"), string(r.DeclaringType))
		sink.AddString(memberKey(prefix, set, i, "Name"), r.Name)
		sink.AddString(memberKey(prefix, set, i, "Signature"), r.Signature)
	}
}

// Deserialize rehydrates an identity from source under prefix, resolving
// every member through resolver. A class or method that no longer resolves
// yields *UnresolvedMemberError.
func Deserialize(source Source, prefix string, resolver MemberResolver) (CompositionIdentity, error) {
	mixinName, ok := source.String(mixinKey(prefix))
	if !ok {
		return CompositionIdentity{}, fmt.Errorf("%w: %s", ErrMissingProperty, mixinKey(prefix))
	}
	mixin, ok := resolver.ResolveType(ir.TypeName(mixinName))
	if !ok {
		return CompositionIdentity{}, &UnresolvedMemberError{
			Kind:   MemberType,
			Member: mixinName,
			Mixin:  ir.TypeName(mixinName),
			Prefix: prefix,
		}
	}

	overriders, err := readRefs(source, prefix, setOverrider, mixin.Name(), resolver)
	if err != nil {
		return CompositionIdentity{}, err
	}
	overridden, err := readRefs(source, prefix, setOverridden, mixin.Name(), resolver)
	if err != nil {
		return CompositionIdentity{}, err
	}

	return Build(mixin, overriders, overridden), nil
}

// readRefs reads one method set. The stored count is not trusted for
// allocation; a count past the stored entries fails on the first missing key.
func readRefs(source Source, prefix, set string, mixin ir.TypeName, resolver MemberResolver) ([]ir.MethodRef, error) {
	count, ok := source.Int(countKey(prefix, set))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingProperty, countKey(prefix, set))
	}
	if count < 0 {
		return nil, fmt.Errorf("identity %q: negative %s count %d", prefix, set, count)
	}

	var refs []ir.MethodRef
	for i := 0; i < count; i++ {
		fields := [3]string{"DeclaringType", "Name", "Signature"}
		var vals [3]string
		for j, f := range fields {
			k := memberKey(prefix, set, i, f)
			v, ok := source.String(k)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrMissingProperty, k)
			}
			vals[j] = v
		}

		declaring := ir.TypeName(vals[0])
		if _, ok := resolver.ResolveType(declaring); !ok {
			return nil, &UnresolvedMemberError{
				Kind:   MemberType,
				Member: vals[0],
				Mixin:  mixin,
				Prefix: prefix,
			}
		}
		ref, ok := resolver.ResolveMethod(declaring, vals[1], vals[2])
		if !ok {
			return nil, &UnresolvedMemberError{
				Kind:   MemberMethod,
				Member: fmt.Sprintf("%s.%s%s", vals[0], vals[1], vals[2]),
				Mixin:  mixin,
				Prefix: prefix,
			}
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Flatten serializes id into a new PropertyBag.
func Flatten(id CompositionIdentity, prefix string) (*PropertyBag, error) {
	bag := NewPropertyBag()
	if err := id.Serialize(bag, prefix); err != nil {
		return nil, err
	}
	return bag, nil
}
