package identity

import (
	"maps"
	"slices"

	"github.com/roach88/mixer/internal/ir"
)

// Sink receives flat keyed primitives.
type Sink interface {
	AddString(key, value string)
	AddInt(key string, value int)
}

// Source yields flat keyed primitives in any order the caller chooses.
type Source interface {
	String(key string) (string, bool)
	Int(key string) (int, bool)
}

// MemberResolver resolves serialized references back to live members.
// ir.Universe implements it.
type MemberResolver interface {
	ResolveType(name ir.TypeName) (*ir.Descriptor, bool)
	ResolveMethod(declaring ir.TypeName, name, signature string) (ir.MethodRef, bool)
}

var (
	_ Sink           = (*PropertyBag)(nil)
	_ Source         = (*PropertyBag)(nil)
	_ MemberResolver = (*ir.Universe)(nil)
)

// PropertyBag is an in-memory flat carrier holding strings and ints.
// Not safe for concurrent use.
type PropertyBag struct {
	values map[string]any
}

// NewPropertyBag creates an empty bag.
func NewPropertyBag() *PropertyBag {
	return &PropertyBag{values: make(map[string]any)}
}

// AddString implements Sink.
func (b *PropertyBag) AddString(key, value string) {
	b.values[key] = value
}

// AddInt implements Sink.
func (b *PropertyBag) AddInt(key string, value int) {
	b.values[key] = value
}

// String implements Source. A key holding an int does not read as a string.
func (b *PropertyBag) String(key string) (string, bool) {
	s, ok := b.values[key].(string)
	return s, ok
}

// Int implements Source.
func (b *PropertyBag) Int(key string) (int, bool) {
	n, ok := b.values[key].(int)
	return n, ok
}

// Value returns the raw value under key.
func (b *PropertyBag) Value(key string) (any, bool) {
	v, ok := b.values[key]
	return v, ok
}

// Keys returns all keys in ascending order.
func (b *PropertyBag) Keys() []string {
	return slices.Sorted(maps.Keys(b.values))
}

// Len returns the number of entries.
func (b *PropertyBag) Len() int {
	return len(b.values)
}
