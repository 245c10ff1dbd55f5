package ir

import (
	"errors"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrNilDescriptor is returned when a nil descriptor is registered.
	ErrNilDescriptor = errors.New("ir: nil descriptor")
	// ErrConflictingDescriptor indicates an attempt to register a different
	// descriptor under a name that is already taken.
	ErrConflictingDescriptor = errors.New("ir: conflicting descriptor registration")
)

// Universe is a process-wide registry of descriptors by type name.
// It answers the member lookups needed to rehydrate serialized identities.
//
// Reads are lock-free; writes are serialized so the count stays consistent.
type Universe struct {
	mu    sync.Mutex
	m     sync.Map // map[TypeName]*Descriptor
	count int
}

// NewUniverse creates an empty universe.
func NewUniverse() *Universe {
	return &Universe{}
}

// Register adds d. Registering the same descriptor twice is a no-op;
// registering a different descriptor under a taken name is an error.
func (u *Universe) Register(d *Descriptor) error {
	if d == nil {
		return ErrNilDescriptor
	}

	if old, ok := u.m.Load(d.name); ok {
		if old.(*Descriptor) == d {
			return nil
		}
		return ErrConflictingDescriptor
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	// Re-check under lock in case another goroutine stored meanwhile.
	if old, ok := u.m.Load(d.name); ok {
		if old.(*Descriptor) == d {
			return nil
		}
		return ErrConflictingDescriptor
	}

	u.m.Store(d.name, d)
	u.count++
	return nil
}

// Lookup returns the descriptor registered under name.
func (u *Universe) Lookup(name TypeName) (*Descriptor, bool) {
	v, ok := u.m.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*Descriptor), true
}

// ResolveType implements identity.MemberResolver.
func (u *Universe) ResolveType(name TypeName) (*Descriptor, bool) {
	return u.Lookup(name)
}

// ResolveMethod implements identity.MemberResolver. Only methods declared
// directly on the declaring type resolve.
func (u *Universe) ResolveMethod(declaring TypeName, name, signature string) (MethodRef, bool) {
	d, ok := u.Lookup(declaring)
	if !ok {
		return MethodRef{}, false
	}
	m, ok := d.Method(name, signature)
	if !ok {
		return MethodRef{}, false
	}
	return m.Ref, true
}

// Descriptors returns a snapshot ordered by name.
func (u *Universe) Descriptors() []*Descriptor {
	out := make([]*Descriptor, 0, u.Len())
	u.m.Range(func(_, value any) bool {
		out = append(out, value.(*Descriptor))
		return true
	})
	slices.SortFunc(out, func(a, b *Descriptor) int {
		return strings.Compare(string(a.name), string(b.name))
	})
	return out
}

// Len returns the number of registered descriptors.
func (u *Universe) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.count
}
