package ir

import "slices"

// TypeName is the fully qualified name of a class, e.g. "shop.AuditMixin".
type TypeName string

// Descriptor describes a class known to the composition layer: a target
// class, a mixin, or one of their bases and interfaces.
//
// Descriptors are immutable. Construct them with NewDescriptor; accessors
// return copies of slice fields.
type Descriptor struct {
	name       TypeName
	base       *Descriptor
	interfaces []*Descriptor
	genericDef *Descriptor
	open       bool
	methods    []Method
	ctors      []Constructor
}

// DescriptorOption configures a Descriptor during construction.
type DescriptorOption func(*Descriptor)

// WithBase sets the base class.
func WithBase(base *Descriptor) DescriptorOption {
	return func(d *Descriptor) {
		d.base = base
	}
}

// WithInterfaces sets the implemented interfaces.
func WithInterfaces(ifaces ...*Descriptor) DescriptorOption {
	return func(d *Descriptor) {
		d.interfaces = append(d.interfaces, ifaces...)
	}
}

// WithGenericDefinition marks the descriptor as a closed construction of def.
func WithGenericDefinition(def *Descriptor) DescriptorOption {
	return func(d *Descriptor) {
		d.genericDef = def
	}
}

// AsGenericDefinition marks the descriptor as an open generic definition.
func AsGenericDefinition() DescriptorOption {
	return func(d *Descriptor) {
		d.open = true
	}
}

// WithMethods declares methods on the descriptor.
// Methods with an empty DeclaringType are stamped with the descriptor's name.
func WithMethods(methods ...Method) DescriptorOption {
	return func(d *Descriptor) {
		d.methods = append(d.methods, methods...)
	}
}

// WithConstructors declares constructors on the descriptor.
func WithConstructors(ctors ...Constructor) DescriptorOption {
	return func(d *Descriptor) {
		for _, c := range ctors {
			d.ctors = append(d.ctors, Constructor{
				Signature: slices.Clone(c.Signature),
				Public:    c.Public,
			})
		}
	}
}

// NewDescriptor creates an immutable descriptor.
func NewDescriptor(name TypeName, opts ...DescriptorOption) *Descriptor {
	d := &Descriptor{name: name}
	for _, opt := range opts {
		opt(d)
	}
	for i := range d.methods {
		if d.methods[i].Ref.DeclaringType == "" {
			d.methods[i].Ref.DeclaringType = name
		}
	}
	return d
}

// Name returns the qualified type name.
func (d *Descriptor) Name() TypeName {
	if d == nil {
		return ""
	}
	return d.name
}

// String implements fmt.Stringer.
func (d *Descriptor) String() string {
	return string(d.Name())
}

// Base returns the base class, or nil.
func (d *Descriptor) Base() *Descriptor {
	return d.base
}

// Interfaces returns the implemented interfaces.
func (d *Descriptor) Interfaces() []*Descriptor {
	return slices.Clone(d.interfaces)
}

// GenericDefinition returns the open definition this descriptor closes, or nil.
func (d *Descriptor) GenericDefinition() *Descriptor {
	return d.genericDef
}

// IsGenericDefinition reports whether the descriptor is an open generic definition.
func (d *Descriptor) IsGenericDefinition() bool {
	return d.open
}

// Methods returns the declared methods in declaration order.
func (d *Descriptor) Methods() []Method {
	return slices.Clone(d.methods)
}

// Constructors returns the declared constructors.
func (d *Descriptor) Constructors() []Constructor {
	out := make([]Constructor, len(d.ctors))
	for i, c := range d.ctors {
		out[i] = Constructor{Signature: slices.Clone(c.Signature), Public: c.Public}
	}
	return out
}

// Method returns the declared method with the given name and signature.
func (d *Descriptor) Method(name, signature string) (Method, bool) {
	for _, m := range d.methods {
		if m.Ref.Name == name && m.Ref.Signature == signature {
			return m, true
		}
	}
	return Method{}, false
}

// FindMethod looks up a method on the descriptor or any of its bases.
func (d *Descriptor) FindMethod(name, signature string) (Method, bool) {
	for t := d; t != nil; t = t.base {
		if m, ok := t.Method(name, signature); ok {
			return m, true
		}
	}
	return Method{}, false
}

// Equal reports whether both descriptors name the same class.
func (d *Descriptor) Equal(other *Descriptor) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.name == other.name
}

// AscribableTo reports whether d can be ascribed to target: d is target, a
// subtype of target (through its base chain or implemented interfaces), or,
// when target is an open generic definition, a closed construction of it
// anywhere in that hierarchy.
func (d *Descriptor) AscribableTo(target *Descriptor) bool {
	if d == nil || target == nil {
		return false
	}
	seen := make(map[TypeName]bool)
	var walk func(t *Descriptor) bool
	walk = func(t *Descriptor) bool {
		if t == nil || seen[t.name] {
			return false
		}
		seen[t.name] = true
		if t.name == target.name {
			return true
		}
		if target.open && t.genericDef != nil && t.genericDef.name == target.name {
			return true
		}
		if walk(t.base) {
			return true
		}
		for _, iface := range t.interfaces {
			if walk(iface) {
				return true
			}
		}
		return false
	}
	return walk(d)
}
