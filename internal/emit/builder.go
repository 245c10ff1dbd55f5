package emit

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/mixer/internal/identity"
	"github.com/roach88/mixer/internal/ir"
	"github.com/roach88/mixer/internal/typecache"
)

// ErrOpenGeneric is returned when the mixin is an open generic definition.
// Only closed constructions can be realized.
var ErrOpenGeneric = errors.New("emit: cannot realize open generic definition")

// defaultConstructor is used when the mixin declares no constructors.
var defaultConstructor = ir.Constructor{Signature: ir.Signature{}, Public: true}

// PlannedType is the generated type for one composition identity.
type PlannedType struct {
	name     string
	identity identity.CompositionIdentity
	contexts []ir.MixinContext
	ctors    []ir.Constructor
}

var _ typecache.GeneratedType = (*PlannedType)(nil)

// TypeName returns the generated name, "<Mixin>_Concrete_<token>".
func (t *PlannedType) TypeName() string { return t.name }

// Constructors returns the constructors of the generated type.
func (t *PlannedType) Constructors() []ir.Constructor { return slices.Clone(t.ctors) }

// Identity returns the identity the type was built for.
func (t *PlannedType) Identity() identity.CompositionIdentity { return t.identity }

// Contexts returns the mixin contexts the type was built with. These are the
// contexts of the first request that built it, and are empty when that
// request came through the constructor cache.
func (t *PlannedType) Contexts() []ir.MixinContext { return slices.Clone(t.contexts) }

// String implements fmt.Stringer.
func (t *PlannedType) String() string { return t.name }

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithNameGenerator sets the token source for generated type names.
// Defaults to UUIDv7Generator.
func WithNameGenerator(g NameGenerator) BuilderOption {
	return func(b *Builder) {
		b.names = g
	}
}

// Builder implements typecache.Builder.
type Builder struct {
	names NameGenerator
}

var _ typecache.Builder = (*Builder)(nil)

// NewBuilder creates a builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{names: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build realizes plan. The generated type inherits the mixin's declared
// constructors, or a single public parameterless one if it declares none.
func (b *Builder) Build(plan typecache.Plan) (typecache.GeneratedType, error) {
	mixin := plan.Identity.Mixin()
	if mixin == nil {
		return nil, fmt.Errorf("emit: plan has no mixin")
	}
	if mixin.IsGenericDefinition() {
		return nil, fmt.Errorf("%w: %s", ErrOpenGeneric, mixin.Name())
	}

	ctors := mixin.Constructors()
	if len(ctors) == 0 {
		ctors = []ir.Constructor{defaultConstructor}
	}

	return &PlannedType{
		name:     fmt.Sprintf("%s_Concrete_%s", mixin.Name(), b.names.Generate()),
		identity: plan.Identity,
		contexts: slices.Clone(plan.Contexts),
		ctors:    ctors,
	}, nil
}
