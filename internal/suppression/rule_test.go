package suppression

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/mixer/internal/ir"
)

// fixture: A is a root mixin, C derives from A, B is unrelated.
type fixture struct {
	A, B, C *ir.Descriptor
}

func newFixture() fixture {
	a := ir.NewDescriptor("shop.A")
	return fixture{
		A: a,
		B: ir.NewDescriptor("shop.B"),
		C: ir.NewDescriptor("shop.C", ir.WithBase(a)),
	}
}

func (f fixture) mixins() ir.MixinMap {
	return ir.NewMixinMap(
		ir.NewMixinContext(f.A),
		ir.NewMixinContext(f.B),
		ir.NewMixinContext(f.C),
	)
}

func TestTreeSuppression_RemovesTree(t *testing.T) {
	f := newFixture()
	m := f.mixins()

	TreeSuppression{Base: f.A}.RemoveAffectedMixins(m)

	assert.Equal(t, []ir.TypeName{"shop.B"}, m.SortedNames())
}

func TestTreeSuppression_Idempotent(t *testing.T) {
	f := newFixture()
	rule := TreeSuppression{Base: f.A}

	once := f.mixins()
	rule.RemoveAffectedMixins(once)

	twice := f.mixins()
	rule.RemoveAffectedMixins(twice)
	rule.RemoveAffectedMixins(twice)

	assert.Equal(t, once.SortedNames(), twice.SortedNames())
}

func TestTreeSuppression_AllowsEmptyResult(t *testing.T) {
	f := newFixture()
	m := ir.NewMixinMap(ir.NewMixinContext(f.A), ir.NewMixinContext(f.C))

	TreeSuppression{Base: f.A}.RemoveAffectedMixins(m)

	assert.Empty(t, m)
}

func TestTreeSuppression_EmptyMap(t *testing.T) {
	f := newFixture()
	m := ir.MixinMap{}

	assert.NotPanics(t, func() {
		TreeSuppression{Base: f.A}.RemoveAffectedMixins(m)
	})
	assert.Empty(t, m)
}

func TestTreeReplacement_KeepsReplacement(t *testing.T) {
	f := newFixture()
	m := f.mixins()

	TreeReplacement{Replacing: f.C, Base: f.A}.RemoveAffectedMixins(m)

	assert.Equal(t, []ir.TypeName{"shop.B", "shop.C"}, m.SortedNames())
}

func TestTreeReplacement_KeepsSubclassesOfReplacement(t *testing.T) {
	f := newFixture()
	d := ir.NewDescriptor("shop.D", ir.WithBase(f.C))
	m := f.mixins()
	m[d.Name()] = ir.NewMixinContext(d)

	TreeReplacement{Replacing: f.C, Base: f.A}.RemoveAffectedMixins(m)

	assert.Equal(t, []ir.TypeName{"shop.B", "shop.C", "shop.D"}, m.SortedNames())
}

func TestTreeReplacement_NeverRemovesReplacementInAnyOrder(t *testing.T) {
	f := newFixture()
	rules := []Rule{
		TreeSuppression{Base: f.B},
		TreeReplacement{Replacing: f.C, Base: f.A},
	}

	forward := f.mixins()
	Apply(forward, rules...)
	backward := f.mixins()
	Apply(backward, rules[1], rules[0])

	assert.Contains(t, forward, ir.TypeName("shop.C"))
	assert.Contains(t, backward, ir.TypeName("shop.C"))
	assert.Equal(t, forward.SortedNames(), backward.SortedNames())
}

func TestTreeReplacement_UnrelatedReplacement(t *testing.T) {
	f := newFixture()
	m := f.mixins()

	// B is not in A's tree, so it is unaffected either way; A and C go.
	TreeReplacement{Replacing: f.B, Base: f.A}.RemoveAffectedMixins(m)

	assert.Equal(t, []ir.TypeName{"shop.B"}, m.SortedNames())
}

func TestTreeSuppression_GenericDefinition(t *testing.T) {
	def := ir.NewDescriptor("shop.Cache[T]", ir.AsGenericDefinition())
	orders := ir.NewDescriptor("shop.Cache[Order]", ir.WithGenericDefinition(def))
	invoices := ir.NewDescriptor("shop.Cache[Invoice]", ir.WithGenericDefinition(def))
	other := ir.NewDescriptor("shop.Other")
	m := ir.NewMixinMap(
		ir.NewMixinContext(orders),
		ir.NewMixinContext(invoices),
		ir.NewMixinContext(other),
	)

	TreeSuppression{Base: def}.RemoveAffectedMixins(m)

	assert.Equal(t, []ir.TypeName{"shop.Other"}, m.SortedNames())
}

func TestDescribe(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "suppress shop.A", Describe(TreeSuppression{Base: f.A}))
	assert.Equal(t, "replace shop.A with shop.C", Describe(TreeReplacement{Replacing: f.C, Base: f.A}))
}
