package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mixer/internal/ir"
	"github.com/roach88/mixer/internal/suppression"
)

const shopConfig = `
type: "shop.Entity": methods: Save: { signature: "()" }
type: "shop.Auditable": {}
type: "shop.Order": {
	base: "shop.Entity"
	interfaces: ["shop.Auditable"]
	methods: {
		Total: { signature: "()" }
		Describe: { signature: "()", override: "mixin" }
		Add: [{ signature: "(string)" }, { signature: "(string,int)" }]
	}
}
type: "shop.AuditMixin": {
	methods: {
		Total: { signature: "()", override: "target" }
		Describe: {}
	}
	constructors: [{ signature: "(string)" }, { signature: "()", public: false }]
}
type: "shop.Cache[T]": open: true
type: "shop.Cache[int]": generic_definition: "shop.Cache[T]"
type: "shop.FastCache": base: "shop.Cache[int]"
type: "shop.LegacyMixin": {}

target: "shop.Order": {
	mixins: {
		"shop.AuditMixin": { kind: "used", priority: 2, introduces: ["shop.Auditable"] }
		"shop.Cache[int]": { dependencies: ["shop.AuditMixin"] }
		"shop.FastCache": {}
		"shop.LegacyMixin": {}
	}
	suppress: [
		{ base: "shop.LegacyMixin" },
		{ base: "shop.Cache[T]", replacement: "shop.FastCache" },
	]
}
`

func compile(t *testing.T, src string) (*Config, error) {
	t.Helper()
	v := cuecontext.New().CompileString(src, cue.Filename("mixins.cue"))
	return CompileConfig(v)
}

func TestCompileConfig_Types(t *testing.T) {
	cfg, err := compile(t, shopConfig)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Universe.Len())

	order, ok := cfg.Universe.Lookup("shop.Order")
	require.True(t, ok)
	assert.Equal(t, ir.TypeName("shop.Entity"), order.Base().Name())
	require.Len(t, order.Interfaces(), 1)
	assert.Equal(t, ir.TypeName("shop.Auditable"), order.Interfaces()[0].Name())

	describe, ok := order.Method("Describe", "()")
	require.True(t, ok)
	assert.Equal(t, ir.OverrideMixin, describe.Override)
	assert.Equal(t, ir.TypeName("shop.Order"), describe.Ref.DeclaringType)

	_, ok = order.Method("Add", "(string,int)")
	assert.True(t, ok, "list form declares overloads")
	_, ok = order.FindMethod("Save", "()")
	assert.True(t, ok)

	audit, _ := cfg.Universe.Lookup("shop.AuditMixin")
	assert.Equal(t, []ir.Constructor{
		{Signature: ir.Signature{"string"}, Public: true},
		{Signature: ir.Signature{}, Public: false},
	}, audit.Constructors())

	open, _ := cfg.Universe.Lookup("shop.Cache[T]")
	closed, _ := cfg.Universe.Lookup("shop.Cache[int]")
	fast, _ := cfg.Universe.Lookup("shop.FastCache")
	assert.True(t, open.IsGenericDefinition())
	assert.Same(t, open, closed.GenericDefinition())
	assert.True(t, fast.AscribableTo(open))
}

func TestCompileConfig_Targets(t *testing.T) {
	cfg, err := compile(t, shopConfig)
	require.NoError(t, err)

	assert.Equal(t, []ir.TypeName{"shop.Order"}, cfg.TargetNames())
	target := cfg.Targets["shop.Order"]
	assert.Equal(t, ir.TypeName("shop.Order"), target.Descriptor.Name())
	assert.Equal(t, []ir.TypeName{"shop.AuditMixin", "shop.Cache[int]", "shop.FastCache", "shop.LegacyMixin"},
		target.Mixins.SortedNames())

	audit := target.Mixins["shop.AuditMixin"]
	assert.Equal(t, ir.KindUsed, audit.Kind())
	assert.Equal(t, 2, audit.Priority())
	assert.Equal(t, []ir.TypeName{"shop.Auditable"}, audit.IntroducedInterfaces())

	cache := target.Mixins["shop.Cache[int]"]
	assert.Equal(t, ir.KindExtending, cache.Kind())
	assert.Equal(t, []ir.TypeName{"shop.AuditMixin"}, cache.Dependencies())

	require.Len(t, target.Rules, 2)
	assert.IsType(t, suppression.TreeSuppression{}, target.Rules[0])
	repl, ok := target.Rules[1].(suppression.TreeReplacement)
	require.True(t, ok)
	assert.Equal(t, ir.TypeName("shop.FastCache"), repl.Replacing.Name())
	assert.Equal(t, ir.TypeName("shop.Cache[T]"), repl.Base.Name())

	survivors := target.Mixins.Clone()
	suppression.Apply(survivors, target.Rules...)
	assert.Equal(t, []ir.TypeName{"shop.AuditMixin", "shop.FastCache"}, survivors.SortedNames())
}

func TestCompileConfig_GenericInstanceMethod(t *testing.T) {
	cfg, err := compile(t, `
type: "shop.Order": methods: Convert: { signature: "(int)", generic_instance: true }
`)
	require.NoError(t, err)

	order, _ := cfg.Universe.Lookup("shop.Order")
	m, ok := order.Method("Convert", "(int)")
	require.True(t, ok)
	assert.True(t, m.Ref.GenericInstance)
}

func TestCompileConfig_Empty(t *testing.T) {
	cfg, err := compile(t, ``)
	require.NoError(t, err)
	assert.Zero(t, cfg.Universe.Len())
	assert.Empty(t, cfg.TargetNames())
}

func TestCompileConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		field   string
		message string
	}{
		{
			name:    "unknown base",
			src:     `type: "shop.Order": base: "shop.Missing"`,
			field:   "type.shop.Order.base",
			message: `unknown type "shop.Missing"`,
		},
		{
			name:    "unknown interface",
			src:     `type: "shop.Order": interfaces: ["shop.Missing"]`,
			field:   "type.shop.Order.interfaces[0]",
			message: `unknown type "shop.Missing"`,
		},
		{
			name: "hierarchy cycle",
			src: `
type: "a.A": base: "a.B"
type: "a.B": base: "a.A"
`,
			field:   "type.a.A",
			message: "type hierarchy cycle: a.A → a.B → a.A",
		},
		{
			name: "construction of closed type",
			src: `
type: "a.List": {}
type: "a.List[int]": generic_definition: "a.List"
`,
			field:   "type.a.List[int].generic_definition",
			message: "a.List is not an open generic definition",
		},
		{
			name:    "bad signature",
			src:     `type: "a.A": methods: F: { signature: "int" }`,
			field:   "type.a.A.methods.F.signature",
			message: "must be wrapped in parentheses",
		},
		{
			name:    "bad override",
			src:     `type: "a.A": methods: F: { override: "sideways" }`,
			field:   "type.a.A.methods.F.override",
			message: `unknown override kind "sideways"`,
		},
		{
			name:    "duplicate method differing only in generic instance",
			src:     `type: "shop.Order": methods: Convert: [{ signature: "(int)" }, { signature: "(int)", generic_instance: true }]`,
			field:   "type.shop.Order.methods.Convert[1]",
			message: "duplicate method shop.Order.Convert(int)",
		},
		{
			name:    "wrong kind",
			src:     `type: "a.A": open: "yes"`,
			field:   "type.a.A.open",
			message: "must be a bool",
		},
		{
			name:    "unknown target",
			src:     `target: "shop.Order": {}`,
			field:   "target.shop.Order",
			message: `unknown type "shop.Order"`,
		},
		{
			name: "unknown mixin",
			src: `
type: "shop.Order": {}
target: "shop.Order": mixins: "shop.Ghost": {}
`,
			field:   "target.shop.Order.mixins.shop.Ghost",
			message: `unknown type "shop.Ghost"`,
		},
		{
			name: "bad mixin kind",
			src: `
type: "shop.Order": {}
type: "shop.M": {}
target: "shop.Order": mixins: "shop.M": { kind: "borrowed" }
`,
			field:   "target.shop.Order.mixins.shop.M.kind",
			message: `unknown mixin kind "borrowed"`,
		},
		{
			name: "rule without base",
			src: `
type: "shop.Order": {}
target: "shop.Order": suppress: [{ replacement: "shop.Order" }]
`,
			field:   "target.shop.Order.suppress[0].base",
			message: "base is required",
		},
		{
			name: "unknown replacement",
			src: `
type: "shop.Order": {}
target: "shop.Order": suppress: [{ base: "shop.Order", replacement: "shop.Nope" }]
`,
			field:   "target.shop.Order.suppress[0].replacement",
			message: `unknown type "shop.Nope"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compile(t, tt.src)
			require.Error(t, err)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
			assert.Contains(t, ce.Message, tt.message)
		})
	}
}

func TestCompileConfig_CUEErrorHasPosition(t *testing.T) {
	_, err := compile(t, `
type: "a.A": open: true
type: "a.A": open: false
`)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "cue", ce.Field)
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, err.Error(), "mixins.cue:")
}

func TestCompileConfig_IncompleteValue(t *testing.T) {
	_, err := compile(t, `type: "a.A": base: string`)
	require.Error(t, err)
}
