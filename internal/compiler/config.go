// Package compiler compiles CUE mixin configuration into descriptors, mixin
// maps and suppression rules.
//
// A configuration has two sections. "type" declares every class by fully
// qualified name: its base, interfaces, generic shape, methods and
// constructors. "target" assigns mixins to target classes and lists the
// suppression rules applied to each target:
//
//	target: "shop.Order": {
//		mixins: "shop.AuditMixin": { kind: "used", dependencies: ["shop.CacheMixin"], priority: 1 }
//		suppress: [{ base: "shop.LegacyMixin" }, { base: "shop.Cache", replacement: "shop.FastCache" }]
//	}
//
// All references are checked at compile time. Errors carry CUE positions.
package compiler

import (
	"maps"
	"slices"

	"cuelang.org/go/cue"

	"github.com/roach88/mixer/internal/ir"
	"github.com/roach88/mixer/internal/suppression"
)

// Config is a compiled mixin configuration.
type Config struct {
	// Universe holds every declared type.
	Universe *ir.Universe

	// Targets maps target names to their mixin assignments.
	Targets map[ir.TypeName]*Target
}

// Target is the mixin assignment of one target class.
type Target struct {
	Descriptor *ir.Descriptor
	Mixins     ir.MixinMap
	Rules      []suppression.Rule
}

// TargetNames returns the configured target names in ascending order.
func (c *Config) TargetNames() []ir.TypeName {
	return slices.Sorted(maps.Keys(c.Targets))
}

// CompileConfig compiles the root value of a mixin configuration.
//
//	ctx := cuecontext.New()
//	cfg, err := CompileConfig(ctx.CompileString(src))
func CompileConfig(v cue.Value) (*Config, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	specs, err := parseTypes(v)
	if err != nil {
		return nil, err
	}
	universe, err := buildUniverse(specs)
	if err != nil {
		return nil, err
	}

	targets, err := parseTargets(v, universe)
	if err != nil {
		return nil, err
	}
	return &Config{Universe: universe, Targets: targets}, nil
}
