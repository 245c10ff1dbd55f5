// Package suppression removes configured mixin assignments from a target's
// effective mixin set.
//
// A Rule is a closed set of two variants, TreeSuppression and
// TreeReplacement. Rules mutate a caller-owned ir.MixinMap in place and never
// fail; suppressing every mixin of a target is legal.
package suppression

import (
	"fmt"
	"log/slog"

	"github.com/roach88/mixer/internal/ir"
)

// Rule removes the mixins it affects from m.
// Only TreeSuppression and TreeReplacement implement it.
type Rule interface {
	RemoveAffectedMixins(m ir.MixinMap)
	rule()
}

// TreeSuppression removes every mixin ascribable to Base.
type TreeSuppression struct {
	Base *ir.Descriptor
}

// TreeReplacement removes every mixin ascribable to Base unless it is also
// ascribable to Replacing. The replacing mixin and its subclasses survive.
type TreeReplacement struct {
	Replacing *ir.Descriptor
	Base      *ir.Descriptor
}

var (
	_ Rule = TreeSuppression{}
	_ Rule = TreeReplacement{}
)

func (TreeSuppression) rule() {}
func (TreeReplacement) rule() {}

// RemoveAffectedMixins implements Rule.
func (r TreeSuppression) RemoveAffectedMixins(m ir.MixinMap) {
	removeWhere(m, r, func(d *ir.Descriptor) bool {
		return d.AscribableTo(r.Base)
	})
}

// RemoveAffectedMixins implements Rule.
func (r TreeReplacement) RemoveAffectedMixins(m ir.MixinMap) {
	removeWhere(m, r, func(d *ir.Descriptor) bool {
		return d.AscribableTo(r.Base) && !d.AscribableTo(r.Replacing)
	})
}

// String implements fmt.Stringer.
func (r TreeSuppression) String() string {
	return fmt.Sprintf("suppress %s", r.Base.Name())
}

// String implements fmt.Stringer.
func (r TreeReplacement) String() string {
	return fmt.Sprintf("replace %s with %s", r.Base.Name(), r.Replacing.Name())
}

// removeWhere deletes matching entries, iterating over a sorted snapshot of
// keys so removal never disturbs the walk and logs are deterministic.
func removeWhere(m ir.MixinMap, r Rule, affected func(*ir.Descriptor) bool) {
	for _, name := range m.SortedNames() {
		ctx := m[name]
		if affected(ctx.Mixin()) {
			delete(m, name)
			slog.Debug("mixin suppressed",
				"mixin", name,
				"rule", Describe(r),
			)
		}
	}
}

// Apply runs rules against m in order.
func Apply(m ir.MixinMap, rules ...Rule) {
	for _, r := range rules {
		r.RemoveAffectedMixins(m)
	}
}

// Describe returns a human-readable form of r.
func Describe(r Rule) string {
	if s, ok := r.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", r)
}
