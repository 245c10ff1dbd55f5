package composer

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/mixer/internal/ir"
	"github.com/roach88/mixer/internal/suppression"
)

// ErrDependencyCycle is returned when the surviving mixins' ordering
// dependencies form a cycle.
var ErrDependencyCycle = errors.New("composer: mixin dependency cycle")

// Resolve returns the mixins applicable to target, in integration order.
//
// mixins is not modified. rules are applied to a copy in order, then the
// survivors are sorted so that each mixin follows its dependencies. Among
// mixins whose dependencies are satisfied, higher priority goes first, then
// lower name. Dependencies on mixins that are not present are ignored.
func Resolve(target *ir.Descriptor, mixins ir.MixinMap, rules ...suppression.Rule) ([]ir.MixinContext, error) {
	if target == nil {
		return nil, fmt.Errorf("composer: resolve: %w", ir.ErrNilDescriptor)
	}

	survivors := mixins.Clone()
	suppression.Apply(survivors, rules...)

	return order(target.Name(), survivors)
}

// order is Kahn's algorithm over the dependency graph of m.
func order(target ir.TypeName, m ir.MixinMap) ([]ir.MixinContext, error) {
	indegree := make(map[ir.TypeName]int, len(m))
	dependents := make(map[ir.TypeName][]ir.TypeName, len(m))
	for name, ctx := range m {
		indegree[name] = 0
		for _, dep := range slices.Compact(slices.Sorted(slices.Values(ctx.Dependencies()))) {
			if _, ok := m[dep]; !ok {
				continue
			}
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []ir.TypeName
	for name, n := range indegree {
		if n == 0 {
			ready = append(ready, name)
		}
	}

	out := make([]ir.MixinContext, 0, len(m))
	for len(ready) > 0 {
		slices.SortFunc(ready, func(a, b ir.TypeName) int {
			if c := cmp.Compare(m[b].Priority(), m[a].Priority()); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})
		next := ready[0]
		ready = ready[1:]
		out = append(out, m[next])

		for _, d := range dependents[next] {
			indegree[d]--
			if indegree[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	if len(out) != len(m) {
		var stuck []string
		for name, n := range indegree {
			if n > 0 {
				stuck = append(stuck, string(name))
			}
		}
		slices.Sort(stuck)
		return nil, fmt.Errorf("%w on %s: %s", ErrDependencyCycle, target, strings.Join(stuck, ", "))
	}
	return out, nil
}
