package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/mixer/internal/ir"
	"github.com/roach88/mixer/internal/suppression"
)

func parseTargets(root cue.Value, u *ir.Universe) (map[ir.TypeName]*Target, error) {
	targets := make(map[ir.TypeName]*Target)
	err := fields(root, "target", "", func(label string, v cue.Value) error {
		path := "target." + label
		desc, err := lookupType(u, label, path, v.Pos())
		if err != nil {
			return err
		}

		t := &Target{Descriptor: desc, Mixins: ir.NewMixinMap()}
		err = fields(v, "mixins", path, func(mlabel string, mv cue.Value) error {
			ctx, err := parseMixin(u, mlabel, joinPath(path, "mixins."+mlabel), mv)
			if err != nil {
				return err
			}
			t.Mixins[ctx.Name()] = ctx
			return nil
		})
		if err != nil {
			return err
		}

		if s := v.LookupPath(cue.ParsePath("suppress")); s.Exists() {
			err := elems(s, joinPath(path, "suppress"), func(rpath string, rv cue.Value) error {
				r, err := parseRule(u, rpath, rv)
				if err != nil {
					return err
				}
				t.Rules = append(t.Rules, r)
				return nil
			})
			if err != nil {
				return err
			}
		}

		targets[desc.Name()] = t
		return nil
	})
	return targets, err
}

func parseMixin(u *ir.Universe, name, path string, v cue.Value) (ir.MixinContext, error) {
	desc, err := lookupType(u, name, path, v.Pos())
	if err != nil {
		return ir.MixinContext{}, err
	}

	kindStr, err := optString(v, "kind", path)
	if err != nil {
		return ir.MixinContext{}, err
	}
	kind, err := ir.ParseMixinKind(kindStr)
	if err != nil {
		return ir.MixinContext{}, &CompileError{Field: joinPath(path, "kind"), Message: err.Error(), Pos: v.Pos()}
	}

	deps, err := optStrings(v, "dependencies", path)
	if err != nil {
		return ir.MixinContext{}, err
	}
	introduces, err := optStrings(v, "introduces", path)
	if err != nil {
		return ir.MixinContext{}, err
	}
	priority, err := optInt(v, "priority", path)
	if err != nil {
		return ir.MixinContext{}, err
	}

	return ir.NewMixinContext(desc,
		ir.WithKind(kind),
		ir.WithDependencies(typeNames(deps)...),
		ir.WithIntroducedInterfaces(typeNames(introduces)...),
		ir.WithPriority(priority),
	), nil
}

// parseRule reads { base } as a tree suppression and { base, replacement }
// as a tree replacement.
func parseRule(u *ir.Universe, path string, v cue.Value) (suppression.Rule, error) {
	baseName, err := optString(v, "base", path)
	if err != nil {
		return nil, err
	}
	if baseName == "" {
		return nil, &CompileError{Field: joinPath(path, "base"), Message: "base is required", Pos: v.Pos()}
	}
	base, err := lookupType(u, baseName, joinPath(path, "base"), v.Pos())
	if err != nil {
		return nil, err
	}

	replName, err := optString(v, "replacement", path)
	if err != nil {
		return nil, err
	}
	if replName == "" {
		return suppression.TreeSuppression{Base: base}, nil
	}
	repl, err := lookupType(u, replName, joinPath(path, "replacement"), v.Pos())
	if err != nil {
		return nil, err
	}
	return suppression.TreeReplacement{Replacing: repl, Base: base}, nil
}

func lookupType(u *ir.Universe, name, path string, pos token.Pos) (*ir.Descriptor, error) {
	d, ok := u.Lookup(ir.TypeName(name))
	if !ok {
		return nil, &CompileError{Field: path, Message: fmt.Sprintf("unknown type %q", name), Pos: pos}
	}
	return d, nil
}

func typeNames(ss []string) []ir.TypeName {
	out := make([]ir.TypeName, len(ss))
	for i, s := range ss {
		out[i] = ir.TypeName(s)
	}
	return out
}
