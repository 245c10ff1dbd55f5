package compiler

import (
	"fmt"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/mixer/internal/ir"
)

// typeRef is a by-name reference from one type declaration to another.
type typeRef struct {
	name  ir.TypeName
	field string
	pos   token.Pos
}

type typeSpec struct {
	name       ir.TypeName
	pos        token.Pos
	base       *typeRef
	interfaces []typeRef
	genericDef *typeRef
	open       bool
	methods    []ir.Method
	ctors      []ir.Constructor
}

func (s *typeSpec) refs() []typeRef {
	var out []typeRef
	if s.base != nil {
		out = append(out, *s.base)
	}
	out = append(out, s.interfaces...)
	if s.genericDef != nil {
		out = append(out, *s.genericDef)
	}
	return out
}

// parseTypes reads the "type" section:
//
//	type: "shop.Order": {
//		base:       "shop.Entity"
//		interfaces: ["shop.Auditable"]
//		methods: Total: { signature: "()", override: "mixin" }
//		constructors: [{ signature: "(string)", public: true }]
//	}
func parseTypes(root cue.Value) (map[ir.TypeName]*typeSpec, error) {
	specs := make(map[ir.TypeName]*typeSpec)
	err := fields(root, "type", "", func(label string, v cue.Value) error {
		s, err := parseType(ir.TypeName(label), v)
		if err != nil {
			return err
		}
		specs[s.name] = s
		return nil
	})
	return specs, err
}

func parseType(name ir.TypeName, v cue.Value) (*typeSpec, error) {
	path := "type." + string(name)
	s := &typeSpec{name: name, pos: v.Pos()}

	ref := func(field string) (*typeRef, error) {
		n, err := optString(v, field, path)
		if err != nil || n == "" {
			return nil, err
		}
		return &typeRef{
			name:  ir.TypeName(n),
			field: joinPath(path, field),
			pos:   v.LookupPath(cue.MakePath(cue.Str(field))).Pos(),
		}, nil
	}

	var err error
	if s.base, err = ref("base"); err != nil {
		return nil, err
	}
	if s.genericDef, err = ref("generic_definition"); err != nil {
		return nil, err
	}
	if s.open, err = optBool(v, "open", path); err != nil {
		return nil, err
	}
	if s.open && s.genericDef != nil {
		return nil, &CompileError{
			Field:   path,
			Message: "open generic definition cannot itself be a construction",
			Pos:     s.pos,
		}
	}

	ifaces, err := optStrings(v, "interfaces", path)
	if err != nil {
		return nil, err
	}
	ifacePos := v.LookupPath(cue.ParsePath("interfaces")).Pos()
	for i, n := range ifaces {
		s.interfaces = append(s.interfaces, typeRef{
			name:  ir.TypeName(n),
			field: fmt.Sprintf("%s.interfaces[%d]", path, i),
			pos:   ifacePos,
		})
	}

	err = fields(v, "methods", path, func(label string, mv cue.Value) error {
		return elems(mv, joinPath(path, "methods."+label), func(mpath string, ev cue.Value) error {
			m, err := parseMethod(name, label, mpath, ev)
			if err != nil {
				return err
			}
			// Generic instantiation does not make a second method slot.
			if slices.ContainsFunc(s.methods, func(o ir.Method) bool {
				return o.Ref.Name == m.Ref.Name && o.Ref.Signature == m.Ref.Signature
			}) {
				return &CompileError{Field: mpath, Message: "duplicate method " + m.Ref.String(), Pos: ev.Pos()}
			}
			s.methods = append(s.methods, m)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if c := v.LookupPath(cue.ParsePath("constructors")); c.Exists() {
		err := elems(c, joinPath(path, "constructors"), func(cpath string, ev cue.Value) error {
			ctor, err := parseConstructor(cpath, ev)
			if err != nil {
				return err
			}
			s.ctors = append(s.ctors, ctor)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func parseMethod(declaring ir.TypeName, name, path string, v cue.Value) (ir.Method, error) {
	sigStr, err := optString(v, "signature", path)
	if err != nil {
		return ir.Method{}, err
	}
	if sigStr == "" {
		sigStr = "()"
	}
	sig, err := ir.ParseSignature(sigStr)
	if err != nil {
		return ir.Method{}, &CompileError{Field: joinPath(path, "signature"), Message: err.Error(), Pos: v.Pos()}
	}

	ovStr, err := optString(v, "override", path)
	if err != nil {
		return ir.Method{}, err
	}
	ov, err := ir.ParseOverride(ovStr)
	if err != nil {
		return ir.Method{}, &CompileError{Field: joinPath(path, "override"), Message: err.Error(), Pos: v.Pos()}
	}

	generic, err := optBool(v, "generic_instance", path)
	if err != nil {
		return ir.Method{}, err
	}

	m := ir.NewMethod(name, sig, ov)
	m.Ref.DeclaringType = declaring
	m.Ref.GenericInstance = generic
	return m, nil
}

func parseConstructor(path string, v cue.Value) (ir.Constructor, error) {
	sigStr, err := optString(v, "signature", path)
	if err != nil {
		return ir.Constructor{}, err
	}
	if sigStr == "" {
		sigStr = "()"
	}
	sig, err := ir.ParseSignature(sigStr)
	if err != nil {
		return ir.Constructor{}, &CompileError{Field: joinPath(path, "signature"), Message: err.Error(), Pos: v.Pos()}
	}

	public := true
	if p := v.LookupPath(cue.ParsePath("public")); p.Exists() {
		if public, err = p.Bool(); err != nil {
			return ir.Constructor{}, &CompileError{Field: joinPath(path, "public"), Message: "must be a bool", Pos: p.Pos()}
		}
	}
	return ir.Constructor{Signature: sig, Public: public}, nil
}

// buildUniverse creates descriptors so that every referenced type exists
// before its referrer, and registers them all.
func buildUniverse(specs map[ir.TypeName]*typeSpec) (*ir.Universe, error) {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[ir.TypeName]int, len(specs))
	built := make(map[ir.TypeName]*ir.Descriptor, len(specs))
	var stack []string

	var build func(name ir.TypeName) error
	build = func(name ir.TypeName) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			i := slices.Index(stack, string(name))
			cycle := append(slices.Clone(stack[i:]), string(name))
			s := specs[name]
			return &CompileError{
				Field:   "type." + string(name),
				Message: "type hierarchy cycle: " + strings.Join(cycle, " → "),
				Pos:     s.pos,
			}
		}

		s := specs[name]
		state[name] = visiting
		stack = append(stack, string(name))

		for _, r := range s.refs() {
			if _, ok := specs[r.name]; !ok {
				return &CompileError{Field: r.field, Message: fmt.Sprintf("unknown type %q", r.name), Pos: r.pos}
			}
			if err := build(r.name); err != nil {
				return err
			}
		}

		opts := []ir.DescriptorOption{ir.WithMethods(s.methods...), ir.WithConstructors(s.ctors...)}
		if s.base != nil {
			opts = append(opts, ir.WithBase(built[s.base.name]))
		}
		if s.genericDef != nil {
			def := built[s.genericDef.name]
			if !def.IsGenericDefinition() {
				return &CompileError{
					Field:   s.genericDef.field,
					Message: fmt.Sprintf("%s is not an open generic definition", def.Name()),
					Pos:     s.genericDef.pos,
				}
			}
			opts = append(opts, ir.WithGenericDefinition(def))
		}
		ifaces := make([]*ir.Descriptor, len(s.interfaces))
		for i, r := range s.interfaces {
			ifaces[i] = built[r.name]
		}
		if len(ifaces) > 0 {
			opts = append(opts, ir.WithInterfaces(ifaces...))
		}
		if s.open {
			opts = append(opts, ir.AsGenericDefinition())
		}

		built[name] = ir.NewDescriptor(name, opts...)
		state[name] = done
		stack = stack[:len(stack)-1]
		return nil
	}

	names := make([]ir.TypeName, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	slices.Sort(names)

	u := ir.NewUniverse()
	for _, name := range names {
		if err := build(name); err != nil {
			return nil, err
		}
		if err := u.Register(built[name]); err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}
	return u, nil
}
