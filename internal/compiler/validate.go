package compiler

import (
	"fmt"

	"github.com/roach88/mixer/internal/ir"
)

// Validation codes (E100-E199). These report configuration that compiles but
// has no effect or cannot be persisted.
const (
	// ErrUnknownDependency: a mixin depends on a mixin not assigned to the
	// same target. The dependency is ignored when ordering.
	ErrUnknownDependency = "E120"

	// ErrDeadOverride: a mixin method marked override "target" matches no
	// method on the target or its bases.
	ErrDeadOverride = "E121"

	// ErrUnserializableOverride: a method taking part in an override is a
	// closed generic instantiation, so the identity cannot be serialized.
	ErrUnserializableOverride = "E122"

	// ErrUnknownInterface: a mixin introduces an interface that is not a
	// declared type.
	ErrUnknownInterface = "E123"

	// ErrSelfMixin: a target lists itself as a mixin.
	ErrSelfMixin = "E124"
)

// ValidationError is a semantic finding on a compiled configuration.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks cfg and returns all findings in target then mixin name
// order. It does not fail fast.
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError
	for _, tname := range cfg.TargetNames() {
		t := cfg.Targets[tname]
		for _, mname := range t.Mixins.SortedNames() {
			errs = append(errs, validateMixin(cfg.Universe, t, t.Mixins[mname])...)
		}
	}
	return errs
}

func validateMixin(u *ir.Universe, t *Target, ctx ir.MixinContext) []ValidationError {
	var errs []ValidationError
	path := fmt.Sprintf("target.%s.mixins.%s", t.Descriptor.Name(), ctx.Name())
	mixin := ctx.Mixin()

	if mixin.Equal(t.Descriptor) {
		errs = append(errs, ValidationError{
			Field:   path,
			Message: "target cannot be its own mixin",
			Code:    ErrSelfMixin,
		})
	}

	for i, dep := range ctx.Dependencies() {
		if _, ok := t.Mixins[dep]; !ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.dependencies[%d]", path, i),
				Message: fmt.Sprintf("%s is not a mixin of %s", dep, t.Descriptor.Name()),
				Code:    ErrUnknownDependency,
			})
		}
	}

	for i, iface := range ctx.IntroducedInterfaces() {
		if _, ok := u.Lookup(iface); !ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.introduces[%d]", path, i),
				Message: fmt.Sprintf("unknown type %q", iface),
				Code:    ErrUnknownInterface,
			})
		}
	}

	for _, m := range mixin.Methods() {
		if m.Override != ir.OverrideTarget {
			continue
		}
		tm, ok := t.Descriptor.FindMethod(m.Ref.Name, m.Ref.Signature)
		if !ok {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: fmt.Sprintf("%s overrides no method of %s", m.Ref, t.Descriptor.Name()),
				Code:    ErrDeadOverride,
			})
			continue
		}
		if tm.Ref.GenericInstance {
			errs = append(errs, unserializable(path, tm.Ref))
		}
	}

	for d := t.Descriptor; d != nil; d = d.Base() {
		for _, tm := range d.Methods() {
			if tm.Override != ir.OverrideMixin {
				continue
			}
			if mm, ok := mixin.FindMethod(tm.Ref.Name, tm.Ref.Signature); ok && mm.Ref.GenericInstance {
				errs = append(errs, unserializable(path, mm.Ref))
			}
		}
	}
	return errs
}

func unserializable(path string, ref ir.MethodRef) ValidationError {
	return ValidationError{
		Field:   path,
		Message: fmt.Sprintf("%s is a generic method instantiation; the identity cannot be serialized", ref),
		Code:    ErrUnserializableOverride,
	}
}
