package emit

import (
	"fmt"
	"slices"

	"github.com/roach88/mixer/internal/ctorcache"
	"github.com/roach88/mixer/internal/ir"
	"github.com/roach88/mixer/internal/typecache"
)

// Instance is an object constructed from a generated type.
type Instance struct {
	Type typecache.GeneratedType
	Args []any
}

// ArityError is returned by an invoker called with the wrong number of
// arguments.
type ArityError struct {
	Type string
	Want ir.Signature
	Got  int
}

// Error implements the error interface.
func (e *ArityError) Error() string {
	return fmt.Sprintf("construct %s%s: got %d arguments, want %d", e.Type, e.Want, e.Got, len(e.Want))
}

// Compiler implements ctorcache.Compiler.
type Compiler struct{}

var _ ctorcache.Compiler = Compiler{}

// Compile returns an invoker for ctor on t.
func (Compiler) Compile(t typecache.GeneratedType, ctor ir.Constructor) (ctorcache.Invoker, error) {
	if t == nil {
		return nil, fmt.Errorf("emit: compile constructor on nil type")
	}
	sig := slices.Clone(ctor.Signature)
	return func(args ...any) (any, error) {
		if len(args) != len(sig) {
			return nil, &ArityError{Type: t.TypeName(), Want: sig, Got: len(args)}
		}
		return &Instance{Type: t, Args: slices.Clone(args)}, nil
	}, nil
}
