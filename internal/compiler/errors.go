package compiler

import (
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError reports a configuration that cannot be compiled. Field is
// the dotted path of the offending value, e.g. "target.shop.Order.mixins".
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos

	// Err is the underlying CUE error, if any.
	Err error
}

func (e *CompileError) Error() string {
	if !e.Pos.IsValid() {
		return e.Field + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Field, e.Message)
}

func (e *CompileError) Unwrap() error { return e.Err }

// formatCUEError turns a CUE evaluation error into a CompileError at the
// first reported position. Further errors are counted, not listed.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return &CompileError{Field: "cue", Message: err.Error(), Err: err}
	}

	first := list[0]
	ce := &CompileError{Field: "cue", Message: first.Error(), Err: err}
	if more := len(list) - 1; more > 0 {
		ce.Message += fmt.Sprintf(" (and %d more)", more)
	}
	if pos := cueerrors.Positions(first); len(pos) > 0 {
		ce.Pos = pos[0]
	}
	return ce
}
