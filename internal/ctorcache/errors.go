package ctorcache

import (
	"errors"
	"fmt"

	"github.com/roach88/mixer/internal/ir"
)

var (
	// ErrNoCompiler is returned when the cache was created without a Compiler.
	ErrNoCompiler = errors.New("ctorcache: no compiler configured")

	// ErrNilInvoker is wrapped when a Compiler returns neither an invoker nor
	// an error.
	ErrNilInvoker = errors.New("ctorcache: compiler returned nil invoker")
)

// NoMatchingConstructorError reports that a generated type declares no
// constructor with the requested signature under the requested visibility.
// The outcome is deterministic and memoized.
type NoMatchingConstructorError struct {
	// Type is the generated type name.
	Type string

	// Signature is the requested parameter list.
	Signature ir.Signature

	// AllowNonPublic is the requested visibility.
	AllowNonPublic bool
}

// Error implements the error interface.
func (e *NoMatchingConstructorError) Error() string {
	visibility := "public"
	if e.AllowNonPublic {
		visibility = "any"
	}
	return fmt.Sprintf("no %s constructor %s%s", visibility, e.Type, e.Signature)
}

// IsNoMatchingConstructor returns true if err is a NoMatchingConstructorError.
// Uses errors.As to handle wrapped errors.
func IsNoMatchingConstructor(err error) bool {
	var ne *NoMatchingConstructorError
	return errors.As(err, &ne)
}
