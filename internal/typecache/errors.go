package typecache

import (
	"errors"
	"fmt"

	"github.com/roach88/mixer/internal/ir"
)

var (
	// ErrNoBuilder is wrapped by CompositionBuildError when the cache was
	// created without a Builder.
	ErrNoBuilder = errors.New("typecache: no builder configured")

	// ErrZeroIdentity is returned for a zero-value identity.
	ErrZeroIdentity = errors.New("typecache: zero composition identity")

	// ErrNilType is wrapped by CompositionBuildError when a Builder returns
	// neither a type nor an error.
	ErrNilType = errors.New("typecache: builder returned nil type")
)

// CompositionBuildError reports a failed generation of a composed type.
// The failure is not cached.
type CompositionBuildError struct {
	// Mixin is the mixin being integrated.
	Mixin ir.TypeName

	// Key is the identity key the build was attempted for.
	Key string

	// Err is the builder's failure.
	Err error
}

// Error implements the error interface.
func (e *CompositionBuildError) Error() string {
	return fmt.Sprintf("compose %s (identity %s): %v", e.Mixin, shortKey(e.Key), e.Err)
}

// Unwrap returns the builder's failure.
func (e *CompositionBuildError) Unwrap() error {
	return e.Err
}

// IsBuildError returns true if err is a CompositionBuildError.
// Uses errors.As to handle wrapped errors.
func IsBuildError(err error) bool {
	var be *CompositionBuildError
	return errors.As(err, &be)
}

func shortKey(k string) string {
	if len(k) > 12 {
		return k[:12]
	}
	return k
}
