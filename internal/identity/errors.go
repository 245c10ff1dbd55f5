package identity

import (
	"errors"
	"fmt"

	"github.com/roach88/mixer/internal/ir"
)

// ErrMissingProperty indicates the carrier lacks a required flat key.
var ErrMissingProperty = errors.New("identity: missing property")

// MemberKind names what kind of member failed to resolve.
type MemberKind string

const (
	// MemberType is a class referenced by name.
	MemberType MemberKind = "type"
	// MemberMethod is a method referenced by declaring type, name and signature.
	MemberMethod MemberKind = "method"
)

// UnresolvedMemberError is returned by Deserialize when a referenced class or
// method no longer exists. It is fatal for the identity and is not retried.
type UnresolvedMemberError struct {
	// Kind is the member kind.
	Kind MemberKind

	// Member is the qualified member name, e.g. "shop.Order.Total()".
	Member string

	// Mixin is the stored mixin type name of the identity.
	Mixin ir.TypeName

	// Prefix is the carrier key prefix of the identity being rehydrated.
	Prefix string
}

// Error implements the error interface.
func (e *UnresolvedMemberError) Error() string {
	msg := fmt.Sprintf("identity %q: unresolved %s %s", e.Prefix, e.Kind, e.Member)
	if e.Mixin != "" && string(e.Mixin) != e.Member {
		msg += fmt.Sprintf(" (mixin %s)", e.Mixin)
	}
	return msg
}

// UnsupportedSerializationError is returned by Serialize for method
// references that cannot round-trip, such as closed generic method
// instantiations. Nothing is written to the sink when it is returned.
type UnsupportedSerializationError struct {
	// Mixin is the identity's mixin.
	Mixin ir.TypeName

	// Method is the offending reference.
	Method ir.MethodRef

	// Reason is a human-readable description.
	Reason string
}

// Error implements the error interface.
func (e *UnsupportedSerializationError) Error() string {
	return fmt.Sprintf("identity %s: cannot serialize %s: %s", e.Mixin, e.Method, e.Reason)
}

// IsUnresolved returns true if err is an UnresolvedMemberError.
// Uses errors.As to handle wrapped errors.
func IsUnresolved(err error) bool {
	var ue *UnresolvedMemberError
	return errors.As(err, &ue)
}

// IsUnsupported returns true if err is an UnsupportedSerializationError.
// Uses errors.As to handle wrapped errors.
func IsUnsupported(err error) bool {
	var ue *UnsupportedSerializationError
	return errors.As(err, &ue)
}
