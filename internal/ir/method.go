package ir

import (
	"fmt"
	"slices"
	"strings"
)

// MethodRef identifies a method by declaring type, simple name and
// signature string. It is comparable and safe to use as a map key.
//
// GenericInstance marks a closed instantiation of a generic method. Such
// references can be compared but not serialized.
type MethodRef struct {
	DeclaringType   TypeName `json:"declaring_type"`
	Name            string   `json:"name"`
	Signature       string   `json:"signature"`
	GenericInstance bool     `json:"generic_instance,omitempty"`
}

// String returns "DeclaringType.Name(sig)".
func (r MethodRef) String() string {
	return fmt.Sprintf("%s.%s%s", r.DeclaringType, r.Name, r.Signature)
}

// CompareMethodRefs orders refs by declaring type, name, then signature.
func CompareMethodRefs(a, b MethodRef) int {
	if c := strings.Compare(string(a.DeclaringType), string(b.DeclaringType)); c != 0 {
		return c
	}
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	if c := strings.Compare(a.Signature, b.Signature); c != 0 {
		return c
	}
	switch {
	case a.GenericInstance == b.GenericInstance:
		return 0
	case !a.GenericInstance:
		return -1
	default:
		return 1
	}
}

// Override describes how a method takes part in mixin integration.
type Override int

const (
	// OverrideNone is an ordinary method.
	OverrideNone Override = iota
	// OverrideTarget marks a mixin method that overrides a target method.
	OverrideTarget
	// OverrideMixin marks a target method that overrides a mixin method.
	OverrideMixin
)

// String returns the configuration spelling of the override kind.
func (o Override) String() string {
	switch o {
	case OverrideNone:
		return "none"
	case OverrideTarget:
		return "target"
	case OverrideMixin:
		return "mixin"
	default:
		return fmt.Sprintf("Override(%d)", int(o))
	}
}

// ParseOverride parses "", "none", "target" or "mixin".
func ParseOverride(s string) (Override, error) {
	switch s {
	case "", "none":
		return OverrideNone, nil
	case "target":
		return OverrideTarget, nil
	case "mixin":
		return OverrideMixin, nil
	default:
		return OverrideNone, fmt.Errorf("unknown override kind %q", s)
	}
}

// Method is a declared method together with its integration role.
type Method struct {
	Ref      MethodRef
	Override Override
}

// NewMethod builds a method declared on the descriptor it is attached to.
func NewMethod(name string, sig Signature, override Override) Method {
	return Method{
		Ref:      MethodRef{Name: name, Signature: sig.String()},
		Override: override,
	}
}

// Signature is an ordered list of parameter type names.
type Signature []string

// String returns the canonical "(a,b)" form.
func (s Signature) String() string {
	return "(" + strings.Join(s, ",") + ")"
}

// Equal reports whether both signatures list the same parameter types.
func (s Signature) Equal(other Signature) bool {
	return slices.Equal(s, other)
}

// ParseSignature parses the canonical "(a,b)" form. Whitespace around
// parameters is ignored and commas nested inside brackets do not split.
func ParseSignature(s string) (Signature, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, fmt.Errorf("signature %q: must be wrapped in parentheses", s)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return Signature{}, nil
	}

	var params Signature
	depth, start := 0, 0
	for i, r := range inner {
		switch r {
		case '[', '(', '<':
			depth++
		case ']', ')', '>':
			depth--
		case ',':
			if depth == 0 {
				params = append(params, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("signature %q: unbalanced brackets", s)
	}
	params = append(params, strings.TrimSpace(inner[start:]))

	for i, p := range params {
		if p == "" {
			return nil, fmt.Errorf("signature %q: empty parameter at position %d", s, i)
		}
	}
	return params, nil
}

// MustParseSignature is like ParseSignature but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParseSignature(s string) Signature {
	sig, err := ParseSignature(s)
	if err != nil {
		panic(err)
	}
	return sig
}

// Constructor is a constructor overload of a class.
type Constructor struct {
	Signature Signature
	Public    bool
}

// Matches reports whether the constructor accepts sig and is visible under
// the requested visibility.
func (c Constructor) Matches(sig Signature, allowNonPublic bool) bool {
	if !c.Public && !allowNonPublic {
		return false
	}
	return c.Signature.Equal(sig)
}
