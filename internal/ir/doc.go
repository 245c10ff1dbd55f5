// Package ir provides the foundational value types for mixin composition.
//
// This package contains descriptors, method references, signatures and
// mixin contexts. All other internal packages import ir; ir imports nothing
// internal.
//
// Key design constraints:
//   - Descriptors and contexts are immutable once constructed
//   - Descriptor equality is by qualified name (TypeName)
//   - MethodRef is a comparable value; equality is structural
//   - Content hashes use RFC 8785 canonical JSON with domain separation
package ir
