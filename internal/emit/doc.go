// Package emit is the default in-process realization of composed types.
//
// Builder turns a typecache.Plan into a PlannedType: a named, immutable
// description of the concrete type that would be emitted for the
// composition. Compiler turns a PlannedType constructor into a
// ctorcache.Invoker producing Instance values. Neither weaves mixin behavior
// into method bodies; they give the caches a real type to own so the whole
// pipeline can run and be inspected.
package emit
