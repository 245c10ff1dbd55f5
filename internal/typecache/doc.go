// Package typecache holds the process-wide cache of generated composed types.
//
// A generated type is identified by its identity.CompositionIdentity. The
// cache guarantees that for each distinct identity the external Builder runs
// at most once, even when many goroutines request the same identity at the
// same moment. Callers racing on one identity block until the single build
// finishes and all receive the same GeneratedType. Builds of different
// identities run in parallel.
//
// Lookups of already-built types never take a lock.
//
// Entries are never evicted. Failed builds are not cached: every caller that
// joined the failed build receives its error, and the next call retries.
package typecache
