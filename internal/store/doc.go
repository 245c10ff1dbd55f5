// Package store persists composition identities in SQLite.
//
// An identity is stored as its flat serialized form, one row per key in
// identity_properties, plus a header row in identities carrying the mixin
// name and content hash. Rows are read back in no particular order; the flat
// layout makes the order irrelevant to reconstruction.
//
// Loading resolves every member against the caller's type universe, so an
// identity saved by one process can be rehydrated by another that never built
// it. Members that no longer resolve fail the load with
// *identity.UnresolvedMemberError.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
