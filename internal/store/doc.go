// Package store provides the SQLite-backed compile cache.
//
// The cache holds one row per successful elaboration, keyed by the
// content-addressed bundle hash plus the compiler version, so that
// recompiling an unchanged source bundle is a cache hit instead of a
// second elaboration. Cached programs are stored as RFC 8785 canonical
// JSON, which makes rows byte-comparable across runs and machines.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Graceful lock contention handling
//   - foreign_keys=ON: Referential integrity
//
// Schema migrations run automatically on Open and are tracked through
// PRAGMA user_version.
package store
