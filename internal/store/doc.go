// Package store provides SQLite-backed storage for rewrite traces.
//
// The store is an append-only log with:
//   - Rewrite runs: one row per ApplyRulesToSubtree call, with the processor
//     statistics and the fingerprints of the tree before and after
//   - Rule firings: one row per rule application that changed the tree
//
// Trees are never stored. A run is tied to its input by the tree name, the
// hash of the specs it was compiled from and the tree fingerprint.
//
// # Critical Patterns
//
// Logical time: firings are ordered by seq, the trace's logical clock,
// never by wall time. Every query orders by seq (firings) or by run id
// (runs, which are UUIDv7 and so sort by creation).
//
// Idempotency: WriteRun ignores a run id it has already stored, so a run
// can be written twice without duplicating its firings.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Firings must reference a stored run
package store
