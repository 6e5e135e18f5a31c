// Package store persists finished Run Results in SQLite.
//
// Only final results are stored. Each run row carries the canonical Run
// Result JSON (schema-validated on the way in, fingerprint-verified on the
// way out) and the canonical configuration it was produced under, so a
// stored run can be replayed. Events are projected into their own table
// for querying.
//
// # Ordering
//
// Runs are ordered by seq, a per-database counter assigned on insert, never
// by timestamps. All list queries include ORDER BY seq ASC, id ASC COLLATE
// BINARY so results are identical across reads.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
