// Package store provides SQLite-backed durable storage for render passes.
//
// The store is an append-only commit log with two tables:
//   - passes: one row per committed or aborted pass
//   - effects: the ordered deletion and effect records of each pass
//
// # Critical Patterns
//
// Logical Time:
//   - Passes are ordered by seq, the engine's logical clock, never wall time
//   - MaxSeq lets a new engine continue numbering after a stored log
//
// Deterministic Query Results:
//   - Pass queries order by seq ASC, id ASC COLLATE BINARY
//   - Effect queries order by ord ASC, the order they were applied
//
// Idempotent Writes:
//   - Writing a pass ID that already exists is a no-op
//
// # Schema Versions
//
// The schema version lives in PRAGMA user_version. A writable Open applies
// missing migrations one transaction at a time; a ReadOnly open accepts any
// version from 1 up to SchemaVersion and never migrates.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes (writable logs)
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - query_only=ON: Reject writes on ReadOnly stores
package store
