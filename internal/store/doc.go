// Package store provides SQLite-backed durable storage for tapcheck event logs.
//
// The store is an append-only log of runs and the events captured in them.
// A stored run can be read back and checked exactly like a live capture.
//
// # Ordering
//
// All ordering uses the seq column (logical clock), never timestamps. Every
// query that returns events includes ORDER BY seq ASC, id COLLATE BINARY ASC
// so replays are byte-identical.
//
// # Identity
//
// Event IDs are content-addressed (ir.EventID). Writing the same event twice
// is a no-op; writing a different event at an occupied (run_id, seq) is an
// error. VerifyRun recomputes every ID to detect tampered rows.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Events must belong to a written run
package store
