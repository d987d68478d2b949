// Package db defines the storage handle contract used by the key-value server.
// It abstracts an embedded, ordered key-value engine behind a small set of
// interfaces so that the registry and the command dispatcher never depend on
// a concrete engine.
//
// The package focuses on:
//   - Point reads and writes with a distinct not-found condition
//   - Atomic write batches
//   - Immutable snapshots with bounded, ordered iterators
//   - Engine level open, offline repair and destroy
//
// Key Components:
//
//   - Connector: The handle to one open database. Get reports a missing key
//     with ErrNotFound so callers can tell a miss from a failure.
//
//   - Batch: Queues puts and deletes. Nothing queued is visible until
//     Connector.Write applies the whole batch in one atomic step.
//
//   - Snapshot and Iterator: A Snapshot freezes the key space at creation time.
//     Iterators created from it walk a Range in ascending key order and are not
//     affected by later writes. Both must be closed by the caller.
//
//   - Engine: Opens databases at a filesystem path and offers the offline
//     Repair procedure. Implementations live below lib/db/engines.
//
//   - Options: Tunables applied when a database is opened. ParseOptions turns
//     the loosely typed map received over the wire into Options and rejects
//     unknown keys.
//
// Implementations must be safe for concurrent use and must copy every key and
// value they hand out, so callers may keep or mutate returned slices freely.
package db
