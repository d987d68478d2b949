// Package pebbledb implements the db.Engine and db.Connector contracts on top of
// CockroachDB's pebble, an LSM based ordered key-value store.
//
// Writes are synced before they return. Batches map onto pebble.Batch and are
// committed in one atomic step. Snapshots map onto pebble.Snapshot and their
// iterators are bounded with IterOptions, so an upper bound is exclusive.
//
// Repair opens the existing database (which replays the write-ahead log),
// flushes the memtable, runs a level consistency check and compacts the full
// key range, rewriting every table.
//
// The engine can run on any vfs.FS. NewEngine uses the operating system
// filesystem, NewEngineWithFS(vfs.NewMem()) is used by tests.
package pebbledb
