// Package lockmgr implements per-key shared/exclusive gates used to coordinate
// database lifecycle changes with the data operations running against the
// same database.
//
// Core Functionality:
//   - Shared leases for data operations (get, put, scans, batches)
//   - Exclusive leases for lifecycle operations (drop, repair)
//   - Retirement of a key, which fails every acquisition still waiting on it with ErrRetired
//
// Contention Policy:
//
//	Acquisition blocks. An exclusive lease waits for all shared leases on the
//	key to be released. While an exclusive request is waiting, new shared
//	requests queue behind it, so a lifecycle change cannot be starved by a
//	steady stream of readers. When the exclusive holder retires the key (a
//	dropped database), every queued shared request wakes up and fails with
//	ErrRetired instead of touching a closed storage handle.
//
// Implementation Approach:
//
//	Each key maps to a gate holding a sync.RWMutex, a retired flag and a
//	reference count. Gates live in an xsync.MapOf. Every acquisition and every
//	release adjusts the count inside Compute, and the gate is deleted when it
//	drops to zero, so the table only holds keys that are currently in use.
//	Keys are expected to be unique identifiers that are not reused after
//	retirement.
//
// Usage Example:
//
//	locks := lockmgr.NewLockManager()
//
//	// data operation
//	release, err := locks.AcquireShared(uid)
//	if err != nil {
//	    // database is gone
//	}
//	defer release()
//
//	// lifecycle operation
//	lease, err := locks.AcquireExclusive(uid)
//	if err != nil {
//	    // database is gone
//	}
//	// ... close and destroy the database ...
//	lease.Retire()
package lockmgr
