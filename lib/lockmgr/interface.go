package lockmgr

import "github.com/cockroachdb/errors"

// ErrRetired is returned when a lease is requested on a retired key
var ErrRetired = errors.New("lockmgr: key is retired")

// ILockManager hands out shared and exclusive leases per key.
// Shared leases may be held concurrently. An exclusive lease waits until every
// shared lease on the same key has been released and blocks new shared leases
// while it is waiting or held.
type ILockManager interface {
	// AcquireShared blocks until a shared lease on key is granted.
	// It returns ErrRetired if the key was retired while waiting.
	AcquireShared(key string) (release func(), err error)

	// AcquireExclusive blocks until an exclusive lease on key is granted.
	// It returns ErrRetired if the key was retired while waiting.
	AcquireExclusive(key string) (lease ExclusiveLease, err error)
}

// ExclusiveLease is held by the owner of an exclusive lease.
// Exactly one of Release or Retire must be called.
type ExclusiveLease interface {
	// Release gives the lease back, the key stays usable
	Release()
	// Retire gives the lease back and marks the key as retired.
	// Every acquisition waiting on the key or arriving while one is still
	// waiting fails with ErrRetired. Once the last waiter is gone the key is
	// forgotten and a later acquisition starts over on a fresh gate, so callers
	// must not reuse retired keys.
	Retire()
}
