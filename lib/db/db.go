package db

import (
	"github.com/cockroachdb/errors"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplPebble Implementation = "pebble"
)

// ErrNotFound is returned by Get when the key does not exist.
// It is always reported distinctly from any other engine failure.
var ErrNotFound = errors.New("db: key not found")

// DatabaseInfo holds metadata about a database. Size statistics are
// estimates, computing them exactly would require a full scan.
type DatabaseInfo struct {
	SizeBytes uint64         `json:"size_bytes"`
	DbType    Implementation `json:"db_type"`
	Metadata  interface{}    `json:"metadata"`
}

// Range limits an iterator to the keys in [Start, Limit).
// A nil Start means the first key, a nil Limit means no upper bound.
type Range struct {
	Start []byte
	Limit []byte
}

// --------------------------------------------------------------------------
// Storage Handle Interfaces
// --------------------------------------------------------------------------

// Connector is the handle to one open database.
// All methods must be safe for concurrent use. Returned slices are owned by the
// caller and must not alias engine memory.
type Connector interface {

	// --------------------------------------------------------------------------
	// Point Operations
	// --------------------------------------------------------------------------

	// Get returns the value stored for key, or ErrNotFound if there is none.
	Get(key []byte) (value []byte, err error)

	// Put inserts or overwrites the value for key.
	Put(key, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key []byte) error

	// --------------------------------------------------------------------------
	// Batch and Snapshot Operations
	// --------------------------------------------------------------------------

	// NewBatch creates an empty write batch bound to this connector.
	NewBatch() Batch

	// Write applies all entries of b in one atomic step.
	// Either every entry becomes visible or none does.
	Write(b Batch) error

	// NewSnapshot returns an immutable point-in-time view of the key space.
	// The snapshot must be closed by the caller.
	NewSnapshot() (Snapshot, error)

	// --------------------------------------------------------------------------
	// Utility Operations
	// --------------------------------------------------------------------------

	// Info returns metadata about the database.
	Info() DatabaseInfo

	// Close flushes and releases the database. The connector is unusable afterwards.
	Close() error
}

// Batch accumulates writes that are applied atomically by Connector.Write.
// Nothing queued in a batch is visible until it is written.
type Batch interface {
	Put(key, value []byte)
	Delete(key []byte)
	// Len returns the number of queued entries
	Len() int
	// Close releases the batch without applying it if it was not written.
	Close() error
}

// Snapshot is a read-only view of a database at the time it was created.
// Writes committed after creation are never observed.
type Snapshot interface {
	Get(key []byte) (value []byte, err error)
	// NewIterator returns an iterator over r in ascending key order.
	NewIterator(r Range) Iterator
	Close() error
}

// Iterator walks key/value pairs in ascending key order.
// The first call to Next positions the iterator on the first entry.
//
// Usage:
//
//	it := snap.NewIterator(db.Range{Start: from})
//	defer it.Close()
//	for it.Next() {
//		use(it.Key(), it.Value())
//	}
//	if err := it.Error(); err != nil { ... }
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// --------------------------------------------------------------------------
// Engine Interface
// --------------------------------------------------------------------------

// Engine opens, repairs and destroys databases stored at a path.
type Engine interface {
	// Name returns the engine implementation name
	Name() Implementation
	// Open opens (or creates, depending on opts) the database at path.
	Open(path string, opts Options) (Connector, error)
	// Repair runs the offline recovery procedure on the database at path.
	// The database must not be open while Repair runs.
	Repair(path string, opts Options) error
	// Destroy removes all files of the database at path.
	Destroy(path string) error
}
