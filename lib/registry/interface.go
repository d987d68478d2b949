package registry

import (
	"github.com/ValentinKolb/mKV/lib/db"
	"github.com/cockroachdb/errors"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IRegistry maps database names to unique identifiers, filesystem paths and
// live storage handles. It owns every handle it hands out.
type IRegistry interface {
	// Exists reports whether a database with the given name is registered.
	Exists(name string) bool

	// Add creates and opens a new database and returns its uid.
	// It fails with ErrExists if the name is taken and ErrInvalidName for an empty name.
	Add(name string, opts db.Options) (uid string, err error)

	// Drop closes and destroys the database with the given name.
	// It waits for all in-flight leases on the database to be released.
	Drop(name string) error

	// List returns a descriptor for every registered database, sorted by name.
	List() []Descriptor

	// UID returns the uid registered for name.
	UID(name string) (uid string, ok bool)

	// Name returns the name registered for uid.
	Name(uid string) (name string, ok bool)

	// Path returns the filesystem path of the database with the given uid.
	Path(uid string) (path string, ok bool)

	// Acquire lends the handle of uid under a shared lease.
	// The handle must not be used after release is called.
	// It fails with ErrNotFound if the uid is unknown or the database was dropped.
	Acquire(uid string) (h *Handle, release func(), err error)

	// Repair closes the database, runs the engine's repair procedure on its
	// path and reopens it. It waits for all in-flight leases to be released.
	Repair(uid string) error

	// Close closes every open database.
	Close() error
}

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Handle is a live database as lent to a request
type Handle struct {
	UID       string
	Name      string
	Path      string
	Options   db.Options
	Connector db.Connector
	Stats     *Stats
}

// Descriptor describes a registered database
type Descriptor struct {
	UID     string
	Name    string
	Path    string
	Options db.Options
	Info    db.DatabaseInfo
	Stats   map[string]int64
}

// ToMap converts the descriptor into its wire representation
func (d Descriptor) ToMap() map[string]any {
	stats := make(map[string]any, len(d.Stats))
	for k, v := range d.Stats {
		stats[k] = v
	}
	return map[string]any{
		"uid":        d.UID,
		"name":       d.Name,
		"path":       d.Path,
		"engine":     string(d.Info.DbType),
		"size_bytes": d.Info.SizeBytes,
		"options":    d.Options.ToMap(),
		"stats":      stats,
	}
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	ErrExists          = errors.New("database already exists")
	ErrNotFound        = errors.New("database does not exist")
	ErrInvalidName     = errors.New("invalid database name")
	ErrClosed          = errors.New("registry is closed")
	ErrCorruptManifest = errors.New("manifest checksum mismatch")
)
