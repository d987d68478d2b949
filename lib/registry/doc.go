// Package registry keeps track of the databases hosted by a server process.
//
// Every database has a human readable name, a generated uid (a random UUID)
// and a directory below <data-dir>/dbs named after the uid. The registry keeps
// the open storage handle of every database and lends it to callers under a
// shared lease. Drop and Repair take the exclusive side of the same lease and
// therefore wait for in-flight operations to finish (see package lockmgr).
//
// Persistence:
//
//	The set of databases is stored in <data-dir>/manifest.json together with
//	their options. The manifest carries a blake3 checksum over its entries and
//	is rejected on load when the checksum does not match. It is replaced
//	atomically (write to a temporary file, then rename) after every create
//	and drop.
//
// Statistics:
//
//	Each database gets read, write, scan, batch and miss counters in a
//	go-metrics registry. They are reported by List and removed on drop.
//
// Thread Safety:
//
//	All methods are safe for concurrent use. Add, Drop and Repair are
//	serialized with each other, lookups never block.
package registry
