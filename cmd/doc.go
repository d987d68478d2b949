// Package cmd implements the command-line interface for the mKV multi-tenant
// key-value server. It provides a hierarchical command structure with operations
// for running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Starting and configuring the mKV server
//   - kv: Key-value operations on one database (get, put, del, mget, range, slice, batch, perf)
//   - db: Database lifecycle operations (create, drop, list, repair, connect)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set in the optional --config file or through an environment
// variable named MKV_<FLAG> with dashes replaced by underscores.
//
// See mkv -help for a list of all commands.
package cmd
