// Package server implements the mKV RPC server: a multi-tenant command dispatcher
// in front of a registry of named databases.
//
// Every request names a command, the uid of the database it targets and a list of
// positional arguments. The dispatcher resolves the uid, looks the command up in a
// fixed command table and wraps the outcome into a response envelope carrying a status
// (SUCCESS, WARNING or FAILURE), an error kind and message on failure and the result.
//
// Key Components:
//
//   - Dispatcher: routes requests to operations. Data commands (GET, PUT, DELETE, MGET,
//     RANGE, SLICE, BATCH) run under a shared lease on their database, so dropping or
//     repairing a database waits for them. Lifecycle commands (DBCONNECT, DBCREATE,
//     DBDROP, DBLIST, DBREPAIR) run without a lease.
//
//   - NewHandler: adapts a dispatcher to a transport by decoding requests and
//     encoding response frames with the configured serializer.
//
//   - NewRPCServer: opens the registry below the data directory, ensures the default
//     database exists and starts the transport (and optionally a metrics endpoint).
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  DataDir:       "./data",
//	  DefaultDB:     "default",
//	  TimeoutSecond: 5,
//	  LogLevel:      "info",
//	}
//	config.Transport.Endpoint = "0.0.0.0:8080"
//
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Error kinds are stable strings (KeyNotFound, UnsupportedType, DatabaseError,
// InvalidValue, RuntimeError, UnrecognizedSignal, UnrecognizedCommand) that clients
// branch on.
//
// Thread Safety:
//
//	The dispatcher is safe for concurrent use. Requests for different databases never
//	coordinate. Serve is not thread-safe and should be called only once.
package server
