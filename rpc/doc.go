// Package rpc provides the network facing side of mkv. It carries commands
// from clients to the dispatcher and the response envelopes back.
//
// The package is organized into several subpackages:
//
//   - common: request and response types, configuration, logging.
//
//   - transport: network communication abstractions with pluggable
//     implementations (TCP, Unix sockets, HTTP).
//
//   - serializer: request and response encoding (JSON, msgpack, binary).
//
//   - server: the command dispatcher, its operation set and the server that
//     wires registry, transport and serializer together.
//
//   - client: a typed client for all commands.
package rpc
