// Package transport defines the interfaces for moving opaque request and
// response frames between mkv clients and servers. The payload is produced by
// a serializer, the transport only frames, routes and correlates it.
//
// Key Components:
//
//   - IRPCClientTransport: client side, connection management and request sending.
//
//   - IRPCServerTransport: server side, accepts connections and calls the
//     registered ServerHandleFunc for every request.
//
// Implementations live in the tcp, unix and http subpackages. tcp and unix
// share the framing and connection handling of package base.
package transport
