// Package tcp implements the TCP socket transport of mkv. It provides the
// TCP specific connectors for the base package, which carries framing,
// connection pooling, buffer reuse and request correlation.
//
// Both sides apply the socket (buffer sizes) and TCP options (no delay,
// keep-alive, linger) from their configuration to every connection.
//
// The default server read buffer size is 512 KB.
package tcp
