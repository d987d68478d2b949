// Package unix implements the Unix domain socket transport of mkv for clients
// running on the same machine as the server.
//
// It extends the base transport with Unix socket connectors and inherits
// connection pooling, request correlation and error handling from it. An
// existing socket file at the endpoint is removed before listening.
//
// The default server read buffer size is 64 KB.
package unix
