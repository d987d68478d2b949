// Package client implements the RPC client for mKV servers.
//
// An RPCClient is a session bound to one database: Connect resolves a database
// name to its uid (DBCONNECT) and every following command is routed to that uid.
// Server failures are returned as *Error values carrying the stable error kind,
// use IsKind to branch on them.
//
// Usage Example:
//
//	var config common.ClientConfig
//	config.TimeoutSecond = 5
//	config.Transport.Endpoints = []string{"localhost:8080"}
//	config.Transport.RetryCount = 3
//	config.Transport.ConnectionsPerEndpoint = 1
//
//	c, err := client.NewRPCClient(config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//	if err != nil {
//	  log.Fatal(err)
//	}
//	defer c.Close()
//
//	if err := c.Connect("default"); err != nil {
//	  log.Fatal(err)
//	}
//
//	_ = c.Put([]byte("mykey"), []byte("myvalue"))
//	value, err := c.Get([]byte("mykey"))
//	if client.IsKind(err, common.KindKeyNotFound) {
//	  ...
//	}
//
//	// atomic multi-key writes
//	_ = c.Batch(
//	  common.PutEntry([]byte("a"), []byte("1")),
//	  common.DeleteEntry([]byte("b")),
//	)
//
// Performance Considerations:
//
//   - For applications that frequently send large payloads, increasing ConnectionsPerEndpoint
//     can improve throughput by allowing parallel requests.
//
//   - SetCompression asks the server to zstd-compress responses, which pays off for
//     large scans.
//
//   - The choice of serializer significantly affects performance. The binary serializer
//     provides the best performance and smallest payload size.
//
// Thread Safety:
//
//	RPCClient is thread-safe and can be used concurrently from multiple goroutines
//	without additional synchronization.
package client
