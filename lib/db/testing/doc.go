// Package testing provides standardised tests and benchmarks for
// storage engines that satisfy the db.Connector interface.
//
// The package contains:
//   - testing: A conformance suite for the Connector contract (point operations,
//     atomic batches, snapshot isolation, bounded iteration, closing)
//   - benchmark: Performance tests for the operations the dispatcher uses most
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func(t testing.TB) db.Connector {
//		c, err := myengine.NewEngine().Open(t.TempDir(), db.DefaultOptions())
//		if err != nil {
//			t.Fatal(err)
//		}
//		return c
//	}
//
//	// Running the standard test suite
//	dbtesting.RunConnectorTests(t, "MyEngine", factory)
//
//	// Running performance benchmarks
//	dbtesting.RunConnectorBenchmarks(b, "MyEngine", factory)
package testing
