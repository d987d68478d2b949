package testing

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/ValentinKolb/mKV/lib/db"
	"github.com/cockroachdb/errors"
)

// ConnectorFactory creates a fresh, empty connector for one test
type ConnectorFactory func(t testing.TB) db.Connector

// RunConnectorTests runs the conformance test suite for a db.Connector implementation.
func RunConnectorTests(t *testing.T, name string, factory ConnectorFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Put&Get", func(t *testing.T) {
			testPutGet(t, factory(t))
		})

		t.Run("GetReturnsCopy", func(t *testing.T) {
			testGetReturnsCopy(t, factory(t))
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory(t))
		})

		t.Run("BatchAtomic", func(t *testing.T) {
			testBatchAtomic(t, factory(t))
		})

		t.Run("BatchDiscarded", func(t *testing.T) {
			testBatchDiscarded(t, factory(t))
		})

		t.Run("SnapshotIsolation", func(t *testing.T) {
			testSnapshotIsolation(t, factory(t))
		})

		t.Run("IteratorRange", func(t *testing.T) {
			testIteratorRange(t, factory(t))
		})

		t.Run("IteratorOpenEnded", func(t *testing.T) {
			testIteratorOpenEnded(t, factory(t))
		})

		t.Run("EmptyIterator", func(t *testing.T) {
			testEmptyIterator(t, factory(t))
		})

		t.Run("ConcurrentWrites", func(t *testing.T) {
			testConcurrentWrites(t, factory(t))
		})

		t.Run("Closed", func(t *testing.T) {
			testClosed(t, factory(t))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// collect drains an iterator into key/value pairs
func collect(t testing.TB, it db.Iterator) [][2]string {
	defer it.Close()

	var pairs [][2]string
	for it.Next() {
		pairs = append(pairs, [2]string{string(it.Key()), string(it.Value())})
	}
	if err := it.Error(); err != nil {
		t.Fatalf("iterator error: %v", err)
	}
	return pairs
}

func mustPut(t testing.TB, c db.Connector, key, value string) {
	if err := c.Put([]byte(key), []byte(value)); err != nil {
		t.Fatalf("Put(%s) failed: %v", key, err)
	}
}

func expectValue(t testing.TB, c db.Connector, key, expected string) {
	t.Helper()
	value, err := c.Get([]byte(key))
	if err != nil {
		t.Errorf("Get(%s) failed: %v", key, err)
		return
	}
	if !bytes.Equal(value, []byte(expected)) {
		t.Errorf("Get(%s): expected %q, got %q", key, expected, value)
	}
}

func expectMissing(t testing.TB, c db.Connector, key string) {
	t.Helper()
	if _, err := c.Get([]byte(key)); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("Get(%s): expected ErrNotFound, got %v", key, err)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testPutGet(t *testing.T, c db.Connector) {
	defer c.Close()

	mustPut(t, c, "test-key", "test-value1")
	expectValue(t, c, "test-key", "test-value1")

	mustPut(t, c, "test-key", "test-value2")
	expectValue(t, c, "test-key", "test-value2")

	expectMissing(t, c, "nonexistent-key")

	// empty values are valid values
	mustPut(t, c, "empty", "")
	expectValue(t, c, "empty", "")
}

func testGetReturnsCopy(t *testing.T, c db.Connector) {
	defer c.Close()

	mustPut(t, c, "key", "value")

	retrieved, err := c.Get([]byte("key"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	retrieved[0] = 'X'

	expectValue(t, c, "key", "value")
}

func testDelete(t *testing.T, c db.Connector) {
	defer c.Close()

	mustPut(t, c, "key", "value")
	if err := c.Delete([]byte("key")); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	expectMissing(t, c, "key")

	// deleting an absent key is not an error
	if err := c.Delete([]byte("never-written")); err != nil {
		t.Errorf("Delete of absent key returned error: %v", err)
	}
}

func testBatchAtomic(t *testing.T, c db.Connector) {
	defer c.Close()

	mustPut(t, c, "to-delete", "old")

	b := c.NewBatch()
	defer b.Close()

	b.Put([]byte("k1"), []byte("v1"))
	b.Put([]byte("k2"), []byte("v2"))
	b.Delete([]byte("to-delete"))

	if b.Len() != 3 {
		t.Errorf("expected batch length 3, got %d", b.Len())
	}

	// nothing is visible before the write
	expectMissing(t, c, "k1")
	expectValue(t, c, "to-delete", "old")

	if err := c.Write(b); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	expectValue(t, c, "k1", "v1")
	expectValue(t, c, "k2", "v2")
	expectMissing(t, c, "to-delete")
}

func testBatchDiscarded(t *testing.T, c db.Connector) {
	defer c.Close()

	b := c.NewBatch()
	b.Put([]byte("k1"), []byte("v1"))
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	expectMissing(t, c, "k1")
}

func testSnapshotIsolation(t *testing.T, c db.Connector) {
	defer c.Close()

	mustPut(t, c, "a", "1")
	mustPut(t, c, "b", "2")

	snap, err := c.NewSnapshot()
	if err != nil {
		t.Fatalf("NewSnapshot failed: %v", err)
	}
	defer snap.Close()

	// writes after the snapshot
	mustPut(t, c, "a", "changed")
	mustPut(t, c, "c", "3")
	if err := c.Delete([]byte("b")); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	pairs := collect(t, snap.NewIterator(db.Range{}))
	expected := [][2]string{{"a", "1"}, {"b", "2"}}
	if fmt.Sprint(pairs) != fmt.Sprint(expected) {
		t.Errorf("snapshot iteration: expected %v, got %v", expected, pairs)
	}

	value, err := snap.Get([]byte("a"))
	if err != nil || string(value) != "1" {
		t.Errorf("snapshot Get(a): expected 1, got %q (%v)", value, err)
	}
	if _, err := snap.Get([]byte("c")); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("snapshot Get(c): expected ErrNotFound, got %v", err)
	}
}

func testIteratorRange(t *testing.T, c db.Connector) {
	defer c.Close()

	for _, k := range []string{"d", "a", "c", "b", "e"} {
		mustPut(t, c, k, "v"+k)
	}

	snap, err := c.NewSnapshot()
	if err != nil {
		t.Fatalf("NewSnapshot failed: %v", err)
	}
	defer snap.Close()

	pairs := collect(t, snap.NewIterator(db.Range{Start: []byte("b"), Limit: []byte("d")}))
	expected := [][2]string{{"b", "vb"}, {"c", "vc"}}
	if fmt.Sprint(pairs) != fmt.Sprint(expected) {
		t.Errorf("range [b, d): expected %v, got %v", expected, pairs)
	}

	// start between keys
	pairs = collect(t, snap.NewIterator(db.Range{Start: []byte("bb"), Limit: []byte("e")}))
	expected = [][2]string{{"c", "vc"}, {"d", "vd"}}
	if fmt.Sprint(pairs) != fmt.Sprint(expected) {
		t.Errorf("range [bb, e): expected %v, got %v", expected, pairs)
	}
}

func testIteratorOpenEnded(t *testing.T, c db.Connector) {
	defer c.Close()

	for _, k := range []string{"k1", "k2", "k3"} {
		mustPut(t, c, k, k)
	}

	snap, err := c.NewSnapshot()
	if err != nil {
		t.Fatalf("NewSnapshot failed: %v", err)
	}
	defer snap.Close()

	pairs := collect(t, snap.NewIterator(db.Range{Start: []byte("k2")}))
	if len(pairs) != 2 || pairs[0][0] != "k2" || pairs[1][0] != "k3" {
		t.Errorf("open ended range from k2: got %v", pairs)
	}
}

func testEmptyIterator(t *testing.T, c db.Connector) {
	defer c.Close()

	snap, err := c.NewSnapshot()
	if err != nil {
		t.Fatalf("NewSnapshot failed: %v", err)
	}
	defer snap.Close()

	it := snap.NewIterator(db.Range{})
	if it.Next() {
		t.Errorf("expected empty iterator")
	}
	if it.Key() != nil || it.Value() != nil {
		t.Errorf("expected nil key and value on exhausted iterator")
	}
	if err := it.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func testConcurrentWrites(t *testing.T, c db.Connector) {
	defer c.Close()

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := []byte(fmt.Sprintf("w%02d-%03d", w, i))
				if err := c.Put(key, key); err != nil {
					t.Errorf("Put failed: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	snap, err := c.NewSnapshot()
	if err != nil {
		t.Fatalf("NewSnapshot failed: %v", err)
	}
	defer snap.Close()

	if n := len(collect(t, snap.NewIterator(db.Range{}))); n != workers*perWorker {
		t.Errorf("expected %d keys, got %d", workers*perWorker, n)
	}
}

func testClosed(t *testing.T, c db.Connector) {
	mustPut(t, c, "key", "value")

	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := c.Get([]byte("key")); err == nil {
		t.Errorf("expected error from Get on closed connector")
	}
	if err := c.Put([]byte("key"), []byte("value")); err == nil {
		t.Errorf("expected error from Put on closed connector")
	}
	if err := c.Close(); err == nil {
		t.Errorf("expected error from second Close")
	}
}
