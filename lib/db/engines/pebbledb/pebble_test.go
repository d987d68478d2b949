package pebbledb

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/mKV/lib/db"
	dbtesting "github.com/ValentinKolb/mKV/lib/db/testing"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble/vfs"
)

func memConnector(t testing.TB) db.Connector {
	c, err := NewEngineWithFS(vfs.NewMem()).Open("test-db", db.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	return c
}

func Test(t *testing.T) {
	dbtesting.RunConnectorTests(t, "PebbleDB", memConnector)
}

func Benchmark(b *testing.B) {
	dbtesting.RunConnectorBenchmarks(b, "PebbleDB", memConnector)
}

func TestReopenKeepsData(t *testing.T) {
	engine := NewEngineWithFS(vfs.NewMem())

	c, err := engine.Open("db", db.DefaultOptions())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := c.Put([]byte("key"), []byte("value")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	c, err = engine.Open("db", db.DefaultOptions())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer c.Close()

	value, err := c.Get([]byte("key"))
	if err != nil || string(value) != "value" {
		t.Errorf("expected value after reopen, got %q (%v)", value, err)
	}
}

func TestOpenOptions(t *testing.T) {
	t.Run("ErrorIfExists", func(t *testing.T) {
		engine := NewEngineWithFS(vfs.NewMem())
		c, err := engine.Open("db", db.DefaultOptions())
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		c.Close()

		opts := db.DefaultOptions()
		opts.ErrorIfExists = true
		if _, err := engine.Open("db", opts); err == nil {
			t.Errorf("expected error when opening an existing database with ErrorIfExists")
		}
	})

	t.Run("CreateIfMissing=false", func(t *testing.T) {
		engine := NewEngineWithFS(vfs.NewMem())
		opts := db.DefaultOptions()
		opts.CreateIfMissing = false
		if _, err := engine.Open("missing", opts); err == nil {
			t.Errorf("expected error when opening a missing database without CreateIfMissing")
		}
	})

	t.Run("ParanoidChecks", func(t *testing.T) {
		engine := NewEngineWithFS(vfs.NewMem())
		opts := db.DefaultOptions()
		opts.ParanoidChecks = true
		c, err := engine.Open("db", opts)
		if err != nil {
			t.Fatalf("Open with paranoid checks failed: %v", err)
		}
		c.Close()
	})
}

func TestRepair(t *testing.T) {
	engine := NewEngineWithFS(vfs.NewMem())

	c, err := engine.Open("db", db.DefaultOptions())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	for i := 0; i < 100; i++ {
		key := []byte(fmt.Sprintf("key-%03d", i))
		if err := c.Put(key, key); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := engine.Repair("db", db.DefaultOptions()); err != nil {
		t.Fatalf("Repair failed: %v", err)
	}

	c, err = engine.Open("db", db.DefaultOptions())
	if err != nil {
		t.Fatalf("Open after repair failed: %v", err)
	}
	defer c.Close()

	for i := 0; i < 100; i++ {
		key := []byte(fmt.Sprintf("key-%03d", i))
		if value, err := c.Get(key); err != nil || string(value) != string(key) {
			t.Errorf("Get(%s) after repair: got %q (%v)", key, value, err)
		}
	}
}

func TestRepairEmptyAndMissing(t *testing.T) {
	engine := NewEngineWithFS(vfs.NewMem())

	c, err := engine.Open("empty", db.DefaultOptions())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	c.Close()

	if err := engine.Repair("empty", db.DefaultOptions()); err != nil {
		t.Errorf("Repair of empty database failed: %v", err)
	}

	if err := engine.Repair("missing", db.DefaultOptions()); err == nil {
		t.Errorf("expected Repair of a missing database to fail")
	}
}

func TestDestroy(t *testing.T) {
	engine := NewEngineWithFS(vfs.NewMem())

	c, err := engine.Open("db", db.DefaultOptions())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	c.Put([]byte("key"), []byte("value"))
	c.Close()

	if err := engine.Destroy("db"); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}

	c, err = engine.Open("db", db.DefaultOptions())
	if err != nil {
		t.Fatalf("Open after destroy failed: %v", err)
	}
	defer c.Close()

	if _, err := c.Get([]byte("key")); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected empty database after destroy, got %v", err)
	}
}

func TestForeignBatch(t *testing.T) {
	engine := NewEngineWithFS(vfs.NewMem())
	c1, _ := engine.Open("db1", db.DefaultOptions())
	c2, _ := engine.Open("db2", db.DefaultOptions())
	defer c1.Close()
	defer c2.Close()

	b := c1.NewBatch()
	defer b.Close()
	b.Put([]byte("k"), []byte("v"))

	if err := c2.Write(b); err == nil {
		t.Errorf("expected error when writing a batch from another connector")
	}
}
