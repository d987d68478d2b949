package testing

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/mKV/lib/db"
)

// RunConnectorBenchmarks runs all benchmarks for a db.Connector implementation
func RunConnectorBenchmarks(b *testing.B, name string, factory ConnectorFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Put", func(b *testing.B) {
			benchmarkPut(b, factory(b))
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory(b))
		})

		b.Run("Batch", func(b *testing.B) {
			benchmarkBatch(b, factory(b))
		})

		b.Run("Slice", func(b *testing.B) {
			benchmarkSlice(b, factory(b))
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func benchmarkPut(b *testing.B, c db.Connector) {
	b.Cleanup(func() {
		c.Close()
	})

	var counter atomic.Uint64
	value := []byte("benchmark-value")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			key := []byte(fmt.Sprintf("key-%d", counter.Add(1)))
			if err := c.Put(key, value); err != nil {
				b.Errorf("Put failed: %v", err)
				return
			}
		}
	})
}

func benchmarkGet(b *testing.B, c db.Connector) {
	b.Cleanup(func() {
		c.Close()
	})

	const keys = 1000
	for i := 0; i < keys; i++ {
		key := []byte(fmt.Sprintf("key-%d", i))
		if err := c.Put(key, key); err != nil {
			b.Fatalf("Put failed: %v", err)
		}
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			key := []byte(fmt.Sprintf("key-%d", r.Intn(keys)))
			if _, err := c.Get(key); err != nil {
				b.Errorf("Get failed: %v", err)
				return
			}
		}
	})
}

func benchmarkBatch(b *testing.B, c db.Connector) {
	b.Cleanup(func() {
		c.Close()
	})

	value := []byte("benchmark-value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		batch := c.NewBatch()
		for j := 0; j < 16; j++ {
			batch.Put([]byte(fmt.Sprintf("batch-%d-%d", i, j)), value)
		}
		if err := c.Write(batch); err != nil {
			b.Fatalf("Write failed: %v", err)
		}
		batch.Close()
	}
}

func benchmarkSlice(b *testing.B, c db.Connector) {
	b.Cleanup(func() {
		c.Close()
	})

	for i := 0; i < 1000; i++ {
		key := []byte(fmt.Sprintf("key-%04d", i))
		if err := c.Put(key, key); err != nil {
			b.Fatalf("Put failed: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		snap, err := c.NewSnapshot()
		if err != nil {
			b.Fatalf("NewSnapshot failed: %v", err)
		}
		it := snap.NewIterator(db.Range{Start: []byte(fmt.Sprintf("key-%04d", i%900))})
		for n := 0; n < 100 && it.Next(); n++ {
			_ = it.Value()
		}
		it.Close()
		snap.Close()
	}
}
