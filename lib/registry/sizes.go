package registry

import (
	"math"
	"sync"
)

// sizeBoundaries are the upper bounds of the value size buckets, from 16B to 4GB.
// Values larger than the last boundary land in an overflow bucket.
var sizeBoundaries = []int{
	16, 64, 256, 1024, 4096,
	16384, 65536, 262144, 1048576,
	4194304, 16777216, 67108864,
	268435456, 1073741824, 4294967296,
}

// SizeHistogram tracks the distribution of written value sizes.
// Sizes are bucketed exponentially, so percentiles are estimates.
//
// Thread-safe: all methods are safe for concurrent use
type SizeHistogram struct {
	mu      sync.RWMutex
	buckets []int64
	count   int64
	sum     int64
}

func NewSizeHistogram() *SizeHistogram {
	return &SizeHistogram{buckets: make([]int64, len(sizeBoundaries)+1)}
}

// Add records one value of the given size in bytes
func (h *SizeHistogram) Add(size int) {
	idx := len(sizeBoundaries)
	for i, boundary := range sizeBoundaries {
		if size <= boundary {
			idx = i
			break
		}
	}

	h.mu.Lock()
	h.buckets[idx]++
	h.count++
	h.sum += int64(size)
	h.mu.Unlock()
}

func (h *SizeHistogram) Count() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Average returns the mean size of all recorded values, 0 if none were recorded
func (h *SizeHistogram) Average() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.count == 0 {
		return 0
	}
	return h.sum / h.count
}

// Percentile estimates the size below which p percent (0-100) of the values fall.
// The estimate is the midpoint of the bucket holding the percentile.
func (h *SizeHistogram) Percentile(p int) int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 || p < 0 || p > 100 {
		return 0
	}

	target := max(int64(math.Ceil(float64(h.count)*float64(p)/100.0)), 1)
	var cumulative int64
	for i, n := range h.buckets {
		cumulative += n
		if cumulative < target {
			continue
		}
		switch {
		case i == 0:
			return int64(sizeBoundaries[0] / 2)
		case i < len(sizeBoundaries):
			return int64((sizeBoundaries[i-1] + sizeBoundaries[i]) / 2)
		default:
			return int64(sizeBoundaries[len(sizeBoundaries)-1]) * 2
		}
	}
	return h.sum / h.count
}
