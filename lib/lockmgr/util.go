package lockmgr

import "sync"

// releaseOnce wraps an unlock function so that calling it more than once is a no-op.
// Unlocking an RWMutex twice would otherwise panic or corrupt the reader count.
func releaseOnce(unlock func()) func() {
	var once sync.Once
	return func() {
		once.Do(unlock)
	}
}
