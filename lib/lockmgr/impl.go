package lockmgr

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// gate guards one key. retired is only written under the write lock,
// refs only inside a Compute call on the gate table.
type gate struct {
	mu      sync.RWMutex
	refs    int
	retired bool
}

type lockMgrImpl struct {
	gates *xsync.MapOf[string, *gate]
}

// NewLockManager creates a lock manager with an empty gate table.
// A gate lives while at least one lease holder or waiter references it.
func NewLockManager() ILockManager {
	return &lockMgrImpl{
		gates: xsync.NewMapOf[string, *gate](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see lockmgr.ILockManager)
// --------------------------------------------------------------------------

func (lm *lockMgrImpl) AcquireShared(key string) (func(), error) {
	g := lm.enter(key)

	g.mu.RLock()
	if g.retired {
		g.mu.RUnlock()
		lm.leave(key)
		return nil, ErrRetired
	}
	return releaseOnce(func() {
		g.mu.RUnlock()
		lm.leave(key)
	}), nil
}

func (lm *lockMgrImpl) AcquireExclusive(key string) (ExclusiveLease, error) {
	g := lm.enter(key)

	g.mu.Lock()
	if g.retired {
		g.mu.Unlock()
		lm.leave(key)
		return nil, ErrRetired
	}
	return &exclusiveLease{lm: lm, key: key, g: g}, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// enter returns the gate for key and counts the caller as a user of it
func (lm *lockMgrImpl) enter(key string) *gate {
	g, _ := lm.gates.Compute(key, func(g *gate, loaded bool) (*gate, bool) {
		if !loaded {
			g = &gate{}
		}
		g.refs++
		return g, false
	})
	return g
}

// leave drops the caller's reference and removes the gate when it was the last one.
// The gate is always present here since the caller still holds a reference.
func (lm *lockMgrImpl) leave(key string) {
	lm.gates.Compute(key, func(g *gate, _ bool) (*gate, bool) {
		g.refs--
		return g, g.refs == 0
	})
}

// size returns the number of live gates
func (lm *lockMgrImpl) size() int {
	return lm.gates.Size()
}

type exclusiveLease struct {
	lm   *lockMgrImpl
	key  string
	g    *gate
	once sync.Once
}

func (l *exclusiveLease) Release() {
	l.once.Do(func() {
		l.g.mu.Unlock()
		l.lm.leave(l.key)
	})
}

func (l *exclusiveLease) Retire() {
	l.once.Do(func() {
		l.g.retired = true
		l.g.mu.Unlock()
		l.lm.leave(l.key)
	})
}
