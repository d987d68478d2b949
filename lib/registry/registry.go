package registry

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/mKV/lib/db"
	"github.com/ValentinKolb/mKV/lib/lockmgr"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	gometrics "github.com/rcrowley/go-metrics"
)

var Logger = logger.GetLogger("registry")

type registryImpl struct {
	dataDir string
	engine  db.Engine
	locks   lockmgr.ILockManager
	metrics gometrics.Registry

	// lifecycleMu serializes Add, Drop and Repair
	lifecycleMu sync.Mutex

	nameToUID *xsync.MapOf[string, string]
	handles   *xsync.MapOf[string, *Handle]
	closed    atomic.Bool
}

// NewRegistry opens the registry stored in dataDir.
// Every database listed in the manifest is reopened with its persisted options.
// The databases themselves are created by engine below dataDir/dbs.
func NewRegistry(dataDir string, engine db.Engine) (IRegistry, error) {
	if err := os.MkdirAll(filepath.Join(dataDir, databasesDir), 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create data directory %s", dataDir)
	}

	entries, err := loadManifest(dataDir)
	if err != nil {
		return nil, err
	}

	r := &registryImpl{
		dataDir:   dataDir,
		engine:    engine,
		locks:     lockmgr.NewLockManager(),
		metrics:   gometrics.NewRegistry(),
		nameToUID: xsync.NewMapOf[string, string](),
		handles:   xsync.NewMapOf[string, *Handle](),
	}

	for _, entry := range entries {
		opts := entry.Options
		opts.CreateIfMissing = true
		opts.ErrorIfExists = false

		path := filepath.Join(dataDir, entry.Path)
		conn, err := engine.Open(path, opts)
		if err != nil {
			_ = r.Close()
			return nil, errors.Wrapf(err, "failed to reopen database %s", entry.Name)
		}

		r.register(&Handle{
			UID:       entry.UID,
			Name:      entry.Name,
			Path:      path,
			Options:   entry.Options,
			Connector: conn,
			Stats:     newStats(r.metrics, entry.UID),
		})
		Logger.Infof("reopened database %s (%s)", entry.Name, entry.UID)
	}

	return r, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see registry.IRegistry)
// --------------------------------------------------------------------------

func (r *registryImpl) Exists(name string) bool {
	_, ok := r.nameToUID.Load(name)
	return ok
}

func (r *registryImpl) Add(name string, opts db.Options) (string, error) {
	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()

	if r.closed.Load() {
		return "", ErrClosed
	}
	if strings.TrimSpace(name) == "" {
		return "", errors.Wrapf(ErrInvalidName, "%q", name)
	}
	if r.Exists(name) {
		return "", errors.Wrapf(ErrExists, "database %s", name)
	}

	if err := opts.Validate(); err != nil {
		return "", err
	}
	opts = opts.WithDefaults()
	uid := uuid.NewString()
	path := filepath.Join(r.dataDir, databasesDir, uid)

	conn, err := r.engine.Open(path, opts)
	if err != nil {
		// the engine may have written files before failing
		if derr := r.engine.Destroy(path); derr != nil {
			Logger.Warningf("failed to clean up %s: %v", path, derr)
		}
		return "", errors.Wrapf(err, "failed to create database %s", name)
	}

	r.register(&Handle{
		UID:       uid,
		Name:      name,
		Path:      path,
		Options:   opts,
		Connector: conn,
		Stats:     newStats(r.metrics, uid),
	})

	if err := r.persist(); err != nil {
		// roll back, the database must not exist without a manifest entry
		r.unregister(uid, name)
		_ = conn.Close()
		_ = r.engine.Destroy(path)
		return "", err
	}

	Logger.Infof("created database %s (%s)", name, uid)
	return uid, nil
}

func (r *registryImpl) Drop(name string) error {
	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()

	if r.closed.Load() {
		return ErrClosed
	}

	uid, ok := r.nameToUID.Load(name)
	if !ok {
		return errors.Wrapf(ErrNotFound, "database %s", name)
	}

	// wait for every in-flight operation on the database
	lease, err := r.locks.AcquireExclusive(uid)
	if err != nil {
		return errors.Wrapf(ErrNotFound, "database %s", name)
	}

	h, _ := r.handles.Load(uid)
	r.unregister(uid, name)
	lease.Retire()

	var errs error
	if err := h.Connector.Close(); err != nil {
		errs = errors.CombineErrors(errs, errors.Wrapf(err, "failed to close database %s", name))
	}
	if err := r.engine.Destroy(h.Path); err != nil {
		errs = errors.CombineErrors(errs, err)
	}
	if err := r.persist(); err != nil {
		errs = errors.CombineErrors(errs, err)
	}

	Logger.Infof("dropped database %s (%s)", name, uid)
	return errs
}

func (r *registryImpl) List() []Descriptor {
	descriptors := make([]Descriptor, 0, r.handles.Size())

	r.handles.Range(func(uid string, h *Handle) bool {
		// a shared lease keeps the connector open while its info is read
		release, err := r.locks.AcquireShared(uid)
		if err != nil {
			return true
		}
		defer release()

		descriptors = append(descriptors, Descriptor{
			UID:     h.UID,
			Name:    h.Name,
			Path:    h.Path,
			Options: h.Options,
			Info:    h.Connector.Info(),
			Stats:   h.Stats.Snapshot(),
		})
		return true
	})

	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Name < descriptors[j].Name
	})
	return descriptors
}

func (r *registryImpl) UID(name string) (string, bool) {
	return r.nameToUID.Load(name)
}

func (r *registryImpl) Name(uid string) (string, bool) {
	h, ok := r.handles.Load(uid)
	if !ok {
		return "", false
	}
	return h.Name, true
}

func (r *registryImpl) Path(uid string) (string, bool) {
	h, ok := r.handles.Load(uid)
	if !ok {
		return "", false
	}
	return h.Path, true
}

func (r *registryImpl) Acquire(uid string) (*Handle, func(), error) {
	// unknown uids never get a gate
	if _, ok := r.handles.Load(uid); !ok {
		return nil, nil, errors.Wrapf(ErrNotFound, "database %s", uid)
	}

	release, err := r.locks.AcquireShared(uid)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrNotFound, "database %s", uid)
	}

	// the database may have been dropped or the registry closed while waiting.
	// Close keeps handles registered but retires their gates, and a retired
	// gate is forgotten once its last waiter leaves.
	if r.closed.Load() {
		release()
		return nil, nil, ErrClosed
	}
	h, ok := r.handles.Load(uid)
	if !ok {
		release()
		return nil, nil, errors.Wrapf(ErrNotFound, "database %s", uid)
	}

	return h, release, nil
}

func (r *registryImpl) Repair(uid string) error {
	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()

	if r.closed.Load() {
		return ErrClosed
	}
	if _, ok := r.handles.Load(uid); !ok {
		return errors.Wrapf(ErrNotFound, "database %s", uid)
	}

	lease, err := r.locks.AcquireExclusive(uid)
	if err != nil {
		return errors.Wrapf(ErrNotFound, "database %s", uid)
	}

	h, _ := r.handles.Load(uid)
	if err := h.Connector.Close(); err != nil {
		Logger.Warningf("closing %s before repair: %v", h.Name, err)
	}

	repairErr := r.engine.Repair(h.Path, h.Options)
	if repairErr != nil {
		Logger.Errorf("repair of %s failed: %v", h.Name, repairErr)
	}

	opts := h.Options
	opts.CreateIfMissing = true
	opts.ErrorIfExists = false
	conn, err := r.engine.Open(h.Path, opts)
	if err != nil {
		// the database stays in the manifest so a restart can retry
		r.unregister(uid, h.Name)
		lease.Retire()
		return errors.CombineErrors(repairErr, errors.Wrapf(err, "failed to reopen %s after repair", h.Name))
	}

	h.Connector = conn
	lease.Release()

	if repairErr == nil {
		Logger.Infof("repaired database %s (%s)", h.Name, uid)
	}
	return repairErr
}

func (r *registryImpl) Close() error {
	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()

	if !r.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	var errs error
	r.handles.Range(func(uid string, h *Handle) bool {
		lease, err := r.locks.AcquireExclusive(uid)
		if err != nil {
			return true
		}
		if err := h.Connector.Close(); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "failed to close database %s", h.Name))
		}
		lease.Retire()
		return true
	})
	return errs
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func (r *registryImpl) register(h *Handle) {
	r.handles.Store(h.UID, h)
	r.nameToUID.Store(h.Name, h.UID)
}

func (r *registryImpl) unregister(uid, name string) {
	r.handles.Delete(uid)
	r.nameToUID.Delete(name)
	unregisterStats(r.metrics, uid)
}

// persist writes the manifest for the current set of databases.
// Callers must hold lifecycleMu.
func (r *registryImpl) persist() error {
	entries := make([]manifestEntry, 0, r.handles.Size())
	r.handles.Range(func(uid string, h *Handle) bool {
		rel, err := filepath.Rel(r.dataDir, h.Path)
		if err != nil {
			rel = h.Path
		}
		entries = append(entries, manifestEntry{
			UID:     uid,
			Name:    h.Name,
			Path:    rel,
			Options: h.Options,
		})
		return true
	})

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return storeManifest(r.dataDir, entries)
}
