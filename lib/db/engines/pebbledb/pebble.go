package pebbledb

import (
	"sync/atomic"

	"github.com/ValentinKolb/mKV/lib/db"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("db")

// ErrClosed is returned by every operation on a closed connector
var ErrClosed = errors.New("pebbledb: database is closed")

// --------------------------------------------------------------------------
// Engine
// --------------------------------------------------------------------------

// engineImpl opens pebble databases on a vfs.FS
type engineImpl struct {
	fs vfs.FS
}

// NewEngine creates a pebble engine backed by the operating system filesystem
func NewEngine() db.Engine {
	return NewEngineWithFS(vfs.Default)
}

// NewEngineWithFS creates a pebble engine backed by fs.
// Tests use vfs.NewMem() to keep everything in memory.
func NewEngineWithFS(fs vfs.FS) db.Engine {
	return &engineImpl{fs: fs}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.Engine)
// --------------------------------------------------------------------------

func (e *engineImpl) Name() db.Implementation {
	return db.ImplPebble
}

func (e *engineImpl) Open(path string, opts db.Options) (conn db.Connector, err error) {
	// pebble panics on some option combinations instead of returning an error
	defer func() {
		if r := recover(); r != nil {
			conn, err = nil, errors.Newf("failed to open database at %s: %v", path, r)
		}
	}()

	opts = opts.WithDefaults()

	cache := pebble.NewCache(opts.BlockCacheSize)
	defer cache.Unref()

	pdb, err := pebble.Open(path, e.pebbleOptions(opts, cache))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", path)
	}

	// paranoid checks verify every level before the database is handed out
	if opts.ParanoidChecks {
		if err := pdb.CheckLevels(nil); err != nil {
			_ = pdb.Close()
			return nil, errors.Wrapf(err, "consistency check failed for %s", path)
		}
	}

	Logger.Debugf("opened database at %s", path)
	return &connectorImpl{db: pdb, path: path}, nil
}

func (e *engineImpl) Repair(path string, opts db.Options) error {
	opts = opts.WithDefaults()
	opts.ErrorIfExists = false

	cache := pebble.NewCache(opts.BlockCacheSize)
	defer cache.Unref()

	popts := e.pebbleOptions(opts, cache)
	popts.ErrorIfNotExists = true

	// opening replays the WAL and the manifest, which recovers an unclean shutdown
	pdb, err := pebble.Open(path, popts)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s for repair", path)
	}

	if err := repair(pdb); err != nil {
		_ = pdb.Close()
		return errors.Wrapf(err, "failed to repair %s", path)
	}

	if err := pdb.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s after repair", path)
	}

	Logger.Infof("repaired database at %s", path)
	return nil
}

func (e *engineImpl) Destroy(path string) error {
	if err := e.fs.RemoveAll(path); err != nil {
		return errors.Wrapf(err, "failed to destroy %s", path)
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// pebbleOptions maps db.Options onto pebble options
func (e *engineImpl) pebbleOptions(opts db.Options, cache *pebble.Cache) *pebble.Options {
	return &pebble.Options{
		FS:               e.fs,
		Cache:            cache,
		ErrorIfExists:    opts.ErrorIfExists,
		ErrorIfNotExists: !opts.CreateIfMissing,
		MemTableSize:     uint64(opts.WriteBufferSize),
		MaxOpenFiles:     opts.MaxOpenFiles,
		Levels: []pebble.LevelOptions{{
			BlockSize:            opts.BlockSize,
			BlockRestartInterval: opts.BlockRestartInterval,
		}},
		Logger: pebbleLogger{},
	}
}

// repair flushes the memtable, verifies all levels and rewrites every sstable
// by compacting the full key range
func repair(pdb *pebble.DB) error {
	if err := pdb.Flush(); err != nil {
		return err
	}

	if err := pdb.CheckLevels(nil); err != nil {
		Logger.Warningf("level check reported: %v", err)
	}

	first, last, ok, err := keySpan(pdb)
	if err != nil || !ok {
		return err
	}

	// Compact needs start < end, the successor of the last key is exclusive
	end := append(append([]byte{}, last...), 0x00)
	return pdb.Compact(first, end, true)
}

// keySpan returns the smallest and the largest key of the database
func keySpan(pdb *pebble.DB) (first, last []byte, ok bool, err error) {
	it, err := pdb.NewIter(nil)
	if err != nil {
		return nil, nil, false, err
	}
	defer it.Close()

	if !it.First() {
		return nil, nil, false, it.Error()
	}
	first = append([]byte{}, it.Key()...)

	if !it.Last() {
		return nil, nil, false, it.Error()
	}
	last = append([]byte{}, it.Key()...)

	return first, last, true, it.Error()
}

// pebbleLogger forwards pebble's log output to the package logger
type pebbleLogger struct{}

func (pebbleLogger) Infof(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

func (pebbleLogger) Errorf(format string, args ...interface{}) {
	Logger.Errorf(format, args...)
}

func (pebbleLogger) Fatalf(format string, args ...interface{}) {
	Logger.Panicf(format, args...)
}

// --------------------------------------------------------------------------
// Connector
// --------------------------------------------------------------------------

// connectorImpl implements db.Connector on top of an open pebble.DB
type connectorImpl struct {
	db     *pebble.DB
	path   string
	closed atomic.Bool
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.Connector)
// --------------------------------------------------------------------------

func (c *connectorImpl) Get(key []byte) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	return get(c.db.Get(key))
}

func (c *connectorImpl) Put(key, value []byte) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.db.Set(key, value, pebble.Sync)
}

func (c *connectorImpl) Delete(key []byte) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.db.Delete(key, pebble.Sync)
}

func (c *connectorImpl) NewBatch() db.Batch {
	return &batchImpl{b: c.db.NewBatch(), owner: c}
}

func (c *connectorImpl) Write(b db.Batch) error {
	if c.closed.Load() {
		return ErrClosed
	}

	pb, ok := b.(*batchImpl)
	if !ok || pb.owner != c {
		return errors.New("pebbledb: batch was not created by this connector")
	}

	if pb.b.Empty() {
		return nil
	}
	return pb.b.Commit(pebble.Sync)
}

func (c *connectorImpl) NewSnapshot() (db.Snapshot, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	return &snapshotImpl{s: c.db.NewSnapshot()}, nil
}

func (c *connectorImpl) Info() db.DatabaseInfo {
	info := db.DatabaseInfo{
		DbType:   db.ImplPebble,
		Metadata: map[string]any{"path": c.path},
	}
	if !c.closed.Load() {
		info.SizeBytes = c.db.Metrics().DiskSpaceUsage()
	}
	return info
}

func (c *connectorImpl) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return c.db.Close()
}

// get copies the value returned by a pebble reader and releases it
func get(value []byte, closer interface{ Close() error }, err error) ([]byte, error) {
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte{}, value...), nil
}

// --------------------------------------------------------------------------
// Batch
// --------------------------------------------------------------------------

type batchImpl struct {
	b     *pebble.Batch
	owner *connectorImpl
}

func (b *batchImpl) Put(key, value []byte) {
	// Set only fails for a batch that was already committed or closed
	_ = b.b.Set(key, value, nil)
}

func (b *batchImpl) Delete(key []byte) {
	_ = b.b.Delete(key, nil)
}

func (b *batchImpl) Len() int {
	return int(b.b.Count())
}

func (b *batchImpl) Close() error {
	return b.b.Close()
}

// --------------------------------------------------------------------------
// Snapshot
// --------------------------------------------------------------------------

type snapshotImpl struct {
	s *pebble.Snapshot
}

func (s *snapshotImpl) Get(key []byte) ([]byte, error) {
	return get(s.s.Get(key))
}

func (s *snapshotImpl) NewIterator(r db.Range) db.Iterator {
	it, err := s.s.NewIter(&pebble.IterOptions{
		LowerBound: r.Start,
		UpperBound: r.Limit,
	})
	if err != nil {
		return &iteratorImpl{err: err}
	}
	return &iteratorImpl{it: it}
}

func (s *snapshotImpl) Close() error {
	return s.s.Close()
}
