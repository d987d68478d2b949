package server

import (
	"strings"

	"github.com/ValentinKolb/mKV/lib/db"
	"github.com/ValentinKolb/mKV/lib/registry"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/cockroachdb/errors"
	"github.com/lni/dragonboat/v4/logger"
)

// call carries everything an operation may touch while it runs
type call struct {
	cmd    common.Command
	req    *common.Request
	reg    registry.IRegistry
	handle *registry.Handle // nil for lifecycle commands
	log    logger.ILogger
}

// --------------------------------------------------------------------------
// Point Operations
// --------------------------------------------------------------------------

func opGet(c *call) Result {
	key, f := bytesArg(c.cmd, c.req.Data, 0)
	if f != nil {
		return failed(f)
	}

	c.handle.Stats.Reads.Inc(1)
	value, err := c.handle.Connector.Get(key)
	if errors.Is(err, db.ErrNotFound) {
		c.handle.Stats.Misses.Inc(1)
		return fail(common.KindKeyNotFound, "Key %q does not exist", key)
	}
	if err != nil {
		return fail(common.KindDatabaseError, "get failed: %v", err)
	}
	return success(value)
}

func opPut(c *call) Result {
	key, f := bytesArg(c.cmd, c.req.Data, 0)
	if f != nil {
		return failed(f)
	}
	value, f := bytesArg(c.cmd, c.req.Data, 1)
	if f != nil {
		return failed(f)
	}

	c.handle.Stats.Writes.Inc(1)
	c.handle.Stats.ValueSizes.Add(len(value))
	if err := c.handle.Connector.Put(key, value); err != nil {
		return fail(common.KindDatabaseError, "put failed: %v", err)
	}
	return success(nil)
}

func opDelete(c *call) Result {
	key, f := bytesArg(c.cmd, c.req.Data, 0)
	if f != nil {
		return failed(f)
	}

	c.handle.Stats.Writes.Inc(1)
	if err := c.handle.Connector.Delete(key); err != nil {
		return fail(common.KindDatabaseError, "delete failed: %v", err)
	}
	return success(nil)
}

// opMGet reads every key independently. Misses yield nil and downgrade the status to WARNING.
func opMGet(c *call) Result {
	list, f := listArg(c.cmd, c.req.Data, 0)
	if f != nil {
		return failed(f)
	}

	keys := make([][]byte, len(list))
	for i, v := range list {
		key, ok := common.AsBytes(v)
		if !ok {
			return fail(common.KindUnsupportedType, "Unsupported value type : %s", common.TypeName(v))
		}
		keys[i] = key
	}

	c.handle.Stats.Reads.Inc(int64(len(keys)))

	values := make([]any, len(keys))
	missed := false
	for i, key := range keys {
		value, err := c.handle.Connector.Get(key)
		switch {
		case errors.Is(err, db.ErrNotFound):
			c.handle.Stats.Misses.Inc(1)
			c.log.Warningf("MGET on %s: key %q does not exist", c.handle.Name, key)
			missed = true
		case err != nil:
			return fail(common.KindDatabaseError, "get failed: %v", err)
		default:
			values[i] = value
		}
	}

	if missed {
		return warning(values)
	}
	return success(values)
}

// --------------------------------------------------------------------------
// Scans
// --------------------------------------------------------------------------

func opRange(c *call) Result {
	from, f := boundArg(c.cmd, c.req.Data, 0)
	if f != nil {
		return failed(f)
	}
	to, f := boundArg(c.cmd, c.req.Data, 1)
	if f != nil {
		return failed(f)
	}

	return scan(c, db.Range{Start: from, Limit: to}, -1)
}

func opSlice(c *call) Result {
	from, f := boundArg(c.cmd, c.req.Data, 0)
	if f != nil {
		return failed(f)
	}
	n, f := countArg(c.cmd, c.req.Data, 1)
	if f != nil {
		return failed(f)
	}

	return scan(c, db.Range{Start: from}, n)
}

// scan collects up to limit pairs of r from a fresh snapshot. A negative limit means no limit.
func scan(c *call, r db.Range, limit int) Result {
	c.handle.Stats.Scans.Inc(1)

	pairs := make([]any, 0)
	if limit == 0 {
		return success(pairs)
	}

	snap, err := c.handle.Connector.NewSnapshot()
	if err != nil {
		return fail(common.KindDatabaseError, "snapshot failed: %v", err)
	}
	defer snap.Close()

	it := snap.NewIterator(r)
	defer it.Close()

	for it.Next() {
		pairs = append(pairs, []any{it.Key(), it.Value()})
		if limit > 0 && len(pairs) >= limit {
			break
		}
	}
	if err := it.Error(); err != nil {
		return fail(common.KindDatabaseError, "scan failed: %v", err)
	}
	return success(pairs)
}

// --------------------------------------------------------------------------
// Batch
// --------------------------------------------------------------------------

// batchEntry is one decoded write of a batch
type batchEntry struct {
	key   []byte
	value []byte
	del   bool
}

// batchSignals maps a batch signal to the decoder of its arguments
var batchSignals = map[string]func(args []any) (batchEntry, bool){
	common.SignalPut:    appendPut,
	common.SignalDelete: appendDelete,
}

func appendPut(args []any) (batchEntry, bool) {
	if len(args) != 2 {
		return batchEntry{}, false
	}
	key, ok := common.AsBytes(args[0])
	if !ok {
		return batchEntry{}, false
	}
	value, ok := common.AsBytes(args[1])
	if !ok {
		return batchEntry{}, false
	}
	return batchEntry{key: key, value: value}, true
}

func appendDelete(args []any) (batchEntry, bool) {
	if len(args) != 1 {
		return batchEntry{}, false
	}
	key, ok := common.AsBytes(args[0])
	if !ok {
		return batchEntry{}, false
	}
	return batchEntry{key: key, del: true}, true
}

// opBatch decodes every entry first and commits them in one atomic write.
// Nothing is written if any entry is rejected.
func opBatch(c *call) Result {
	list, f := listArg(c.cmd, c.req.Data, 0)
	if f != nil {
		return failed(f)
	}

	entries := make([]batchEntry, 0, len(list))
	for _, raw := range list {
		seq, ok := common.AsList(raw)
		if !ok || len(seq) == 0 {
			return fail(common.KindInvalidValue, "Batch only accepts sequences (list, tuples,...)")
		}

		signal, _ := common.AsString(seq[0])
		decode, ok := batchSignals[strings.ToUpper(signal)]
		if !ok {
			return fail(common.KindUnrecognizedSignal, "Unrecognized signal received : %q", seq[0])
		}

		entry, ok := decode(seq[1:])
		if !ok {
			return fail(common.KindUnsupportedType, "Invalid type supplied")
		}
		entries = append(entries, entry)
	}

	b := c.handle.Connector.NewBatch()
	defer b.Close()
	for _, e := range entries {
		if e.del {
			b.Delete(e.key)
		} else {
			b.Put(e.key, e.value)
			c.handle.Stats.ValueSizes.Add(len(e.value))
		}
	}

	c.handle.Stats.Batches.Inc(1)
	c.handle.Stats.Writes.Inc(int64(len(entries)))
	if err := c.handle.Connector.Write(b); err != nil {
		return fail(common.KindDatabaseError, "batch failed: %v", err)
	}
	return success(nil)
}

// --------------------------------------------------------------------------
// Database Lifecycle
// --------------------------------------------------------------------------

func opDBConnect(c *call) Result {
	name, f := nameArg(c.cmd, c.req.Data, 0)
	if f != nil {
		return fail(common.KindDatabaseError, "Database name is missing")
	}
	uid, ok := c.reg.UID(name)
	if !ok {
		return fail(common.KindDatabaseError, "Database %s doesn't exist", name)
	}
	return success(uid)
}

func opDBCreate(c *call) Result {
	name, f := nameArg(c.cmd, c.req.Data, 0)
	if f != nil {
		return failed(f)
	}
	raw, f := optionsArg(c.cmd, c.req.Data, 1)
	if f != nil {
		return failed(f)
	}
	opts, err := db.ParseOptions(raw)
	if err != nil {
		return fail(common.KindInvalidValue, "%v", err)
	}

	if c.reg.Exists(name) {
		return fail(common.KindDatabaseError, "Database %s already exists", name)
	}

	uid, err := c.reg.Add(name, opts)
	switch {
	case errors.Is(err, registry.ErrExists):
		return fail(common.KindDatabaseError, "Database %s already exists", name)
	case errors.Is(err, registry.ErrInvalidName):
		return fail(common.KindInvalidValue, "Invalid database name %q", name)
	case errors.Is(err, db.ErrInvalidOption):
		return fail(common.KindInvalidValue, "%v", err)
	case err != nil:
		return fail(common.KindDatabaseError, "create of %s failed: %v", name, err)
	}

	c.log.Infof("Created database %s (%s)", name, uid)
	return success(uid)
}

func opDBDrop(c *call) Result {
	name, f := nameArg(c.cmd, c.req.Data, 0)
	if f != nil {
		return failed(f)
	}
	if !c.reg.Exists(name) {
		return fail(common.KindDatabaseError, "Database %s doesn't exist", name)
	}

	if err := c.reg.Drop(name); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return fail(common.KindDatabaseError, "Database %s doesn't exist", name)
		}
		return fail(common.KindDatabaseError, "drop of %s failed: %v", name, err)
	}

	c.log.Infof("Dropped database %s", name)
	return success(nil)
}

func opDBList(c *call) Result {
	descriptors := c.reg.List()
	list := make([]any, len(descriptors))
	for i, d := range descriptors {
		list[i] = d.ToMap()
	}
	return success(list)
}

// opDBRepair repairs the database given as argument, or the requester's own database
func opDBRepair(c *call) Result {
	target := c.req.DBUID
	if len(c.req.Data) > 0 && c.req.Data[0] != nil {
		uid, f := nameArg(c.cmd, c.req.Data, 0)
		if f != nil {
			return failed(f)
		}
		target = uid
	}

	if _, ok := c.reg.Path(target); !ok {
		return fail(common.KindDatabaseError, "Database %s doesn't exist", target)
	}
	if err := c.reg.Repair(target); err != nil {
		return fail(common.KindDatabaseError, "Repair of %s failed: %v", target, err)
	}

	c.log.Infof("Repaired database %s", target)
	return success(nil)
}
