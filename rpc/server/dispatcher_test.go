package server

import (
	"bytes"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/mKV/lib/db"
	"github.com/ValentinKolb/mKV/lib/db/engines/pebbledb"
	"github.com/ValentinKolb/mKV/lib/registry"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/VictoriaMetrics/metrics"
	"github.com/cockroachdb/pebble/vfs"
)

// newTestDispatcher creates a dispatcher over a fresh registry holding one database named "default"
func newTestDispatcher(t *testing.T) (*Dispatcher, registry.IRegistry, string) {
	reg, err := registry.NewRegistry(t.TempDir(), pebbledb.NewEngineWithFS(vfs.NewMem()))
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	t.Cleanup(func() { _ = reg.Close() })

	uid, err := reg.Add("default", db.DefaultOptions())
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	return NewDispatcher(reg, Logger), reg, uid
}

func expectStatus(t *testing.T, resp common.Response, status common.Status) {
	t.Helper()
	if resp.Header.Status != status {
		t.Fatalf("expected status %s, got %s (%s: %s)", status, resp.Header.Status, resp.Header.ErrCode, resp.Header.ErrMsg)
	}
}

func expectFailure(t *testing.T, resp common.Response, kind common.ErrorKind) {
	t.Helper()
	expectStatus(t, resp, common.StatusFailure)
	if resp.Header.ErrCode != kind {
		t.Errorf("expected error kind %s, got %s (%s)", kind, resp.Header.ErrCode, resp.Header.ErrMsg)
	}
	if resp.Content.Datas != nil {
		t.Errorf("failure must not carry a value, got %v", resp.Content.Datas)
	}
}

// pairs converts a scan result into "key=value" strings
func pairs(t *testing.T, v any) []string {
	t.Helper()
	list, ok := v.([]any)
	if !ok {
		t.Fatalf("expected []any, got %T", v)
	}
	out := make([]string, len(list))
	for i, p := range list {
		kv, ok := p.([]any)
		if !ok || len(kv) != 2 {
			t.Fatalf("unexpected pair %v", p)
		}
		out[i] = string(kv[0].([]byte)) + "=" + string(kv[1].([]byte))
	}
	return out
}

func TestPointOperations(t *testing.T) {
	d, _, uid := newTestDispatcher(t)

	expectStatus(t, d.Dispatch(common.NewPutRequest(uid, []byte("k"), []byte("v"))), common.StatusSuccess)

	resp := d.Dispatch(common.NewGetRequest(uid, []byte("k")))
	expectStatus(t, resp, common.StatusSuccess)
	if !bytes.Equal(resp.Content.Datas.([]byte), []byte("v")) {
		t.Errorf("expected v, got %v", resp.Content.Datas)
	}

	t.Run("Miss", func(t *testing.T) {
		resp := d.Dispatch(common.NewGetRequest(uid, []byte("missing")))
		expectFailure(t, resp, common.KindKeyNotFound)
		if resp.Header.ErrMsg != `Key "missing" does not exist` {
			t.Errorf("unexpected message %q", resp.Header.ErrMsg)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		expectStatus(t, d.Dispatch(common.NewDeleteRequest(uid, []byte("k"))), common.StatusSuccess)
		expectFailure(t, d.Dispatch(common.NewGetRequest(uid, []byte("k"))), common.KindKeyNotFound)
		// deleting an absent key still succeeds
		expectStatus(t, d.Dispatch(common.NewDeleteRequest(uid, []byte("k"))), common.StatusSuccess)
	})

	t.Run("StringArguments", func(t *testing.T) {
		req := &common.Request{Command: "put", DBUID: uid, Data: []any{"s", "text"}}
		expectStatus(t, d.Dispatch(req), common.StatusSuccess)
		resp := d.Dispatch(&common.Request{Command: "GET", DBUID: uid, Data: []any{"s"}})
		expectStatus(t, resp, common.StatusSuccess)
		if string(resp.Content.Datas.([]byte)) != "text" {
			t.Errorf("expected text, got %v", resp.Content.Datas)
		}
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		req := &common.Request{Command: "PUT", DBUID: uid, Data: []any{[]byte("k"), int64(5)}}
		resp := d.Dispatch(req)
		expectFailure(t, resp, common.KindUnsupportedType)
		if resp.Header.ErrMsg != "Unsupported value type : int64" {
			t.Errorf("unexpected message %q", resp.Header.ErrMsg)
		}
	})

	t.Run("MissingArguments", func(t *testing.T) {
		expectFailure(t, d.Dispatch(&common.Request{Command: "GET", DBUID: uid}), common.KindInvalidValue)
		expectFailure(t, d.Dispatch(&common.Request{Command: "PUT", DBUID: uid, Data: []any{"k"}}), common.KindInvalidValue)
	})

	t.Run("SurplusArguments", func(t *testing.T) {
		req := &common.Request{Command: "PUT", DBUID: uid, Data: []any{"x", "y", "ignored"}}
		expectStatus(t, d.Dispatch(req), common.StatusSuccess)
	})
}

func TestRouting(t *testing.T) {
	d, _, uid := newTestDispatcher(t)

	t.Run("UnknownDatabase", func(t *testing.T) {
		resp := d.Dispatch(common.NewGetRequest("nope", []byte("k")))
		expectFailure(t, resp, common.KindRuntimeError)
		if resp.Header.ErrMsg != "Database nope doesn't exist" {
			t.Errorf("unexpected message %q", resp.Header.ErrMsg)
		}
		expectFailure(t, d.Dispatch(common.NewGetRequest("", []byte("k"))), common.KindRuntimeError)
	})

	t.Run("UnknownCommand", func(t *testing.T) {
		resp := d.Dispatch(&common.Request{Command: "FLUSH", DBUID: uid})
		expectFailure(t, resp, common.KindUnrecognizedCommand)
		if resp.Header.ErrMsg != "Command FLUSH not handled" {
			t.Errorf("unexpected message %q", resp.Header.ErrMsg)
		}
	})

	t.Run("DatabaseCheckedFirst", func(t *testing.T) {
		resp := d.Dispatch(&common.Request{Command: "FLUSH", DBUID: "nope"})
		expectFailure(t, resp, common.KindRuntimeError)
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		resp := d.Dispatch(&common.Request{Command: "dblist", DBUID: uid})
		expectStatus(t, resp, common.StatusSuccess)
	})
}

func TestMGet(t *testing.T) {
	d, _, uid := newTestDispatcher(t)
	for _, k := range []string{"a", "b", "c"} {
		expectStatus(t, d.Dispatch(common.NewPutRequest(uid, []byte(k), []byte("v"+k))), common.StatusSuccess)
	}

	t.Run("AllHits", func(t *testing.T) {
		resp := d.Dispatch(common.NewMGetRequest(uid, [][]byte{[]byte("c"), []byte("a")}))
		expectStatus(t, resp, common.StatusSuccess)
		values := resp.Content.Datas.([]any)
		if len(values) != 2 || string(values[0].([]byte)) != "vc" || string(values[1].([]byte)) != "va" {
			t.Errorf("unexpected values %v", values)
		}
	})

	t.Run("Miss", func(t *testing.T) {
		resp := d.Dispatch(common.NewMGetRequest(uid, [][]byte{[]byte("a"), []byte("x"), []byte("b")}))
		expectStatus(t, resp, common.StatusWarning)
		values := resp.Content.Datas.([]any)
		if len(values) != 3 {
			t.Fatalf("expected 3 values, got %d", len(values))
		}
		if values[1] != nil {
			t.Errorf("expected nil for miss, got %v", values[1])
		}
		if string(values[2].([]byte)) != "vb" {
			t.Errorf("unexpected value %v", values[2])
		}
	})

	t.Run("Empty", func(t *testing.T) {
		resp := d.Dispatch(common.NewMGetRequest(uid, nil))
		expectStatus(t, resp, common.StatusSuccess)
		if len(resp.Content.Datas.([]any)) != 0 {
			t.Errorf("expected no values")
		}
	})

	t.Run("NotAList", func(t *testing.T) {
		resp := d.Dispatch(&common.Request{Command: "MGET", DBUID: uid, Data: []any{"a"}})
		expectFailure(t, resp, common.KindInvalidValue)
	})
}

func TestRangeAndSlice(t *testing.T) {
	d, _, uid := newTestDispatcher(t)
	for _, k := range []string{"d", "a", "c", "b"} {
		expectStatus(t, d.Dispatch(common.NewPutRequest(uid, []byte(k), []byte(strings.ToUpper(k)))), common.StatusSuccess)
	}

	testCases := []struct {
		name     string
		req      *common.Request
		expected []string
	}{
		{"RangeHalfOpen", common.NewRangeRequest(uid, []byte("b"), []byte("d")), []string{"b=B", "c=C"}},
		{"RangeOpenEnd", common.NewRangeRequest(uid, []byte("c"), nil), []string{"c=C", "d=D"}},
		{"RangeAll", common.NewRangeRequest(uid, nil, nil), []string{"a=A", "b=B", "c=C", "d=D"}},
		{"RangeEmpty", common.NewRangeRequest(uid, []byte("x"), []byte("z")), []string{}},
		{"Slice", common.NewSliceRequest(uid, []byte("b"), 2), []string{"b=B", "c=C"}},
		{"SliceExhausted", common.NewSliceRequest(uid, []byte("c"), 10), []string{"c=C", "d=D"}},
		{"SliceZero", common.NewSliceRequest(uid, []byte("a"), 0), []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := d.Dispatch(tc.req)
			expectStatus(t, resp, common.StatusSuccess)
			got := pairs(t, resp.Content.Datas)
			if strings.Join(got, ",") != strings.Join(tc.expected, ",") {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}

	t.Run("SliceNegative", func(t *testing.T) {
		expectFailure(t, d.Dispatch(common.NewSliceRequest(uid, []byte("a"), -1)), common.KindInvalidValue)
	})

	t.Run("SliceNotAnInteger", func(t *testing.T) {
		req := &common.Request{Command: "SLICE", DBUID: uid, Data: []any{"a", "ten"}}
		expectFailure(t, d.Dispatch(req), common.KindInvalidValue)
	})
}

func TestBatch(t *testing.T) {
	d, _, uid := newTestDispatcher(t)
	expectStatus(t, d.Dispatch(common.NewPutRequest(uid, []byte("old"), []byte("1"))), common.StatusSuccess)

	t.Run("Commit", func(t *testing.T) {
		req := common.NewBatchRequest(uid,
			common.PutEntry([]byte("x"), []byte("1")),
			common.PutEntry([]byte("y"), []byte("2")),
			common.DeleteEntry([]byte("old")),
		)
		expectStatus(t, d.Dispatch(req), common.StatusSuccess)

		expectStatus(t, d.Dispatch(common.NewGetRequest(uid, []byte("x"))), common.StatusSuccess)
		expectStatus(t, d.Dispatch(common.NewGetRequest(uid, []byte("y"))), common.StatusSuccess)
		expectFailure(t, d.Dispatch(common.NewGetRequest(uid, []byte("old"))), common.KindKeyNotFound)
	})

	testCases := []struct {
		name    string
		entries []any
		kind    common.ErrorKind
		msg     string
	}{
		{
			name:    "NotASequence",
			entries: []any{[]any{"PUT", "a", "1"}, "PUT"},
			kind:    common.KindInvalidValue,
			msg:     "Batch only accepts sequences (list, tuples,...)",
		},
		{
			name:    "EmptySequence",
			entries: []any{[]any{"PUT", "a", "1"}, []any{}},
			kind:    common.KindInvalidValue,
			msg:     "Batch only accepts sequences (list, tuples,...)",
		},
		{
			name:    "UnknownSignal",
			entries: []any{[]any{"PUT", "a", "1"}, []any{"MERGE", "a", "2"}},
			kind:    common.KindUnrecognizedSignal,
			msg:     `Unrecognized signal received : "MERGE"`,
		},
		{
			name:    "WrongArity",
			entries: []any{[]any{"PUT", "a", "1"}, []any{"PUT", "b"}},
			kind:    common.KindUnsupportedType,
			msg:     "Invalid type supplied",
		},
		{
			name:    "WrongType",
			entries: []any{[]any{"PUT", "a", "1"}, []any{"DELETE", int64(3)}},
			kind:    common.KindUnsupportedType,
			msg:     "Invalid type supplied",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := &common.Request{Command: "BATCH", DBUID: uid, Data: []any{tc.entries}}
			resp := d.Dispatch(req)
			expectFailure(t, resp, tc.kind)
			if resp.Header.ErrMsg != tc.msg {
				t.Errorf("expected message %q, got %q", tc.msg, resp.Header.ErrMsg)
			}
			// the valid first entry must not have been written
			expectFailure(t, d.Dispatch(common.NewGetRequest(uid, []byte("a"))), common.KindKeyNotFound)
		})
	}

	t.Run("LowerCaseSignal", func(t *testing.T) {
		req := &common.Request{Command: "BATCH", DBUID: uid, Data: []any{[]any{[]any{"put", "lc", "1"}}}}
		expectStatus(t, d.Dispatch(req), common.StatusSuccess)
	})
}

func TestLifecycle(t *testing.T) {
	d, reg, uid := newTestDispatcher(t)

	t.Run("Connect", func(t *testing.T) {
		resp := d.Dispatch(common.NewDBConnectRequest("default"))
		expectStatus(t, resp, common.StatusSuccess)
		if resp.Content.Datas != uid {
			t.Errorf("expected uid %s, got %v", uid, resp.Content.Datas)
		}
		expectFailure(t, d.Dispatch(common.NewDBConnectRequest("unknown")), common.KindDatabaseError)
		expectFailure(t, d.Dispatch(&common.Request{Command: "DBCONNECT"}), common.KindDatabaseError)
	})

	var ordersUID string
	t.Run("Create", func(t *testing.T) {
		resp := d.Dispatch(common.NewDBCreateRequest(uid, "orders", map[string]any{"block_size": int64(8192)}))
		expectStatus(t, resp, common.StatusSuccess)
		ordersUID = resp.Content.Datas.(string)
		if got, _ := reg.UID("orders"); got != ordersUID {
			t.Errorf("registry uid %s does not match %s", got, ordersUID)
		}

		resp = d.Dispatch(common.NewDBCreateRequest(uid, "orders", nil))
		expectFailure(t, resp, common.KindDatabaseError)
		if resp.Header.ErrMsg != "Database orders already exists" {
			t.Errorf("unexpected message %q", resp.Header.ErrMsg)
		}

		expectFailure(t, d.Dispatch(common.NewDBCreateRequest(uid, "bad", map[string]any{"nope": true})), common.KindInvalidValue)
		expectFailure(t, d.Dispatch(common.NewDBCreateRequest(uid, "", nil)), common.KindInvalidValue)

		for _, size := range []int64{1, 1 << 40} {
			resp := d.Dispatch(common.NewDBCreateRequest(uid, "tiny", map[string]any{"write_buffer_size": size}))
			expectFailure(t, resp, common.KindInvalidValue)
		}
		if reg.Exists("tiny") {
			t.Errorf("database with invalid options must not be created")
		}
	})

	t.Run("Isolation", func(t *testing.T) {
		expectStatus(t, d.Dispatch(common.NewPutRequest(ordersUID, []byte("k"), []byte("orders"))), common.StatusSuccess)
		expectFailure(t, d.Dispatch(common.NewGetRequest(uid, []byte("k"))), common.KindKeyNotFound)
	})

	t.Run("List", func(t *testing.T) {
		resp := d.Dispatch(common.NewDBListRequest(uid))
		expectStatus(t, resp, common.StatusSuccess)
		list := resp.Content.Datas.([]any)
		if len(list) != 2 {
			t.Fatalf("expected 2 databases, got %d", len(list))
		}
		names := []string{list[0].(map[string]any)["name"].(string), list[1].(map[string]any)["name"].(string)}
		if names[0] != "default" || names[1] != "orders" {
			t.Errorf("expected sorted names, got %v", names)
		}
		stats := list[1].(map[string]any)["stats"].(map[string]any)
		if stats["writes"] != int64(1) {
			t.Errorf("expected 1 write on orders, got %v", stats["writes"])
		}
	})

	t.Run("Repair", func(t *testing.T) {
		expectStatus(t, d.Dispatch(common.NewDBRepairRequest(uid, ordersUID)), common.StatusSuccess)
		expectStatus(t, d.Dispatch(common.NewDBRepairRequest(uid, "")), common.StatusSuccess)
		expectFailure(t, d.Dispatch(common.NewDBRepairRequest(uid, "unknown")), common.KindDatabaseError)

		resp := d.Dispatch(common.NewGetRequest(ordersUID, []byte("k")))
		expectStatus(t, resp, common.StatusSuccess)
	})

	t.Run("Drop", func(t *testing.T) {
		expectFailure(t, d.Dispatch(common.NewDBDropRequest(uid, "unknown")), common.KindDatabaseError)

		// a database can drop itself
		expectStatus(t, d.Dispatch(common.NewDBDropRequest(ordersUID, "orders")), common.StatusSuccess)
		expectFailure(t, d.Dispatch(common.NewGetRequest(ordersUID, []byte("k"))), common.KindRuntimeError)
		expectFailure(t, d.Dispatch(common.NewDBConnectRequest("orders")), common.KindDatabaseError)
	})
}

func TestDropWaitsForInFlight(t *testing.T) {
	d, reg, uid := newTestDispatcher(t)

	// hold a lease like an in-flight data command
	_, release, err := reg.Acquire(uid)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	var dropped atomic.Bool
	done := make(chan common.Response, 1)
	go func() {
		resp := d.Dispatch(common.NewDBDropRequest(uid, "default"))
		dropped.Store(true)
		done <- resp
	}()

	time.Sleep(50 * time.Millisecond)
	if dropped.Load() {
		t.Fatalf("drop returned while a lease was held")
	}

	release()
	select {
	case resp := <-done:
		expectStatus(t, resp, common.StatusSuccess)
	case <-time.After(5 * time.Second):
		t.Fatalf("drop did not finish after the lease was released")
	}

	expectFailure(t, d.Dispatch(common.NewGetRequest(uid, []byte("k"))), common.KindRuntimeError)
}

func TestRepairWaitsForInFlight(t *testing.T) {
	d, reg, uid := newTestDispatcher(t)

	_, release, err := reg.Acquire(uid)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	var repaired atomic.Bool
	done := make(chan common.Response, 1)
	go func() {
		resp := d.Dispatch(common.NewDBRepairRequest(uid, ""))
		repaired.Store(true)
		done <- resp
	}()

	time.Sleep(50 * time.Millisecond)
	if repaired.Load() {
		t.Fatalf("repair returned while a lease was held")
	}

	release()
	select {
	case resp := <-done:
		expectStatus(t, resp, common.StatusSuccess)
	case <-time.After(5 * time.Second):
		t.Fatalf("repair did not finish after the lease was released")
	}

	// the database stays usable after the repair
	expectStatus(t, d.Dispatch(common.NewPutRequest(uid, []byte("k"), []byte("v"))), common.StatusSuccess)
}

// writingRegistry lends handles whose connector writes while a scan is running
type writingRegistry struct {
	registry.IRegistry
}

func (r writingRegistry) Acquire(uid string) (*registry.Handle, func(), error) {
	h, release, err := r.IRegistry.Acquire(uid)
	if err != nil {
		return nil, nil, err
	}
	wrapped := *h
	wrapped.Connector = writeDuringScan{h.Connector}
	return &wrapped, release, nil
}

// writeDuringScan writes "b2" once the snapshot exists and replaces "c" with
// "c2" after the iterator returned its first entry
type writeDuringScan struct {
	db.Connector
}

func (c writeDuringScan) NewSnapshot() (db.Snapshot, error) {
	snap, err := c.Connector.NewSnapshot()
	if err != nil {
		return nil, err
	}
	return writeDuringScanSnapshot{Snapshot: snap, conn: c.Connector}, nil
}

type writeDuringScanSnapshot struct {
	db.Snapshot
	conn db.Connector
}

func (s writeDuringScanSnapshot) NewIterator(r db.Range) db.Iterator {
	_ = s.conn.Put([]byte("b2"), []byte("late"))
	return &writeDuringScanIterator{Iterator: s.Snapshot.NewIterator(r), conn: s.conn}
}

type writeDuringScanIterator struct {
	db.Iterator
	conn  db.Connector
	wrote bool
}

func (it *writeDuringScanIterator) Next() bool {
	ok := it.Iterator.Next()
	if !it.wrote {
		it.wrote = true
		_ = it.conn.Put([]byte("c2"), []byte("late"))
		_ = it.conn.Delete([]byte("c"))
	}
	return ok
}

func TestScanIgnoresConcurrentWrites(t *testing.T) {
	plain, reg, uid := newTestDispatcher(t)
	for _, k := range []string{"a", "b", "c", "d"} {
		expectStatus(t, plain.Dispatch(common.NewPutRequest(uid, []byte(k), []byte(strings.ToUpper(k)))), common.StatusSuccess)
	}

	d := NewDispatcher(writingRegistry{reg}, Logger)

	testCases := []struct {
		name string
		req  *common.Request
	}{
		{"Range", common.NewRangeRequest(uid, nil, nil)},
		{"Slice", common.NewSliceRequest(uid, []byte("a"), 10)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// restore the initial state
			expectStatus(t, plain.Dispatch(common.NewBatchRequest(uid,
				common.PutEntry([]byte("c"), []byte("C")),
				common.DeleteEntry([]byte("b2")),
				common.DeleteEntry([]byte("c2")),
			)), common.StatusSuccess)

			resp := d.Dispatch(tc.req)
			expectStatus(t, resp, common.StatusSuccess)
			if got := strings.Join(pairs(t, resp.Content.Datas), ","); got != "a=A,b=B,c=C,d=D" {
				t.Errorf("scan observed writes issued after it began: %s", got)
			}

			// the writes did happen and are visible to the next scan
			resp = plain.Dispatch(common.NewRangeRequest(uid, nil, nil))
			expectStatus(t, resp, common.StatusSuccess)
			if got := strings.Join(pairs(t, resp.Content.Datas), ","); got != "a=A,b=B,b2=late,c2=late,d=D" {
				t.Errorf("unexpected state after the scan: %s", got)
			}
		})
	}
}

// brokenRegistry lends handles without a storage connector
type brokenRegistry struct {
	registry.IRegistry
}

func (r brokenRegistry) Acquire(uid string) (*registry.Handle, func(), error) {
	return &registry.Handle{UID: uid}, func() {}, nil
}

func TestPanicRecovery(t *testing.T) {
	_, reg, uid := newTestDispatcher(t)
	d := NewDispatcher(brokenRegistry{reg}, Logger)

	resp := d.Dispatch(common.NewGetRequest(uid, []byte("k")))
	expectFailure(t, resp, common.KindRuntimeError)
	if !strings.HasPrefix(resp.Header.ErrMsg, "internal error") {
		t.Errorf("unexpected message %q", resp.Header.ErrMsg)
	}
}

func TestEnvelope(t *testing.T) {
	d, _, uid := newTestDispatcher(t)

	req := common.NewPutRequest(uid, []byte("k"), []byte("v"))
	req.Meta.Compression = true
	resp := d.Dispatch(req)
	expectStatus(t, resp, common.StatusSuccess)
	if !resp.Header.Compression || !resp.Content.Compression {
		t.Errorf("expected compression flags to follow the request")
	}
	if resp.Header.ErrCode != "" || resp.Header.ErrMsg != "" {
		t.Errorf("success must not carry an error, got %s %q", resp.Header.ErrCode, resp.Header.ErrMsg)
	}

	req = common.NewGetRequest(uid, []byte("missing"))
	req.Meta.Compression = true
	resp = d.Dispatch(req)
	expectFailure(t, resp, common.KindKeyNotFound)
	if resp.Header.Compression || resp.Content.Compression {
		t.Errorf("failures must never be compressed")
	}
}

func TestCommandMetrics(t *testing.T) {
	d, _, uid := newTestDispatcher(t)
	d.Dispatch(common.NewPutRequest(uid, []byte("k"), []byte("v")))
	d.Dispatch(&common.Request{Command: "FLUSH", DBUID: uid})

	var buf bytes.Buffer
	metrics.WritePrometheus(&buf, false)
	out := buf.String()

	for _, expected := range []string{
		`mkv_commands_total{command="PUT",status="SUCCESS"}`,
		`mkv_commands_total{command="UNKNOWN",status="FAILURE"}`,
		`mkv_command_duration_seconds_bucket{command="PUT"`,
	} {
		if !strings.Contains(out, expected) {
			t.Errorf("metrics output is missing %s", expected)
		}
	}
}

func TestCommandTable(t *testing.T) {
	for _, cmd := range common.Commands {
		if _, ok := commandTable[cmd]; !ok {
			t.Errorf("command %s has no operation", cmd)
		}
	}
	if len(commandTable) != len(common.Commands) {
		t.Errorf("command table has %d entries, expected %d", len(commandTable), len(common.Commands))
	}
}
