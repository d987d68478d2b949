package registry

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/mKV/lib/db"
	"github.com/ValentinKolb/mKV/lib/db/engines/pebbledb"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble/vfs"
)

// newTestRegistry creates a registry with the manifest in a temp dir and the
// databases on an in-memory filesystem
func newTestRegistry(t *testing.T) (IRegistry, string, db.Engine) {
	dir := t.TempDir()
	engine := pebbledb.NewEngineWithFS(vfs.NewMem())
	r, err := NewRegistry(dir, engine)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	return r, dir, engine
}

func mustAdd(t *testing.T, r IRegistry, name string) string {
	uid, err := r.Add(name, db.DefaultOptions())
	if err != nil {
		t.Fatalf("Add(%s) failed: %v", name, err)
	}
	return uid
}

func TestAddAndLookup(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	defer r.Close()

	uid := mustAdd(t, r, "users")

	if !r.Exists("users") {
		t.Errorf("expected users to exist")
	}
	if r.Exists("orders") {
		t.Errorf("expected orders to not exist")
	}

	if got, ok := r.UID("users"); !ok || got != uid {
		t.Errorf("UID(users): expected %s, got %s (%v)", uid, got, ok)
	}
	if name, ok := r.Name(uid); !ok || name != "users" {
		t.Errorf("Name(%s): expected users, got %s (%v)", uid, name, ok)
	}
	if path, ok := r.Path(uid); !ok || !strings.HasSuffix(path, uid) {
		t.Errorf("Path(%s): unexpected %s (%v)", uid, path, ok)
	}
	if _, ok := r.Path("unknown"); ok {
		t.Errorf("Path of unknown uid should not resolve")
	}
}

func TestAddErrors(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	defer r.Close()

	mustAdd(t, r, "users")

	if _, err := r.Add("users", db.DefaultOptions()); !errors.Is(err, ErrExists) {
		t.Errorf("expected ErrExists, got %v", err)
	}
	if _, err := r.Add("  ", db.DefaultOptions()); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
}

func TestAcquire(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	defer r.Close()

	uid := mustAdd(t, r, "users")

	h, release, err := r.Acquire(uid)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if h.Name != "users" || h.UID != uid {
		t.Errorf("unexpected handle %+v", h)
	}
	if err := h.Connector.Put([]byte("k"), []byte("v")); err != nil {
		t.Errorf("Put through handle failed: %v", err)
	}
	release()

	if _, _, err := r.Acquire("unknown"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDrop(t *testing.T) {
	r, dir, _ := newTestRegistry(t)
	defer r.Close()

	uid := mustAdd(t, r, "users")

	if err := r.Drop("users"); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if r.Exists("users") {
		t.Errorf("users still exists after drop")
	}
	if _, _, err := r.Acquire(uid); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after drop, got %v", err)
	}
	if err := r.Drop("users"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for second drop, got %v", err)
	}

	// the name can be reused and gets a fresh uid
	uid2 := mustAdd(t, r, "users")
	if uid2 == uid {
		t.Errorf("expected a new uid for a recreated database")
	}

	if _, err := os.Stat(filepath.Join(dir, manifestName)); err != nil {
		t.Errorf("manifest missing: %v", err)
	}
}

func TestDropWaitsForLease(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	defer r.Close()

	uid := mustAdd(t, r, "users")

	_, release, err := r.Acquire(uid)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	var dropped atomic.Bool
	done := make(chan error, 1)
	go func() {
		err := r.Drop("users")
		dropped.Store(true)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	if dropped.Load() {
		t.Fatalf("drop completed while a lease was held")
	}

	release()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Drop failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("drop did not complete after the lease was released")
	}

	if _, _, err := r.Acquire(uid); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after drop, got %v", err)
	}
}

func TestRepairWaitsForLease(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	defer r.Close()

	uid := mustAdd(t, r, "users")

	_, release, err := r.Acquire(uid)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	var repaired atomic.Bool
	done := make(chan error, 1)
	go func() {
		err := r.Repair(uid)
		repaired.Store(true)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	if repaired.Load() {
		t.Fatalf("repair completed while a lease was held")
	}

	release()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Repair failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("repair did not complete after the lease was released")
	}

	// unlike a drop, the database is usable again
	h, release, err := r.Acquire(uid)
	if err != nil {
		t.Fatalf("Acquire after repair failed: %v", err)
	}
	defer release()
	if err := h.Connector.Put([]byte("k"), []byte("v")); err != nil {
		t.Errorf("Put after repair failed: %v", err)
	}
}

func TestList(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	defer r.Close()

	uidB := mustAdd(t, r, "b")
	mustAdd(t, r, "a")

	h, release, err := r.Acquire(uidB)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	h.Stats.Reads.Inc(3)
	h.Stats.Misses.Inc(1)
	h.Stats.ValueSizes.Add(100)
	release()

	list := r.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(list))
	}
	if list[0].Name != "a" || list[1].Name != "b" {
		t.Errorf("expected descriptors sorted by name, got %s, %s", list[0].Name, list[1].Name)
	}
	if list[1].Stats["reads"] != 3 || list[1].Stats["misses"] != 1 || list[1].Stats["value_size_avg"] != 100 {
		t.Errorf("unexpected stats %v", list[1].Stats)
	}
	if list[1].Info.DbType != db.ImplPebble {
		t.Errorf("unexpected engine %s", list[1].Info.DbType)
	}

	m := list[1].ToMap()
	if m["name"] != "b" || m["uid"] != uidB {
		t.Errorf("unexpected wire descriptor %v", m)
	}
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	engine := pebbledb.NewEngineWithFS(vfs.NewMem())

	r, err := NewRegistry(dir, engine)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	opts := db.DefaultOptions()
	opts.BlockSize = 8 << 10
	uid, err := r.Add("users", opts)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	mustAdd(t, r, "dropped")

	h, release, _ := r.Acquire(uid)
	if err := h.Connector.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	release()

	if err := r.Drop("dropped"); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err = NewRegistry(dir, engine)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer r.Close()

	if got, ok := r.UID("users"); !ok || got != uid {
		t.Fatalf("expected users with uid %s after reload, got %s (%v)", uid, got, ok)
	}
	if r.Exists("dropped") {
		t.Errorf("dropped database reappeared after reload")
	}

	h, release, err = r.Acquire(uid)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer release()

	if h.Options.BlockSize != 8<<10 {
		t.Errorf("options not persisted: %+v", h.Options)
	}
	if value, err := h.Connector.Get([]byte("k")); err != nil || string(value) != "v" {
		t.Errorf("data not persisted: %q (%v)", value, err)
	}
}

func TestCorruptManifest(t *testing.T) {
	dir := t.TempDir()
	engine := pebbledb.NewEngineWithFS(vfs.NewMem())

	r, err := NewRegistry(dir, engine)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	mustAdd(t, r, "users")
	r.Close()

	path := filepath.Join(dir, manifestName)
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	tampered := strings.Replace(string(b), `"users"`, `"admins"`, 1)
	if err := os.WriteFile(path, []byte(tampered), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := NewRegistry(dir, engine); !errors.Is(err, ErrCorruptManifest) {
		t.Errorf("expected ErrCorruptManifest, got %v", err)
	}
}

func TestAddRejectsInvalidOptions(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	defer r.Close()

	opts := db.DefaultOptions()
	opts.WriteBufferSize = 1
	if _, err := r.Add("users", opts); !errors.Is(err, db.ErrInvalidOption) {
		t.Errorf("expected ErrInvalidOption, got %v", err)
	}
	if r.Exists("users") {
		t.Errorf("rejected database must not be registered")
	}
}

func TestAddCleansUpFailedOpen(t *testing.T) {
	dir := t.TempDir()
	fs := vfs.NewMem()
	r, err := NewRegistry(dir, pebbledb.NewEngineWithFS(fs))
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	defer r.Close()

	// the engine creates the directory before it notices the database is missing
	opts := db.DefaultOptions()
	opts.CreateIfMissing = false
	if _, err := r.Add("users", opts); err == nil {
		t.Fatalf("expected Add to fail")
	}
	if r.Exists("users") {
		t.Errorf("failed database must not be registered")
	}

	entries, err := fs.List(filepath.Join(dir, databasesDir))
	if err == nil && len(entries) != 0 {
		t.Errorf("expected no database directories, found %v", entries)
	}
}

func TestRepair(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	defer r.Close()

	uid := mustAdd(t, r, "users")

	h, release, _ := r.Acquire(uid)
	h.Connector.Put([]byte("k"), []byte("v"))
	release()

	if err := r.Repair(uid); err != nil {
		t.Fatalf("Repair failed: %v", err)
	}

	h, release, err := r.Acquire(uid)
	if err != nil {
		t.Fatalf("Acquire after repair failed: %v", err)
	}
	defer release()

	if value, err := h.Connector.Get([]byte("k")); err != nil || string(value) != "v" {
		t.Errorf("data lost after repair: %q (%v)", value, err)
	}

	if err := r.Repair("unknown"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClosed(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	uid := mustAdd(t, r, "users")

	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// the retired gate is gone, the closed check must still refuse the lease
	if _, _, err := r.Acquire(uid); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed for Acquire after close, got %v", err)
	}
	if _, err := r.Add("other", db.DefaultOptions()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := r.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed for second close, got %v", err)
	}
}
