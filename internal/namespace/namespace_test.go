package namespace

import (
	"testing"

	pebblestore "github.com/osamaakb/tempo/internal/storage/pebble"
)

func TestEnsureNamespaceIdempotent(t *testing.T) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	a, err := EnsureNamespace(db, "orders")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if a.Name != "orders" || a.CreatedAtMs == 0 {
		t.Fatalf("meta: %+v", a)
	}
	if a.PayloadMaxBytes != 1<<20 {
		t.Fatalf("defaults not applied: %+v", a)
	}

	b, err := EnsureNamespace(db, "orders")
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if b.CreatedAtMs != a.CreatedAtMs {
		t.Fatalf("second ensure rewrote meta: %+v vs %+v", a, b)
	}
}

func TestExists(t *testing.T) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if Exists(db, "orders") {
		t.Fatalf("exists before ensure")
	}
	if _, err := EnsureNamespace(db, "orders"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !Exists(db, "orders") {
		t.Fatalf("missing after ensure")
	}
}

func TestEnsureWithDefaults(t *testing.T) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	base := Defaults()
	base.DefaultDelayMs = 5000
	base.MaxParked = 10
	m, err := EnsureNamespaceWithDefaults(db, "orders", base)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if m.DefaultDelayMs != 5000 || m.MaxParked != 10 {
		t.Fatalf("base not applied: %+v", m)
	}
}
