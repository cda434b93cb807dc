package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "state.db"))
	if err != nil {
		if strings.Contains(err.Error(), "CGO_ENABLED") {
			t.Skip("go-sqlite3 needs cgo")
		}
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSessionStoreRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := db.SessionStore("alpha")

	if _, found, err := store.Get(ctx, "k"); err != nil || found {
		t.Fatalf("Get() on empty store = found %v, err %v", found, err)
	}
	if err := store.Set(ctx, "k", "one"); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "k", "two"); err != nil {
		t.Fatal(err)
	}
	value, found, err := store.Get(ctx, "k")
	if err != nil || !found || value != "two" {
		t.Fatalf("Get() = %q, %v, %v", value, found, err)
	}

	if err := store.Remove(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if err := store.Remove(ctx, "k"); err != nil {
		t.Fatalf("second Remove() error = %v", err)
	}
	if _, found, _ := store.Get(ctx, "k"); found {
		t.Fatal("value survived Remove()")
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	db.SessionStore("a").Set(ctx, "k", "from a")
	db.SessionStore("b").Set(ctx, "k", "from b")

	value, _, _ := db.SessionStore("a").Get(ctx, "k")
	if value != "from a" {
		t.Fatalf("session a sees %q", value)
	}

	ids, err := db.Sessions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("Sessions() = %v", ids)
	}
}
