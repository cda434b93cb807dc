package sessionstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bryanwahyu/lawagent/internal/domain/session"
)

func exerciseStore(t *testing.T, store session.Store) {
	t.Helper()
	ctx := context.Background()
	const key = "lawagent:issue-spotter:followup-state"

	if _, found, err := store.Get(ctx, key); err != nil || found {
		t.Fatalf("Get() on empty store: found=%v err=%v", found, err)
	}
	if err := store.Set(ctx, key, `{"a":1}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(ctx, key, `{"a":2}`); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	value, found, err := store.Get(ctx, key)
	if err != nil || !found || value != `{"a":2}` {
		t.Fatalf("Get() = %q found=%v err=%v", value, found, err)
	}
	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("Remove() missing key error = %v", err)
	}
	if _, found, _ := store.Get(ctx, key); found {
		t.Fatal("value survived Remove()")
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFile(t *testing.T) {
	store, err := NewFile(t.TempDir(), "abc")
	if err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, store)
}

func TestFileRejectsBadSessionID(t *testing.T) {
	for _, id := range []string{"", "../etc", "a/b", "has space"} {
		if _, err := NewFile(t.TempDir(), id); err == nil {
			t.Errorf("NewFile(%q) succeeded", id)
		}
	}
}

func TestFileLeavesNoTempFile(t *testing.T) {
	base := t.TempDir()
	store, _ := NewFile(base, "abc")
	if err := store.Set(context.Background(), "k", "v"); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(filepath.Join(base, "abc"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "k.json" {
		t.Fatalf("entries = %v", entries)
	}
}

func TestListSessions(t *testing.T) {
	base := t.TempDir()
	if ids, err := ListSessions(filepath.Join(base, "missing")); err != nil || len(ids) != 0 {
		t.Fatalf("missing dir: %v %v", ids, err)
	}
	for _, id := range []string{"one", "two"} {
		store, _ := NewFile(base, id)
		store.Set(context.Background(), "k", "v")
	}
	ids, err := ListSessions(base)
	if err != nil || len(ids) != 2 {
		t.Fatalf("ListSessions() = %v, %v", ids, err)
	}
}
