package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pakd/pkg/backend"
)

func setupTestStore(t *testing.T, maxEntries int) (*Store, func()) {
	t.Helper()

	tmpDir := t.TempDir()

	// Override the history path
	originalXDG := os.Getenv("XDG_DATA_HOME")
	os.Setenv("XDG_DATA_HOME", tmpDir)

	store, err := Open(maxEntries)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.Setenv("XDG_DATA_HOME", originalXDG)
	}

	return store, cleanup
}

func record(t *testing.T, store *Store, id string, role backend.Role) *Entry {
	t.Helper()
	entry := NewEntry(id, role, "sample")
	entry.MarkSuccess()
	if err := store.Record(entry); err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	return entry
}

func TestOpen(t *testing.T) {
	store, cleanup := setupTestStore(t, 0)
	defer cleanup()

	if store == nil {
		t.Fatal("Open() returned nil")
	}
}

func TestOpenAtCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "history.db")
	store, err := OpenAt(path, 10)
	if err != nil {
		t.Fatalf("OpenAt() error: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestRecord(t *testing.T) {
	store, cleanup := setupTestStore(t, 0)
	defer cleanup()

	record(t, store, "/1_aaaaaaaa", backend.RoleInstallPackages)

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}
}

func TestList(t *testing.T) {
	store, cleanup := setupTestStore(t, 0)
	defer cleanup()

	for i := 0; i < 5; i++ {
		record(t, store, fmt.Sprintf("/%d_aaaaaaaa", i+1), backend.RoleResolve)
	}

	entries, err := store.List(0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 5 {
		t.Errorf("expected 5 entries, got %d", len(entries))
	}

	limitedEntries, err := store.List(3)
	if err != nil {
		t.Fatalf("List(3) error: %v", err)
	}
	if len(limitedEntries) != 3 {
		t.Errorf("expected 3 entries with limit, got %d", len(limitedEntries))
	}

	// Newest first, by insertion order
	if entries[0].ID != "/5_aaaaaaaa" || entries[4].ID != "/1_aaaaaaaa" {
		t.Errorf("List() order wrong: first %s, last %s", entries[0].ID, entries[4].ID)
	}
}

func TestRecordEvictsOldest(t *testing.T) {
	store, cleanup := setupTestStore(t, 3)
	defer cleanup()

	for i := 0; i < 5; i++ {
		record(t, store, fmt.Sprintf("/%d_bbbbbbbb", i+1), backend.RoleSearchName)
	}

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 entries after eviction, got %d", count)
	}

	if _, err := store.Get("/1_bbbbbbbb"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected evicted entry to be gone, got %v", err)
	}
	if _, err := store.Get("/5_bbbbbbbb"); err != nil {
		t.Errorf("newest entry missing: %v", err)
	}
}

func TestGet(t *testing.T) {
	store, cleanup := setupTestStore(t, 0)
	defer cleanup()

	entry := NewEntry("/7_cafebabe", backend.RoleRemovePackages, "sample")
	entry.Data = "powertop;1.7-1;i386;installed"
	entry.MarkFailed(backend.ExitFailed, errors.New("package-not-installed: powertop"))
	if err := store.Record(entry); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	retrieved, err := store.Get(entry.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	if retrieved.ID != entry.ID {
		t.Errorf("Get() returned wrong entry: %s != %s", retrieved.ID, entry.ID)
	}
	if retrieved.Succeeded || retrieved.Exit != backend.ExitFailed {
		t.Errorf("Get() lost failure state: %+v", retrieved)
	}

	_, err = store.Get("nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() should return ErrNotFound, got %v", err)
	}
}

func TestLast(t *testing.T) {
	store, cleanup := setupTestStore(t, 0)
	defer cleanup()

	// Empty store returns nil entry without error
	entry, err := store.Last()
	if err != nil {
		t.Fatalf("Last() error on empty store: %v", err)
	}
	if entry != nil {
		t.Error("Last() should return nil for empty store")
	}

	record(t, store, "/1_dddddddd", backend.RoleInstallPackages)
	entry2 := record(t, store, "/2_dddddddd", backend.RoleRemovePackages)

	last, err := store.Last()
	if err != nil {
		t.Fatalf("Last() error: %v", err)
	}

	if last.ID != entry2.ID {
		t.Errorf("Last() returned wrong entry: %s != %s", last.ID, entry2.ID)
	}
}

func TestClear(t *testing.T) {
	store, cleanup := setupTestStore(t, 0)
	defer cleanup()

	for i := 0; i < 3; i++ {
		record(t, store, fmt.Sprintf("/%d_eeeeeeee", i+1), backend.RoleGetUpdates)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected count 0 after Clear(), got %d", count)
	}
	if _, err := store.Get("/1_eeeeeeee"); !errors.Is(err, ErrNotFound) {
		t.Errorf("index not cleared: %v", err)
	}
}

func TestPrune(t *testing.T) {
	store, cleanup := setupTestStore(t, 0)
	defer cleanup()

	oldEntry := &Entry{
		ID:        "/1_ffffffff",
		Timestamp: time.Now().Add(-48 * time.Hour), // 2 days ago
		Role:      backend.RoleInstallPackages,
		Succeeded: true,
		Exit:      backend.ExitSuccess,
	}
	if err := store.Record(oldEntry); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	record(t, store, "/2_ffffffff", backend.RoleInstallPackages)

	deleted, err := store.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("Prune() error: %v", err)
	}

	if deleted != 1 {
		t.Errorf("expected 1 deleted entry, got %d", deleted)
	}

	count, _ := store.Count()
	if count != 1 {
		t.Errorf("expected 1 entry after prune, got %d", count)
	}
}

func TestClose(t *testing.T) {
	store, cleanup := setupTestStore(t, 0)
	defer cleanup()

	if err := store.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}
