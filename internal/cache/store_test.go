package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStoreSaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "head_tag_js_prototype/prototype.js", "prototype/prototype.1a2b3c4d.js", []string{"block_html"}); err != nil {
		t.Fatalf("save error: %v", err)
	}

	value, err := store.Load(ctx, "head_tag_js_prototype/prototype.js")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if value != "prototype/prototype.1a2b3c4d.js" {
		t.Fatalf("cached value mismatch: %s", value)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Load(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreCleanByTag(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustSave(t, store, "a", "1", "block_html")
	mustSave(t, store, "b", "2", "other")

	if err := store.Clean(ctx, "block_html"); err != nil {
		t.Fatalf("clean error: %v", err)
	}
	if _, err := store.Load(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("tagged entry should be removed, got %v", err)
	}
	if value, err := store.Load(ctx, "b"); err != nil || value != "2" {
		t.Fatalf("untagged entry should survive, got %q %v", value, err)
	}
}

func TestStoreCleanAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustSave(t, store, "a", "1", "block_html")
	mustSave(t, store, "b", "2")

	if err := store.Clean(ctx); err != nil {
		t.Fatalf("clean error: %v", err)
	}
	for _, key := range []string{"a", "b"} {
		if _, err := store.Load(ctx, key); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected %s removed, got %v", key, err)
		}
	}
	mustSave(t, store, "c", "3", "block_html")
}

func TestStoreRejectsInvalidTag(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save(context.Background(), "a", "1", []string{"../escape"}); err == nil {
		t.Fatalf("expected invalid tag error")
	}
}

func TestStoreHashesKeysIntoEntries(t *testing.T) {
	store := newTestStore(t)

	fs, ok := store.(*fileStore)
	if !ok {
		t.Fatalf("unexpected store type %T", store)
	}

	filePath, err := fs.entryPath("../../etc/passwd")
	if err != nil {
		t.Fatalf("path error: %v", err)
	}
	rel, err := filepath.Rel(fs.basePath, filePath)
	if err != nil || filepath.Dir(filepath.Dir(rel)) != entriesDir {
		t.Fatalf("entry path escaped entries dir: %s", filePath)
	}

	if _, err := fs.entryPath("  "); err == nil {
		t.Fatalf("blank key should be rejected")
	}
}

func TestStoreIgnoresDirectories(t *testing.T) {
	store := newTestStore(t)
	fs := store.(*fileStore)

	filePath, err := fs.entryPath("dir-key")
	if err != nil {
		t.Fatalf("path error: %v", err)
	}
	if err := os.MkdirAll(filePath, 0o755); err != nil {
		t.Fatalf("mkdir error: %v", err)
	}
	if _, err := store.Load(context.Background(), "dir-key"); err == nil {
		t.Fatalf("expected error for directory entry")
	}
}

// newTestStore returns a Store backed by a temporary directory.
func newTestStore(t *testing.T) Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func mustSave(t *testing.T, store Store, key, value string, tags ...string) {
	t.Helper()
	if err := store.Save(context.Background(), key, value, tags); err != nil {
		t.Fatalf("save %s: %v", key, err)
	}
}
