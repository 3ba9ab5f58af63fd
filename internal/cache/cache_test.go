package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ccsweep/ccsweep/internal/session"
)

func newCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func writeFile(t *testing.T, dir, name, content string) (string, int64, int64) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	return path, info.ModTime().Unix(), info.Size()
}

func TestPutGetRoundTrip(t *testing.T) {
	c := newCache(t)
	dir := t.TempDir()
	path, mtime, size := writeFile(t, dir, "s.jsonl", "content")

	c.Put(path, mtime, size, &session.Summary{ID: "s", Path: path, Title: "hello"})

	// staged entries are visible before flush
	got, ok := c.Get(path, false)
	if !ok {
		t.Fatalf("expected staged hit")
	}
	if got.Title != "hello" {
		t.Fatalf("unexpected summary: %+v", got)
	}

	if err := c.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	got, ok = c.Get(path, false)
	if !ok || got.ID != "s" {
		t.Fatalf("expected persisted hit, got ok=%v sum=%+v", ok, got)
	}
}

func TestGetInvalidatesOnSizeChange(t *testing.T) {
	c := newCache(t)
	dir := t.TempDir()
	path, mtime, size := writeFile(t, dir, "s.jsonl", "content")

	c.Put(path, mtime, size, &session.Summary{ID: "s"})
	if err := c.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if err := os.WriteFile(path, []byte("content grew considerably"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if _, ok := c.Get(path, false); ok {
		t.Fatalf("expected size mismatch to invalidate")
	}
	// the entry is removed as a side effect, not just skipped
	s, err := c.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if s.Entries != 0 {
		t.Fatalf("expected entry removal, got %d entries", s.Entries)
	}
}

func TestGetInvalidatesOnMtimeChange(t *testing.T) {
	c := newCache(t)
	dir := t.TempDir()
	path, mtime, size := writeFile(t, dir, "s.jsonl", "content")

	c.Put(path, mtime, size, &session.Summary{ID: "s"})
	old := time.Unix(mtime-3600, 0)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if _, ok := c.Get(path, false); ok {
		t.Fatalf("expected mtime mismatch to invalidate")
	}
}

func TestGetInvalidatesOnMissingFile(t *testing.T) {
	c := newCache(t)
	dir := t.TempDir()
	path, mtime, size := writeFile(t, dir, "s.jsonl", "content")

	c.Put(path, mtime, size, &session.Summary{ID: "s"})
	os.Remove(path)
	if _, ok := c.Get(path, false); ok {
		t.Fatalf("expected vanished file to invalidate")
	}
}

func TestRequireAnalyzed(t *testing.T) {
	c := newCache(t)
	dir := t.TempDir()
	path, mtime, size := writeFile(t, dir, "s.jsonl", "content")

	c.Put(path, mtime, size, &session.Summary{ID: "s", Analyzed: false})
	if _, ok := c.Get(path, true); ok {
		t.Fatalf("fast entry must be absent under requireAnalyzed")
	}
	if _, ok := c.Get(path, false); !ok {
		t.Fatalf("fast entry must still satisfy a fast get")
	}

	c.Put(path, mtime, size, &session.Summary{ID: "s", Analyzed: true})
	if _, ok := c.Get(path, true); !ok {
		t.Fatalf("analyzed entry must satisfy requireAnalyzed")
	}
}

func TestPrune(t *testing.T) {
	c := newCache(t)
	dir := t.TempDir()
	keep, mtime, size := writeFile(t, dir, "keep.jsonl", "content")
	gone, gmtime, gsize := writeFile(t, dir, "gone.jsonl", "content")

	c.Put(keep, mtime, size, &session.Summary{ID: "keep"})
	c.Put(gone, gmtime, gsize, &session.Summary{ID: "gone"})
	if err := c.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	os.Remove(gone)
	n, err := c.Prune()
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 pruned entry, got %d", n)
	}
	if _, ok := c.Get(keep, false); !ok {
		t.Fatalf("live entry must survive pruning")
	}
}

func TestClear(t *testing.T) {
	c := newCache(t)
	dir := t.TempDir()
	path, mtime, size := writeFile(t, dir, "s.jsonl", "content")

	c.Put(path, mtime, size, &session.Summary{ID: "s"})
	if err := c.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := c.Get(path, false); ok {
		t.Fatalf("expected empty cache after clear")
	}
}

func TestCorruptDatabaseResets(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cache.db")
	if err := os.WriteFile(dbPath, []byte("this is not a database"), 0o644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	c, err := Open(dbPath)
	if err != nil {
		t.Fatalf("corrupt cache must reset, not fail: %v", err)
	}
	defer c.Close()

	s, err := c.Stats()
	if err != nil {
		t.Fatalf("stats on reset cache: %v", err)
	}
	if s.Entries != 0 {
		t.Fatalf("expected empty cache, got %d entries", s.Entries)
	}

	// and it must be usable
	path, mtime, size := writeFile(t, dir, "s.jsonl", "content")
	c.Put(path, mtime, size, &session.Summary{ID: "s"})
	if err := c.Flush(); err != nil {
		t.Fatalf("flush after reset: %v", err)
	}
	if _, ok := c.Get(path, false); !ok {
		t.Fatalf("reset cache should accept new entries")
	}
}

func TestFlushIsNoOpWhenClean(t *testing.T) {
	c := newCache(t)
	if err := c.Flush(); err != nil {
		t.Fatalf("empty flush: %v", err)
	}
	if err := c.Flush(); err != nil {
		t.Fatalf("repeated empty flush: %v", err)
	}
}
