// Package cache is the disk-backed scan memoization layer. An entry is valid
// only while the live file's mtime and size exactly match the values
// recorded at Put time; the cache is a pure optimization and never a source
// of truth, so a corrupt database is discarded rather than reported.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/ccsweep/ccsweep/internal/session"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS entries (
    path     TEXT PRIMARY KEY,
    mtime    INTEGER NOT NULL,
    size     INTEGER NOT NULL,
    analyzed INTEGER NOT NULL DEFAULT 0,
    summary  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT
);
`

// schemaVersion should be bumped whenever summary derivation changes. An
// older cache keeps its entries, but they are no longer trusted as analyzed.
const schemaVersion = "1"

// pruneEvery makes every Nth flush also prune entries whose backing file is
// gone, bounding growth from deleted source files.
const pruneEvery = 10

type entry struct {
	mtime    int64
	size     int64
	analyzed bool
	summary  string
}

// Cache stages updates in memory and persists them on explicit Flush.
type Cache struct {
	db   *sql.DB
	path string

	mu      sync.Mutex
	dirty   map[string]entry
	flushes int
}

// Open opens (or creates) the cache database. A database that cannot be
// initialized is deleted and recreated empty.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := open(path)
	if err != nil {
		// corrupt or unreadable: reset rather than propagate
		os.Remove(path)
		db, err = open(path)
		if err != nil {
			return nil, fmt.Errorf("recreate cache: %w", err)
		}
	}

	c := &Cache{db: db, path: path, dirty: make(map[string]entry)}
	c.migrateSchemaVersion()
	return c, nil
}

func open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (c *Cache) migrateSchemaVersion() {
	var ver string
	err := c.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err != nil || ver != schemaVersion {
		// soft migration: keep entries, stop trusting their deep fields
		c.db.Exec("UPDATE entries SET analyzed = 0")
		c.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	}
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached summary for path if the live file's mtime and size
// still match. Any mismatch, including the file having vanished, removes the
// entry as a side effect. With requireAnalyzed, fast-scan entries are
// treated as absent.
func (c *Cache) Get(path string, requireAnalyzed bool) (*session.Summary, bool) {
	e, ok := c.lookup(path)
	if !ok {
		return nil, false
	}

	info, err := os.Stat(path)
	if err != nil || info.ModTime().Unix() != e.mtime || info.Size() != e.size {
		c.Invalidate(path)
		return nil, false
	}
	if requireAnalyzed && !e.analyzed {
		return nil, false
	}

	var sum session.Summary
	if err := json.Unmarshal([]byte(e.summary), &sum); err != nil {
		c.Invalidate(path)
		return nil, false
	}
	return &sum, true
}

func (c *Cache) lookup(path string) (entry, bool) {
	c.mu.Lock()
	if e, ok := c.dirty[path]; ok {
		c.mu.Unlock()
		return e, true
	}
	c.mu.Unlock()

	var e entry
	var analyzed int
	err := c.db.QueryRow(
		"SELECT mtime, size, analyzed, summary FROM entries WHERE path = ?", path,
	).Scan(&e.mtime, &e.size, &analyzed, &e.summary)
	if err != nil {
		return entry{}, false
	}
	e.analyzed = analyzed != 0
	return e, true
}

// Put stages a summary keyed by the file identity observed at scan time.
func (c *Cache) Put(path string, mtime, size int64, sum *session.Summary) {
	data, err := json.Marshal(sum)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.dirty[path] = entry{mtime: mtime, size: size, analyzed: sum.Analyzed, summary: string(data)}
	c.mu.Unlock()
}

// Invalidate removes an entry from both the staged set and the database.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.dirty, path)
	c.mu.Unlock()
	c.db.Exec("DELETE FROM entries WHERE path = ?", path)
}

// Flush persists staged entries in one transaction. A flush with nothing
// staged is a no-op. Every pruneEvery-th flush also prunes dead entries.
func (c *Cache) Flush() error {
	c.mu.Lock()
	staged := c.dirty
	c.dirty = make(map[string]entry)
	c.flushes++
	doPrune := c.flushes%pruneEvery == 0
	c.mu.Unlock()

	if len(staged) > 0 {
		tx, err := c.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stmt, err := tx.Prepare(
			"INSERT OR REPLACE INTO entries (path, mtime, size, analyzed, summary) VALUES (?, ?, ?, ?, ?)",
		)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for path, e := range staged {
			analyzed := 0
			if e.analyzed {
				analyzed = 1
			}
			if _, err := stmt.Exec(path, e.mtime, e.size, analyzed, e.summary); err != nil {
				return err
			}
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}

	if doPrune {
		if _, err := c.Prune(); err != nil {
			return err
		}
	}
	return nil
}

// Prune removes entries whose backing file no longer exists and reports how
// many were removed.
func (c *Cache) Prune() (int, error) {
	rows, err := c.db.Query("SELECT path FROM entries")
	if err != nil {
		return 0, err
	}
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return 0, err
		}
		paths = append(paths, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	pruned := 0
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			if _, err := c.db.Exec("DELETE FROM entries WHERE path = ?", p); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}

// Clear drops every entry, staged and persisted.
func (c *Cache) Clear() error {
	c.mu.Lock()
	c.dirty = make(map[string]entry)
	c.mu.Unlock()
	_, err := c.db.Exec("DELETE FROM entries")
	return err
}

// Stats reports entry counts for the doctor/cache commands.
type Stats struct {
	Entries  int
	Analyzed int
	Staged   int
	SizeMB   float64
}

func (c *Cache) Stats() (Stats, error) {
	var s Stats
	if err := c.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&s.Entries); err != nil {
		return s, err
	}
	if err := c.db.QueryRow("SELECT COUNT(*) FROM entries WHERE analyzed = 1").Scan(&s.Analyzed); err != nil {
		return s, err
	}
	c.mu.Lock()
	s.Staged = len(c.dirty)
	c.mu.Unlock()
	if info, err := os.Stat(c.path); err == nil {
		s.SizeMB = float64(info.Size()) / 1024 / 1024
	}
	return s, nil
}
