package scan

import (
	"path/filepath"
	"testing"

	"github.com/ccsweep/ccsweep/internal/cache"
)

func TestRunSortsAndCaches(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "old.jsonl",
		userLine("2025-01-01T10:00:00Z", "old session"),
	)
	writeSession(t, root, "new.jsonl",
		userLine("2025-06-01T10:00:00Z", "new session"),
	)
	writeSession(t, root, "undated.jsonl",
		`{"type":"user","message":{"role":"user","content":"no timestamp"}}`,
	)

	c, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer c.Close()

	res, err := Run(root, c, Options{Mode: Fast})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(res.Summaries) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(res.Summaries))
	}
	if res.Summaries[0].ID != "new" || res.Summaries[1].ID != "old" {
		t.Fatalf("expected newest first, got %s then %s", res.Summaries[0].ID, res.Summaries[1].ID)
	}
	if res.Summaries[2].ID != "undated" {
		t.Fatalf("expected missing timestamps last, got %s", res.Summaries[2].ID)
	}
	if res.Stats.Scanned != 3 || res.Stats.Cached != 0 {
		t.Fatalf("unexpected stats: %s", res.Stats)
	}

	// second run should be served from the cache
	res, err = Run(root, c, Options{Mode: Fast})
	if err != nil {
		t.Fatalf("second Run returned error: %v", err)
	}
	if res.Stats.Cached != 3 || res.Stats.Scanned != 0 {
		t.Fatalf("expected cache hits, got %s", res.Stats)
	}
}

func TestRunFullUpgradesFastEntries(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "s.jsonl",
		userLine("2025-06-01T10:00:00Z", "hello"),
		assistantLine("2025-06-01T10:00:05Z", "hi"),
	)

	c, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer c.Close()

	if _, err := Run(root, c, Options{Mode: Fast}); err != nil {
		t.Fatalf("fast Run: %v", err)
	}

	// a fast entry must not satisfy a full scan
	res, err := Run(root, c, Options{Mode: Full})
	if err != nil {
		t.Fatalf("full Run: %v", err)
	}
	if res.Stats.Scanned != 1 || res.Stats.Cached != 0 {
		t.Fatalf("fast entry should not satisfy full scan: %s", res.Stats)
	}
	if !res.Summaries[0].Analyzed {
		t.Fatalf("full scan should produce an analyzed summary")
	}

	// now the analyzed entry satisfies both modes
	res, err = Run(root, c, Options{Mode: Full})
	if err != nil {
		t.Fatalf("third Run: %v", err)
	}
	if res.Stats.Cached != 1 {
		t.Fatalf("analyzed entry should be reused: %s", res.Stats)
	}
}
