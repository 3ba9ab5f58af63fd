package scan

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gobwas/glob"

	"github.com/ccsweep/ccsweep/internal/analyze"
	"github.com/ccsweep/ccsweep/internal/cache"
	"github.com/ccsweep/ccsweep/internal/session"
)

// DefaultBatchSize bounds how many files are summarized concurrently, to
// avoid descriptor exhaustion on large roots.
const DefaultBatchSize = 50

// Options configures a batch scan.
type Options struct {
	Mode      Mode
	Excludes  []glob.Glob
	BatchSize int
}

// Stats counts what a batch scan did.
type Stats struct {
	Files   int
	Scanned int
	Cached  int
	Errors  int
}

func (s Stats) String() string {
	return fmt.Sprintf("files=%d scanned=%d cached=%d errors=%d",
		s.Files, s.Scanned, s.Cached, s.Errors)
}

// Result is the outcome of a batch scan. Unreadable files are omitted from
// Summaries and recorded as Warnings.
type Result struct {
	Summaries []*session.Summary
	Warnings  []error
	Stats     Stats
}

// Run enumerates and summarizes every session file under root, honoring the
// cache. Full mode runs the deep pass and requires analyzed cache entries;
// Fast mode accepts any valid entry. Summaries are sorted by last activity,
// newest first, with missing timestamps last. The cache is flushed once at
// the end.
func Run(root string, c *cache.Cache, opts Options) (Result, error) {
	var res Result

	files, err := Files(root, opts.Excludes)
	if err != nil {
		return res, fmt.Errorf("scan %s: %w", root, err)
	}
	res.Stats.Files = len(files)

	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	requireAnalyzed := opts.Mode == Full

	type outcome struct {
		sum    *session.Summary
		cached bool
		err    error
		path   string
	}
	outcomes := make([]outcome, len(files))

	var wg sync.WaitGroup
	sem := make(chan struct{}, batch)
	for i, fi := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, fi FileInfo) {
			defer wg.Done()
			defer func() { <-sem }()

			if c != nil {
				if sum, ok := c.Get(fi.Path, requireAnalyzed); ok {
					outcomes[i] = outcome{sum: sum, cached: true}
					return
				}
			}

			sum, recs, err := Summarize(fi.Path, opts.Mode)
			if err != nil {
				outcomes[i] = outcome{err: err, path: fi.Path}
				return
			}
			if opts.Mode == Full {
				analyze.Apply(sum, recs)
			}
			if c != nil {
				c.Put(fi.Path, fi.Mtime, fi.Size, sum)
			}
			outcomes[i] = outcome{sum: sum}
		}(i, fi)
	}
	wg.Wait()

	for _, o := range outcomes {
		switch {
		case o.err != nil:
			res.Stats.Errors++
			res.Warnings = append(res.Warnings, fmt.Errorf("summarize %s: %w", o.path, o.err))
		case o.cached:
			res.Stats.Cached++
			res.Summaries = append(res.Summaries, o.sum)
		case o.sum != nil:
			res.Stats.Scanned++
			res.Summaries = append(res.Summaries, o.sum)
		}
	}

	sort.SliceStable(res.Summaries, func(i, k int) bool {
		a, b := res.Summaries[i].LastAt, res.Summaries[k].LastAt
		if a.IsZero() != b.IsZero() {
			return !a.IsZero() // missing timestamps sort last
		}
		return a.After(b)
	})

	if c != nil {
		if err := c.Flush(); err != nil {
			res.Warnings = append(res.Warnings, fmt.Errorf("flush cache: %w", err))
		}
	}
	return res, nil
}
