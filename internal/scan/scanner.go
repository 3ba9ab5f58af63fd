package scan

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// FileInfo identifies one candidate session file.
type FileInfo struct {
	Path  string
	Mtime int64
	Size  int64
}

// Files enumerates session log files under root. Subagent directories,
// index files and any path matching an exclude glob are skipped.
func Files(root string, excludes []glob.Glob) ([]FileInfo, error) {
	var files []FileInfo
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable dirs
		}
		if info.IsDir() {
			if filepath.Base(path) == "subagents" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".jsonl" {
			return nil
		}
		if strings.Contains(filepath.Base(path), "sessions-index") {
			return nil
		}
		for _, g := range excludes {
			if g.Match(path) {
				return nil
			}
		}
		files = append(files, FileInfo{
			Path:  path,
			Mtime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return files, nil
}

// CompileExcludes compiles config exclude patterns, dropping invalid ones.
func CompileExcludes(patterns []string) []glob.Glob {
	var gs []glob.Glob
	for _, p := range patterns {
		if g, err := glob.Compile(p, '/'); err == nil {
			gs = append(gs, g)
		}
	}
	return gs
}
