package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccsweep/ccsweep/internal/cache"
	"github.com/ccsweep/ccsweep/internal/config"
	"github.com/ccsweep/ccsweep/internal/scan"
	"github.com/ccsweep/ccsweep/internal/trash"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify root, cache, trash, and show counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			fmt.Println("=== Root ===")
			checkDir("Claude", cfg.ClaudeRoot)

			fmt.Println("\n=== File Scan ===")
			files, err := scan.Files(cfg.ClaudeRoot, scan.CompileExcludes(cfg.Exclude))
			if err != nil {
				fmt.Printf("  scan error: %v\n", err)
			} else {
				var bytes int64
				for _, f := range files {
					bytes += f.Size
				}
				fmt.Printf("  Session files: %d (%.1f MB)\n", len(files), float64(bytes)/1024/1024)
			}

			fmt.Println("\n=== Cache ===")
			fmt.Printf("  Path: %s\n", cfg.CachePath)
			if _, err := os.Stat(cfg.CachePath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'ccsweep scan' first)")
			} else {
				c, err := cache.Open(cfg.CachePath)
				if err != nil {
					fmt.Printf("  open error: %v\n", err)
				} else {
					defer c.Close()
					if s, err := c.Stats(); err == nil {
						fmt.Printf("  Entries:  %d (%d analyzed)\n", s.Entries, s.Analyzed)
						fmt.Printf("  Size:     %.1f MB\n", s.SizeMB)
					}
				}
			}

			fmt.Println("\n=== Trash ===")
			fmt.Printf("  Dir: %s\n", cfg.TrashDir)
			journal, err := trash.Open(cfg.ClaudeRoot, cfg.TrashDir)
			if err != nil {
				fmt.Printf("  journal warning: %v\n", err)
			}
			items := journal.List()
			var trashBytes int64
			for _, it := range items {
				trashBytes += it.Size
			}
			fmt.Printf("  Items: %d (%.1f MB)\n", len(items), float64(trashBytes)/1024/1024)

			return nil
		},
	}
}

func checkDir(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}
