package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ccsweep/ccsweep/internal/cache"
	"github.com/ccsweep/ccsweep/internal/classify"
	"github.com/ccsweep/ccsweep/internal/config"
	"github.com/ccsweep/ccsweep/internal/render"
	"github.com/ccsweep/ccsweep/internal/scan"
	"github.com/ccsweep/ccsweep/internal/session"
)

// runScan is the shared scan+classify pipeline behind scan/clean/review.
func runScan(cfg *config.Config, mode scan.Mode) ([]*session.Summary, *cache.Cache, error) {
	c, err := cache.Open(cfg.CachePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}

	res, err := scan.Run(cfg.ClaudeRoot, c, scan.Options{
		Mode:      mode,
		Excludes:  scan.CompileExcludes(cfg.Exclude),
		BatchSize: cfg.BatchSize,
	})
	if err != nil {
		c.Close()
		return nil, nil, err
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "  WARN: %v\n", w)
	}
	fmt.Fprintf(os.Stderr, "Scanned %s. %s\n", cfg.ClaudeRoot, res.Stats)

	overrides, err := classify.LoadOverrides(cfg.OverridesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  WARN: %v\n", err)
	}
	classify.All(res.Summaries, overrides)

	return res.Summaries, c, nil
}

func termWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		return w
	}
	return 0
}

func scanCmd() *cobra.Command {
	var full, asJSON bool
	var tierFilter int

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan and classify all session logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			mode := scan.Fast
			if full {
				mode = scan.Full
			}

			sums, c, err := runScan(cfg, mode)
			if err != nil {
				return err
			}
			defer c.Close()

			if tierFilter > 0 {
				var filtered []*session.Summary
				for _, s := range sums {
					if int(s.Tier) == tierFilter {
						filtered = append(filtered, s)
					}
				}
				sums = filtered
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(sums)
			}

			width := 0
			if term.IsTerminal(int(os.Stdout.Fd())) {
				width = termWidth()
			}
			fmt.Print(render.Table(sums, width))
			fmt.Println(render.TierCounts(sums))
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Read every line and run the deep analysis pass")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit summaries as JSON")
	cmd.Flags().IntVar(&tierFilter, "tier", 0, "Only show sessions in this tier (1-4)")

	return cmd
}
