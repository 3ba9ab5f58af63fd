package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccsweep/ccsweep/internal/config"
	"github.com/ccsweep/ccsweep/internal/render"
	"github.com/ccsweep/ccsweep/internal/scan"
	"github.com/ccsweep/ccsweep/internal/session"
	"github.com/ccsweep/ccsweep/internal/trash"
	"github.com/ccsweep/ccsweep/internal/tui"
)

func cleanCmd() *cobra.Command {
	var suggested, dryRun, yes bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Move disposable sessions to the trash",
		Long: `Runs a full scan, classifies every session, and moves tier-1
(auto-delete) sessions into the reversible trash. With --suggested, tier-2
sessions go too. Destructive operations always use a full scan so sizes and
counts are exact.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			sums, c, err := runScan(cfg, scan.Full)
			if err != nil {
				return err
			}
			defer c.Close()

			var targets []*session.Summary
			for _, s := range sums {
				if s.Tier == session.TierAutoDelete || (suggested && s.Tier == session.TierSuggested) {
					targets = append(targets, s)
				}
			}
			if len(targets) == 0 {
				fmt.Println("Nothing to clean.")
				return nil
			}

			width := termWidth()
			fmt.Print(render.Table(targets, width))

			if dryRun {
				fmt.Printf("Dry run: %d sessions would be trashed.\n", len(targets))
				return nil
			}
			if !yes && !confirm(fmt.Sprintf("Trash %d sessions?", len(targets))) {
				fmt.Println("Aborted.")
				return nil
			}

			journal, err := trash.Open(cfg.ClaudeRoot, cfg.TrashDir)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  WARN: %v\n", err)
			}

			trashed := 0
			for _, s := range targets {
				if _, err := journal.Trash(s, strings.Join(s.Reasons, "; ")); err != nil {
					fmt.Fprintf(os.Stderr, "  WARN: %v\n", err)
					continue
				}
				c.Invalidate(s.Path)
				trashed++
			}
			fmt.Printf("Trashed %d sessions. Restore with 'ccsweep restore <id>'.\n", trashed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&suggested, "suggested", false, "Also trash tier-2 (suggested) sessions")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be trashed without moving anything")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}

func reviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Interactively review and trash disposable sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			sums, c, err := runScan(cfg, scan.Full)
			if err != nil {
				return err
			}
			defer c.Close()

			var candidates []*session.Summary
			for _, s := range sums {
				if s.Tier != session.TierKeep {
					candidates = append(candidates, s)
				}
			}

			journal, err := trash.Open(cfg.ClaudeRoot, cfg.TrashDir)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  WARN: %v\n", err)
			}

			trashed, err := tui.Run(journal, candidates)
			if err != nil {
				return err
			}
			for _, s := range candidates {
				if _, err := os.Stat(s.Path); os.IsNotExist(err) {
					c.Invalidate(s.Path)
				}
			}
			fmt.Printf("Trashed %d sessions.\n", trashed)
			return nil
		},
	}
}
