package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccsweep/ccsweep/internal/config"
	"github.com/ccsweep/ccsweep/internal/render"
	"github.com/ccsweep/ccsweep/internal/trash"
)

func openJournal() (*trash.Journal, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	journal, err := trash.Open(cfg.ClaudeRoot, cfg.TrashDir)
	if err != nil {
		// corrupt journals load empty; keep going but tell the user
		fmt.Fprintf(os.Stderr, "  WARN: %v\n", err)
	}
	return journal, nil
}

func trashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trash",
		Short: "Inspect and empty the trash",
	}
	cmd.AddCommand(trashListCmd())
	cmd.AddCommand(trashEmptyCmd())
	return cmd
}

func trashListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List trashed sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			journal, err := openJournal()
			if err != nil {
				return err
			}

			items := journal.List()
			if len(items) == 0 {
				fmt.Println("Trash is empty.")
				return nil
			}

			for _, it := range items {
				title := it.Title
				if title == "" {
					title = "-"
				}
				fmt.Printf("%-38s %s %7s %-20s %s\n",
					it.ID,
					it.TrashedAt.Format("2006-01-02"),
					render.HumanSize(it.Size),
					it.Reason,
					title,
				)
			}
			return nil
		},
	}
}

func trashEmptyCmd() *cobra.Command {
	var olderThan int
	var yes bool

	cmd := &cobra.Command{
		Use:   "empty",
		Short: "Permanently delete trashed sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			journal, err := openJournal()
			if err != nil {
				return err
			}

			if !yes {
				what := "ALL trashed sessions"
				if olderThan > 0 {
					what = fmt.Sprintf("trashed sessions older than %d days", olderThan)
				}
				if !confirm(fmt.Sprintf("Permanently delete %s?", what)) {
					fmt.Println("Aborted.")
					return nil
				}
			}

			removed, remaining, err := journal.EmptyOlderThan(olderThan)
			if err != nil {
				return err
			}
			fmt.Printf("Purged %d, %d remaining.\n", removed, remaining)
			return nil
		},
	}

	cmd.Flags().IntVar(&olderThan, "older-than", 0, "Only purge items trashed more than N days ago (0 = everything)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Move a trashed session back to its original location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			journal, err := openJournal()
			if err != nil {
				return err
			}
			path, err := journal.Restore(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Restored to %s\n", path)
			return nil
		},
	}
}

func purgeCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge <id>",
		Short: "Permanently delete one trashed session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			journal, err := openJournal()
			if err != nil {
				return err
			}
			if !yes && !confirm(fmt.Sprintf("Permanently delete %s?", args[0])) {
				fmt.Println("Aborted.")
				return nil
			}
			if err := journal.Purge(args[0]); err != nil {
				return err
			}
			fmt.Println("Purged.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
