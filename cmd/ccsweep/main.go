package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "ccsweep",
		Short:   "Inventory, classify, and safely discard Claude Code conversation logs",
		Version: version,
	}

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(cleanCmd())
	rootCmd.AddCommand(reviewCmd())
	rootCmd.AddCommand(trashCmd())
	rootCmd.AddCommand(restoreCmd())
	rootCmd.AddCommand(purgeCmd())
	rootCmd.AddCommand(overrideCmd())
	rootCmd.AddCommand(cacheCmd())
	rootCmd.AddCommand(doctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
