package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ccsweep/ccsweep/internal/classify"
	"github.com/ccsweep/ccsweep/internal/config"
	"github.com/ccsweep/ccsweep/internal/session"
)

func overrideCmd() *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "override <id> [tier]",
		Short: "Pin a session to a tier, overriding the rule engine",
		Long: `Writes a per-session tier override to the overrides sidecar. An
overridden session keeps its pinned tier on every later scan; the rule
engine's verdict stays visible as the auto tier. Tiers: 1 auto-delete,
2 suggested, 3 review, 4 keep.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			overrides, err := classify.LoadOverrides(cfg.OverridesPath)
			if err != nil {
				return err
			}
			if overrides == nil {
				overrides = make(map[string]session.Tier)
			}

			id := args[0]
			if clear {
				if _, ok := overrides[id]; !ok {
					fmt.Printf("No override for %s.\n", id)
					return nil
				}
				delete(overrides, id)
				if err := classify.SaveOverrides(cfg.OverridesPath, overrides); err != nil {
					return err
				}
				fmt.Printf("Cleared override for %s.\n", id)
				return nil
			}

			if len(args) != 2 {
				return fmt.Errorf("a tier (1-4) is required unless --clear is given")
			}
			n, err := strconv.Atoi(args[1])
			if err != nil || n < int(session.TierAutoDelete) || n > int(session.TierKeep) {
				return fmt.Errorf("tier must be a number from 1 to 4, got %q", args[1])
			}

			tier := session.Tier(n)
			overrides[id] = tier
			if err := classify.SaveOverrides(cfg.OverridesPath, overrides); err != nil {
				return err
			}
			fmt.Printf("Pinned %s to %s.\n", id, tier.Label())
			return nil
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "Remove the override instead of setting one")
	return cmd
}
