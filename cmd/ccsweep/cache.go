package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccsweep/ccsweep/internal/cache"
	"github.com/ccsweep/ccsweep/internal/config"
)

func withCache(fn func(c *cache.Cache) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c, err := cache.Open(cfg.CachePath)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer c.Close()
	return fn(c)
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Scan cache maintenance",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts and size",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(func(c *cache.Cache) error {
				s, err := c.Stats()
				if err != nil {
					return err
				}
				fmt.Printf("Entries:  %d\n", s.Entries)
				fmt.Printf("Analyzed: %d\n", s.Analyzed)
				fmt.Printf("Size:     %.1f MB\n", s.SizeMB)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Drop entries whose backing file no longer exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(func(c *cache.Cache) error {
				n, err := c.Prune()
				if err != nil {
					return err
				}
				fmt.Printf("Pruned %d entries.\n", n)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every cache entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(func(c *cache.Cache) error {
				if err := c.Clear(); err != nil {
					return err
				}
				fmt.Println("Cache cleared.")
				return nil
			})
		},
	})

	return cmd
}
