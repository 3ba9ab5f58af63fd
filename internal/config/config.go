package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ClaudeRoot    string   `toml:"claude_root"`
	CachePath     string   `toml:"cache_path"`
	TrashDir      string   `toml:"trash_dir"`
	OverridesPath string   `toml:"overrides_path"`
	Exclude       []string `toml:"exclude"`
	BatchSize     int      `toml:"batch_size"`
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ClaudeRoot: filepath.Join(home, ".claude", "projects"),
		CachePath:  filepath.Join(home, ".config", "ccsweep", "cache.db"),
		// keep the trash on the same device as the logs so moves are renames
		TrashDir:      filepath.Join(home, ".claude", ".trash"),
		OverridesPath: filepath.Join(home, ".config", "ccsweep", "overrides.yaml"),
	}

	cfgPath := filepath.Join(home, ".config", "ccsweep", "config.toml")
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	// expand ~ in paths
	cfg.ClaudeRoot = expandHome(cfg.ClaudeRoot, home)
	cfg.CachePath = expandHome(cfg.CachePath, home)
	cfg.TrashDir = expandHome(cfg.TrashDir, home)
	cfg.OverridesPath = expandHome(cfg.OverridesPath, home)

	return cfg, nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
