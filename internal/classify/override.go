package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ccsweep/ccsweep/internal/session"
)

// LoadOverrides reads the tier-override sidecar: a YAML map of session id to
// tier number (1-4). A missing file means no overrides.
func LoadOverrides(path string) (map[string]session.Tier, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var raw map[string]int
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse overrides %s: %w", path, err)
	}

	overrides := make(map[string]session.Tier, len(raw))
	for id, t := range raw {
		if t < int(session.TierAutoDelete) || t > int(session.TierKeep) {
			return nil, fmt.Errorf("overrides %s: tier %d for %s out of range", path, t, id)
		}
		overrides[id] = session.Tier(t)
	}
	return overrides, nil
}

// SaveOverrides persists the override map back to its sidecar file.
func SaveOverrides(path string, overrides map[string]session.Tier) error {
	raw := make(map[string]int, len(overrides))
	for id, t := range overrides {
		raw[id] = int(t)
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
