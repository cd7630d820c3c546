package config

import "fmt"

// Validate performs range and non-empty checks on cfg, in the same style
// as the teacher's ValidatorsConfig.Validate: plain errors naming the
// offending field, no panics.
func (c RuntimeConfig) Validate() error {
	if c.FixedPointIterations <= 0 {
		return fmt.Errorf("fixed_point_iterations must be positive, got %d", c.FixedPointIterations)
	}
	if c.DefaultBlockDelayMs < 0 {
		return fmt.Errorf("default_block_delay_ms must be non-negative, got %d", c.DefaultBlockDelayMs)
	}

	seen := make(map[string]struct{}, len(c.Jurisdictions))
	for i, j := range c.Jurisdictions {
		if j.Name == "" {
			return fmt.Errorf("jurisdictions[%d]: name must not be empty", i)
		}
		if _, dup := seen[j.Name]; dup {
			return fmt.Errorf("jurisdictions[%d]: duplicate jurisdiction name %q", i, j.Name)
		}
		seen[j.Name] = struct{}{}
		if j.BlockDelay < 0 {
			return fmt.Errorf("jurisdictions[%d]: block_delay must be non-negative", i)
		}
	}

	switch c.Storage.Backend {
	case "memory", "pebble":
	default:
		return fmt.Errorf("storage.backend must be \"memory\" or \"pebble\", got %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "pebble" && c.Storage.Path == "" {
		return fmt.Errorf("storage.path must be set when storage.backend is \"pebble\"")
	}
	return nil
}
