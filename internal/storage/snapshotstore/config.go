package snapshotstore

import "fmt"

// Config selects and tunes a Store backend (spec §6's optional storage
// layer). Grounded on the teacher's internal/storage/nodestore.Config
// shape, trimmed to the fields this package's backends actually read.
type Config struct {
	// Backend is "memory" or "pebble". Anything else is ErrInvalidConfig.
	Backend string `mapstructure:"backend" toml:"backend"`
	// Path is the on-disk directory for the pebble backend. Unused by memory.
	Path string `mapstructure:"path" toml:"path"`
	// CacheSize is the number of hot records the LRU wrapper keeps resident.
	// Zero disables caching: Open returns the backend without a CachedStore.
	CacheSize int `mapstructure:"cache_size" toml:"cache_size"`
}

// DefaultConfig returns the in-memory backend with a modest cache, the
// configuration a fresh `xlnd run` starts with before any flag override.
func DefaultConfig() Config {
	return Config{Backend: "memory", CacheSize: 2000}
}

// Validate checks Config for internal consistency (spec §6 "off by
// default" means validation must accept the zero-ish memory config, not
// demand a Path unconditionally).
func (c Config) Validate() error {
	switch c.Backend {
	case "memory":
		return nil
	case "pebble":
		if c.Path == "" {
			return fmt.Errorf("%w: pebble backend requires a path", ErrInvalidConfig)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
}

// Open constructs the Store named by c.Backend, wrapped in an LRU cache
// when c.CacheSize > 0.
func Open(c Config) (Store, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var base Store
	var err error
	switch c.Backend {
	case "memory":
		base = NewMemoryStore()
	case "pebble":
		base, err = NewPebbleStore(c.Path)
	}
	if err != nil {
		return nil, err
	}
	if c.CacheSize <= 0 {
		return base, nil
	}
	return NewCachedStore(base, c.CacheSize)
}
