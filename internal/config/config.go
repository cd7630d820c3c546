// Package config defines xlnd's RuntimeConfig and loads it through viper,
// grounded on the teacher's internal/config (config.go/loader.go/
// defaults.go/validators.go): a typed, toml+mapstructure-tagged struct
// populated by viper with defaults set first, file values layered on top,
// and an explicit Validate() pass before the caller trusts it.
package config

import "time"

// JurisdictionConfig is one jurisdiction.Config entry as it appears in a
// TOML config file, before createXlnomy turns it into a live Machine.
type JurisdictionConfig struct {
	Name       string        `toml:"name" mapstructure:"name"`
	EvmType    string        `toml:"evm_type" mapstructure:"evm_type"`
	RPCURL     string        `toml:"rpc_url" mapstructure:"rpc_url"`
	BlockDelay time.Duration `toml:"block_delay" mapstructure:"block_delay"`
	AutoGrid   bool          `toml:"auto_grid" mapstructure:"auto_grid"`
}

// StorageConfig mirrors snapshotstore.Config's TOML shape (config.go
// avoids importing internal/storage/snapshotstore directly so that
// package can stay optional — internal/cli performs the translation).
type StorageConfig struct {
	Backend   string `toml:"backend" mapstructure:"backend"`
	Path      string `toml:"path" mapstructure:"path"`
	CacheSize int    `toml:"cache_size" mapstructure:"cache_size"`
}

// RuntimeConfig is the complete configuration for one xlnd process (spec
// §A.3): the runtime's tick-loop tuning plus the jurisdictions it should
// create on boot.
type RuntimeConfig struct {
	FixedPointIterations int                   `toml:"fixed_point_iterations" mapstructure:"fixed_point_iterations"`
	DefaultBlockDelayMs  int64                 `toml:"default_block_delay_ms" mapstructure:"default_block_delay_ms"`
	Jurisdictions        []JurisdictionConfig  `toml:"jurisdictions" mapstructure:"jurisdictions"`
	Storage              StorageConfig         `toml:"storage" mapstructure:"storage"`
}

// DefaultConfig returns the configuration a fresh `xlnd run` starts from
// before any file or flag override (spec §9's default fixed-point bound
// and an in-memory-only storage layer).
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		FixedPointIterations: 64,
		DefaultBlockDelayMs:  1000,
		Jurisdictions: []JurisdictionConfig{
			{Name: "j1", EvmType: "browservm", BlockDelay: time.Second},
		},
		Storage: StorageConfig{Backend: "memory", CacheSize: 2000},
	}
}
