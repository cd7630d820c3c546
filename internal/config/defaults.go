package config

import "github.com/spf13/viper"

// setDefaults seeds v with RuntimeConfig's zero-risk defaults before any
// file is read, the same ordering the teacher's setDefaults establishes
// ahead of loadMainConfig.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("fixed_point_iterations", def.FixedPointIterations)
	v.SetDefault("default_block_delay_ms", def.DefaultBlockDelayMs)
	v.SetDefault("storage.backend", def.Storage.Backend)
	v.SetDefault("storage.cache_size", def.Storage.CacheSize)
}
