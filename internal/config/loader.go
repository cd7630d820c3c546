package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads RuntimeConfig from multiple sources in priority order,
// mirroring the teacher's LoadConfig: (1) built-in defaults, (2) the TOML
// file at path if non-empty, (3) XLND_-prefixed environment variables.
// An empty path is valid (spec's storage layer is "off by default" — a
// process may run entirely off defaults), matching the teacher's pattern
// of layering optional sources rather than demanding a file.
func Load(path string) (RuntimeConfig, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return RuntimeConfig{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("XLND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg RuntimeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return RuntimeConfig{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if len(cfg.Jurisdictions) == 0 {
		cfg.Jurisdictions = DefaultConfig().Jurisdictions
	}

	if err := cfg.Validate(); err != nil {
		return RuntimeConfig{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
