package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.FixedPointIterations)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	require.Len(t, cfg.Jurisdictions, 1)
	assert.Equal(t, "j1", cfg.Jurisdictions[0].Name)
}

func TestLoadFromTOMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xlnd.toml")
	contents := `
fixed_point_iterations = 8
default_block_delay_ms = 500

[[jurisdictions]]
name = "ethereum"
evm_type = "reth"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.FixedPointIterations)
	assert.Equal(t, int64(500), cfg.DefaultBlockDelayMs)
	require.Len(t, cfg.Jurisdictions, 1)
	assert.Equal(t, "ethereum", cfg.Jurisdictions[0].Name)
	assert.Equal(t, "reth", cfg.Jurisdictions[0].EvmType)
}

func TestValidateRejectsZeroFixedPointIterations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FixedPointIterations = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsDuplicateJurisdictionNames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Jurisdictions = []JurisdictionConfig{{Name: "j1"}, {Name: "j1"}}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsPebbleWithoutPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Backend = "pebble"
	cfg.Storage.Path = ""
	assert.Error(t, cfg.Validate())
}
