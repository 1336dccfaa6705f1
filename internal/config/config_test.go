package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  port: "9000"
database:
  driver: sqlite
  path: /tmp/cfs.db
campaign:
  owner: "0x00000000000000000000000000000000000000aA"
  target: "1000"
  deadline: 1767225600
  genesis:
    "0x00000000000000000000000000000000000000a1": "5000"
task:
  interval: 15
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "system", cfg.Chain.Clock)
	assert.Equal(t, 15, cfg.Task.Interval)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.Equal(t, common.HexToAddress("0xaa"), cfg.Campaign.OwnerAddress())
	assert.Equal(t, "1000", cfg.Campaign.TargetAmount().String())
	assert.Equal(t, uint64(1767225600), cfg.Campaign.Deadline)

	alloc := cfg.Campaign.GenesisAlloc()
	require.Len(t, alloc, 1)
	assert.Equal(t, "5000", alloc[common.HexToAddress("0xa1")].String())
}

func TestLoadFileEnvOverride(t *testing.T) {
	t.Setenv("CFS_SERVER_PORT", "7070")
	t.Setenv("CFS_LOG_LEVEL", "debug")

	cfg, err := LoadFile(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad owner", func(c *Config) { c.Campaign.Owner = "alice" }},
		{"bad target", func(c *Config) { c.Campaign.Target = "ten" }},
		{"negative target", func(c *Config) { c.Campaign.Target = "-1" }},
		{"bad genesis address", func(c *Config) { c.Campaign.Genesis = map[string]string{"nope": "1"} }},
		{"bad genesis amount", func(c *Config) { c.Campaign.Genesis = map[string]string{"0x00000000000000000000000000000000000000a1": "x"} }},
		{"block clock without rpc", func(c *Config) { c.Chain.Clock = "block" }},
		{"unknown clock", func(c *Config) { c.Chain.Clock = "sundial" }},
		{"zero interval", func(c *Config) { c.Task.Interval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFile(writeConfig(t, sampleConfig))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, "42", v.String())

	_, err = ParseAmount("")
	assert.Error(t, err)
	_, err = ParseAmount("1.5")
	assert.Error(t, err)
}
