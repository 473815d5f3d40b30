package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefault(t *testing.T) {
	require.NoError(t, Default().Validate())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logger:
  level: debug
destination:
  prefix: wasm
token:
  cw20_name: bridged
  cw20_symbol: BRG
  decimals: 6
  initial_supply: "340282366920938463463374607431768211455"
relayer:
  journal: /tmp/journal.db
  retry:
    initial_interval: 1s
    max_interval: 10s
`), 0o600))

	t.Setenv("BRIDGE_RELAYER_BUFFER_SIZE", "8")
	t.Setenv("BRIDGE_TOKEN_SYMBOL", "XYZ")

	cfg, err := Load(path)
	require.NoError(t, err)

	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	require.Equal(t, zapcore.DebugLevel, lvl)

	require.Equal(t, "wasm", cfg.Destination.Prefix)
	require.Equal(t, "destination", cfg.Destination.Name)
	require.Equal(t, "bridged", cfg.Token.CW20Name)
	require.Equal(t, "XYZ", cfg.Token.Symbol)
	require.EqualValues(t, 6, cfg.Token.Decimals)
	require.Equal(t, "/tmp/journal.db", cfg.Relayer.Journal)
	require.Equal(t, 8, cfg.Relayer.BufferSize)
	require.Equal(t, time.Second, cfg.Relayer.Retry.InitialInterval)
	require.Equal(t, 10*time.Second, cfg.Relayer.Retry.MaxInterval)
	require.Equal(t, time.Minute, cfg.Relayer.Retry.MaxElapsedTime)

	supply, err := cfg.Token.Supply()
	require.NoError(t, err)
	require.Equal(t, "340282366920938463463374607431768211455", supply.String())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
	}{
		{"log level", func(c *Config) { c.Logger.Level = "loud" }},
		{"origin prefix", func(c *Config) { c.Origin.Prefix = "ex" }},
		{"empty destination prefix", func(c *Config) { c.Destination.Prefix = "" }},
		{"uppercase prefix", func(c *Config) { c.Destination.Prefix = "EX" }},
		{"same names", func(c *Config) { c.Destination.Name = c.Origin.Name }},
		{"cw20 symbol", func(c *Config) { c.Token.CW20Symbol = "tcw" }},
		{"decimals", func(c *Config) { c.Token.Decimals = 19 }},
		{"supply", func(c *Config) { c.Token.InitialSupply = "-5" }},
		{"supply overflow", func(c *Config) { c.Token.InitialSupply = "340282366920938463463374607431768211456" }},
		{"journal", func(c *Config) { c.Relayer.Journal = "" }},
		{"buffer", func(c *Config) { c.Relayer.BufferSize = -1 }},
		{"intervals", func(c *Config) { c.Relayer.Retry.InitialInterval = time.Hour }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.modify(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
