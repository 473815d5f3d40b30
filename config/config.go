// Package config contains bridge tools configuration.
package config

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/nspcc-dev/tokenbridge-contract/common"
	"github.com/nspcc-dev/tokenbridge-contract/destination"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is a prefix of environment variables overriding configuration,
// e.g. BRIDGE_RELAYER_JOURNAL for relayer.journal.
const EnvPrefix = "BRIDGE"

// Config is the top-level configuration.
type Config struct {
	Logger      Logger  `mapstructure:"logger"`
	Origin      Ledger  `mapstructure:"origin"`
	Destination Ledger  `mapstructure:"destination"`
	Token       Token   `mapstructure:"token"`
	Relayer     Relayer `mapstructure:"relayer"`
}

// Logger configures logging.
type Logger struct {
	Level string `mapstructure:"level"`
}

// Ledger describes one of the bridged ledgers.
type Ledger struct {
	Name string `mapstructure:"name"`
	// Bech32 prefix of ledger addresses, empty for hex addresses.
	Prefix string `mapstructure:"prefix"`
}

// Token describes paired token contracts.
type Token struct {
	Name          string `mapstructure:"name"`
	Symbol        string `mapstructure:"symbol"`
	CW20Name      string `mapstructure:"cw20_name"`
	CW20Symbol    string `mapstructure:"cw20_symbol"`
	Decimals      uint8  `mapstructure:"decimals"`
	InitialSupply string `mapstructure:"initial_supply"`
}

// Relayer configures bridge relayer.
type Relayer struct {
	Journal    string `mapstructure:"journal"`
	BufferSize int    `mapstructure:"buffer_size"`
	Retry      Retry  `mapstructure:"retry"`
}

// Retry is a mint retry policy.
type Retry struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

// Default returns configuration used for missing values.
func Default() Config {
	return Config{
		Logger: Logger{Level: "info"},
		Origin: Ledger{Name: "origin"},
		Destination: Ledger{
			Name:   "destination",
			Prefix: "ex",
		},
		Token: Token{
			Name:          "testERC20",
			Symbol:        "TST",
			CW20Name:      "testCW20",
			CW20Symbol:    "TCW",
			Decimals:      18,
			InitialSupply: "10000",
		},
		Relayer: Relayer{
			Journal:    "bridge-journal.db",
			BufferSize: 64,
			Retry: Retry{
				InitialInterval: 100 * time.Millisecond,
				MaxInterval:     5 * time.Second,
				MaxElapsedTime:  time.Minute,
			},
		},
	}
}

// Load reads configuration file (any format supported by viper) and applies
// environment overrides. Empty path means defaults and environment only.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key, so environment overrides work for keys
// absent in the file.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("logger.level", d.Logger.Level)
	v.SetDefault("origin.name", d.Origin.Name)
	v.SetDefault("origin.prefix", d.Origin.Prefix)
	v.SetDefault("destination.name", d.Destination.Name)
	v.SetDefault("destination.prefix", d.Destination.Prefix)
	v.SetDefault("token.name", d.Token.Name)
	v.SetDefault("token.symbol", d.Token.Symbol)
	v.SetDefault("token.cw20_name", d.Token.CW20Name)
	v.SetDefault("token.cw20_symbol", d.Token.CW20Symbol)
	v.SetDefault("token.decimals", d.Token.Decimals)
	v.SetDefault("token.initial_supply", d.Token.InitialSupply)
	v.SetDefault("relayer.journal", d.Relayer.Journal)
	v.SetDefault("relayer.buffer_size", d.Relayer.BufferSize)
	v.SetDefault("relayer.retry.initial_interval", d.Relayer.Retry.InitialInterval)
	v.SetDefault("relayer.retry.max_interval", d.Relayer.Retry.MaxInterval)
	v.SetDefault("relayer.retry.max_elapsed_time", d.Relayer.Retry.MaxElapsedTime)
}

// Validate checks configuration consistency.
func (c Config) Validate() error {
	if _, err := c.LogLevel(); err != nil {
		return err
	}

	if c.Origin.Prefix != "" {
		return errors.New("origin ledger uses hex addresses, prefix must be empty")
	}
	if err := checkPrefix(c.Destination.Prefix); err != nil {
		return fmt.Errorf("destination prefix: %w", err)
	}
	if c.Origin.Name == "" || c.Destination.Name == "" {
		return errors.New("empty ledger name")
	}
	if c.Origin.Name == c.Destination.Name {
		return fmt.Errorf("ledgers have the same name %q", c.Origin.Name)
	}

	if c.Token.Name == "" || c.Token.Symbol == "" {
		return errors.New("empty origin token name or symbol")
	}
	err := destination.InstantiateMsg{
		Name:     c.Token.CW20Name,
		Symbol:   c.Token.CW20Symbol,
		Decimals: c.Token.Decimals,
	}.Validate()
	if err != nil {
		return fmt.Errorf("destination token: %w", err)
	}
	if _, err := c.Token.Supply(); err != nil {
		return err
	}

	if c.Relayer.Journal == "" {
		return errors.New("empty relayer journal path")
	}
	if c.Relayer.BufferSize < 0 {
		return fmt.Errorf("negative relayer buffer size %d", c.Relayer.BufferSize)
	}
	r := c.Relayer.Retry
	if r.InitialInterval < 0 || r.MaxInterval < 0 {
		return errors.New("negative retry interval")
	}
	if r.MaxInterval > 0 && r.InitialInterval > r.MaxInterval {
		return fmt.Errorf("retry initial interval %s exceeds max interval %s", r.InitialInterval, r.MaxInterval)
	}
	return nil
}

// LogLevel returns parsed logger level.
func (c Config) LogLevel() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.Logger.Level)
	if err != nil {
		return lvl, fmt.Errorf("logger level: %w", err)
	}
	return lvl, nil
}

// Supply returns parsed initial supply of the origin token.
func (t Token) Supply() (*big.Int, error) {
	a, err := common.ParseAmount(t.InitialSupply)
	if err != nil {
		return nil, fmt.Errorf("initial supply: %w", err)
	}
	return a.ToBig(), nil
}

func checkPrefix(p string) error {
	if p == "" {
		return errors.New("empty prefix")
	}
	for i := 0; i < len(p); i++ {
		if p[i] < 33 || p[i] > 126 || (p[i] >= 'A' && p[i] <= 'Z') {
			return fmt.Errorf("invalid character %q", p[i])
		}
	}
	if p[len(p)-1] == '1' {
		return fmt.Errorf("prefix %q ends with separator", p)
	}
	return nil
}
