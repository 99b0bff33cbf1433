// Package config loads the engine configuration from YAML with .env
// overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full engine configuration.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	API     APIConfig     `yaml:"api"`
	Chain   ChainConfig   `yaml:"chain"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// EngineConfig holds detection, planning and ledger tunables.
type EngineConfig struct {
	IntervalSeconds      int     `yaml:"interval_seconds"`
	Workers              int     `yaml:"workers"`
	StartingCapitalUSDC  float64 `yaml:"starting_capital_usdc"`
	MaxPositionSize      int64   `yaml:"max_position_size"` // complete sets per market
	MinProfitUSDC        float64 `yaml:"min_profit_usdc"`
	MinConfidence        float64 `yaml:"min_confidence"`
	Epsilon              float64 `yaml:"epsilon"` // price-sum noise band
	ConfidenceSaturation float64 `yaml:"confidence_saturation"`
	MaxSnapshotAgeSec    int     `yaml:"max_snapshot_age_seconds"`
	FeeRate              float64 `yaml:"fee_rate"`      // venue charges 0% today
	GasCostUSDC          float64 `yaml:"gas_cost_usdc"` // fallback split cost
	MaxMarkets           int     `yaml:"max_markets"`   // 0 = all discovered
}

// APIConfig holds the CLOB base URL.
type APIConfig struct {
	CLOBBase string `yaml:"clob_base"`
}

// ChainConfig configures the Polygon RPC used for live gas pricing. An
// empty RPCURL disables the estimator and the fixed gas_cost_usdc is used.
type ChainConfig struct {
	RPCURL string `yaml:"rpc_url"`
}

// StorageConfig controls where fills are persisted.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// LogConfig controls log format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML file and the .env file if present. Environment
// variables override matching YAML keys.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// CycleInterval returns the cycle interval as a time.Duration.
func (c *Config) CycleInterval() time.Duration {
	return time.Duration(c.Engine.IntervalSeconds) * time.Second
}

// MaxSnapshotAge returns the staleness cutoff as a time.Duration.
func (c *Config) MaxSnapshotAge() time.Duration {
	return time.Duration(c.Engine.MaxSnapshotAgeSec) * time.Second
}

// applyEnvOverrides overrides values from environment variables when set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("POLYGON_RPC_URL"); v != "" {
		cfg.Chain.RPCURL = v
	}
	if v := os.Getenv("CLOB_BASE"); v != "" {
		cfg.API.CLOBBase = v
	}
}

// setDefaults fills required values with sensible defaults.
func setDefaults(cfg *Config) {
	if cfg.Engine.IntervalSeconds <= 0 {
		cfg.Engine.IntervalSeconds = 30
	}
	if cfg.Engine.StartingCapitalUSDC <= 0 {
		cfg.Engine.StartingCapitalUSDC = 10_000
	}
	if cfg.Engine.MaxPositionSize <= 0 {
		cfg.Engine.MaxPositionSize = 100
	}
	if cfg.Engine.MinProfitUSDC <= 0 {
		cfg.Engine.MinProfitUSDC = 0.01
	}
	if cfg.Engine.MinConfidence <= 0 {
		cfg.Engine.MinConfidence = 0.8
	}
	if cfg.Engine.Epsilon <= 0 {
		cfg.Engine.Epsilon = 0.001
	}
	if cfg.Engine.ConfidenceSaturation <= 0 {
		cfg.Engine.ConfidenceSaturation = 0.05
	}
	if cfg.Engine.MaxSnapshotAgeSec <= 0 {
		cfg.Engine.MaxSnapshotAgeSec = 30
	}
	if cfg.Engine.GasCostUSDC <= 0 {
		cfg.Engine.GasCostUSDC = 0.50
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "polyarb.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
