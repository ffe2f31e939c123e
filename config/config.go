// Package config loads run configuration from YAML or JSON files. All
// settings are explicit and injected at construction; there is no global
// state.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ksfraser/equitysim/backtest"
	"github.com/ksfraser/equitysim/portfolio"
)

// Config is the complete backtest run configuration.
type Config struct {
	Account    AccountConfig    `json:"account" yaml:"account"`
	Costs      portfolio.Costs  `json:"costs" yaml:"costs"`
	Limits     LimitsConfig     `json:"limits" yaml:"limits"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Data       DataConfig       `json:"data" yaml:"data"`
	Strategies []StrategyConfig `json:"strategies" yaml:"strategies"`
}

// AccountConfig contains account initialization parameters.
type AccountConfig struct {
	ID          string  `json:"id" yaml:"id"`
	InitialCash float64 `json:"initial_cash" yaml:"initial_cash"`
}

// LimitsConfig contains the portfolio-level risk limits.
type LimitsConfig struct {
	MaxPositionSizePct float64 `json:"max_position_size_pct" yaml:"max_position_size_pct"`
	MaxSectorExposure  float64 `json:"max_sector_exposure" yaml:"max_sector_exposure"`
	MaxPositions       int     `json:"max_positions" yaml:"max_positions"`
	RebalanceThreshold float64 `json:"rebalance_threshold" yaml:"rebalance_threshold"`
	CorrelationLimit   float64 `json:"correlation_limit" yaml:"correlation_limit"`
	RiskFreeRate       float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
}

// JournalConfig selects trade/snapshot persistence.
type JournalConfig struct {
	Type          string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile    string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	SnapshotsFile string `json:"snapshots_file,omitempty" yaml:"snapshots_file,omitempty"`
	DBPath        string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// DataConfig locates bar CSVs and bounds the simulation window. Empty dates
// leave the window open.
type DataConfig struct {
	Dir   string `json:"dir" yaml:"dir"`
	Start string `json:"start,omitempty" yaml:"start,omitempty"`
	End   string `json:"end,omitempty" yaml:"end,omitempty"`
}

// StrategyConfig binds a named sample strategy to one symbol.
type StrategyConfig struct {
	Symbol   string             `json:"symbol" yaml:"symbol"`
	Name     string             `json:"name" yaml:"name"`
	Sector   string             `json:"sector,omitempty" yaml:"sector,omitempty"`
	Industry string             `json:"industry,omitempty" yaml:"industry,omitempty"`
	Params   map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
}

// LoadFromFile loads configuration from a file, trying YAML first and
// falling back to JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML (.yaml/.yml) or indented JSON.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration is complete and internally consistent.
func (c *Config) Validate() error {
	if err := c.Backtest().Validate(); err != nil {
		return err
	}
	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.SnapshotsFile == "" {
			return fmt.Errorf("journal trades_file and snapshots_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite', got %q", c.Journal.Type)
	}
	seen := make(map[string]bool, len(c.Strategies))
	for i, s := range c.Strategies {
		if s.Symbol == "" {
			return fmt.Errorf("strategies[%d]: symbol is required", i)
		}
		if s.Name == "" {
			return fmt.Errorf("strategies[%d] (%s): name is required", i, s.Symbol)
		}
		if seen[s.Symbol] {
			return fmt.Errorf("duplicate strategy for %s", s.Symbol)
		}
		seen[s.Symbol] = true
	}
	return nil
}

// Backtest converts the file configuration into the engine's run config.
func (c *Config) Backtest() backtest.Config {
	return backtest.Config{
		InitialCash:        c.Account.InitialCash,
		Costs:              c.Costs,
		MaxPositionSizePct: c.Limits.MaxPositionSizePct,
		MaxSectorExposure:  c.Limits.MaxSectorExposure,
		MaxPositions:       c.Limits.MaxPositions,
		RebalanceThreshold: c.Limits.RebalanceThreshold,
		CorrelationLimit:   c.Limits.CorrelationLimit,
		RiskFreeRate:       c.Limits.RiskFreeRate,
	}
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	bt := backtest.DefaultConfig()
	return &Config{
		Account: AccountConfig{ID: "SIM-001", InitialCash: bt.InitialCash},
		Costs:   bt.Costs,
		Limits: LimitsConfig{
			MaxPositionSizePct: bt.MaxPositionSizePct,
			MaxSectorExposure:  bt.MaxSectorExposure,
			MaxPositions:       bt.MaxPositions,
			RebalanceThreshold: bt.RebalanceThreshold,
			CorrelationLimit:   bt.CorrelationLimit,
			RiskFreeRate:       bt.RiskFreeRate,
		},
		Journal: JournalConfig{Type: "none"},
		Data:    DataConfig{Dir: "./data"},
	}
}
