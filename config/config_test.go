package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlConfig = `
account:
  id: SIM-TEST
  initial_cash: 50000
costs:
  commission_rate: 0.001
  slippage_rate: 0.0005
  margin_requirement: 1.5
  short_interest_rate: 0.02
  margin_call_threshold: 1.3
  liquidation_penalty: 0.05
limits:
  max_position_size_pct: 0.05
  max_sector_exposure: 0.25
  max_positions: 20
  rebalance_threshold: 0.05
  correlation_limit: 0.7
  risk_free_rate: 0.02
journal:
  type: sqlite
  db_path: ./run.sqlite
data:
  dir: ./data
  start: "2024-01-01"
  end: "2024-06-30"
strategies:
  - symbol: AAPL
    name: sma-cross
    sector: Technology
    params:
      fast: 10
      slow: 30
  - symbol: TSLA
    name: momentum-short
    sector: Automotive
`

func writeConfig(t *testing.T, content, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile_YAML(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromFile(writeConfig(t, yamlConfig, "sim.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "SIM-TEST", cfg.Account.ID)
	assert.InDelta(t, 50_000, cfg.Account.InitialCash, 1e-9)
	assert.InDelta(t, 1.5, cfg.Costs.MarginRequirement, 1e-9)
	assert.Equal(t, "sqlite", cfg.Journal.Type)
	assert.Equal(t, "2024-01-01", cfg.Data.Start)

	require.Len(t, cfg.Strategies, 2)
	assert.Equal(t, "sma-cross", cfg.Strategies[0].Name)
	assert.Equal(t, "Technology", cfg.Strategies[0].Sector)
	assert.InDelta(t, 10, cfg.Strategies[0].Params["fast"], 1e-9)
}

func TestLoadFromFile_JSONFallback(t *testing.T) {
	t.Parallel()

	jsonCfg := `{
		"account": {"id": "SIM-J", "initial_cash": 25000},
		"costs": {
			"commission_rate": 0.001,
			"slippage_rate": 0.0005,
			"margin_requirement": 1.5,
			"short_interest_rate": 0.02,
			"margin_call_threshold": 1.3,
			"liquidation_penalty": 0.05
		},
		"limits": {
			"max_position_size_pct": 0.05,
			"max_sector_exposure": 0.25,
			"max_positions": 20,
			"rebalance_threshold": 0.05,
			"correlation_limit": 0.7,
			"risk_free_rate": 0.02
		},
		"journal": {"type": "none"},
		"data": {"dir": "./data"}
	}`

	cfg, err := LoadFromFile(writeConfig(t, jsonCfg, "sim.json"))
	require.NoError(t, err)
	assert.Equal(t, "SIM-J", cfg.Account.ID)
	assert.InDelta(t, 25_000, cfg.Account.InitialCash, 1e-9)
}

func TestLoadFromFile_Errors(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFromFile(writeConfig(t, "{{{not valid", "bad.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func() *Config {
		c := Default()
		c.Strategies = []StrategyConfig{{Symbol: "AAPL", Name: "buy-hold"}}
		return c
	}

	assert.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero cash", func(c *Config) { c.Account.InitialCash = 0 }},
		{"bad margin requirement", func(c *Config) { c.Costs.MarginRequirement = -1 }},
		{"bad journal type", func(c *Config) { c.Journal.Type = "postgres" }},
		{"csv without paths", func(c *Config) { c.Journal.Type = "csv" }},
		{"sqlite without path", func(c *Config) { c.Journal.Type = "sqlite" }},
		{"strategy without symbol", func(c *Config) { c.Strategies[0].Symbol = "" }},
		{"strategy without name", func(c *Config) { c.Strategies[0].Name = "" }},
		{"duplicate strategy", func(c *Config) {
			c.Strategies = append(c.Strategies, StrategyConfig{Symbol: "AAPL", Name: "sma-cross"})
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := base()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestSaveToFileRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Account.ID = "SIM-RT"
	cfg.Strategies = []StrategyConfig{{Symbol: "AAPL", Name: "buy-hold"}}

	path := filepath.Join(t.TempDir(), "roundtrip.yaml")
	require.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Account.ID, got.Account.ID)
	assert.InDelta(t, cfg.Account.InitialCash, got.Account.InitialCash, 1e-9)
	assert.Equal(t, cfg.Strategies, got.Strategies)
}

func TestBacktestConversion(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromFile(writeConfig(t, yamlConfig, "sim.yaml"))
	require.NoError(t, err)

	bt := cfg.Backtest()
	assert.InDelta(t, 50_000, bt.InitialCash, 1e-9)
	assert.InDelta(t, 0.05, bt.MaxPositionSizePct, 1e-9)
	assert.Equal(t, 20, bt.MaxPositions)
	assert.InDelta(t, 0.7, bt.CorrelationLimit, 1e-9)
	assert.NoError(t, bt.Validate())
}
