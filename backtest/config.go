package backtest

import (
	"fmt"

	"github.com/ksfraser/equitysim/portfolio"
)

// Config is the immutable per-run configuration: starting capital, ledger
// frictions, and the portfolio-level risk limits enforced by the day loop.
type Config struct {
	InitialCash float64         `json:"initial_cash" yaml:"initial_cash"`
	Costs       portfolio.Costs `json:"costs" yaml:"costs"`

	MaxPositionSizePct float64 `json:"max_position_size_pct" yaml:"max_position_size_pct"`
	MaxSectorExposure  float64 `json:"max_sector_exposure" yaml:"max_sector_exposure"`
	MaxPositions       int     `json:"max_positions" yaml:"max_positions"`
	RebalanceThreshold float64 `json:"rebalance_threshold" yaml:"rebalance_threshold"`
	CorrelationLimit   float64 `json:"correlation_limit" yaml:"correlation_limit"`
	RiskFreeRate       float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
}

// DefaultConfig returns the limits the original portfolio rules shipped
// with: 5% per position, 25% per sector, 70% correlation ceiling.
func DefaultConfig() Config {
	return Config{
		InitialCash:        100_000,
		Costs:              portfolio.DefaultCosts(),
		MaxPositionSizePct: 0.05,
		MaxSectorExposure:  0.25,
		MaxPositions:       20,
		RebalanceThreshold: 0.05,
		CorrelationLimit:   0.7,
		RiskFreeRate:       0.02,
	}
}

func (c Config) Validate() error {
	if c.InitialCash <= 0 {
		return fmt.Errorf("initial_cash must be positive: %v", c.InitialCash)
	}
	if err := c.Costs.Validate(); err != nil {
		return err
	}
	if c.MaxPositionSizePct <= 0 || c.MaxPositionSizePct > 1 {
		return fmt.Errorf("max_position_size_pct must be in (0, 1]: %v", c.MaxPositionSizePct)
	}
	if c.MaxSectorExposure <= 0 || c.MaxSectorExposure > 1 {
		return fmt.Errorf("max_sector_exposure must be in (0, 1]: %v", c.MaxSectorExposure)
	}
	if c.MaxPositions < 1 {
		return fmt.Errorf("max_positions must be at least 1: %d", c.MaxPositions)
	}
	if c.RebalanceThreshold <= 0 || c.RebalanceThreshold > 1 {
		return fmt.Errorf("rebalance_threshold must be in (0, 1]: %v", c.RebalanceThreshold)
	}
	if c.CorrelationLimit <= 0 || c.CorrelationLimit > 1 {
		return fmt.Errorf("correlation_limit must be in (0, 1]: %v", c.CorrelationLimit)
	}
	if c.RiskFreeRate < 0 {
		return fmt.Errorf("risk_free_rate must be non-negative: %v", c.RiskFreeRate)
	}
	return nil
}
