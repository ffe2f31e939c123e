package portfolio

import "fmt"

// Costs are the trading frictions applied by the ledger. Immutable per run.
type Costs struct {
	CommissionRate      float64 `json:"commission_rate" yaml:"commission_rate"`
	SlippageRate        float64 `json:"slippage_rate" yaml:"slippage_rate"`
	MarginRequirement   float64 `json:"margin_requirement" yaml:"margin_requirement"`
	ShortInterestRate   float64 `json:"short_interest_rate" yaml:"short_interest_rate"` // annual
	MarginCallThreshold float64 `json:"margin_call_threshold" yaml:"margin_call_threshold"`
	LiquidationPenalty  float64 `json:"liquidation_penalty" yaml:"liquidation_penalty"`
}

// DefaultCosts mirror a retail margin account: 0.1% commission, 0.05%
// slippage, 150% short margin with a 130% maintenance threshold.
func DefaultCosts() Costs {
	return Costs{
		CommissionRate:      0.001,
		SlippageRate:        0.0005,
		MarginRequirement:   1.5,
		ShortInterestRate:   0.02,
		MarginCallThreshold: 1.3,
		LiquidationPenalty:  0.05,
	}
}

func (c Costs) Validate() error {
	if c.CommissionRate < 0 || c.CommissionRate >= 1 {
		return fmt.Errorf("commission_rate must be in [0, 1): %v", c.CommissionRate)
	}
	if c.SlippageRate < 0 || c.SlippageRate >= 1 {
		return fmt.Errorf("slippage_rate must be in [0, 1): %v", c.SlippageRate)
	}
	if c.MarginRequirement <= 0 {
		return fmt.Errorf("margin_requirement must be positive: %v", c.MarginRequirement)
	}
	if c.ShortInterestRate < 0 {
		return fmt.Errorf("short_interest_rate must be non-negative: %v", c.ShortInterestRate)
	}
	if c.MarginCallThreshold <= 0 || c.MarginCallThreshold > c.MarginRequirement {
		return fmt.Errorf("margin_call_threshold must be in (0, margin_requirement]: %v", c.MarginCallThreshold)
	}
	if c.LiquidationPenalty < 0 || c.LiquidationPenalty >= 1 {
		return fmt.Errorf("liquidation_penalty must be in [0, 1): %v", c.LiquidationPenalty)
	}
	return nil
}
