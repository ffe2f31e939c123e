// Package sizing converts risk and confidence inputs into whole share
// counts. All functions are pure and stateless; malformed numeric inputs are
// programmer errors and fail with portfolio.ErrInvalidArgument.
package sizing

import (
	"fmt"
	"math"

	"github.com/ksfraser/equitysim/portfolio"
)

// MaxAllocationPct is the hard ceiling applied by the Kelly and
// volatility-based sizers regardless of their inputs.
const MaxAllocationPct = 0.25

// FixedDollar sizes a position worth amount, capped at the available
// portfolio value.
func FixedDollar(amount, price, portfolioValue float64) (int, error) {
	if err := positive("amount", amount); err != nil {
		return 0, err
	}
	if err := positive("price", price); err != nil {
		return 0, err
	}
	if err := positive("portfolio value", portfolioValue); err != nil {
		return 0, err
	}

	value := math.Min(amount, portfolioValue)
	return int(math.Floor(value / price)), nil
}

// FixedPercent sizes a position worth pct of the portfolio, pct in (0, 1].
func FixedPercent(pct, price, portfolioValue float64) (int, error) {
	if pct <= 0 || pct > 1 || math.IsNaN(pct) {
		return 0, fmt.Errorf("percent must be in (0, 1], got %v: %w", pct, portfolio.ErrInvalidArgument)
	}
	if err := positive("price", price); err != nil {
		return 0, err
	}
	if err := positive("portfolio value", portfolioValue); err != nil {
		return 0, err
	}

	return int(math.Floor(portfolioValue * pct / price)), nil
}

// KellyFraction computes the fractional Kelly allocation for a strategy with
// the given win probability and average win/loss magnitudes. The raw Kelly
// value f* = (p*b - q)/b is clamped to [0, 1] before the fraction applies.
func KellyFraction(winProbability, avgWin, avgLoss, fraction float64) (float64, error) {
	if winProbability <= 0 || winProbability >= 1 || math.IsNaN(winProbability) {
		return 0, fmt.Errorf("win probability must be in (0, 1), got %v: %w", winProbability, portfolio.ErrInvalidArgument)
	}
	if err := positive("average win", avgWin); err != nil {
		return 0, err
	}
	if err := positive("average loss", avgLoss); err != nil {
		return 0, err
	}
	if fraction <= 0 || fraction > 1 || math.IsNaN(fraction) {
		return 0, fmt.Errorf("fraction must be in (0, 1], got %v: %w", fraction, portfolio.ErrInvalidArgument)
	}

	b := avgWin / avgLoss
	q := 1 - winProbability
	f := (winProbability*b - q) / b
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return f * fraction, nil
}

// Kelly sizes a position by fractional Kelly, hard-capped at
// MaxAllocationPct of the portfolio regardless of inputs.
func Kelly(winProbability, avgWin, avgLoss, fraction, price, portfolioValue float64) (int, error) {
	f, err := KellyFraction(winProbability, avgWin, avgLoss, fraction)
	if err != nil {
		return 0, err
	}
	if err := positive("price", price); err != nil {
		return 0, err
	}
	if err := positive("portfolio value", portfolioValue); err != nil {
		return 0, err
	}

	alloc := math.Min(f, MaxAllocationPct) * portfolioValue
	return int(math.Floor(alloc / price)), nil
}

// VolatilityBased risks riskPercent of the portfolio against an ATR-derived
// stop distance: shares = floor(risk / (atr * atrMultiplier)), additionally
// capped at MaxAllocationPct of the portfolio value.
func VolatilityBased(riskPercent, atr, atrMultiplier, price, portfolioValue float64) (int, error) {
	if riskPercent <= 0 || riskPercent > 0.1 || math.IsNaN(riskPercent) {
		return 0, fmt.Errorf("risk percent must be in (0, 0.1], got %v: %w", riskPercent, portfolio.ErrInvalidArgument)
	}
	if err := positive("atr", atr); err != nil {
		return 0, err
	}
	if err := positive("atr multiplier", atrMultiplier); err != nil {
		return 0, err
	}
	if err := positive("price", price); err != nil {
		return 0, err
	}
	if err := positive("portfolio value", portfolioValue); err != nil {
		return 0, err
	}

	risk := portfolioValue * riskPercent
	shares := math.Floor(risk / (atr * atrMultiplier))

	maxShares := math.Floor(portfolioValue * MaxAllocationPct / price)
	if shares > maxShares {
		shares = maxShares
	}
	return int(shares), nil
}

// Asset is one candidate in a risk-parity allocation.
type Asset struct {
	Symbol     string
	Volatility float64 // annualized return volatility
	Price      float64
}

// Allocation is the risk-parity weight and share count for one asset.
type Allocation struct {
	Symbol string
	Weight float64
	Value  float64
	Shares int
}

// RiskParity weights each asset proportionally to the inverse of its
// volatility, normalized so the weights sum to 1. Every asset must carry a
// symbol, positive volatility, and positive price.
func RiskParity(assets []Asset, portfolioValue float64) ([]Allocation, error) {
	if len(assets) == 0 {
		return nil, fmt.Errorf("no assets: %w", portfolio.ErrInvalidArgument)
	}
	if err := positive("portfolio value", portfolioValue); err != nil {
		return nil, err
	}

	total := 0.0
	for i, a := range assets {
		if a.Symbol == "" {
			return nil, fmt.Errorf("asset %d: empty symbol: %w", i, portfolio.ErrInvalidArgument)
		}
		if a.Volatility <= 0 || math.IsNaN(a.Volatility) {
			return nil, fmt.Errorf("asset %s: volatility must be positive, got %v: %w",
				a.Symbol, a.Volatility, portfolio.ErrInvalidArgument)
		}
		if a.Price <= 0 || math.IsNaN(a.Price) {
			return nil, fmt.Errorf("asset %s: price must be positive, got %v: %w",
				a.Symbol, a.Price, portfolio.ErrInvalidArgument)
		}
		total += 1 / a.Volatility
	}

	out := make([]Allocation, len(assets))
	for i, a := range assets {
		w := (1 / a.Volatility) / total
		value := portfolioValue * w
		out[i] = Allocation{
			Symbol: a.Symbol,
			Weight: w,
			Value:  value,
			Shares: int(math.Floor(value / a.Price)),
		}
	}
	return out, nil
}

// MaxWithMargin bounds a position by what the margin account can carry:
// min(cash / marginRequirement, portfolioValue * maxLeverage).
func MaxWithMargin(cash, portfolioValue, price, marginRequirement, maxLeverage float64) (int, error) {
	if err := positive("cash", cash); err != nil {
		return 0, err
	}
	if err := positive("portfolio value", portfolioValue); err != nil {
		return 0, err
	}
	if err := positive("price", price); err != nil {
		return 0, err
	}
	if err := positive("margin requirement", marginRequirement); err != nil {
		return 0, err
	}
	if err := positive("max leverage", maxLeverage); err != nil {
		return 0, err
	}

	bound := math.Min(cash/marginRequirement, portfolioValue*maxLeverage)
	return int(math.Floor(bound / price)), nil
}

// Risk-rating multipliers from the portfolio manager's sizing rules.
var riskMultipliers = map[string]float64{
	"LOW":       1.0,
	"MEDIUM":    0.8,
	"HIGH":      0.6,
	"VERY_HIGH": 0.4,
}

// RiskAdjusted scales a max-position-percent base allocation by the asset's
// risk rating (LOW 1.0, MEDIUM 0.8, HIGH 0.6, VERY_HIGH 0.4). Unknown
// ratings size conservatively at 0.5.
func RiskAdjusted(riskRating string, maxPositionPct, price, portfolioValue float64) (int, error) {
	if maxPositionPct <= 0 || maxPositionPct > 1 || math.IsNaN(maxPositionPct) {
		return 0, fmt.Errorf("max position percent must be in (0, 1], got %v: %w",
			maxPositionPct, portfolio.ErrInvalidArgument)
	}
	if err := positive("price", price); err != nil {
		return 0, err
	}
	if err := positive("portfolio value", portfolioValue); err != nil {
		return 0, err
	}

	mult, ok := riskMultipliers[riskRating]
	if !ok {
		mult = 0.5
	}
	value := portfolioValue * maxPositionPct * mult
	return int(math.Floor(value / price)), nil
}

func positive(name string, v float64) error {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be positive, got %v: %w", name, v, portfolio.ErrInvalidArgument)
	}
	return nil
}
