package backtest

import (
	"time"

	"github.com/ksfraser/equitysim/portfolio"
	"github.com/ksfraser/equitysim/strategy"
)

// Period is the realized simulation window: the first and last trading day
// actually processed, and how many there were.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// ValuePoint is one entry in the portfolio value time series.
type ValuePoint struct {
	Date time.Time `json:"date"`
	portfolio.Valuation
}

// RebalanceEvent records a position drifting beyond the rebalance threshold
// from its equal-weight target. Detection only; no corrective trade is
// generated.
type RebalanceEvent struct {
	Date   time.Time `json:"date"`
	Symbol string    `json:"symbol"`
	Weight float64   `json:"weight"`
	Target float64   `json:"target"`
}

// SectorExposure is the per-sector share of net worth at one day's close.
type SectorExposure struct {
	Date      time.Time          `json:"date"`
	Exposures map[string]float64 `json:"exposures"`
}

// Rejection records a signal that was not executed, and why.
type Rejection struct {
	Date       time.Time       `json:"date"`
	Symbol     string          `json:"symbol"`
	Action     strategy.Action `json:"action"`
	Confidence float64         `json:"confidence"`
	Reason     string          `json:"reason"`
}

// SignalStats aggregates signal flow over the run.
type SignalStats struct {
	Generated        int            `json:"generated"`
	Executed         int            `json:"executed"`
	Rejected         int            `json:"rejected"`
	RejectionReasons map[string]int `json:"rejection_reasons"`
	Rejections       []Rejection    `json:"rejections,omitempty"`
}

// Metrics are the risk and performance statistics over the run's daily
// return series.
type Metrics struct {
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	Volatility       float64 `json:"volatility"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	SortinoRatio     float64 `json:"sortino_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	WinRate          float64 `json:"win_rate"`
}

// Result is the complete outcome of one backtest run.
type Result struct {
	Period          Period                 `json:"period"`
	InitialCapital  float64                `json:"initial_capital"`
	FinalValue      float64                `json:"final_value"`
	PortfolioValues []ValuePoint           `json:"portfolio_values"`
	Returns         []float64              `json:"returns"`
	Metrics         Metrics                `json:"metrics"`
	Trades          []portfolio.Trade      `json:"trades"`
	Rebalances      []RebalanceEvent       `json:"rebalances"`
	SectorExposures []SectorExposure       `json:"sector_exposures"`
	MarginCalls     []portfolio.MarginCall `json:"margin_calls"`
	Signals         SignalStats            `json:"signals_stats"`
}
