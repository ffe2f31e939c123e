// Package backtest drives day-by-day portfolio simulations: it feeds
// registered strategies look-ahead-safe history, enforces portfolio-level
// risk constraints, delegates execution to the ledger, and aggregates daily
// returns into performance metrics.
package backtest

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/ksfraser/equitysim/journal"
	"github.com/ksfraser/equitysim/market"
	"github.com/ksfraser/equitysim/portfolio"
	"github.com/ksfraser/equitysim/strategy"
)

// ErrInvalidInput marks fatal setup problems: empty data, no strategies, or
// an empty trading-day range. Raised before any state mutates.
var ErrInvalidInput = errors.New("invalid input")

// defaultConfidence applies when a signal leaves its confidence unset.
const defaultConfidence = 0.5

// Constraint rejection reasons, stable across runs for aggregation.
const (
	reasonMaxPositions   = "Max positions limit reached"
	reasonSectorExposure = "Sector exposure limit reached"
	reasonCorrelation    = "Correlation limit exceeded"
	reasonPositionSize   = "Position size too small"
)

// Profile classifies a registered symbol for exposure accounting.
type Profile struct {
	Sector   string `json:"sector" yaml:"sector"`
	Industry string `json:"industry" yaml:"industry"`
}

// registration binds one symbol to its strategy callback and accumulates
// price history as the day loop advances. Closes are kept as a flat buffer
// so the O(positions²) correlation check stays cheap.
type registration struct {
	fn      strategy.Func
	profile Profile
	history []market.Bar
	closes  []float64
}

// Coordinator owns one simulation run. Single-threaded and deterministic;
// concurrent backtests need independent instances.
type Coordinator struct {
	cfg        Config
	ledger     *portfolio.Ledger
	strategies map[string]*registration
	log        zerolog.Logger
}

// New builds a coordinator and its ledger. A nil journal disables
// persistence.
func New(cfg Config, j journal.Journal, logger zerolog.Logger) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}
	ledger, err := portfolio.New(cfg.InitialCash, cfg.Costs, j, logger)
	if err != nil {
		return nil, err
	}
	return &Coordinator{
		cfg:        cfg,
		ledger:     ledger,
		strategies: make(map[string]*registration),
		log:        logger,
	}, nil
}

// Ledger exposes the run's ledger, mainly for inspection in tests and
// reporting.
func (c *Coordinator) Ledger() *portfolio.Ledger { return c.ledger }

// RegisterStrategy binds a signal callback to a symbol. Must be called
// before Run; registrations are purely additive.
func (c *Coordinator) RegisterStrategy(symbol string, fn strategy.Func, profile Profile) error {
	if symbol == "" {
		return fmt.Errorf("empty symbol: %w", ErrInvalidInput)
	}
	if fn == nil {
		return fmt.Errorf("nil strategy for %s: %w", symbol, ErrInvalidInput)
	}
	if _, dup := c.strategies[symbol]; dup {
		return fmt.Errorf("strategy already registered for %s: %w", symbol, ErrInvalidInput)
	}
	c.strategies[symbol] = &registration{fn: fn, profile: profile}
	return nil
}

// Run executes the simulation over [start, end]. A zero start or end leaves
// that side of the window open. It either returns a complete result --
// possibly containing many recorded rejections -- or a setup error raised
// before any state mutation.
func (c *Coordinator) Run(data map[string][]market.Bar, start, end time.Time) (*Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("no market data: %w", ErrInvalidInput)
	}
	if len(c.strategies) == 0 {
		return nil, fmt.Errorf("no strategies registered: %w", ErrInvalidInput)
	}
	for symbol, bars := range data {
		if err := market.ValidateBars(symbol, bars); err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
		}
	}

	barsByDay, dates := indexBars(data, start, end)
	if len(dates) == 0 {
		return nil, fmt.Errorf("no trading days between %s and %s: %w",
			start.Format("2006-01-02"), end.Format("2006-01-02"), ErrInvalidInput)
	}

	symbols := c.sortedSymbols()
	prices := make(map[string]float64)

	res := &Result{
		Period:         Period{Start: dates[0], End: dates[len(dates)-1], Days: len(dates)},
		InitialCapital: c.cfg.InitialCash,
		Signals:        SignalStats{RejectionReasons: make(map[string]int)},
	}

	for _, date := range dates {
		// 1) Snapshot today's closes and extend per-symbol history.
		for symbol, byDay := range barsByDay {
			bar, ok := byDay[date]
			if !ok {
				continue
			}
			prices[symbol] = bar.Close
			if reg, registered := c.strategies[symbol]; registered {
				reg.history = append(reg.history, bar)
				reg.closes = append(reg.closes, bar.Close)
			}
		}

		// 2) Margin sweep: force-liquidate every flagged short.
		for _, call := range c.ledger.CheckMarginRequirements(prices, date) {
			res.MarginCalls = append(res.MarginCalls, call)
			c.log.Warn().
				Str("symbol", call.Symbol).
				Float64("ratio", call.Ratio).
				Msg("margin call")
			if _, err := c.ledger.ForceLiquidate(call.Symbol, call.Price, date); err != nil {
				c.log.Error().Err(err).Str("symbol", call.Symbol).Msg("liquidation failed")
			}
		}

		// 3) Mark to market; daily return starts on day two.
		val, err := c.ledger.SnapshotEquity(prices, date)
		if err != nil {
			return nil, err
		}
		if n := len(res.PortfolioValues); n > 0 {
			prev := res.PortfolioValues[n-1].NetWorth
			if prev > 0 {
				res.Returns = append(res.Returns, val.NetWorth/prev-1)
			}
		}
		res.PortfolioValues = append(res.PortfolioValues, ValuePoint{Date: date, Valuation: val})

		// 4-6) Signals, constraints, execution.
		for _, symbol := range symbols {
			reg := c.strategies[symbol]
			if _, ok := barsByDay[symbol][date]; !ok {
				continue
			}
			price := prices[symbol]

			sig := reg.fn(symbol, reg.history, price)
			if sig == nil || sig.Action == strategy.Hold {
				continue
			}
			if err := sig.Normalize(); err != nil {
				c.log.Error().Err(err).Str("symbol", symbol).Msg("dropping malformed signal")
				continue
			}
			res.Signals.Generated++

			if reason := c.checkConstraints(symbol, *sig, prices); reason != "" {
				c.reject(res, date, symbol, *sig, reason)
				continue
			}

			c.execute(res, date, symbol, *sig, price, prices)
		}

		// 7) Rolling sector exposure as a share of net worth.
		if exp := c.sectorExposures(prices); len(exp) > 0 {
			res.SectorExposures = append(res.SectorExposures, SectorExposure{Date: date, Exposures: exp})
		}

		// 8) Rebalance drift detection; no corrective trades are generated.
		res.Rebalances = append(res.Rebalances, c.detectDrift(date, prices)...)
	}

	res.FinalValue = res.PortfolioValues[len(res.PortfolioValues)-1].NetWorth
	res.Trades = c.ledger.Trades()

	values := make([]float64, len(res.PortfolioValues))
	for i, v := range res.PortfolioValues {
		values[i] = v.NetWorth
	}
	res.Metrics = computeMetrics(values, res.Returns, c.cfg.RiskFreeRate)

	c.log.Info().
		Int("days", res.Period.Days).
		Int("trades", len(res.Trades)).
		Int("rejected", res.Signals.Rejected).
		Float64("final_value", res.FinalValue).
		Msg("backtest complete")

	return res, nil
}

// checkConstraints evaluates the portfolio-level limits in fixed order and
// returns the first violation's reason, or "" when the signal may proceed.
func (c *Coordinator) checkConstraints(symbol string, sig strategy.Signal, prices map[string]float64) string {
	if !sig.Action.Opens() {
		return ""
	}

	// (a) Max concurrent positions. Applies to every BUY/SHORT at capacity,
	// including adds to positions already held.
	if c.ledger.OpenPositions() >= c.cfg.MaxPositions {
		return reasonMaxPositions
	}

	// (b) Sector exposure ceiling.
	sector := c.sectorOf(symbol)
	if c.sectorExposures(prices)[sector] >= c.cfg.MaxSectorExposure {
		return reasonSectorExposure
	}

	// (c) Correlation with existing longs, BUY only.
	if sig.Action == strategy.Buy && c.averageCorrelation(symbol) > c.cfg.CorrelationLimit {
		return reasonCorrelation
	}

	return ""
}

// averageCorrelation is the mean absolute correlation between the symbol's
// close history and each existing long position's history. Pairs with fewer
// than 20 overlapping points contribute zero.
func (c *Coordinator) averageCorrelation(symbol string) float64 {
	reg := c.strategies[symbol]
	held := c.ledger.LongSymbols()

	sum, n := 0.0, 0
	for _, other := range held {
		if other == symbol {
			continue
		}
		otherReg, ok := c.strategies[other]
		if !ok {
			continue
		}
		sum += math.Abs(correlation(reg.closes, otherReg.closes))
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// execute sizes and places one surviving signal, recording a rejection when
// the ledger refuses it.
func (c *Coordinator) execute(res *Result, date time.Time, symbol string, sig strategy.Signal, price float64, prices map[string]float64) {
	var err error

	switch sig.Action {
	case strategy.Buy, strategy.Short:
		confidence := sig.Confidence
		if confidence == 0 {
			confidence = defaultConfidence
		}
		netWorth := c.ledger.Valuation(prices).NetWorth
		target := netWorth * c.cfg.MaxPositionSizePct * confidence
		shares := math.Floor(target / price)
		if shares < 1 {
			c.reject(res, date, symbol, sig, reasonPositionSize)
			return
		}
		if sig.Action == strategy.Buy {
			_, err = c.ledger.EnterLong(symbol, shares, price, date)
		} else {
			_, err = c.ledger.EnterShort(symbol, shares, price, date)
		}

	case strategy.Sell:
		_, err = c.ledger.ExitLongAll(symbol, price, date)

	case strategy.Cover:
		_, err = c.ledger.ExitShortAll(symbol, price, date)
	}

	if err != nil {
		if portfolio.IsRejection(err) {
			c.reject(res, date, symbol, sig, rejectionReason(err))
			return
		}
		c.log.Error().Err(err).Str("symbol", symbol).Msg("trade failed")
		c.reject(res, date, symbol, sig, err.Error())
		return
	}
	res.Signals.Executed++
}

func (c *Coordinator) reject(res *Result, date time.Time, symbol string, sig strategy.Signal, reason string) {
	res.Signals.Rejected++
	res.Signals.RejectionReasons[reason]++
	res.Signals.Rejections = append(res.Signals.Rejections, Rejection{
		Date:       date,
		Symbol:     symbol,
		Action:     sig.Action,
		Confidence: sig.Confidence,
		Reason:     reason,
	})
	c.log.Debug().
		Str("symbol", symbol).
		Str("action", string(sig.Action)).
		Str("reason", reason).
		Msg("signal rejected")
}

// sectorExposures maps each sector to its share of net worth, counting long
// market value and short liability as exposure.
func (c *Coordinator) sectorExposures(prices map[string]float64) map[string]float64 {
	val := c.ledger.Valuation(prices)
	if val.NetWorth <= 0 {
		return nil
	}

	out := make(map[string]float64)
	for _, symbol := range c.ledger.LongSymbols() {
		pos, _ := c.ledger.LongPosition(symbol)
		out[c.sectorOf(symbol)] += pos.Shares * priceOr(prices, symbol, pos.CostBasis) / val.NetWorth
	}
	for _, symbol := range c.ledger.ShortSymbols() {
		pos, _ := c.ledger.ShortPosition(symbol)
		out[c.sectorOf(symbol)] += pos.Shares * priceOr(prices, symbol, pos.EntryPrice) / val.NetWorth
	}
	return out
}

// detectDrift flags long positions whose weight within the long book has
// drifted beyond the rebalance threshold from the equal-weight target.
func (c *Coordinator) detectDrift(date time.Time, prices map[string]float64) []RebalanceEvent {
	symbols := c.ledger.LongSymbols()
	if len(symbols) < 2 {
		return nil
	}

	total := 0.0
	values := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		pos, _ := c.ledger.LongPosition(symbol)
		v := pos.Shares * priceOr(prices, symbol, pos.CostBasis)
		values[symbol] = v
		total += v
	}
	if total <= 0 {
		return nil
	}

	target := 1 / float64(len(symbols))
	var events []RebalanceEvent
	for _, symbol := range symbols {
		weight := values[symbol] / total
		if math.Abs(weight-target) > c.cfg.RebalanceThreshold {
			events = append(events, RebalanceEvent{Date: date, Symbol: symbol, Weight: weight, Target: target})
			c.log.Debug().
				Str("symbol", symbol).
				Float64("weight", weight).
				Float64("target", target).
				Msg("rebalance drift")
		}
	}
	return events
}

func (c *Coordinator) sectorOf(symbol string) string {
	if reg, ok := c.strategies[symbol]; ok && reg.profile.Sector != "" {
		return reg.profile.Sector
	}
	return "Unknown"
}

func (c *Coordinator) sortedSymbols() []string {
	out := make([]string, 0, len(c.strategies))
	for s := range c.strategies {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func priceOr(prices map[string]float64, symbol string, fallback float64) float64 {
	if p, ok := prices[symbol]; ok && p > 0 {
		return p
	}
	return fallback
}

// indexBars buckets bars by symbol and calendar day, restricted to [start,
// end], and returns the sorted union of trading days. Zero bounds leave the
// window open on that side.
func indexBars(data map[string][]market.Bar, start, end time.Time) (map[string]map[time.Time]market.Bar, []time.Time) {
	byDay := make(map[string]map[time.Time]market.Bar, len(data))
	daySet := make(map[time.Time]struct{})

	for symbol, bars := range data {
		m := make(map[time.Time]market.Bar, len(bars))
		for _, b := range bars {
			day := market.Day(b.Time)
			if !start.IsZero() && day.Before(market.Day(start)) {
				continue
			}
			if !end.IsZero() && day.After(market.Day(end)) {
				continue
			}
			m[day] = b
			daySet[day] = struct{}{}
		}
		byDay[symbol] = m
	}

	dates := make([]time.Time, 0, len(daySet))
	for d := range daySet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return byDay, dates
}

// rejectionReason maps ledger sentinels to stable rejection strings.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, portfolio.ErrInsufficientFunds):
		return "Insufficient funds"
	case errors.Is(err, portfolio.ErrInsufficientMargin):
		return "Insufficient margin"
	case errors.Is(err, portfolio.ErrInsufficientShares):
		return "Insufficient shares"
	case errors.Is(err, portfolio.ErrNoPosition):
		return "No position"
	}
	return err.Error()
}
