// Package portfolio implements the single-asset ledger: cash, long and short
// position books, posted margin, and trade execution under commission,
// slippage, margin and short-interest frictions.
//
// The ledger never drives cash negative and never throws for expected
// trading outcomes: insufficient funds, insufficient margin, missing
// positions and oversized exits are all returned as sentinel errors so the
// caller can record the rejection and keep running.
package portfolio

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/ksfraser/equitysim/journal"
	"github.com/ksfraser/equitysim/pkg/id"
)

// shareEpsilon absorbs float drift when comparing share counts.
const shareEpsilon = 1e-9

// Ledger owns all mutable portfolio state for one run. Not safe for
// concurrent use; each run gets its own instance.
type Ledger struct {
	costs  Costs
	cash   float64
	longs  map[string]*LongPosition
	shorts map[string]*ShortPosition
	margin float64 // invariant: margin == sum of shorts[*].MarginHeld
	trades []Trade

	journal journal.Journal
	log     zerolog.Logger
}

// New creates a ledger with the given starting cash. A nil journal disables
// persistence.
func New(cash float64, costs Costs, j journal.Journal, logger zerolog.Logger) (*Ledger, error) {
	if cash <= 0 {
		return nil, fmt.Errorf("initial cash must be positive, got %v: %w", cash, ErrInvalidArgument)
	}
	if err := costs.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidArgument)
	}
	if j == nil {
		j = journal.Nop{}
	}
	return &Ledger{
		costs:   costs,
		cash:    cash,
		longs:   make(map[string]*LongPosition),
		shorts:  make(map[string]*ShortPosition),
		journal: j,
		log:     logger,
	}, nil
}

// EnterLong buys shares at price plus slippage. Fails with
// ErrInsufficientFunds when the total cost exceeds available cash; on
// success the position is merged into any existing long at a
// quantity-weighted average cost basis.
func (l *Ledger) EnterLong(symbol string, shares, price float64, date time.Time) (*Trade, error) {
	if err := validateOrder(symbol, shares, price, date); err != nil {
		return nil, err
	}

	fill := price * (1 + l.costs.SlippageRate)
	gross := shares * fill
	commission := gross * l.costs.CommissionRate
	total := gross + commission

	if total > l.cash {
		return nil, fmt.Errorf("enter long %s: cost %.2f exceeds cash %.2f: %w",
			symbol, total, l.cash, ErrInsufficientFunds)
	}

	l.cash -= total

	pos, ok := l.longs[symbol]
	if !ok {
		l.longs[symbol] = &LongPosition{Symbol: symbol, Shares: shares, CostBasis: fill}
	} else {
		newShares := pos.Shares + shares
		pos.CostBasis = (pos.Shares*pos.CostBasis + shares*fill) / newShares
		pos.Shares = newShares
	}

	return l.record(Trade{
		Time:       date,
		Symbol:     symbol,
		Action:     ActionBuy,
		Shares:     shares,
		Price:      fill,
		Commission: commission,
	})
}

// ExitLong sells shares at price minus slippage and realizes P&L against the
// weighted-average cost basis. The position is removed once fully closed.
func (l *Ledger) ExitLong(symbol string, shares, price float64, date time.Time) (*Trade, error) {
	if err := validateOrder(symbol, shares, price, date); err != nil {
		return nil, err
	}

	pos, ok := l.longs[symbol]
	if !ok {
		return nil, fmt.Errorf("exit long %s: %w", symbol, ErrNoPosition)
	}
	if shares > pos.Shares+shareEpsilon {
		return nil, fmt.Errorf("exit long %s: want %v shares, hold %v: %w",
			symbol, shares, pos.Shares, ErrInsufficientShares)
	}

	fill := price * (1 - l.costs.SlippageRate)
	gross := shares * fill
	commission := gross * l.costs.CommissionRate
	proceeds := gross - commission
	pl := proceeds - shares*pos.CostBasis

	l.cash += proceeds
	pos.Shares -= shares
	if pos.Shares <= shareEpsilon {
		delete(l.longs, symbol)
	}

	return l.record(Trade{
		Time:       date,
		Symbol:     symbol,
		Action:     ActionSell,
		Shares:     shares,
		Price:      fill,
		Commission: commission,
		RealizedPL: pl,
	})
}

// ExitLongAll closes the entire long position in symbol.
func (l *Ledger) ExitLongAll(symbol string, price float64, date time.Time) (*Trade, error) {
	pos, ok := l.longs[symbol]
	if !ok {
		return nil, fmt.Errorf("exit long %s: %w", symbol, ErrNoPosition)
	}
	return l.ExitLong(symbol, pos.Shares, price, date)
}

// EnterShort sells short at price minus slippage. The full margin
// requirement must be postable: the sale's net proceeds are locked directly
// into the margin balance and the shortfall is locked from cash. Fails with
// ErrInsufficientMargin when cash cannot cover the requirement.
func (l *Ledger) EnterShort(symbol string, shares, price float64, date time.Time) (*Trade, error) {
	if err := validateOrder(symbol, shares, price, date); err != nil {
		return nil, err
	}

	fill := price * (1 - l.costs.SlippageRate)
	gross := shares * fill
	commission := gross * l.costs.CommissionRate
	netProceeds := gross - commission
	required := gross * l.costs.MarginRequirement

	if required > l.cash {
		return nil, fmt.Errorf("enter short %s: margin %.2f exceeds cash %.2f: %w",
			symbol, required, l.cash, ErrInsufficientMargin)
	}

	// Proceeds fund part of the margin; only the shortfall leaves cash.
	l.cash -= required - netProceeds
	l.margin += required

	pos, ok := l.shorts[symbol]
	if !ok {
		l.shorts[symbol] = &ShortPosition{
			Symbol:     symbol,
			Shares:     shares,
			EntryPrice: fill,
			MarginHeld: required,
			EntryDate:  date,
		}
	} else {
		newShares := pos.Shares + shares
		pos.EntryPrice = (pos.Shares*pos.EntryPrice + shares*fill) / newShares
		pos.Shares = newShares
		pos.MarginHeld += required
	}

	return l.record(Trade{
		Time:       date,
		Symbol:     symbol,
		Action:     ActionShort,
		Shares:     shares,
		Price:      fill,
		Commission: commission,
	})
}

// ExitShort buys back shares at price plus slippage, charges short interest
// for the calendar days held, and releases margin proportional to the share
// count covered.
func (l *Ledger) ExitShort(symbol string, shares, price float64, date time.Time) (*Trade, error) {
	return l.exitShort(symbol, shares, price, date, false)
}

// ExitShortAll covers the entire short position in symbol.
func (l *Ledger) ExitShortAll(symbol string, price float64, date time.Time) (*Trade, error) {
	pos, ok := l.shorts[symbol]
	if !ok {
		return nil, fmt.Errorf("exit short %s: %w", symbol, ErrNoPosition)
	}
	return l.exitShort(symbol, pos.Shares, price, date, false)
}

func (l *Ledger) exitShort(symbol string, shares, price float64, date time.Time, forced bool) (*Trade, error) {
	if err := validateOrder(symbol, shares, price, date); err != nil {
		return nil, err
	}

	pos, ok := l.shorts[symbol]
	if !ok {
		return nil, fmt.Errorf("exit short %s: %w", symbol, ErrNoPosition)
	}
	if shares > pos.Shares+shareEpsilon {
		return nil, fmt.Errorf("exit short %s: want %v shares, hold %v: %w",
			symbol, shares, pos.Shares, ErrInsufficientShares)
	}

	fill := price * (1 + l.costs.SlippageRate)
	cost := shares * fill
	commission := cost * l.costs.CommissionRate

	daysHeld := calendarDays(pos.EntryDate, date)
	interest := shares * pos.EntryPrice * (l.costs.ShortInterestRate / 365) * float64(daysHeld)

	entryValue := shares * pos.EntryPrice
	pl := entryValue - (cost + commission + interest)

	release := pos.MarginHeld * (shares / pos.Shares)
	delta := release - (cost + commission + interest)

	if l.cash+delta < 0 {
		return nil, fmt.Errorf("exit short %s: buyback %.2f exceeds released margin %.2f plus cash %.2f: %w",
			symbol, cost+commission+interest, release, l.cash, ErrInsufficientFunds)
	}

	l.cash += delta
	l.margin -= release
	pos.MarginHeld -= release
	pos.Shares -= shares
	if pos.Shares <= shareEpsilon {
		// Any residual margin cents from float drift go back to cash.
		l.cash += pos.MarginHeld
		l.margin -= pos.MarginHeld
		delete(l.shorts, symbol)
	}

	return l.record(Trade{
		Time:       date,
		Symbol:     symbol,
		Action:     ActionCover,
		Shares:     shares,
		Price:      fill,
		Commission: commission,
		Interest:   interest,
		RealizedPL: pl,
		Forced:     forced,
	})
}

// CheckMarginRequirements flags every short position whose margin ratio
// (margin held over current market value) has fallen below the maintenance
// threshold. Detection only: no position is touched. Symbols without a
// quote are skipped. Results are sorted by symbol for determinism.
func (l *Ledger) CheckMarginRequirements(prices map[string]float64, date time.Time) []MarginCall {
	var calls []MarginCall
	for symbol, pos := range l.shorts {
		price, ok := prices[symbol]
		if !ok || price <= 0 {
			continue
		}
		ratio := pos.MarginHeld / (pos.Shares * price)
		if ratio < l.costs.MarginCallThreshold {
			calls = append(calls, MarginCall{Symbol: symbol, Date: date, Price: price, Ratio: ratio})
		}
	}
	sort.Slice(calls, func(i, j int) bool { return calls[i].Symbol < calls[j].Symbol })
	return calls
}

// ForceLiquidate covers the full short position at a penalized execution
// price, strictly worse than the quote. The resulting trade is tagged forced.
func (l *Ledger) ForceLiquidate(symbol string, price float64, date time.Time) (*Trade, error) {
	pos, ok := l.shorts[symbol]
	if !ok {
		return nil, fmt.Errorf("force liquidate %s: %w", symbol, ErrNoPosition)
	}
	penalized := price * (1 + l.costs.LiquidationPenalty)
	t, err := l.exitShort(symbol, pos.Shares, penalized, date, true)
	if err != nil {
		return nil, err
	}
	l.log.Warn().
		Str("symbol", symbol).
		Float64("price", t.Price).
		Float64("realized_pl", t.RealizedPL).
		Msg("forced liquidation")
	return t, nil
}

// Valuation marks the portfolio to market. Positions without a quote fall
// back to their entry price. Pure: repeated calls with the same prices and
// no intervening trades return identical values.
func (l *Ledger) Valuation(prices map[string]float64) Valuation {
	v := Valuation{Cash: l.cash, MarginBalance: l.margin}

	for symbol, pos := range l.longs {
		price, ok := prices[symbol]
		if !ok || price <= 0 {
			price = pos.CostBasis
		}
		v.LongValue += pos.Shares * price
	}
	for symbol, pos := range l.shorts {
		price, ok := prices[symbol]
		if !ok || price <= 0 {
			price = pos.EntryPrice
		}
		v.ShortLiability += pos.Shares * price
	}

	v.TotalAssets = v.Cash + v.LongValue + v.MarginBalance
	v.NetWorth = v.TotalAssets - v.ShortLiability
	return v
}

// SnapshotEquity values the portfolio and records the snapshot to the
// journal.
func (l *Ledger) SnapshotEquity(prices map[string]float64, date time.Time) (Valuation, error) {
	v := l.Valuation(prices)
	err := l.journal.RecordSnapshot(journal.Snapshot{
		Time:           date,
		Cash:           v.Cash,
		LongValue:      v.LongValue,
		ShortLiability: v.ShortLiability,
		MarginBalance:  v.MarginBalance,
		TotalAssets:    v.TotalAssets,
		NetWorth:       v.NetWorth,
	})
	return v, err
}

// Cash returns the free cash balance.
func (l *Ledger) Cash() float64 { return l.cash }

// MarginBalance returns the aggregate posted margin.
func (l *Ledger) MarginBalance() float64 { return l.margin }

// Trades returns the append-only trade log.
func (l *Ledger) Trades() []Trade { return l.trades }

// LongPosition returns the aggregated long position in symbol, if any.
func (l *Ledger) LongPosition(symbol string) (LongPosition, bool) {
	pos, ok := l.longs[symbol]
	if !ok {
		return LongPosition{}, false
	}
	return *pos, true
}

// ShortPosition returns the aggregated short position in symbol, if any.
func (l *Ledger) ShortPosition(symbol string) (ShortPosition, bool) {
	pos, ok := l.shorts[symbol]
	if !ok {
		return ShortPosition{}, false
	}
	return *pos, true
}

// LongSymbols returns the symbols with open long positions, sorted.
func (l *Ledger) LongSymbols() []string {
	out := make([]string, 0, len(l.longs))
	for s := range l.longs {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ShortSymbols returns the symbols with open short positions, sorted.
func (l *Ledger) ShortSymbols() []string {
	out := make([]string, 0, len(l.shorts))
	for s := range l.shorts {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// OpenPositions counts open positions; a symbol held both long and short
// counts twice, the books are independent.
func (l *Ledger) OpenPositions() int {
	return len(l.longs) + len(l.shorts)
}

func (l *Ledger) record(t Trade) (*Trade, error) {
	t.ID = id.New()
	l.trades = append(l.trades, t)

	l.log.Debug().
		Str("symbol", t.Symbol).
		Str("action", t.Action).
		Float64("shares", t.Shares).
		Float64("price", t.Price).
		Float64("cash", l.cash).
		Msg("trade executed")

	err := l.journal.RecordTrade(journal.TradeRecord{
		TradeID:    t.ID,
		Time:       t.Time,
		Symbol:     t.Symbol,
		Action:     t.Action,
		Shares:     t.Shares,
		Price:      t.Price,
		Commission: t.Commission,
		Interest:   t.Interest,
		RealizedPL: t.RealizedPL,
		Forced:     t.Forced,
	})
	if err != nil {
		return nil, fmt.Errorf("journal trade: %w", err)
	}
	return &l.trades[len(l.trades)-1], nil
}

func validateOrder(symbol string, shares, price float64, date time.Time) error {
	if symbol == "" {
		return fmt.Errorf("empty symbol: %w", ErrInvalidArgument)
	}
	if shares <= 0 || math.IsNaN(shares) || math.IsInf(shares, 0) {
		return fmt.Errorf("shares must be positive, got %v: %w", shares, ErrInvalidArgument)
	}
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("price must be positive, got %v: %w", price, ErrInvalidArgument)
	}
	if date.IsZero() {
		return fmt.Errorf("zero date: %w", ErrInvalidArgument)
	}
	return nil
}

// calendarDays counts whole calendar days from entry to exit.
func calendarDays(entry, exit time.Time) int {
	d := int(exit.Sub(entry).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
