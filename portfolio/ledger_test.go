package portfolio

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksfraser/equitysim/journal"
)

type testJournal struct {
	trades    []journal.TradeRecord
	snapshots []journal.Snapshot
	closed    bool
}

func (j *testJournal) RecordTrade(rec journal.TradeRecord) error {
	j.trades = append(j.trades, rec)
	return nil
}

func (j *testJournal) RecordSnapshot(rec journal.Snapshot) error {
	j.snapshots = append(j.snapshots, rec)
	return nil
}

func (j *testJournal) Close() error {
	j.closed = true
	return nil
}

// frictionless keeps the margin mechanics but zeroes commission, slippage
// and interest so cash arithmetic is exact.
func frictionless() Costs {
	return Costs{
		CommissionRate:      0,
		SlippageRate:        0,
		MarginRequirement:   1.5,
		ShortInterestRate:   0,
		MarginCallThreshold: 1.3,
		LiquidationPenalty:  0.05,
	}
}

func newLedger(t *testing.T, cash float64, costs Costs) (*Ledger, *testJournal) {
	t.Helper()
	j := &testJournal{}
	l, err := New(cash, costs, j, zerolog.Nop())
	require.NoError(t, err)
	return l, j
}

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(0, frictionless(), nil, zerolog.Nop())
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = New(-100, frictionless(), nil, zerolog.Nop())
	assert.ErrorIs(t, err, ErrInvalidArgument)

	bad := frictionless()
	bad.MarginRequirement = -1
	_, err = New(10_000, bad, nil, zerolog.Nop())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestEnterLong_UpdatesCashAndPosition(t *testing.T) {
	t.Parallel()
	l, j := newLedger(t, 10_000, frictionless())

	tr, err := l.EnterLong("AAPL", 100, 50, day(0))
	require.NoError(t, err)

	assert.Equal(t, ActionBuy, tr.Action)
	assert.NotEmpty(t, tr.ID)
	assert.InDelta(t, 5000, l.Cash(), 1e-9)

	pos, ok := l.LongPosition("AAPL")
	require.True(t, ok)
	assert.InDelta(t, 100, pos.Shares, 1e-9)
	assert.InDelta(t, 50, pos.CostBasis, 1e-9)

	require.Len(t, j.trades, 1)
	assert.Equal(t, tr.ID, j.trades[0].TradeID)
}

func TestEnterLong_InsufficientFunds(t *testing.T) {
	t.Parallel()
	l, _ := newLedger(t, 10_000, frictionless())

	_, err := l.EnterLong("AAPL", 300, 50, day(0))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.True(t, IsRejection(err))

	assert.InDelta(t, 10_000, l.Cash(), 1e-9)
	_, ok := l.LongPosition("AAPL")
	assert.False(t, ok)
	assert.Empty(t, l.Trades())
}

func TestEnterLong_WeightedAverageBasis(t *testing.T) {
	t.Parallel()
	l, _ := newLedger(t, 20_000, frictionless())

	_, err := l.EnterLong("AAPL", 100, 50, day(0))
	require.NoError(t, err)
	_, err = l.EnterLong("AAPL", 100, 70, day(1))
	require.NoError(t, err)

	pos, ok := l.LongPosition("AAPL")
	require.True(t, ok)
	assert.InDelta(t, 200, pos.Shares, 1e-9)
	assert.InDelta(t, 60, pos.CostBasis, 1e-9)
}

func TestExitLong_RealizesPL(t *testing.T) {
	t.Parallel()
	l, _ := newLedger(t, 10_000, frictionless())

	_, err := l.EnterLong("AAPL", 100, 50, day(0))
	require.NoError(t, err)

	tr, err := l.ExitLong("AAPL", 100, 60, day(5))
	require.NoError(t, err)

	assert.Equal(t, ActionSell, tr.Action)
	assert.InDelta(t, 1000, tr.RealizedPL, 1e-9)
	assert.InDelta(t, 11_000, l.Cash(), 1e-9)

	_, ok := l.LongPosition("AAPL")
	assert.False(t, ok)
}

func TestExitLong_PartialKeepsBasis(t *testing.T) {
	t.Parallel()
	l, _ := newLedger(t, 10_000, frictionless())

	_, err := l.EnterLong("AAPL", 100, 50, day(0))
	require.NoError(t, err)
	_, err = l.ExitLong("AAPL", 40, 55, day(1))
	require.NoError(t, err)

	pos, ok := l.LongPosition("AAPL")
	require.True(t, ok)
	assert.InDelta(t, 60, pos.Shares, 1e-9)
	assert.InDelta(t, 50, pos.CostBasis, 1e-9)
}

func TestExitLong_Rejections(t *testing.T) {
	t.Parallel()
	l, _ := newLedger(t, 10_000, frictionless())

	_, err := l.ExitLong("AAPL", 10, 50, day(0))
	assert.ErrorIs(t, err, ErrNoPosition)

	_, err = l.EnterLong("AAPL", 100, 50, day(0))
	require.NoError(t, err)

	cashBefore := l.Cash()
	_, err = l.ExitLong("AAPL", 150, 50, day(1))
	require.ErrorIs(t, err, ErrInsufficientShares)

	assert.InDelta(t, cashBefore, l.Cash(), 1e-9)
	pos, ok := l.LongPosition("AAPL")
	require.True(t, ok)
	assert.InDelta(t, 100, pos.Shares, 1e-9)
}

func TestLongRoundTrip_FrictionlessRestoresCash(t *testing.T) {
	t.Parallel()
	l, _ := newLedger(t, 10_000, frictionless())

	_, err := l.EnterLong("AAPL", 100, 50, day(0))
	require.NoError(t, err)
	_, err = l.ExitLongAll("AAPL", 50, day(1))
	require.NoError(t, err)

	assert.InDelta(t, 10_000, l.Cash(), 1e-9)
	assert.Zero(t, l.OpenPositions())
}

func TestEnterShort_RequiresFullMarginInCash(t *testing.T) {
	t.Parallel()
	l, _ := newLedger(t, 5000, frictionless())

	// 100 * 50 * 1.5 = 7500 required, only 5000 on hand.
	_, err := l.EnterShort("TSLA", 100, 50, day(0))
	require.ErrorIs(t, err, ErrInsufficientMargin)
	assert.True(t, IsRejection(err))

	assert.InDelta(t, 5000, l.Cash(), 1e-9)
	assert.Zero(t, l.MarginBalance())
	assert.Empty(t, l.Trades())
}

func TestEnterShort_PostsMarginFromProceedsAndCash(t *testing.T) {
	t.Parallel()
	l, _ := newLedger(t, 10_000, frictionless())

	tr, err := l.EnterShort("TSLA", 100, 50, day(0))
	require.NoError(t, err)
	assert.Equal(t, ActionShort, tr.Action)

	// Requirement 7500; proceeds 5000 locked, 2500 pulled from cash.
	assert.InDelta(t, 7500, l.Cash(), 1e-9)
	assert.InDelta(t, 7500, l.MarginBalance(), 1e-9)

	pos, ok := l.ShortPosition("TSLA")
	require.True(t, ok)
	assert.InDelta(t, 100, pos.Shares, 1e-9)
	assert.InDelta(t, 50, pos.EntryPrice, 1e-9)
	assert.InDelta(t, 7500, pos.MarginHeld, 1e-9)
	assert.Equal(t, day(0), pos.EntryDate)
}

func TestShortRoundTrip_FlatPriceRestoresCash(t *testing.T) {
	t.Parallel()
	l, _ := newLedger(t, 10_000, frictionless())

	_, err := l.EnterShort("TSLA", 100, 50, day(0))
	require.NoError(t, err)
	tr, err := l.ExitShortAll("TSLA", 50, day(0))
	require.NoError(t, err)

	assert.Equal(t, ActionCover, tr.Action)
	assert.InDelta(t, 0, tr.RealizedPL, 1e-9)
	assert.InDelta(t, 10_000, l.Cash(), 1e-9)
	assert.Zero(t, l.MarginBalance())
	assert.Zero(t, l.OpenPositions())
}

func TestExitShort_Profit(t *testing.T) {
	t.Parallel()
	l, _ := newLedger(t, 10_000, frictionless())

	_, err := l.EnterShort("TSLA", 100, 50, day(0))
	require.NoError(t, err)
	tr, err := l.ExitShortAll("TSLA", 40, day(0))
	require.NoError(t, err)

	assert.InDelta(t, 1000, tr.RealizedPL, 1e-9)
	assert.InDelta(t, 11_000, l.Cash(), 1e-9)
	assert.Zero(t, l.MarginBalance())
}

func TestExitShort_ChargesCalendarDayInterest(t *testing.T) {
	t.Parallel()
	costs := frictionless()
	costs.ShortInterestRate = 0.0365 // 0.01% per calendar day

	l, _ := newLedger(t, 10_000, costs)

	_, err := l.EnterShort("TSLA", 100, 50, day(0))
	require.NoError(t, err)
	tr, err := l.ExitShortAll("TSLA", 50, day(10))
	require.NoError(t, err)

	// 100 shares * $50 * 0.0001/day * 10 days
	assert.InDelta(t, 5, tr.Interest, 1e-9)
	assert.InDelta(t, -5, tr.RealizedPL, 1e-9)
	assert.InDelta(t, 9995, l.Cash(), 1e-9)
}

func TestExitShort_PartialReleasesProportionalMargin(t *testing.T) {
	t.Parallel()
	l, _ := newLedger(t, 10_000, frictionless())

	_, err := l.EnterShort("TSLA", 100, 50, day(0))
	require.NoError(t, err)
	_, err = l.ExitShort("TSLA", 40, 50, day(0))
	require.NoError(t, err)

	pos, ok := l.ShortPosition("TSLA")
	require.True(t, ok)
	assert.InDelta(t, 60, pos.Shares, 1e-9)
	assert.InDelta(t, 4500, pos.MarginHeld, 1e-9)
	assert.InDelta(t, 4500, l.MarginBalance(), 1e-9)
	assert.InDelta(t, pos.MarginHeld, l.MarginBalance(), 1e-9)
}

func TestExitShort_CashNeverNegative(t *testing.T) {
	t.Parallel()
	l, _ := newLedger(t, 10_000, frictionless())

	_, err := l.EnterShort("TSLA", 100, 50, day(0))
	require.NoError(t, err)
	// Buyback at 160 costs 16000; released margin 7500 plus cash 7500
	// would land at -1000.
	_, err = l.ExitShortAll("TSLA", 160, day(0))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	assert.InDelta(t, 7500, l.Cash(), 1e-9)
	assert.InDelta(t, 7500, l.MarginBalance(), 1e-9)
	pos, ok := l.ShortPosition("TSLA")
	require.True(t, ok)
	assert.InDelta(t, 100, pos.Shares, 1e-9)
}

func TestCheckMarginRequirements(t *testing.T) {
	t.Parallel()
	l, _ := newLedger(t, 20_000, frictionless())

	_, err := l.EnterShort("TSLA", 100, 50, day(0))
	require.NoError(t, err)

	// Margin 7500; at $55 the ratio is 1.36, still above 1.3.
	calls := l.CheckMarginRequirements(map[string]float64{"TSLA": 55}, day(1))
	assert.Empty(t, calls)

	// At $60 the ratio drops to 1.25.
	calls = l.CheckMarginRequirements(map[string]float64{"TSLA": 60}, day(2))
	require.Len(t, calls, 1)
	assert.Equal(t, "TSLA", calls[0].Symbol)
	assert.InDelta(t, 1.25, calls[0].Ratio, 1e-9)
	assert.Equal(t, day(2), calls[0].Date)

	// Detection only.
	_, ok := l.ShortPosition("TSLA")
	assert.True(t, ok)

	// Missing quote is skipped.
	calls = l.CheckMarginRequirements(map[string]float64{}, day(3))
	assert.Empty(t, calls)
}

func TestForceLiquidate_PenalizedPrice(t *testing.T) {
	t.Parallel()
	l, _ := newLedger(t, 20_000, frictionless())

	_, err := l.EnterShort("TSLA", 100, 50, day(0))
	require.NoError(t, err)

	tr, err := l.ForceLiquidate("TSLA", 60, day(5))
	require.NoError(t, err)

	assert.True(t, tr.Forced)
	// 60 * 1.05 penalty, strictly worse than the quote.
	assert.InDelta(t, 63, tr.Price, 1e-9)
	assert.InDelta(t, -1300, tr.RealizedPL, 1e-9)

	_, ok := l.ShortPosition("TSLA")
	assert.False(t, ok)
	assert.Zero(t, l.MarginBalance())
}

func TestForceLiquidate_NoPosition(t *testing.T) {
	t.Parallel()
	l, _ := newLedger(t, 10_000, frictionless())

	_, err := l.ForceLiquidate("TSLA", 60, day(0))
	assert.ErrorIs(t, err, ErrNoPosition)
}

func TestFrictions_AppliedOnLongEntry(t *testing.T) {
	t.Parallel()
	costs := frictionless()
	costs.CommissionRate = 0.001
	costs.SlippageRate = 0.0005

	l, _ := newLedger(t, 10_000, costs)

	tr, err := l.EnterLong("AAPL", 100, 50, day(0))
	require.NoError(t, err)

	fill := 50 * 1.0005
	assert.InDelta(t, fill, tr.Price, 1e-9)
	assert.InDelta(t, 100*fill*0.001, tr.Commission, 1e-9)
	assert.InDelta(t, 10_000-100*fill*1.001, l.Cash(), 1e-9)
}

func TestValuation(t *testing.T) {
	t.Parallel()
	l, _ := newLedger(t, 20_000, frictionless())

	_, err := l.EnterLong("AAPL", 100, 50, day(0)) // cash 15000
	require.NoError(t, err)
	_, err = l.EnterShort("TSLA", 50, 40, day(0)) // margin 3000, cash 14000
	require.NoError(t, err)

	prices := map[string]float64{"AAPL": 60, "TSLA": 30}
	v := l.Valuation(prices)

	assert.InDelta(t, 14_000, v.Cash, 1e-9)
	assert.InDelta(t, 6000, v.LongValue, 1e-9)
	assert.InDelta(t, 1500, v.ShortLiability, 1e-9)
	assert.InDelta(t, 3000, v.MarginBalance, 1e-9)
	assert.InDelta(t, 23_000, v.TotalAssets, 1e-9)
	assert.InDelta(t, 21_500, v.NetWorth, 1e-9)

	// Pure: a second call with the same prices is identical.
	assert.Equal(t, v, l.Valuation(prices))

	// Missing quotes fall back to entry prices.
	fallback := l.Valuation(nil)
	assert.InDelta(t, 5000, fallback.LongValue, 1e-9)
	assert.InDelta(t, 2000, fallback.ShortLiability, 1e-9)
}

func TestSnapshotEquity_RecordsToJournal(t *testing.T) {
	t.Parallel()
	l, j := newLedger(t, 10_000, frictionless())

	_, err := l.EnterLong("AAPL", 100, 50, day(0))
	require.NoError(t, err)

	v, err := l.SnapshotEquity(map[string]float64{"AAPL": 55}, day(1))
	require.NoError(t, err)

	require.Len(t, j.snapshots, 1)
	assert.Equal(t, day(1), j.snapshots[0].Time)
	assert.InDelta(t, v.NetWorth, j.snapshots[0].NetWorth, 1e-9)
}

func TestLongAndShortSameSymbolAreIndependent(t *testing.T) {
	t.Parallel()
	l, _ := newLedger(t, 50_000, frictionless())

	_, err := l.EnterLong("AAPL", 100, 50, day(0))
	require.NoError(t, err)
	_, err = l.EnterShort("AAPL", 50, 50, day(0))
	require.NoError(t, err)

	assert.Equal(t, 2, l.OpenPositions())
	assert.Equal(t, []string{"AAPL"}, l.LongSymbols())
	assert.Equal(t, []string{"AAPL"}, l.ShortSymbols())
}

func TestValidateOrder(t *testing.T) {
	t.Parallel()
	l, _ := newLedger(t, 10_000, frictionless())

	tests := []struct {
		name   string
		symbol string
		shares float64
		price  float64
		date   time.Time
	}{
		{"empty symbol", "", 10, 50, day(0)},
		{"zero shares", "AAPL", 0, 50, day(0)},
		{"negative shares", "AAPL", -5, 50, day(0)},
		{"zero price", "AAPL", 10, 0, day(0)},
		{"negative price", "AAPL", 10, -1, day(0)},
		{"zero date", "AAPL", 10, 50, time.Time{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := l.EnterLong(tt.symbol, tt.shares, tt.price, tt.date)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.False(t, IsRejection(err))
		})
	}
}
