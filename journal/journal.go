// Package journal persists executed trades and end-of-day portfolio
// snapshots. Backends: CSV files, SQLite, or Nop for runs that only need the
// in-memory result.
package journal

import "time"

// TradeRecord is one executed trade, written once and never mutated.
type TradeRecord struct {
	TradeID    string
	Time       time.Time
	Symbol     string
	Action     string // BUY, SELL, SHORT, COVER
	Shares     float64
	Price      float64 // actual fill after slippage
	Commission float64
	Interest   float64 // short interest paid, COVER only
	RealizedPL float64
	Forced     bool // true for margin-call liquidations
}

// Snapshot is the portfolio state at the end of one trading day.
type Snapshot struct {
	Time           time.Time
	Cash           float64
	LongValue      float64
	ShortLiability float64
	MarginBalance  float64
	TotalAssets    float64
	NetWorth       float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordSnapshot(Snapshot) error
	Close() error
}

// Nop discards everything. Used when no persistence is configured.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error { return nil }
func (Nop) RecordSnapshot(Snapshot) error { return nil }
func (Nop) Close() error                  { return nil }
