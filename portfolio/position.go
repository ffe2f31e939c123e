package portfolio

import "time"

// LongPosition aggregates all long exposure in one symbol. The cost basis is
// the quantity-weighted average fill price across adds.
type LongPosition struct {
	Symbol    string  `json:"symbol"`
	Shares    float64 `json:"shares"`
	CostBasis float64 `json:"cost_basis"`
}

// ShortPosition aggregates all short exposure in one symbol. EntryPrice is
// the quantity-weighted average fill; MarginHeld is the slice of the posted
// margin balance backing this position. EntryDate is the date of the first
// entry and anchors the short-interest calculation.
type ShortPosition struct {
	Symbol     string    `json:"symbol"`
	Shares     float64   `json:"shares"`
	EntryPrice float64   `json:"entry_price"`
	MarginHeld float64   `json:"margin_held"`
	EntryDate  time.Time `json:"entry_date"`
}

// Trade is one immutable entry in the append-only trade log.
type Trade struct {
	ID         string    `json:"id"`
	Time       time.Time `json:"date"`
	Symbol     string    `json:"symbol"`
	Action     string    `json:"action"`
	Shares     float64   `json:"shares"`
	Price      float64   `json:"price"` // actual fill after slippage
	Commission float64   `json:"commission"`
	Interest   float64   `json:"interest,omitempty"`
	RealizedPL float64   `json:"realized_pl,omitempty"`
	Forced     bool      `json:"forced,omitempty"`
}

// Trade actions as they appear in trade records and journals.
const (
	ActionBuy   = "BUY"
	ActionSell  = "SELL"
	ActionShort = "SHORT"
	ActionCover = "COVER"
)

// MarginCall flags a short position whose posted margin has fallen below the
// maintenance threshold relative to current market value. Detection only;
// liquidation is a separate, explicit step.
type MarginCall struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Price  float64   `json:"price"`
	Ratio  float64   `json:"ratio"` // margin_held / (shares * price)
}

// Valuation is the mark-to-market portfolio state at one set of prices.
type Valuation struct {
	Cash           float64 `json:"cash"`
	LongValue      float64 `json:"long_value"`
	ShortLiability float64 `json:"short_liability"`
	MarginBalance  float64 `json:"margin_balance"`
	TotalAssets    float64 `json:"total_assets"`
	NetWorth       float64 `json:"net_worth"`
}
