package strategy

import (
	"github.com/ksfraser/equitysim/indicators"
	"github.com/ksfraser/equitysim/market"
)

// SMACross goes long when the fast SMA crosses above the slow SMA and exits
// when it crosses back below. Long/flat only.
func SMACross(fast, slow int) Func {
	return func(symbol string, history []market.Bar, price float64) *Signal {
		closes := market.Closes(history)
		if len(closes) < slow+1 {
			return nil
		}

		fastNow, err := indicators.SMA(closes, fast)
		if err != nil {
			return nil
		}
		slowNow, err := indicators.SMA(closes, slow)
		if err != nil {
			return nil
		}
		fastPrev, err := indicators.SMA(closes[:len(closes)-1], fast)
		if err != nil {
			return nil
		}
		slowPrev, err := indicators.SMA(closes[:len(closes)-1], slow)
		if err != nil {
			return nil
		}

		switch {
		case fastPrev <= slowPrev && fastNow > slowNow:
			return &Signal{Action: Buy, Confidence: 0.6, Reason: "sma cross up"}
		case fastPrev >= slowPrev && fastNow < slowNow:
			return &Signal{Action: Sell, Confidence: 1, Reason: "sma cross down"}
		}
		return nil
	}
}

// MomentumShort shorts a symbol whose return over the lookback window is
// below -threshold and covers once momentum turns positive.
func MomentumShort(lookback int, threshold float64) Func {
	return func(symbol string, history []market.Bar, price float64) *Signal {
		closes := market.Closes(history)
		if len(closes) < lookback+1 {
			return nil
		}

		base := closes[len(closes)-1-lookback]
		if base <= 0 {
			return nil
		}
		momentum := closes[len(closes)-1]/base - 1

		switch {
		case momentum < -threshold:
			return &Signal{Action: Short, Confidence: 0.5, Reason: "negative momentum"}
		case momentum > 0:
			return &Signal{Action: Cover, Confidence: 1, Reason: "momentum recovered"}
		}
		return nil
	}
}

// BuyHold buys once on the first bar it sees and then holds.
func BuyHold(confidence float64) Func {
	bought := false
	return func(symbol string, history []market.Bar, price float64) *Signal {
		if bought {
			return nil
		}
		bought = true
		return &Signal{Action: Buy, Confidence: confidence, Reason: "buy and hold"}
	}
}
