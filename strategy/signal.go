// Package strategy defines the trading-signal contract between user
// strategies and the backtest coordinator, plus a few sample strategies.
package strategy

import (
	"fmt"

	"github.com/ksfraser/equitysim/market"
)

// Action is the tagged signal variant emitted by strategies.
type Action string

const (
	Buy   Action = "BUY"
	Sell  Action = "SELL"
	Short Action = "SHORT"
	Cover Action = "COVER"
	Hold  Action = "HOLD"
)

func (a Action) Valid() bool {
	switch a {
	case Buy, Sell, Short, Cover, Hold:
		return true
	}
	return false
}

// Opens reports whether the action opens new exposure (and is therefore
// subject to portfolio-level entry constraints).
func (a Action) Opens() bool {
	return a == Buy || a == Short
}

// Signal is one strategy decision. Confidence scales the position size;
// zero means "unset" and defaults downstream. Reason is free-form metadata
// carried through to logs and rejection records.
type Signal struct {
	Action     Action  `json:"action"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// Normalize validates a signal once at the boundary: the action must be one
// of the five variants and confidence is clamped into [0, 1].
func (s *Signal) Normalize() error {
	if !s.Action.Valid() {
		return fmt.Errorf("invalid signal action %q", s.Action)
	}
	if s.Confidence < 0 {
		s.Confidence = 0
	}
	if s.Confidence > 1 {
		s.Confidence = 1
	}
	return nil
}

// Func generates a signal for one symbol given all bars up to and including
// the current day. The coordinator guarantees history is look-ahead safe.
// Returning nil means hold.
type Func func(symbol string, history []market.Bar, price float64) *Signal
