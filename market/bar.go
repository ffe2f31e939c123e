// Package market defines the OHLCV bar data consumed by the backtest engine
// and loaders that read bar series from CSV files.
package market

import (
	"fmt"
	"sort"
	"time"
)

// Bar represents one OHLCV (Open, High, Low, Close, Volume) bar.
type Bar struct {
	Time   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// ParseDate parses an ISO-8601 date. Both plain dates (2024-01-02) and full
// RFC3339 timestamps are accepted; bar times are normalized to UTC.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: %w", s, err)
	}
	return t.UTC(), nil
}

// Day truncates a timestamp to its UTC calendar day. The day loop keys all
// per-symbol lookups by Day so intraday timestamps collapse onto one bar.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SortBars orders bars ascending by time, in place.
func SortBars(bars []Bar) {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
}

// ValidateBars checks a series is usable as backtest input: non-empty,
// strictly ascending timestamps, and positive close prices.
func ValidateBars(symbol string, bars []Bar) error {
	if len(bars) == 0 {
		return fmt.Errorf("%s: empty bar series", symbol)
	}
	for i, b := range bars {
		if b.Time.IsZero() {
			return fmt.Errorf("%s: bar %d has no timestamp", symbol, i)
		}
		if b.Close <= 0 {
			return fmt.Errorf("%s: bar %d (%s) has non-positive close %v",
				symbol, i, b.Time.Format("2006-01-02"), b.Close)
		}
		if i > 0 && !bars[i-1].Time.Before(b.Time) {
			return fmt.Errorf("%s: bars out of order at %d (%s)",
				symbol, i, b.Time.Format("2006-01-02"))
		}
	}
	return nil
}

// Closes extracts the close prices as a contiguous buffer. Correlation and
// indicator math run over flat float64 slices rather than bar structs.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
