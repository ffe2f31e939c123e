package backtest

import "math"

// tradingDaysPerYear is the annualization base for daily return series.
const tradingDaysPerYear = 252

// computeMetrics derives the run's risk/performance statistics from the
// portfolio value series and its daily returns.
func computeMetrics(values, returns []float64, riskFreeRate float64) Metrics {
	var m Metrics
	if len(values) < 2 {
		return m
	}

	initial := values[0]
	final := values[len(values)-1]
	if initial > 0 {
		m.TotalReturn = final/initial - 1
	}

	if len(returns) > 0 && initial > 0 && final > 0 {
		m.AnnualizedReturn = math.Pow(final/initial, tradingDaysPerYear/float64(len(returns))) - 1
	}

	m.Volatility = sampleStdDev(returns) * math.Sqrt(tradingDaysPerYear)
	if m.Volatility > 0 {
		m.SharpeRatio = (m.AnnualizedReturn - riskFreeRate) / m.Volatility
	}

	downside := downsideDeviation(returns) * math.Sqrt(tradingDaysPerYear)
	if downside > 0 {
		m.SortinoRatio = (m.AnnualizedReturn - riskFreeRate) / downside
	}

	m.MaxDrawdown = MaxDrawdown(values)

	wins, losses := 0, 0
	for _, r := range returns {
		if r > 0 {
			wins++
		} else if r < 0 {
			losses++
		}
	}
	if wins+losses > 0 {
		m.WinRate = float64(wins) / float64(wins+losses)
	}

	return m
}

// MaxDrawdown is the largest peak-to-trough decline in the value series,
// as a fraction of the running peak.
func MaxDrawdown(values []float64) float64 {
	peak := 0.0
	maxDD := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (peak - v) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// sampleStdDev is the n−1 sample standard deviation.
func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	variance := 0.0
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	variance /= float64(len(xs) - 1)
	return math.Sqrt(variance)
}

// downsideDeviation is the sample standard deviation of the negative
// returns only.
func downsideDeviation(returns []float64) float64 {
	var neg []float64
	for _, r := range returns {
		if r < 0 {
			neg = append(neg, r)
		}
	}
	return sampleStdDev(neg)
}
