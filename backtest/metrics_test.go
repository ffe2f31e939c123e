package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxDrawdown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"peak to trough", []float64{100, 120, 90, 110}, 0.25},
		{"monotonic rise", []float64{100, 110, 120}, 0},
		{"monotonic fall", []float64{100, 80, 60}, 0.4},
		{"recovers past peak", []float64{100, 90, 130, 117}, 0.1},
		{"empty", nil, 0},
		{"single point", []float64{100}, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, MaxDrawdown(tt.values), 1e-9)
		})
	}
}

func TestComputeMetrics_TotalAndAnnualizedReturn(t *testing.T) {
	t.Parallel()

	values := []float64{100_000, 110_000, 121_000}
	returns := []float64{0.1, 0.1}
	m := computeMetrics(values, returns, 0.02)

	assert.InDelta(t, 0.21, m.TotalReturn, 1e-9)
	// (1.21)^(252/2) - 1
	want := math.Pow(1.21, 126) - 1
	assert.InDelta(t, want, m.AnnualizedReturn, want*1e-9)
	assert.InDelta(t, 1.0, m.WinRate, 1e-9)

	// Constant returns have zero sample deviation, so the ratios stay zero
	// rather than dividing by zero.
	assert.Zero(t, m.Volatility)
	assert.Zero(t, m.SharpeRatio)
	assert.Zero(t, m.SortinoRatio)
}

func TestComputeMetrics_VolatilityAndSharpe(t *testing.T) {
	t.Parallel()

	values := []float64{100, 101, 99.99}
	returns := []float64{0.01, -0.01}
	m := computeMetrics(values, returns, 0)

	// Sample stddev of {0.01, -0.01} is sqrt(2e-4), annualized by sqrt(252).
	wantVol := math.Sqrt(2e-4) * math.Sqrt(252)
	assert.InDelta(t, wantVol, m.Volatility, 1e-9)
	assert.InDelta(t, m.AnnualizedReturn/wantVol, m.SharpeRatio, 1e-9)
}

func TestComputeMetrics_SortinoUsesDownsideOnly(t *testing.T) {
	t.Parallel()

	returns := []float64{0.05, -0.01, 0.05, -0.03}
	values := make([]float64, len(returns)+1)
	values[0] = 100
	for i, r := range returns {
		values[i+1] = values[i] * (1 + r)
	}

	m := computeMetrics(values, returns, 0)

	assert.Greater(t, m.AnnualizedReturn, 0.0)
	assert.Greater(t, m.SortinoRatio, 0.0)
	// Downside deviation ignores the positive outliers, so Sortino exceeds
	// Sharpe for this series.
	assert.Greater(t, m.SortinoRatio, m.SharpeRatio)
}

func TestComputeMetrics_WinRateSkipsFlatDays(t *testing.T) {
	t.Parallel()

	returns := []float64{0.1, -0.05, 0.02, 0}
	values := []float64{100, 110, 104.5, 106.59, 106.59}
	m := computeMetrics(values, returns, 0)

	assert.InDelta(t, 2.0/3, m.WinRate, 1e-9)
}

func TestComputeMetrics_DegenerateInput(t *testing.T) {
	t.Parallel()

	assert.Zero(t, computeMetrics(nil, nil, 0))
	assert.Zero(t, computeMetrics([]float64{100}, nil, 0))
}

func TestCorrelation(t *testing.T) {
	t.Parallel()

	ramp := make([]float64, 25)
	inverse := make([]float64, 25)
	flat := make([]float64, 25)
	for i := range ramp {
		ramp[i] = 100 + float64(i)
		inverse[i] = 200 - float64(i)
		flat[i] = 100
	}

	assert.InDelta(t, 1, correlation(ramp, ramp), 1e-9)
	assert.InDelta(t, -1, correlation(ramp, inverse), 1e-9)
	assert.Zero(t, correlation(ramp, flat))

	// Fewer than 20 overlapping points counts as uncorrelated.
	assert.Zero(t, correlation(ramp[:10], ramp[:10]))
}
