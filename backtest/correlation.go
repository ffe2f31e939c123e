package backtest

import "math"

// minCorrelationPoints is the shortest overlapping window two price series
// need before their correlation counts toward the constraint. Shorter
// overlaps are treated as zero correlation.
const minCorrelationPoints = 20

// correlation computes the Pearson correlation of the overlapping tails of
// two price buffers. Series are aligned at their most recent point.
func correlation(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < minCorrelationPoints {
		return 0
	}
	a = a[len(a)-n:]
	b = b[len(b)-n:]

	meanA, meanB := 0.0, 0.0
	for i := 0; i < n; i++ {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= float64(n)
	meanB /= float64(n)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}
