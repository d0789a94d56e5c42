package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Autocovariances returns the biased sample autocovariances of x for lags
// 0 to maxLag (divided by n). maxLag is capped at len(x)-1.
func Autocovariances(x []float64, maxLag int) []float64 {
	n := len(x)
	if n == 0 || maxLag < 0 {
		return nil
	}
	if maxLag >= n {
		maxLag = n - 1
	}

	centered := make([]float64, n)
	copy(centered, x)
	floats.AddConst(-stat.Mean(x, nil), centered)

	out := make([]float64, maxLag+1)
	for k := range out {
		out[k] = floats.Dot(centered[k:], centered[:n-k]) / float64(n)
	}
	return out
}

// ACF calculates the autocorrelation function for lags 0 to maxLag.
// Returns nil for a constant or empty series.
func ACF(x []float64, maxLag int) []float64 {
	cov := Autocovariances(x, maxLag)
	if len(cov) == 0 || cov[0] == 0 {
		return nil
	}
	floats.Scale(1/cov[0], cov)
	return cov
}

// ConfidenceBound returns the approximate 95% bound for sample
// autocorrelations of white noise of length n.
func ConfidenceBound(n int) float64 {
	if n <= 0 {
		return math.Inf(1)
	}
	return 1.96 / math.Sqrt(float64(n))
}
