package stats

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Components is an additive decomposition x = Trend + Seasonal + Remainder.
type Components struct {
	Trend     []float64
	Seasonal  []float64
	Remainder []float64
	Period    int
}

// Decompose performs classical additive decomposition with a centred
// moving-average trend. Trend and Remainder are NaN where the moving average
// is undefined. Returns nil when x holds fewer than two periods.
func Decompose(x []float64, period int) *Components {
	n := len(x)
	if period < 2 || n < 2*period {
		return nil
	}

	trend := centredMovingAverage(x, period)

	pattern := make([]float64, period)
	counts := make([]float64, period)
	for i, v := range x {
		if math.IsNaN(trend[i]) {
			continue
		}
		pattern[i%period] += v - trend[i]
		counts[i%period]++
	}
	for i := range pattern {
		if counts[i] > 0 {
			pattern[i] /= counts[i]
		}
	}
	floats.AddConst(-stat.Mean(pattern, nil), pattern)

	seasonal := make([]float64, n)
	remainder := make([]float64, n)
	for i, v := range x {
		seasonal[i] = pattern[i%period]
		remainder[i] = v - trend[i] - seasonal[i]
	}

	return &Components{Trend: trend, Seasonal: seasonal, Remainder: remainder, Period: period}
}

// centredMovingAverage uses a 2xm average for even m.
func centredMovingAverage(x []float64, m int) []float64 {
	n := len(x)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	half := m / 2
	for i := half; i < n-half; i++ {
		if m%2 == 1 {
			out[i] = floats.Sum(x[i-half:i+half+1]) / float64(m)
			continue
		}
		sum := floats.Sum(x[i-half+1:i+half]) + 0.5*(x[i-half]+x[i+half])
		out[i] = sum / float64(m)
	}
	return out
}

// STL decomposes x with a simplified robust seasonal-trend procedure:
// cycle-subseries means for the seasonal part, a triangular-weighted
// smoother for the trend, and bisquare robustness weights between passes.
// Returns nil when x holds fewer than two periods.
func STL(x []float64, period, robustIters int) *Components {
	n := len(x)
	if period < 2 || n < 2*period {
		return nil
	}
	if robustIters < 1 {
		robustIters = 2
	}

	trend := make([]float64, n)
	seasonal := make([]float64, n)
	remainder := make([]float64, n)
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1
	}

	window := period
	if window%2 == 0 {
		window++
	}

	for iter := 0; iter < robustIters; iter++ {
		pattern := make([]float64, period)
		mass := make([]float64, period)
		for i, v := range x {
			pattern[i%period] += (v - trend[i]) * weights[i]
			mass[i%period] += weights[i]
		}
		for i := range pattern {
			if mass[i] > 0 {
				pattern[i] /= mass[i]
			}
		}
		floats.AddConst(-stat.Mean(pattern, nil), pattern)

		deseasonalized := make([]float64, n)
		for i, v := range x {
			seasonal[i] = pattern[i%period]
			deseasonalized[i] = v - seasonal[i]
		}
		trend = triangularSmooth(deseasonalized, weights, window)

		for i, v := range x {
			remainder[i] = v - trend[i] - seasonal[i]
		}
		if iter < robustIters-1 {
			bisquare(remainder, weights)
		}
	}

	return &Components{Trend: trend, Seasonal: seasonal, Remainder: remainder, Period: period}
}

func triangularSmooth(x, weights []float64, window int) []float64 {
	n := len(x)
	half := window / 2
	out := make([]float64, n)
	for i := range x {
		sum, mass := 0.0, 0.0
		for j := max(0, i-half); j <= min(n-1, i+half); j++ {
			w := weights[j] * (1 - math.Abs(float64(j-i))/float64(half+1))
			sum += x[j] * w
			mass += w
		}
		if mass > 0 {
			out[i] = sum / mass
		} else {
			out[i] = x[i]
		}
	}
	return out
}

// bisquare overwrites weights with robustness weights for the residuals.
func bisquare(resid, weights []float64) {
	abs := make([]float64, len(resid))
	for i, r := range resid {
		abs[i] = math.Abs(r)
	}
	sort.Float64s(abs)
	h := 6 * stat.Quantile(0.5, stat.Empirical, abs, nil)
	if h == 0 {
		return
	}
	for i, r := range resid {
		u := math.Abs(r) / h
		if u < 1 {
			weights[i] = (1 - u*u) * (1 - u*u)
		} else {
			weights[i] = 0
		}
	}
}

// MSTLResult is a decomposition with one seasonal component per period.
type MSTLResult struct {
	Trend     []float64
	Seasonals [][]float64 // parallel to Periods
	Periods   []int       // ascending, periods too long for the data removed
	Remainder []float64
}

// Deseasonalized returns x with every seasonal component removed.
func (r *MSTLResult) Deseasonalized() []float64 {
	out := make([]float64, len(r.Trend))
	floats.Add(out, r.Trend)
	floats.Add(out, r.Remainder)
	return out
}

// MSTL decomposes x into a trend, one seasonal component per period and a
// remainder. Periods below 2 or longer than half the series are dropped; with
// no usable period the trend is x itself and the remainder is zero.
func MSTL(x []float64, periods []int, iterations int) *MSTLResult {
	n := len(x)
	if iterations < 1 {
		iterations = 2
	}

	usable := make([]int, 0, len(periods))
	for _, p := range periods {
		if p >= 2 && n >= 2*p && !slices.Contains(usable, p) {
			usable = append(usable, p)
		}
	}
	slices.Sort(usable)

	result := &MSTLResult{
		Trend:     slices.Clone(x),
		Seasonals: make([][]float64, len(usable)),
		Periods:   usable,
		Remainder: make([]float64, n),
	}
	if len(usable) == 0 {
		return result
	}

	deseasonalized := slices.Clone(x)
	for i := range result.Seasonals {
		result.Seasonals[i] = make([]float64, n)
	}

	var last *Components
	for iter := 0; iter < iterations; iter++ {
		for i, p := range usable {
			floats.Add(deseasonalized, result.Seasonals[i])
			last = STL(deseasonalized, p, 2)
			copy(result.Seasonals[i], last.Seasonal)
			floats.Sub(deseasonalized, result.Seasonals[i])
		}
	}

	copy(result.Trend, last.Trend)
	floats.SubTo(result.Remainder, deseasonalized, result.Trend)
	return result
}
