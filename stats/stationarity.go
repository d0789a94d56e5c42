package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Significance is the level at which the stationarity tests reject.
const Significance = 0.05

// ADFResult represents the result of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	NObs         int
	IsStationary bool
}

// ADF critical values (constant, no trend) and the p-values they map to.
var (
	adfStats = []float64{-3.96, -3.43, -2.86, -2.57, -1.94, -1.62, -0.5, 0.5}
	adfProbs = []float64{0.001, 0.01, 0.05, 0.10, 0.25, 0.50, 0.90, 0.99}
)

// ADF performs the Augmented Dickey-Fuller test for a unit root.
// The null hypothesis is that x has a unit root. maxLag <= 0 selects
// floor((n-1)^(1/3)) lagged differences. Returns nil when x is too short or
// the regression is singular.
func ADF(x []float64, maxLag int) *ADFResult {
	n := len(x)
	if n < 10 {
		return nil
	}
	if maxLag <= 0 {
		maxLag = int(math.Floor(math.Cbrt(float64(n - 1))))
	}
	if maxLag > n-2 {
		maxLag = n - 2
	}

	nObs := n - maxLag - 1
	if nObs < 10 {
		return nil
	}

	dx := make([]float64, n-1)
	floats.SubTo(dx, x[1:], x[:n-1])

	// dx[t] = a + b*x[t] + sum_j g_j*dx[t-j]
	k := 2 + maxLag
	design := mat.NewDense(nObs, k, nil)
	y := make([]float64, nObs)
	for i := 0; i < nObs; i++ {
		t := i + maxLag
		y[i] = dx[t]
		design.Set(i, 0, 1)
		design.Set(i, 1, x[t])
		for j := 1; j <= maxLag; j++ {
			design.Set(i, 1+j, dx[t-j])
		}
	}

	beta, se, ok := leastSquares(design, y)
	if !ok || se[1] == 0 {
		return nil
	}

	tStat := beta[1] / se[1]
	p := interpolate(adfStats, adfProbs, tStat)
	return &ADFResult{
		Statistic:    tStat,
		PValue:       p,
		Lags:         maxLag,
		NObs:         nObs,
		IsStationary: p < Significance,
	}
}

// leastSquares solves y = X*beta by ordinary least squares and returns the
// coefficients with their standard errors.
func leastSquares(x *mat.Dense, y []float64) (beta, se []float64, ok bool) {
	n, k := x.Dims()
	if n <= k {
		return nil, nil, false
	}

	var xtx, inv mat.Dense
	xtx.Mul(x.T(), x)
	if err := inv.Inverse(&xtx); err != nil {
		return nil, nil, false
	}

	yv := mat.NewVecDense(n, y)
	var xty, b, fitted, resid mat.VecDense
	xty.MulVec(x.T(), yv)
	b.MulVec(&inv, &xty)
	fitted.MulVec(x, &b)
	resid.SubVec(yv, &fitted)

	s2 := mat.Dot(&resid, &resid) / float64(n-k)
	beta = make([]float64, k)
	se = make([]float64, k)
	for i := 0; i < k; i++ {
		beta[i] = b.AtVec(i)
		se[i] = math.Sqrt(s2 * inv.At(i, i))
	}
	return beta, se, true
}

// KPSSResult represents the result of a KPSS test.
type KPSSResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	IsStationary bool
}

// KPSS level-stationarity critical values and their p-values.
var (
	kpssStats = []float64{0.347, 0.463, 0.574, 0.739}
	kpssProbs = []float64{0.10, 0.05, 0.025, 0.01}
)

// KPSS performs the Kwiatkowski-Phillips-Schmidt-Shin test for level
// stationarity. The null hypothesis is that x is stationary. nlags <= 0
// selects ceil(12*(n/100)^(1/4)). P-values are clamped to [0.01, 0.10].
func KPSS(x []float64, nlags int) *KPSSResult {
	n := len(x)
	if n < 10 {
		return nil
	}
	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if nlags > n-1 {
		nlags = n - 1
	}

	if stat.Variance(x, nil) == 0 {
		return &KPSSResult{PValue: kpssProbs[0], Lags: nlags, IsStationary: true}
	}

	resid := make([]float64, n)
	copy(resid, x)
	floats.AddConst(-stat.Mean(x, nil), resid)

	partial := make([]float64, n)
	floats.CumSum(partial, resid)

	// Newey-West long-run variance with Bartlett weights.
	cov := Autocovariances(x, nlags)
	s2 := cov[0]
	for l := 1; l < len(cov); l++ {
		s2 += 2 * (1 - float64(l)/float64(nlags+1)) * cov[l]
	}
	if s2 <= 0 {
		s2 = math.SmallestNonzeroFloat64
	}

	eta := floats.Dot(partial, partial) / (float64(n) * float64(n))
	statistic := eta / s2
	p := interpolate(kpssStats, kpssProbs, statistic)

	return &KPSSResult{
		Statistic:    statistic,
		PValue:       p,
		Lags:         nlags,
		IsStationary: p >= Significance,
	}
}
