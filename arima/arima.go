// Package arima implements seasonal ARIMA models estimated by conditional
// sum of squares.
package arima

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/tsforecast/stats"
	"github.com/sartorproj/tsforecast/timeseries"
)

var (
	ErrNotFitted        = errors.New("model must be fitted before prediction")
	ErrInsufficientData = errors.New("insufficient data points for the specified order")
)

// penalty is returned by the objective for parameters outside the
// stationary and invertible region.
const penalty = 1e6

// Order represents a seasonal ARIMA order (p,d,q)(P,D,Q)[m].
type Order struct {
	P  int // AR order
	D  int // differencing order
	Q  int // MA order
	SP int // seasonal AR order
	SD int // seasonal differencing order
	SQ int // seasonal MA order
	M  int // seasonal period
}

// Seasonal reports whether the order has any seasonal part.
func (o Order) Seasonal() bool {
	return o.M > 1 && o.SP+o.SD+o.SQ > 0
}

func (o Order) String() string {
	if !o.Seasonal() {
		return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
	}
	return fmt.Sprintf("ARIMA(%d,%d,%d)(%d,%d,%d)[%d]", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M)
}

// coefficients is the number of estimated ARMA coefficients.
func (o Order) coefficients() int {
	return o.P + o.Q + o.SP + o.SQ
}

// lags returns the differencing lags in application order.
func (o Order) lags() []int {
	lags := make([]int, 0, o.D+o.SD)
	for i := 0; i < o.D; i++ {
		lags = append(lags, 1)
	}
	if o.M > 1 {
		for i := 0; i < o.SD; i++ {
			lags = append(lags, o.M)
		}
	}
	return lags
}

// Model represents a seasonal ARIMA model.
type Model struct {
	Order     Order
	ARCoeffs  []float64 // non-seasonal AR (phi)
	MACoeffs  []float64 // non-seasonal MA (theta)
	SARCoeffs []float64 // seasonal AR (Phi)
	SMACoeffs []float64 // seasonal MA (Theta)
	Mean      float64   // mean of the differenced series, zero when differenced
	Variance  float64   // residual variance
	LogLik    float64
	AIC       float64
	AICc      float64
	BIC       float64

	fitted    bool
	levels    [][]float64 // levels[0] is the input, levels[i+1] = diff of levels[i]
	arFull    []float64   // expanded AR polynomial, lag k at index k-1
	maFull    []float64   // expanded MA polynomial
	residuals []float64
}

// New creates a non-seasonal ARIMA(p,d,q) model.
func New(p, d, q int) *Model {
	return NewWithOrder(Order{P: p, D: d, Q: q})
}

// NewSeasonal creates an ARIMA(p,d,q)(sp,sd,sq)[m] model.
func NewSeasonal(p, d, q, sp, sd, sq, m int) *Model {
	return NewWithOrder(Order{P: p, D: d, Q: q, SP: sp, SD: sd, SQ: sq, M: m})
}

// NewWithOrder creates a model with the given order. A period below 2
// discards the seasonal part.
func NewWithOrder(o Order) *Model {
	if o.M < 2 {
		o.SP, o.SD, o.SQ, o.M = 0, 0, 0, 0
	}
	return &Model{Order: o}
}

// Fit estimates the model on series.
func (m *Model) Fit(series *timeseries.Series) error {
	return m.FitValues(series.Values)
}

// FitValues estimates the model on raw values.
func (m *Model) FitValues(values []float64) error {
	o := m.Order
	m.fitted = false

	levels := [][]float64{append([]float64(nil), values...)}
	for _, lag := range o.lags() {
		next := timeseries.Difference(levels[len(levels)-1], lag)
		if len(next) == 0 {
			return fmt.Errorf("%w: %s on %d points", ErrInsufficientData, o, len(values))
		}
		levels = append(levels, next)
	}
	w := levels[len(levels)-1]

	start := o.P + o.SP*o.M
	if len(w)-start < o.coefficients()+3 {
		return fmt.Errorf("%w: %s on %d points", ErrInsufficientData, o, len(values))
	}

	m.levels = levels
	m.Mean = 0
	if o.D+o.SD == 0 {
		m.Mean = stat.Mean(w, nil)
	}
	z := make([]float64, len(w))
	copy(z, w)
	floats.AddConst(-m.Mean, z)

	params, err := m.estimate(z)
	if err != nil {
		return err
	}
	m.setParams(params)

	residuals, sse, count := m.css(z)
	if math.IsNaN(sse) || math.IsInf(sse, 0) {
		return fmt.Errorf("%s: non-finite residuals", o)
	}
	m.residuals = residuals

	// Coefficients, residual variance and, for undifferenced fits, the mean.
	nParams := o.coefficients() + 1
	if o.D+o.SD == 0 {
		nParams++
	}
	m.Variance = sse / float64(count)

	ic := stats.InformationCriteria(stats.GaussianLogLik(sse, count), count, nParams)
	m.LogLik, m.AIC, m.AICc, m.BIC = ic.LogLik, ic.AIC, ic.AICc, ic.BIC
	m.fitted = true
	return nil
}

// estimate minimises the concentrated CSS objective with Nelder-Mead.
func (m *Model) estimate(z []float64) ([]float64, error) {
	o := m.Order
	k := o.coefficients()
	if k == 0 {
		return nil, nil
	}

	init := make([]float64, k)
	if o.P > 0 {
		copy(init, yuleWalker(stats.ACF(z, o.P), o.P))
	}

	objective := func(x []float64) float64 {
		m.setParams(x)
		if !m.admissible() {
			return penalty
		}
		_, sse, count := m.css(z)
		if count == 0 || math.IsNaN(sse) || math.IsInf(sse, 0) {
			return penalty
		}
		return math.Log(sse/float64(count) + 1e-300)
	}

	// Yule-Walker can land outside the stationary region for short series.
	if objective(init) >= penalty {
		for i := range init {
			init[i] = 0
		}
	}

	problem := optimize.Problem{Func: objective}
	settings := &optimize.Settings{FuncEvaluations: 200 * (k + 1)}
	result, err := optimize.Minimize(problem, init, settings, &optimize.NelderMead{})
	if result == nil {
		return nil, fmt.Errorf("%s: optimisation failed: %w", o, err)
	}
	if result.F >= penalty {
		return nil, fmt.Errorf("%s: no stationary invertible solution", o)
	}
	return result.X, nil
}

func (m *Model) setParams(x []float64) {
	o := m.Order
	m.ARCoeffs = append(m.ARCoeffs[:0], x[:o.P]...)
	m.MACoeffs = append(m.MACoeffs[:0], x[o.P:o.P+o.Q]...)
	m.SARCoeffs = append(m.SARCoeffs[:0], x[o.P+o.Q:o.P+o.Q+o.SP]...)
	m.SMACoeffs = append(m.SMACoeffs[:0], x[o.P+o.Q+o.SP:]...)

	m.arFull = expand(m.ARCoeffs, m.SARCoeffs, o.M, -1)
	m.maFull = expand(m.MACoeffs, m.SMACoeffs, o.M, 1)
}

// expand multiplies (1 + sign*sum a_i B^i)(1 + sign*sum s_j B^(j*period))
// and returns the lag coefficients in the same sign convention.
func expand(a, s []float64, period int, sign float64) []float64 {
	size := len(a) + len(s)*period
	if size == 0 {
		return nil
	}

	left := make([]float64, len(a)+1)
	left[0] = 1
	for i, v := range a {
		left[i+1] = sign * v
	}
	right := make([]float64, len(s)*period+1)
	right[0] = 1
	for j, v := range s {
		right[(j+1)*period] = sign * v
	}

	product := make([]float64, size+1)
	for i, l := range left {
		for j, r := range right {
			product[i+j] += l * r
		}
	}

	out := make([]float64, size)
	for k := range out {
		out[k] = sign * product[k+1]
	}
	return out
}

// css computes conditional residuals of the demeaned series z.
func (m *Model) css(z []float64) (residuals []float64, sse float64, count int) {
	n := len(z)
	start := len(m.arFull)
	residuals = make([]float64, n)
	for t := start; t < n; t++ {
		pred := 0.0
		for k, phi := range m.arFull {
			pred += phi * z[t-k-1]
		}
		for k, theta := range m.maFull {
			if t-k-1 >= 0 {
				pred += theta * residuals[t-k-1]
			}
		}
		residuals[t] = z[t] - pred
		sse += residuals[t] * residuals[t]
	}
	return residuals, sse, n - start
}

// admissible reports whether every AR factor is stationary and every MA
// factor invertible.
func (m *Model) admissible() bool {
	neg := func(c []float64) []float64 {
		out := make([]float64, len(c))
		for i, v := range c {
			out[i] = -v
		}
		return out
	}
	return insideUnitCircle(m.ARCoeffs) &&
		insideUnitCircle(m.SARCoeffs) &&
		insideUnitCircle(neg(m.MACoeffs)) &&
		insideUnitCircle(neg(m.SMACoeffs))
}

// insideUnitCircle reports whether all roots of
// z^k - c_1 z^(k-1) - ... - c_k lie strictly inside the unit circle, using
// the eigenvalues of the companion matrix.
func insideUnitCircle(c []float64) bool {
	k := len(c)
	switch k {
	case 0:
		return true
	case 1:
		return math.Abs(c[0]) < 1
	}

	companion := mat.NewDense(k, k, nil)
	for j, v := range c {
		companion.Set(0, j, v)
	}
	for i := 1; i < k; i++ {
		companion.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if !eig.Factorize(companion, mat.EigenNone) {
		return false
	}
	for _, v := range eig.Values(nil) {
		if math.Hypot(real(v), imag(v)) >= 1 {
			return false
		}
	}
	return true
}

// Predict generates forecasts for the specified number of steps ahead.
func (m *Model) Predict(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, errors.New("steps must be at least 1")
	}

	w := m.levels[len(m.levels)-1]
	n := len(w)
	z := make([]float64, n+steps)
	copy(z, w)
	floats.AddConst(-m.Mean, z[:n])

	resid := make([]float64, n+steps)
	copy(resid, m.residuals)

	for t := n; t < n+steps; t++ {
		pred := 0.0
		for k, phi := range m.arFull {
			if t-k-1 >= 0 {
				pred += phi * z[t-k-1]
			}
		}
		for k, theta := range m.maFull {
			if t-k-1 >= 0 {
				pred += theta * resid[t-k-1]
			}
		}
		z[t] = pred
	}

	forecast := z[n:]
	floats.AddConst(m.Mean, forecast)
	return m.integrate(forecast), nil
}

// integrate undoes the differencing chain, innermost level first.
func (m *Model) integrate(forecast []float64) []float64 {
	lags := m.Order.lags()
	out := append([]float64(nil), forecast...)
	for i := len(lags) - 1; i >= 0; i-- {
		history := m.levels[i]
		lag := lags[i]
		ext := append(append([]float64(nil), history...), make([]float64, len(out))...)
		base := len(history)
		for h, v := range out {
			ext[base+h] = v + ext[base+h-lag]
		}
		out = ext[base:]
	}
	return out
}

// Residuals returns the model residuals on the differenced scale.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	return append([]float64(nil), m.residuals...)
}

// yuleWalker solves the Yule-Walker equations for an AR(order) fit.
func yuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return nil
	}

	r := mat.NewSymDense(order, nil)
	for i := 0; i < order; i++ {
		for j := i; j < order; j++ {
			r.SetSym(i, j, acf[j-i])
		}
	}
	rhs := mat.NewVecDense(order, append([]float64(nil), acf[1:order+1]...))

	var phi mat.VecDense
	if err := phi.SolveVec(r, rhs); err != nil {
		return nil
	}
	return phi.RawVector().Data
}
