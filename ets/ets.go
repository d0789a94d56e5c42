// Package ets implements additive exponential smoothing: Holt's linear
// trend method and the additive Holt-Winters seasonal method.
//
// Smoothing parameters are chosen by minimising the one-step-ahead sum of
// squared errors with gonum's Nelder-Mead optimiser over logit-transformed
// values, so alpha, beta and gamma stay inside (0, 1) and gamma < 1-alpha.
package ets

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/tsforecast/timeseries"
)

var (
	ErrNotFitted        = errors.New("model must be fitted before prediction")
	ErrInsufficientData = errors.New("insufficient data points")
)

// Model is an additive exponential smoothing model. SeasonLength <= 1 means
// no seasonal component.
type Model struct {
	SeasonLength int
	Alpha        float64 // level smoothing
	Beta         float64 // trend smoothing
	Gamma        float64 // seasonal smoothing, zero without a season
	SSE          float64 // in-sample one-step sum of squared errors

	fitted bool
	level  float64
	slope  float64
	season []float64 // one state per observation, index t holds s_t
}

// NewHolt creates a non-seasonal model with level and trend.
func NewHolt() *Model {
	return &Model{}
}

// NewHoltWinters creates an additive Holt-Winters model with period m.
func NewHoltWinters(m int) *Model {
	return &Model{SeasonLength: m}
}

func (m *Model) seasonal() bool {
	return m.SeasonLength > 1
}

// Fit estimates the model on series.
func (m *Model) Fit(series *timeseries.Series) error {
	return m.FitValues(series.Values)
}

// FitValues estimates the model on raw values. Holt-Winters needs two full
// seasons; Holt needs two points.
func (m *Model) FitValues(x []float64) error {
	m.fitted = false
	period := m.SeasonLength
	switch {
	case m.seasonal() && len(x) < 2*period:
		return fmt.Errorf("%w: Holt-Winters with period %d needs %d points, have %d",
			ErrInsufficientData, period, 2*period, len(x))
	case len(x) < 2:
		return fmt.Errorf("%w: Holt needs 2 points, have %d", ErrInsufficientData, len(x))
	}

	dims := 2
	if m.seasonal() {
		dims = 3
	}
	init := []float64{logit(0.3), logit(0.1), logit(0.1)}[:dims]

	objective := func(u []float64) float64 {
		alpha, beta, gamma := m.unpack(u)
		sse := m.run(x, alpha, beta, gamma)
		if math.IsNaN(sse) || math.IsInf(sse, 0) {
			return math.MaxFloat64
		}
		return sse
	}

	result, err := optimize.Minimize(optimize.Problem{Func: objective}, init,
		&optimize.Settings{FuncEvaluations: 600}, &optimize.NelderMead{})
	if result == nil {
		return fmt.Errorf("exponential smoothing optimisation failed: %w", err)
	}

	m.Alpha, m.Beta, m.Gamma = m.unpack(result.X)
	m.SSE = m.run(x, m.Alpha, m.Beta, m.Gamma)
	if math.IsNaN(m.SSE) || math.IsInf(m.SSE, 0) {
		return errors.New("exponential smoothing diverged")
	}
	m.fitted = true
	return nil
}

func (m *Model) unpack(u []float64) (alpha, beta, gamma float64) {
	alpha = logistic(u[0])
	beta = logistic(u[1])
	if m.seasonal() {
		gamma = logistic(u[2]) * (1 - alpha)
	}
	return alpha, beta, gamma
}

// run filters x with the given parameters, leaving the final states on m,
// and returns the one-step sum of squared errors.
func (m *Model) run(x []float64, alpha, beta, gamma float64) float64 {
	n := len(x)
	period := m.SeasonLength

	var start int
	m.season = nil
	if m.seasonal() {
		first := stat.Mean(x[:period], nil)
		second := stat.Mean(x[period:2*period], nil)
		m.level = first
		m.slope = (second - first) / float64(period)
		m.season = make([]float64, n)
		for i := 0; i < period; i++ {
			m.season[i] = x[i] - first
		}
		start = period
	} else {
		m.level = x[0]
		m.slope = x[1] - x[0]
		start = 1
	}

	sse := 0.0
	for t := start; t < n; t++ {
		s := 0.0
		if m.season != nil {
			s = m.season[t-period]
		}
		err := x[t] - (m.level + m.slope + s)
		sse += err * err

		prev := m.level
		m.level = alpha*(x[t]-s) + (1-alpha)*(m.level+m.slope)
		m.slope = beta*(m.level-prev) + (1-beta)*m.slope
		if m.season != nil {
			m.season[t] = gamma*(x[t]-m.level) + (1-gamma)*s
		}
	}
	return sse
}

// Predict generates forecasts for the specified number of steps ahead.
func (m *Model) Predict(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, errors.New("steps must be at least 1")
	}

	out := make([]float64, steps)
	n := len(m.season)
	for h := 1; h <= steps; h++ {
		out[h-1] = m.level + float64(h)*m.slope
		if m.season != nil {
			out[h-1] += m.season[n-m.SeasonLength+(h-1)%m.SeasonLength]
		}
	}
	return out, nil
}

func logistic(u float64) float64 {
	return 1 / (1 + math.Exp(-u))
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}
