// Package mstl forecasts series with several seasonal periods by
// decomposing them with MSTL, forecasting the deseasonalised series with
// Holt's method and continuing every seasonal component naively.
package mstl

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sartorproj/tsforecast/ets"
	"github.com/sartorproj/tsforecast/stats"
	"github.com/sartorproj/tsforecast/timeseries"
)

var (
	// ErrNotFitted is returned by Predict before a successful Fit.
	ErrNotFitted = errors.New("model must be fitted before prediction")
	// ErrInsufficientData is returned when no seasonal period fits twice
	// into the series.
	ErrInsufficientData = errors.New("insufficient data points")
)

// Iterations is the number of MSTL refinement passes.
const Iterations = 2

// Model is an MSTL forecaster.
type Model struct {
	SeasonLengths []int

	decomposition *stats.MSTLResult
	trend         *ets.Model
}

// New creates a model for the given seasonal periods.
func New(seasonLengths []int) *Model {
	return &Model{SeasonLengths: append([]int(nil), seasonLengths...)}
}

// Periods returns the periods kept by the last fit. Periods longer than
// half the series are dropped as long as one seasonal period remains.
func (m *Model) Periods() []int {
	if m.decomposition == nil {
		return nil
	}
	return append([]int(nil), m.decomposition.Periods...)
}

// Fit decomposes series and fits the trend model.
func (m *Model) Fit(series *timeseries.Series) error {
	if len(m.SeasonLengths) == 0 {
		return errors.New("at least one season length is required")
	}
	for _, p := range m.SeasonLengths {
		if p < 1 {
			return fmt.Errorf("season length must be positive, got %d", p)
		}
	}

	decomposition := stats.MSTL(series.Values, m.SeasonLengths, Iterations)
	if len(decomposition.Periods) == 0 && slices.ContainsFunc(m.SeasonLengths, func(p int) bool { return p > 1 }) {
		return fmt.Errorf("%w: MSTL needs two full seasons of some period in %v, have %d points",
			ErrInsufficientData, m.SeasonLengths, series.Len())
	}
	trend := ets.NewHolt()
	if err := trend.FitValues(decomposition.Deseasonalized()); err != nil {
		return fmt.Errorf("trend model: %w", err)
	}

	m.decomposition, m.trend = decomposition, trend
	return nil
}

// Predict adds the naive continuation of every seasonal component to the
// trend forecast.
func (m *Model) Predict(steps int) ([]float64, error) {
	if m.trend == nil {
		return nil, ErrNotFitted
	}

	out, err := m.trend.Predict(steps)
	if err != nil {
		return nil, err
	}
	for i, period := range m.decomposition.Periods {
		component := m.decomposition.Seasonals[i]
		n := len(component)
		for h := range out {
			out[h] += component[n-period+h%period]
		}
	}
	return out, nil
}
