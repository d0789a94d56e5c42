// Package naive implements benchmark forecasters: the seasonal naive method
// and the historic average.
package naive

import (
	"errors"
	"fmt"

	"github.com/sartorproj/tsforecast/timeseries"
)

var (
	ErrNotFitted        = errors.New("model must be fitted before prediction")
	ErrInsufficientData = errors.New("insufficient data points")
)

// SeasonalNaive repeats the last observed season.
type SeasonalNaive struct {
	SeasonLength int
	last         []float64
}

// NewSeasonalNaive creates a seasonal naive forecaster with period m.
func NewSeasonalNaive(m int) *SeasonalNaive {
	return &SeasonalNaive{SeasonLength: m}
}

// Fit stores the last season of series.
func (s *SeasonalNaive) Fit(series *timeseries.Series) error {
	m := s.SeasonLength
	if m < 1 {
		return fmt.Errorf("season length must be positive, got %d", m)
	}
	if series.Len() < m {
		return fmt.Errorf("%w: seasonal naive with period %d needs %d points, have %d",
			ErrInsufficientData, m, m, series.Len())
	}
	s.last = append([]float64(nil), series.Values[series.Len()-m:]...)
	return nil
}

// Predict returns y[n-m+(h mod m)] for h = 0..steps-1.
func (s *SeasonalNaive) Predict(steps int) ([]float64, error) {
	if s.last == nil {
		return nil, ErrNotFitted
	}
	out := make([]float64, steps)
	for h := range out {
		out[h] = s.last[h%len(s.last)]
	}
	return out, nil
}

// HistoricAverage forecasts the mean of all observations.
type HistoricAverage struct {
	mean   float64
	fitted bool
}

// NewHistoricAverage creates a historic average forecaster.
func NewHistoricAverage() *HistoricAverage {
	return &HistoricAverage{}
}

// Fit computes the mean of series.
func (a *HistoricAverage) Fit(series *timeseries.Series) error {
	if series.Len() == 0 {
		return fmt.Errorf("%w: historic average needs at least one point", ErrInsufficientData)
	}
	a.mean = series.Mean()
	a.fitted = true
	return nil
}

// Predict returns the fitted mean for every step.
func (a *HistoricAverage) Predict(steps int) ([]float64, error) {
	if !a.fitted {
		return nil, ErrNotFitted
	}
	out := make([]float64, steps)
	for h := range out {
		out[h] = a.mean
	}
	return out, nil
}
