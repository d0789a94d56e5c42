package models

import (
	"context"
	"fmt"

	"github.com/sartorproj/tsforecast/autoarima"
	"github.com/sartorproj/tsforecast/ets"
	"github.com/sartorproj/tsforecast/mstl"
	"github.com/sartorproj/tsforecast/naive"
	"github.com/sartorproj/tsforecast/timeseries"
)

// predictor is the shape shared by the engine packages once trained.
type predictor interface {
	Predict(steps int) ([]float64, error)
}

// engine adapts a package-level model to Estimator.
type engine struct {
	fit     func(ctx context.Context, series *timeseries.Series) (predictor, error)
	trained predictor
}

func (e *engine) Fit(ctx context.Context, series *timeseries.Series) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := e.fit(ctx, series)
	if err != nil {
		return err
	}
	e.trained = p
	return nil
}

func (e *engine) Predict(steps int) ([]float64, error) {
	if e.trained == nil {
		return nil, fmt.Errorf("estimator is not fitted")
	}
	if steps == 0 {
		return []float64{}, nil
	}
	return e.trained.Predict(steps)
}

func (s AutoARIMASpec) NewEstimator() Estimator {
	return &engine{fit: func(ctx context.Context, series *timeseries.Series) (predictor, error) {
		cfg := autoarima.DefaultConfig(s.SeasonLength)
		cfg.Stepwise = s.Stepwise
		if s.Criterion != "" {
			cfg.Criterion = s.Criterion
		}
		if s.Test != "" {
			cfg.Test = s.Test
		}
		return autoarima.Search(ctx, series, cfg)
	}}
}

func (s SeasonalNaiveSpec) NewEstimator() Estimator {
	return &engine{fit: func(_ context.Context, series *timeseries.Series) (predictor, error) {
		model := naive.NewSeasonalNaive(s.SeasonLength)
		return model, model.Fit(series)
	}}
}

func (s HoltWintersSpec) NewEstimator() Estimator {
	return &engine{fit: func(_ context.Context, series *timeseries.Series) (predictor, error) {
		model := ets.NewHoltWinters(s.SeasonLength)
		if s.SeasonLength <= 1 {
			model = ets.NewHolt()
		}
		return model, model.Fit(series)
	}}
}

func (HistoricAverageSpec) NewEstimator() Estimator {
	return &engine{fit: func(_ context.Context, series *timeseries.Series) (predictor, error) {
		model := naive.NewHistoricAverage()
		return model, model.Fit(series)
	}}
}

func (s MSTLSpec) NewEstimator() Estimator {
	return &engine{fit: func(_ context.Context, series *timeseries.Series) (predictor, error) {
		model := mstl.New(s.SeasonLengths)
		return model, model.Fit(series)
	}}
}
