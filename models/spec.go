package models

import (
	"context"

	"github.com/sartorproj/tsforecast/autoarima"
	"github.com/sartorproj/tsforecast/errs"
	"github.com/sartorproj/tsforecast/stats"
	"github.com/sartorproj/tsforecast/timeseries"
)

// Estimator is one trainable model instance.
type Estimator interface {
	// Fit trains on series. It must not retain series.Values beyond what
	// Predict needs.
	Fit(ctx context.Context, series *timeseries.Series) error
	// Predict returns steps point forecasts following the training data.
	Predict(steps int) ([]float64, error)
}

// Spec is a validated model description.
type Spec interface {
	Kind() Kind
	// Params returns the hyperparameters in registry form.
	Params() map[string]any
	// SeasonPeriods is the number of seasonal periods the spec carries;
	// a sampling list may name one frequency per period.
	SeasonPeriods() int
	// NewEstimator returns an untrained estimator.
	NewEstimator() Estimator

	sealed()
}

func positive(op, key string, v int) error {
	if v < 1 {
		return errs.New(errs.KindConfig, op, "season length must be a positive integer",
			map[string]any{key: v})
	}
	return nil
}

// AutoARIMASpec selects a seasonal ARIMA order automatically.
type AutoARIMASpec struct {
	SeasonLength int
	Stepwise     bool
	Criterion    autoarima.Criterion
	Test         stats.UnitRootTest
}

// NewAutoARIMA returns a stepwise AICc AutoARIMA spec differenced by KPSS.
func NewAutoARIMA(seasonLength int) (AutoARIMASpec, error) {
	if err := positive("models.NewAutoARIMA", ParamSeasonLength, seasonLength); err != nil {
		return AutoARIMASpec{}, err
	}
	return AutoARIMASpec{
		SeasonLength: seasonLength,
		Stepwise:     true,
		Criterion:    autoarima.AICc,
		Test:         stats.TestKPSS,
	}, nil
}

func (AutoARIMASpec) Kind() Kind         { return AutoARIMA }
func (AutoARIMASpec) SeasonPeriods() int { return 1 }
func (AutoARIMASpec) sealed()            {}

func (s AutoARIMASpec) Params() map[string]any {
	return map[string]any{
		ParamSeasonLength: s.SeasonLength,
		ParamStepwise:     s.Stepwise,
		ParamCriterion:    string(s.Criterion),
		ParamTest:         string(s.Test),
	}
}

// SeasonalNaiveSpec repeats the last season.
type SeasonalNaiveSpec struct {
	SeasonLength int
}

// NewSeasonalNaive returns a seasonal naive spec.
func NewSeasonalNaive(seasonLength int) (SeasonalNaiveSpec, error) {
	if err := positive("models.NewSeasonalNaive", ParamSeasonLength, seasonLength); err != nil {
		return SeasonalNaiveSpec{}, err
	}
	return SeasonalNaiveSpec{SeasonLength: seasonLength}, nil
}

func (SeasonalNaiveSpec) Kind() Kind         { return SeasonalNaive }
func (SeasonalNaiveSpec) SeasonPeriods() int { return 1 }
func (SeasonalNaiveSpec) sealed()            {}

func (s SeasonalNaiveSpec) Params() map[string]any {
	return map[string]any{ParamSeasonLength: s.SeasonLength}
}

// HoltWintersSpec is additive Holt-Winters; season length 1 gives Holt's
// linear method.
type HoltWintersSpec struct {
	SeasonLength int
}

// NewHoltWinters returns a Holt-Winters spec.
func NewHoltWinters(seasonLength int) (HoltWintersSpec, error) {
	if err := positive("models.NewHoltWinters", ParamSeasonLength, seasonLength); err != nil {
		return HoltWintersSpec{}, err
	}
	return HoltWintersSpec{SeasonLength: seasonLength}, nil
}

func (HoltWintersSpec) Kind() Kind         { return HoltWinters }
func (HoltWintersSpec) SeasonPeriods() int { return 1 }
func (HoltWintersSpec) sealed()            {}

func (s HoltWintersSpec) Params() map[string]any {
	return map[string]any{ParamSeasonLength: s.SeasonLength}
}

// HistoricAverageSpec forecasts the training mean.
type HistoricAverageSpec struct{}

// NewHistoricAverage returns a historic average spec.
func NewHistoricAverage() HistoricAverageSpec {
	return HistoricAverageSpec{}
}

func (HistoricAverageSpec) Kind() Kind             { return HistoricAverage }
func (HistoricAverageSpec) SeasonPeriods() int     { return 1 }
func (HistoricAverageSpec) Params() map[string]any { return map[string]any{} }
func (HistoricAverageSpec) sealed()                {}

// MSTLSpec decomposes several seasonal periods.
type MSTLSpec struct {
	SeasonLengths []int
}

// NewMSTL returns an MSTL spec. The first length is the primary period;
// later lengths of 1 or less are dropped, so [12, 1] becomes [12].
func NewMSTL(seasonLengths ...int) (MSTLSpec, error) {
	const op = "models.NewMSTL"
	if len(seasonLengths) == 0 {
		return MSTLSpec{}, errs.New(errs.KindConfig, op, "at least one season length is required",
			map[string]any{ParamSeasonLength: seasonLengths})
	}
	if err := positive(op, ParamSeasonLength, seasonLengths[0]); err != nil {
		return MSTLSpec{}, err
	}

	kept := []int{seasonLengths[0]}
	for _, m := range seasonLengths[1:] {
		if m > 1 {
			kept = append(kept, m)
		}
	}
	return MSTLSpec{SeasonLengths: kept}, nil
}

func (MSTLSpec) Kind() Kind { return MSTL }
func (MSTLSpec) sealed()    {}

func (s MSTLSpec) SeasonPeriods() int { return len(s.SeasonLengths) }

func (s MSTLSpec) Params() map[string]any {
	return map[string]any{ParamSeasonLength: append([]int(nil), s.SeasonLengths...)}
}
