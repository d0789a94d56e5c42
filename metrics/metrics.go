// Package metrics scores a forecast against the observed test values.
package metrics

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/tsforecast/errs"
	"github.com/sartorproj/tsforecast/forecast"
	"github.com/sartorproj/tsforecast/timeseries"
)

// DisplayPlaces is the number of decimals kept by Rounded.
const DisplayPlaces = 2

// Metrics holds forecast accuracy scores. MAPE is a percentage.
type Metrics struct {
	MAE  float64 `json:"mae" yaml:"mae"`
	R2   float64 `json:"r2" yaml:"r2"`
	MAPE float64 `json:"mape" yaml:"mape"`
}

// Evaluate compares fc with actuals point by point. Both must have the same
// length and identical timestamps; align the forecast first.
func Evaluate(fc *forecast.Forecast, actuals *timeseries.Series) (Metrics, error) {
	const op = "metrics.Evaluate"

	if fc.Len() != actuals.Len() {
		return Metrics{}, errs.New(errs.KindAlignment, op, "forecast and actuals lengths differ",
			map[string]any{"forecast": fc.Len(), "actuals": actuals.Len(), "model": fc.Model})
	}
	if len(fc.Timestamps) != len(actuals.Timestamps) {
		return Metrics{}, errs.New(errs.KindAlignment, op, "timestamp counts differ",
			map[string]any{"forecast": len(fc.Timestamps), "actuals": len(actuals.Timestamps)})
	}
	for i := range fc.Timestamps {
		if !fc.Timestamps[i].Equal(actuals.Timestamps[i]) {
			return Metrics{}, errs.New(errs.KindAlignment, op, "timestamps differ", map[string]any{
				"index":     i,
				"forecast":  timeseries.FormatTime(fc.Timestamps[i]),
				"actual":    timeseries.FormatTime(actuals.Timestamps[i]),
				"model":     fc.Model,
				"series_id": fc.SeriesID,
			})
		}
	}

	n := actuals.Len()
	if n == 0 {
		return Metrics{}, errs.New(errs.KindDegenerateMetric, op, "no points to score",
			map[string]any{"model": fc.Model})
	}

	pred, act := fc.Values, actuals.Values
	for i, a := range act {
		if a == 0 {
			return Metrics{}, errs.New(errs.KindDegenerateMetric, op, "MAPE is undefined for a zero actual",
				map[string]any{"index": i, "timestamp": timeseries.FormatTime(actuals.Timestamps[i])})
		}
	}

	return Metrics{
		MAE:  floats.Distance(pred, act, 1) / float64(n),
		R2:   rSquared(pred, act),
		MAPE: 100 * mape(pred, act),
	}, nil
}

func rSquared(pred, act []float64) float64 {
	ssRes := floats.Distance(pred, act, 2)
	ssRes *= ssRes

	mean := stat.Mean(act, nil)
	var ssTot float64
	for _, a := range act {
		ssTot += (a - mean) * (a - mean)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

func mape(pred, act []float64) float64 {
	var sum float64
	for i, a := range act {
		sum += math.Abs((a - pred[i]) / a)
	}
	return sum / float64(len(act))
}

// Rounded returns the scores rounded half away from zero to DisplayPlaces.
func (m Metrics) Rounded() Metrics {
	return Metrics{
		MAE:  round(m.MAE),
		R2:   round(m.R2),
		MAPE: round(m.MAPE),
	}
}

// Delta returns m minus prev field by field. It only means something when
// both were scored on the same test partition.
func (m Metrics) Delta(prev Metrics) Metrics {
	return Metrics{
		MAE:  m.MAE - prev.MAE,
		R2:   m.R2 - prev.R2,
		MAPE: m.MAPE - prev.MAPE,
	}
}

func (m Metrics) String() string {
	return fmt.Sprintf("MAE=%s R2=%s MAPE=%s%%", fixed(m.MAE), fixed(m.R2), fixed(m.MAPE))
}

func round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(DisplayPlaces).InexactFloat64()
}

func fixed(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprint(v)
	}
	return decimal.NewFromFloat(v).StringFixed(DisplayPlaces)
}
