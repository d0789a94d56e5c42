package forecast

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/sartorproj/tsforecast/errs"
	"github.com/sartorproj/tsforecast/models"
	"github.com/sartorproj/tsforecast/timeseries"
)

// Fitted is a trained model. It is safe to call Project concurrently only
// when every call refits, so share a Fitted across goroutines only for
// reading its fields.
type Fitted struct {
	ID          uuid.UUID
	Spec        models.Spec
	Frequency   timeseries.Frequency
	Fingerprint uint64 // of the training series
	TrainedOn   int    // training observations
	LastSeen    time.Time

	estimator models.Estimator
}

// Fingerprint hashes the timestamps and values of series.
func Fingerprint(series *timeseries.Series) uint64 {
	h := xxhash.New()
	var buf [8]byte
	_, _ = h.WriteString(series.ID)
	for i, v := range series.Values {
		if i < len(series.Timestamps) {
			binary.LittleEndian.PutUint64(buf[:], uint64(series.Timestamps[i].UnixNano()))
			_, _ = h.Write(buf[:])
		}
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// Fit trains spec on train and predicts testLen steps after the last
// training timestamp. The forecast timestamps follow the sampling frequency
// and are not yet aligned with the test partition.
func Fit(ctx context.Context, spec models.Spec, train *timeseries.Series, testLen int,
	sampling timeseries.Sampling) (*Forecast, *Fitted, error) {
	const op = "forecast.Fit"

	if testLen < 0 {
		return nil, nil, errs.New(errs.KindConfig, op, "test length must not be negative",
			map[string]any{"test_length": testLen})
	}
	freq, err := sampling.Resolve(spec.SeasonPeriods())
	if err != nil {
		return nil, nil, err
	}

	fitted, err := fitSpec(ctx, op, spec, train, freq)
	if err != nil {
		return nil, nil, err
	}
	fc, err := fitted.predict(op, train, testLen)
	if err != nil {
		return nil, nil, err
	}
	return fc, fitted, nil
}

// Project trains spec on the complete series and forecasts horizon steps
// past its last observation. A zero horizon returns an empty forecast
// without training.
func Project(ctx context.Context, spec models.Spec, series *timeseries.Series, horizon int,
	sampling timeseries.Sampling) (*Forecast, error) {
	const op = "forecast.Project"

	freq, done, err := checkHorizon(op, spec, series, horizon, sampling)
	if done != nil || err != nil {
		return done, err
	}

	fitted, err := fitSpec(ctx, op, spec, series, freq)
	if err != nil {
		return nil, err
	}
	return fitted.predict(op, series, horizon)
}

// Project forecasts horizon steps past the end of series, reusing the
// trained estimator when series and frequency are the ones it was fitted on
// and refitting the same spec otherwise.
func (f *Fitted) Project(ctx context.Context, series *timeseries.Series, horizon int,
	sampling timeseries.Sampling) (*Forecast, error) {
	const op = "forecast.Project"

	freq, done, err := checkHorizon(op, f.Spec, series, horizon, sampling)
	if done != nil || err != nil {
		return done, err
	}

	if freq == f.Frequency && Fingerprint(series) == f.Fingerprint {
		return f.predict(op, series, horizon)
	}
	refit, err := fitSpec(ctx, op, f.Spec, series, freq)
	if err != nil {
		return nil, err
	}
	return refit.predict(op, series, horizon)
}

func checkHorizon(op string, spec models.Spec, series *timeseries.Series, horizon int,
	sampling timeseries.Sampling) (timeseries.Frequency, *Forecast, error) {
	if horizon < 0 {
		return "", nil, errs.New(errs.KindConfig, op, "horizon must not be negative",
			map[string]any{"horizon": horizon})
	}
	freq, err := sampling.Resolve(spec.SeasonPeriods())
	if err != nil {
		return "", nil, err
	}
	if horizon == 0 {
		return freq, &Forecast{
			SeriesID:   series.ID,
			Model:      spec.Kind(),
			Timestamps: []time.Time{},
			Values:     []float64{},
		}, nil
	}
	return freq, nil, nil
}

func fitSpec(ctx context.Context, op string, spec models.Spec, series *timeseries.Series,
	freq timeseries.Frequency) (*Fitted, error) {
	if err := ctx.Err(); err != nil {
		return nil, fitError(op, spec, series, "fit cancelled", err)
	}

	est := spec.NewEstimator()
	if err := est.Fit(ctx, series.Copy()); err != nil {
		return nil, fitError(op, spec, series, "model fit failed", err)
	}
	return &Fitted{
		ID:          uuid.New(),
		Spec:        spec,
		Frequency:   freq,
		Fingerprint: Fingerprint(series),
		TrainedOn:   series.Len(),
		LastSeen:    series.Last(),
		estimator:   est,
	}, nil
}

func (f *Fitted) predict(op string, series *timeseries.Series, steps int) (*Forecast, error) {
	values, err := f.estimator.Predict(steps)
	if err != nil {
		return nil, fitError(op, f.Spec, series, "prediction failed", err)
	}
	if len(values) != steps {
		return nil, fitError(op, f.Spec, series, "model returned the wrong number of points", nil)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			e := fitError(op, f.Spec, series, "model produced a non-finite forecast", nil)
			e.Details["step"] = i + 1
			return nil, e
		}
	}

	return &Forecast{
		SeriesID:   series.ID,
		Model:      f.Spec.Kind(),
		Timestamps: f.Frequency.Range(series.Last(), steps),
		Values:     values,
	}, nil
}

func fitError(op string, spec models.Spec, series *timeseries.Series, msg string, cause error) *errs.Error {
	return errs.Wrap(errs.KindFit, op, msg, cause, map[string]any{
		"model":  spec.Kind(),
		"params": spec.Params(),
		"rows":   series.Len(),
	})
}
