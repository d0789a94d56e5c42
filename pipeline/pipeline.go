// Package pipeline chains ingestion, normalization, splitting, fitting,
// evaluation and forecasting, logging each stage.
//
// Every method is a function of its arguments: a Runner carries a logger and
// a parallelism limit, never data from a previous call.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sartorproj/tsforecast/forecast"
	"github.com/sartorproj/tsforecast/ingest"
	"github.com/sartorproj/tsforecast/metrics"
	"github.com/sartorproj/tsforecast/models"
	"github.com/sartorproj/tsforecast/schema"
	"github.com/sartorproj/tsforecast/timeseries"
)

// DefaultParallelism bounds concurrent fits in Compare.
const DefaultParallelism = 4

// Runner executes pipeline stages.
type Runner struct {
	log         logrus.FieldLogger
	parallelism int
}

// New returns a Runner logging to log. parallelism < 1 selects
// DefaultParallelism.
func New(log logrus.FieldLogger, parallelism int) *Runner {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	if parallelism < 1 {
		parallelism = DefaultParallelism
	}
	return &Runner{log: log, parallelism: parallelism}
}

// Evaluation is the outcome of validating one model on a train/test split.
type Evaluation struct {
	RunID    uuid.UUID
	Model    models.Kind
	Params   map[string]any
	Train    int
	Test     int
	Forecast *forecast.Forecast // aligned to the test partition
	Metrics  metrics.Metrics
	Fitted   *forecast.Fitted
	Elapsed  time.Duration
	Err      error // set by Compare when this model failed
}

// Load reads and parses a delimited file.
func (r *Runner) Load(path string) (*ingest.Table, error) {
	start := time.Now()
	table, err := ingest.ReadFile(path)
	if err != nil {
		r.log.WithField("stage", "load").WithError(err).Error("Failed to read table")
		return nil, err
	}
	r.logTable(table, start)
	return table, nil
}

// LoadBytes parses an in-memory upload named name.
func (r *Runner) LoadBytes(name string, data []byte) (*ingest.Table, error) {
	start := time.Now()
	table, err := ingest.Read(name, data)
	if err != nil {
		r.log.WithField("stage", "load").WithError(err).Error("Failed to read table")
		return nil, err
	}
	r.logTable(table, start)
	return table, nil
}

func (r *Runner) logTable(table *ingest.Table, start time.Time) {
	entry := r.log.WithFields(logrus.Fields{
		"stage":     "load",
		"source":    table.Source,
		"rows":      table.Rows(),
		"columns":   len(table.Header()),
		"delimiter": string(table.Delimiter),
		"elapsed":   time.Since(start),
	})
	if !table.Sniffed() {
		entry.Warn("Delimiter detection failed, fell back to comma")
		return
	}
	entry.Info("Table loaded")
}

// Prepare normalizes table into a single series.
func (r *Runner) Prepare(table *ingest.Table, x, y string, opts schema.Options) (*timeseries.Series, error) {
	series, err := schema.NormalizeWith(table, x, y, opts)
	entry := r.log.WithFields(logrus.Fields{"stage": "prepare", "x": x, "y": y})
	if err != nil {
		entry.WithError(err).Error("Failed to normalize table")
		return nil, err
	}
	entry.WithField("rows", series.Len()).Info("Series prepared")
	return series, nil
}

// Validate splits series at ratio, fits spec on the train part, aligns the
// forecast to the test part and scores it.
func (r *Runner) Validate(ctx context.Context, series *timeseries.Series, spec models.Spec,
	ratio float64, sampling timeseries.Sampling) (*Evaluation, error) {
	split, err := timeseries.TrainTest(series, ratio)
	if err != nil {
		return nil, err
	}
	return r.validate(ctx, split, spec, sampling)
}

func (r *Runner) validate(ctx context.Context, split *timeseries.Split, spec models.Spec,
	sampling timeseries.Sampling) (*Evaluation, error) {
	ev := &Evaluation{
		RunID:  uuid.New(),
		Model:  spec.Kind(),
		Params: spec.Params(),
		Train:  split.Train.Len(),
		Test:   split.Test.Len(),
	}
	log := r.log.WithFields(logrus.Fields{
		"stage":  "validate",
		"model":  ev.Model,
		"run_id": ev.RunID,
		"train":  ev.Train,
		"test":   ev.Test,
	})
	start := time.Now()

	fc, fitted, err := forecast.Fit(ctx, spec, split.Train, split.Test.Len(), sampling)
	if err != nil {
		log.WithError(err).Warn("Model fit failed")
		return nil, err
	}
	if fc, err = fc.AlignTo(split.Test); err != nil {
		return nil, err
	}
	m, err := metrics.Evaluate(fc, split.Test)
	if err != nil {
		log.WithError(err).Warn("Metrics unavailable")
		return nil, err
	}

	ev.Forecast, ev.Fitted, ev.Metrics = fc, fitted, m
	ev.Elapsed = time.Since(start)
	log.WithFields(logrus.Fields{
		"elapsed": ev.Elapsed,
		"mae":     m.MAE,
		"r2":      m.R2,
		"mape":    m.MAPE,
	}).Info("Model validated")
	return ev, nil
}

// Compare validates each spec on the same split concurrently. A failing
// model does not stop the others; its Evaluation carries Err. Results are
// ordered by ascending MAE with failures last.
func (r *Runner) Compare(ctx context.Context, series *timeseries.Series, specs []models.Spec,
	ratio float64, sampling timeseries.Sampling) ([]*Evaluation, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("compare: no models given")
	}
	split, err := timeseries.TrainTest(series, ratio)
	if err != nil {
		return nil, err
	}

	results := make([]*Evaluation, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)

	for i, spec := range specs {
		own := &timeseries.Split{Train: split.Train.Copy(), Test: split.Test.Copy()}
		g.Go(func() error {
			ev, err := r.validate(gctx, own, spec, sampling)
			if err != nil {
				ev = &Evaluation{Model: spec.Kind(), Params: spec.Params(), Train: own.Train.Len(),
					Test: own.Test.Len(), Err: err}
			}
			results[i] = ev
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if (a.Err == nil) != (b.Err == nil) {
			return a.Err == nil
		}
		return a.Err == nil && a.Metrics.MAE < b.Metrics.MAE
	})

	r.log.WithFields(logrus.Fields{
		"stage":  "compare",
		"models": len(specs),
		"failed": countFailed(results),
	}).Info("Comparison finished")
	return results, nil
}

func countFailed(results []*Evaluation) int {
	n := 0
	for _, ev := range results {
		if ev.Err != nil {
			n++
		}
	}
	return n
}

// Forecast refits spec on the complete series and projects horizon steps.
func (r *Runner) Forecast(ctx context.Context, series *timeseries.Series, spec models.Spec,
	horizon int, sampling timeseries.Sampling) (*forecast.Forecast, error) {
	log := r.log.WithFields(logrus.Fields{
		"stage":   "forecast",
		"model":   spec.Kind(),
		"rows":    series.Len(),
		"horizon": horizon,
	})
	start := time.Now()

	fc, err := forecast.Project(ctx, spec, series, horizon, sampling)
	if err != nil {
		log.WithError(err).Warn("Forecast failed")
		return nil, err
	}
	log.WithField("elapsed", time.Since(start)).Info("Forecast produced")
	return fc, nil
}
