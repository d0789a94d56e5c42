package pipeline

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/tsforecast/errs"
	"github.com/sartorproj/tsforecast/models"
	"github.com/sartorproj/tsforecast/schema"
	"github.com/sartorproj/tsforecast/timeseries"
)

var monthly = timeseries.Sampling{timeseries.Monthly}

func salesCSV(n int, delim string) string {
	var b strings.Builder
	b.WriteString("month" + delim + "region" + delim + "sales\n")
	start := time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		v := 200 + 20*math.Sin(2*math.Pi*float64(i)/12) + float64(i)/2
		fmt.Fprintf(&b, "%s%snorth%s%.3f\n", start.AddDate(0, i, 0).Format("2006-01-02"), delim, delim, v)
	}
	return b.String()
}

func prepared(t *testing.T, r *Runner, n int) *timeseries.Series {
	t.Helper()
	table, err := r.LoadBytes("sales.csv", []byte(salesCSV(n, ",")))
	require.NoError(t, err)
	series, err := r.Prepare(table, "month", "sales", schema.Options{})
	require.NoError(t, err)
	return series
}

func TestLoadLogsTable(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := New(logger, 0)

	path := filepath.Join(t.TempDir(), "sales.tsv")
	require.NoError(t, os.WriteFile(path, []byte(salesCSV(5, "\t")), 0o600))

	table, err := r.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, table.Rows())
	assert.Equal(t, '\t', table.Delimiter)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "load", entry.Data["stage"])
	assert.Equal(t, 5, entry.Data["rows"])
	assert.Equal(t, "\t", entry.Data["delimiter"])
}

func TestLoadWarnsOnFallback(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := New(logger, 0)

	_, err := r.LoadBytes("single.csv", []byte("value\n1\n2\n"))
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
}

func TestLoadMissingFile(t *testing.T) {
	logger, hook := test.NewNullLogger()
	_, err := New(logger, 0).Load(filepath.Join(t.TempDir(), "absent.csv"))
	assert.ErrorIs(t, err, errs.ErrIngestion)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestPrepare(t *testing.T) {
	logger, _ := test.NewNullLogger()
	r := New(logger, 0)

	series := prepared(t, r, 24)
	assert.Equal(t, 24, series.Len())
	assert.Equal(t, timeseries.DefaultID, series.ID)

	table, err := r.LoadBytes("sales.csv", []byte(salesCSV(3, ",")))
	require.NoError(t, err)
	_, err = r.Prepare(table, "month", "region", schema.Options{})
	assert.ErrorIs(t, err, errs.ErrSchema)
}

func TestValidate(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := New(logger, 0)
	series := prepared(t, r, 48)

	spec, err := models.NewSeasonalNaive(12)
	require.NoError(t, err)

	ev, err := r.Validate(context.Background(), series, spec, 75, monthly)
	require.NoError(t, err)

	assert.Equal(t, 36, ev.Train)
	assert.Equal(t, 12, ev.Test)
	assert.Equal(t, models.SeasonalNaive, ev.Model)
	require.Equal(t, 12, ev.Forecast.Len())
	assert.True(t, ev.Forecast.Timestamps[0].Equal(series.Timestamps[36]))
	// One season later the trend has added 6 to every point.
	assert.InDelta(t, 6.0, ev.Metrics.MAE, 0.01)
	assert.NotNil(t, ev.Fitted)

	entry := hook.LastEntry()
	assert.Equal(t, "validate", entry.Data["stage"])
	assert.Equal(t, ev.RunID, entry.Data["run_id"])
}

func TestValidateBadRatio(t *testing.T) {
	r := New(nil, 0)
	series := prepared(t, r, 12)
	_, err := r.Validate(context.Background(), series, models.NewHistoricAverage(), 100, monthly)
	assert.ErrorIs(t, err, errs.ErrConfig)
}

func TestCompare(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := New(logger, 2)
	series := prepared(t, r, 48)

	naive, err := models.NewSeasonalNaive(12)
	require.NoError(t, err)
	tooLong, err := models.NewSeasonalNaive(40)
	require.NoError(t, err)
	hw, err := models.NewHoltWinters(12)
	require.NoError(t, err)

	specs := []models.Spec{tooLong, models.NewHistoricAverage(), naive, hw}
	results, err := r.Compare(context.Background(), series, specs, 75, monthly)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i := 0; i < 3; i++ {
		require.NoError(t, results[i].Err)
		if i > 0 {
			assert.LessOrEqual(t, results[i-1].Metrics.MAE, results[i].Metrics.MAE)
		}
	}
	last := results[3]
	assert.ErrorIs(t, last.Err, errs.ErrFit)
	assert.Equal(t, models.SeasonalNaive, last.Model)
	assert.Equal(t, 40, last.Params[models.ParamSeasonLength])

	entry := hook.LastEntry()
	assert.Equal(t, "compare", entry.Data["stage"])
	assert.Equal(t, 1, entry.Data["failed"])
}

func TestCompareNoModels(t *testing.T) {
	r := New(nil, 0)
	_, err := r.Compare(context.Background(), prepared(t, r, 12), nil, 50, monthly)
	assert.Error(t, err)
}

func TestCompareCancelled(t *testing.T) {
	r := New(nil, 0)
	series := prepared(t, r, 24)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Compare(ctx, series, []models.Spec{models.NewHistoricAverage()}, 50, monthly)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForecast(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := New(logger, 0)
	series := prepared(t, r, 24)

	fc, err := r.Forecast(context.Background(), series, models.NewHistoricAverage(), 3, monthly)
	require.NoError(t, err)
	require.Equal(t, 3, fc.Len())
	assert.InDelta(t, series.Mean(), fc.Values[0], 1e-9)
	assert.True(t, fc.Timestamps[0].Equal(series.Last().AddDate(0, 1, 0)))
	assert.Equal(t, "forecast", hook.LastEntry().Data["stage"])

	empty, err := r.Forecast(context.Background(), series, models.NewHistoricAverage(), 0, monthly)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	_, err = r.Forecast(context.Background(), series, models.NewHistoricAverage(), -1, monthly)
	assert.ErrorIs(t, err, errs.ErrConfig)
}
