// Package forecast trains model specs on series and produces timestamped
// point forecasts.
package forecast

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/sartorproj/tsforecast/errs"
	"github.com/sartorproj/tsforecast/models"
	"github.com/sartorproj/tsforecast/timeseries"
)

// Forecast is a sequence of predicted values for one series.
type Forecast struct {
	SeriesID   string
	Model      models.Kind
	Timestamps []time.Time
	Values     []float64
}

// Point is one row of the forecast table.
type Point struct {
	SeriesID       string    `json:"series_id" yaml:"series_id"`
	Timestamp      time.Time `json:"timestamp" yaml:"timestamp"`
	PredictedValue float64   `json:"predicted_value" yaml:"predicted_value"`
}

// Len returns the number of predicted points.
func (f *Forecast) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Values)
}

// Points returns the forecast as table rows.
func (f *Forecast) Points() []Point {
	out := make([]Point, f.Len())
	for i := range out {
		out[i] = Point{SeriesID: f.SeriesID, Timestamp: f.Timestamps[i], PredictedValue: f.Values[i]}
	}
	return out
}

// Series returns the forecast as a series sharing no storage with f.
func (f *Forecast) Series() *timeseries.Series {
	return &timeseries.Series{
		ID:         f.SeriesID,
		Name:       string(f.Model),
		Timestamps: append([]time.Time(nil), f.Timestamps...),
		Values:     append([]float64(nil), f.Values...),
	}
}

// AlignTo returns a copy of f relabelled with the timestamps of test. The
// lengths must match; spacing is not checked.
func (f *Forecast) AlignTo(test *timeseries.Series) (*Forecast, error) {
	if f.Len() != test.Len() {
		return nil, errs.New(errs.KindAlignment, "forecast.AlignTo", "forecast and test lengths differ",
			map[string]any{"forecast": f.Len(), "test": test.Len(), "model": f.Model})
	}
	return &Forecast{
		SeriesID:   f.SeriesID,
		Model:      f.Model,
		Timestamps: append([]time.Time(nil), test.Timestamps...),
		Values:     append([]float64(nil), f.Values...),
	}, nil
}

// WriteCSV writes the forecast table with columns series_id, timestamp and
// predicted_value.
func (f *Forecast) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"series_id", "timestamp", "predicted_value"}); err != nil {
		return err
	}
	for i, v := range f.Values {
		record := []string{
			f.SeriesID,
			timeseries.FormatTime(f.Timestamps[i]),
			strconv.FormatFloat(v, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
