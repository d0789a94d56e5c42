package schema

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sartorproj/tsforecast/timeseries"
)

// Layouts are tried in order when reading a text timestamp.
var Layouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006/01/02",
	"02.01.2006",
	"02.01.2006 15:04",
	"02.01.2006 15:04:05",
	"01/02/2006",
	"02-Jan-2006",
	"02 Jan 2006",
	"Jan 2 2006",
	"2006-01",
	"2006/01",
	"Jan 2006",
	"January 2006",
	"2006",
}

// ParseTime reads s as a timestamp, trying layout first when non-empty.
// Times without a zone are read as UTC.
func ParseTime(s, layout string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if layout != "" {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	for _, l := range Layouts {
		if t, err := time.ParseInLocation(l, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// IndexOrigin is the timestamp of step index 0.
var IndexOrigin = time.Unix(0, 0).UTC()

// numericTimes reads a numeric column. When every value is an integral year
// in 1..9999 each becomes January 1 of that year; otherwise non-negative
// integers are step indices counted from IndexOrigin at freq.
func numericTimes(values []float64, freq timeseries.Frequency) ([]time.Time, int, error) {
	years := true
	for i, v := range values {
		if math.IsNaN(v) || v != math.Trunc(v) {
			return nil, i, fmt.Errorf("value %v is not a year or step index", v)
		}
		if v < 1 || v > 9999 {
			years = false
		}
	}

	out := make([]time.Time, len(values))
	if years {
		for i, v := range values {
			out[i] = time.Date(int(v), time.January, 1, 0, 0, 0, 0, time.UTC)
		}
		return out, -1, nil
	}

	step := timeseries.Daily
	if freq != "" {
		var err error
		if step, err = timeseries.ParseFrequency(string(freq)); err != nil {
			return nil, -1, err
		}
	}
	for i, v := range values {
		if v < 0 || v > math.MaxInt32 {
			return nil, i, fmt.Errorf("value %v is not a year or step index", v)
		}
		out[i] = step.Step(IndexOrigin, int(v))
	}
	return out, -1, nil
}
