// Package schema maps a raw table onto the canonical single-series form.
//
// The caller names the timestamp column (x) and the value column (y); all
// other columns are dropped and every row is tagged with
// timeseries.DefaultID.
package schema

import (
	"errors"
	"math"
	"time"

	"github.com/sartorproj/tsforecast/errs"
	"github.com/sartorproj/tsforecast/ingest"
	"github.com/sartorproj/tsforecast/timeseries"
)

// Order controls how row order is treated.
type Order int

const (
	// KeepOrder keeps rows in file order.
	KeepOrder Order = iota
	// SortAscending sorts rows by timestamp.
	SortAscending
	// RejectUnordered fails when timestamps are not strictly increasing.
	RejectUnordered
)

var orderNames = map[string]Order{
	"keep":   KeepOrder,
	"sort":   SortAscending,
	"reject": RejectUnordered,
}

// ParseOrder maps "keep", "sort" or "reject" to an Order.
func ParseOrder(s string) (Order, error) {
	if s == "" {
		return KeepOrder, nil
	}
	o, ok := orderNames[s]
	if !ok {
		return KeepOrder, errs.New(errs.KindConfig, "schema.ParseOrder", "unknown row order",
			map[string]any{"order": s})
	}
	return o, nil
}

func (o Order) String() string {
	for name, v := range orderNames {
		if v == o {
			return name
		}
	}
	return "unknown"
}

// Options tune normalization.
type Options struct {
	SeriesID   string // defaults to timeseries.DefaultID
	Order      Order
	TimeLayout string // tried before Layouts
	// IndexFrequency spaces integer step-index columns; Daily when empty.
	IndexFrequency timeseries.Frequency
}

// Normalize builds the series from columns x (timestamps) and y (values)
// keeping file order.
func Normalize(table *ingest.Table, x, y string) (*timeseries.Series, error) {
	return NormalizeWith(table, x, y, Options{})
}

// NormalizeWith is Normalize with options.
func NormalizeWith(table *ingest.Table, x, y string, opts Options) (*timeseries.Series, error) {
	const op = "schema.Normalize"
	fail := func(msg string, details map[string]any) error {
		details["source"] = table.Source
		details["x"] = x
		details["y"] = y
		return errs.New(errs.KindSchema, op, msg, details)
	}

	if x == y {
		return nil, fail("time and value columns must differ", map[string]any{})
	}
	xcol, ok := table.Column(x)
	if !ok {
		return nil, fail("column not found", map[string]any{"column": x, "available": table.Header()})
	}
	ycol, ok := table.Column(y)
	if !ok {
		return nil, fail("column not found", map[string]any{"column": y, "available": table.Header()})
	}
	if ycol.Kind != ingest.Number {
		return nil, fail("value column is not numeric", map[string]any{"column": y})
	}

	values := ycol.Numbers()
	for i, v := range values {
		if math.IsNaN(v) {
			return nil, fail("value column has missing values", map[string]any{"column": y, "row": i + 1})
		}
	}

	timestamps, err := readTimestamps(xcol, opts)
	if err != nil {
		var e *rowError
		if errors.As(err, &e) {
			return nil, errs.Wrap(errs.KindSchema, op, "cannot read timestamp", e.err, map[string]any{
				"source": table.Source, "column": x, "row": e.row, "value": e.value,
			})
		}
		return nil, err
	}

	id := opts.SeriesID
	if id == "" {
		id = timeseries.DefaultID
	}
	series, err := timeseries.NewWithTimestamps(id, timestamps, values)
	if err != nil {
		return nil, fail(err.Error(), map[string]any{})
	}
	series.Name = y

	if i := series.FirstDuplicate(); i >= 0 {
		return nil, fail("duplicate timestamp", map[string]any{
			"row": i + 1, "timestamp": timeseries.FormatTime(series.Timestamps[i]),
		})
	}

	switch opts.Order {
	case SortAscending:
		series = series.Sorted()
	case RejectUnordered:
		if i := series.FirstUnordered(); i >= 0 {
			return nil, fail("timestamps are not increasing", map[string]any{
				"row": i + 1, "timestamp": timeseries.FormatTime(series.Timestamps[i]),
			})
		}
	}
	return series, nil
}

type rowError struct {
	row   int
	value string
	err   error
}

func (e *rowError) Error() string { return e.err.Error() }

func readTimestamps(col ingest.Column, opts Options) ([]time.Time, error) {
	raw := col.Strings()

	if col.Kind == ingest.Number {
		out, row, err := numericTimes(col.Numbers(), opts.IndexFrequency)
		if err != nil {
			if row < 0 || row >= len(raw) {
				return nil, err
			}
			return nil, &rowError{row: row + 1, value: raw[row], err: err}
		}
		return out, nil
	}

	out := make([]time.Time, len(raw))
	for i, s := range raw {
		t, err := ParseTime(s, opts.TimeLayout)
		if err != nil {
			return nil, &rowError{row: i + 1, value: s, err: err}
		}
		out[i] = t
	}
	return out, nil
}
