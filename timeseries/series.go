// Package timeseries provides core time series data structures and operations.
package timeseries

import (
	"errors"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// DefaultID tags every row of a single-series dataset.
const DefaultID = "time-analysis"

// origin anchors the synthetic timestamps produced by New.
var origin = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Series represents a time series with timestamps and values.
type Series struct {
	ID         string // series identifier
	Name       string // source column of the values
	Timestamps []time.Time
	Values     []float64
}

// New creates a new hourly time series from values.
func New(values []float64) *Series {
	return &Series{
		ID:         DefaultID,
		Timestamps: Hourly.Range(origin.Add(-time.Hour), len(values)),
		Values:     values,
	}
}

// NewWithTimestamps creates a time series with explicit timestamps.
func NewWithTimestamps(id string, timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, errors.New("timestamps and values must have the same length")
	}
	return &Series{
		ID:         id,
		Timestamps: timestamps,
		Values:     values,
	}, nil
}

// Len returns the length of the series.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Values)
}

// Last returns the final timestamp, or the zero time for an empty series.
func (s *Series) Last() time.Time {
	if s == nil || len(s.Timestamps) == 0 {
		return time.Time{}
	}
	return s.Timestamps[len(s.Timestamps)-1]
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// Variance calculates the sample variance of the series.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	return stat.Variance(s.Values, nil)
}

// SeasonalDiff returns y[t] - y[t-m], labelled with the later timestamp.
func (s *Series) SeasonalDiff(m int) *Series {
	if m <= 0 || len(s.Values) <= m {
		return &Series{ID: s.ID, Values: []float64{}}
	}

	values := Difference(s.Values, m)
	timestamps := make([]time.Time, len(values))
	if len(s.Timestamps) == len(s.Values) {
		copy(timestamps, s.Timestamps[m:])
	}

	return &Series{
		ID:         s.ID,
		Name:       s.Name + "_seasonal_diff",
		Timestamps: timestamps,
		Values:     values,
	}
}

// Difference returns x[t] - x[t-lag] for t >= lag.
func Difference(x []float64, lag int) []float64 {
	if lag <= 0 || len(x) <= lag {
		return []float64{}
	}
	out := make([]float64, len(x)-lag)
	for i := lag; i < len(x); i++ {
		out[i-lag] = x[i] - x[i-lag]
	}
	return out
}

// Slice returns a copy of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{ID: s.ID, Name: s.Name, Timestamps: []time.Time{}, Values: []float64{}}
	}

	values := make([]float64, end-start)
	copy(values, s.Values[start:end])

	timestamps := make([]time.Time, len(values))
	if len(s.Timestamps) >= end {
		copy(timestamps, s.Timestamps[start:end])
	}

	return &Series{
		ID:         s.ID,
		Name:       s.Name,
		Timestamps: timestamps,
		Values:     values,
	}
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	return s.Slice(0, len(s.Values))
}

// FirstUnordered returns the index of the first timestamp that is not
// strictly after its predecessor, or -1 when the series is strictly increasing.
func (s *Series) FirstUnordered() int {
	for i := 1; i < len(s.Timestamps); i++ {
		if !s.Timestamps[i].After(s.Timestamps[i-1]) {
			return i
		}
	}
	return -1
}

// FirstDuplicate returns the index of the first timestamp already seen
// earlier in the series, or -1.
func (s *Series) FirstDuplicate() int {
	seen := make(map[int64]struct{}, len(s.Timestamps))
	for i, ts := range s.Timestamps {
		key := ts.UnixNano()
		if _, ok := seen[key]; ok {
			return i
		}
		seen[key] = struct{}{}
	}
	return -1
}

// Sorted returns a copy ordered by timestamp. Equal timestamps keep their
// relative order.
func (s *Series) Sorted() *Series {
	idx := make([]int, len(s.Values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return s.Timestamps[idx[a]].Before(s.Timestamps[idx[b]])
	})

	out := &Series{
		ID:         s.ID,
		Name:       s.Name,
		Timestamps: make([]time.Time, len(idx)),
		Values:     make([]float64, len(idx)),
	}
	for to, from := range idx {
		out.Timestamps[to] = s.Timestamps[from]
		out.Values[to] = s.Values[from]
	}
	return out
}

// Summary holds descriptive statistics of the values.
type Summary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Q25   float64 `json:"q25"`
	Q50   float64 `json:"q50"`
	Q75   float64 `json:"q75"`
	Max   float64 `json:"max"`
}

// Describe summarises the values the way a data preview shows them.
func (s *Series) Describe() Summary {
	n := len(s.Values)
	if n == 0 {
		nan := math.NaN()
		return Summary{Mean: nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan}
	}

	sorted := make([]float64, n)
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	return Summary{
		Count: n,
		Mean:  s.Mean(),
		Std:   math.Sqrt(s.Variance()),
		Min:   sorted[0],
		Q25:   stat.Quantile(0.25, stat.LinInterp, sorted, nil),
		Q50:   stat.Quantile(0.5, stat.LinInterp, sorted, nil),
		Q75:   stat.Quantile(0.75, stat.LinInterp, sorted, nil),
		Max:   sorted[n-1],
	}
}
