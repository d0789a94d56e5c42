package timeseries

import (
	"strings"
	"time"

	"github.com/sartorproj/tsforecast/errs"
)

// Frequency is the fixed time step between consecutive observations.
type Frequency string

const (
	Yearly    Frequency = "yearly"
	Quarterly Frequency = "quarterly"
	Monthly   Frequency = "monthly"
	Weekly    Frequency = "weekly"
	Daily     Frequency = "daily"
	Hourly    Frequency = "hourly"
	Minutely  Frequency = "minutely"
)

// Frequencies lists the supported frequencies from coarsest to finest.
func Frequencies() []Frequency {
	return []Frequency{Yearly, Quarterly, Monthly, Weekly, Daily, Hourly, Minutely}
}

var frequencyAliases = map[string]Frequency{
	"yearly": Yearly, "annual": Yearly, "y": Yearly, "ys": Yearly, "ye": Yearly, "a": Yearly, "as": Yearly,
	"quarterly": Quarterly, "q": Quarterly, "qs": Quarterly, "qe": Quarterly,
	"monthly": Monthly, "m": Monthly, "ms": Monthly, "me": Monthly,
	"weekly": Weekly, "w": Weekly,
	"daily": Daily, "d": Daily,
	"hourly": Hourly, "h": Hourly,
	"minutely": Minutely, "min": Minutely, "t": Minutely,
}

// ParseFrequency accepts a frequency name or a pandas-style alias
// ("MS", "D", "h", ...), case-insensitively.
func ParseFrequency(s string) (Frequency, error) {
	if f, ok := frequencyAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f, nil
	}
	return "", errs.New(errs.KindConfig, "timeseries.ParseFrequency", "unsupported frequency",
		map[string]any{"frequency": s})
}

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	for _, known := range Frequencies() {
		if f == known {
			return true
		}
	}
	return false
}

// Step returns t advanced by n steps. Calendar frequencies keep the day of
// month, clamping to the month end; month-end inputs stay on month ends.
func (f Frequency) Step(t time.Time, n int) time.Time {
	switch f {
	case Yearly:
		return addMonths(t, 12*n)
	case Quarterly:
		return addMonths(t, 3*n)
	case Monthly:
		return addMonths(t, n)
	case Weekly:
		return t.AddDate(0, 0, 7*n)
	case Daily:
		return t.AddDate(0, 0, n)
	case Hourly:
		return t.Add(time.Duration(n) * time.Hour)
	case Minutely:
		return t.Add(time.Duration(n) * time.Minute)
	default:
		return t
	}
}

// Range returns n timestamps spaced by f, starting one step after last.
func (f Frequency) Range(last time.Time, n int) []time.Time {
	if n <= 0 {
		return []time.Time{}
	}
	out := make([]time.Time, n)
	for i := range out {
		out[i] = f.Step(last, i+1)
	}
	return out
}

func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	monthEnd := day == daysIn(year, month)

	total := int(month) - 1 + n
	year += floorDiv(total, 12)
	month = time.Month(total - floorDiv(total, 12)*12 + 1)

	last := daysIn(year, month)
	if day > last || monthEnd {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Sampling is the frequency tag handed to fitting and forecasting. Models
// with several seasonal periods take one entry per period; a single series
// has a single spacing, so every entry must name the same step.
type Sampling []Frequency

// Resolve returns the step frequency for a model with the given number of
// seasonal periods.
func (s Sampling) Resolve(periods int) (Frequency, error) {
	details := map[string]any{"frequency": []Frequency(s), "season_lengths": periods}
	if len(s) == 0 {
		return "", errs.New(errs.KindConfig, "timeseries.Sampling", "frequency is required", details)
	}
	if periods <= 1 && len(s) != 1 {
		return "", errs.New(errs.KindConfig, "timeseries.Sampling", "expected a single frequency", details)
	}
	if periods > 1 && len(s) != 1 && len(s) != periods {
		return "", errs.New(errs.KindConfig, "timeseries.Sampling",
			"frequency list must match the number of season lengths", details)
	}
	for _, f := range s {
		if !f.Valid() {
			return "", errs.New(errs.KindConfig, "timeseries.Sampling", "unsupported frequency", details)
		}
		if f != s[0] {
			return "", errs.New(errs.KindConfig, "timeseries.Sampling", "frequencies disagree", details)
		}
	}
	return s[0], nil
}
