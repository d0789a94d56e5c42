package timeseries

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// FormatTime renders a timestamp as a date when it falls on midnight UTC and
// as RFC 3339 otherwise.
func FormatTime(t time.Time) string {
	if t.Location() == time.UTC && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

// WriteCSV writes the series in long format with columns unique_id, ds and y.
func WriteCSV(w io.Writer, series *Series) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"unique_id", "ds", "y"}); err != nil {
		return err
	}

	for i, v := range series.Values {
		ds := strconv.Itoa(i + 1)
		if len(series.Timestamps) == len(series.Values) {
			ds = FormatTime(series.Timestamps[i])
		}
		record := []string{series.ID, ds, strconv.FormatFloat(v, 'f', -1, 64)}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
