// Package timeseries provides time series data structures and utilities.
//
// A Series holds the canonical (timestamp, value) pairs of one univariate
// series, tagged with a series identifier. Single-series datasets use
// DefaultID.
//
// # Creating a Series
//
//	values := []float64{100, 102, 105, 103, 108, 110}
//	series := timeseries.New(values) // hourly timestamps from a fixed origin
//
//	series, err := timeseries.NewWithTimestamps(timeseries.DefaultID, stamps, values)
//
// # Frequencies
//
// A Frequency is the step between observations. Calendar steps keep the day
// of the month and stay on month ends:
//
//	next := timeseries.Monthly.Step(last, 1)
//	future := timeseries.Monthly.Range(last, 12)
//
// Fitting and forecasting take a Sampling, the list of frequency tags a model
// needs (one per seasonal period for multi-seasonal models):
//
//	freq, err := timeseries.Sampling{timeseries.Monthly}.Resolve(1)
//
// # Train/Test Split
//
//	split, err := timeseries.TrainTest(series, 80) // 80% train, positional
//
// # Export
//
//	err := timeseries.WriteCSV(w, series) // unique_id,ds,y
package timeseries
