// Package tsforecast validates and runs univariate forecasting models on
// tabular time series.
//
// A run reads a delimited file, maps two of its columns onto a single
// series, splits it positionally into train and test partitions, fits one
// of several statistical models on the train part, scores the forecast
// against the test part and finally refits on the whole series to project
// future values.
//
// # Quick Start
//
//	table, _ := ingest.ReadFile("sales.csv")
//	series, _ := schema.Normalize(table, "month", "sales")
//	split, _ := timeseries.TrainTest(series, 80)
//
//	spec, _ := models.Build("SeasonalNaive", map[string]any{"season_length": 12})
//	sampling := timeseries.Sampling{timeseries.Monthly}
//	fc, _, _ := forecast.Fit(ctx, spec, split.Train, split.Test.Len(), sampling)
//	fc, _ = fc.AlignTo(split.Test)
//	m, _ := metrics.Evaluate(fc, split.Test)
//
//	future, _ := forecast.Project(ctx, spec, series, 12, sampling)
//
// # Packages
//
//   - ingest: delimiter detection and typed column parsing
//   - schema: timestamp/value column selection
//   - timeseries: series type, frequencies, train/test split
//   - models: model kinds, parameter validation, estimators
//   - forecast: fitting and projection
//   - metrics: MAE, R² and MAPE
//   - pipeline: logged orchestration and model comparison
//   - arima, autoarima, ets, naive, mstl: model engines
//   - stats: stationarity tests, differencing, decomposition
//   - config, httpapi, cmd/tsforecast: configuration and outer surfaces
//
// # References
//
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - Bandara, K., Hyndman, R.J., & Bergmeir, C. (2021). MSTL: A Seasonal-Trend
//     Decomposition Algorithm for Time Series with Multiple Seasonal Patterns
package tsforecast
