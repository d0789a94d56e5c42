// Package stats provides the statistical tests and decompositions behind the
// forecasting engines. All functions take raw values.
//
// # Stationarity Tests
//
//	adf := stats.ADF(values, 0)   // H0: unit root
//	kpss := stats.KPSS(values, 0) // H0: level stationary
//
// # Differencing Analysis
//
//	d := stats.NDiffs(values, 2, stats.TestKPSS) // first differences (KPSS or ADF)
//	sd := stats.NSDiffs(values, 12, 1) // seasonal differences (seasonal strength)
//
// # Decomposition
//
//	classical := stats.Decompose(values, 12)
//	stl := stats.STL(values, 12, 2)
//	mstl := stats.MSTL(values, []int{24, 168}, 2)
//
// # Model Selection
//
//	ic := stats.InformationCriteria(logLik, n, k) // AIC, AICc, BIC
package stats
