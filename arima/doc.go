// Package arima implements seasonal ARIMA models.
//
// An ARIMA(p,d,q)(P,D,Q)[m] model differences the series d times at lag 1
// and D times at lag m, then fits multiplicative AR and MA polynomials to
// the result by conditional sum of squares. Parameters are estimated with
// gonum's Nelder-Mead optimiser, restricted to the stationary and invertible
// region.
//
// # Basic Usage
//
//	model := arima.New(1, 1, 0)
//	if err := model.Fit(series); err != nil {
//	    return err
//	}
//	forecasts, _ := model.Predict(10)
//
// Seasonal models add the seasonal order and period:
//
//	model := arima.NewSeasonal(0, 1, 1, 0, 1, 1, 12) // airline model
//
// # Model Selection
//
// Fitted models expose AIC, AICc and BIC; lower is better. The autoarima
// package searches orders automatically.
package arima
