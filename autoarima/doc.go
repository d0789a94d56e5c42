// Package autoarima selects seasonal ARIMA orders automatically.
//
// The seasonal differencing order comes from the seasonal strength of the
// series and the non-seasonal order from repeated KPSS tests. The ARMA
// orders are then chosen by minimising an information criterion (AICc by
// default), either with the stepwise Hyndman-Khandakar search or an
// exhaustive grid bounded by MaxOrder.
//
//	cfg := autoarima.DefaultConfig(12)
//	result, err := autoarima.Search(ctx, series, cfg)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Order) // e.g. ARIMA(0,1,1)(0,1,1)[12]
//	forecasts, _ := result.Predict(12)
package autoarima
