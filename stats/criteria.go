package stats

import "math"

// Criteria holds the information criteria of a fitted model.
type Criteria struct {
	LogLik float64
	AIC    float64
	AICc   float64
	BIC    float64
}

// InformationCriteria computes AIC, AICc and BIC from a log-likelihood over
// nObs observations with nParams estimated parameters. AICc is +Inf when
// nObs <= nParams+1.
func InformationCriteria(logLik float64, nObs, nParams int) Criteria {
	n, k := float64(nObs), float64(nParams)
	c := Criteria{
		LogLik: logLik,
		AIC:    -2*logLik + 2*k,
		BIC:    -2*logLik + k*math.Log(n),
		AICc:   math.Inf(1),
	}
	if n-k-1 > 0 {
		c.AICc = c.AIC + 2*k*(k+1)/(n-k-1)
	}
	return c
}

// GaussianLogLik is the concentrated Gaussian log-likelihood of n residuals
// with sum of squares sse. A perfect fit is scored as a vanishing sse.
func GaussianLogLik(sse float64, n int) float64 {
	if n == 0 {
		return math.Inf(-1)
	}
	if sse <= 0 {
		sse = 1e-300
	}
	nf := float64(n)
	return -0.5 * nf * (math.Log(2*math.Pi*sse/nf) + 1)
}
