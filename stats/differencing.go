package stats

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/tsforecast/timeseries"
)

// SeasonalStrengthThreshold is the seasonal strength at or above which one
// seasonal difference is suggested.
const SeasonalStrengthThreshold = 0.64

// UnitRootTest selects the test NDiffs applies after each difference.
type UnitRootTest string

const (
	TestKPSS UnitRootTest = "kpss"
	TestADF  UnitRootTest = "adf"
)

// ParseUnitRootTest maps a case-insensitive name to a test. Empty selects KPSS.
func ParseUnitRootTest(s string) (UnitRootTest, error) {
	switch t := UnitRootTest(strings.ToLower(strings.TrimSpace(s))); t {
	case TestKPSS, TestADF:
		return t, nil
	case "":
		return TestKPSS, nil
	}
	return "", fmt.Errorf("unknown unit root test %q", s)
}

// stationary reports whether test accepts x as stationary. Series too short
// to test count as stationary.
func (t UnitRootTest) stationary(x []float64) bool {
	if t == TestADF {
		result := ADF(x, 0)
		return result == nil || result.IsStationary
	}
	result := KPSS(x, 0)
	return result == nil || result.IsStationary
}

// NDiffs returns the number of first differences (at most maxD) after
// which test finds x stationary. KPSS stops once stationarity is no longer
// rejected; ADF stops once a unit root is rejected. Series shorter than ten
// points are left undifferenced.
func NDiffs(x []float64, maxD int, test UnitRootTest) int {
	if maxD <= 0 {
		maxD = 2
	}

	current := x
	for d := 0; d < maxD; d++ {
		if test.stationary(current) {
			return d
		}
		current = timeseries.Difference(current, 1)
	}
	return maxD
}

// NSDiffs returns the number of seasonal differences of period m (at most
// maxD) suggested by the seasonal strength of x.
func NSDiffs(x []float64, m, maxD int) int {
	if maxD <= 0 {
		maxD = 1
	}
	if m <= 1 {
		return 0
	}

	current := x
	for d := 0; d < maxD; d++ {
		if len(current) < 2*m || SeasonalStrength(current, m) < SeasonalStrengthThreshold {
			return d
		}
		current = timeseries.Difference(current, m)
	}
	return maxD
}

// SeasonalStrength measures seasonality as max(0, 1 - Var(R)/Var(S+R)) over
// a classical additive decomposition of period m.
func SeasonalStrength(x []float64, m int) float64 {
	d := Decompose(x, m)
	if d == nil {
		return 0
	}

	var remainder, detrended []float64
	for i := range x {
		if math.IsNaN(d.Trend[i]) {
			continue
		}
		remainder = append(remainder, d.Remainder[i])
		detrended = append(detrended, d.Seasonal[i]+d.Remainder[i])
	}
	if len(detrended) < 2 {
		return 0
	}

	varSR := stat.Variance(detrended, nil)
	if varSR == 0 {
		return 0
	}
	return math.Max(0, 1-stat.Variance(remainder, nil)/varSR)
}
