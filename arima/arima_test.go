package arima

import (
	"errors"
	"math"
	"testing"

	"github.com/sartorproj/tsforecast/timeseries"
)

func TestNew(t *testing.T) {
	model := New(2, 1, 1)

	if model.Order.P != 2 || model.Order.D != 1 || model.Order.Q != 1 {
		t.Errorf("Unexpected order %+v", model.Order)
	}
	if model.Order.Seasonal() {
		t.Error("Non-seasonal model reports a seasonal part")
	}
	if got := model.Order.String(); got != "ARIMA(2,1,1)" {
		t.Errorf("Expected ARIMA(2,1,1), got %s", got)
	}
}

func TestNewSeasonal(t *testing.T) {
	model := NewSeasonal(0, 1, 1, 0, 1, 1, 12)
	if got := model.Order.String(); got != "ARIMA(0,1,1)(0,1,1)[12]" {
		t.Errorf("Unexpected order string %s", got)
	}

	flat := NewSeasonal(1, 0, 0, 1, 1, 0, 1)
	if flat.Order.Seasonal() || flat.Order.SD != 0 {
		t.Errorf("Period 1 should drop the seasonal part, got %+v", flat.Order)
	}
}

func TestExpand(t *testing.T) {
	// (1 - 0.5B)(1 - 0.3B^4) = 1 - 0.5B - 0.3B^4 + 0.15B^5
	got := expand([]float64{0.5}, []float64{0.3}, 4, -1)
	expected := []float64{0.5, 0, 0, 0.3, -0.15}

	if len(got) != len(expected) {
		t.Fatalf("Expected %d lags, got %d", len(expected), len(got))
	}
	for i := range expected {
		if math.Abs(got[i]-expected[i]) > 1e-12 {
			t.Errorf("Lag %d: expected %f, got %f", i+1, expected[i], got[i])
		}
	}

	// (1 + 0.4B)(1 + 0.5B^2) = 1 + 0.4B + 0.5B^2 + 0.2B^3
	ma := expand([]float64{0.4}, []float64{0.5}, 2, 1)
	for i, v := range []float64{0.4, 0.5, 0.2} {
		if math.Abs(ma[i]-v) > 1e-12 {
			t.Errorf("MA lag %d: expected %f, got %f", i+1, v, ma[i])
		}
	}

	if expand(nil, nil, 12, 1) != nil {
		t.Error("Empty polynomials should expand to nil")
	}
}

func TestInsideUnitCircle(t *testing.T) {
	tests := []struct {
		name   string
		coeffs []float64
		want   bool
	}{
		{"empty", nil, true},
		{"ar1 stationary", []float64{0.5}, true},
		{"ar1 explosive", []float64{1.2}, false},
		{"ar2 stationary", []float64{0.5, 0.3}, true},
		{"ar2 explosive", []float64{0.5, 0.6}, false},
		{"ar2 complex stationary", []float64{0.5, -0.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := insideUnitCircle(tt.coeffs); got != tt.want {
				t.Errorf("insideUnitCircle(%v) = %v, want %v", tt.coeffs, got, tt.want)
			}
		})
	}
}

func TestWhiteNoiseModelPredictsMean(t *testing.T) {
	values := []float64{3, 5, 4, 6, 2, 4, 5, 3, 4, 4}
	model := New(0, 0, 0)
	if err := model.FitValues(values); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	forecasts, err := model.Predict(3)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for i, f := range forecasts {
		if math.Abs(f-4) > 1e-10 {
			t.Errorf("Step %d: expected 4, got %f", i, f)
		}
	}
}

func TestRandomWalkPredictsLastValue(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = float64(i%4) + float64(i)
	}

	model := New(0, 1, 0)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	forecasts, _ := model.Predict(5)
	for i, f := range forecasts {
		if math.Abs(f-values[29]) > 1e-10 {
			t.Errorf("Step %d: expected %f, got %f", i, values[29], f)
		}
	}
}

func TestSecondDifferenceExtrapolatesLinearly(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(i * i)
	}

	model := New(0, 2, 0)
	if err := model.FitValues(values); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	forecasts, _ := model.Predict(3)
	last, slope := values[19], values[19]-values[18]
	for h, f := range forecasts {
		want := last + float64(h+1)*slope
		if math.Abs(f-want) > 1e-9 {
			t.Errorf("Step %d: expected %f, got %f", h+1, want, f)
		}
	}
}

func TestSeasonalDifferenceRepeatsSeason(t *testing.T) {
	season := []float64{10, 20, 15, 5}
	values := make([]float64, 24)
	for i := range values {
		values[i] = season[i%4]
	}

	model := NewSeasonal(0, 0, 0, 0, 1, 0, 4)
	if err := model.FitValues(values); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	forecasts, _ := model.Predict(6)
	for h, f := range forecasts {
		if math.Abs(f-season[h%4]) > 1e-9 {
			t.Errorf("Step %d: expected %f, got %f", h+1, season[h%4], f)
		}
	}
}

func TestFitAR1(t *testing.T) {
	n := 200
	phi := 0.7
	values := make([]float64, n)
	values[0] = 100
	for i := 1; i < n; i++ {
		innovation := float64(i%7-3) / 3
		values[i] = phi*(values[i-1]-100) + 100 + innovation
	}

	model := New(1, 0, 0)
	if err := model.FitValues(values); err != nil {
		t.Fatalf("Failed to fit AR(1) model: %v", err)
	}
	t.Logf("True AR coeff: %f, Estimated: %f", phi, model.ARCoeffs[0])

	if math.Abs(model.ARCoeffs[0]) >= 1 {
		t.Errorf("Estimate should be stationary, got %f", model.ARCoeffs[0])
	}
	if math.IsInf(model.AIC, 0) || math.IsNaN(model.AIC) {
		t.Errorf("AIC should be finite, got %f", model.AIC)
	}
	if len(model.Residuals()) != n {
		t.Errorf("Expected %d residuals, got %d", n, len(model.Residuals()))
	}

	forecasts, err := model.Predict(50)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for _, f := range forecasts {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			t.Fatalf("Non-finite forecast %v", forecasts)
		}
	}
	// Forecasts revert towards the mean.
	if math.Abs(forecasts[49]-model.Mean) > math.Abs(forecasts[0]-model.Mean)+1e-9 {
		t.Errorf("Forecasts should revert to the mean: first %f last %f mean %f",
			forecasts[0], forecasts[49], model.Mean)
	}
}

func TestFitSeasonalMA(t *testing.T) {
	n := 96
	values := make([]float64, n)
	for i := range values {
		values[i] = 50 + 10*math.Sin(2*math.Pi*float64(i)/12) + float64(i)/4 + float64(i%5-2)/2
	}

	model := NewSeasonal(0, 1, 1, 0, 1, 1, 12)
	if err := model.FitValues(values); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	t.Logf("%s theta=%v Theta=%v AICc=%f", model.Order, model.MACoeffs, model.SMACoeffs, model.AICc)

	forecasts, err := model.Predict(12)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if len(forecasts) != 12 {
		t.Errorf("Expected 12 forecasts, got %d", len(forecasts))
	}
}

func TestFitErrors(t *testing.T) {
	model := New(2, 0, 0)
	err := model.FitValues([]float64{1, 2, 3})
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}

	if _, err := New(1, 0, 0).Predict(3); !errors.Is(err, ErrNotFitted) {
		t.Errorf("Expected ErrNotFitted, got %v", err)
	}

	seasonal := NewSeasonal(0, 0, 0, 0, 1, 0, 12)
	if err := seasonal.FitValues(make([]float64, 10)); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData for short seasonal series, got %v", err)
	}
}
