package ets

import (
	"errors"
	"math"
	"testing"

	"github.com/sartorproj/tsforecast/timeseries"
)

func TestHoltLinearTrend(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 10 + 3*float64(i)
	}

	model := NewHolt()
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	t.Logf("alpha=%.3f beta=%.3f sse=%g", model.Alpha, model.Beta, model.SSE)

	forecasts, err := model.Predict(5)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for h, f := range forecasts {
		want := 10 + 3*float64(30+h)
		if math.Abs(f-want) > 1e-6 {
			t.Errorf("Step %d: expected %f, got %f", h+1, want, f)
		}
	}
}

func TestHoltWintersSeasonal(t *testing.T) {
	season := []float64{5, -3, 8, -10}
	values := make([]float64, 40)
	for i := range values {
		values[i] = 100 + season[i%4]
	}

	model := NewHoltWinters(4)
	if err := model.FitValues(values); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	t.Logf("alpha=%.3f beta=%.3f gamma=%.3f sse=%g", model.Alpha, model.Beta, model.Gamma, model.SSE)

	if model.Alpha <= 0 || model.Alpha >= 1 || model.Gamma < 0 || model.Gamma >= 1-model.Alpha {
		t.Errorf("Parameters out of range: alpha=%f gamma=%f", model.Alpha, model.Gamma)
	}

	forecasts, err := model.Predict(8)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for h, f := range forecasts {
		want := 100 + season[(40+h)%4]
		if math.Abs(f-want) > 1e-6 {
			t.Errorf("Step %d: expected %f, got %f", h+1, want, f)
		}
	}
}

func TestHoltWintersTrendAndSeason(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 50 + 0.5*float64(i) + 6*math.Sin(2*math.Pi*float64(i)/12) + float64(i%3-1)/4
	}

	model := NewHoltWinters(12)
	if err := model.FitValues(values); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	forecasts, _ := model.Predict(12)
	for h, f := range forecasts {
		i := float64(60 + h)
		want := 50 + 0.5*i + 6*math.Sin(2*math.Pi*i/12)
		if math.Abs(f-want) > 3 {
			t.Errorf("Step %d: expected about %f, got %f", h+1, want, f)
		}
	}
}

func TestFitErrors(t *testing.T) {
	if err := NewHoltWinters(12).FitValues(make([]float64, 20)); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
	if err := NewHolt().FitValues([]float64{1}); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
	if _, err := NewHolt().Predict(3); !errors.Is(err, ErrNotFitted) {
		t.Errorf("Expected ErrNotFitted, got %v", err)
	}
}
