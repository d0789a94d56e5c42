package naive

import (
	"errors"
	"math"
	"testing"

	"github.com/sartorproj/tsforecast/timeseries"
)

func TestSeasonalNaive(t *testing.T) {
	model := NewSeasonalNaive(3)
	if err := model.Fit(timeseries.New([]float64{1, 2, 3, 4, 5, 6, 7})); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	forecasts, err := model.Predict(7)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	expected := []float64{5, 6, 7, 5, 6, 7, 5}
	for i, v := range expected {
		if forecasts[i] != v {
			t.Errorf("Step %d: expected %f, got %f", i+1, v, forecasts[i])
		}
	}
}

func TestSeasonalNaivePeriodOne(t *testing.T) {
	model := NewSeasonalNaive(1)
	if err := model.Fit(timeseries.New([]float64{4, 9, 2})); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	forecasts, _ := model.Predict(3)
	for _, f := range forecasts {
		if f != 2 {
			t.Errorf("Period 1 should repeat the last value, got %v", forecasts)
		}
	}
}

func TestSeasonalNaiveErrors(t *testing.T) {
	if err := NewSeasonalNaive(12).Fit(timeseries.New(make([]float64, 5))); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
	if err := NewSeasonalNaive(0).Fit(timeseries.New(make([]float64, 5))); err == nil {
		t.Error("Expected error for season length 0")
	}
	if _, err := NewSeasonalNaive(2).Predict(1); !errors.Is(err, ErrNotFitted) {
		t.Errorf("Expected ErrNotFitted, got %v", err)
	}
}

func TestHistoricAverage(t *testing.T) {
	model := NewHistoricAverage()
	if err := model.Fit(timeseries.New([]float64{10, 12, 14, 16})); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	forecasts, _ := model.Predict(2)
	for _, f := range forecasts {
		if math.Abs(f-13) > 1e-12 {
			t.Errorf("Expected 13, got %f", f)
		}
	}

	if err := NewHistoricAverage().Fit(timeseries.New(nil)); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
	if _, err := NewHistoricAverage().Predict(1); !errors.Is(err, ErrNotFitted) {
		t.Errorf("Expected ErrNotFitted, got %v", err)
	}
}
