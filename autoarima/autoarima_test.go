package autoarima

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/sartorproj/tsforecast/stats"
	"github.com/sartorproj/tsforecast/timeseries"
)

func trendSeries(n int) *timeseries.Series {
	values := make([]float64, n)
	for i := range values {
		values[i] = 100 + 2*float64(i) + float64(i%7-3)/2
	}
	return timeseries.New(values)
}

func seasonalSeries(n, m int) *timeseries.Series {
	values := make([]float64, n)
	for i := range values {
		values[i] = 200 + 20*math.Sin(2*math.Pi*float64(i)/float64(m)) + float64(i)/2 + float64(i%5-2)/4
	}
	return timeseries.New(values)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(12)

	if cfg.SeasonLength != 12 {
		t.Errorf("Expected season length 12, got %d", cfg.SeasonLength)
	}
	if !cfg.Stepwise {
		t.Error("Expected stepwise search by default")
	}
	if cfg.Criterion != AICc {
		t.Errorf("Expected AICc, got %s", cfg.Criterion)
	}
	if cfg.Test != stats.TestKPSS {
		t.Errorf("Expected KPSS, got %s", cfg.Test)
	}
}

func TestSearchUnitRootTest(t *testing.T) {
	series := trendSeries(80)

	for _, test := range []stats.UnitRootTest{stats.TestKPSS, stats.TestADF} {
		t.Run(string(test), func(t *testing.T) {
			cfg := DefaultConfig(1)
			cfg.Test = test

			result, err := Search(context.Background(), series, cfg)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			want := stats.NDiffs(series.Values, cfg.MaxD, test)
			if result.Order.D != want {
				t.Errorf("Expected d=%d from %s, got %d", want, test, result.Order.D)
			}
		})
	}
}

func TestParseCriterion(t *testing.T) {
	for in, want := range map[string]Criterion{"AIC": AIC, "aicc": AICc, " bic ": BIC, "": AICc} {
		got, err := ParseCriterion(in)
		if err != nil || got != want {
			t.Errorf("ParseCriterion(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
	if _, err := ParseCriterion("hqic"); err == nil {
		t.Error("Expected error for unknown criterion")
	}
}

func TestSearchTrend(t *testing.T) {
	result, err := Search(context.Background(), trendSeries(100), DefaultConfig(1))
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	t.Logf("Selected %s (score %.2f, %d models)", result.Order, result.Score, result.ModelsEvaluated)

	if result.Order.D < 1 {
		t.Errorf("A linear trend should be differenced, got %s", result.Order)
	}
	if result.Order.Seasonal() {
		t.Errorf("Season length 1 should give a non-seasonal model, got %s", result.Order)
	}
	if result.ModelsEvaluated < 2 {
		t.Errorf("Expected several candidates, got %d", result.ModelsEvaluated)
	}

	forecasts, err := result.Predict(10)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if forecasts[9] <= forecasts[0]-5 {
		t.Errorf("Trend forecasts should not fall sharply: %v", forecasts)
	}
}

func TestSearchSeasonal(t *testing.T) {
	result, err := Search(context.Background(), seasonalSeries(72, 12), DefaultConfig(12))
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	t.Logf("Selected %s", result.Order)

	if result.Order.M != 12 || result.Order.SD != 1 {
		t.Errorf("Expected one seasonal difference at period 12, got %s", result.Order)
	}

	forecasts, err := result.Predict(12)
	if err != nil || len(forecasts) != 12 {
		t.Fatalf("Predict failed: %v (%d values)", err, len(forecasts))
	}
}

func TestSearchShortSeriesDropsSeason(t *testing.T) {
	result, err := Search(context.Background(), seasonalSeries(20, 12), DefaultConfig(12))
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.Order.Seasonal() {
		t.Errorf("Fewer than two seasons should give a non-seasonal model, got %s", result.Order)
	}
}

func TestSearchGrid(t *testing.T) {
	cfg := DefaultConfig(1)
	cfg.Stepwise = false
	cfg.MaxP, cfg.MaxQ, cfg.MaxOrder = 2, 2, 3

	result, err := Search(context.Background(), trendSeries(60), cfg)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.Order.P+result.Order.Q > 3 {
		t.Errorf("Grid exceeded MaxOrder: %s", result.Order)
	}
	// 3x3 orders minus (2,2).
	if result.ModelsEvaluated > 8 {
		t.Errorf("Expected at most 8 candidates, got %d", result.ModelsEvaluated)
	}
}

func TestSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Search(ctx, trendSeries(60), DefaultConfig(1))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestSearchNoModel(t *testing.T) {
	_, err := Search(context.Background(), timeseries.New([]float64{1, 2}), DefaultConfig(1))
	if !errors.Is(err, ErrNoModel) {
		t.Errorf("Expected ErrNoModel, got %v", err)
	}
}
