package timeseries

import (
	"errors"
	"testing"
	"time"

	"github.com/sartorproj/tsforecast/errs"
)

func TestTrainTestExample(t *testing.T) {
	s := monthly(10, 12, 14, 16, 18, 20)

	split, err := TrainTest(s, 70)
	if err != nil {
		t.Fatalf("TrainTest failed: %v", err)
	}

	if split.Train.Len() != 4 || split.Test.Len() != 2 {
		t.Fatalf("Expected 4/2 split, got %d/%d", split.Train.Len(), split.Test.Len())
	}
	if split.Test.Values[0] != 18 || split.Test.Values[1] != 20 {
		t.Errorf("Unexpected test values: %v", split.Test.Values)
	}
	if !split.Test.Timestamps[0].Equal(s.Timestamps[4]) {
		t.Errorf("Test segment should start at the fifth timestamp")
	}
}

func TestTrainTestReconstructs(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7, 50, 101} {
		values := make([]float64, n)
		for i := range values {
			values[i] = float64(i * i)
		}
		s := New(values)

		for _, ratio := range []float64{0.5, 10, 33.3, 50, 70, 90, 99.9} {
			split, err := TrainTest(s, ratio)
			if err != nil {
				t.Fatalf("n=%d ratio=%v: %v", n, ratio, err)
			}
			if split.Train.Len()+split.Test.Len() != n {
				t.Fatalf("n=%d ratio=%v: lengths %d+%d", n, ratio, split.Train.Len(), split.Test.Len())
			}

			joined := append(append([]float64{}, split.Train.Values...), split.Test.Values...)
			stamps := append(append([]time.Time{}, split.Train.Timestamps...), split.Test.Timestamps...)
			for i := range joined {
				if joined[i] != values[i] || !stamps[i].Equal(s.Timestamps[i]) {
					t.Fatalf("n=%d ratio=%v: order broken at %d", n, ratio, i)
				}
			}
		}
	}
}

func TestTrainTestHighRatio(t *testing.T) {
	split, err := TrainTest(monthly(1, 2, 3), 99)
	if err != nil {
		t.Fatalf("TrainTest failed: %v", err)
	}
	if split.Test.Len() != 1 {
		t.Errorf("Expected 1 test point, got %d", split.Test.Len())
	}

	split, _ = TrainTest(New(make([]float64, 10)), 99.99)
	if split.Test.Len() != 1 {
		t.Errorf("floor(10*99.99/100)=9 leaves one test point, got %d", split.Test.Len())
	}
}

func TestTrainTestRejectsRatio(t *testing.T) {
	for _, ratio := range []float64{0, -5, 100, 150} {
		if _, err := TrainTest(monthly(1, 2, 3), ratio); !errors.Is(err, errs.ErrConfig) {
			t.Errorf("ratio %v: expected config error, got %v", ratio, err)
		}
	}
}
