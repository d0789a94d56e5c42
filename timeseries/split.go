package timeseries

import (
	"math"

	"github.com/sartorproj/tsforecast/errs"
)

// Split partitions a series into contiguous train and test segments.
type Split struct {
	Train *Series
	Test  *Series
}

// TrainTest splits series positionally: the first floor(n*ratio/100) points
// train, the rest test. ratio is a percentage strictly between 0 and 100.
// The test segment holds at least one point whenever the series is non-empty.
func TrainTest(series *Series, ratio float64) (*Split, error) {
	if math.IsNaN(ratio) || ratio <= 0 || ratio >= 100 {
		return nil, errs.New(errs.KindConfig, "timeseries.TrainTest",
			"split ratio must be between 0 and 100 exclusive", map[string]any{"ratio": ratio})
	}

	n := series.Len()
	k := int(math.Floor(float64(n) * ratio / 100))

	return &Split{
		Train: series.Slice(0, k),
		Test:  series.Slice(k, n),
	}, nil
}
