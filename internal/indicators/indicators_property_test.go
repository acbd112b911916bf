package indicators

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: For any positive price series, every defined RSI value stays
// within the oscillator's mathematical bounds [0, 100], and every position
// with fewer than window observations of history stays NaN.

func priceSeriesGen(minLen, maxLen int) gopter.Gen {
	return gen.SliceOfN(maxLen, gen.Float64Range(1.0, 1000.0)).Map(func(series []float64) []float64 {
		if len(series) < minLen {
			for len(series) < minLen {
				series = append(series, 100.0)
			}
		}
		return series
	})
}

func TestRSIWithinBoundsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("RSI values within [0, 100] and NaN head", prop.ForAll(
		func(series []float64) bool {
			const window = 14
			result, err := RSI(series, window)
			if err != nil {
				return false
			}
			if len(result) != len(series) {
				return false
			}
			for i, v := range result {
				if i < window || len(series) < window+1 {
					if !math.IsNaN(v) {
						return false
					}
					continue
				}
				if math.IsNaN(v) || v < 0 || v > 100 {
					return false
				}
			}
			return true
		},
		priceSeriesGen(1, 120),
	))

	properties.Property("SMA equals mean of trailing window", prop.ForAll(
		func(series []float64) bool {
			const window = 5
			result, err := SMA(series, window)
			if err != nil {
				return false
			}
			for i := range result {
				if i < window-1 {
					if !math.IsNaN(result[i]) {
						return false
					}
					continue
				}
				var sum float64
				for j := i - window + 1; j <= i; j++ {
					sum += series[j]
				}
				if math.Abs(result[i]-sum/window) > 1e-6 {
					return false
				}
			}
			return true
		},
		priceSeriesGen(1, 60),
	))

	properties.TestingRun(t)
}
