// Package indicators provides technical indicator calculations over price series.
package indicators

import (
	"errors"
	"math"
)

// DefaultRSIWindow is the conventional RSI lookback.
const DefaultRSIWindow = 14

// DefaultSMAWindow is the conventional SMA lookback.
const DefaultSMAWindow = 20

// ErrInvalidPeriod is returned when the window is invalid.
var ErrInvalidPeriod = errors.New("invalid period")

// SMA calculates the simple moving average over exactly window observations.
// Positions with fewer than window preceding observations are NaN; no fill is
// applied. The result always has the same length as the input.
func SMA(series []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, ErrInvalidPeriod
	}

	result := make([]float64, len(series))
	for i := range result {
		result[i] = math.NaN()
	}

	var sum float64
	for i, v := range series {
		sum += v
		if i >= window {
			sum -= series[i-window]
		}
		if i >= window-1 {
			result[i] = sum / float64(window)
		}
	}

	return result, nil
}

// RSI calculates the Relative Strength Index with Wilder smoothing
// (alpha = 1/window). The first window positions are NaN. When the smoothed
// average loss is zero the indicator is pinned at its ceiling of 100.
func RSI(series []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, ErrInvalidPeriod
	}

	n := len(series)
	result := make([]float64, n)
	for i := range result {
		result[i] = math.NaN()
	}
	if n < window+1 {
		return result, nil
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		change := series[i] - series[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	// Seed with the plain mean of the first window changes, then apply
	// Wilder smoothing for the remainder.
	avgGain := mean(gains[1 : window+1])
	avgLoss := mean(losses[1 : window+1])
	result[window] = rsiValue(avgGain, avgLoss)

	multiplier := 1.0 / float64(window)
	for i := window + 1; i < n; i++ {
		avgGain += multiplier * (gains[i] - avgGain)
		avgLoss += multiplier * (losses[i] - avgLoss)
		result[i] = rsiValue(avgGain, avgLoss)
	}

	return result, nil
}

// rsiValue maps smoothed gain/loss averages onto the [0, 100] oscillator.
func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// mean calculates the arithmetic mean of a slice of float64.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}
