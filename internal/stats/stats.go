package stats

import (
	"math"
	"sort"
)

// ZScore returns the absolute number of standard deviations between value
// and mean. A zero stdDev means no variability and therefore no anomaly
// signal, so it returns 0 rather than dividing by zero.
func ZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return math.Abs(value-mean) / stdDev
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation around mean.
func StdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sumSq float64
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// IQRBounds holds the quartiles and the 1.5*IQR outlier fences.
type IQRBounds struct {
	Q1    float64
	Q3    float64
	IQR   float64
	Lower float64
	Upper float64
}

// ComputeIQRBounds computes quartiles with the simple positional rule:
// Q1 is the sorted value at index floor(n*0.25), Q3 at floor(n*0.75).
// No interpolation, so results are exactly reproducible across runs.
func ComputeIQRBounds(values []float64) IQRBounds {
	if len(values) == 0 {
		return IQRBounds{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	q1 := sorted[int(float64(n)*0.25)]
	q3 := sorted[int(float64(n)*0.75)]
	iqr := q3 - q1

	return IQRBounds{
		Q1:    q1,
		Q3:    q3,
		IQR:   iqr,
		Lower: q1 - 1.5*iqr,
		Upper: q3 + 1.5*iqr,
	}
}

// MovingAverage returns the trailing moving average of values. For index i
// it averages values[max(0,i-window+1) .. i], so the window is partial at
// the start and never looks ahead.
func MovingAverage(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	result := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		count := i + 1
		if count > window {
			count = window
		}
		result[i] = sum / float64(count)
	}
	return result
}

// EWMA returns the exponentially weighted moving average of values, seeded
// with the first value.
func EWMA(values []float64, alpha float64) []float64 {
	result := make([]float64, len(values))
	if len(values) == 0 {
		return result
	}
	result[0] = values[0]
	for i := 1; i < len(values); i++ {
		result[i] = alpha*values[i] + (1-alpha)*result[i-1]
	}
	return result
}
