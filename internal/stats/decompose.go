package stats

// Decomposition splits a time series into additive components:
// value[i] == Trend[i] + Seasonal[i] + Residual[i] for every i.
type Decomposition struct {
	Trend    []float64
	Seasonal []float64
	Residual []float64
}

// Decompose performs an additive seasonal decomposition. The trend is the
// trailing moving average at the seasonal period; the seasonal component is
// the mean of the detrended values sharing the same phase in the period,
// tiled back across the series; the residual is the remainder.
//
// Fewer than period points still decompose, but the seasonal estimate
// degrades toward zero signal; callers gate on a minimum sample size.
func Decompose(values []float64, period int) Decomposition {
	n := len(values)
	if period < 1 {
		period = 1
	}
	d := Decomposition{
		Trend:    MovingAverage(values, period),
		Seasonal: make([]float64, n),
		Residual: make([]float64, n),
	}
	if n == 0 {
		return d
	}

	phaseSums := make([]float64, period)
	phaseCounts := make([]int, period)
	for i, v := range values {
		phase := i % period
		phaseSums[phase] += v - d.Trend[i]
		phaseCounts[phase]++
	}
	for i := range phaseSums {
		if phaseCounts[i] > 0 {
			phaseSums[i] /= float64(phaseCounts[i])
		}
	}

	for i, v := range values {
		d.Seasonal[i] = phaseSums[i%period]
		d.Residual[i] = v - d.Trend[i] - d.Seasonal[i]
	}
	return d
}
