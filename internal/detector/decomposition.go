package detector

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/carevista/healthwatch/internal/stats"
	"github.com/carevista/healthwatch/models"
)

// residualBase is the residual z-score trigger before sensitivity scaling.
const residualBase = 2.5

// detectDecomposition is the "ml_based" strategy: seasonal decomposition of
// the historical series, then a z-score of the latest residual against the
// residual distribution. Metrics without enough history are silently
// excluded; insufficient data is a normal condition, not an error.
func (d *Detector) detectDecomposition(metrics []models.PerformanceMetric) []models.DetectedAnomaly {
	var anomalies []models.DetectedAnomaly
	threshold := residualBase * d.cfg.Sensitivity

	for i := range metrics {
		metric := &metrics[i]
		values := historyValues(metric)
		if len(values) < d.cfg.MinimumDataPoints {
			log.Debug().
				Str("metric", metric.MetricName).
				Int("points", len(values)).
				Int("required", d.cfg.MinimumDataPoints).
				Msg("skipping decomposition, not enough history")
			continue
		}

		dc := stats.Decompose(values, d.cfg.SeasonalPeriod)

		// Without seasonal adjustment the series is only detrended; any
		// seasonal swing stays in the residual as ordinary variation.
		residual := dc.Residual
		anomalyType := models.AnomalySeasonalDeviation
		if !d.cfg.SeasonalAdjustment {
			residual = make([]float64, len(values))
			for j := range values {
				residual[j] = values[j] - dc.Trend[j]
			}
			anomalyType = models.AnomalyPatternChange
		}

		residualMean := stats.Mean(residual)
		residualStd := stats.StdDev(residual, residualMean)

		last := len(values) - 1
		z := stats.ZScore(residual[last], residualMean, residualStd)
		if z <= threshold {
			continue
		}

		expected := dc.Trend[last]
		if d.cfg.SeasonalAdjustment {
			expected += dc.Seasonal[last]
		}
		anomalies = append(anomalies, models.DetectedAnomaly{
			MetricName:  metric.MetricName,
			AnomalyType: anomalyType,
			Severity:    severityFromScore(z),
			Confidence:  confidenceFromScore(z, threshold),
			DetectedAt:  d.now(),
			Value:       values[last],
			ExpectedRange: orderedRange(
				expected-threshold*residualStd,
				expected+threshold*residualStd,
			),
			Description: fmt.Sprintf("%s at %.2f deviates from its seasonal pattern (expected about %.2f, residual z-score %.1f)",
				metric.MetricName, values[last], expected, z),
		})
	}
	return anomalies
}
