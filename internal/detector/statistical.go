package detector

import (
	"fmt"
	"math"

	"github.com/carevista/healthwatch/internal/stats"
	"github.com/carevista/healthwatch/models"
)

const (
	zScoreBase      = 3.0  // z-score trigger before sensitivity scaling
	trendChangeBase = 0.30 // relative trend change trigger before scaling
	trendWindow     = 5    // points per side of the trend comparison
	minIQRSamples   = 4    // fewer historical points cannot confirm via IQR
)

// detectStatistical runs the z-score detector with IQR confirmation, plus
// trend-change detection, over every metric in the batch.
func (d *Detector) detectStatistical(metrics []models.PerformanceMetric) []models.DetectedAnomaly {
	var anomalies []models.DetectedAnomaly
	threshold := zScoreBase * d.cfg.Sensitivity

	for i := range metrics {
		metric := &metrics[i]
		if a, ok := d.checkOutlier(metric, threshold); ok {
			anomalies = append(anomalies, a)
		}
		if a, ok := d.checkTrendChange(metric); ok {
			anomalies = append(anomalies, a)
		}
	}
	return anomalies
}

// checkOutlier requires two independent signals to agree before emitting: the
// z-score must clear the threshold AND the current value must fall outside
// the IQR fences of the historical series. Either signal alone is treated as
// a false positive.
func (d *Detector) checkOutlier(metric *models.PerformanceMetric, threshold float64) (models.DetectedAnomaly, bool) {
	z := stats.ZScore(metric.CurrentValue, metric.Mean, metric.StdDeviation)
	if z <= threshold {
		return models.DetectedAnomaly{}, false
	}

	values := historyValues(metric)
	if len(values) < minIQRSamples {
		return models.DetectedAnomaly{}, false
	}
	bounds := stats.ComputeIQRBounds(values)
	if metric.CurrentValue >= bounds.Lower && metric.CurrentValue <= bounds.Upper {
		return models.DetectedAnomaly{}, false
	}

	anomalyType := models.AnomalySpike
	if metric.CurrentValue < metric.Mean {
		anomalyType = models.AnomalyDrop
	}

	return models.DetectedAnomaly{
		MetricName:    metric.MetricName,
		AnomalyType:   anomalyType,
		Severity:      severityFromScore(z),
		Confidence:    confidenceFromScore(z, threshold),
		DetectedAt:    d.now(),
		Value:         metric.CurrentValue,
		ExpectedRange: orderedRange(bounds.Lower, bounds.Upper),
		Description: fmt.Sprintf("%s at %.2f is %.1f standard deviations from its mean and outside its IQR fences [%.2f, %.2f]",
			metric.MetricName, metric.CurrentValue, z, bounds.Lower, bounds.Upper),
	}, true
}

// checkTrendChange compares the mean of the last five historical points to
// the mean of the five before them. Fewer than ten points means the
// comparison is meaningless, so the metric is skipped, not failed.
func (d *Detector) checkTrendChange(metric *models.PerformanceMetric) (models.DetectedAnomaly, bool) {
	values := historyValues(metric)
	if len(values) < 2*trendWindow {
		return models.DetectedAnomaly{}, false
	}

	recent := stats.Mean(values[len(values)-trendWindow:])
	previous := stats.Mean(values[len(values)-2*trendWindow : len(values)-trendWindow])
	if previous == 0 {
		return models.DetectedAnomaly{}, false
	}

	relChange := math.Abs(recent-previous) / math.Abs(previous)
	limit := trendChangeBase * d.cfg.Sensitivity
	if relChange <= limit {
		return models.DetectedAnomaly{}, false
	}

	return models.DetectedAnomaly{
		MetricName:  metric.MetricName,
		AnomalyType: models.AnomalyPatternChange,
		Severity:    severityFromScore(relChange * 10),
		Confidence:  confidenceFromScore(relChange, limit),
		DetectedAt:  d.now(),
		Value:       recent,
		ExpectedRange: orderedRange(
			previous*(1-limit),
			previous*(1+limit),
		),
		Description: fmt.Sprintf("%s shifted %.0f%% between its last two five-point windows (%.2f -> %.2f)",
			metric.MetricName, relChange*100, previous, recent),
	}, true
}
