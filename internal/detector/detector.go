package detector

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/carevista/healthwatch/internal/healthcare"
	"github.com/carevista/healthwatch/models"
)

// Detector runs anomaly detection over a batch of metric snapshots. It holds
// no mutable state between calls other than the injected random source, so
// independent detectors are safe to use concurrently.
type Detector struct {
	cfg     *models.DetectionConfig
	matcher *healthcare.Matcher
	rng     *rand.Rand
	now     func() time.Time
}

// New creates a detector. A nil config falls back to the defaults; a nil rng
// gets a time seed. Tests inject a fixed-seed rng so isolation-forest scores
// are reproducible.
func New(cfg *models.DetectionConfig, rng *rand.Rand) *Detector {
	if cfg == nil {
		cfg = models.DefaultDetectionConfig()
	}
	if cfg.SeasonalPeriod < 1 {
		cfg.SeasonalPeriod = 7
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Detector{
		cfg:     cfg,
		matcher: healthcare.DefaultMatcher(),
		rng:     rng,
		now:     time.Now,
	}
}

// Algorithm reports the configured detection strategy.
func (d *Detector) Algorithm() models.Algorithm {
	return d.cfg.Algorithm
}

// Detect runs the configured algorithm over the batch, filters and ranks the
// findings, overlays the healthcare analyses when context is supplied, and
// builds the summary and recommendations. An empty batch is a valid input
// and produces a neutral result.
func (d *Detector) Detect(metrics []models.PerformanceMetric, dctx *models.DetectionContext) (*models.AnomalyDetectionResult, error) {
	for i := range metrics {
		if err := metrics[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid metric at index %d: %w", i, err)
		}
	}

	var anomalies []models.DetectedAnomaly
	switch d.cfg.Algorithm {
	case models.AlgorithmStatistical:
		anomalies = d.detectStatistical(metrics)
	case models.AlgorithmMLBased:
		anomalies = d.detectDecomposition(metrics)
	case models.AlgorithmIsolationForest:
		anomalies = d.detectIsolation(metrics)
	default:
		anomalies = d.detectHybrid(metrics)
	}

	anomalies = filterByConfidence(anomalies, d.cfg.ConfidenceThreshold)
	rankAnomalies(anomalies)

	result := &models.AnomalyDetectionResult{
		Anomalies: anomalies,
		Summary:   buildSummary(anomalies),
	}

	if dctx != nil {
		if d.cfg.PatientSafetyChecks && len(dctx.PatientSegments) > 0 {
			safety := d.matcher.DetectPatientSafetyAnomalies(metrics, dctx.PatientSegments)
			result.PatientSafetyAnalysis = &safety
		}
		if d.cfg.ComplianceChecks && len(dctx.ComplianceCategories) > 0 {
			compliance := d.matcher.DetectComplianceViolations(metrics, dctx.ComplianceCategories)
			result.ComplianceAnalysis = &compliance
		}
	}

	result.Recommendations = d.buildRecommendations(result)

	log.Debug().
		Int("metrics", len(metrics)).
		Int("anomalies", len(anomalies)).
		Str("algorithm", string(d.cfg.Algorithm)).
		Msg("detection run complete")

	return result, nil
}

// detectHybrid unions the statistical and isolation passes, deduplicated by
// metric name keeping the higher-confidence entry per duplicate.
func (d *Detector) detectHybrid(metrics []models.PerformanceMetric) []models.DetectedAnomaly {
	combined := append(d.detectStatistical(metrics), d.detectIsolation(metrics)...)
	return mergeByMetric(combined)
}

// mergeByMetric keeps one anomaly per metric name, preferring the entry with
// the higher confidence. First-seen order is preserved for stable ranking.
func mergeByMetric(anomalies []models.DetectedAnomaly) []models.DetectedAnomaly {
	index := make(map[string]int, len(anomalies))
	merged := make([]models.DetectedAnomaly, 0, len(anomalies))
	for _, a := range anomalies {
		if at, ok := index[a.MetricName]; ok {
			if a.Confidence > merged[at].Confidence {
				merged[at] = a
			}
			continue
		}
		index[a.MetricName] = len(merged)
		merged = append(merged, a)
	}
	return merged
}

// historyValues extracts the raw value series from a metric snapshot.
func historyValues(metric *models.PerformanceMetric) []float64 {
	values := make([]float64, len(metric.HistoricalValues))
	for i, p := range metric.HistoricalValues {
		values[i] = p.Value
	}
	return values
}

// severityFromScore maps a z-score-scaled signal onto a severity grade.
func severityFromScore(score float64) models.Severity {
	switch {
	case score > 4:
		return models.SeverityCritical
	case score > 3:
		return models.SeverityHigh
	case score > 2:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// confidenceFromScore normalizes a threshold-gated score into [0,1]: a score
// at twice the threshold (or beyond) is full confidence.
func confidenceFromScore(score, threshold float64) float64 {
	if threshold <= 0 {
		return 1
	}
	c := score / (2 * threshold)
	if c > 1 {
		return 1
	}
	return c
}

// orderedRange returns a low/high pair regardless of argument order.
func orderedRange(a, b float64) [2]float64 {
	if a > b {
		return [2]float64{b, a}
	}
	return [2]float64{a, b}
}
