package healthcare

import (
	"fmt"
	"math"

	"github.com/carevista/healthwatch/internal/stats"
	"github.com/carevista/healthwatch/models"
)

// Matcher overlays healthcare semantics onto raw metric anomalies. It is
// pure given its tables: the same inputs always produce the same analysis.
type Matcher struct {
	tables RiskTables
}

// NewMatcher builds a matcher over the given risk tables.
func NewMatcher(tables RiskTables) *Matcher {
	return &Matcher{tables: tables}
}

// DefaultMatcher builds a matcher over the standard tables.
func DefaultMatcher() *Matcher {
	return NewMatcher(DefaultTables())
}

// Patient-safety urgency thresholds on the 0-100 risk score.
const (
	riskCritical  = 80
	riskEmergency = 60
	riskUrgent    = 40
	riskAnomaly   = 30
)

// DetectPatientSafetyAnomalies scores patient-safety risk across the batch.
// Only whitelisted critical metrics contribute; each needs a z-score above 3
// to register. The returned risk score is the maximum across the batch,
// clamped to 100.
func (m *Matcher) DetectPatientSafetyAnomalies(metrics []models.PerformanceMetric, segments []models.PatientSegment) models.PatientSafetyAnalysis {
	analysis := models.PatientSafetyAnalysis{
		Urgency:          models.UrgencyRoutine,
		AffectedSegments: []models.PatientSegment{},
	}

	seen := make(map[models.PatientSegment]bool)
	for _, metric := range metrics {
		weight, critical := m.tables.CriticalMetricWeights[metric.MetricName]
		if !critical {
			continue
		}
		z := stats.ZScore(metric.CurrentValue, metric.Mean, metric.StdDeviation)
		if z <= 3 {
			continue
		}

		risk := math.Min(100, z*weight*10)
		if risk > analysis.RiskScore {
			analysis.RiskScore = risk
		}

		for _, segment := range m.tables.MetricSegments[metric.MetricName] {
			if len(segments) > 0 && !containsSegment(segments, segment) {
				continue
			}
			if !seen[segment] {
				seen[segment] = true
				analysis.AffectedSegments = append(analysis.AffectedSegments, segment)
			}
		}
	}

	switch {
	case analysis.RiskScore > riskCritical:
		analysis.Urgency = models.UrgencyCritical
	case analysis.RiskScore > riskEmergency:
		analysis.Urgency = models.UrgencyEmergency
	case analysis.RiskScore > riskUrgent:
		analysis.Urgency = models.UrgencyUrgent
	}
	analysis.HasAnomaly = analysis.RiskScore > riskAnomaly

	return analysis
}

// Score penalties per violation severity, applied to the category's starting
// score of 100.
const (
	penaltyCritical = 40
	penaltyHigh     = 25
	penaltyMedium   = 15
	penaltyLow      = 5
)

// DetectComplianceViolations derives violations for the supplied categories
// from metrics already flagged anomalous, and scores each category down from
// 100. With no categories supplied the overall score is a clean 100.
func (m *Matcher) DetectComplianceViolations(metrics []models.PerformanceMetric, categories []models.ComplianceCategory) models.ComplianceAnalysis {
	analysis := models.ComplianceAnalysis{
		Violations:             []models.ComplianceViolation{},
		OverallComplianceScore: 100,
	}
	if len(categories) == 0 {
		return analysis
	}

	byName := make(map[string]models.PerformanceMetric, len(metrics))
	for _, metric := range metrics {
		byName[metric.MetricName] = metric
	}

	var total float64
	for _, category := range categories {
		score := 100.0
		for _, name := range m.tables.ComplianceMetrics[category] {
			metric, ok := byName[name]
			if !ok || !metric.IsAnomaly {
				continue
			}

			severity := violationSeverity(math.Abs(metric.PercentageChange))
			score -= violationPenalty(severity)
			analysis.Violations = append(analysis.Violations, models.ComplianceViolation{
				Category: category,
				Metric:   name,
				Severity: severity,
				Description: fmt.Sprintf("%s deviated %.1f%% from baseline while under %s monitoring",
					name, metric.PercentageChange, category),
				Remediation: m.tables.Remediations[category],
			})
		}
		if score < 0 {
			score = 0
		}
		total += score
	}
	analysis.OverallComplianceScore = total / float64(len(categories))

	return analysis
}

func violationSeverity(absChange float64) models.Severity {
	switch {
	case absChange > 50:
		return models.SeverityCritical
	case absChange > 30:
		return models.SeverityHigh
	case absChange > 15:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func violationPenalty(severity models.Severity) float64 {
	switch severity {
	case models.SeverityCritical:
		return penaltyCritical
	case models.SeverityHigh:
		return penaltyHigh
	case models.SeverityMedium:
		return penaltyMedium
	default:
		return penaltyLow
	}
}

func containsSegment(segments []models.PatientSegment, segment models.PatientSegment) bool {
	for _, s := range segments {
		if s == segment {
			return true
		}
	}
	return false
}
