package detector

import (
	"sort"

	"github.com/carevista/healthwatch/models"
)

const maxRecommendations = 5

var severityRank = map[models.Severity]int{
	models.SeverityCritical: 3,
	models.SeverityHigh:     2,
	models.SeverityMedium:   1,
	models.SeverityLow:      0,
}

// filterByConfidence drops findings below the configured threshold.
func filterByConfidence(anomalies []models.DetectedAnomaly, threshold float64) []models.DetectedAnomaly {
	filtered := anomalies[:0]
	for _, a := range anomalies {
		if a.Confidence >= threshold {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// rankAnomalies orders findings by severity, then confidence descending.
func rankAnomalies(anomalies []models.DetectedAnomaly) {
	sort.SliceStable(anomalies, func(i, j int) bool {
		ri, rj := severityRank[anomalies[i].Severity], severityRank[anomalies[j].Severity]
		if ri != rj {
			return ri > rj
		}
		return anomalies[i].Confidence > anomalies[j].Confidence
	})
}

// buildSummary counts findings by severity and type and names the single
// most critical metric (the head of the ranked list).
func buildSummary(ranked []models.DetectedAnomaly) models.DetectionSummary {
	summary := models.DetectionSummary{
		TotalAnomalies: len(ranked),
		BySeverity:     make(map[models.Severity]int),
		ByType:         make(map[models.AnomalyType]int),
	}
	for _, a := range ranked {
		summary.BySeverity[a.Severity]++
		summary.ByType[a.AnomalyType]++
		if a.Confidence > summary.MaxConfidence {
			summary.MaxConfidence = a.Confidence
		}
	}
	if len(ranked) > 0 {
		summary.MostCriticalMetric = ranked[0].MetricName
	}
	return summary
}

var typeRecommendations = map[models.AnomalyType]string{
	models.AnomalySpike:             "Investigate recent load or scaling changes behind the spiking metrics",
	models.AnomalyDrop:              "Check system health and recent configuration changes behind the dropping metrics",
	models.AnomalyPatternChange:     "Review recent workflow or user-behavior shifts matching the pattern change",
	models.AnomalySeasonalDeviation: "Compare current values against the same period in previous cycles",
}

// buildRecommendations produces up to five textual recommendations keyed off
// the anomaly types present, with an escalation line when anything critical
// surfaced and compliance remediation filling any remaining slots.
func (d *Detector) buildRecommendations(result *models.AnomalyDetectionResult) []string {
	recommendations := []string{}
	add := func(text string) {
		if text == "" || len(recommendations) >= maxRecommendations {
			return
		}
		for _, existing := range recommendations {
			if existing == text {
				return
			}
		}
		recommendations = append(recommendations, text)
	}

	if result.Summary.BySeverity[models.SeverityCritical] > 0 {
		add("Escalate critical anomalies for immediate review")
	}
	for _, a := range result.Anomalies {
		add(typeRecommendations[a.AnomalyType])
	}
	if d.cfg.RemediationGuidance && result.ComplianceAnalysis != nil {
		for _, v := range result.ComplianceAnalysis.Violations {
			add(v.Remediation)
		}
	}

	return recommendations
}
