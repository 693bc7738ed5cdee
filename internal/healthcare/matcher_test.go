package healthcare

import (
	"testing"

	"github.com/carevista/healthwatch/models"
)

func TestDetectPatientSafetyAnomalies(t *testing.T) {
	tests := []struct {
		name         string
		metrics      []models.PerformanceMetric
		segments     []models.PatientSegment
		wantAnomaly  bool
		wantUrgency  models.Urgency
		wantRisk     float64
		wantSegments []models.PatientSegment
	}{
		{
			name: "all critical metrics within three sigma",
			metrics: []models.PerformanceMetric{
				{MetricName: "error_rate", CurrentValue: 0.05, Mean: 0.04, StdDeviation: 0.01},
				{MetricName: "response_time", CurrentValue: 210, Mean: 200, StdDeviation: 20},
			},
			segments:     []models.PatientSegment{models.SegmentEmergencyPatients},
			wantAnomaly:  false,
			wantUrgency:  models.UrgencyRoutine,
			wantRisk:     0,
			wantSegments: []models.PatientSegment{},
		},
		{
			name: "non-critical metric never contributes",
			metrics: []models.PerformanceMetric{
				{MetricName: "page_views", CurrentValue: 9000, Mean: 100, StdDeviation: 10},
			},
			wantAnomaly:  false,
			wantUrgency:  models.UrgencyRoutine,
			wantRisk:     0,
			wantSegments: []models.PatientSegment{},
		},
		{
			name: "medication accuracy collapse clamps at 100",
			metrics: []models.PerformanceMetric{
				// z = |40-95|/5 = 11; 11*10*10 = 1100, clamped to 100.
				{MetricName: "medication_accuracy", CurrentValue: 40, Mean: 95, StdDeviation: 5},
			},
			segments:     []models.PatientSegment{models.SegmentChronicCarePatients},
			wantAnomaly:  true,
			wantUrgency:  models.UrgencyCritical,
			wantRisk:     100,
			wantSegments: []models.PatientSegment{models.SegmentChronicCarePatients},
		},
		{
			name: "zero stddev yields no signal even far from mean",
			metrics: []models.PerformanceMetric{
				{MetricName: "emergency_response", CurrentValue: 900, Mean: 100, StdDeviation: 0},
			},
			wantAnomaly:  false,
			wantUrgency:  models.UrgencyRoutine,
			wantRisk:     0,
			wantSegments: []models.PatientSegment{},
		},
		{
			name: "unrestricted segment list uses the membership table",
			metrics: []models.PerformanceMetric{
				{MetricName: "medication_accuracy", CurrentValue: 40, Mean: 95, StdDeviation: 5},
			},
			wantAnomaly: true,
			wantUrgency: models.UrgencyCritical,
			wantRisk:    100,
			wantSegments: []models.PatientSegment{
				models.SegmentChronicCarePatients,
				models.SegmentAtRiskPatients,
			},
		},
	}

	matcher := DefaultMatcher()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matcher.DetectPatientSafetyAnomalies(tt.metrics, tt.segments)
			if got.HasAnomaly != tt.wantAnomaly {
				t.Errorf("HasAnomaly = %v, want %v", got.HasAnomaly, tt.wantAnomaly)
			}
			if got.Urgency != tt.wantUrgency {
				t.Errorf("Urgency = %v, want %v", got.Urgency, tt.wantUrgency)
			}
			if got.RiskScore != tt.wantRisk {
				t.Errorf("RiskScore = %v, want %v", got.RiskScore, tt.wantRisk)
			}
			if !segmentsEqual(got.AffectedSegments, tt.wantSegments) {
				t.Errorf("AffectedSegments = %v, want %v", got.AffectedSegments, tt.wantSegments)
			}
		})
	}
}

func TestDetectComplianceViolationsEmptyCategories(t *testing.T) {
	matcher := DefaultMatcher()
	got := matcher.DetectComplianceViolations([]models.PerformanceMetric{
		{MetricName: "error_rate", IsAnomaly: true, PercentageChange: 80},
	}, nil)

	if got.OverallComplianceScore != 100 {
		t.Errorf("OverallComplianceScore = %v, want 100", got.OverallComplianceScore)
	}
	if len(got.Violations) != 0 {
		t.Errorf("Violations = %v, want empty", got.Violations)
	}
}

func TestDetectComplianceViolationsScoring(t *testing.T) {
	matcher := DefaultMatcher()
	metrics := []models.PerformanceMetric{
		// Critical deviation (-40) and medium deviation (-15) both relevant
		// to hipaa_security: category score 100-40-15 = 45.
		{MetricName: "error_rate", IsAnomaly: true, PercentageChange: -60},
		{MetricName: "response_time", IsAnomaly: true, PercentageChange: 20},
		// Relevant but not flagged anomalous: no violation.
		{MetricName: "failed_login_rate", IsAnomaly: false, PercentageChange: 90},
	}
	categories := []models.ComplianceCategory{
		models.ComplianceHIPAASecurity,
		models.ComplianceGDPR, // no relevant anomalies, stays at 100
	}

	got := matcher.DetectComplianceViolations(metrics, categories)

	if len(got.Violations) != 2 {
		t.Fatalf("len(Violations) = %d, want 2", len(got.Violations))
	}
	if got.Violations[0].Severity != models.SeverityCritical {
		t.Errorf("first violation severity = %v, want critical", got.Violations[0].Severity)
	}
	if got.Violations[1].Severity != models.SeverityMedium {
		t.Errorf("second violation severity = %v, want medium", got.Violations[1].Severity)
	}
	if got.Violations[0].Remediation == "" {
		t.Errorf("violation is missing remediation guidance")
	}

	want := (45.0 + 100.0) / 2
	if got.OverallComplianceScore != want {
		t.Errorf("OverallComplianceScore = %v, want %v", got.OverallComplianceScore, want)
	}
}

func TestDetectComplianceViolationsFloorsAtZero(t *testing.T) {
	matcher := DefaultMatcher()
	metrics := []models.PerformanceMetric{
		{MetricName: "error_rate", IsAnomaly: true, PercentageChange: 99},
		{MetricName: "unauthorized_access_rate", IsAnomaly: true, PercentageChange: 88},
		{MetricName: "audit_trail_completeness", IsAnomaly: true, PercentageChange: -70},
	}

	got := matcher.DetectComplianceViolations(metrics, []models.ComplianceCategory{models.ComplianceHIPAAPrivacy})

	// Three critical penalties would drive the score to -20; it floors at 0.
	if got.OverallComplianceScore != 0 {
		t.Errorf("OverallComplianceScore = %v, want 0", got.OverallComplianceScore)
	}
}

func segmentsEqual(a, b []models.PatientSegment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
