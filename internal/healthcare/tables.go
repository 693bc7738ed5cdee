package healthcare

import "github.com/carevista/healthwatch/models"

// RiskTables is the domain configuration driving the pattern matcher. The
// tables are built once and never mutated afterwards; a Matcher treats them
// as read-only.
type RiskTables struct {
	// CriticalMetricWeights whitelists the patient-safety-critical metrics
	// and their importance weights.
	CriticalMetricWeights map[string]float64

	// MetricSegments maps a metric name onto the patient cohorts it
	// implicates when it misbehaves.
	MetricSegments map[string][]models.PatientSegment

	// ComplianceMetrics maps a compliance category onto the metric names
	// relevant to it.
	ComplianceMetrics map[models.ComplianceCategory][]string

	// Remediations holds the per-category remediation guidance attached to
	// violations.
	Remediations map[models.ComplianceCategory]string
}

// DefaultTables returns the standard healthcare risk configuration.
func DefaultTables() RiskTables {
	return RiskTables{
		CriticalMetricWeights: map[string]float64{
			"error_rate":             8,
			"response_time":          7,
			"medication_accuracy":    10,
			"appointment_compliance": 6,
			"emergency_response":     9,
		},
		MetricSegments: map[string][]models.PatientSegment{
			"medication_accuracy":    {models.SegmentChronicCarePatients, models.SegmentAtRiskPatients},
			"medication_adherence":   {models.SegmentChronicCarePatients},
			"appointment_compliance": {models.SegmentReturningPatients, models.SegmentPreventiveCarePatients},
			"emergency_response":     {models.SegmentEmergencyPatients},
			"error_rate":             {models.SegmentAtRiskPatients},
			"response_time":          {models.SegmentEmergencyPatients, models.SegmentNewPatients},
		},
		ComplianceMetrics: map[models.ComplianceCategory][]string{
			models.ComplianceHIPAAPrivacy:    {"error_rate", "unauthorized_access_rate", "audit_trail_completeness"},
			models.ComplianceHIPAASecurity:   {"error_rate", "response_time", "failed_login_rate"},
			models.ComplianceHITECH:          {"audit_trail_completeness", "breach_notification_time"},
			models.ComplianceGDPR:            {"data_retention_compliance", "consent_rate"},
			models.ComplianceMedicalAccuracy: {"medication_accuracy", "diagnosis_accuracy"},
			models.CompliancePatientConsent:  {"consent_rate", "appointment_compliance"},
			models.ComplianceDataRetention:   {"data_retention_compliance", "storage_growth_rate"},
		},
		Remediations: map[models.ComplianceCategory]string{
			models.ComplianceHIPAAPrivacy:    "Audit PHI access logs and re-verify role-based access controls",
			models.ComplianceHIPAASecurity:   "Review security controls and rotate credentials for affected systems",
			models.ComplianceHITECH:          "Verify audit trail coverage and breach notification readiness",
			models.ComplianceGDPR:            "Review data processing records and consent capture flows",
			models.ComplianceMedicalAccuracy: "Escalate to clinical review and re-validate decision support rules",
			models.CompliancePatientConsent:  "Re-confirm consent records for affected patient encounters",
			models.ComplianceDataRetention:   "Check retention schedules and archival job health",
		},
	}
}
