package models

import (
	"fmt"
	"math"
	"time"
)

// TimeSeriesPoint is a single observation in a metric's history.
// Sequences are expected in chronological order.
type TimeSeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Trend describes the recent direction of a metric.
type Trend string

const (
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
	TrendImproving Trend = "improving"
)

// Percentiles holds the 25th/75th percentile of a metric's distribution.
type Percentiles struct {
	P25 float64 `json:"p25"`
	P75 float64 `json:"p75"`
}

// PerformanceMetric is an immutable per-metric snapshot supplied by the
// caller for a single detection run.
type PerformanceMetric struct {
	MetricName       string            `json:"metric_name"`
	CurrentValue     float64           `json:"current_value"`
	Mean             float64           `json:"mean"`
	StdDeviation     float64           `json:"std_deviation"`
	HistoricalValues []TimeSeriesPoint `json:"historical_values,omitempty"`
	PercentageChange float64           `json:"percentage_change"`
	Percentiles      Percentiles       `json:"percentiles"`
	Trend            Trend             `json:"trend,omitempty"`
	IsAnomaly        bool              `json:"is_anomaly,omitempty"` // set by caller / previous pass
}

// Validate rejects malformed snapshots before they reach the algorithms.
func (m *PerformanceMetric) Validate() error {
	if m.MetricName == "" {
		return fmt.Errorf("metric name is empty")
	}
	fields := []struct {
		name  string
		value float64
	}{
		{"current_value", m.CurrentValue},
		{"mean", m.Mean},
		{"std_deviation", m.StdDeviation},
		{"percentage_change", m.PercentageChange},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("metric %q: field %s is not a finite number", m.MetricName, f.name)
		}
	}
	if m.StdDeviation < 0 {
		return fmt.Errorf("metric %q: std_deviation is negative", m.MetricName)
	}
	for i, p := range m.HistoricalValues {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return fmt.Errorf("metric %q: historical value at index %d is not a finite number", m.MetricName, i)
		}
	}
	return nil
}

// PatientSegment identifies a fixed healthcare cohort.
type PatientSegment string

const (
	SegmentNewPatients            PatientSegment = "new_patients"
	SegmentReturningPatients      PatientSegment = "returning_patients"
	SegmentAtRiskPatients         PatientSegment = "at_risk_patients"
	SegmentChronicCarePatients    PatientSegment = "chronic_care_patients"
	SegmentPreventiveCarePatients PatientSegment = "preventive_care_patients"
	SegmentEmergencyPatients      PatientSegment = "emergency_patients"
)

// ComplianceCategory identifies a regulatory framework under monitoring.
type ComplianceCategory string

const (
	ComplianceHIPAAPrivacy    ComplianceCategory = "hipaa_privacy"
	ComplianceHIPAASecurity   ComplianceCategory = "hipaa_security"
	ComplianceHITECH          ComplianceCategory = "hitech"
	ComplianceGDPR            ComplianceCategory = "gdpr"
	ComplianceMedicalAccuracy ComplianceCategory = "medical_accuracy"
	CompliancePatientConsent  ComplianceCategory = "patient_consent"
	ComplianceDataRetention   ComplianceCategory = "data_retention"
)

// AnomalyType classifies the shape of a detected anomaly.
type AnomalyType string

const (
	AnomalySpike             AnomalyType = "spike"
	AnomalyDrop              AnomalyType = "drop"
	AnomalyPatternChange     AnomalyType = "pattern_change"
	AnomalySeasonalDeviation AnomalyType = "seasonal_deviation"
)

// Severity grades a detected anomaly.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Urgency grades a patient-safety finding.
type Urgency string

const (
	UrgencyRoutine   Urgency = "routine"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
	UrgencyCritical  Urgency = "critical"
)

// DetectedAnomaly is a single finding produced by a detection run.
type DetectedAnomaly struct {
	MetricName    string      `json:"metric_name"`
	AnomalyType   AnomalyType `json:"anomaly_type"`
	Severity      Severity    `json:"severity"`
	Confidence    float64     `json:"confidence"` // 0-1
	DetectedAt    time.Time   `json:"detected_at"`
	Value         float64     `json:"value"`
	ExpectedRange [2]float64  `json:"expected_range"`
	Description   string      `json:"description"`
}

// PatientSafetyAnalysis summarizes patient-safety risk across a batch.
type PatientSafetyAnalysis struct {
	HasAnomaly       bool             `json:"has_anomaly"`
	Urgency          Urgency          `json:"urgency"`
	AffectedSegments []PatientSegment `json:"affected_segments"`
	RiskScore        float64          `json:"risk_score"` // 0-100
}

// ComplianceViolation is a derived, ephemeral finding against one category.
type ComplianceViolation struct {
	Category    ComplianceCategory `json:"category"`
	Metric      string             `json:"metric"`
	Severity    Severity           `json:"severity"`
	Description string             `json:"description"`
	Remediation string             `json:"remediation"`
}

// ComplianceAnalysis aggregates violations and the overall score.
type ComplianceAnalysis struct {
	Violations             []ComplianceViolation `json:"violations"`
	OverallComplianceScore float64               `json:"overall_compliance_score"` // 0-100
}

// DetectionSummary gives the at-a-glance shape of a run's findings.
type DetectionSummary struct {
	TotalAnomalies     int                 `json:"total_anomalies"`
	BySeverity         map[Severity]int    `json:"by_severity"`
	ByType             map[AnomalyType]int `json:"by_type"`
	MaxConfidence      float64             `json:"max_confidence"`
	MostCriticalMetric string              `json:"most_critical_metric,omitempty"`
}

// AnomalyDetectionResult is the immutable output of one detection run.
type AnomalyDetectionResult struct {
	Anomalies             []DetectedAnomaly      `json:"anomalies"`
	PatientSafetyAnalysis *PatientSafetyAnalysis `json:"patient_safety_analysis,omitempty"`
	ComplianceAnalysis    *ComplianceAnalysis    `json:"compliance_analysis,omitempty"`
	Summary               DetectionSummary       `json:"summary"`
	Recommendations       []string               `json:"recommendations"`
}

// DetectionContext carries the optional healthcare context for a run.
type DetectionContext struct {
	PatientSegments      []PatientSegment     `json:"patient_segments,omitempty"`
	ComplianceCategories []ComplianceCategory `json:"compliance_categories,omitempty"`
}

// Algorithm selects the detection strategy. Closed set; the detector
// dispatches on it exhaustively.
type Algorithm string

const (
	AlgorithmStatistical     Algorithm = "statistical"
	AlgorithmMLBased         Algorithm = "ml_based"
	AlgorithmIsolationForest Algorithm = "isolation_forest"
	AlgorithmHybrid          Algorithm = "hybrid"
)

// ParseAlgorithm maps a config string onto the closed Algorithm set.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AlgorithmStatistical, AlgorithmMLBased, AlgorithmIsolationForest, AlgorithmHybrid:
		return Algorithm(s), nil
	}
	return "", fmt.Errorf("unknown detection algorithm %q", s)
}

// DetectionConfig controls a Detector. Zero value is not usable; start from
// DefaultDetectionConfig.
type DetectionConfig struct {
	Algorithm           Algorithm `json:"algorithm"`
	Sensitivity         float64   `json:"sensitivity"`          // 0-1 multiplier on every threshold
	MinimumDataPoints   int       `json:"minimum_data_points"`  // gate for decomposition-based detection
	ConfidenceThreshold float64   `json:"confidence_threshold"` // 0-1
	SeasonalAdjustment  bool      `json:"seasonal_adjustment"`
	SeasonalPeriod      int       `json:"seasonal_period"`
	PatientSafetyChecks bool      `json:"patient_safety_checks"`
	ComplianceChecks    bool      `json:"compliance_checks"`
	RemediationGuidance bool      `json:"remediation_guidance"`
}

// DefaultDetectionConfig returns the production defaults.
func DefaultDetectionConfig() *DetectionConfig {
	return &DetectionConfig{
		Algorithm:           AlgorithmHybrid,
		Sensitivity:         0.7,
		MinimumDataPoints:   100,
		ConfidenceThreshold: 0.8,
		SeasonalAdjustment:  true,
		SeasonalPeriod:      7,
		PatientSafetyChecks: true,
		ComplianceChecks:    true,
		RemediationGuidance: true,
	}
}
