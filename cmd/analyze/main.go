package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/carevista/healthwatch/internal/config"
	"github.com/carevista/healthwatch/internal/detector"
	"github.com/carevista/healthwatch/models"
)

// analyze runs a one-shot detection pass over a metrics batch read from a
// JSON file (or stdin) and prints the report.
func main() {
	inputPath := flag.String("input", "-", "path to a JSON metrics batch, '-' for stdin")
	flag.Parse()

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// 2. Read the metrics batch
	batch, err := readBatch(*inputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read metrics batch")
	}

	// 3. Run detection
	detectionCfg, err := cfg.DetectionConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid detection configuration")
	}
	engine := detector.New(detectionCfg, nil)

	result, err := engine.Detect(batch.Metrics, &models.DetectionContext{
		PatientSegments:      batch.PatientSegments,
		ComplianceCategories: batch.ComplianceCategories,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Detection failed")
	}

	// 4. Print the report
	printReport(result)
}

// batch mirrors the API request body so the same JSON works for both.
type batch struct {
	Metrics              []models.PerformanceMetric  `json:"metrics"`
	PatientSegments      []models.PatientSegment     `json:"patient_segments,omitempty"`
	ComplianceCategories []models.ComplianceCategory `json:"compliance_categories,omitempty"`
}

func readBatch(path string) (*batch, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var b batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse metrics batch: %w", err)
	}
	return &b, nil
}

// printReport outputs the detection report
func printReport(result *models.AnomalyDetectionResult) {
	fmt.Println("\n===== ANOMALY DETECTION REPORT =====")
	fmt.Printf("Total anomalies: %d | Max confidence: %.2f\n",
		result.Summary.TotalAnomalies, result.Summary.MaxConfidence)
	if result.Summary.MostCriticalMetric != "" {
		fmt.Printf("Most critical metric: %s\n", result.Summary.MostCriticalMetric)
	}

	for _, a := range result.Anomalies {
		fmt.Printf("\n[%s] %s (%s)\n", a.Severity, a.MetricName, a.AnomalyType)
		fmt.Printf("  Value: %.2f | Expected: [%.2f, %.2f] | Confidence: %.2f\n",
			a.Value, a.ExpectedRange[0], a.ExpectedRange[1], a.Confidence)
		fmt.Printf("  %s\n", a.Description)
	}

	if safety := result.PatientSafetyAnalysis; safety != nil {
		fmt.Println("\n===== PATIENT SAFETY =====")
		fmt.Printf("Urgency: %s | Risk score: %.0f/100\n", safety.Urgency, safety.RiskScore)
		if len(safety.AffectedSegments) > 0 {
			fmt.Printf("Affected segments: %v\n", safety.AffectedSegments)
		}
	}

	if compliance := result.ComplianceAnalysis; compliance != nil {
		fmt.Println("\n===== COMPLIANCE =====")
		fmt.Printf("Overall score: %.0f/100\n", compliance.OverallComplianceScore)
		for _, v := range compliance.Violations {
			fmt.Printf("- [%s] %s / %s: %s\n", v.Severity, v.Category, v.Metric, v.Description)
		}
	}

	if len(result.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, rec := range result.Recommendations {
			fmt.Printf("- %s\n", rec)
		}
	}
	fmt.Println()
}
