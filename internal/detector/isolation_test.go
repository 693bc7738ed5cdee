package detector

import (
	"math/rand"
	"testing"

	"github.com/carevista/healthwatch/models"
)

// clusterWithOutlier builds twenty nearly identical feature vectors plus one
// far-away point.
func clusterWithOutlier() [][]float64 {
	data := make([][]float64, 0, 21)
	for i := 0; i < 20; i++ {
		data = append(data, []float64{1 + 0.01*float64(i), 0.1, 1, 0})
	}
	data = append(data, []float64{1000, 90, 50, 1})
	return data
}

func TestIsolationScoresDeterministicWithSeed(t *testing.T) {
	data := clusterWithOutlier()

	first := isolationScores(data, rand.New(rand.NewSource(7)), isolationTrees, isolationMaxDepth)
	second := isolationScores(data, rand.New(rand.NewSource(7)), isolationTrees, isolationMaxDepth)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("score %d differs across runs with the same seed: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestIsolationScoresWithinUnitInterval(t *testing.T) {
	scores := isolationScores(clusterWithOutlier(), rand.New(rand.NewSource(7)), isolationTrees, isolationMaxDepth)
	for i, s := range scores {
		if s < 0 || s > 1 {
			t.Errorf("score %d = %v, want within [0,1]", i, s)
		}
	}
}

func TestIsolationScoresOutlierIsolatesFaster(t *testing.T) {
	data := clusterWithOutlier()
	scores := isolationScores(data, rand.New(rand.NewSource(7)), isolationTrees, isolationMaxDepth)

	outlier := scores[len(scores)-1]
	for i := 0; i < len(scores)-1; i++ {
		if outlier <= scores[i] {
			t.Errorf("outlier score %v is not above cluster point %d (%v)", outlier, i, scores[i])
		}
	}
}

func TestIsolationScoresSinglePoint(t *testing.T) {
	scores := isolationScores([][]float64{{1, 2, 3, 0}}, rand.New(rand.NewSource(7)), isolationTrees, isolationMaxDepth)
	if len(scores) != 1 || scores[0] != 1 {
		t.Errorf("scores = %v, want a single point to isolate immediately", scores)
	}
}

func TestDetectIsolationFlagsOutlier(t *testing.T) {
	cfg := models.DefaultDetectionConfig()
	cfg.Algorithm = models.AlgorithmIsolationForest
	cfg.ConfidenceThreshold = 0.5

	metrics := make([]models.PerformanceMetric, 0, 21)
	for i := 0; i < 20; i++ {
		metrics = append(metrics, models.PerformanceMetric{
			MetricName:       "steady_metric",
			CurrentValue:     1 + 0.01*float64(i),
			Mean:             1,
			StdDeviation:     1,
			PercentageChange: 0.1,
			Trend:            models.TrendStable,
			Percentiles:      models.Percentiles{P25: 0.9, P75: 1.2},
		})
	}
	metrics = append(metrics, models.PerformanceMetric{
		MetricName:       "erratic_metric",
		CurrentValue:     1000,
		Mean:             1,
		StdDeviation:     50,
		PercentageChange: 90,
		Trend:            models.TrendImproving,
		Percentiles:      models.Percentiles{P25: 0.9, P75: 1.2},
	})

	d := newTestDetector(cfg)
	result, err := d.Detect(metrics, nil)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	found := false
	for _, a := range result.Anomalies {
		if a.MetricName == "erratic_metric" {
			found = true
			if a.AnomalyType != models.AnomalySpike {
				t.Errorf("AnomalyType = %v, want spike for positive percentage change", a.AnomalyType)
			}
			if a.ExpectedRange != [2]float64{0.9, 1.2} {
				t.Errorf("ExpectedRange = %v, want the P25/P75 band", a.ExpectedRange)
			}
		}
	}
	if !found {
		t.Error("erratic_metric was not flagged by the isolation forest")
	}
}
