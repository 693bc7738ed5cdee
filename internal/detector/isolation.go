package detector

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/carevista/healthwatch/models"
)

const (
	isolationTrees     = 10
	isolationMaxDepth  = 10
	isolationScoreBase = 0.6 // score trigger before sensitivity scaling

	// eulerMascheroni appears in the average unsuccessful-search path length
	// of a binary search tree, used to normalize isolation depths.
	eulerMascheroni = 0.5772156649
)

// detectIsolation scores each metric's feature vector with a small isolation
// forest built over the whole batch. Points that isolate in few random
// splits score close to 1 and are flagged.
func (d *Detector) detectIsolation(metrics []models.PerformanceMetric) []models.DetectedAnomaly {
	if len(metrics) == 0 {
		return nil
	}

	data := make([][]float64, len(metrics))
	for i := range metrics {
		data[i] = featureVector(&metrics[i])
	}
	scores := isolationScores(data, d.rng, isolationTrees, isolationMaxDepth)

	threshold := isolationScoreBase * d.cfg.Sensitivity
	var anomalies []models.DetectedAnomaly
	for i := range metrics {
		if scores[i] <= threshold {
			continue
		}
		metric := &metrics[i]

		anomalyType := models.AnomalySpike
		if metric.PercentageChange < 0 {
			anomalyType = models.AnomalyDrop
		}

		anomalies = append(anomalies, models.DetectedAnomaly{
			MetricName:  metric.MetricName,
			AnomalyType: anomalyType,
			// Isolation scores live in [0,1]; scale onto the shared
			// z-score-like severity ladder.
			Severity:      severityFromScore(scores[i] * 5),
			Confidence:    scores[i],
			DetectedAt:    d.now(),
			Value:         metric.CurrentValue,
			ExpectedRange: orderedRange(metric.Percentiles.P25, metric.Percentiles.P75),
			Description: fmt.Sprintf("%s isolates from the rest of the batch (isolation score %.2f)",
				metric.MetricName, scores[i]),
		})
	}
	return anomalies
}

// featureVector is the per-metric input to the forest: current value,
// percentage change, dispersion, and the sign of the recent trend.
func featureVector(metric *models.PerformanceMetric) []float64 {
	return []float64{
		metric.CurrentValue,
		metric.PercentageChange,
		metric.StdDeviation,
		trendSign(metric.Trend),
	}
}

func trendSign(trend models.Trend) float64 {
	switch trend {
	case models.TrendDeclining:
		return -1
	case models.TrendImproving:
		return 1
	default:
		return 0
	}
}

// iTreeNode is one node of an isolation tree. External nodes keep the size
// of the subset they absorbed so path lengths stay comparable.
type iTreeNode struct {
	splitFeature int
	splitValue   float64
	left, right  *iTreeNode
	size         int
	external     bool
}

// isolationScores builds trees trees over the data and returns each point's
// normalized anomaly score 2^(-E(h)/c(n)) in [0,1].
func isolationScores(data [][]float64, rng *rand.Rand, trees, maxDepth int) []float64 {
	n := len(data)
	scores := make([]float64, n)
	if n == 0 {
		return scores
	}
	if n == 1 {
		// A single point isolates immediately by definition.
		scores[0] = 1
		return scores
	}

	forest := make([]*iTreeNode, trees)
	for t := range forest {
		forest[t] = buildIsolationTree(data, rng, 0, maxDepth)
	}

	norm := averagePathLength(float64(n))
	for i, point := range data {
		var total float64
		for _, tree := range forest {
			total += pathLength(tree, point, 0)
		}
		avg := total / float64(trees)
		scores[i] = math.Pow(2, -avg/norm)
	}
	return scores
}

func buildIsolationTree(data [][]float64, rng *rand.Rand, depth, maxDepth int) *iTreeNode {
	if len(data) <= 1 || depth >= maxDepth {
		return &iTreeNode{external: true, size: len(data)}
	}

	feature := rng.Intn(len(data[0]))
	lo, hi := featureRange(data, feature)
	if lo == hi {
		return &iTreeNode{external: true, size: len(data)}
	}
	split := lo + rng.Float64()*(hi-lo)

	var left, right [][]float64
	for _, point := range data {
		if point[feature] < split {
			left = append(left, point)
		} else {
			right = append(right, point)
		}
	}

	return &iTreeNode{
		splitFeature: feature,
		splitValue:   split,
		left:         buildIsolationTree(left, rng, depth+1, maxDepth),
		right:        buildIsolationTree(right, rng, depth+1, maxDepth),
	}
}

func pathLength(node *iTreeNode, point []float64, depth float64) float64 {
	if node.external {
		if node.size > 1 {
			return depth + averagePathLength(float64(node.size))
		}
		return depth
	}
	if point[node.splitFeature] < node.splitValue {
		return pathLength(node.left, point, depth+1)
	}
	return pathLength(node.right, point, depth+1)
}

// averagePathLength is c(n), the expected path length of an unsuccessful
// binary search over n points.
func averagePathLength(n float64) float64 {
	if n <= 1 {
		return 1
	}
	if n == 2 {
		return 1
	}
	return 2*(math.Log(n-1)+eulerMascheroni) - 2*(n-1)/n
}

func featureRange(data [][]float64, feature int) (lo, hi float64) {
	lo, hi = data[0][feature], data[0][feature]
	for _, point := range data[1:] {
		v := point[feature]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
