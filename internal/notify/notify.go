package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	platformhttp "github.com/carevista/healthwatch/internal/platform/http"
	"github.com/carevista/healthwatch/models"
)

// Notifier pushes detection reports that need attention to an external
// webhook. It never blocks the detection path: callers decide whether to
// fire and forget.
type Notifier struct {
	client     *platformhttp.Client
	webhookURL string
}

// New creates a notifier for the given webhook URL. An empty URL disables
// delivery; Send becomes a no-op.
func New(webhookURL string, timeout time.Duration) *Notifier {
	return &Notifier{
		client: platformhttp.NewClient(platformhttp.ClientOptions{
			Timeout: timeout,
		}),
		webhookURL: webhookURL,
	}
}

// alertPayload is the wire shape posted to the webhook.
type alertPayload struct {
	SentAt          time.Time                      `json:"sent_at"`
	Summary         models.DetectionSummary        `json:"summary"`
	Anomalies       []models.DetectedAnomaly       `json:"anomalies"`
	PatientSafety   *models.PatientSafetyAnalysis  `json:"patient_safety,omitempty"`
	Recommendations []string                       `json:"recommendations"`
}

// ShouldAlert reports whether a result warrants a webhook delivery: any
// critical anomaly, or a patient-safety finding above routine urgency.
func ShouldAlert(result *models.AnomalyDetectionResult) bool {
	if result.Summary.BySeverity[models.SeverityCritical] > 0 {
		return true
	}
	safety := result.PatientSafetyAnalysis
	return safety != nil && safety.HasAnomaly && safety.Urgency != models.UrgencyRoutine
}

// Send posts the report to the configured webhook.
func (n *Notifier) Send(ctx context.Context, result *models.AnomalyDetectionResult) error {
	if n.webhookURL == "" {
		return nil
	}

	payload := alertPayload{
		SentAt:          time.Now(),
		Summary:         result.Summary,
		Anomalies:       result.Anomalies,
		PatientSafety:   result.PatientSafetyAnalysis,
		Recommendations: result.Recommendations,
	}

	if err := n.client.PostJSON(ctx, n.webhookURL, payload); err != nil {
		return err
	}

	log.Info().
		Int("anomalies", result.Summary.TotalAnomalies).
		Str("most_critical", result.Summary.MostCriticalMetric).
		Msg("alert delivered to webhook")
	return nil
}
