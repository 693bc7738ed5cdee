package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/carevista/healthwatch/internal/database"
	"github.com/carevista/healthwatch/internal/detector"
	"github.com/carevista/healthwatch/internal/notify"
	"github.com/carevista/healthwatch/models"
)

// Server exposes the detection engine over HTTP. Storage and alerting are
// optional collaborators; a nil DB or notifier simply disables them.
type Server struct {
	detector *detector.Detector
	db       *database.DB
	notifier *notify.Notifier
	router   *mux.Router
}

// New wires the routes and returns a ready-to-serve handler.
func New(d *detector.Detector, db *database.DB, notifier *notify.Notifier) *Server {
	s := &Server{
		detector: d,
		db:       db,
		notifier: notifier,
		router:   mux.NewRouter(),
	}

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/anomaly-detection", s.handleDetect).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/anomaly-detection/latest", s.handleLatest).Methods(http.MethodGet)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// DetectionRequest is the JSON body accepted by the detection endpoint.
type DetectionRequest struct {
	Metrics              []models.PerformanceMetric  `json:"metrics"`
	PatientSegments      []models.PatientSegment     `json:"patient_segments,omitempty"`
	ComplianceCategories []models.ComplianceCategory `json:"compliance_categories,omitempty"`
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req DetectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	dctx := &models.DetectionContext{
		PatientSegments:      req.PatientSegments,
		ComplianceCategories: req.ComplianceCategories,
	}

	result, err := s.detector.Detect(req.Metrics, dctx)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.persistAndAlert(r.Context(), result)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusNotFound, "storage is not enabled")
		return
	}

	result, err := s.db.LastDetectionRun()
	if err != nil {
		log.Error().Err(err).Msg("failed to load last detection run")
		writeError(w, http.StatusInternalServerError, "failed to load last detection run")
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, "no detection runs recorded")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// persistAndAlert records the run and fires the webhook when warranted.
// Failures are logged, never surfaced to the API caller: the detection
// result is already computed and belongs to them.
func (s *Server) persistAndAlert(ctx context.Context, result *models.AnomalyDetectionResult) {
	if s.db != nil {
		if _, err := s.db.SaveDetectionRun(s.detector.Algorithm(), result); err != nil {
			log.Error().Err(err).Msg("failed to persist detection run")
		}
	}
	if s.notifier != nil && notify.ShouldAlert(result) {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		go func() {
			defer cancel()
			if err := s.notifier.Send(sendCtx, result); err != nil {
				log.Error().Err(err).Msg("failed to deliver alert")
			}
		}()
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
