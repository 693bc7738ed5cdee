package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/carevista/healthwatch/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS metric_history (
			metric_name TEXT NOT NULL,
			recorded_at TIMESTAMP NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (metric_name, recorded_at)
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS detection_runs (
			id BIGSERIAL PRIMARY KEY,
			run_at TIMESTAMP NOT NULL,
			algorithm TEXT NOT NULL,
			anomaly_count INT NOT NULL,
			max_confidence DOUBLE PRECISION NOT NULL,
			most_critical_metric TEXT,
			report JSONB NOT NULL
		)
	`)
	return err
}

// SaveMetricPoint appends one observation to a metric's history.
func (db *DB) SaveMetricPoint(metricName string, point models.TimeSeriesPoint) error {
	_, err := db.Exec(`
		INSERT INTO metric_history (metric_name, recorded_at, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (metric_name, recorded_at)
		DO UPDATE SET value = EXCLUDED.value
	`, metricName, point.Timestamp, point.Value)

	return err
}

// LoadHistory returns up to limit observations for a metric in chronological
// order, ready to hydrate PerformanceMetric.HistoricalValues.
func (db *DB) LoadHistory(metricName string, limit int) ([]models.TimeSeriesPoint, error) {
	rows, err := db.Query(`
		SELECT recorded_at, value FROM (
			SELECT recorded_at, value
			FROM metric_history
			WHERE metric_name = $1
			ORDER BY recorded_at DESC
			LIMIT $2
		) recent
		ORDER BY recorded_at ASC
	`, metricName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []models.TimeSeriesPoint
	for rows.Next() {
		var p models.TimeSeriesPoint
		if err := rows.Scan(&p.Timestamp, &p.Value); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// SaveDetectionRun records a completed run with its full report.
func (db *DB) SaveDetectionRun(algorithm models.Algorithm, result *models.AnomalyDetectionResult) (int64, error) {
	report, err := json.Marshal(result)
	if err != nil {
		return 0, err
	}

	var id int64
	err = db.QueryRow(`
		INSERT INTO detection_runs (run_at, algorithm, anomaly_count, max_confidence, most_critical_metric, report)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, time.Now(), algorithm, result.Summary.TotalAnomalies,
		result.Summary.MaxConfidence, nullableString(result.Summary.MostCriticalMetric), report).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// LastDetectionRun retrieves the most recent run's report, or nil when no
// runs are recorded yet.
func (db *DB) LastDetectionRun() (*models.AnomalyDetectionResult, error) {
	var report []byte
	err := db.QueryRow(`
		SELECT report
		FROM detection_runs
		ORDER BY run_at DESC
		LIMIT 1
	`).Scan(&report)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var result models.AnomalyDetectionResult
	if err := json.Unmarshal(report, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
