package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/carevista/healthwatch/models"
)

// Config holds all application configuration
type Config struct {
	HTTPAddr       string
	LogLevel       string
	RequestTimeout int // seconds

	// Detection engine
	Algorithm           string
	Sensitivity         float64
	MinimumDataPoints   int
	ConfidenceThreshold float64
	SeasonalAdjustment  bool
	SeasonalPeriod      int
	PatientSafetyChecks bool
	ComplianceChecks    bool
	RemediationGuidance bool

	// Storage (optional)
	EnableStorage bool
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string

	// Alerting (optional)
	AlertWebhookURL string
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.HTTPAddr = getEnvWithDefault("HTTP_ADDR", ":8080")
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)

	cfg.Algorithm = getEnvWithDefault("DETECTION_ALGORITHM", string(models.AlgorithmHybrid))
	cfg.Sensitivity = getEnvFloatWithDefault("DETECTION_SENSITIVITY", 0.7)
	cfg.MinimumDataPoints = getEnvIntWithDefault("MINIMUM_DATA_POINTS", 100)
	cfg.ConfidenceThreshold = getEnvFloatWithDefault("CONFIDENCE_THRESHOLD", 0.8)
	cfg.SeasonalAdjustment = getEnvBoolWithDefault("SEASONAL_ADJUSTMENT", true)
	cfg.SeasonalPeriod = getEnvIntWithDefault("SEASONAL_PERIOD", 7)
	cfg.PatientSafetyChecks = getEnvBoolWithDefault("PATIENT_SAFETY_CHECKS", true)
	cfg.ComplianceChecks = getEnvBoolWithDefault("COMPLIANCE_CHECKS", true)
	cfg.RemediationGuidance = getEnvBoolWithDefault("REMEDIATION_GUIDANCE", true)

	cfg.EnableStorage = getEnvBoolWithDefault("ENABLE_STORAGE", false)
	cfg.DBHost = getEnvWithDefault("DB_HOST", "localhost")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = getEnvWithDefault("DB_USER", "healthwatch")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = getEnvWithDefault("DB_NAME", "healthwatch")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")

	cfg.AlertWebhookURL = os.Getenv("ALERT_WEBHOOK_URL")

	return &cfg, nil
}

// DetectionConfig converts the environment settings into the engine config.
func (c *Config) DetectionConfig() (*models.DetectionConfig, error) {
	algorithm, err := models.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return nil, err
	}
	return &models.DetectionConfig{
		Algorithm:           algorithm,
		Sensitivity:         c.Sensitivity,
		MinimumDataPoints:   c.MinimumDataPoints,
		ConfidenceThreshold: c.ConfidenceThreshold,
		SeasonalAdjustment:  c.SeasonalAdjustment,
		SeasonalPeriod:      c.SeasonalPeriod,
		PatientSafetyChecks: c.PatientSafetyChecks,
		ComplianceChecks:    c.ComplianceChecks,
		RemediationGuidance: c.RemediationGuidance,
	}, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
