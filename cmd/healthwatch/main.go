package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/carevista/healthwatch/internal/config"
	"github.com/carevista/healthwatch/internal/database"
	"github.com/carevista/healthwatch/internal/detector"
	"github.com/carevista/healthwatch/internal/notify"
	"github.com/carevista/healthwatch/internal/server"
)

func main() {
	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	setupSignalHandling(cancel)

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// 2. Configure logging
	setupLogging(cfg.LogLevel)
	log.Info().Msg("Starting HealthWatch anomaly detection service")
	printConfig(cfg)

	// 3. Build the detection engine
	detectionCfg, err := cfg.DetectionConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid detection configuration")
	}
	engine := detector.New(detectionCfg, nil)

	// 4. Connect storage if enabled
	var db *database.DB
	if cfg.EnableStorage {
		db, err = database.New(database.ConnectionParams{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()
		log.Info().Str("host", cfg.DBHost).Str("db", cfg.DBName).Msg("Storage connected")
	}

	// 5. Setup the alert notifier
	var notifier *notify.Notifier
	if cfg.AlertWebhookURL != "" {
		notifier = notify.New(cfg.AlertWebhookURL, time.Duration(cfg.RequestTimeout)*time.Second)
		log.Info().Msg("Alert webhook enabled")
	}

	// 6. Serve the API
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      server.New(engine, db, notifier),
		ReadTimeout:  time.Duration(cfg.RequestTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("Listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
	log.Info().Msg("Server stopped")
}

// setupSignalHandling configures signal handling for graceful shutdown
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, exiting...")
		cancel()
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// printConfig outputs the current configuration
func printConfig(cfg *config.Config) {
	log.Info().
		Str("Addr", cfg.HTTPAddr).
		Str("Algorithm", cfg.Algorithm).
		Float64("Sensitivity", cfg.Sensitivity).
		Int("MinimumDataPoints", cfg.MinimumDataPoints).
		Float64("ConfidenceThreshold", cfg.ConfidenceThreshold).
		Bool("SeasonalAdjustment", cfg.SeasonalAdjustment).
		Int("SeasonalPeriod", cfg.SeasonalPeriod).
		Bool("PatientSafetyChecks", cfg.PatientSafetyChecks).
		Bool("ComplianceChecks", cfg.ComplianceChecks).
		Bool("EnableStorage", cfg.EnableStorage).
		Msg("Configuration loaded")
}
