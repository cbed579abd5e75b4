package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"meeting-analysis-api/analyzer"
	"meeting-analysis-api/gemini"
	"meeting-analysis-api/handlers"
	"meeting-analysis-api/media"
	"meeting-analysis-api/storage"
	"meeting-analysis-api/subscriber"
	"meeting-analysis-api/utils"
	valkeystore "meeting-analysis-api/valkey"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	zcfg := zap.NewProductionConfig()
	zcfg.EncoderConfig.TimeKey = ""
	zcfg.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
	logger, err := zcfg.Build()
	if err != nil {
		log.Fatalf("cannot initialize logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	cfg, err := utils.LoadConfig()
	if err != nil {
		sugar.Fatalw("failed to load configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var observers []analyzer.Observer
	var runs subscriber.RunLookup

	// Initialize PostgreSQL database
	if cfg.PostgresEnabled() {
		if err := utils.InitDB(logger, cfg.Postgres); err != nil {
			sugar.Fatalw("failed to init database", "error", err)
		}
		defer utils.CloseDB(logger)

		if err := utils.CreateSchema(logger); err != nil {
			sugar.Fatalw("failed to create database schema", "error", err)
		}
	}

	// Initialize Valkey
	if cfg.ValkeyEnabled() {
		if err := valkeystore.InitValkey(logger, cfg.Valkey); err != nil {
			sugar.Fatalw("failed to init valkey", "error", err)
		}
		defer valkeystore.Close()

		observers = append(observers, subscriber.NewPublisher(logger))
		runs = subscriber.CacheLookup{}
		go subscriber.Start(ctx, logger)
	} else {
		if cfg.PostgresEnabled() {
			observers = append(observers, subscriber.NewDirectRecorder(logger))
		}
		recent, err := subscriber.NewRecentRuns(cfg.RecentRuns)
		if err != nil {
			sugar.Fatalw("failed to create run cache", "error", err)
		}
		observers = append(observers, recent)
		runs = recent
	}

	// Upload staging; the janitor keeps staged files from outliving the retention period
	var store storage.Store
	var janitor *storage.Janitor
	if cfg.S3Enabled() {
		if err := utils.InitS3(logger, cfg.S3); err != nil {
			sugar.Fatalw("failed to init s3", "error", err)
		}
		s3Store := storage.NewS3Store(cfg.S3.Bucket)
		store = s3Store
		janitor = storage.NewBucketJanitor(logger, utils.S3Client, s3Store.Bucket, s3Store.Prefix, cfg.Uploads.Retention)
	} else {
		store = storage.NewLocalStore(cfg.Uploads.Folder)
		janitor = storage.NewJanitor(logger, cfg.Uploads.Folder, cfg.Uploads.Retention)
	}
	if err := janitor.Start(cfg.Uploads.SweepSpec); err != nil {
		sugar.Fatalw("failed to start upload janitor", "error", err)
	}
	defer janitor.Stop()

	// AI provider; any failure leaves the service on sample analyses
	var client *analyzer.Client
	if cfg.AIEnabled() {
		provider, err := gemini.New(ctx, logger, gemini.Config{
			APIKey:      cfg.AI.GeminiAPIKey,
			Models:      cfg.AI.Models,
			HTTPTimeout: cfg.AI.HTTPTimeout,
		})
		if err != nil {
			sugar.Warnw("AI provider unavailable, serving sample analyses", "error", err)
		} else {
			client = analyzer.NewClient(provider, logger)
		}
	} else {
		sugar.Warn("GEMINI_API_KEY not set, serving sample analyses")
	}

	orch := analyzer.NewOrchestrator(logger, media.DefaultPolicy(), client, observers...)

	sugar.Info("Creating router")
	r := handlers.NewRouter(logger, handlers.Deps{
		Config:       cfg,
		Orchestrator: orch,
		Store:        store,
		RunHistory:   utils.DB != nil,
		Runs:         runs,
	})

	sugar.Infow("Running on port",
		"port", cfg.Port,
		"environment", cfg.Environment(),
		"ai_configured", orch.AIAvailable())
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}
	if err := handlers.Serve(ctx, logger, srv, cfg.ShutdownTimeout); err != nil {
		// Return instead of exiting so the deferred cleanup still runs.
		sugar.Errorw("server stopped", "error", err)
	}
}
