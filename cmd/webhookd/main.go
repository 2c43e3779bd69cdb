package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/RohanKhanal14/lambda-monorepo/internal/config"
	"github.com/RohanKhanal14/lambda-monorepo/internal/dispatch"
	"github.com/RohanKhanal14/lambda-monorepo/internal/pipeline"
	"github.com/RohanKhanal14/lambda-monorepo/internal/server"
	"github.com/RohanKhanal14/lambda-monorepo/internal/storage"
	"github.com/RohanKhanal14/lambda-monorepo/internal/storage/memory"
	"github.com/RohanKhanal14/lambda-monorepo/internal/storage/sqlite"
	"github.com/RohanKhanal14/lambda-monorepo/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	configPath := os.Getenv("HOOKD_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	shutdownTracer, err := telemetry.InitTracer("hookdispatch", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	ruleConfigs := make([]dispatch.Rule, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		ruleConfigs = append(ruleConfigs, dispatch.Rule{Prefix: r.Prefix, Pipelines: r.Pipelines})
	}
	rules, err := dispatch.NewRuleSet(ruleConfigs)
	if err != nil {
		log.Fatalf("Invalid dispatch rules: %v", err)
	}

	starter, err := pipeline.NewCodePipelineStarter(context.Background(), cfg.AWS.Region)
	if err != nil {
		log.Fatalf("Failed to create CodePipeline client: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open delivery store: %v", err)
	}
	if store != nil {
		defer store.Close()
	}

	dispatcher, err := dispatch.New(cfg.GitHub.WebhookSecret, rules, starter, store, logger)
	if err != nil {
		log.Fatalf("Failed to create dispatcher: %v", err)
	}

	srv := server.New(cfg.Server.Port, logger)
	handler := server.NewHandler(dispatcher, store, logger)
	srv.Router.Post("/webhook", handler.HandleWebhook)
	srv.Router.Get("/healthz", handler.HandleHealth)
	srv.Router.Get("/deliveries", handler.HandleDeliveries)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("webhook dispatcher started",
		slog.Int("port", cfg.Server.Port),
		slog.Int("rules", len(cfg.Rules)),
		slog.String("storage", cfg.Storage.Type))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case <-sigCh:
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

func openStore(cfg *config.Config) (storage.DeliveryStore, error) {
	switch cfg.Storage.Type {
	case "sqlite":
		path := cfg.Storage.SQLite.Path
		if path == "" {
			path = "./data/deliveries.db"
		}
		return sqlite.New(path)
	case "memory":
		return memory.New(), nil
	default:
		return nil, nil
	}
}
