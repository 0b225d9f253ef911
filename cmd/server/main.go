package main

import (
	"context"
	"log"
	"os"

	"github.com/godilite/product-analytics/internal/app"
	"github.com/godilite/product-analytics/internal/config"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to read %s: %v", envFile, err)
	}

	cfg := config.LoadFromEnv()

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting product analytics server",
		zap.String("env", cfg.AppEnv),
		zap.String("db", cfg.DBPath),
		zap.String("events_csv", cfg.EventsCSVPath),
		zap.Bool("watch_events", cfg.WatchEvents),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Int("metrics_port", cfg.MetricsPort),
		zap.Bool("cache_enabled", cfg.RedisAddr != ""))

	application, err := app.NewApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}

	if err := application.Run(); err != nil {
		logger.Fatal("Application exited with error", zap.Error(err))
	}
}
