package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv                string `validate:"oneof=development production test"`
	DBPath                string `validate:"required"`
	DBDriver              string `validate:"required"`
	RedisAddr             string
	GRPCPort              int `validate:"gte=0,lte=65535"`
	GRPCReflectionEnabled bool
	EventsCSVPath         string `validate:"required_if=WatchEvents true"`
	WatchEvents           bool
	MetricsPort           int           `validate:"gte=0,lte=65535"`
	CacheTTL              time.Duration `validate:"gt=0"`
	ABAlpha               float64       `validate:"gt=0,lt=1"`
}

// LoadFromEnv loads configuration from environment variables. Values that
// fail to parse fall back to their defaults. An empty REDIS_ADDR disables
// the response cache and METRICS_PORT=0 disables the metrics endpoint.
func LoadFromEnv() *Config {
	return &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		DBPath:                getEnv("DB_PATH", "./data/events.db"),
		DBDriver:              getEnv("DB_DRIVER", "sqlite3"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		GRPCPort:              getInt("GRPC_PORT", 50051),
		GRPCReflectionEnabled: getBool("GRPC_REFLECTION_ENABLED", false),
		EventsCSVPath:         getEnv("EVENTS_CSV_PATH", ""),
		WatchEvents:           getBool("WATCH_EVENTS", false),
		MetricsPort:           getInt("METRICS_PORT", 9090),
		CacheTTL:              getDuration("CACHE_TTL", 10*time.Minute),
		ABAlpha:               getFloat("AB_ALPHA", 0.05),
	}
}

// Validate checks ranges and cross-field requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}
