// Package config loads service configuration from the environment, with a
// .env file honored in development.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	NotifyMemory   = "memory"
	NotifyPostgres = "postgres"
	NotifyNATS     = "nats"
)

type Config struct {
	HTTPAddr        string
	DatabaseURL     string
	StoreDriver     string
	NotifyDriver    string
	NATSURL         string
	AllowedOrigins  []string
	LogLevel        string
	ShutdownTimeout time.Duration
}

func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":"+getEnv("PORT", "8080")),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		StoreDriver:     getEnv("STORE_DRIVER", StorePostgres),
		NotifyDriver:    getEnv("NOTIFY_DRIVER", NotifyPostgres),
		NATSURL:         getEnv("NATS_URL", "nats://127.0.0.1:4222"),
		AllowedOrigins:  splitCSV(getEnv("ALLOWED_ORIGINS", "*")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: 10 * time.Second,
	}
	if raw := os.Getenv("SHUTDOWN_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	switch cfg.StoreDriver {
	case StorePostgres, StoreMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	switch cfg.NotifyDriver {
	case NotifyMemory, NotifyPostgres, NotifyNATS:
	default:
		return nil, fmt.Errorf("unknown NOTIFY_DRIVER %q", cfg.NotifyDriver)
	}
	if (cfg.StoreDriver == StorePostgres || cfg.NotifyDriver == NotifyPostgres) && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required with the postgres %s driver", pgConsumer(cfg))
	}
	return cfg, nil
}

func pgConsumer(cfg *Config) string {
	if cfg.StoreDriver == StorePostgres {
		return "store"
	}
	return "notify"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
