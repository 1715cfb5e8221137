package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-secret-change-me"

type Config struct {
	Port           string
	DatabaseURL    string
	JWTSecret      string
	LogMode        string
	ImportDir      string
	ImportInterval time.Duration
	MaxUploadMB    int64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "sqlite://./data/catalog.db"),
		JWTSecret:   getEnv("JWT_SECRET", devJWTSecret),
		LogMode:     getEnv("LOG_MODE", "dev"),
		ImportDir:   getEnv("IMPORT_DIR", ""),
	}

	interval, err := time.ParseDuration(getEnv("IMPORT_INTERVAL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("parse IMPORT_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("IMPORT_INTERVAL must be positive, got %s", interval)
	}
	cfg.ImportInterval = interval

	maxUpload, err := strconv.ParseInt(getEnv("MAX_UPLOAD_MB", "32"), 10, 64)
	if err != nil || maxUpload <= 0 {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB %q", os.Getenv("MAX_UPLOAD_MB"))
	}
	cfg.MaxUploadMB = maxUpload

	return cfg, nil
}

// UsesDevSecret reports whether the JWT secret was left at its built-in default.
func (c *Config) UsesDevSecret() bool {
	return c.JWTSecret == devJWTSecret
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
