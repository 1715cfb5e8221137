package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_URL", "JWT_SECRET", "LOG_MODE", "IMPORT_DIR", "IMPORT_INTERVAL", "MAX_UPLOAD_MB"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DatabaseURL != "sqlite://./data/catalog.db" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.ImportInterval != time.Minute {
		t.Errorf("ImportInterval = %s, want 1m", cfg.ImportInterval)
	}
	if cfg.MaxUploadMB != 32 {
		t.Errorf("MaxUploadMB = %d, want 32", cfg.MaxUploadMB)
	}
	if !cfg.UsesDevSecret() {
		t.Error("expected the development JWT secret")
	}
}

func TestLoadRejectsBadInterval(t *testing.T) {
	t.Setenv("IMPORT_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an unparseable interval")
	}

	t.Setenv("IMPORT_INTERVAL", "-5s")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a negative interval")
	}
}

func TestLoadRejectsBadUploadLimit(t *testing.T) {
	t.Setenv("IMPORT_INTERVAL", "")
	t.Setenv("MAX_UPLOAD_MB", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a zero upload limit")
	}
}
