package repository

import (
	"context"
	"strconv"
	"time"

	"pcbuilds/internal/database"
)

const (
	SettingAutoImport   = "auto_import_enabled"
	SettingLastImportAt = "last_import_at"
)

type SettingsRepository struct {
	db database.Querier
}

func NewSettingsRepository(db database.Querier) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	return err
}

func (r *SettingsRepository) GetBool(ctx context.Context, key string, defaultVal bool) bool {
	val, err := r.Get(ctx, key)
	if err != nil {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func (r *SettingsRepository) SetBool(ctx context.Context, key string, v bool) error {
	return r.Set(ctx, key, strconv.FormatBool(v))
}

// GetTime returns the zero time when the key is missing or unparseable.
func (r *SettingsRepository) GetTime(ctx context.Context, key string) time.Time {
	val, err := r.Get(ctx, key)
	if err != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (r *SettingsRepository) SetTime(ctx context.Context, key string, t time.Time) error {
	return r.Set(ctx, key, t.UTC().Format(time.RFC3339))
}
