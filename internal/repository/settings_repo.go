package repository

import (
	"context"
	"database/sql"

	"github.com/content-ingest-api/internal/database"
	"github.com/content-ingest-api/internal/models"
)

// settingsRepo is the concrete implementation of SettingsRepository
type settingsRepo struct {
	db *database.DB
}

// NewSettingsRepo creates a new settings repository
func NewSettingsRepo(db *database.DB) SettingsRepository {
	return &settingsRepo{db: db}
}

// Get retrieves a setting by key
func (r *settingsRepo) Get(ctx context.Context, key string) (*models.Setting, error) {
	query := `SELECT key, value, version, updated_at FROM settings WHERE key = $1`

	var setting models.Setting
	err := r.db.Querier(ctx).QueryRowContext(ctx, query, key).Scan(
		&setting.Key, &setting.Value, &setting.Version, &setting.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "setting")
	}
	return &setting, nil
}

// Put upserts a setting, incrementing its version on every write
func (r *settingsRepo) Put(ctx context.Context, key, value string) (*models.Setting, error) {
	query := `
		INSERT INTO settings (key, value, version, updated_at)
		VALUES ($1, $2, 1, now())
		ON CONFLICT (key) DO UPDATE
			SET value = EXCLUDED.value, version = settings.version + 1, updated_at = EXCLUDED.updated_at
		RETURNING key, value, version, updated_at
	`
	var setting models.Setting
	err := r.db.Querier(ctx).QueryRowContext(ctx, query, key, value).Scan(
		&setting.Key, &setting.Value, &setting.Version, &setting.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "setting")
	}
	return &setting, nil
}
