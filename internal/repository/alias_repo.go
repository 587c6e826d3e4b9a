package repository

import (
	"context"
	"database/sql"

	"github.com/content-ingest-api/internal/database"
	"github.com/content-ingest-api/internal/models"
)

// aliasRepo is the concrete implementation of AliasRepository
type aliasRepo struct {
	db *database.DB
}

// NewAliasRepo creates a new URL alias repository
func NewAliasRepo(db *database.DB) AliasRepository {
	return &aliasRepo{db: db}
}

// FindByPath looks up an alias by source path, ignoring case
func (r *aliasRepo) FindByPath(ctx context.Context, path string) (*models.URLAlias, error) {
	query := `
		SELECT id, from_path, to_path, http_code FROM url_aliases
		WHERE lower(from_path) = lower($1)
		ORDER BY id
		LIMIT 1
	`
	var alias models.URLAlias
	err := r.db.Querier(ctx).QueryRowContext(ctx, query, path).Scan(
		&alias.ID, &alias.FromPath, &alias.ToPath, &alias.HTTPCode,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "url_alias")
	}
	return &alias, nil
}

// InsertIfAbsent seeds an alias once; existing source paths are left untouched
func (r *aliasRepo) InsertIfAbsent(ctx context.Context, alias *models.URLAlias) (bool, error) {
	query := `
		INSERT INTO url_aliases (from_path, to_path, http_code)
		VALUES ($1, $2, $3)
		ON CONFLICT (from_path) DO NOTHING
	`
	res, err := r.db.Querier(ctx).ExecContext(ctx, query, alias.FromPath, alias.ToPath, alias.HTTPCode)
	if err != nil {
		return false, mapError(err, "url_alias")
	}
	affected, err := res.RowsAffected()
	return affected == 1, err
}

// Count returns the total number of aliases
func (r *aliasRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Querier(ctx).QueryRowContext(ctx, "SELECT COUNT(*) FROM url_aliases").Scan(&count)
	return count, err
}
