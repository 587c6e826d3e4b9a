package repository

import (
	"context"
	"database/sql"

	"github.com/content-ingest-api/internal/database"
	"github.com/content-ingest-api/internal/models"
)

const redirectColumns = `id, source_path, target_path, status_code, is_active, created_at, updated_at`

// redirectRepo is the concrete implementation of RedirectRepository
type redirectRepo struct {
	db *database.DB
}

// NewRedirectRepo creates a new redirect repository
func NewRedirectRepo(db *database.DB) RedirectRepository {
	return &redirectRepo{db: db}
}

// Create inserts a redirect and sets its generated ID
func (r *redirectRepo) Create(ctx context.Context, redirect *models.Redirect) error {
	query := `
		INSERT INTO redirects (source_path, target_path, status_code, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.Querier(ctx).QueryRowContext(ctx, query,
		redirect.SourcePath, redirect.TargetPath, redirect.StatusCode, redirect.IsActive,
		redirect.CreatedAt, redirect.UpdatedAt,
	).Scan(&redirect.ID)
	return mapError(err, "redirect")
}

// FindActiveBySource looks up an active redirect by exact, case-sensitive source path
func (r *redirectRepo) FindActiveBySource(ctx context.Context, sourcePath string) (*models.Redirect, error) {
	query := `SELECT ` + redirectColumns + ` FROM redirects WHERE source_path = $1 AND is_active = TRUE`

	redirect, err := scanRedirect(r.db.Querier(ctx).QueryRowContext(ctx, query, sourcePath))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "redirect")
	}
	return redirect, nil
}

// List returns all redirects ordered by source path
func (r *redirectRepo) List(ctx context.Context) ([]*models.Redirect, error) {
	rows, err := r.db.Querier(ctx).QueryContext(ctx, `SELECT `+redirectColumns+` FROM redirects ORDER BY source_path`)
	if err != nil {
		return nil, mapError(err, "redirect")
	}
	defer rows.Close()

	var redirects []*models.Redirect
	for rows.Next() {
		redirect, err := scanRedirect(rows)
		if err != nil {
			return nil, err
		}
		redirects = append(redirects, redirect)
	}
	return redirects, rows.Err()
}

// Delete removes a redirect, reporting whether it existed
func (r *redirectRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.Querier(ctx).ExecContext(ctx, "DELETE FROM redirects WHERE id = $1", id)
	if err != nil {
		return false, mapError(err, "redirect")
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

// Count returns the total number of redirects
func (r *redirectRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Querier(ctx).QueryRowContext(ctx, "SELECT COUNT(*) FROM redirects").Scan(&count)
	return count, err
}

func scanRedirect(row rowScanner) (*models.Redirect, error) {
	var redirect models.Redirect
	err := row.Scan(
		&redirect.ID, &redirect.SourcePath, &redirect.TargetPath, &redirect.StatusCode,
		&redirect.IsActive, &redirect.CreatedAt, &redirect.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &redirect, nil
}
