package repository

import (
	"context"
	"database/sql"

	"github.com/content-ingest-api/internal/database"
	"github.com/content-ingest-api/internal/models"
)

const webhookLogColumns = `id, provider, method, url, payload, status_code, error, response,
	request_id, created_at, completed_at`

// webhookLogRepo is the concrete implementation of WebhookLogRepository.
// It always writes through the pool so entries survive article rollbacks.
type webhookLogRepo struct {
	db *database.DB
}

// NewWebhookLogRepo creates a new webhook log repository
func NewWebhookLogRepo(db *database.DB) WebhookLogRepository {
	return &webhookLogRepo{db: db}
}

// Create inserts a pending webhook log entry
func (r *webhookLogRepo) Create(ctx context.Context, entry *models.WebhookLogEntry) error {
	query := `
		INSERT INTO webhook_logs (id, provider, method, url, payload, status_code, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Provider, entry.Method, entry.URL, nullString(entry.Payload),
		entry.StatusCode, entry.RequestID, entry.CreatedAt,
	)
	return mapError(err, "webhook_log")
}

// Complete sets the terminal fields of a pending entry.
// It reports false when the entry was already completed.
func (r *webhookLogRepo) Complete(ctx context.Context, entry *models.WebhookLogEntry) (bool, error) {
	query := `
		UPDATE webhook_logs SET status_code = $1, error = $2, response = $3, completed_at = $4
		WHERE id = $5 AND status_code = 0
	`
	res, err := r.db.ExecContext(ctx, query,
		entry.StatusCode, nullString(entry.Error), nullString(entry.Response), entry.CompletedAt, entry.ID,
	)
	if err != nil {
		return false, mapError(err, "webhook_log")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// GetByRequestID retrieves a webhook log entry by its correlation id
func (r *webhookLogRepo) GetByRequestID(ctx context.Context, requestID string) (*models.WebhookLogEntry, error) {
	query := `SELECT ` + webhookLogColumns + ` FROM webhook_logs WHERE request_id = $1`

	entry, err := scanWebhookLog(r.db.QueryRowContext(ctx, query, requestID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "webhook_log")
	}
	return entry, nil
}

// ListRecent returns the newest webhook log entries first
func (r *webhookLogRepo) ListRecent(ctx context.Context, limit int) ([]*models.WebhookLogEntry, error) {
	query := `SELECT ` + webhookLogColumns + ` FROM webhook_logs ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, mapError(err, "webhook_log")
	}
	defer rows.Close()

	var entries []*models.WebhookLogEntry
	for rows.Next() {
		entry, err := scanWebhookLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Count returns the total number of webhook log entries
func (r *webhookLogRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM webhook_logs").Scan(&count)
	return count, err
}

func scanWebhookLog(row rowScanner) (*models.WebhookLogEntry, error) {
	var entry models.WebhookLogEntry
	var payload, errText, response sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&entry.ID, &entry.Provider, &entry.Method, &entry.URL, &payload, &entry.StatusCode,
		&errText, &response, &entry.RequestID, &entry.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Payload = payload.String
	entry.Error = errText.String
	entry.Response = response.String
	if completedAt.Valid {
		entry.CompletedAt = &completedAt.Time
	}
	return &entry, nil
}
