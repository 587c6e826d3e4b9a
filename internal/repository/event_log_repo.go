package repository

import (
	"context"

	"github.com/content-ingest-api/internal/database"
	"github.com/content-ingest-api/internal/models"
)

// eventLogRepo is the concrete implementation of EventLogRepository.
// Appends never join the caller's transaction.
type eventLogRepo struct {
	db *database.DB
}

// NewEventLogRepo creates a new event log repository
func NewEventLogRepo(db *database.DB) EventLogRepository {
	return &eventLogRepo{db: db}
}

// Append inserts one trace entry and sets its ID and creation time
func (r *eventLogRepo) Append(ctx context.Context, entry *models.EventLogEntry) error {
	query := `
		INSERT INTO event_logs (category, level, message, request_id, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	var metadata interface{}
	if len(entry.Metadata) > 0 {
		metadata = string(entry.Metadata)
	}

	err := r.db.QueryRowContext(ctx, query,
		entry.Category, entry.Level, entry.Message, entry.RequestID, metadata,
	).Scan(&entry.ID, &entry.CreatedAt)
	return mapError(err, "event_log")
}

// ListByRequestID returns a request's trace, oldest first
func (r *eventLogRepo) ListByRequestID(ctx context.Context, requestID string) ([]*models.EventLogEntry, error) {
	query := `
		SELECT id, category, level, message, request_id, metadata, created_at
		FROM event_logs WHERE request_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, mapError(err, "event_log")
	}
	defer rows.Close()

	var entries []*models.EventLogEntry
	for rows.Next() {
		var entry models.EventLogEntry
		var metadata []byte
		if err := rows.Scan(
			&entry.ID, &entry.Category, &entry.Level, &entry.Message, &entry.RequestID,
			&metadata, &entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			entry.Metadata = metadata
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
