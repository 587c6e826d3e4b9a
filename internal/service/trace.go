package service

import (
	"context"
	"encoding/json"

	"github.com/content-ingest-api/internal/models"
	"github.com/content-ingest-api/internal/repository"
	"github.com/rs/zerolog"
)

// Trace categories
const (
	CategoryWebhook   = "webhook"
	CategorySignature = "signature"
	CategoryPayload   = "payload"
	CategoryArticle   = "article"
	CategoryProvider  = "provider"
)

// TraceRecorder appends execution trace entries.
// Record never fails: storage errors are reported to the logger and dropped.
type TraceRecorder struct {
	repo repository.EventLogRepository
	log  zerolog.Logger
}

// NewTraceRecorder creates a new TraceRecorder
func NewTraceRecorder(repo repository.EventLogRepository, log zerolog.Logger) *TraceRecorder {
	return &TraceRecorder{
		repo: repo,
		log:  log.With().Str("component", "trace").Logger(),
	}
}

// Record appends one entry to the trace of requestID
func (t *TraceRecorder) Record(ctx context.Context, requestID, category string, level models.EventLevel, message string, metadata map[string]interface{}) {
	entry := &models.EventLogEntry{
		Category:  category,
		Level:     level,
		Message:   message,
		RequestID: requestID,
	}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			t.log.Error().Err(err).Str("request_id", requestID).Msg("Failed to encode trace metadata")
		} else {
			entry.Metadata = raw
		}
	}

	event := t.log.Info()
	switch level {
	case models.LevelWarn:
		event = t.log.Warn()
	case models.LevelError:
		event = t.log.Error()
	}
	event.Str("request_id", requestID).Str("category", category).RawJSON("metadata", metadataOrNull(entry.Metadata)).Msg(message)

	if err := t.repo.Append(ctx, entry); err != nil {
		t.log.Error().Err(err).Str("request_id", requestID).Str("category", category).Msg("Failed to write trace entry")
	}
}

// Fetch returns the trace of requestID, oldest first
func (t *TraceRecorder) Fetch(ctx context.Context, requestID string) ([]*models.EventLogEntry, error) {
	return t.repo.ListByRequestID(ctx, requestID)
}

// For binds the recorder to one request id
func (t *TraceRecorder) For(requestID string) *RequestTrace {
	return &RequestTrace{recorder: t, requestID: requestID}
}

// RequestTrace records entries for a single request
type RequestTrace struct {
	recorder  *TraceRecorder
	requestID string
}

// RequestID returns the correlation id this trace writes under
func (r *RequestTrace) RequestID() string {
	return r.requestID
}

func (r *RequestTrace) Info(ctx context.Context, category, message string, metadata map[string]interface{}) {
	r.recorder.Record(ctx, r.requestID, category, models.LevelInfo, message, metadata)
}

func (r *RequestTrace) Warn(ctx context.Context, category, message string, metadata map[string]interface{}) {
	r.recorder.Record(ctx, r.requestID, category, models.LevelWarn, message, metadata)
}

func (r *RequestTrace) Error(ctx context.Context, category, message string, metadata map[string]interface{}) {
	r.recorder.Record(ctx, r.requestID, category, models.LevelError, message, metadata)
}

func metadataOrNull(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}
