package models

import (
	"encoding/json"
	"io"
	"time"
)

// StatusPending marks a webhook log entry whose processing has not finished
const StatusPending = 0

// WebhookLogEntry records one inbound webhook call.
// Created pending and completed exactly once.
type WebhookLogEntry struct {
	ID          string     `json:"id" db:"id"`
	Provider    string     `json:"provider" db:"provider"`
	Method      string     `json:"method" db:"method"`
	URL         string     `json:"url" db:"url"`
	Payload     string     `json:"payload,omitempty" db:"payload"`
	StatusCode  int        `json:"status_code" db:"status_code"`
	Error       string     `json:"error,omitempty" db:"error"`
	Response    string     `json:"response,omitempty" db:"response"`
	RequestID   string     `json:"request_id" db:"request_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// EventLevel is the severity of a trace entry
type EventLevel string

const (
	LevelInfo  EventLevel = "info"
	LevelWarn  EventLevel = "warn"
	LevelError EventLevel = "error"
)

// EventLogEntry is one append-only step of a request's execution trace
type EventLogEntry struct {
	ID        int64           `json:"id" db:"id"`
	Category  string          `json:"category" db:"category"`
	Level     EventLevel      `json:"level" db:"level"`
	Message   string          `json:"message" db:"message"`
	RequestID string          `json:"request_id" db:"request_id"`
	Metadata  json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// WebhookTrace joins a webhook log entry with its event trace
type WebhookTrace struct {
	Log   *WebhookLogEntry `json:"log"`
	Trace []*EventLogEntry `json:"trace"`
}

// WebhookRequest is the transport-independent view of an inbound webhook call
type WebhookRequest struct {
	Method    string
	URL       string
	Signature string
	Timestamp string
	Body      io.Reader
}

// WebhookResponse is the JSON body returned to the webhook caller
type WebhookResponse struct {
	Success   bool               `json:"success"`
	ArticleID int64              `json:"articleId,omitempty"`
	Operation ReconcileOperation `json:"operation,omitempty"`
	Message   string             `json:"message,omitempty"`
	Error     string             `json:"error,omitempty"`
	Kind      string             `json:"kind,omitempty"`
	Details   interface{}        `json:"details,omitempty"`
	RequestID string             `json:"requestId"`
}

// WebhookOutcome is the HTTP status plus body produced by the pipeline
type WebhookOutcome struct {
	StatusCode int
	Body       WebhookResponse
}
