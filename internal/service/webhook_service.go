package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/content-ingest-api/internal/config"
	"github.com/content-ingest-api/internal/models"
	"github.com/content-ingest-api/internal/repository"
	"github.com/content-ingest-api/internal/signature"
	"github.com/content-ingest-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

// webhookService is the concrete implementation of WebhookService
type webhookService struct {
	logs       repository.WebhookLogRepository
	tracer     *TraceRecorder
	settings   SettingsService
	validator  *validation.PayloadValidator
	reconciler ArticleReconciler
	provider   string
	log        zerolog.Logger
	newID      func() string
	now        func() time.Time
}

// newWebhookService creates a new WebhookService
func newWebhookService(
	logs repository.WebhookLogRepository,
	tracer *TraceRecorder,
	settings SettingsService,
	reconciler ArticleReconciler,
	cfg *config.Config,
	log zerolog.Logger,
) *webhookService {
	return &webhookService{
		logs:       logs,
		tracer:     tracer,
		settings:   settings,
		validator:  validation.NewPayloadValidator(),
		reconciler: reconciler,
		provider:   cfg.Webhook.Provider,
		log:        log.With().Str("service", "webhook").Logger(),
		newID:      func() string { return uuid.New().String() },
		now:        time.Now,
	}
}

// storablePayload makes a raw body safe for a TEXT column.
// Invalid UTF-8 and NUL bytes become U+FFFD; signature checks use the raw body.
func storablePayload(body []byte) string {
	return strings.ReplaceAll(strings.ToValidUTF8(string(body), "\uFFFD"), "\x00", "\uFFFD")
}

// HandleContentWebhook runs one delivery through verification, parsing and reconciliation.
// It always returns an outcome; the webhook log entry is completed exactly once.
func (s *webhookService) HandleContentWebhook(ctx context.Context, req *models.WebhookRequest) *models.WebhookOutcome {
	ctx = context.WithoutCancel(ctx)

	requestID := s.newID()
	trace := s.tracer.For(requestID)
	trace.Info(ctx, CategoryWebhook, "Webhook received", map[string]interface{}{
		"provider": s.provider,
		"method":   req.Method,
		"url":      req.URL,
	})

	body, readErr := io.ReadAll(req.Body)

	entry := &models.WebhookLogEntry{
		ID:         s.newID(),
		Provider:   s.provider,
		Method:     req.Method,
		URL:        req.URL,
		Payload:    storablePayload(body),
		StatusCode: models.StatusPending,
		RequestID:  requestID,
		CreatedAt:  s.now(),
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("request_id", requestID).Msg("Failed to create webhook log entry")
		entry = nil
	}

	var outcome *models.WebhookOutcome
	if readErr != nil {
		outcome = s.fail(ctx, trace, newPipelineError(KindRead, "Failed to read request body", readErr))
	} else {
		outcome = s.process(ctx, trace, req, body)
	}

	s.complete(ctx, entry, outcome)
	return outcome
}

func (s *webhookService) process(ctx context.Context, trace *RequestTrace, req *models.WebhookRequest, body []byte) *models.WebhookOutcome {
	secret, err := s.settings.WebhookSecret(ctx)
	if err != nil {
		return s.fail(ctx, trace, newPipelineError(KindPersistence, "Internal Server Error", err))
	}
	if !secret.Configured() {
		return s.fail(ctx, trace, newPipelineError(KindConfig, "Webhook secret is not configured", signature.ErrNoSecret))
	}

	switch err := signature.Verify(secret, req.Signature, req.Timestamp, body); {
	case errors.Is(err, signature.ErrMissingSignature):
		return s.fail(ctx, trace, newPipelineError(KindMissingSignature, "Missing signature or timestamp header", err))
	case err != nil:
		return s.fail(ctx, trace, newPipelineError(KindInvalidSignature, "Invalid signature", err))
	}
	trace.Info(ctx, CategorySignature, "Signature verified", map[string]interface{}{
		"secret_source":  secret.Source,
		"secret_version": secret.Version,
	})

	payload, err := s.validator.Parse(body)
	if err != nil {
		var schemaErr *validation.SchemaError
		if errors.As(err, &schemaErr) {
			pe := newPipelineError(KindSchemaValidation, "Payload validation failed", err)
			pe.Details = schemaErr.Violations
			return s.fail(ctx, trace, pe)
		}
		return s.fail(ctx, trace, newPipelineError(KindInvalidJSON, "Invalid JSON", err))
	}

	switch p := payload.(type) {
	case *validation.ErrorReportPayload:
		return s.acknowledgeErrorReport(ctx, trace, p)
	case *validation.SuccessPayload:
		trace.Info(ctx, CategoryPayload, "Success payload accepted", map[string]interface{}{
			"slug":         *p.Article.Slug,
			"translations": len(p.Article.Translations),
		})
		result, err := s.reconciler.Reconcile(ctx, trace, p)
		if err != nil {
			var pe *PipelineError
			if !errors.As(err, &pe) {
				pe = newPipelineError(KindPersistence, "Internal Server Error", err)
			}
			return s.fail(ctx, trace, pe)
		}
		trace.Info(ctx, CategoryWebhook, "Webhook processed", map[string]interface{}{
			"status_code": http.StatusOK,
			"article_id":  result.ArticleID,
			"operation":   result.Operation,
		})
		return &models.WebhookOutcome{
			StatusCode: http.StatusOK,
			Body: models.WebhookResponse{
				Success:   true,
				ArticleID: result.ArticleID,
				Operation: result.Operation,
				RequestID: trace.RequestID(),
			},
		}
	default:
		return s.fail(ctx, trace, newPipelineError(KindSchemaValidation, "Unrecognized payload variant", nil))
	}
}

// acknowledgeErrorReport records a provider-side failure; the delivery itself succeeded
func (s *webhookService) acknowledgeErrorReport(ctx context.Context, trace *RequestTrace, p *validation.ErrorReportPayload) *models.WebhookOutcome {
	meta := map[string]interface{}{
		"kind":          KindProviderReported,
		"error_message": *p.ErrorMessage,
		"status_code":   http.StatusOK,
	}
	if p.ErrorType != nil {
		meta["error_type"] = *p.ErrorType
	}
	trace.Warn(ctx, CategoryProvider, "Provider reported an error", meta)

	return &models.WebhookOutcome{
		StatusCode: http.StatusOK,
		Body: models.WebhookResponse{
			Success:   true,
			Message:   "Error report logged",
			Kind:      string(KindProviderReported),
			RequestID: trace.RequestID(),
		},
	}
}

// fail records the terminal error trace entry and builds the caller response
func (s *webhookService) fail(ctx context.Context, trace *RequestTrace, pe *PipelineError) *models.WebhookOutcome {
	status := pe.StatusCode()

	meta := map[string]interface{}{
		"kind":        pe.Kind,
		"status_code": status,
	}
	if pe.Err != nil {
		meta["error"] = pe.Err.Error()
	}
	if pe.Details != nil {
		meta["details"] = pe.Details
	}
	trace.Error(ctx, CategoryWebhook, pe.Message, meta)

	resp := models.WebhookResponse{
		Success:   false,
		Error:     pe.Message,
		Kind:      string(pe.Kind),
		Details:   pe.Details,
		RequestID: trace.RequestID(),
	}
	if pe.Kind == KindPersistence && pe.Err != nil {
		resp.Message = pe.Err.Error()
	}
	return &models.WebhookOutcome{StatusCode: status, Body: resp}
}

// complete writes the terminal status of the webhook log entry
func (s *webhookService) complete(ctx context.Context, entry *models.WebhookLogEntry, outcome *models.WebhookOutcome) {
	if entry == nil {
		return
	}

	raw, err := json.Marshal(outcome.Body)
	if err != nil {
		s.log.Error().Err(err).Str("request_id", entry.RequestID).Msg("Failed to encode webhook response")
	}

	now := s.now()
	entry.StatusCode = outcome.StatusCode
	entry.Response = string(raw)
	entry.CompletedAt = &now
	if !outcome.Body.Success {
		entry.Error = outcome.Body.Error
		if outcome.Body.Message != "" {
			entry.Error += ": " + outcome.Body.Message
		}
	}

	completed, err := s.logs.Complete(ctx, entry)
	if err != nil {
		s.log.Error().Err(err).Str("request_id", entry.RequestID).Msg("Failed to complete webhook log entry")
		return
	}
	if !completed {
		s.log.Warn().Str("request_id", entry.RequestID).Msg("Webhook log entry was already completed")
	}
}

// GetTrace returns the webhook log entry joined with its event trace
func (s *webhookService) GetTrace(ctx context.Context, requestID string) (*models.WebhookTrace, error) {
	entry, err := s.logs.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}

	trace, err := s.tracer.Fetch(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if trace == nil {
		trace = []*models.EventLogEntry{}
	}
	return &models.WebhookTrace{Log: entry, Trace: trace}, nil
}

// ListLogs returns the most recent webhook log entries
func (s *webhookService) ListLogs(ctx context.Context, limit int) ([]*models.WebhookLogEntry, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}
	return s.logs.ListRecent(ctx, limit)
}
