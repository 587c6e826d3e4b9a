package service

import (
	"context"

	"github.com/content-ingest-api/internal/config"
	"github.com/content-ingest-api/internal/models"
	"github.com/content-ingest-api/internal/repository"
	"github.com/content-ingest-api/internal/signature"
	"github.com/content-ingest-api/internal/validation"
	"github.com/rs/zerolog"
)

// WebhookService defines the interface for content webhook ingestion
type WebhookService interface {
	HandleContentWebhook(ctx context.Context, req *models.WebhookRequest) *models.WebhookOutcome
	GetTrace(ctx context.Context, requestID string) (*models.WebhookTrace, error)
	ListLogs(ctx context.Context, limit int) ([]*models.WebhookLogEntry, error)
}

// ArticleReconciler defines the create-or-update-by-slug operation
type ArticleReconciler interface {
	Reconcile(ctx context.Context, trace *RequestTrace, payload *validation.SuccessPayload) (*models.ReconcileResult, error)
}

// RedirectService defines redirect resolution and administration
type RedirectService interface {
	Resolve(ctx context.Context, path string) (*models.Resolution, error)
	CreateRedirect(ctx context.Context, req *models.RedirectRequest) (*models.Redirect, error)
	ListRedirects(ctx context.Context) ([]*models.Redirect, error)
	DeleteRedirect(ctx context.Context, id int64) (bool, error)
	SeedAliases(ctx context.Context, aliases []models.URLAlias) (*models.SeedResult, error)
}

// SettingsService defines access to durable runtime settings
type SettingsService interface {
	WebhookSecret(ctx context.Context) (signature.Secret, error)
	RotateWebhookSecret(ctx context.Context) (signature.Secret, error)
}

// ArticleService defines article read operations
type ArticleService interface {
	GetArticle(ctx context.Context, id int64) (*models.Article, error)
	GetCount(ctx context.Context, resource string) (int, error)
}

// Services holds all service interfaces
type Services struct {
	Webhook  WebhookService
	Redirect RedirectService
	Settings SettingsService
	Article  ArticleService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *Services {
	tracer := NewTraceRecorder(repos.EventLog, log)
	settingsSvc := newSettingsService(repos.Settings, cfg, log)
	reconciler := newArticleReconciler(repos, log)

	return &Services{
		Webhook:  newWebhookService(repos.WebhookLog, tracer, settingsSvc, reconciler, cfg, log),
		Redirect: newRedirectService(repos, cfg, log),
		Settings: settingsSvc,
		Article:  newArticleService(repos, log),
	}
}
