package repository

import (
	"context"
	"time"

	"github.com/content-ingest-api/internal/database"
	"github.com/content-ingest-api/internal/models"
)

// TxRunner runs a function inside one database transaction
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ArticleRepository defines article and translation data operations.
// All methods join the transaction carried by ctx, if any.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	Touch(ctx context.Context, id int64, at time.Time) error
	GetByID(ctx context.Context, id int64) (*models.Article, error)
	FindTranslationBySlug(ctx context.Context, slug string) (*models.ArticleTranslation, error)
	FindTranslation(ctx context.Context, locale, slug string) (*models.ArticleTranslation, error)
	FindTranslationByLocale(ctx context.Context, articleID int64, locale string) (*models.ArticleTranslation, error)
	CreateTranslation(ctx context.Context, translation *models.ArticleTranslation) error
	UpdateTranslation(ctx context.Context, translation *models.ArticleTranslation) error
	ListTranslations(ctx context.Context, articleID int64) ([]*models.ArticleTranslation, error)
	Count(ctx context.Context) (int, error)
}

// WebhookLogRepository defines webhook log data operations
type WebhookLogRepository interface {
	Create(ctx context.Context, entry *models.WebhookLogEntry) error
	Complete(ctx context.Context, entry *models.WebhookLogEntry) (bool, error)
	GetByRequestID(ctx context.Context, requestID string) (*models.WebhookLogEntry, error)
	ListRecent(ctx context.Context, limit int) ([]*models.WebhookLogEntry, error)
	Count(ctx context.Context) (int, error)
}

// EventLogRepository defines append-only trace operations
type EventLogRepository interface {
	Append(ctx context.Context, entry *models.EventLogEntry) error
	ListByRequestID(ctx context.Context, requestID string) ([]*models.EventLogEntry, error)
}

// RedirectRepository defines redirect data operations
type RedirectRepository interface {
	Create(ctx context.Context, redirect *models.Redirect) error
	FindActiveBySource(ctx context.Context, sourcePath string) (*models.Redirect, error)
	List(ctx context.Context) ([]*models.Redirect, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int, error)
}

// AliasRepository defines legacy URL alias data operations
type AliasRepository interface {
	FindByPath(ctx context.Context, path string) (*models.URLAlias, error)
	InsertIfAbsent(ctx context.Context, alias *models.URLAlias) (bool, error)
	Count(ctx context.Context) (int, error)
}

// SettingsRepository defines durable key-value settings operations
type SettingsRepository interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	Put(ctx context.Context, key, value string) (*models.Setting, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Tx         TxRunner
	Article    ArticleRepository
	WebhookLog WebhookLogRepository
	EventLog   EventLogRepository
	Redirect   RedirectRepository
	Alias      AliasRepository
	Settings   SettingsRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Tx:         db,
		Article:    NewArticleRepo(db),
		WebhookLog: NewWebhookLogRepo(db),
		EventLog:   NewEventLogRepo(db),
		Redirect:   NewRedirectRepo(db),
		Alias:      NewAliasRepo(db),
		Settings:   NewSettingsRepo(db),
	}
}
