package service

import (
	"context"
	"fmt"

	"github.com/content-ingest-api/internal/models"
	"github.com/content-ingest-api/internal/repository"
	"github.com/rs/zerolog"
)

// Countable resources reported by GetCount
const (
	ResourceArticles    = "articles"
	ResourceWebhookLogs = "webhook_logs"
	ResourceRedirects   = "redirects"
	ResourceAliases     = "aliases"
)

// articleService is the concrete implementation of ArticleService
type articleService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newArticleService creates a new ArticleService
func newArticleService(repos *repository.Repositories, log zerolog.Logger) *articleService {
	return &articleService{
		repos: repos,
		log:   log.With().Str("service", "article").Logger(),
	}
}

// GetArticle returns an article with its translations, or nil if it does not exist
func (s *articleService) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	article, err := s.repos.Article.GetByID(ctx, id)
	if err != nil || article == nil {
		return nil, err
	}

	translations, err := s.repos.Article.ListTranslations(ctx, id)
	if err != nil {
		return nil, err
	}
	article.Translations = translations
	return article, nil
}

// GetCount returns the row count for a resource
func (s *articleService) GetCount(ctx context.Context, resource string) (int, error) {
	switch resource {
	case ResourceArticles:
		return s.repos.Article.Count(ctx)
	case ResourceWebhookLogs:
		return s.repos.WebhookLog.Count(ctx)
	case ResourceRedirects:
		return s.repos.Redirect.Count(ctx)
	case ResourceAliases:
		return s.repos.Alias.Count(ctx)
	default:
		return 0, fmt.Errorf("unknown resource: %s", resource)
	}
}
