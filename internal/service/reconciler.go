package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/content-ingest-api/internal/models"
	"github.com/content-ingest-api/internal/repository"
	"github.com/content-ingest-api/internal/validation"
	"github.com/rs/zerolog"
)

// maxReconcileAttempts bounds retries after a unique-key race
const maxReconcileAttempts = 3

// errNoTranslations means the payload resolves to no writable translation
var errNoTranslations = errors.New("payload carries no content for a supported locale")

// articleReconciler is the concrete implementation of ArticleReconciler
type articleReconciler struct {
	tx       repository.TxRunner
	articles repository.ArticleRepository
	log      zerolog.Logger
	now      func() time.Time
}

// newArticleReconciler creates a new ArticleReconciler
func newArticleReconciler(repos *repository.Repositories, log zerolog.Logger) *articleReconciler {
	return &articleReconciler{
		tx:       repos.Tx,
		articles: repos.Article,
		log:      log.With().Str("service", "reconciler").Logger(),
		now:      time.Now,
	}
}

// translationInput is one translation the payload asks us to write
type translationInput struct {
	locale string
	title  string
	body   string
}

// translationWrite is a row written during an attempt, traced once it commits
type translationWrite struct {
	message  string
	metadata map[string]interface{}
}

// Reconcile creates or updates one article from a success payload.
// Failures are *PipelineError with kind Persistence, Conflict or SchemaValidation.
func (r *articleReconciler) Reconcile(ctx context.Context, trace *RequestTrace, payload *validation.SuccessPayload) (*models.ReconcileResult, error) {
	article := payload.Article
	slug := strings.TrimSpace(*article.Slug)

	inputs := r.buildTranslations(ctx, trace, article)
	if len(inputs) == 0 {
		return nil, &PipelineError{
			Kind:    KindSchemaValidation,
			Message: errNoTranslations.Error(),
			Details: []validation.FieldViolation{{
				Field:   "article.content",
				Message: "content or at least one supported translation is required",
			}},
			Err: errNoTranslations,
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxReconcileAttempts; attempt++ {
		var (
			result *models.ReconcileResult
			writes []translationWrite
		)
		err := r.tx.RunInTx(ctx, func(txCtx context.Context) error {
			var err error
			result, writes, err = r.apply(txCtx, trace, attempt, slug, article, inputs)
			return err
		})
		if err == nil {
			for _, w := range writes {
				w.metadata["attempt"] = attempt
				trace.Info(ctx, CategoryArticle, w.message, w.metadata)
			}
			trace.Info(ctx, CategoryArticle, "Article reconciled", map[string]interface{}{
				"article_id": result.ArticleID,
				"operation":  result.Operation,
				"attempt":    attempt,
			})
			return result, nil
		}

		var pe *PipelineError
		if errors.As(err, &pe) {
			return nil, pe
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, newPipelineError(KindPersistence, "Internal Server Error", err)
		}

		lastErr = err
		r.log.Debug().Str("request_id", trace.RequestID()).Int("attempt", attempt).Msg("Retrying after unique violation")
		trace.Warn(ctx, CategoryArticle, "Unique key race, retrying reconciliation", map[string]interface{}{
			"slug":    slug,
			"attempt": attempt,
			"error":   err.Error(),
		})
	}

	return nil, newPipelineError(KindConflict, fmt.Sprintf("slug %q kept colliding after %d attempts", slug, maxReconcileAttempts), lastErr)
}

// apply runs one reconciliation attempt inside a transaction.
// Translation writes are returned rather than traced since the attempt may still roll back.
func (r *articleReconciler) apply(ctx context.Context, trace *RequestTrace, attempt int, slug string, article *validation.ArticlePayload, inputs []translationInput) (*models.ReconcileResult, []translationWrite, error) {
	existing, err := r.articles.FindTranslationBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}

	now := r.now()
	writes := make([]translationWrite, 0, len(inputs))
	if existing == nil {
		trace.Info(ctx, CategoryArticle, "No article owns slug, creating", map[string]interface{}{
			"slug":    slug,
			"attempt": attempt,
		})

		parent := &models.Article{
			Status:      models.ArticleStatusPublished,
			PublishedAt: &now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := r.articles.Create(ctx, parent); err != nil {
			return nil, nil, err
		}
		for _, in := range inputs {
			t := &models.ArticleTranslation{
				ArticleID: parent.ID,
				Locale:    in.locale,
				Slug:      slug,
				CreatedAt: now,
			}
			applyFields(t, in, article, now)
			if err := r.articles.CreateTranslation(ctx, t); err != nil {
				return nil, nil, err
			}
			writes = append(writes, translationWrite{"Translation created", map[string]interface{}{
				"article_id": parent.ID,
				"locale":     in.locale,
			}})
		}
		return &models.ReconcileResult{ArticleID: parent.ID, Operation: models.OperationCreate}, writes, nil
	}

	articleID := existing.ArticleID
	trace.Info(ctx, CategoryArticle, "Slug resolved to existing article, updating", map[string]interface{}{
		"slug":       slug,
		"article_id": articleID,
		"matched_in": existing.Locale,
		"attempt":    attempt,
	})

	if err := r.articles.Touch(ctx, articleID, now); err != nil {
		return nil, nil, err
	}

	for _, in := range inputs {
		current, err := r.articles.FindTranslation(ctx, in.locale, slug)
		if err != nil {
			return nil, nil, err
		}
		if current != nil && current.ArticleID != articleID {
			return nil, nil, newPipelineError(KindConflict,
				fmt.Sprintf("slug %q in locale %q belongs to article %d", slug, in.locale, current.ArticleID), nil)
		}
		if current == nil {
			current, err = r.articles.FindTranslationByLocale(ctx, articleID, in.locale)
			if err != nil {
				return nil, nil, err
			}
		}

		if current == nil {
			t := &models.ArticleTranslation{
				ArticleID: articleID,
				Locale:    in.locale,
				Slug:      slug,
				CreatedAt: now,
			}
			applyFields(t, in, article, now)
			if err := r.articles.CreateTranslation(ctx, t); err != nil {
				return nil, nil, err
			}
			writes = append(writes, translationWrite{"Translation created", map[string]interface{}{
				"article_id": articleID,
				"locale":     in.locale,
			}})
			continue
		}

		previousSlug := current.Slug
		current.Slug = slug
		applyFields(current, in, article, now)
		if err := r.articles.UpdateTranslation(ctx, current); err != nil {
			return nil, nil, err
		}
		meta := map[string]interface{}{
			"article_id":     articleID,
			"locale":         in.locale,
			"translation_id": current.ID,
		}
		if previousSlug != slug {
			meta["previous_slug"] = previousSlug
		}
		writes = append(writes, translationWrite{"Translation updated", meta})
	}

	return &models.ReconcileResult{ArticleID: articleID, Operation: models.OperationUpdate}, writes, nil
}

// buildTranslations resolves the per-locale writes, dropping unsupported locales
func (r *articleReconciler) buildTranslations(ctx context.Context, trace *RequestTrace, article *validation.ArticlePayload) []translationInput {
	title := *article.Title

	if len(article.Translations) == 0 {
		if article.Content == nil {
			return nil
		}
		return []translationInput{{locale: models.DefaultLocale, title: title, body: *article.Content}}
	}

	keys := make([]string, 0, len(article.Translations))
	for k := range article.Translations {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := make(map[string]bool, len(keys))
	inputs := make([]translationInput, 0, len(keys))
	for _, key := range keys {
		locale := strings.ToLower(strings.TrimSpace(key))
		if !models.SupportedLocales[locale] {
			trace.Warn(ctx, CategoryArticle, "Dropping unsupported locale", map[string]interface{}{"locale": key})
			continue
		}
		if seen[locale] {
			trace.Warn(ctx, CategoryArticle, "Dropping duplicate locale key", map[string]interface{}{"locale": key})
			continue
		}
		seen[locale] = true

		tp := article.Translations[key]
		in := translationInput{locale: locale, title: title}
		if tp.Title != nil && *tp.Title != "" {
			in.title = *tp.Title
		}
		switch {
		case tp.Content != nil:
			in.body = *tp.Content
		case article.Content != nil:
			in.body = *article.Content
		}
		inputs = append(inputs, in)
	}
	return inputs
}

// applyFields copies payload values onto a translation.
// Optional fields are only overwritten when present in the payload.
func applyFields(t *models.ArticleTranslation, in translationInput, article *validation.ArticlePayload, now time.Time) {
	t.Title = in.title
	t.MetaTitle = in.title
	t.Body = in.body
	if article.Excerpt != nil {
		t.Excerpt = *article.Excerpt
	}
	if article.MetaDescription != nil {
		t.MetaDescription = *article.MetaDescription
	}
	if article.HeroImageURL != nil {
		t.CoverImageURL = *article.HeroImageURL
		t.CardImageURL = *article.HeroImageURL
	}
	t.UpdatedAt = now
}
