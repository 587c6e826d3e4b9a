package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/content-ingest-api/internal/database"
	"github.com/content-ingest-api/internal/models"
)

const translationColumns = `id, article_id, locale, slug, title, excerpt, body, meta_title,
	meta_description, cover_image_url, card_image_url, created_at, updated_at`

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

// Create inserts a new article and sets its generated ID
func (r *articleRepo) Create(ctx context.Context, article *models.Article) error {
	query := `
		INSERT INTO articles (status, published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.Querier(ctx).QueryRowContext(ctx, query,
		article.Status, article.PublishedAt, article.CreatedAt, article.UpdatedAt,
	).Scan(&article.ID)
	return mapError(err, "article")
}

// Touch bumps an article's update timestamp
func (r *articleRepo) Touch(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Querier(ctx).ExecContext(ctx, "UPDATE articles SET updated_at = $1 WHERE id = $2", at, id)
	return mapError(err, "article")
}

// GetByID retrieves an article by ID
func (r *articleRepo) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	query := `SELECT id, status, published_at, created_at, updated_at FROM articles WHERE id = $1`

	var article models.Article
	var publishedAt sql.NullTime

	err := r.db.Querier(ctx).QueryRowContext(ctx, query, id).Scan(
		&article.ID, &article.Status, &publishedAt, &article.CreatedAt, &article.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "article")
	}

	if publishedAt.Valid {
		article.PublishedAt = &publishedAt.Time
	}
	return &article, nil
}

// FindTranslationBySlug finds a translation by slug in any locale, preferring the default locale
func (r *articleRepo) FindTranslationBySlug(ctx context.Context, slug string) (*models.ArticleTranslation, error) {
	query := `SELECT ` + translationColumns + ` FROM article_translations
		WHERE slug = $1
		ORDER BY (locale = $2) DESC, id
		LIMIT 1`
	return r.scanOne(ctx, query, slug, models.DefaultLocale)
}

// FindTranslation finds a translation by its (locale, slug) key
func (r *articleRepo) FindTranslation(ctx context.Context, locale, slug string) (*models.ArticleTranslation, error) {
	query := `SELECT ` + translationColumns + ` FROM article_translations WHERE locale = $1 AND slug = $2`
	return r.scanOne(ctx, query, locale, slug)
}

// FindTranslationByLocale finds an article's translation for one locale
func (r *articleRepo) FindTranslationByLocale(ctx context.Context, articleID int64, locale string) (*models.ArticleTranslation, error) {
	query := `SELECT ` + translationColumns + ` FROM article_translations WHERE article_id = $1 AND locale = $2`
	return r.scanOne(ctx, query, articleID, locale)
}

// CreateTranslation inserts a translation and sets its generated ID
func (r *articleRepo) CreateTranslation(ctx context.Context, t *models.ArticleTranslation) error {
	query := `
		INSERT INTO article_translations (article_id, locale, slug, title, excerpt, body, meta_title,
			meta_description, cover_image_url, card_image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	err := r.db.Querier(ctx).QueryRowContext(ctx, query,
		t.ArticleID, t.Locale, t.Slug, t.Title, t.Excerpt, t.Body, t.MetaTitle,
		t.MetaDescription, t.CoverImageURL, t.CardImageURL, t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
	return mapError(err, "article_translation")
}

// UpdateTranslation overwrites a translation's mutable fields
func (r *articleRepo) UpdateTranslation(ctx context.Context, t *models.ArticleTranslation) error {
	query := `
		UPDATE article_translations SET
			slug = $1, title = $2, excerpt = $3, body = $4, meta_title = $5, meta_description = $6,
			cover_image_url = $7, card_image_url = $8, updated_at = $9
		WHERE id = $10
	`
	_, err := r.db.Querier(ctx).ExecContext(ctx, query,
		t.Slug, t.Title, t.Excerpt, t.Body, t.MetaTitle, t.MetaDescription,
		t.CoverImageURL, t.CardImageURL, t.UpdatedAt, t.ID,
	)
	return mapError(err, "article_translation")
}

// ListTranslations returns an article's translations ordered by locale
func (r *articleRepo) ListTranslations(ctx context.Context, articleID int64) ([]*models.ArticleTranslation, error) {
	query := `SELECT ` + translationColumns + ` FROM article_translations WHERE article_id = $1 ORDER BY locale`

	rows, err := r.db.Querier(ctx).QueryContext(ctx, query, articleID)
	if err != nil {
		return nil, mapError(err, "article_translation")
	}
	defer rows.Close()

	var translations []*models.ArticleTranslation
	for rows.Next() {
		t, err := scanTranslation(rows)
		if err != nil {
			return nil, err
		}
		translations = append(translations, t)
	}
	return translations, rows.Err()
}

// Count returns the total number of articles
func (r *articleRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Querier(ctx).QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count)
	return count, err
}

func (r *articleRepo) scanOne(ctx context.Context, query string, args ...interface{}) (*models.ArticleTranslation, error) {
	t, err := scanTranslation(r.db.Querier(ctx).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "article_translation")
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTranslation(row rowScanner) (*models.ArticleTranslation, error) {
	var t models.ArticleTranslation
	err := row.Scan(
		&t.ID, &t.ArticleID, &t.Locale, &t.Slug, &t.Title, &t.Excerpt, &t.Body, &t.MetaTitle,
		&t.MetaDescription, &t.CoverImageURL, &t.CardImageURL, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
