package models

import (
	"time"
)

// ArticleStatus is the lifecycle state of an article
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPublished ArticleStatus = "published"
	ArticleStatusArchived  ArticleStatus = "archived"
)

// Article is the locale-independent parent record
type Article struct {
	ID           int64                 `json:"id" db:"id"`
	Status       ArticleStatus         `json:"status" db:"status"`
	PublishedAt  *time.Time            `json:"published_at,omitempty" db:"published_at"`
	CreatedAt    time.Time             `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at" db:"updated_at"`
	Translations []*ArticleTranslation `json:"translations,omitempty" db:"-"`
}

// ArticleTranslation is one localized version of an article.
// Unique by (ArticleID, Locale) and by (Locale, Slug).
type ArticleTranslation struct {
	ID              int64     `json:"id" db:"id"`
	ArticleID       int64     `json:"article_id" db:"article_id"`
	Locale          string    `json:"locale" db:"locale"`
	Slug            string    `json:"slug" db:"slug"`
	Title           string    `json:"title" db:"title"`
	Excerpt         string    `json:"excerpt" db:"excerpt"`
	Body            string    `json:"body" db:"body"`
	MetaTitle       string    `json:"meta_title" db:"meta_title"`
	MetaDescription string    `json:"meta_description" db:"meta_description"`
	CoverImageURL   string    `json:"cover_image_url" db:"cover_image_url"`
	CardImageURL    string    `json:"card_image_url" db:"card_image_url"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultLocale is used when a payload carries no translation map
const DefaultLocale = "en"

// SupportedLocales defines the locales the site is published in
var SupportedLocales = map[string]bool{
	"en": true,
	"pl": true,
	"es": true,
	"de": true,
	"pt": true,
	"ru": true,
}

// ReconcileOperation tells whether a delivery created or updated an article
type ReconcileOperation string

const (
	OperationCreate ReconcileOperation = "create"
	OperationUpdate ReconcileOperation = "update"
)

// ReconcileResult is returned by the article reconciler
type ReconcileResult struct {
	ArticleID int64              `json:"articleId"`
	Operation ReconcileOperation `json:"operation"`
}
