package models

import (
	"time"
)

// ValidRedirectCodes defines the HTTP codes a redirect may use
var ValidRedirectCodes = map[int]bool{
	301: true,
	302: true,
	307: true,
	308: true,
}

// Redirect is an admin-curated, case-sensitive path redirect
type Redirect struct {
	ID         int64     `json:"id" db:"id"`
	SourcePath string    `json:"source_path" db:"source_path"`
	TargetPath string    `json:"target_path" db:"target_path"`
	StatusCode int       `json:"status_code" db:"status_code"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// URLAlias maps a legacy path to its current location, matched case-insensitively
type URLAlias struct {
	ID       int64  `json:"id" db:"id"`
	FromPath string `json:"from_path" db:"from_path" yaml:"from"`
	ToPath   string `json:"to_path" db:"to_path" yaml:"to"`
	HTTPCode int    `json:"http_code" db:"http_code" yaml:"code"`
}

// RedirectRequest is the admin input for a new redirect
type RedirectRequest struct {
	SourcePath string `json:"source_path" binding:"required,startswith=/"`
	TargetPath string `json:"target_path" binding:"required,startswith=/"`
	StatusCode int    `json:"status_code" binding:"required,oneof=301 302 307 308"`
	IsActive   *bool  `json:"is_active"`
}

// ResolutionSource tells which table produced a resolution
type ResolutionSource string

const (
	SourceRedirect ResolutionSource = "redirect"
	SourceAlias    ResolutionSource = "alias"
)

// Resolution is a positive answer from the redirect resolver
type Resolution struct {
	Target string           `json:"target"`
	Code   int              `json:"code"`
	Source ResolutionSource `json:"source"`
}

// SeedResult summarizes one alias seeding run
type SeedResult struct {
	Total    int `json:"total"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Invalid  int `json:"invalid"`
}
