package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/content-ingest-api/internal/config"
	"github.com/content-ingest-api/internal/models"
	"github.com/content-ingest-api/internal/repository"
	"github.com/rs/zerolog"
)

// ErrRedirectExists is returned when a redirect with the same source already exists
var ErrRedirectExists = errors.New("redirect for source path already exists")

// redirectService is the concrete implementation of RedirectService
type redirectService struct {
	redirects    repository.RedirectRepository
	aliases      repository.AliasRepository
	legacyPrefix string
	log          zerolog.Logger
}

// newRedirectService creates a new RedirectService
func newRedirectService(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *redirectService {
	return &redirectService{
		redirects:    repos.Redirect,
		aliases:      repos.Alias,
		legacyPrefix: cfg.Redirect.LegacyPrefix,
		log:          log.With().Str("service", "redirect").Logger(),
	}
}

// NormalizePath decodes percent-encoding, forces a leading slash and
// strips one trailing slash (root stays "/").
func NormalizePath(raw string) string {
	p := strings.TrimSpace(raw)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if decoded, err := url.PathUnescape(p); err == nil {
		p = decoded
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = p[:len(p)-1]
	}
	return p
}

// aliasCandidates returns the normalized path and its legacy prefix variant
func (s *redirectService) aliasCandidates(path string) []string {
	candidates := []string{path}
	if s.legacyPrefix == "" {
		return candidates
	}

	lower := strings.ToLower(path)
	prefix := strings.ToLower(s.legacyPrefix)
	switch {
	case lower == prefix:
		candidates = append(candidates, "/")
	case strings.HasPrefix(lower, prefix+"/"):
		candidates = append(candidates, path[len(prefix):])
	case path == "/":
		candidates = append(candidates, s.legacyPrefix)
	default:
		candidates = append(candidates, s.legacyPrefix+path)
	}
	return candidates
}

// Resolve looks a path up in active redirects, then in legacy aliases.
// A nil resolution with nil error means no match.
func (s *redirectService) Resolve(ctx context.Context, rawPath string) (*models.Resolution, error) {
	path := NormalizePath(rawPath)

	redirect, err := s.redirects.FindActiveBySource(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("redirect lookup failed: %w", err)
	}
	if redirect != nil {
		s.log.Debug().Str("path", path).Str("target", redirect.TargetPath).Int("code", redirect.StatusCode).Msg("Redirect matched")
		return &models.Resolution{Target: redirect.TargetPath, Code: redirect.StatusCode, Source: models.SourceRedirect}, nil
	}

	for _, candidate := range s.aliasCandidates(path) {
		alias, err := s.aliases.FindByPath(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("alias lookup failed: %w", err)
		}
		if alias != nil {
			s.log.Debug().Str("path", path).Str("candidate", candidate).Str("target", alias.ToPath).Msg("Alias matched")
			return &models.Resolution{Target: alias.ToPath, Code: http.StatusMovedPermanently, Source: models.SourceAlias}, nil
		}
	}

	return nil, nil
}

// CreateRedirect stores a new redirect with a normalized source path
func (s *redirectService) CreateRedirect(ctx context.Context, req *models.RedirectRequest) (*models.Redirect, error) {
	if !models.ValidRedirectCodes[req.StatusCode] {
		return nil, fmt.Errorf("invalid status code %d", req.StatusCode)
	}

	now := time.Now()
	redirect := &models.Redirect{
		SourcePath: NormalizePath(req.SourcePath),
		TargetPath: req.TargetPath,
		StatusCode: req.StatusCode,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.IsActive != nil {
		redirect.IsActive = *req.IsActive
	}

	if err := s.redirects.Create(ctx, redirect); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrRedirectExists
		}
		return nil, err
	}

	s.log.Info().
		Int64("redirect_id", redirect.ID).
		Str("source", redirect.SourcePath).
		Str("target", redirect.TargetPath).
		Int("code", redirect.StatusCode).
		Msg("Redirect created")
	return redirect, nil
}

// ListRedirects returns all redirects
func (s *redirectService) ListRedirects(ctx context.Context) ([]*models.Redirect, error) {
	return s.redirects.List(ctx)
}

// DeleteRedirect removes a redirect, reporting whether it existed
func (s *redirectService) DeleteRedirect(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.redirects.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.log.Info().Int64("redirect_id", id).Msg("Redirect deleted")
	}
	return deleted, nil
}

// SeedAliases inserts legacy aliases that are not stored yet
func (s *redirectService) SeedAliases(ctx context.Context, aliases []models.URLAlias) (*models.SeedResult, error) {
	result := &models.SeedResult{Total: len(aliases)}

	for i := range aliases {
		alias := aliases[i]
		if strings.TrimSpace(alias.FromPath) == "" || strings.TrimSpace(alias.ToPath) == "" {
			result.Invalid++
			s.log.Warn().Int("index", i).Msg("Skipping alias with empty from or to")
			continue
		}
		alias.FromPath = NormalizePath(alias.FromPath)
		if alias.HTTPCode == 0 {
			alias.HTTPCode = http.StatusMovedPermanently
		}

		inserted, err := s.aliases.InsertIfAbsent(ctx, &alias)
		if err != nil {
			return result, fmt.Errorf("failed to seed alias %q: %w", alias.FromPath, err)
		}
		if inserted {
			result.Inserted++
		} else {
			result.Skipped++
		}
	}

	s.log.Info().
		Int("total", result.Total).
		Int("inserted", result.Inserted).
		Int("skipped", result.Skipped).
		Int("invalid", result.Invalid).
		Msg("Alias seeding finished")
	return result, nil
}
