package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/content-ingest-api/internal/config"
	"github.com/content-ingest-api/internal/models"
	"github.com/content-ingest-api/internal/repository"
	"github.com/content-ingest-api/internal/signature"
	"github.com/rs/zerolog"
)

const secretBytes = 32

// Secret sources
const (
	SecretSourceSettings = "settings"
	SecretSourceEnv      = "env"
)

// settingsService is the concrete implementation of SettingsService
type settingsService struct {
	repo      repository.SettingsRepository
	envSecret string
	log       zerolog.Logger
}

// newSettingsService creates a new SettingsService
func newSettingsService(repo repository.SettingsRepository, cfg *config.Config, log zerolog.Logger) *settingsService {
	return &settingsService{
		repo:      repo,
		envSecret: cfg.Webhook.Secret,
		log:       log.With().Str("service", "settings").Logger(),
	}
}

// WebhookSecret resolves the current secret: settings table first, then environment.
// An unconfigured secret is returned without error; callers must check Configured.
func (s *settingsService) WebhookSecret(ctx context.Context) (signature.Secret, error) {
	setting, err := s.repo.Get(ctx, models.SettingWebhookSecret)
	if err != nil {
		return signature.Secret{}, fmt.Errorf("failed to load webhook secret: %w", err)
	}
	if setting != nil && setting.Value != "" {
		return signature.Secret{Value: setting.Value, Version: setting.Version, Source: SecretSourceSettings}, nil
	}
	return signature.Secret{Value: s.envSecret, Source: SecretSourceEnv}, nil
}

// RotateWebhookSecret replaces the stored secret with a fresh random one.
// The previous secret stops verifying as soon as the write commits.
func (s *settingsService) RotateWebhookSecret(ctx context.Context) (signature.Secret, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return signature.Secret{}, fmt.Errorf("failed to generate secret: %w", err)
	}

	setting, err := s.repo.Put(ctx, models.SettingWebhookSecret, hex.EncodeToString(buf))
	if err != nil {
		return signature.Secret{}, fmt.Errorf("failed to store webhook secret: %w", err)
	}

	s.log.Info().Int("version", setting.Version).Msg("Webhook secret rotated")
	return signature.Secret{Value: setting.Value, Version: setting.Version, Source: SecretSourceSettings}, nil
}
