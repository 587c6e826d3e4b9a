package mocks

import (
	"context"
	"io"
	"net/http"

	"github.com/content-ingest-api/internal/models"
	"github.com/content-ingest-api/internal/service"
	"github.com/content-ingest-api/internal/signature"
)

// MockWebhookService is a mock implementation of WebhookService
type MockWebhookService struct {
	HandleFunc func(ctx context.Context, req *models.WebhookRequest) *models.WebhookOutcome
	Requests   []*models.WebhookRequest
	Bodies     [][]byte
	Traces     map[string]*models.WebhookTrace
	Logs       []*models.WebhookLogEntry
	LastLimit  int
	Err        error
}

// Verify interface compliance
var _ service.WebhookService = (*MockWebhookService)(nil)

func NewMockWebhookService() *MockWebhookService {
	return &MockWebhookService{
		Traces: make(map[string]*models.WebhookTrace),
	}
}

func (m *MockWebhookService) HandleContentWebhook(ctx context.Context, req *models.WebhookRequest) *models.WebhookOutcome {
	body, err := io.ReadAll(req.Body)
	m.Requests = append(m.Requests, req)
	m.Bodies = append(m.Bodies, body)
	if m.HandleFunc != nil {
		return m.HandleFunc(ctx, req)
	}
	if err != nil {
		return &models.WebhookOutcome{
			StatusCode: http.StatusBadRequest,
			Body:       models.WebhookResponse{Error: err.Error(), Kind: string(service.KindRead), RequestID: "test-request"},
		}
	}
	return &models.WebhookOutcome{
		StatusCode: http.StatusOK,
		Body:       models.WebhookResponse{Success: true, ArticleID: 1, Operation: models.OperationCreate, RequestID: "test-request"},
	}
}

func (m *MockWebhookService) GetTrace(ctx context.Context, requestID string) (*models.WebhookTrace, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Traces[requestID], nil
}

func (m *MockWebhookService) ListLogs(ctx context.Context, limit int) ([]*models.WebhookLogEntry, error) {
	m.LastLimit = limit
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Logs, nil
}

// MockRedirectService is a mock implementation of RedirectService
type MockRedirectService struct {
	Resolutions map[string]*models.Resolution
	Redirects   []*models.Redirect
	Resolved    []string
	CreateErr   error
	Deleted     []int64
	Err         error
}

// Verify interface compliance
var _ service.RedirectService = (*MockRedirectService)(nil)

func NewMockRedirectService() *MockRedirectService {
	return &MockRedirectService{
		Resolutions: make(map[string]*models.Resolution),
	}
}

func (m *MockRedirectService) Resolve(ctx context.Context, path string) (*models.Resolution, error) {
	m.Resolved = append(m.Resolved, path)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Resolutions[path], nil
}

func (m *MockRedirectService) CreateRedirect(ctx context.Context, req *models.RedirectRequest) (*models.Redirect, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	redirect := &models.Redirect{
		ID:         int64(len(m.Redirects) + 1),
		SourcePath: req.SourcePath,
		TargetPath: req.TargetPath,
		StatusCode: req.StatusCode,
		IsActive:   req.IsActive == nil || *req.IsActive,
	}
	m.Redirects = append(m.Redirects, redirect)
	return redirect, nil
}

func (m *MockRedirectService) ListRedirects(ctx context.Context) ([]*models.Redirect, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Redirects, nil
}

func (m *MockRedirectService) DeleteRedirect(ctx context.Context, id int64) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	for i, r := range m.Redirects {
		if r.ID == id {
			m.Redirects = append(m.Redirects[:i], m.Redirects[i+1:]...)
			m.Deleted = append(m.Deleted, id)
			return true, nil
		}
	}
	return false, nil
}

func (m *MockRedirectService) SeedAliases(ctx context.Context, aliases []models.URLAlias) (*models.SeedResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &models.SeedResult{Total: len(aliases), Inserted: len(aliases)}, nil
}

// MockSettingsService is a mock implementation of SettingsService
type MockSettingsService struct {
	Secret    signature.Secret
	Rotations int
	Err       error
}

// Verify interface compliance
var _ service.SettingsService = (*MockSettingsService)(nil)

func NewMockSettingsService() *MockSettingsService {
	return &MockSettingsService{}
}

func (m *MockSettingsService) WebhookSecret(ctx context.Context) (signature.Secret, error) {
	return m.Secret, m.Err
}

func (m *MockSettingsService) RotateWebhookSecret(ctx context.Context) (signature.Secret, error) {
	if m.Err != nil {
		return signature.Secret{}, m.Err
	}
	m.Rotations++
	m.Secret = signature.Secret{Value: "rotated-secret", Version: m.Secret.Version + 1, Source: service.SecretSourceSettings}
	return m.Secret, nil
}

// MockArticleService is a mock implementation of ArticleService
type MockArticleService struct {
	Articles map[int64]*models.Article
	Counts   map[string]int
	Err      error
}

// Verify interface compliance
var _ service.ArticleService = (*MockArticleService)(nil)

func NewMockArticleService() *MockArticleService {
	return &MockArticleService{
		Articles: make(map[int64]*models.Article),
		Counts: map[string]int{
			service.ResourceArticles:    0,
			service.ResourceWebhookLogs: 0,
			service.ResourceRedirects:   0,
			service.ResourceAliases:     0,
		},
	}
}

func (m *MockArticleService) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Articles[id], nil
}

func (m *MockArticleService) GetCount(ctx context.Context, resource string) (int, error) {
	return m.Counts[resource], nil
}

// NewMockServices bundles mock services behind the service interfaces
func NewMockServices() (*service.Services, *MockWebhookService, *MockRedirectService, *MockSettingsService, *MockArticleService) {
	webhook := NewMockWebhookService()
	redirect := NewMockRedirectService()
	settings := NewMockSettingsService()
	article := NewMockArticleService()
	return &service.Services{
		Webhook:  webhook,
		Redirect: redirect,
		Settings: settings,
		Article:  article,
	}, webhook, redirect, settings, article
}
