package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/content-ingest-api/internal/api"
	"github.com/content-ingest-api/internal/config"
	"github.com/content-ingest-api/internal/mocks"
	"github.com/content-ingest-api/internal/models"
	"github.com/content-ingest-api/internal/service"
	"github.com/content-ingest-api/internal/signature"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const testAPIKey = "admin-key"

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: "8080"},
		Webhook:  config.WebhookConfig{Secret: "s3cr3t", Provider: "contentgen", MaxBodySize: 1024},
		Redirect: config.RedirectConfig{LegacyPrefix: "/en"},
		Admin:    config.AdminConfig{APIKey: testAPIKey},
	}
}

type testMocks struct {
	webhook  *mocks.MockWebhookService
	redirect *mocks.MockRedirectService
	settings *mocks.MockSettingsService
	article  *mocks.MockArticleService
}

func setupTestRouter() (*gin.Engine, *testMocks) {
	gin.SetMode(gin.TestMode)

	services, webhook, redirect, settings, article := mocks.NewMockServices()
	router := api.NewRouter(services, testConfig(), zerolog.Nop())

	return router, &testMocks{webhook: webhook, redirect: redirect, settings: settings, article: article}
}

func adminRequest(method, url string, body []byte) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("X-API-Key", testAPIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := setupTestRouter()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "content-ingest-api" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, m := setupTestRouter()
	m.article.Counts[service.ResourceArticles] = 12
	m.article.Counts[service.ResourceAliases] = 340

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	db := response["database"].(map[string]interface{})
	if db["articles"].(float64) != 12 {
		t.Errorf("Expected 12 articles, got %v", db["articles"])
	}
	if db["aliases"].(float64) != 340 {
		t.Errorf("Expected 340 aliases, got %v", db["aliases"])
	}
}

func TestWebhookEndpoint_PassesHeadersAndRawBody(t *testing.T) {
	router, m := setupTestRouter()
	body := `{"status":"error","error_message":"x"}`

	req := httptest.NewRequest("POST", "/api/webhooks/content", strings.NewReader(body))
	req.Header.Set("x-contentgen-signature", "abc123")
	req.Header.Set("x-contentgen-timestamp", "1700000000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if len(m.webhook.Requests) != 1 {
		t.Fatalf("Expected 1 webhook call, got %d", len(m.webhook.Requests))
	}
	got := m.webhook.Requests[0]
	if got.Signature != "abc123" || got.Timestamp != "1700000000" {
		t.Errorf("Headers not forwarded: %+v", got)
	}
	if string(m.webhook.Bodies[0]) != body {
		t.Errorf("Body altered: %s", m.webhook.Bodies[0])
	}
}

func TestWebhookEndpoint_BodyTooLarge(t *testing.T) {
	router, _ := setupTestRouter()

	req := httptest.NewRequest("POST", "/api/webhooks/content", strings.NewReader(strings.Repeat("a", 2048)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(string(service.KindRead))) {
		t.Errorf("Expected ReadError body, got %s", w.Body.String())
	}
}

func TestWebhookEndpoint_EndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := mocks.NewMockStore()
	cfg := testConfig()
	router := api.NewRouter(service.NewServices(store.Repositories(), cfg, zerolog.Nop()), cfg, zerolog.Nop())

	body := []byte(`{"status":"error","error_message":"x"}`)
	good := signature.Sign("s3cr3t", "1700000000", body)

	send := func(sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/webhooks/content", bytes.NewReader(body))
		req.Header.Set("X-Contentgen-Signature", sig)
		req.Header.Set("X-Contentgen-Timestamp", "1700000000")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := send(good)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for valid signature, got %d: %s", w.Code, w.Body.String())
	}
	var resp models.WebhookResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Success || resp.Message != "Error report logged" || resp.RequestID == "" {
		t.Errorf("Unexpected response: %+v", resp)
	}

	for i := 0; i < len(good)*8; i++ {
		mutated := []byte(good)
		mutated[i/8] ^= 1 << (i % 8)
		if w := send(string(mutated)); w.Code != http.StatusUnauthorized {
			t.Fatalf("Bit %d flip: expected 401, got %d", i, w.Code)
		}
	}

	traceReq := adminRequest("GET", "/api/admin/webhooks/logs/"+resp.RequestID, nil)
	tw := httptest.NewRecorder()
	router.ServeHTTP(tw, traceReq)
	if tw.Code != http.StatusOK {
		t.Fatalf("Expected trace 200, got %d", tw.Code)
	}
	var trace models.WebhookTrace
	json.Unmarshal(tw.Body.Bytes(), &trace)
	if trace.Log == nil || trace.Log.StatusCode != http.StatusOK || len(trace.Trace) == 0 {
		t.Errorf("Unexpected trace: %+v", trace)
	}
}

func TestWebhookEndpoint_SuccessDelivery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := mocks.NewMockStore()
	cfg := testConfig()
	router := api.NewRouter(service.NewServices(store.Repositories(), cfg, zerolog.Nop()), cfg, zerolog.Nop())

	body := []byte(`{"status":"success","article":{"title":"T","slug":"s","content":"c",
		"translations":{"pl":{"language":"pl","content":"<p>pl</p>"}}}}`)

	send := func() (*httptest.ResponseRecorder, models.WebhookResponse) {
		req := httptest.NewRequest("POST", "/api/webhooks/content", bytes.NewReader(body))
		req.Header.Set("X-Contentgen-Signature", signature.Sign("s3cr3t", "1700000000", body))
		req.Header.Set("X-Contentgen-Timestamp", "1700000000")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		var resp models.WebhookResponse
		json.Unmarshal(w.Body.Bytes(), &resp)
		return w, resp
	}

	w, first := send()
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !first.Success || first.ArticleID == 0 || first.Operation != models.OperationCreate {
		t.Errorf("Unexpected first response: %+v", first)
	}

	w, second := send()
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 on redelivery, got %d: %s", w.Code, w.Body.String())
	}
	if second.Operation != models.OperationUpdate || second.ArticleID != first.ArticleID {
		t.Errorf("Expected update of article %d, got %+v", first.ArticleID, second)
	}
	if len(store.Article.Articles) != 1 {
		t.Errorf("Expected 1 article, got %d", len(store.Article.Articles))
	}
	if got := len(store.Article.TranslationsFor(first.ArticleID)); got != 1 {
		t.Errorf("Expected 1 translation, got %d", got)
	}

	for _, requestID := range []string{first.RequestID, second.RequestID} {
		tw := httptest.NewRecorder()
		router.ServeHTTP(tw, adminRequest("GET", "/api/admin/webhooks/logs/"+requestID, nil))
		if tw.Code != http.StatusOK {
			t.Fatalf("Expected trace 200, got %d", tw.Code)
		}
		var trace models.WebhookTrace
		json.Unmarshal(tw.Body.Bytes(), &trace)
		if trace.Log == nil || trace.Log.StatusCode != http.StatusOK || trace.Log.CompletedAt == nil {
			t.Errorf("Expected completed log entry, got %+v", trace.Log)
		}
	}
	if store.WebhookLog.CompleteCalls != 2 {
		t.Errorf("Expected one completion per delivery, got %d", store.WebhookLog.CompleteCalls)
	}
}

func TestRedirectLookup(t *testing.T) {
	router, m := setupTestRouter()
	m.redirect.Resolutions["/old"] = &models.Resolution{Target: "/new", Code: 301, Source: models.SourceRedirect}

	tests := []struct {
		name           string
		url            string
		expectedStatus int
		expectedBody   string
	}{
		{"found", "/api/redirects/lookup?path=%2Fold", http.StatusOK, `"target":"/new"`},
		{"not found", "/api/redirects/lookup?path=%2Fmissing", http.StatusNotFound, `"found":false`},
		{"missing path", "/api/redirects/lookup", http.StatusBadRequest, "path parameter is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.url, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if !bytes.Contains(w.Body.Bytes(), []byte(tt.expectedBody)) {
				t.Errorf("Expected %s in response, got: %s", tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestRedirectLookup_Error(t *testing.T) {
	router, m := setupTestRouter()
	m.redirect.Err = errors.New("db down")

	req := httptest.NewRequest("GET", "/api/redirects/lookup?path=/x", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestCatchAll(t *testing.T) {
	router, m := setupTestRouter()
	m.redirect.Resolutions["/portfolio/item"] = &models.Resolution{Target: "/en/work/item", Code: 301, Source: models.SourceAlias}
	m.redirect.Resolutions["/temp"] = &models.Resolution{Target: "/elsewhere", Code: 307, Source: models.SourceRedirect}

	tests := []struct {
		name           string
		method         string
		url            string
		expectedStatus int
		expectedLoc    string
	}{
		{"alias redirect", "GET", "/portfolio/item", http.StatusMovedPermanently, "/en/work/item"},
		{"head follows resolver", "HEAD", "/temp", http.StatusTemporaryRedirect, "/elsewhere"},
		{"miss renders 404 page", "GET", "/nowhere", http.StatusNotFound, ""},
		{"post is never redirected", "POST", "/temp", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.url, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if got := w.Header().Get("Location"); got != tt.expectedLoc {
				t.Errorf("Expected Location %q, got %q", tt.expectedLoc, got)
			}
		})
	}
}

func TestCatchAll_ResolverErrorRendersNotFound(t *testing.T) {
	router, m := setupTestRouter()
	m.redirect.Err = errors.New("db down")

	req := httptest.NewRequest("GET", "/anything", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Expected HTML 404 page, got %s", w.Header().Get("Content-Type"))
	}
}

func TestAdminAuth(t *testing.T) {
	router, _ := setupTestRouter()

	tests := []struct {
		name           string
		key            string
		expectedStatus int
	}{
		{"missing key", "", http.StatusUnauthorized},
		{"wrong key", "admin-kez", http.StatusUnauthorized},
		{"valid key", testAPIKey, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/admin/redirects", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestAdminAuth_NoKeyConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	services, _, _, _, _ := mocks.NewMockServices()
	cfg := testConfig()
	cfg.Admin.APIKey = ""
	router := api.NewRouter(services, cfg, zerolog.Nop())

	req := httptest.NewRequest("GET", "/api/admin/redirects", nil)
	req.Header.Set("X-API-Key", "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestRotateWebhookSecret(t *testing.T) {
	router, m := setupTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, adminRequest("POST", "/api/admin/webhook-secret/rotate", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if m.settings.Rotations != 1 {
		t.Errorf("Expected 1 rotation, got %d", m.settings.Rotations)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response["secret"] != "rotated-secret" || response["version"].(float64) != 1 {
		t.Errorf("Unexpected response: %v", response)
	}
}

func TestListWebhookLogs(t *testing.T) {
	router, m := setupTestRouter()
	m.webhook.Logs = []*models.WebhookLogEntry{{ID: "log-1", RequestID: "req-1", StatusCode: 200}}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, adminRequest("GET", "/api/admin/webhooks/logs?limit=10", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if m.webhook.LastLimit != 10 {
		t.Errorf("Expected limit 10 forwarded, got %d", m.webhook.LastLimit)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"request_id":"req-1"`)) {
		t.Errorf("Expected log in response, got %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, adminRequest("GET", "/api/admin/webhooks/logs?limit=abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad limit, got %d", w.Code)
	}
}

func TestGetWebhookTrace(t *testing.T) {
	router, m := setupTestRouter()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.webhook.Traces["req-1"] = &models.WebhookTrace{
		Log: &models.WebhookLogEntry{ID: "log-1", RequestID: "req-1", StatusCode: 401},
		Trace: []*models.EventLogEntry{
			{ID: 1, Category: "webhook", Level: models.LevelInfo, Message: "Webhook received", RequestID: "req-1", CreatedAt: now},
			{ID: 2, Category: "webhook", Level: models.LevelError, Message: "Invalid signature", RequestID: "req-1", Metadata: json.RawMessage(`{"status_code":401}`), CreatedAt: now},
		},
	}

	t.Run("json", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, adminRequest("GET", "/api/admin/webhooks/logs/req-1", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var trace models.WebhookTrace
		json.Unmarshal(w.Body.Bytes(), &trace)
		if len(trace.Trace) != 2 || trace.Log.StatusCode != 401 {
			t.Errorf("Unexpected trace: %+v", trace)
		}
	})

	t.Run("csv", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, adminRequest("GET", "/api/admin/webhooks/logs/req-1?format=csv", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
			t.Errorf("Expected text/csv, got %s", ct)
		}
		if !bytes.Contains(w.Body.Bytes(), []byte("id,created_at,level,category,message,metadata")) {
			t.Error("CSV should contain header row")
		}
		if !bytes.Contains(w.Body.Bytes(), []byte("Invalid signature")) {
			t.Errorf("CSV should contain trace rows, got: %s", w.Body.String())
		}
	})

	t.Run("not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, adminRequest("GET", "/api/admin/webhooks/logs/missing", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})

	t.Run("bad format", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, adminRequest("GET", "/api/admin/webhooks/logs/req-1?format=xml", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

func TestCreateRedirect(t *testing.T) {
	router, m := setupTestRouter()

	tests := []struct {
		name           string
		body           string
		createErr      error
		expectedStatus int
	}{
		{"valid", `{"source_path":"/old","target_path":"/new","status_code":308}`, nil, http.StatusCreated},
		{"relative source", `{"source_path":"old","target_path":"/new","status_code":301}`, nil, http.StatusBadRequest},
		{"bad code", `{"source_path":"/old","target_path":"/new","status_code":303}`, nil, http.StatusBadRequest},
		{"missing target", `{"source_path":"/old","status_code":301}`, nil, http.StatusBadRequest},
		{"duplicate", `{"source_path":"/old","target_path":"/new","status_code":301}`, service.ErrRedirectExists, http.StatusConflict},
		{"store failure", `{"source_path":"/old","target_path":"/new","status_code":301}`, errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.redirect.CreateErr = tt.createErr
			w := httptest.NewRecorder()
			router.ServeHTTP(w, adminRequest("POST", "/api/admin/redirects", []byte(tt.body)))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestListAndDeleteRedirects(t *testing.T) {
	router, m := setupTestRouter()
	m.redirect.Redirects = []*models.Redirect{{ID: 1, SourcePath: "/a", TargetPath: "/b", StatusCode: 301, IsActive: true}}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, adminRequest("GET", "/api/admin/redirects", nil))
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"source_path":"/a"`)) {
		t.Errorf("Unexpected list response %d: %s", w.Code, w.Body.String())
	}

	tests := []struct {
		name           string
		url            string
		expectedStatus int
	}{
		{"delete existing", "/api/admin/redirects/1", http.StatusNoContent},
		{"delete again", "/api/admin/redirects/1", http.StatusNotFound},
		{"bad id", "/api/admin/redirects/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, adminRequest("DELETE", tt.url, nil))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestGetArticle(t *testing.T) {
	router, m := setupTestRouter()
	m.article.Articles[7] = &models.Article{
		ID:     7,
		Status: models.ArticleStatusPublished,
		Translations: []*models.ArticleTranslation{
			{ID: 1, ArticleID: 7, Locale: "en", Slug: "hello", Title: "Hello"},
		},
	}

	tests := []struct {
		name           string
		url            string
		expectedStatus int
	}{
		{"found", "/api/admin/articles/7", http.StatusOK},
		{"not found", "/api/admin/articles/8", http.StatusNotFound},
		{"bad id", "/api/admin/articles/x", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, adminRequest("GET", tt.url, nil))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	router, _ := setupTestRouter()

	req := httptest.NewRequest("OPTIONS", "/api/webhooks/content", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "X-Contentgen-Signature") {
		t.Errorf("Expected signature header allowed, got %s", w.Header().Get("Access-Control-Allow-Headers"))
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	router, m := setupTestRouter()
	m.webhook.HandleFunc = func(ctx context.Context, req *models.WebhookRequest) *models.WebhookOutcome {
		panic("boom")
	}

	req := httptest.NewRequest("POST", "/api/webhooks/content", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}
