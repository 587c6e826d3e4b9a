package api

import (
	"crypto/subtle"
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/content-ingest-api/internal/models"
	"github.com/content-ingest-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const apiKeyHeader = "X-API-Key"

// adminAuthMiddleware checks the static admin credential.
// With no key configured every admin request is refused.
func adminAuthMiddleware(apiKey string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(apiKeyHeader)
		if apiKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			log.Warn().Str("path", c.Request.URL.Path).Str("client_ip", c.ClientIP()).Msg("Rejected admin request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// AdminHandler handles admin endpoints
type AdminHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(services *service.Services, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		services: services,
		log:      log.With().Str("handler", "admin").Logger(),
	}
}

// RotateWebhookSecret handles POST /api/admin/webhook-secret/rotate
// The new secret is returned once and never again.
func (h *AdminHandler) RotateWebhookSecret(c *gin.Context) {
	secret, err := h.services.Settings.RotateWebhookSecret(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to rotate webhook secret")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rotate webhook secret"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"secret":  secret.Value,
		"version": secret.Version,
	})
}

// ListWebhookLogs handles GET /api/admin/webhooks/logs?limit=...
func (h *AdminHandler) ListWebhookLogs(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	logs, err := h.services.Webhook.ListLogs(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list webhook logs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list webhook logs"})
		return
	}
	if logs == nil {
		logs = []*models.WebhookLogEntry{}
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// GetWebhookTrace handles GET /api/admin/webhooks/logs/:request_id?format=json|csv
func (h *AdminHandler) GetWebhookTrace(c *gin.Context) {
	requestID := c.Param("request_id")

	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be one of: json, csv"})
		return
	}

	trace, err := h.services.Webhook.GetTrace(c.Request.Context(), requestID)
	if err != nil {
		h.log.Error().Err(err).Str("request_id", requestID).Msg("Failed to get webhook trace")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get webhook trace"})
		return
	}
	if trace == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Webhook log not found"})
		return
	}

	if format == "json" {
		c.JSON(http.StatusOK, trace)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=trace-"+requestID+".csv")
	c.Status(http.StatusOK)

	if err := writeTraceCSV(c.Writer, trace.Trace); err != nil {
		h.log.Error().Err(err).Str("request_id", requestID).Msg("Failed to write trace CSV")
	}
}

// writeTraceCSV writes the header and one row per entry, then flushes
func writeTraceCSV(w io.Writer, entries []*models.EventLogEntry) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"id", "created_at", "level", "category", "message", "metadata"}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := writer.Write([]string{
			strconv.FormatInt(e.ID, 10),
			e.CreatedAt.Format(time.RFC3339Nano),
			string(e.Level),
			e.Category,
			e.Message,
			string(e.Metadata),
		}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ListRedirects handles GET /api/admin/redirects
func (h *AdminHandler) ListRedirects(c *gin.Context) {
	redirects, err := h.services.Redirect.ListRedirects(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list redirects")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list redirects"})
		return
	}
	if redirects == nil {
		redirects = []*models.Redirect{}
	}

	c.JSON(http.StatusOK, gin.H{"redirects": redirects})
}

// CreateRedirect handles POST /api/admin/redirects
func (h *AdminHandler) CreateRedirect(c *gin.Context) {
	var req models.RedirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid redirect", "details": err.Error()})
		return
	}

	redirect, err := h.services.Redirect.CreateRedirect(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrRedirectExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.log.Error().Err(err).Msg("Failed to create redirect")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create redirect"})
		return
	}

	c.JSON(http.StatusCreated, redirect)
}

// DeleteRedirect handles DELETE /api/admin/redirects/:id
func (h *AdminHandler) DeleteRedirect(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}

	deleted, err := h.services.Redirect.DeleteRedirect(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("redirect_id", id).Msg("Failed to delete redirect")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete redirect"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Redirect not found"})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetArticle handles GET /api/admin/articles/:id
func (h *AdminHandler) GetArticle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}

	article, err := h.services.Article.GetArticle(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("article_id", id).Msg("Failed to get article")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get article"})
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	c.JSON(http.StatusOK, article)
}
