package api

import (
	"net/http"

	"github.com/content-ingest-api/internal/config"
	"github.com/content-ingest-api/internal/models"
	"github.com/content-ingest-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Headers carrying the content webhook signature
const (
	signatureHeader = "X-Contentgen-Signature"
	timestampHeader = "X-Contentgen-Timestamp"
)

// WebhookHandler handles inbound webhook endpoints
type WebhookHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "webhook").Logger(),
	}
}

// ReceiveContent handles POST /api/webhooks/content
// The raw body is handed to the pipeline unparsed so the signature covers the exact bytes.
func (h *WebhookHandler) ReceiveContent(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.Webhook.MaxBodySize)

	outcome := h.services.Webhook.HandleContentWebhook(c.Request.Context(), &models.WebhookRequest{
		Method:    c.Request.Method,
		URL:       c.Request.URL.String(),
		Signature: c.GetHeader(signatureHeader),
		Timestamp: c.GetHeader(timestampHeader),
		Body:      body,
	})

	h.log.Info().
		Str("request_id", outcome.Body.RequestID).
		Int("status", outcome.StatusCode).
		Str("kind", outcome.Body.Kind).
		Msg("Content webhook handled")

	c.JSON(outcome.StatusCode, outcome.Body)
}
