package api

import (
	"net/http"
	"time"

	"github.com/content-ingest-api/internal/config"
	"github.com/content-ingest-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	webhookHandler := NewWebhookHandler(services, cfg, log)
	redirectHandler := NewRedirectHandler(services, log)
	adminHandler := NewAdminHandler(services, log)

	// Health check
	router.GET("/health", healthCheck)
	router.GET("/metrics", metricsHandler(services))

	api := router.Group("/api")
	{
		api.POST("/webhooks/content", webhookHandler.ReceiveContent)
		api.GET("/redirects/lookup", redirectHandler.Lookup)

		admin := api.Group("/admin", adminAuthMiddleware(cfg.Admin.APIKey, log))
		{
			admin.POST("/webhook-secret/rotate", adminHandler.RotateWebhookSecret)

			admin.GET("/webhooks/logs", adminHandler.ListWebhookLogs)
			admin.GET("/webhooks/logs/:request_id", adminHandler.GetWebhookTrace)

			admin.GET("/redirects", adminHandler.ListRedirects)
			admin.POST("/redirects", adminHandler.CreateRedirect)
			admin.DELETE("/redirects/:id", adminHandler.DeleteRedirect)

			admin.GET("/articles/:id", adminHandler.GetArticle)
		}
	}

	// Unmatched paths fall through to the redirect/alias resolver
	router.NoRoute(redirectHandler.CatchAll)

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "content-ingest-api",
	})
}

// metricsHandler returns row counts for the ingest tables
func metricsHandler(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		articlesCount, _ := services.Article.GetCount(ctx, service.ResourceArticles)
		webhookLogsCount, _ := services.Article.GetCount(ctx, service.ResourceWebhookLogs)
		redirectsCount, _ := services.Article.GetCount(ctx, service.ResourceRedirects)
		aliasesCount, _ := services.Article.GetCount(ctx, service.ResourceAliases)

		c.JSON(http.StatusOK, gin.H{
			"database": gin.H{
				"articles":     articlesCount,
				"webhook_logs": webhookLogsCount,
				"redirects":    redirectsCount,
				"aliases":      aliasesCount,
			},
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, "+signatureHeader+", "+timestampHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
