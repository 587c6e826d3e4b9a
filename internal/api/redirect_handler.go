package api

import (
	"net/http"

	"github.com/content-ingest-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const notFoundPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Page not found</title></head>
<body><h1>404</h1><p>The page you are looking for does not exist.</p></body>
</html>
`

// RedirectHandler handles redirect resolution endpoints
type RedirectHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewRedirectHandler creates a new RedirectHandler
func NewRedirectHandler(services *service.Services, log zerolog.Logger) *RedirectHandler {
	return &RedirectHandler{
		services: services,
		log:      log.With().Str("handler", "redirect").Logger(),
	}
}

// Lookup handles GET /api/redirects/lookup?path=...
func (h *RedirectHandler) Lookup(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path parameter is required"})
		return
	}

	res, err := h.services.Redirect.Resolve(c.Request.Context(), path)
	if err != nil {
		h.log.Error().Err(err).Str("path", path).Msg("Redirect lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve path"})
		return
	}
	if res == nil {
		c.JSON(http.StatusNotFound, gin.H{"found": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"target": res.Target,
		"code":   res.Code,
		"source": res.Source,
	})
}

// CatchAll resolves paths no route matched.
// GET and HEAD are redirected when the resolver finds a match, everything else is a 404.
func (h *RedirectHandler) CatchAll(c *gin.Context) {
	method := c.Request.Method
	if method != http.MethodGet && method != http.MethodHead {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	path := c.Request.URL.EscapedPath()
	res, err := h.services.Redirect.Resolve(c.Request.Context(), path)
	if err != nil {
		h.log.Error().Err(err).Str("path", path).Msg("Catch-all resolution failed")
	}
	if res != nil {
		c.Redirect(res.Code, res.Target)
		return
	}

	c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte(notFoundPage))
}
