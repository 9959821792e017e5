package api

import (
	"log/slog"
	"time"

	routes "geoscatter/internal/api/handlers"
	"geoscatter/internal/metrics"

	"github.com/gin-gonic/gin"
)

// SetupRouter initializes all application routes
func SetupRouter(r *gin.Engine, h *routes.Handlers) {
	if h.Log == nil {
		h.Log = slog.Default()
	}

	r.Use(metrics.Middleware(), requestLogger(h.Log))

	// Setup main handlers
	routes.SetupMainHandlers(r.Group(""), h)
	routes.SetupWebSocketHandlers(r.Group(""), h)

	// API group
	api := r.Group("/api")
	routes.SetupDatasetHandlers(api, h)
	routes.SetupViewerHandlers(api, h)
}

// NewEngine returns a gin engine with recovery and the application routes
func NewEngine(h *routes.Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	SetupRouter(r, h)
	return r
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.FullPath() == "/metrics" || c.FullPath() == "/healthz" {
			return
		}
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
