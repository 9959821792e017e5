package routes

import (
	"net/http"

	"geoscatter/internal/metrics"

	"github.com/gin-gonic/gin"
)

// SetupMainHandlers registers service info, health and metrics endpoints
func SetupMainHandlers(router *gin.RouterGroup, h *Handlers) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":              "geoscatter",
			"datasets":          h.Datasets.Names(),
			"style":             h.Viewer.Style,
			"access_configured": h.Viewer.AccessToken != "",
		})
	})

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"viewers": h.Viewers.Count(),
		})
	})

	router.GET("/metrics", metrics.Handler())
}
