package routes

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"geoscatter/internal/service/dataset"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cast"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

// SetupDatasetHandlers registers the dataset endpoints
func SetupDatasetHandlers(router *gin.RouterGroup, h *Handlers) {
	group := router.Group("/datasets")

	group.GET("", h.ListDatasets)
	group.GET("/:name/geojson", h.GetGeoJSON)
	group.POST("/:name/ingest", h.IngestDataset)
	group.GET("/:name/features", h.FeaturesWithin)
	group.GET("/:name/runs", h.ListRuns)
}

type datasetSummary struct {
	Name     string     `json:"name"`
	Loaded   bool       `json:"loaded"`
	Features int        `json:"features"`
	Dropped  int        `json:"dropped"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
}

// ListDatasets returns every configured dataset and whether it is loaded
func (h *Handlers) ListDatasets(c *gin.Context) {
	names := h.Datasets.Names()
	out := make([]datasetSummary, 0, len(names))
	for _, name := range names {
		summary := datasetSummary{Name: name}
		if snap, err := h.Datasets.Snapshot(name); err == nil {
			summary.Loaded = true
			summary.Features = len(snap.Collection.Features)
			summary.Dropped = snap.Stats.Dropped
			summary.LoadedAt = &snap.LoadedAt
		}
		out = append(out, summary)
	}
	c.JSON(http.StatusOK, out)
}

// GetGeoJSON returns the latest collection, loading the dataset if needed
func (h *Handlers) GetGeoJSON(c *gin.Context) {
	fc, err := h.Datasets.Ensure(c.Request.Context(), c.Param("name"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, fc)
}

// IngestDataset re-ingests a dataset now, bypassing the source cache
func (h *Handlers) IngestDataset(c *gin.Context) {
	name := c.Param("name")
	fc, err := h.Datasets.Refresh(c.Request.Context(), name)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"dataset":  name,
		"features": len(fc.Features),
	})
}

// FeaturesWithin returns the features inside ?bbox=minLon,minLat,maxLon,maxLat
func (h *Handlers) FeaturesWithin(c *gin.Context) {
	bound, err := parseBBox(c.Query("bbox"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	features, err := h.Datasets.Within(c.Param("name"), bound)
	if err != nil {
		abortWithError(c, err)
		return
	}

	fc := geojson.NewFeatureCollection()
	fc.Features = features
	c.JSON(http.StatusOK, fc)
}

func parseBBox(raw string) (orb.Bound, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("bbox must be minLon,minLat,maxLon,maxLat, got %q", raw)
	}

	var v [4]float64
	for i, p := range parts {
		f, err := cast.ToFloat64E(strings.TrimSpace(p))
		if err != nil {
			return orb.Bound{}, fmt.Errorf("bbox value %q: %w", p, dataset.ErrInvalidBound)
		}
		v[i] = f
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}

// ListRuns returns the latest ingest runs, ?limit= bounded
func (h *Handlers) ListRuns(c *gin.Context) {
	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := cast.ToIntE(raw)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.Datasets.Runs(c.Request.Context(), c.Param("name"), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}
