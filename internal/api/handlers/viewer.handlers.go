package routes

import (
	"net/http"

	"geoscatter/internal/model"
	"geoscatter/internal/viewer"

	"github.com/gin-gonic/gin"
)

// SetupViewerHandlers registers the viewer session endpoints
func SetupViewerHandlers(router *gin.RouterGroup, h *Handlers) {
	group := router.Group("/viewers")

	group.GET("", h.ListViewers)
	group.GET("/:id", h.GetViewer)
	group.POST("/:id/reset", h.ResetViewer)
	group.POST("/:id/ingest", h.IngestIntoViewer)
	group.DELETE("/:id", h.CloseViewer)
}

type viewerState struct {
	ID         string                    `json:"id"`
	Viewport   model.ViewportState       `json:"viewport"`
	Readout    string                    `json:"readout"`
	Dimensions model.ContainerDimensions `json:"dimensions"`
	Dataset    string                    `json:"dataset,omitempty"`
	Features   int                       `json:"features"`
}

func (h *Handlers) lookupViewer(c *gin.Context) (*viewer.Viewer, bool) {
	v, ok := h.Viewers.Get(c.Param("id"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "viewer not found"})
	}
	return v, ok
}

// ListViewers returns the ids of live viewers
func (h *Handlers) ListViewers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"viewers": h.Viewers.IDs()})
}

// GetViewer returns a viewer's viewport, readout and container size
func (h *Handlers) GetViewer(c *gin.Context) {
	v, ok := h.lookupViewer(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	state, err := v.Viewport(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}
	dims, err := v.Dimensions(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}
	fc, source, err := v.Collection(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := viewerState{
		ID:         v.ID(),
		Viewport:   state,
		Readout:    state.Readout(),
		Dimensions: dims,
		Dataset:    source,
	}
	if fc != nil {
		out.Features = len(fc.Features)
	}
	c.JSON(http.StatusOK, out)
}

// ResetViewer flies a viewer back to the initial viewport
func (h *Handlers) ResetViewer(c *gin.Context) {
	v, ok := h.lookupViewer(c)
	if !ok {
		return
	}
	if err := v.Reset(c.Request.Context()); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "resetting"})
}

// IngestIntoViewer replaces a viewer's data layer with ?dataset=
func (h *Handlers) IngestIntoViewer(c *gin.Context) {
	v, ok := h.lookupViewer(c)
	if !ok {
		return
	}
	name := c.Query("dataset")
	if name == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "dataset is required"})
		return
	}
	if err := v.Ingest(c.Request.Context(), name, h.Datasets.Loader(name, c.Query("fresh") == "true")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "dataset": name})
}

// CloseViewer tears a viewer down
func (h *Handlers) CloseViewer(c *gin.Context) {
	v, ok := h.lookupViewer(c)
	if !ok {
		return
	}
	if err := v.Close(c.Request.Context()); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
