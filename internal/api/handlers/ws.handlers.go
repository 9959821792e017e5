package routes

import (
	"context"
	"errors"

	"geoscatter/internal/service/dataset"
	"geoscatter/internal/surface/remote"
	"geoscatter/internal/util"
	"geoscatter/internal/viewer"

	"github.com/gin-gonic/gin"
)

// SetupWebSocketHandlers registers the remote viewer endpoint
func SetupWebSocketHandlers(router *gin.RouterGroup, h *Handlers) {
	router.GET("/ws/viewer", h.ServeViewer)
}

// ServeViewer upgrades the connection and runs a viewer whose surface is the client map.
// ?dataset= is ingested as soon as the viewer exists.
func (h *Handlers) ServeViewer(c *gin.Context) {
	initial := c.Query("dataset")
	if initial != "" {
		if _, err := h.Datasets.Snapshot(initial); errors.Is(err, dataset.ErrUnknownDataset) {
			c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
	}

	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	id := util.ShortUUID()
	log := h.Log.With("viewer", id)
	session := remote.NewSession(conn, log)

	v, err := viewer.New(viewer.Deps{
		Container:  session,
		Observer:   session,
		NewSurface: session.Factory(),
	}, viewer.Options{
		ID:          id,
		Viewport:    h.Viewer.Viewport,
		Style:       h.Viewer.Style,
		AccessToken: h.Viewer.AccessToken,
		QueueSize:   h.Viewer.QueueSize,
		OnViewport:  session.SendViewport,
		Logger:      h.Log,
	})
	if err != nil {
		log.Warn("failed to start viewer", "error", err)
		return
	}
	h.Viewers.Add(v)
	defer v.Close(context.Background())

	// the session ends when the viewer is closed elsewhere or the server shuts down
	ctx, cancel := context.WithCancel(h.baseContext())
	defer cancel()
	go func() {
		select {
		case <-v.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	ingest := func(name string, fresh bool) {
		go func() {
			err := v.Ingest(context.Background(), name, h.Datasets.Loader(name, fresh))
			if err != nil && !errors.Is(err, viewer.ErrClosed) && !errors.Is(err, viewer.ErrSuperseded) {
				session.SendError(err)
			}
		}()
	}

	session.SetHandlers(remote.Handlers{
		OnReset: func() {
			if err := v.Reset(ctx); err != nil && !errors.Is(err, viewer.ErrClosed) {
				log.Warn("reset failed", "error", err)
			}
		},
		OnIngest: func(name string) { ingest(name, true) },
	})
	if initial != "" {
		ingest(initial, false)
	}

	log.Info("viewer connected", "dataset", initial)
	if err := session.Serve(ctx); err != nil {
		log.Warn("viewer connection ended", "error", err)
	}
	log.Info("viewer disconnected")
}

