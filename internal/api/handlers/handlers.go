package routes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"geoscatter/internal/service/dataset"
	"geoscatter/internal/service/storage"
	"geoscatter/internal/viewer"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ViewerSettings are applied to every viewer opened over the websocket
type ViewerSettings struct {
	Viewport    viewer.ViewportConfig
	Style       string
	AccessToken string
	QueueSize   int
}

// Handlers holds what the endpoints work on
type Handlers struct {
	Datasets *dataset.Service
	Viewers  *storage.Registry
	Viewer   ViewerSettings
	Upgrader websocket.Upgrader
	Log      *slog.Logger

	// Context is cancelled on shutdown and ends websocket sessions
	Context context.Context
}

func (h *Handlers) baseContext() context.Context {
	if h.Context == nil {
		return context.Background()
	}
	return h.Context
}

// statusClientClosedRequest is reported when the caller went away mid-request
const statusClientClosedRequest = 499

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, dataset.ErrUnknownDataset), errors.Is(err, dataset.ErrNotLoaded):
		return http.StatusNotFound
	case errors.Is(err, dataset.ErrInvalidBound):
		return http.StatusBadRequest
	case errors.Is(err, viewer.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, viewer.ErrClosed):
		return http.StatusGone
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

// OriginChecker builds a websocket origin check. Requests without an Origin
// header are not from a browser and pass. With an allow list the origin must be
// on it ("*" allows any). Without one, permissive allows any origin and
// otherwise the origin host must match the request host.
func OriginChecker(allowed []string, permissive bool) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if len(allowed) == 0 {
			if permissive {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && strings.EqualFold(u.Host, r.Host)
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}
