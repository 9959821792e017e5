// Package remote drives a map that runs in a websocket client.
// A Session is the viewer's surface, container and resize observer at once.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"geoscatter/internal/model"
	"geoscatter/internal/util"
	"geoscatter/internal/viewer"

	"github.com/gorilla/websocket"
	"github.com/paulmach/orb/geojson"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Handlers receive client actions that are not camera or size reports.
// They are called on the read goroutine.
type Handlers struct {
	OnReset  func()
	OnIngest func(dataset string)
}

// Session is one connected client map
type Session struct {
	conn *websocket.Conn
	log  *slog.Logger

	writeMu sync.Mutex

	mu        sync.Mutex
	handlers  Handlers
	camera    model.Camera
	size      model.ContainerDimensions
	sent      *model.ContainerDimensions
	listeners map[int]func()
	next      int
	resizeFn  func()
	destroyed bool
}

var (
	_ viewer.Surface        = (*Session)(nil)
	_ viewer.Container      = (*Session)(nil)
	_ viewer.ResizeObserver = (*Session)(nil)
)

// NewSession wraps an upgraded connection
func NewSession(conn *websocket.Conn, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	conn.SetReadLimit(maxMessageSize)
	return &Session{
		conn:      conn,
		log:       logger,
		listeners: make(map[int]func()),
	}
}

// SetHandlers installs the client action handlers
func (s *Session) SetHandlers(h Handlers) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = h
}

// Factory creates the client map. The session can host one surface.
func (s *Session) Factory() viewer.SurfaceFactory {
	return func(opts viewer.SurfaceOptions) (viewer.Surface, error) {
		if opts.AccessToken == "" {
			s.log.Warn("map access token missing, client map will render without tiles")
		}
		camera := normalize(model.Camera{Center: opts.Center, Zoom: opts.Zoom})

		s.mu.Lock()
		s.camera = camera
		s.mu.Unlock()

		err := s.send(createMessage{
			Type:        TypeCreate,
			Center:      camera.Center,
			Zoom:        camera.Zoom,
			Style:       opts.Style,
			AccessToken: opts.AccessToken,
		})
		if err != nil {
			return nil, fmt.Errorf("create client map: %w", err)
		}
		return s, nil
	}
}

func normalize(c model.Camera) model.Camera {
	zoom := c.Zoom
	if math.IsNaN(zoom) || math.IsInf(zoom, 0) || zoom < 0 {
		zoom = 0
	}
	return model.Camera{Center: util.NormalizePoint(c.Center), Zoom: zoom}
}

func (s *Session) send(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(v)
}

// sendOrLog is used by surface commands, which have no error return
func (s *Session) sendOrLog(v any) {
	if err := s.send(v); err != nil {
		s.log.Warn("failed to send map command", "error", err)
	}
}

func (s *Session) OnMove(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) Camera() model.Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera
}

func (s *Session) FlyTo(target model.Camera) {
	target = normalize(target)
	s.sendOrLog(cameraMessage{Type: TypeFlyTo, Center: target.Center, Zoom: target.Zoom})
}

// Resize sends the container size unless it was already sent
func (s *Session) Resize() {
	s.mu.Lock()
	if s.destroyed || (s.sent != nil && *s.sent == s.size) {
		s.mu.Unlock()
		return
	}
	size := s.size
	s.sent = &size
	s.mu.Unlock()

	s.sendOrLog(resizeMessage{Type: TypeResize, Width: size.Width, Height: size.Height})
}

func (s *Session) AddPointLayer(source string, fc *geojson.FeatureCollection, paint viewer.PaintOptions) {
	s.sendOrLog(layerMessage{Type: TypeAddPointLayer, Source: source, Paint: paint, Data: fc})
}

func (s *Session) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	clear(s.listeners)
	s.mu.Unlock()

	s.sendOrLog(simpleMessage{Type: TypeDestroy})
}

// Size returns the last size the client reported
func (s *Session) Size() model.ContainerDimensions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *Session) Observe(_ viewer.Container, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resizeFn = fn
}

func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resizeFn = nil
}

// SendViewport pushes the viewport state and its readout to the client
func (s *Session) SendViewport(state model.ViewportState) {
	s.sendOrLog(cameraMessage{
		Type:    TypeViewport,
		Center:  state.Center,
		Zoom:    state.Zoom,
		Readout: state.Readout(),
	})
}

// SendError reports a failed client action
func (s *Session) SendError(err error) {
	s.sendOrLog(simpleMessage{Type: TypeError, Error: err.Error()})
}

// Serve reads client reports until the connection closes or ctx is done
func (s *Session) Serve(ctx context.Context) error {
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go s.keepAlive(ctx, done)

	for {
		var msg Inbound
		if err := s.conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return nil
			}
			return fmt.Errorf("read client message: %w", err)
		}
		s.dispatch(msg)
	}
}

func (s *Session) keepAlive(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			s.writeMu.Lock()
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			s.writeMu.Unlock()
			s.conn.Close()
			return
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (s *Session) dispatch(msg Inbound) {
	switch msg.Type {
	case TypeMove:
		s.mu.Lock()
		if s.destroyed {
			s.mu.Unlock()
			return
		}
		s.camera = normalize(model.Camera{Center: msg.Center, Zoom: msg.Zoom})
		listeners := make([]func(), 0, len(s.listeners))
		for _, fn := range s.listeners {
			listeners = append(listeners, fn)
		}
		s.mu.Unlock()

		for _, fn := range listeners {
			fn()
		}

	case TypeResize:
		s.mu.Lock()
		s.size = model.ContainerDimensions{Width: max(msg.Width, 0), Height: max(msg.Height, 0)}
		fn := s.resizeFn
		s.mu.Unlock()

		if fn != nil {
			fn()
		}

	case TypeReset:
		if h := s.handler().OnReset; h != nil {
			h()
		}

	case TypeIngest:
		if h := s.handler().OnIngest; h != nil {
			h(msg.Dataset)
		}

	default:
		s.log.Warn("unknown client message", "type", msg.Type)
	}
}

func (s *Session) handler() Handlers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handlers
}
