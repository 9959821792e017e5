package viewer

import (
	"fmt"

	"geoscatter/internal/model"
)

// ViewportSynchronizer owns the viewport state of one viewer.
// Surface movement is echoed into the state and Reset flies the surface back
// to the initial viewport. It is not safe for concurrent use; the viewer
// drives it from its loop.
type ViewportSynchronizer struct {
	surface     Surface
	initial     model.Camera
	state       model.ViewportState
	unsubscribe func()
	watchers    map[int]func(model.ViewportState)
	nextWatcher int
	closed      bool
}

// NewViewportSynchronizer creates the surface at the initial viewport and
// starts echoing its movement
func NewViewportSynchronizer(newSurface SurfaceFactory, opts SurfaceOptions, cfg ViewportConfig) (*ViewportSynchronizer, error) {
	opts.Center = cfg.InitialCenter
	opts.Zoom = cfg.InitialZoom

	surface, err := newSurface(opts)
	if err != nil {
		return nil, fmt.Errorf("create surface: %w", err)
	}

	s := &ViewportSynchronizer{
		surface:  surface,
		initial:  cfg.Initial(),
		state:    model.StateOf(cfg.Initial()),
		watchers: make(map[int]func(model.ViewportState)),
	}
	s.unsubscribe = surface.OnMove(s.handleMove)

	return s, nil
}

// handleMove overwrites the state with the surface's current camera
func (s *ViewportSynchronizer) handleMove() {
	if s.closed {
		return
	}

	s.state = model.StateOf(s.surface.Camera())
	for _, fn := range s.watchers {
		fn(s.state)
	}
}

// State returns the current viewport
func (s *ViewportSynchronizer) State() model.ViewportState {
	return s.state
}

// Surface returns the surface the synchronizer created
func (s *ViewportSynchronizer) Surface() Surface {
	return s.surface
}

// Watch calls fn with every new state until the returned cancel is called
func (s *ViewportSynchronizer) Watch(fn func(model.ViewportState)) (cancel func()) {
	id := s.nextWatcher
	s.nextWatcher++
	s.watchers[id] = fn
	return func() { delete(s.watchers, id) }
}

// Reset asks the surface to fly to the initial viewport.
// The state follows through the normal move notifications.
func (s *ViewportSynchronizer) Reset() {
	if s.closed {
		return
	}
	s.surface.FlyTo(s.initial)
}

// Close unsubscribes from the surface and destroys it
func (s *ViewportSynchronizer) Close() {
	if s.closed {
		return
	}
	s.closed = true

	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	clear(s.watchers)
	s.surface.Destroy()
}
