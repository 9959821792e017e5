package viewer

import (
	"geoscatter/internal/model"
)

// SurfaceSizer propagates container size changes to the viewer and its surface
type SurfaceSizer struct {
	container  Container
	observer   ResizeObserver
	surface    Surface
	dimensions model.ContainerDimensions
	closed     bool
}

// NewSurfaceSizer starts observing container
func NewSurfaceSizer(container Container, observer ResizeObserver, surface Surface) *SurfaceSizer {
	s := &SurfaceSizer{
		container: container,
		observer:  observer,
		surface:   surface,
	}
	observer.Observe(container, s.handleResize)
	return s
}

// handleResize measures the container now, not when the observer was registered
func (s *SurfaceSizer) handleResize() {
	if s.closed {
		return
	}
	s.dimensions = s.container.Size()
	s.surface.Resize()
}

// Dimensions returns the last observed size, zero before the first observation
func (s *SurfaceSizer) Dimensions() model.ContainerDimensions {
	return s.dimensions
}

// Sync tells the surface to match its container.
// It is called every update cycle, so it never changes sizer state and relies
// on Surface.Resize being idempotent.
func (s *SurfaceSizer) Sync() {
	if s.closed {
		return
	}
	s.surface.Resize()
}

// Close stops observing the container
func (s *SurfaceSizer) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.observer.Disconnect()
}
