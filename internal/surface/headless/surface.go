// Package headless is a map surface without a screen. It keeps a camera,
// animates fly-to along the great circle and records layers and resizes.
package headless

import (
	"math"
	"sync"
	"time"

	"geoscatter/internal/model"
	"geoscatter/internal/util"
	"geoscatter/internal/viewer"

	"github.com/paulmach/orb/geojson"
)

const (
	MinZoom = 0
	MaxZoom = 22
)

// Options control fly-to animation
type Options struct {
	Frames        int           // Move notifications per flight
	FrameInterval time.Duration // Delay between frames, zero runs flights as fast as possible
}

// DefaultOptions animate a flight over roughly half a second
var DefaultOptions = Options{Frames: 30, FrameInterval: 16 * time.Millisecond}

// Layer is a point layer added to the surface
type Layer struct {
	Collection *geojson.FeatureCollection
	Paint      viewer.PaintOptions
}

// Surface implements viewer.Surface
type Surface struct {
	mu        sync.Mutex
	cfg       Options
	container viewer.Container
	style     string
	camera    model.Camera
	listeners map[int]func()
	next      int
	layers    map[string]Layer
	size      model.ContainerDimensions
	resizes   int
	stop      chan struct{}
	flying    sync.WaitGroup
	destroyed bool
}

// Factory returns a viewer.SurfaceFactory creating headless surfaces
func Factory(cfg Options) viewer.SurfaceFactory {
	return func(opts viewer.SurfaceOptions) (viewer.Surface, error) {
		return New(opts, cfg), nil
	}
}

// New creates a surface at the requested camera
func New(opts viewer.SurfaceOptions, cfg Options) *Surface {
	if cfg.Frames < 1 {
		cfg.Frames = 1
	}
	return &Surface{
		cfg:       cfg,
		container: opts.Container,
		style:     opts.Style,
		camera:    clampCamera(model.Camera{Center: opts.Center, Zoom: opts.Zoom}),
		listeners: make(map[int]func()),
		layers:    make(map[string]Layer),
	}
}

func clampCamera(c model.Camera) model.Camera {
	zoom := c.Zoom
	if math.IsNaN(zoom) {
		zoom = MinZoom
	}
	return model.Camera{
		Center: util.NormalizePoint(c.Center),
		Zoom:   math.Max(MinZoom, math.Min(MaxZoom, zoom)),
	}
}

func (s *Surface) OnMove(fn func()) func() {
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

func (s *Surface) Camera() model.Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera
}

// FlyTo animates toward target on its own goroutine. A running flight is abandoned.
func (s *Surface) FlyTo(target model.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}
	if s.stop != nil {
		close(s.stop)
	}
	stop := make(chan struct{})
	s.stop = stop

	s.flying.Add(1)
	go s.fly(stop, s.camera, clampCamera(target))
}

func (s *Surface) fly(stop <-chan struct{}, start, target model.Camera) {
	defer s.flying.Done()

	var tick <-chan time.Time
	if s.cfg.FrameInterval > 0 {
		ticker := time.NewTicker(s.cfg.FrameInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for i := 1; i <= s.cfg.Frames; i++ {
		if tick != nil {
			select {
			case <-stop:
				return
			case <-tick:
			}
		}

		t := float64(i) / float64(s.cfg.Frames)
		frame := model.Camera{
			Center: util.Interpolate(start.Center, target.Center, t),
			Zoom:   start.Zoom + (target.Zoom-start.Zoom)*t,
		}
		if !s.moveTo(frame, stop) {
			return
		}
	}
}

// moveTo sets the camera and notifies listeners. It returns false once stop is closed.
func (s *Surface) moveTo(c model.Camera, stop <-chan struct{}) bool {
	s.mu.Lock()
	if stop != nil {
		select {
		case <-stop:
			s.mu.Unlock()
			return false
		default:
		}
	}
	if s.destroyed {
		s.mu.Unlock()
		return false
	}

	s.camera = c
	listeners := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return true
}

// Pan jumps the camera like a user gesture and notifies listeners on the calling goroutine
func (s *Surface) Pan(c model.Camera) {
	s.moveTo(clampCamera(c), nil)
}

// Wait blocks until no flight is running
func (s *Surface) Wait() {
	s.flying.Wait()
}

// Resize reads the container size. Without a change it does nothing.
func (s *Surface) Resize() {
	var size model.ContainerDimensions
	if s.container != nil {
		size = s.container.Size()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed || (s.resizes > 0 && size == s.size) {
		return
	}
	s.size = size
	s.resizes++
}

// Size returns the size applied by the last effective Resize and how many there were
func (s *Surface) Size() (model.ContainerDimensions, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size, s.resizes
}

func (s *Surface) AddPointLayer(source string, fc *geojson.FeatureCollection, paint viewer.PaintOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.layers[source] = Layer{Collection: fc, Paint: paint}
}

// Layer returns the layer added for source
func (s *Surface) Layer(source string) (Layer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.layers[source]
	return l, ok
}

// Destroy abandons any flight and drops listeners and layers.
// It does not wait for the flight goroutine, which may be delivering a frame.
func (s *Surface) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}
	s.destroyed = true
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	clear(s.listeners)
	clear(s.layers)
}

// Destroyed reports whether Destroy was called
func (s *Surface) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}
