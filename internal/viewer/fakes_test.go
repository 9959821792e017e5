package viewer

import (
	"errors"
	"sync"

	"geoscatter/internal/model"

	"github.com/paulmach/orb/geojson"
)

type fakeSurface struct {
	mu        sync.Mutex
	opts      SurfaceOptions
	camera    model.Camera
	listeners map[int]func()
	removed   []func()
	next      int
	flights   []model.Camera
	resizes   []model.ContainerDimensions
	layers    []string
	layer     *geojson.FeatureCollection
	destroyed bool
}

func (f *fakeSurface) OnMove(fn func()) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.next
	f.next++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if l, ok := f.listeners[id]; ok {
			f.removed = append(f.removed, l)
			delete(f.listeners, id)
		}
	}
}

func (f *fakeSurface) Camera() model.Camera {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.camera
}

func (f *fakeSurface) FlyTo(target model.Camera) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flights = append(f.flights, target)
}

func (f *fakeSurface) Resize() {
	var dims model.ContainerDimensions
	if f.opts.Container != nil {
		dims = f.opts.Container.Size()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resizes = append(f.resizes, dims)
}

func (f *fakeSurface) AddPointLayer(source string, fc *geojson.FeatureCollection, _ PaintOptions) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.layers = append(f.layers, source)
	f.layer = fc
}

func (f *fakeSurface) Destroy() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = true
}

// move sets the camera and notifies current listeners, like a user gesture
func (f *fakeSurface) move(c model.Camera) {
	f.mu.Lock()
	f.camera = c
	listeners := make([]func(), 0, len(f.listeners))
	for _, l := range f.listeners {
		listeners = append(listeners, l)
	}
	f.mu.Unlock()

	for _, l := range listeners {
		l()
	}
}

// moveLate also notifies listeners that were already removed, like an event
// that was in flight while the viewer tore down
func (f *fakeSurface) moveLate(c model.Camera) {
	f.mu.Lock()
	removed := append([]func(){}, f.removed...)
	f.mu.Unlock()

	f.move(c)
	for _, l := range removed {
		l()
	}
}

// land finishes the last requested flight in a few frames
func (f *fakeSurface) land() {
	f.mu.Lock()
	target := f.flights[len(f.flights)-1]
	start := f.camera
	f.mu.Unlock()

	for i := 1; i <= 3; i++ {
		t := float64(i) / 3
		f.move(model.Camera{
			Center: [2]float64{
				start.Center[0] + (target.Center[0]-start.Center[0])*t,
				start.Center[1] + (target.Center[1]-start.Center[1])*t,
			},
			Zoom: start.Zoom + (target.Zoom-start.Zoom)*t,
		})
	}
	f.move(target)
}

func (f *fakeSurface) listenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

func (f *fakeSurface) snapshot() (flights []model.Camera, resizes []model.ContainerDimensions, layers []string, destroyed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Camera(nil), f.flights...),
		append([]model.ContainerDimensions(nil), f.resizes...),
		append([]string(nil), f.layers...),
		f.destroyed
}

// fakeFactory records the surface it creates
type fakeFactory struct {
	surface *fakeSurface
	err     error
}

func (ff *fakeFactory) create(opts SurfaceOptions) (Surface, error) {
	if ff.err != nil {
		return nil, ff.err
	}
	ff.surface = &fakeSurface{
		opts:      opts,
		camera:    model.Camera{Center: opts.Center, Zoom: opts.Zoom},
		listeners: make(map[int]func()),
	}
	return ff.surface, nil
}

var errSurface = errors.New("surface failed")

type fakeContainer struct {
	mu   sync.Mutex
	dims model.ContainerDimensions
}

func (c *fakeContainer) Size() model.ContainerDimensions {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dims
}

func (c *fakeContainer) set(w, h int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dims = model.ContainerDimensions{Width: w, Height: h}
}

// fakeObserver keeps its callback after Disconnect so tests can deliver late notifications
type fakeObserver struct {
	mu           sync.Mutex
	fn           func()
	observed     Container
	disconnected bool
}

func (o *fakeObserver) Observe(c Container, fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observed = c
	o.fn = fn
}

func (o *fakeObserver) Disconnect() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.disconnected = true
}

func (o *fakeObserver) fire() {
	o.mu.Lock()
	fn := o.fn
	o.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (o *fakeObserver) isDisconnected() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.disconnected
}
