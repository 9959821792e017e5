package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"geoscatter/internal/model"
	"geoscatter/internal/util"

	"github.com/paulmach/orb/geojson"
)

const defaultQueueSize = 256

// LoadFunc produces a feature collection, typically by fetching and parsing a dataset
type LoadFunc func(ctx context.Context) (*geojson.FeatureCollection, error)

// Deps are the host capabilities a viewer is built on
type Deps struct {
	Container  Container
	Observer   ResizeObserver
	NewSurface SurfaceFactory
}

// Options configure a viewer
type Options struct {
	ID          string
	Viewport    ViewportConfig
	Style       string
	AccessToken string
	Paint       PaintOptions
	QueueSize   int

	// OnViewport is called on the viewer loop with every new viewport state
	OnViewport func(model.ViewportState)
	Logger     *slog.Logger
}

// Viewer is one interactive map session.
// Every field below loop is only touched from the loop goroutine.
type Viewer struct {
	id     string
	log    *slog.Logger
	paint  PaintOptions
	ctx    context.Context
	cancel context.CancelFunc
	loop   *Loop

	sync       *ViewportSynchronizer
	sizer      *SurfaceSizer
	collection *geojson.FeatureCollection
	source     string
	generation uint64
	closed     bool
}

// New creates the surface, starts echoing its camera and observing the container
func New(deps Deps, opts Options) (*Viewer, error) {
	if opts.ID == "" {
		opts.ID = util.ShortUUID()
	}
	if opts.Paint == (PaintOptions{}) {
		opts.Paint = DefaultPaint
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	v := &Viewer{
		id:    opts.ID,
		log:   logger.With("viewer", opts.ID),
		paint: opts.Paint,
	}
	v.ctx, v.cancel = context.WithCancel(context.Background())
	v.loop = NewLoop(opts.QueueSize, v.cycle, v.teardown)

	var buildErr error
	err := v.loop.Call(context.Background(), func() {
		newSurface := func(o SurfaceOptions) (Surface, error) {
			s, err := deps.NewSurface(o)
			if err != nil {
				return nil, err
			}
			return &loopSurface{Surface: s, loop: v.loop}, nil
		}

		v.sync, buildErr = NewViewportSynchronizer(newSurface, SurfaceOptions{
			Container:   deps.Container,
			Style:       opts.Style,
			AccessToken: opts.AccessToken,
		}, opts.Viewport)
		if buildErr != nil {
			return
		}
		if opts.OnViewport != nil {
			v.sync.Watch(opts.OnViewport)
		}

		v.sizer = NewSurfaceSizer(deps.Container, &loopObserver{ResizeObserver: deps.Observer, loop: v.loop}, v.sync.Surface())
	})
	if err == nil {
		err = buildErr
	}
	if err != nil {
		v.loop.Stop()
		v.cancel()
		return nil, fmt.Errorf("new viewer: %w", err)
	}

	v.log.Debug("viewer created", "center", opts.Viewport.InitialCenter, "zoom", opts.Viewport.InitialZoom)
	return v, nil
}

// cycle runs after every loop task
func (v *Viewer) cycle() {
	if v.closed || v.sizer == nil {
		return
	}
	v.sizer.Sync()
}

// do runs fn on the loop unless the viewer is closed
func (v *Viewer) do(ctx context.Context, fn func()) error {
	var closed bool
	err := v.loop.Call(ctx, func() {
		if v.closed {
			closed = true
			return
		}
		fn()
	})
	if err != nil {
		return err
	}
	if closed {
		return ErrClosed
	}
	return nil
}

// ID returns the viewer id
func (v *Viewer) ID() string {
	return v.id
}

// Done is closed when the viewer has been torn down
func (v *Viewer) Done() <-chan struct{} {
	return v.loop.Done()
}

// Viewport returns the current viewport state
func (v *Viewer) Viewport(ctx context.Context) (model.ViewportState, error) {
	var state model.ViewportState
	err := v.do(ctx, func() { state = v.sync.State() })
	return state, err
}

// Readout returns the formatted viewport
func (v *Viewer) Readout(ctx context.Context) (string, error) {
	state, err := v.Viewport(ctx)
	if err != nil {
		return "", err
	}
	return state.Readout(), nil
}

// Dimensions returns the last observed container size
func (v *Viewer) Dimensions(ctx context.Context) (model.ContainerDimensions, error) {
	var dims model.ContainerDimensions
	err := v.do(ctx, func() { dims = v.sizer.Dimensions() })
	return dims, err
}

// Reset flies the surface back to the initial viewport
func (v *Viewer) Reset(ctx context.Context) error {
	return v.do(ctx, func() { v.sync.Reset() })
}

// Collection returns the data layer currently shown and its source name.
// It is nil until the first ingestion succeeds.
func (v *Viewer) Collection(ctx context.Context) (*geojson.FeatureCollection, string, error) {
	var (
		fc     *geojson.FeatureCollection
		source string
	)
	err := v.do(ctx, func() {
		fc = v.collection
		source = v.source
	})
	return fc, source, err
}

// Ingest runs load and shows its result as the viewer's data layer.
// load runs outside the loop and is cancelled when the viewer closes. A
// result is applied only if no newer Ingest started in the meantime; otherwise
// ErrSuperseded is returned. A failed load leaves the current layer in place.
func (v *Viewer) Ingest(ctx context.Context, source string, load LoadFunc) error {
	var generation uint64
	if err := v.do(ctx, func() {
		v.generation++
		generation = v.generation
	}); err != nil {
		return err
	}

	loadCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(v.ctx, cancel)
	defer stop()

	fc, err := load(loadCtx)
	if err != nil {
		if v.ctx.Err() != nil {
			return ErrClosed
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		v.log.Warn("ingestion failed, keeping current data layer", "source", source, "error", err)
		return fmt.Errorf("ingest %s: %w", source, err)
	}

	var superseded bool
	err = v.do(ctx, func() {
		if generation != v.generation {
			superseded = true
			return
		}
		v.collection = fc
		v.source = source
		v.sync.Surface().AddPointLayer(source, fc, v.paint)
	})
	if err != nil {
		return err
	}
	if superseded {
		v.log.Debug("discarding superseded ingestion", "source", source)
		return ErrSuperseded
	}

	v.log.Info("data layer replaced", "source", source, "features", len(fc.Features))
	return nil
}

// Close stops observing the container, unsubscribes from the surface,
// destroys it and stops the loop. Events arriving afterwards are discarded.
// If ctx ends first Close returns its error; the teardown still runs once the
// loop finishes its current task.
func (v *Viewer) Close(ctx context.Context) error {
	v.cancel()

	err := v.loop.Call(ctx, v.teardown)
	v.loop.Stop()

	if err != nil && !errors.Is(err, ErrClosed) {
		v.log.Warn("viewer close did not finish in time, teardown deferred to loop exit", "error", err)
		return err
	}
	v.log.Debug("viewer closed")
	return nil
}

// teardown runs on the loop, from Close or when the loop exits
func (v *Viewer) teardown() {
	if v.closed {
		return
	}
	v.closed = true
	if v.sizer != nil {
		v.sizer.Close()
	}
	if v.sync != nil {
		v.sync.Close()
	}
	v.collection = nil
}

// loopSurface delivers a surface's move notifications on the viewer loop
type loopSurface struct {
	Surface
	loop *Loop
}

func (s *loopSurface) OnMove(fn func()) func() {
	return s.Surface.OnMove(func() { s.loop.Post(fn) })
}

// loopObserver delivers resize notifications on the viewer loop
type loopObserver struct {
	ResizeObserver
	loop *Loop
}

func (o *loopObserver) Observe(c Container, fn func()) {
	o.ResizeObserver.Observe(c, func() { o.loop.Post(fn) })
}
