// Package viewer keeps a map viewer's camera, container size and data layer
// in step with its rendering surface.
package viewer

import (
	"geoscatter/internal/model"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Surface is the map engine a viewer drives.
//
// Implementations deliver move notifications from their own goroutines and
// never from inside one of their own command methods.
type Surface interface {
	// OnMove registers fn for every camera change, including the frames of an
	// animated FlyTo. The returned function removes the registration.
	OnMove(fn func()) (unsubscribe func())
	Camera() model.Camera
	FlyTo(target model.Camera)
	// Resize makes the surface match its container. Calling it without a size
	// change must have no visible effect.
	Resize()
	AddPointLayer(source string, fc *geojson.FeatureCollection, paint PaintOptions)
	Destroy()
}

// SurfaceOptions are the create parameters of a surface
type SurfaceOptions struct {
	Container   Container
	Center      orb.Point
	Zoom        float64
	Style       string
	AccessToken string
}

// SurfaceFactory creates a surface
type SurfaceFactory func(opts SurfaceOptions) (Surface, error)

// Container is the element hosting a surface
type Container interface {
	Size() model.ContainerDimensions
}

// ResizeObserver reports size changes of a container
type ResizeObserver interface {
	Observe(c Container, fn func())
	Disconnect()
}

// PaintOptions style the circles of a point layer
type PaintOptions struct {
	LayerID      string  `json:"layer_id"`
	CircleColor  string  `json:"circle-color"`
	CircleRadius float64 `json:"circle-radius"`
}

// DefaultPaint is the scatterplot style
var DefaultPaint = PaintOptions{
	LayerID:      "data",
	CircleColor:  "#C9FFFF",
	CircleRadius: 3,
}

// ViewportConfig is the canonical viewport a viewer starts at and resets to
type ViewportConfig struct {
	InitialCenter orb.Point
	InitialZoom   float64
}

// Initial returns the canonical viewport as a camera target
func (c ViewportConfig) Initial() model.Camera {
	return model.Camera{Center: c.InitialCenter, Zoom: c.InitialZoom}
}
