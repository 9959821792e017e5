package model

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Camera is a map camera position as reported by a rendering surface
type Camera struct {
	Center orb.Point `json:"center"` // [lon, lat]
	Zoom   float64   `json:"zoom"`
}

// ViewportState is the viewer's authoritative copy of the camera
type ViewportState struct {
	Center orb.Point `json:"center"` // [lon, lat]
	Zoom   float64   `json:"zoom"`
}

// StateOf copies a camera into a viewport state
func StateOf(c Camera) ViewportState {
	return ViewportState{Center: c.Center, Zoom: c.Zoom}
}

// Camera returns the state as a camera target
func (v ViewportState) Camera() Camera {
	return Camera{Center: v.Center, Zoom: v.Zoom}
}

func (v ViewportState) Lon() float64 { return v.Center[0] }
func (v ViewportState) Lat() float64 { return v.Center[1] }

// Readout formats the state the way the viewer sidebar shows it
func (v ViewportState) Readout() string {
	return fmt.Sprintf("Longitude: %.4f | Latitude: %.4f | Zoom: %.2f", v.Lon(), v.Lat(), v.Zoom)
}

// ContainerDimensions is the content box of the element hosting the map
type ContainerDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsZero reports whether no size has been observed yet
func (d ContainerDimensions) IsZero() bool {
	return d.Width == 0 && d.Height == 0
}
