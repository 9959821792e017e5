package remote

import (
	"geoscatter/internal/viewer"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Message types sent to the client
const (
	TypeCreate        = "create"
	TypeFlyTo         = "flyTo"
	TypeResize        = "resize"
	TypeAddPointLayer = "addPointLayer"
	TypeDestroy       = "destroy"
	TypeViewport      = "viewport"
	TypeError         = "error"
)

// Message types reported by the client
const (
	TypeMove   = "move"
	TypeReset  = "reset"
	TypeIngest = "ingest"
)

// Inbound is a message reported by the client map
type Inbound struct {
	Type    string    `json:"type"`
	Center  orb.Point `json:"center"`
	Zoom    float64   `json:"zoom"`
	Width   int       `json:"width"`
	Height  int       `json:"height"`
	Dataset string    `json:"dataset"`
}

type createMessage struct {
	Type        string    `json:"type"`
	Center      orb.Point `json:"center"`
	Zoom        float64   `json:"zoom"`
	Style       string    `json:"style,omitempty"`
	AccessToken string    `json:"accessToken,omitempty"`
}

type cameraMessage struct {
	Type    string    `json:"type"`
	Center  orb.Point `json:"center"`
	Zoom    float64   `json:"zoom"`
	Readout string    `json:"readout,omitempty"`
}

type resizeMessage struct {
	Type   string `json:"type"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type layerMessage struct {
	Type   string                     `json:"type"`
	Source string                     `json:"source"`
	Paint  viewer.PaintOptions        `json:"paint"`
	Data   *geojson.FeatureCollection `json:"data"`
}

type simpleMessage struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
}
