package viewer

import "errors"

var (
	// ErrClosed is returned once a viewer has started tearing down
	ErrClosed = errors.New("viewer closed")

	// ErrSuperseded is returned when a newer ingestion replaced this one
	ErrSuperseded = errors.New("ingestion superseded by a newer one")
)
