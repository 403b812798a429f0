// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"errors"
)

// ErrSurfaceUnavailable is returned by a Viewport whose drawable surface
// has not been initialized yet, or has already been torn down.
var ErrSurfaceUnavailable = errors.New("surface unavailable")

// Viewport abstracts a live, rendered map view owned by the surrounding UI.
// The exporter never creates or destroys viewports, it only reads them.
type Viewport interface {
	// Name identifies the viewport in logs and notifications (e.g., "left").
	Name() string

	// Surface resolves the current drawable surface.
	// Returns ErrSurfaceUnavailable if the viewport has nothing to draw yet.
	Surface(ctx context.Context) (Surface, error)
}

// Surface is the drawable pixel buffer backing a viewport at a point in time.
type Surface interface {
	// Snapshot returns the current pixels encoded as a standard raster
	// byte stream (PNG or JPEG).
	Snapshot(ctx context.Context) ([]byte, error)
}

// Stabilizer is implemented by viewports that can signal when an in-flight
// redraw has completed.
type Stabilizer interface {
	// WaitStable blocks until the viewport has no pending redraw.
	WaitStable(ctx context.Context) error
}
