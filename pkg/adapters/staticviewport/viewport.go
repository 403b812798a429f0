// Package staticviewport provides a map viewport rendered with go-staticmaps.
package staticviewport

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"

	sm "github.com/flopp/go-staticmaps"
	"github.com/golang/geo/s2"

	"github.com/user/mapshot/pkg/ports"
)

// DefaultProvider is the tile provider used when none is configured.
const DefaultProvider = "opentopomap"

// Options describes the map view.
type Options struct {
	Lat      float64
	Lon      float64
	Zoom     int
	Width    int
	Height   int
	Provider string // go-staticmaps provider name (e.g. "osm", "opentopomap")
}

// DefaultOptions returns a 1280x800 view of the given point at zoom 12.
func DefaultOptions(lat, lon float64) Options {
	return Options{
		Lat:      lat,
		Lon:      lon,
		Zoom:     12,
		Width:    1280,
		Height:   800,
		Provider: DefaultProvider,
	}
}

// ParseSpec parses "lat,lon[,zoom]" into Options with default size.
func ParseSpec(spec string) (Options, error) {
	parts := strings.Split(spec, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return Options{}, fmt.Errorf("invalid map spec %q (want lat,lon[,zoom])", spec)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return Options{}, fmt.Errorf("invalid latitude in %q", spec)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lon < -180 || lon > 180 {
		return Options{}, fmt.Errorf("invalid longitude in %q", spec)
	}
	opts := DefaultOptions(lat, lon)
	if len(parts) == 3 {
		zoom, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil || zoom < 0 || zoom > 20 {
			return Options{}, fmt.Errorf("invalid zoom in %q", spec)
		}
		opts.Zoom = zoom
	}
	return opts, nil
}

// Viewport renders a static map view on demand.
type Viewport struct {
	name     string
	opts     Options
	renderer ports.Renderer
	render   func(opts Options) (image.Image, error)
}

// New creates a static map viewport. Snapshots are PNG-encoded with renderer.
func New(name string, opts Options, renderer ports.Renderer) *Viewport {
	return &Viewport{
		name:     name,
		opts:     opts,
		renderer: renderer,
		render:   renderMap,
	}
}

// Name returns the viewport name.
func (v *Viewport) Name() string {
	return v.name
}

// Options returns the view options.
func (v *Viewport) Options() Options {
	return v.opts
}

// Surface returns the map surface. A view without a drawable area is unavailable.
func (v *Viewport) Surface(ctx context.Context) (ports.Surface, error) {
	if v.opts.Width <= 0 || v.opts.Height <= 0 {
		return nil, ports.ErrSurfaceUnavailable
	}
	return &surface{viewport: v}, nil
}

var _ ports.Viewport = (*Viewport)(nil)

type surface struct {
	viewport *Viewport
}

func (s *surface) Snapshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := s.viewport.render(s.viewport.opts)
	if err != nil {
		return nil, fmt.Errorf("render map: %w", err)
	}
	return s.viewport.renderer.EncodeImage(img, ports.FormatPNG, 0)
}

func renderMap(opts Options) (image.Image, error) {
	ctx := sm.NewContext()
	ctx.SetSize(opts.Width, opts.Height)
	ctx.SetCenter(s2.LatLngFromDegrees(opts.Lat, opts.Lon))
	ctx.SetZoom(opts.Zoom)
	ctx.SetTileProvider(tileProvider(opts.Provider))
	return ctx.Render()
}

func tileProvider(name string) *sm.TileProvider {
	if name == "" {
		name = DefaultProvider
	}
	if provider, ok := sm.GetTileProviders()[name]; ok {
		return provider
	}
	return sm.NewTileProviderOpenStreetMaps()
}
