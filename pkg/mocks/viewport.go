package mocks

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/user/mapshot/pkg/ports"
)

// Viewport is a mock implementation of ports.Viewport.
// A nil Data with no SurfaceFunc behaves like an uninitialized surface.
type Viewport struct {
	ViewportName string
	Data         []byte
	SurfaceErr   error
	SnapshotErr  error

	SurfaceFunc func(ctx context.Context) (ports.Surface, error)

	mu           sync.Mutex
	surfaceCalls int
}

// NewPNGViewport creates a viewport whose surface is a solid PNG of the given size.
func NewPNGViewport(name string, width, height int) *Viewport {
	return &Viewport{ViewportName: name, Data: SolidPNG(width, height, color.RGBA{R: 40, G: 120, B: 80, A: 255})}
}

// NewUnavailableViewport creates a viewport whose surface is not initialized.
func NewUnavailableViewport(name string) *Viewport {
	return &Viewport{ViewportName: name, SurfaceErr: ports.ErrSurfaceUnavailable}
}

func (m *Viewport) Name() string {
	return m.ViewportName
}

func (m *Viewport) Surface(ctx context.Context) (ports.Surface, error) {
	m.mu.Lock()
	m.surfaceCalls++
	m.mu.Unlock()

	if m.SurfaceFunc != nil {
		return m.SurfaceFunc(ctx)
	}
	if m.SurfaceErr != nil {
		return nil, m.SurfaceErr
	}
	if m.Data == nil {
		return nil, ports.ErrSurfaceUnavailable
	}
	return &Surface{Data: m.Data, Err: m.SnapshotErr}, nil
}

// SurfaceCalls returns how many times Surface was called.
func (m *Viewport) SurfaceCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.surfaceCalls
}

var _ ports.Viewport = (*Viewport)(nil)

// StableViewport is a mock viewport that also implements ports.Stabilizer.
type StableViewport struct {
	*Viewport

	WaitStableFunc  func(ctx context.Context) error
	WaitStableCalls int
}

func (m *StableViewport) WaitStable(ctx context.Context) error {
	m.WaitStableCalls++
	if m.WaitStableFunc != nil {
		return m.WaitStableFunc(ctx)
	}
	return nil
}

var _ ports.Stabilizer = (*StableViewport)(nil)

// Surface is a mock implementation of ports.Surface.
type Surface struct {
	Data []byte
	Err  error
}

func (m *Surface) Snapshot(ctx context.Context) ([]byte, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Data, nil
}

var _ ports.Surface = (*Surface)(nil)

// SolidPNG returns a PNG-encoded image filled with c.
func SolidPNG(width, height int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
