// Package fileviewport provides a viewport backed by an image file on disk.
package fileviewport

import (
	"context"
	"fmt"

	"github.com/user/mapshot/pkg/ports"
)

// Viewport reads its surface from a saved frame. A missing file means the
// surface is not available yet.
type Viewport struct {
	name string
	path string
	fs   ports.FileSystem
}

// New creates a viewport that serves the image at path.
func New(name, path string, fs ports.FileSystem) *Viewport {
	return &Viewport{name: name, path: path, fs: fs}
}

// Name returns the viewport name.
func (v *Viewport) Name() string {
	return v.name
}

// Path returns the backing file path.
func (v *Viewport) Path() string {
	return v.path
}

// Surface returns the file surface, or ports.ErrSurfaceUnavailable if the file does not exist.
func (v *Viewport) Surface(ctx context.Context) (ports.Surface, error) {
	exists, err := v.fs.Exists(v.path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", v.path, err)
	}
	if !exists {
		return nil, ports.ErrSurfaceUnavailable
	}
	return &surface{path: v.path, fs: v.fs}, nil
}

var _ ports.Viewport = (*Viewport)(nil)

type surface struct {
	path string
	fs   ports.FileSystem
}

func (s *surface) Snapshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return data, nil
}
