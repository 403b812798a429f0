package fileviewport

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/user/mapshot/pkg/mocks"
	"github.com/user/mapshot/pkg/ports"
)

func TestViewport_Surface(t *testing.T) {
	fs := mocks.NewFileSystem()
	png := mocks.SolidPNG(8, 8, color.White)
	fs.WriteFile("frames/left.png", png)

	vp := New("left", "frames/left.png", fs)
	if vp.Name() != "left" {
		t.Errorf("expected name left, got %s", vp.Name())
	}

	surface, err := vp.Surface(context.Background())
	if err != nil {
		t.Fatalf("Surface failed: %v", err)
	}
	data, err := surface.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if string(data) != string(png) {
		t.Error("expected snapshot to return file contents")
	}
}

func TestViewport_MissingFileIsUnavailable(t *testing.T) {
	vp := New("right", "frames/right.png", mocks.NewFileSystem())

	_, err := vp.Surface(context.Background())
	if !errors.Is(err, ports.ErrSurfaceUnavailable) {
		t.Errorf("expected ErrSurfaceUnavailable, got %v", err)
	}
}

func TestViewport_StatError(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.ExistsFunc = func(path string) (bool, error) {
		return false, errors.New("permission denied")
	}
	vp := New("left", "frames/left.png", fs)

	_, err := vp.Surface(context.Background())
	if err == nil || errors.Is(err, ports.ErrSurfaceUnavailable) {
		t.Errorf("expected stat error, got %v", err)
	}
}
