// Package raster implements the per-surface image encoding stage.
package raster

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/user/mapshot/pkg/pipeline"
	"github.com/user/mapshot/pkg/ports"
)

// Stage encodes each resolved surface into its own raster artifact.
type Stage struct {
	renderer ports.Renderer
	logger   ports.Logger
}

// NewStage creates a new raster stage.
func NewStage(renderer ports.Renderer, logger ports.Logger) *Stage {
	return &Stage{
		renderer: renderer,
		logger:   logger.WithComponent("raster"),
	}
}

// Execute encodes every surface at its native resolution.
// Any failure discards all artifacts produced so far.
func (s *Stage) Execute(ctx context.Context, input pipeline.RasterInput) (pipeline.RasterResult, error) {
	result := pipeline.RasterResult{}

	if !input.Format.IsImage() {
		return result, fmt.Errorf("raster stage cannot produce %q", input.Format)
	}
	if len(input.Surfaces) == 0 {
		return result, fmt.Errorf("no surfaces to encode")
	}

	format := input.Format.ImageFormat()
	artifacts := make([]pipeline.Artifact, 0, len(input.Surfaces))

	for _, surface := range input.Surfaces {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		img := surface.Image
		if img == nil {
			return result, fmt.Errorf("surface %d has no image", surface.Index)
		}
		width, height := surface.Width(), surface.Height()
		s.logger.Debug("Encoding surface %d (%dx%d) as %s", surface.Index, width, height, format)

		if format == ports.FormatJPEG {
			img = Flatten(s.renderer, img, input.Background)
		}

		data, err := s.renderer.EncodeImage(img, format, input.Quality)
		if err != nil {
			return result, fmt.Errorf("encode surface %d: %w", surface.Index, err)
		}

		artifacts = append(artifacts, pipeline.Artifact{
			Index:     surface.Index,
			Extension: input.Format.Extension(),
			Data:      data,
			Width:     width,
			Height:    height,
		})
	}

	result.Artifacts = artifacts
	return result, nil
}

// Flatten composites img onto an opaque background so formats without an
// alpha channel do not turn transparent pixels black.
func Flatten(renderer ports.Renderer, img image.Image, bg color.Color) image.Image {
	if bg == nil {
		bg = color.White
	}
	b := img.Bounds()
	canvas := renderer.CreateCanvas(b.Dx(), b.Dy(), opaque(bg))
	canvas.DrawImage(img, 0, 0)
	return canvas.ToImage()
}

// opaque returns c composited over white, so the result has no alpha.
func opaque(c color.Color) color.Color {
	r, g, b, a := c.RGBA()
	if a == 0xffff {
		return c
	}
	// RGBA is alpha-premultiplied: over white each channel gains 0xffff-a.
	return color.RGBA64{
		R: uint16(r + 0xffff - a),
		G: uint16(g + 0xffff - a),
		B: uint16(b + 0xffff - a),
		A: 0xffff,
	}
}
