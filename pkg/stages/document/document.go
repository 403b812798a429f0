// Package document implements the multi-page document assembly stage.
package document

import (
	"context"
	"fmt"
	"math"

	"github.com/user/mapshot/pkg/pipeline"
	"github.com/user/mapshot/pkg/ports"
	"github.com/user/mapshot/pkg/stages/raster"
)

// Stage places one surface per page into a document.
type Stage struct {
	assembler ports.DocumentAssembler
	renderer  ports.Renderer
	logger    ports.Logger
}

// NewStage creates a new document stage.
func NewStage(assembler ports.DocumentAssembler, renderer ports.Renderer, logger ports.Logger) *Stage {
	return &Stage{
		assembler: assembler,
		renderer:  renderer,
		logger:    logger.WithComponent("document"),
	}
}

// Execute assembles the document. Pages follow the surface order and the
// document is finalized only after every surface has been placed.
func (s *Stage) Execute(ctx context.Context, input pipeline.DocumentInput) (pipeline.DocumentResult, error) {
	result := pipeline.DocumentResult{}

	if len(input.Surfaces) == 0 {
		return result, fmt.Errorf("no surfaces to place")
	}
	box := input.Page.ContentBox()
	if box.Width <= 0 || box.Height <= 0 {
		return result, fmt.Errorf("page %gx%g mm leaves no room inside a %g mm margin",
			input.Page.Width, input.Page.Height, input.Page.Margin)
	}

	s.logger.Debug("Assembling document with %d page(s)", len(input.Surfaces))

	if err := s.assembler.Begin(input.Page); err != nil {
		return result, fmt.Errorf("begin document: %w", err)
	}

	placements := make([]ports.Placement, 0, len(input.Surfaces))
	for _, surface := range input.Surfaces {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		data, err := s.encodePage(surface, input)
		if err != nil {
			return result, fmt.Errorf("encode page %d: %w", surface.Index, err)
		}

		placement := Fit(surface.Width(), surface.Height(), box)
		s.logger.Debug("Placing page %d at %.1fx%.1f mm", surface.Index, placement.Width, placement.Height)

		if err := s.assembler.AddPage(data, input.ImageFormat, placement); err != nil {
			return result, fmt.Errorf("add page %d: %w", surface.Index, err)
		}
		placements = append(placements, placement)
	}

	data, err := s.assembler.End()
	if err != nil {
		return result, fmt.Errorf("finalize document: %w", err)
	}

	s.logger.Debug("Document assembled: %d pages, %d bytes", s.assembler.PageCount(), len(data))

	result.Artifact = pipeline.Artifact{
		Extension: pipeline.FormatDocument.Extension(),
		Data:      data,
		Pages:     s.assembler.PageCount(),
	}
	result.Placements = placements
	return result, nil
}

func (s *Stage) encodePage(surface pipeline.Surface, input pipeline.DocumentInput) ([]byte, error) {
	img := surface.Image
	if img == nil {
		return nil, fmt.Errorf("surface %d has no image", surface.Index)
	}

	if input.MaxImagePixels > 0 {
		w, h := Downscale(surface.Width(), surface.Height(), input.MaxImagePixels)
		if w != surface.Width() || h != surface.Height() {
			img = s.renderer.ResizeImage(img, w, h)
		}
	}

	if input.ImageFormat == ports.FormatJPEG {
		img = raster.Flatten(s.renderer, img, input.Background)
	}

	return s.renderer.EncodeImage(img, input.ImageFormat, input.Quality)
}

// Fit returns the largest placement of a width x height image inside box
// that keeps the aspect ratio, centered on both axes.
func Fit(width, height int, box ports.Placement) ports.Placement {
	if width <= 0 || height <= 0 {
		return ports.Placement{X: box.X, Y: box.Y}
	}
	scale := math.Min(box.Width/float64(width), box.Height/float64(height))
	w := float64(width) * scale
	h := float64(height) * scale
	return ports.Placement{
		X:      box.X + (box.Width-w)/2,
		Y:      box.Y + (box.Height-h)/2,
		Width:  w,
		Height: h,
	}
}

// Downscale returns dimensions whose longest side is at most maxPixels,
// preserving the aspect ratio. Images already small enough are unchanged.
func Downscale(width, height, maxPixels int) (int, int) {
	longest := width
	if height > longest {
		longest = height
	}
	if maxPixels <= 0 || longest <= maxPixels {
		return width, height
	}
	scale := float64(maxPixels) / float64(longest)
	w := int(math.Round(float64(width) * scale))
	h := int(math.Round(float64(height) * scale))
	return max(w, 1), max(h, 1)
}
