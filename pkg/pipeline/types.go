package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	"github.com/user/mapshot/pkg/ports"
)

// =============================================================================
// Common Types
// =============================================================================

// Format is the requested output of a capture.
type Format string

const (
	FormatLossless   Format = "image-lossless"   // one PNG per viewport
	FormatCompressed Format = "image-compressed" // one JPG per viewport
	FormatDocument   Format = "document"         // one PDF, a page per viewport
)

// ParseFormat parses a format name. File extensions are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(FormatLossless), "png":
		return FormatLossless, nil
	case string(FormatCompressed), "jpg", "jpeg":
		return FormatCompressed, nil
	case string(FormatDocument), "pdf":
		return FormatDocument, nil
	default:
		return "", fmt.Errorf("unknown format %q (must be image-lossless, image-compressed or document)", s)
	}
}

// Valid reports whether f is one of the known formats.
func (f Format) Valid() bool {
	switch f {
	case FormatLossless, FormatCompressed, FormatDocument:
		return true
	}
	return false
}

// IsImage reports whether the format produces one artifact per surface.
func (f Format) IsImage() bool {
	return f == FormatLossless || f == FormatCompressed
}

// Extension returns the file extension used for artifacts of this format.
func (f Format) Extension() string {
	switch f {
	case FormatLossless:
		return "png"
	case FormatCompressed:
		return "jpg"
	case FormatDocument:
		return "pdf"
	default:
		return ""
	}
}

// ImageFormat returns the raster format used for image formats.
func (f Format) ImageFormat() ports.ImageFormat {
	if f == FormatCompressed {
		return ports.FormatJPEG
	}
	return ports.FormatPNG
}

// CaptureRequest is the value handed to the exporter for a single user action.
// Viewports are ordered front to back: left/primary first.
type CaptureRequest struct {
	Format    Format
	Viewports []ports.Viewport
}

// Surface is a viewport surface resolved and decoded for encoding.
type Surface struct {
	Index    int    // 1-based position in the resolved sequence
	Viewport string // Name of the source viewport
	Image    image.Image
	Raw      []byte // Snapshot bytes as read from the viewport
}

// Width returns the native pixel width.
func (s Surface) Width() int {
	return s.Image.Bounds().Dx()
}

// Height returns the native pixel height.
func (s Surface) Height() int {
	return s.Image.Bounds().Dy()
}

// SkippedViewport records a viewport excluded from a capture.
type SkippedViewport struct {
	Position int    // 1-based position in the request
	Viewport string // Viewport name
	Reason   string
}

// Artifact is an encoded output ready to be downloaded.
type Artifact struct {
	Index     int // 1-based surface index; 0 for a document
	Extension string
	Data      []byte
	Width     int // Pixel width (images only)
	Height    int // Pixel height (images only)
	Pages     int // Page count (documents only)
}

// Size returns the artifact size in bytes.
func (a Artifact) Size() int64 {
	return int64(len(a.Data))
}

// =============================================================================
// Resolve Stage Types
// =============================================================================

// ResolveInput contains the viewports to read.
type ResolveInput struct {
	Viewports   []ports.Viewport
	SettleDelay time.Duration // Fallback wait when a viewport cannot signal stability
}

// ResolveResult contains the resolved surfaces in order.
type ResolveResult struct {
	Surfaces []Surface
	Skipped  []SkippedViewport
}

// =============================================================================
// Raster Stage Types
// =============================================================================

// RasterInput contains parameters for per-surface image encoding.
type RasterInput struct {
	Surfaces   []Surface
	Format     Format
	Quality    int         // JPEG quality (1-100)
	Background color.Color // Fill behind transparent pixels for JPEG
}

// DefaultRasterInput returns RasterInput with default values.
func DefaultRasterInput() RasterInput {
	return RasterInput{
		Format:     FormatLossless,
		Quality:    92,
		Background: color.White,
	}
}

// RasterResult contains one artifact per surface.
type RasterResult struct {
	Artifacts []Artifact
}

// =============================================================================
// Document Stage Types
// =============================================================================

// DocumentInput contains parameters for document assembly.
type DocumentInput struct {
	Surfaces       []Surface
	Page           ports.PageGeometry
	ImageFormat    ports.ImageFormat // Encoding of embedded images
	Quality        int               // JPEG quality when ImageFormat is JPEG
	Background     color.Color
	MaxImagePixels int // Downscale longest side before embedding (0 = native)
}

// DefaultPageGeometry is A4 landscape with a 10 mm margin.
func DefaultPageGeometry() ports.PageGeometry {
	return ports.PageGeometry{Width: 297, Height: 210, Margin: 10}
}

// DefaultDocumentInput returns DocumentInput with default values.
func DefaultDocumentInput() DocumentInput {
	return DocumentInput{
		Page:        DefaultPageGeometry(),
		ImageFormat: ports.FormatPNG,
		Quality:     92,
		Background:  color.White,
	}
}

// DocumentResult contains the assembled document.
type DocumentResult struct {
	Artifact   Artifact
	Placements []ports.Placement // Placement of each page image, in page order
}
