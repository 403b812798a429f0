// Package summarizer builds human-readable reports of captures.
package summarizer

import (
	"time"

	"github.com/user/mapshot/pkg/exporter"
)

// Summary contains everything reported about one capture.
type Summary struct {
	GeneratedAt time.Time `json:"generatedAt"`

	Capture   CaptureInfo    `json:"capture"`
	Captured  []string       `json:"captured"`
	Skipped   []SkippedInfo  `json:"skipped,omitempty"`
	Artifacts []ArtifactInfo `json:"artifacts"`
	Settings  Settings       `json:"settings"`

	// Error is the failure cause when the capture did not produce artifacts.
	Error string `json:"error,omitempty"`
}

// CaptureInfo identifies the capture.
type CaptureInfo struct {
	ID         string    `json:"id"`
	Format     string    `json:"format"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMs int64     `json:"durationMs"`
}

// SkippedInfo describes a viewport that had no surface.
type SkippedInfo struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Reason   string `json:"reason"`
}

// ArtifactInfo describes a saved file.
type ArtifactInfo struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Pages    int    `json:"pages,omitempty"`
}

// Settings contains the capture configuration.
type Settings struct {
	Prefix      string  `json:"prefix"`
	Quality     int     `json:"quality"`
	PageWidth   float64 `json:"pageWidthMm"`
	PageHeight  float64 `json:"pageHeightMm"`
	PageMargin  float64 `json:"pageMarginMm"`
	DownloadDir string  `json:"downloadDir"`
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// FromResult starts a Builder filled from an exporter result.
func FromResult(r exporter.Result) *Builder {
	b := NewBuilder().
		WithCapture(r.ID, string(r.Format), r.StartedAt, r.Duration).
		WithError(r.Error)
	for _, name := range r.Captured {
		b.AddCaptured(name)
	}
	for _, s := range r.Skipped {
		b.AddSkipped(s.Position, s.Viewport, s.Reason)
	}
	for _, a := range r.Artifacts {
		b.AddArtifact(ArtifactInfo{
			Filename: a.Filename,
			Size:     a.Size,
			Width:    a.Width,
			Height:   a.Height,
			Pages:    a.Pages,
		})
	}
	return b
}

// WithCapture sets the capture identity and timing.
func (b *Builder) WithCapture(id, format string, startedAt time.Time, duration time.Duration) *Builder {
	b.summary.Capture = CaptureInfo{
		ID:         id,
		Format:     format,
		StartedAt:  startedAt,
		DurationMs: duration.Milliseconds(),
	}
	return b
}

// AddCaptured appends a captured viewport name.
func (b *Builder) AddCaptured(name string) *Builder {
	b.summary.Captured = append(b.summary.Captured, name)
	return b
}

// AddSkipped appends a skipped viewport.
func (b *Builder) AddSkipped(position int, name, reason string) *Builder {
	b.summary.Skipped = append(b.summary.Skipped, SkippedInfo{
		Position: position,
		Name:     name,
		Reason:   reason,
	})
	return b
}

// AddArtifact appends a saved file.
func (b *Builder) AddArtifact(artifact ArtifactInfo) *Builder {
	b.summary.Artifacts = append(b.summary.Artifacts, artifact)
	return b
}

// WithSettings sets the capture settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithError records the failure cause.
func (b *Builder) WithError(msg string) *Builder {
	b.summary.Error = msg
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}

// TotalBytes returns the combined size of the artifacts.
func (s *Summary) TotalBytes() int64 {
	var total int64
	for _, a := range s.Artifacts {
		total += a.Size
	}
	return total
}
