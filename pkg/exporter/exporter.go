// Package exporter turns the current state of map viewports into downloadable artifacts.
package exporter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ideamans/go-l10n"

	"github.com/user/mapshot/pkg/pipeline"
	"github.com/user/mapshot/pkg/ports"
)

var (
	// ErrCaptureInProgress is returned when Capture is called while another capture runs.
	ErrCaptureInProgress = errors.New("capture already in progress")
	// ErrUnsupportedFormat is returned for a format outside the known set.
	ErrUnsupportedFormat = errors.New("unsupported capture format")
	// ErrNothingToCapture is returned when no viewport has a surface.
	ErrNothingToCapture = errors.New("nothing to capture")
	// ErrCaptureFailed wraps encoding, assembly and download failures.
	ErrCaptureFailed = errors.New("capture failed")
)

// State is the exporter's lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateCapturing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	default:
		return "unknown"
	}
}

// Config contains the settings fixed for the lifetime of an exporter.
type Config struct {
	Prefix      string        // Filename prefix
	Quality     int           // JPEG quality (1-100)
	Background  color.Color   // Fill behind transparent pixels when encoding JPEG
	SettleDelay time.Duration // Wait before reading viewports that cannot signal stability

	// Document
	Page                ports.PageGeometry
	DocumentImageFormat ports.ImageFormat
	MaxImagePixels      int

	// Notifications
	WarnOnSkipped bool // Warn when some viewports were skipped but others captured
	NotifySuccess bool // Announce saved filenames
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Prefix:              "map-capture",
		Quality:             92,
		Background:          color.White,
		SettleDelay:         150 * time.Millisecond,
		Page:                pipeline.DefaultPageGeometry(),
		DocumentImageFormat: ports.FormatPNG,
	}
}

// Exporter captures viewports. It holds the capture state; one capture runs at a time.
type Exporter struct {
	resolveStage  pipeline.Stage[pipeline.ResolveInput, pipeline.ResolveResult]
	rasterStage   pipeline.Stage[pipeline.RasterInput, pipeline.RasterResult]
	documentStage pipeline.Stage[pipeline.DocumentInput, pipeline.DocumentResult]
	downloader    ports.Downloader
	notifier      ports.Notifier
	sink          ports.DebugSink
	logger        ports.Logger
	config        Config

	state atomic.Int32
	now   func() time.Time
	newID func() string
}

// New creates a new Exporter.
func New(
	resolveStage pipeline.Stage[pipeline.ResolveInput, pipeline.ResolveResult],
	rasterStage pipeline.Stage[pipeline.RasterInput, pipeline.RasterResult],
	documentStage pipeline.Stage[pipeline.DocumentInput, pipeline.DocumentResult],
	downloader ports.Downloader,
	notifier ports.Notifier,
	sink ports.DebugSink,
	logger ports.Logger,
	config Config,
) *Exporter {
	if config.Prefix == "" {
		config.Prefix = DefaultConfig().Prefix
	}
	return &Exporter{
		resolveStage:  resolveStage,
		rasterStage:   rasterStage,
		documentStage: documentStage,
		downloader:    downloader,
		notifier:      notifier,
		sink:          sink,
		logger:        logger.WithComponent("exporter"),
		config:        config,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// State returns the current state.
func (e *Exporter) State() State {
	return State(e.state.Load())
}

// Capture reads the viewports in order and downloads the artifacts for format.
// Viewports without a surface are skipped. Nothing is downloaded unless every
// artifact was encoded.
func (e *Exporter) Capture(ctx context.Context, viewports []ports.Viewport, format pipeline.Format) (Result, error) {
	if !format.Valid() {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateCapturing)) {
		e.logger.Warn("Capture already in progress, request rejected")
		return Result{}, ErrCaptureInProgress
	}
	defer e.state.Store(int32(StateIdle))

	started := e.now()
	result := Result{
		ID:        e.newID(),
		Format:    format,
		StartedAt: started,
	}
	e.logger.Info("Capturing %d viewport(s) as %s", len(viewports), format)

	resolved, err := e.resolveStage.Execute(ctx, pipeline.ResolveInput{
		Viewports:   viewports,
		SettleDelay: e.config.SettleDelay,
	})
	if err != nil {
		return e.fail(result, err)
	}
	result.Skipped = resolved.Skipped
	for _, s := range resolved.Surfaces {
		result.Captured = append(result.Captured, s.Viewport)
	}

	if len(resolved.Surfaces) == 0 {
		e.notifier.Notify(ports.NoticeWarn, l10n.T("Nothing to capture"))
		e.finish(&result)
		return result, ErrNothingToCapture
	}

	artifacts, err := e.encode(ctx, format, resolved.Surfaces)
	if err != nil {
		return e.fail(result, err)
	}

	for _, a := range artifacts {
		name := Filename(e.config.Prefix, started, format, a.Index)
		if err := e.downloader.Download(ctx, name, a.Data); err != nil {
			e.discard(result.Filenames())
			return e.fail(result, fmt.Errorf("download %s: %w", name, err))
		}
		result.Artifacts = append(result.Artifacts, Artifact{
			Filename: name,
			Size:     a.Size(),
			Width:    a.Width,
			Height:   a.Height,
			Pages:    a.Pages,
		})
	}

	if e.config.WarnOnSkipped && len(result.Skipped) > 0 {
		names := make([]string, len(result.Skipped))
		for i, s := range result.Skipped {
			names[i] = s.Viewport
		}
		e.notifier.Notify(ports.NoticeWarn, l10n.F("Some viewports could not be captured: %s", strings.Join(names, ", ")))
	}
	if e.config.NotifySuccess {
		e.notifier.Notify(ports.NoticeInfo, l10n.F("Capture saved: %s", strings.Join(result.Filenames(), ", ")))
	}

	e.finish(&result)
	e.logger.Info("Capture %s completed in %d ms", result.ID, result.Duration.Milliseconds())
	return result, nil
}

// Execute runs the capture described by req.
func (e *Exporter) Execute(ctx context.Context, req pipeline.CaptureRequest) (Result, error) {
	return e.Capture(ctx, req.Viewports, req.Format)
}

var _ pipeline.Stage[pipeline.CaptureRequest, Result] = (*Exporter)(nil)

func (e *Exporter) encode(ctx context.Context, format pipeline.Format, surfaces []pipeline.Surface) ([]pipeline.Artifact, error) {
	if format.IsImage() {
		raster, err := e.rasterStage.Execute(ctx, pipeline.RasterInput{
			Surfaces:   surfaces,
			Format:     format,
			Quality:    e.config.Quality,
			Background: e.config.Background,
		})
		if err != nil {
			return nil, fmt.Errorf("raster stage: %w", err)
		}
		if len(raster.Artifacts) != len(surfaces) {
			return nil, fmt.Errorf("raster stage: %d artifacts for %d surfaces", len(raster.Artifacts), len(surfaces))
		}
		return raster.Artifacts, nil
	}

	doc, err := e.documentStage.Execute(ctx, pipeline.DocumentInput{
		Surfaces:       surfaces,
		Page:           e.config.Page,
		ImageFormat:    e.config.DocumentImageFormat,
		Quality:        e.config.Quality,
		Background:     e.config.Background,
		MaxImagePixels: e.config.MaxImagePixels,
	})
	if err != nil {
		return nil, fmt.Errorf("document stage: %w", err)
	}
	if len(doc.Artifact.Data) == 0 {
		return nil, fmt.Errorf("document stage: empty document")
	}
	return []pipeline.Artifact{doc.Artifact}, nil
}

// discard takes back artifacts already delivered when the downloader supports it.
// It runs on its own context so a cancelled capture still cleans up.
func (e *Exporter) discard(filenames []string) {
	discarder, ok := e.downloader.(ports.Discarder)
	if !ok {
		return
	}
	for _, name := range filenames {
		if err := discarder.Discard(context.Background(), name); err != nil {
			e.logger.Warn("Failed to discard %s: %s", name, err)
		}
	}
}

// fail logs the cause and shows a generic failure notice. Cancellation is not
// announced to the user.
func (e *Exporter) fail(result Result, cause error) (Result, error) {
	result.Artifacts = nil
	result.Error = cause.Error()
	e.finish(&result)

	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		e.logger.Warn("Capture %s failed: %s", result.ID, cause)
	} else {
		e.logger.Error("Capture %s failed: %s", result.ID, cause)
		e.notifier.Notify(ports.NoticeError, l10n.T("Capture failed"))
	}
	return result, fmt.Errorf("%w: %w", ErrCaptureFailed, cause)
}

func (e *Exporter) finish(result *Result) {
	result.Duration = e.now().Sub(result.StartedAt)
	if e.sink.Enabled() {
		if data, err := json.MarshalIndent(result, "", "  "); err == nil {
			e.sink.SaveCaptureJSON(data)
		}
	}
}
