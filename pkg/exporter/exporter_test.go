package exporter

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/ideamans/go-l10n"

	"github.com/user/mapshot/pkg/adapters/fpdfassembler"
	"github.com/user/mapshot/pkg/adapters/ggrenderer"
	"github.com/user/mapshot/pkg/adapters/logger"
	"github.com/user/mapshot/pkg/mocks"
	"github.com/user/mapshot/pkg/pipeline"
	"github.com/user/mapshot/pkg/ports"
	"github.com/user/mapshot/pkg/stages/document"
	"github.com/user/mapshot/pkg/stages/raster"
	"github.com/user/mapshot/pkg/stages/resolve"
)

var fixedTime = time.Date(2026, 10, 15, 8, 30, 0, 123_000_000, time.UTC)

type fixture struct {
	exporter   *Exporter
	downloader *mocks.Downloader
	notifier   *mocks.Notifier
	sink       *mocks.DebugSink
	assembler  ports.DocumentAssembler
}

func newFixture(t *testing.T, renderer ports.Renderer, assembler ports.DocumentAssembler, config Config) *fixture {
	t.Helper()
	if renderer == nil {
		renderer = ggrenderer.New()
	}
	if assembler == nil {
		assembler = fpdfassembler.New()
	}
	log := logger.NewNoop()
	f := &fixture{
		downloader: &mocks.Downloader{},
		notifier:   &mocks.Notifier{},
		sink:       mocks.NewDebugSink(true),
		assembler:  assembler,
	}
	f.exporter = New(
		resolve.NewStage(renderer, f.sink, log),
		raster.NewStage(renderer, log),
		document.NewStage(assembler, renderer, log),
		f.downloader,
		f.notifier,
		f.sink,
		log,
		config,
	)
	f.exporter.now = func() time.Time { return fixedTime }
	f.exporter.newID = func() string { return "capture-1" }
	return f
}

func testConfig() Config {
	config := DefaultConfig()
	config.SettleDelay = 0
	return config
}

func viewports(vps ...ports.Viewport) []ports.Viewport {
	return vps
}

func TestCapture_LosslessOneImagePerSurface(t *testing.T) {
	f := newFixture(t, nil, nil, testConfig())

	result, err := f.exporter.Capture(context.Background(), viewports(
		mocks.NewPNGViewport("left", 64, 48),
		mocks.NewPNGViewport("right", 32, 40),
	), pipeline.FormatLossless)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if f.downloader.Count() != 2 {
		t.Fatalf("expected 2 downloads, got %d", f.downloader.Count())
	}
	wantNames := []string{
		"map-capture-2026-10-15T08-30-00-123Z-1.png",
		"map-capture-2026-10-15T08-30-00-123Z-2.png",
	}
	wantSizes := [][2]int{{64, 48}, {32, 40}}
	renderer := ggrenderer.New()
	for i, d := range f.downloader.Downloads {
		if d.Filename != wantNames[i] {
			t.Errorf("download %d: expected %s, got %s", i, wantNames[i], d.Filename)
		}
		img, err := renderer.DecodeImage(d.Data, ports.FormatPNG)
		if err != nil {
			t.Fatalf("download %d is not a valid PNG: %v", i, err)
		}
		if img.Bounds().Dx() != wantSizes[i][0] || img.Bounds().Dy() != wantSizes[i][1] {
			t.Errorf("download %d: expected %v, got %v", i, wantSizes[i], img.Bounds())
		}
	}

	if result.ID != "capture-1" || result.Format != pipeline.FormatLossless {
		t.Errorf("unexpected result header: %+v", result)
	}
	if len(result.Artifacts) != 2 || result.Artifacts[0].Width != 64 || result.Artifacts[1].Height != 40 {
		t.Errorf("unexpected artifacts: %+v", result.Artifacts)
	}
	if strings.Join(result.Captured, ",") != "left,right" {
		t.Errorf("expected captured left,right, got %v", result.Captured)
	}
	if len(f.notifier.Notices) != 0 {
		t.Errorf("expected no notices, got %+v", f.notifier.Notices)
	}
	if f.exporter.State() != StateIdle {
		t.Errorf("expected idle state, got %s", f.exporter.State())
	}
}

func TestCapture_NoViewports(t *testing.T) {
	f := newFixture(t, nil, nil, testConfig())

	_, err := f.exporter.Capture(context.Background(), nil, pipeline.FormatLossless)
	if !errors.Is(err, ErrNothingToCapture) {
		t.Fatalf("expected ErrNothingToCapture, got %v", err)
	}

	if f.downloader.Count() != 0 {
		t.Errorf("expected no downloads, got %d", f.downloader.Count())
	}
	notice, ok := f.notifier.Last()
	if !ok || notice.Level != ports.NoticeWarn || notice.Message != l10n.T("Nothing to capture") {
		t.Errorf("expected nothing-to-capture warning, got %+v", f.notifier.Notices)
	}
	if len(f.notifier.Notices) != 1 {
		t.Errorf("expected exactly one notice, got %d", len(f.notifier.Notices))
	}
	if f.exporter.State() != StateIdle {
		t.Errorf("expected idle state, got %s", f.exporter.State())
	}
}

func TestCapture_AllUnavailable(t *testing.T) {
	f := newFixture(t, nil, nil, testConfig())

	_, err := f.exporter.Capture(context.Background(), viewports(
		mocks.NewUnavailableViewport("left"),
		mocks.NewUnavailableViewport("right"),
	), pipeline.FormatDocument)
	if !errors.Is(err, ErrNothingToCapture) {
		t.Fatalf("expected ErrNothingToCapture, got %v", err)
	}
	if f.downloader.Count() != 0 {
		t.Errorf("expected no downloads, got %d", f.downloader.Count())
	}
}

func TestCapture_UnavailableSkippedCompressed(t *testing.T) {
	f := newFixture(t, nil, nil, testConfig())

	result, err := f.exporter.Capture(context.Background(), viewports(
		mocks.NewUnavailableViewport("left"),
		mocks.NewPNGViewport("right", 50, 30),
	), pipeline.FormatCompressed)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if f.downloader.Count() != 1 {
		t.Fatalf("expected 1 download, got %d", f.downloader.Count())
	}
	d := f.downloader.Downloads[0]
	if d.Filename != "map-capture-2026-10-15T08-30-00-123Z-1.jpg" {
		t.Errorf("expected index 1 for the only resolved surface, got %s", d.Filename)
	}
	img, err := ggrenderer.New().DecodeImage(d.Data, ports.FormatJPEG)
	if err != nil {
		t.Fatalf("download is not a valid JPEG: %v", err)
	}
	if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 30 {
		t.Errorf("expected 50x30, got %v", img.Bounds())
	}

	if len(result.Skipped) != 1 || result.Skipped[0].Viewport != "left" {
		t.Errorf("expected left to be skipped, got %+v", result.Skipped)
	}
	if len(f.notifier.Notices) != 0 {
		t.Errorf("skips should be silent by default, got %+v", f.notifier.Notices)
	}
}

func TestCapture_FilteringIsIdempotent(t *testing.T) {
	f := newFixture(t, nil, nil, testConfig())
	vps := viewports(
		mocks.NewUnavailableViewport("x"),
		mocks.NewPNGViewport("a", 20, 10),
		nil,
		mocks.NewPNGViewport("b", 10, 20),
	)

	first, err := f.exporter.Capture(context.Background(), vps, pipeline.FormatLossless)
	if err != nil {
		t.Fatalf("first capture failed: %v", err)
	}
	second, err := f.exporter.Capture(context.Background(), vps, pipeline.FormatLossless)
	if err != nil {
		t.Fatalf("second capture failed: %v", err)
	}

	if !reflect.DeepEqual(first.Skipped, second.Skipped) {
		t.Errorf("skipped sets differ:\n%+v\n%+v", first.Skipped, second.Skipped)
	}
	if len(first.Skipped) != 2 || first.Skipped[0].Position != 1 || first.Skipped[1].Position != 3 {
		t.Errorf("expected positions 1 and 3 skipped, got %+v", first.Skipped)
	}
	if !reflect.DeepEqual(first.Captured, second.Captured) {
		t.Errorf("captured viewports differ: %v vs %v", first.Captured, second.Captured)
	}
	if len(first.Artifacts) != 2 || len(second.Artifacts) != 2 {
		t.Errorf("expected 2 artifacts each time, got %d and %d", len(first.Artifacts), len(second.Artifacts))
	}
}

func TestExecute_CaptureRequest(t *testing.T) {
	f := newFixture(t, nil, nil, testConfig())
	var stage pipeline.Stage[pipeline.CaptureRequest, Result] = f.exporter

	result, err := stage.Execute(context.Background(), pipeline.CaptureRequest{
		Format:    pipeline.FormatDocument,
		Viewports: viewports(mocks.NewPNGViewport("left", 40, 30)),
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Format != pipeline.FormatDocument {
		t.Errorf("expected document format, got %s", result.Format)
	}
	if got := result.Filenames(); len(got) != 1 || got[0] != "map-capture-2026-10-15T08-30-00-123Z.pdf" {
		t.Errorf("unexpected filenames %v", got)
	}
}

func TestCapture_RasterArtifactCountMismatch(t *testing.T) {
	renderer := ggrenderer.New()
	log := logger.NewNoop()
	downloader := &mocks.Downloader{}
	notifier := &mocks.Notifier{}
	sink := &mocks.NullSink{}

	short := pipeline.StageFunc[pipeline.RasterInput, pipeline.RasterResult](
		func(ctx context.Context, input pipeline.RasterInput) (pipeline.RasterResult, error) {
			return pipeline.RasterResult{Artifacts: []pipeline.Artifact{{Index: 1, Extension: "png", Data: []byte("x")}}}, nil
		})

	exp := New(
		resolve.NewStage(renderer, sink, log),
		short,
		document.NewStage(fpdfassembler.New(), renderer, log),
		downloader,
		notifier,
		sink,
		log,
		testConfig(),
	)

	_, err := exp.Capture(context.Background(), viewports(
		mocks.NewPNGViewport("left", 10, 10),
		mocks.NewPNGViewport("right", 10, 10),
	), pipeline.FormatLossless)
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("expected ErrCaptureFailed, got %v", err)
	}
	if downloader.Count() != 0 {
		t.Errorf("expected no downloads, got %d", downloader.Count())
	}
	if exp.State() != StateIdle {
		t.Errorf("expected idle after failure, got %s", exp.State())
	}
}

func TestCapture_WarnOnSkipped(t *testing.T) {
	config := testConfig()
	config.WarnOnSkipped = true
	f := newFixture(t, nil, nil, config)

	_, err := f.exporter.Capture(context.Background(), viewports(
		mocks.NewPNGViewport("left", 20, 20),
		mocks.NewUnavailableViewport("right"),
	), pipeline.FormatLossless)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	notice, ok := f.notifier.Last()
	if !ok || notice.Level != ports.NoticeWarn {
		t.Fatalf("expected a warning, got %+v", f.notifier.Notices)
	}
	if notice.Message != l10n.F("Some viewports could not be captured: %s", "right") {
		t.Errorf("unexpected warning: %s", notice.Message)
	}
}

func TestCapture_NotifySuccess(t *testing.T) {
	config := testConfig()
	config.NotifySuccess = true
	config.Prefix = "trail"
	f := newFixture(t, nil, nil, config)

	if _, err := f.exporter.Capture(context.Background(), viewports(
		mocks.NewPNGViewport("left", 20, 20),
	), pipeline.FormatLossless); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	notice, ok := f.notifier.Last()
	if !ok || notice.Level != ports.NoticeInfo {
		t.Fatalf("expected an info notice, got %+v", f.notifier.Notices)
	}
	if !strings.Contains(notice.Message, "trail-2026-10-15T08-30-00-123Z-1.png") {
		t.Errorf("expected filename in notice, got %s", notice.Message)
	}
}

var pagePattern = regexp.MustCompile(`/Type /Page[^s]`)

func TestCapture_DocumentOnePagePerSurface(t *testing.T) {
	f := newFixture(t, nil, nil, testConfig())

	result, err := f.exporter.Capture(context.Background(), viewports(
		mocks.NewPNGViewport("left", 80, 40),
		mocks.NewPNGViewport("right", 40, 80),
	), pipeline.FormatDocument)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if f.downloader.Count() != 1 {
		t.Fatalf("expected 1 download, got %d", f.downloader.Count())
	}
	d := f.downloader.Downloads[0]
	if d.Filename != "map-capture-2026-10-15T08-30-00-123Z.pdf" {
		t.Errorf("unexpected document name %s", d.Filename)
	}
	if !strings.HasPrefix(string(d.Data), "%PDF-") {
		t.Errorf("download is not a PDF")
	}
	if pages := len(pagePattern.FindAll(d.Data, -1)); pages != 2 {
		t.Errorf("expected 2 pages, got %d", pages)
	}
	if result.Artifacts[0].Pages != 2 {
		t.Errorf("expected result to report 2 pages, got %d", result.Artifacts[0].Pages)
	}
}

func TestCapture_DocumentPageOrder(t *testing.T) {
	assembler := &mocks.DocumentAssembler{}
	f := newFixture(t, nil, assembler, testConfig())

	if _, err := f.exporter.Capture(context.Background(), viewports(
		mocks.NewPNGViewport("wide", 200, 100),
		mocks.NewPNGViewport("tall", 100, 200),
	), pipeline.FormatDocument); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if len(assembler.AddPageCalls) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(assembler.AddPageCalls))
	}
	first, second := assembler.AddPageCalls[0].Placement, assembler.AddPageCalls[1].Placement
	if first.Width <= first.Height {
		t.Errorf("first page should hold the wide surface, got %+v", first)
	}
	if second.Width >= second.Height {
		t.Errorf("second page should hold the tall surface, got %+v", second)
	}
}

func TestCapture_EncodeFailureDownloadsNothing(t *testing.T) {
	renderer := &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
			return nil, errors.New("encoder exploded")
		},
	}
	f := newFixture(t, renderer, nil, testConfig())

	result, err := f.exporter.Capture(context.Background(), viewports(
		mocks.NewPNGViewport("left", 10, 10),
		mocks.NewPNGViewport("right", 10, 10),
	), pipeline.FormatLossless)
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("expected ErrCaptureFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "encoder exploded") {
		t.Errorf("expected cause in error, got %v", err)
	}

	if f.downloader.Count() != 0 {
		t.Errorf("expected no downloads, got %d", f.downloader.Count())
	}
	if len(result.Artifacts) != 0 {
		t.Errorf("expected no artifacts, got %+v", result.Artifacts)
	}
	notice, ok := f.notifier.Last()
	if !ok || notice.Level != ports.NoticeError || notice.Message != l10n.T("Capture failed") {
		t.Errorf("expected generic failure notice, got %+v", f.notifier.Notices)
	}
	if f.exporter.State() != StateIdle {
		t.Errorf("expected idle state, got %s", f.exporter.State())
	}
}

func TestCapture_AssemblyFailureDownloadsNothing(t *testing.T) {
	assembler := &mocks.DocumentAssembler{
		EndFunc: func() ([]byte, error) { return nil, errors.New("disk full") },
	}
	f := newFixture(t, nil, assembler, testConfig())

	_, err := f.exporter.Capture(context.Background(), viewports(
		mocks.NewPNGViewport("left", 10, 10),
	), pipeline.FormatDocument)
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("expected ErrCaptureFailed, got %v", err)
	}
	if f.downloader.Count() != 0 {
		t.Errorf("expected no downloads, got %d", f.downloader.Count())
	}
}

func TestCapture_DownloadFailureStopsRemaining(t *testing.T) {
	f := newFixture(t, nil, nil, testConfig())
	calls := 0
	f.downloader.DownloadFunc = func(ctx context.Context, filename string, data []byte) error {
		calls++
		if calls == 1 {
			return errors.New("permission denied")
		}
		return nil
	}

	_, err := f.exporter.Capture(context.Background(), viewports(
		mocks.NewPNGViewport("left", 10, 10),
		mocks.NewPNGViewport("right", 10, 10),
	), pipeline.FormatLossless)
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("expected ErrCaptureFailed, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected downloads to stop after the failure, got %d attempts", calls)
	}
}

func TestCapture_DownloadFailureDiscardsDelivered(t *testing.T) {
	f := newFixture(t, nil, nil, testConfig())
	calls := 0
	f.downloader.DownloadFunc = func(ctx context.Context, filename string, data []byte) error {
		calls++
		if calls == 2 {
			return errors.New("disk full")
		}
		return nil
	}

	result, err := f.exporter.Capture(context.Background(), viewports(
		mocks.NewPNGViewport("left", 10, 10),
		mocks.NewPNGViewport("right", 10, 10),
	), pipeline.FormatLossless)
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("expected ErrCaptureFailed, got %v", err)
	}

	want := "map-capture-2026-10-15T08-30-00-123Z-1.png"
	if len(f.downloader.Discarded) != 1 || f.downloader.Discarded[0] != want {
		t.Errorf("expected %s to be discarded, got %v", want, f.downloader.Discarded)
	}
	if f.downloader.Count() != 0 {
		t.Errorf("expected no downloads left, got %d", f.downloader.Count())
	}
	if len(result.Artifacts) != 0 {
		t.Errorf("expected no artifacts in result, got %d", len(result.Artifacts))
	}
}

func TestCapture_UnsupportedFormat(t *testing.T) {
	f := newFixture(t, nil, nil, testConfig())
	vp := mocks.NewPNGViewport("left", 10, 10)

	_, err := f.exporter.Capture(context.Background(), viewports(vp), pipeline.Format("gif"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if vp.SurfaceCalls() != 0 {
		t.Errorf("viewports should not be read for an unsupported format")
	}
	if len(f.notifier.Notices) != 0 || f.downloader.Count() != 0 {
		t.Errorf("expected no side effects")
	}
}

func TestCapture_RejectsReentrantCall(t *testing.T) {
	f := newFixture(t, nil, nil, testConfig())

	entered := make(chan struct{})
	release := make(chan struct{})
	data := mocks.SolidPNG(16, 16, color.Black)
	blocking := &mocks.Viewport{
		ViewportName: "left",
		SurfaceFunc: func(ctx context.Context) (ports.Surface, error) {
			close(entered)
			<-release
			return &mocks.Surface{Data: data}, nil
		},
	}

	type outcome struct {
		result Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := f.exporter.Capture(context.Background(), viewports(blocking), pipeline.FormatLossless)
		done <- outcome{r, err}
	}()

	<-entered
	if f.exporter.State() != StateCapturing {
		t.Errorf("expected capturing state, got %s", f.exporter.State())
	}

	second := mocks.NewPNGViewport("right", 16, 16)
	if _, err := f.exporter.Capture(context.Background(), viewports(second), pipeline.FormatDocument); !errors.Is(err, ErrCaptureInProgress) {
		t.Errorf("expected ErrCaptureInProgress, got %v", err)
	}
	if second.SurfaceCalls() != 0 {
		t.Errorf("rejected capture must not read viewports")
	}

	close(release)
	first := <-done
	if first.err != nil {
		t.Fatalf("first capture failed: %v", first.err)
	}
	if f.downloader.Count() != 1 {
		t.Errorf("expected only the first capture's download, got %d", f.downloader.Count())
	}
	if f.exporter.State() != StateIdle {
		t.Errorf("expected idle state, got %s", f.exporter.State())
	}

	// A new capture is accepted once idle.
	if _, err := f.exporter.Capture(context.Background(), viewports(second), pipeline.FormatLossless); err != nil {
		t.Errorf("capture after idle failed: %v", err)
	}
}

func TestCapture_CancelledIsNotAnnounced(t *testing.T) {
	config := testConfig()
	config.SettleDelay = time.Hour
	f := newFixture(t, nil, nil, config)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.exporter.Capture(ctx, viewports(mocks.NewPNGViewport("left", 10, 10)), pipeline.FormatLossless)
	if !errors.Is(err, ErrCaptureFailed) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled capture failure, got %v", err)
	}
	if len(f.notifier.Notices) != 0 {
		t.Errorf("cancellation should not notify, got %+v", f.notifier.Notices)
	}
	if f.exporter.State() != StateIdle {
		t.Errorf("expected idle state, got %s", f.exporter.State())
	}
}

func TestCapture_SavesCaptureJSON(t *testing.T) {
	f := newFixture(t, nil, nil, testConfig())

	if _, err := f.exporter.Capture(context.Background(), viewports(
		mocks.NewPNGViewport("left", 12, 12),
		mocks.NewUnavailableViewport("right"),
	), pipeline.FormatLossless); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	var saved Result
	if err := json.Unmarshal(f.sink.CaptureJSON, &saved); err != nil {
		t.Fatalf("capture JSON invalid: %v", err)
	}
	if saved.ID != "capture-1" || len(saved.Artifacts) != 1 || len(saved.Skipped) != 1 {
		t.Errorf("unexpected capture JSON: %s", f.sink.CaptureJSON)
	}
	if _, ok := f.sink.Snapshots[1]; !ok {
		t.Errorf("expected snapshot 1 to be saved")
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name   string
		format pipeline.Format
		index  int
		time   time.Time
		want   string
	}{
		{"png", pipeline.FormatLossless, 1, fixedTime, "map-capture-2026-10-15T08-30-00-123Z-1.png"},
		{"jpg second", pipeline.FormatCompressed, 2, fixedTime, "map-capture-2026-10-15T08-30-00-123Z-2.jpg"},
		{"pdf has no index", pipeline.FormatDocument, 0, fixedTime, "map-capture-2026-10-15T08-30-00-123Z.pdf"},
		{"converted to UTC", pipeline.FormatLossless, 1,
			time.Date(2026, 10, 15, 17, 30, 0, 5_000_000, time.FixedZone("JST", 9*3600)),
			"map-capture-2026-10-15T08-30-00-005Z-1.png"},
	}

	pattern := regexp.MustCompile(`^map-capture-\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}-\d{3}Z(-\d+)?\.(png|jpg|pdf)$`)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filename("map-capture", tt.time, tt.format, tt.index)
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
			if !pattern.MatchString(got) {
				t.Errorf("%s does not match the filename pattern", got)
			}
		})
	}
}

func TestResult_Totals(t *testing.T) {
	r := Result{Artifacts: []Artifact{{Filename: "a.png", Size: 10}, {Filename: "b.png", Size: 5}}}
	if r.TotalBytes() != 15 {
		t.Errorf("expected 15 bytes, got %d", r.TotalBytes())
	}
	if strings.Join(r.Filenames(), ",") != "a.png,b.png" {
		t.Errorf("unexpected filenames %v", r.Filenames())
	}
}
