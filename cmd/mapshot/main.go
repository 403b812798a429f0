// Package main provides the CLI entry point for mapshot.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/ideamans/go-l10n"

	"github.com/user/mapshot/pkg/adapters/dirdownload"
	"github.com/user/mapshot/pkg/adapters/filesink"
	"github.com/user/mapshot/pkg/adapters/fpdfassembler"
	"github.com/user/mapshot/pkg/adapters/ggrenderer"
	"github.com/user/mapshot/pkg/adapters/logger"
	"github.com/user/mapshot/pkg/adapters/notify"
	"github.com/user/mapshot/pkg/adapters/nullsink"
	"github.com/user/mapshot/pkg/adapters/osfilesystem"
	"github.com/user/mapshot/pkg/config"
	"github.com/user/mapshot/pkg/exporter"
	"github.com/user/mapshot/pkg/pipeline"
	"github.com/user/mapshot/pkg/ports"
	"github.com/user/mapshot/pkg/stages/document"
	"github.com/user/mapshot/pkg/stages/raster"
	"github.com/user/mapshot/pkg/stages/resolve"
	"github.com/user/mapshot/pkg/summarizer"
)

// CLI defines the command-line interface with subcommands.
type CLI struct {
	Capture CaptureCmd `cmd:"" help:"Capture map viewports as PNG, JPG or PDF."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// CaptureCmd defines the capture subcommand.
type CaptureCmd struct {
	Config string `short:"c" type:"existingfile" help:"YAML configuration file."`

	// Viewports, appended after those in the config file
	URL      []string `name:"url" help:"Map page URL to capture (repeatable)."`
	Selector string   `default:"canvas" help:"CSS selector of the map canvas in --url pages."`
	Width    int      `default:"1280" help:"Viewport width in pixels for --url and --static."`
	Height   int      `default:"800" help:"Viewport height in pixels for --url and --static."`
	Static   []string `help:"Static map view as lat,lon[,zoom] (repeatable)."`
	Provider string   `help:"Tile provider for --static views (e.g., osm, opentopomap)."`
	Image    []string `help:"Previously saved frame to include (repeatable)."`

	// Output options (override config)
	Format  *string `short:"f" help:"Output format: image-lossless (png), image-compressed (jpg) or document (pdf)."`
	Out     *string `short:"o" help:"Download directory."`
	Prefix  *string `help:"Filename prefix (default: map-capture)."`
	Quality *int    `short:"q" help:"JPEG quality (1-100)."`
	Report  string  `help:"Write a capture summary to this file (Markdown, or JSON for .json)."`

	// Notifications
	DesktopNotify bool `help:"Show desktop notifications."`
	WarnOnSkipped bool `help:"Warn when some viewports could not be captured."`

	// Debug options
	Debug    bool   `short:"d" help:"Enable debug output."`
	DebugDir string `default:"./debug" help:"Directory for debug output."`

	// Browser options
	NoHeadless        bool   `help:"Run browser in non-headless mode."`
	ChromePath        string `help:"Path to Chrome executable (falls back to CHROME_PATH env, then system default)."`
	IgnoreHTTPSErrors bool   `help:"Ignore HTTPS certificate errors."`
	ProxyServer       string `help:"HTTP proxy server (e.g., http://proxy:8080)."`

	// Logging options
	LogLevel string `short:"l" help:"Log level: debug, info, warn or error (default: info)."`
	Quiet    bool   `short:"Q" help:"Suppress all log output."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

var version = "dev"

func main() {
	cli := CLI{}

	ctx := kong.Parse(&cli,
		kong.Name("mapshot"),
		kong.Description("Save the current view of map viewports as images or a PDF."),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

// Run executes the capture command.
func (cmd *CaptureCmd) Run() error {
	cfg, err := cmd.buildConfig()
	if err != nil {
		return err
	}
	format, err := pipeline.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	exporterConfig, err := cfg.ExporterConfig()
	if err != nil {
		return err
	}
	exporterConfig.NotifySuccess = true

	level, _ := ports.ParseLogLevel(cfg.LogLevel)
	var log ports.Logger
	if cmd.Quiet || level == ports.LevelQuiet {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	fs := osfilesystem.New()
	renderer := ggrenderer.New()

	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs)
	} else {
		sink = nullsink.New()
	}

	notifier := notify.Multi{notify.NewConsole(log)}
	if cfg.DesktopNotify {
		notifier = append(notifier, notify.NewDesktop("mapshot", "", log))
	}

	factory := newViewportFactory(cfg, fs, renderer, log)
	defer factory.Close()
	viewports, err := factory.Build(ctx)
	if err != nil {
		return err
	}

	exp := exporter.New(
		resolve.NewStage(renderer, sink, log),
		raster.NewStage(renderer, log),
		document.NewStage(fpdfassembler.New(), renderer, log),
		dirdownload.New(cfg.DownloadDir, fs, log),
		notifier,
		sink,
		log,
		exporterConfig,
	)

	result, captureErr := exp.Execute(ctx, pipeline.CaptureRequest{
		Format:    format,
		Viewports: viewports,
	})

	if cfg.Report != "" && !errors.Is(captureErr, exporter.ErrCaptureInProgress) {
		if err := cmd.writeReport(cfg, result, fs); err != nil {
			log.Error("Failed to write output: %s", err)
		} else {
			log.Info("Report written to %s", cfg.Report)
		}
	}

	return captureErr
}

// buildConfig loads the config file, if any, and applies CLI overrides.
func (cmd *CaptureCmd) buildConfig() (config.Config, error) {
	cfg := config.Defaults()
	if cmd.Config != "" {
		loaded, err := config.LoadFromFile(cmd.Config)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Format != nil {
		cfg.Format = *cmd.Format
	}
	if cmd.Out != nil {
		cfg.DownloadDir = *cmd.Out
	}
	if cmd.Prefix != nil {
		cfg.Prefix = *cmd.Prefix
	}
	if cmd.Quality != nil {
		cfg.Quality = *cmd.Quality
	}
	if cmd.Report != "" {
		cfg.Report = cmd.Report
	}
	if cmd.LogLevel != "" {
		cfg.LogLevel = cmd.LogLevel
	}
	if cmd.DesktopNotify {
		cfg.DesktopNotify = true
	}
	if cmd.WarnOnSkipped {
		cfg.WarnOnSkipped = true
	}
	if cmd.Debug {
		cfg.Debug = true
		cfg.DebugDir = cmd.DebugDir
	}

	if cmd.NoHeadless {
		cfg.Browser.Headless = false
	}
	if cmd.ChromePath != "" {
		cfg.Browser.ChromePath = cmd.ChromePath
	}
	if cmd.IgnoreHTTPSErrors {
		cfg.Browser.IgnoreHTTPSErrors = true
	}
	if cmd.ProxyServer != "" {
		cfg.Browser.ProxyServer = cmd.ProxyServer
	}

	extra, err := cmd.flagViewports(len(cfg.Viewports))
	if err != nil {
		return cfg, err
	}
	cfg.Viewports = append(cfg.Viewports, extra...)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (cmd *CaptureCmd) writeReport(cfg config.Config, result exporter.Result, fs ports.FileSystem) error {
	page, _ := cfg.Page.PageGeometry()
	summary := summarizer.FromResult(result).
		WithSettings(summarizer.Settings{
			Prefix:      cfg.Prefix,
			Quality:     cfg.Quality,
			PageWidth:   page.Width,
			PageHeight:  page.Height,
			PageMargin:  page.Margin,
			DownloadDir: cfg.DownloadDir,
		}).
		Build()

	formatter := summarizer.ForPath(cfg.Report,
		summarizer.WithTranslator(l10n.T),
		summarizer.WithVersion(version),
	)
	return summarizer.NewWriter(formatter, fs).Write(cfg.Report, summary)
}

// Run executes the version command.
func (cmd *VersionCmd) Run() error {
	fmt.Println(l10n.F("mapshot version %s", version))
	return nil
}
