// Package chromeviewport provides live map viewports rendered in headless Chrome.
package chromeviewport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/user/mapshot/pkg/ports"
)

// Options configures the browser process.
type Options struct {
	Headless          bool
	ChromePath        string
	Incognito         bool
	UserAgent         string
	IgnoreHTTPSErrors bool
	ProxyServer       string
	Headers           map[string]string
}

// DefaultOptions returns headless defaults.
func DefaultOptions() Options {
	return Options{Headless: true}
}

// ViewportOptions describes one map page.
type ViewportOptions struct {
	Name              string
	URL               string
	Selector          string // CSS selector of the map canvas
	Width             int
	Height            int
	DeviceScaleFactor float64
	MapGlobal         string        // global map object exposing loaded()/once("idle")
	StableTimeout     time.Duration // upper bound for WaitStable
}

// DefaultViewportOptions returns a 1280x800 viewport targeting the first canvas.
func DefaultViewportOptions(name, url string) ViewportOptions {
	return ViewportOptions{
		Name:              name,
		URL:               url,
		Selector:          "canvas",
		Width:             1280,
		Height:            800,
		DeviceScaleFactor: 1,
		MapGlobal:         "map",
		StableTimeout:     5 * time.Second,
	}
}

// Session owns one browser process. Each opened viewport is a tab in it.
type Session struct {
	logger ports.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc

	mu        sync.Mutex
	viewports []*Viewport
}

// NewSession creates an unlaunched session.
func NewSession(logger ports.Logger) *Session {
	return &Session{logger: logger.WithComponent("browser")}
}

// Launch starts the browser.
func (s *Session) Launch(ctx context.Context, opts Options) error {
	if opts.Headless {
		s.logger.Debug("Launching browser in headless mode")
	} else {
		s.logger.Debug("Launching browser in visible mode")
	}

	chromePath := ResolveChromePath(opts.ChromePath)
	if chromePath == "" {
		return fmt.Errorf("chrome not found: please install Chrome/Chromium, set CHROME_PATH environment variable, or use --chrome-path option")
	}

	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(ctx, allocatorOptions(opts, chromePath)...)
	s.ctx, s.cancel = chromedp.NewContext(s.allocCtx)

	// The first Run starts the browser process.
	if err := chromedp.Run(s.ctx); err != nil {
		s.Close()
		return fmt.Errorf("start browser: %w", err)
	}

	if len(opts.Headers) > 0 {
		headers := make(network.Headers, len(opts.Headers))
		for k, v := range opts.Headers {
			headers[k] = v
		}
		if err := chromedp.Run(s.ctx, network.Enable(), network.SetExtraHTTPHeaders(headers)); err != nil {
			s.Close()
			return fmt.Errorf("set headers: %w", err)
		}
	}

	return nil
}

func allocatorOptions(opts Options, chromePath string) []chromedp.ExecAllocatorOption {
	flags := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.ExecPath(chromePath),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("no-zygote", true),
		// WebGL map canvases need a GL backend even when headless.
		chromedp.Flag("use-angle", "swiftshader"),
		chromedp.Flag("enable-unsafe-swiftshader", true),
	}

	if opts.Headless {
		flags = append(flags, chromedp.Flag("headless", "new"))
	}
	if opts.Incognito {
		flags = append(flags, chromedp.Flag("incognito", true))
	}
	if opts.UserAgent != "" {
		flags = append(flags, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.IgnoreHTTPSErrors {
		flags = append(flags,
			chromedp.Flag("ignore-certificate-errors", true),
			chromedp.Flag("allow-insecure-localhost", true))
	}
	if opts.ProxyServer != "" {
		flags = append(flags, chromedp.Flag("proxy-server", opts.ProxyServer))
	}
	return flags
}

// Open navigates a new tab to the viewport URL and waits for the selector to appear.
func (s *Session) Open(ctx context.Context, opts ViewportOptions) (*Viewport, error) {
	if s.ctx == nil {
		return nil, fmt.Errorf("browser not launched")
	}
	if opts.Selector == "" {
		opts.Selector = "canvas"
	}
	if opts.DeviceScaleFactor <= 0 {
		opts.DeviceScaleFactor = 1
	}
	s.logger.Info("Opening viewport %s at %s", opts.Name, opts.URL)

	tabCtx, tabCancel := chromedp.NewContext(s.ctx)
	vp := &Viewport{opts: opts, ctx: tabCtx, cancel: tabCancel}

	// The target lives as long as the context of its first Run.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}

	err := vp.run(ctx,
		emulation.SetDeviceMetricsOverride(int64(opts.Width), int64(opts.Height), opts.DeviceScaleFactor, false),
		chromedp.Navigate(opts.URL),
		chromedp.WaitReady(opts.Selector, chromedp.ByQuery),
	)
	if err != nil {
		tabCancel()
		return nil, fmt.Errorf("open %s: %w", opts.URL, err)
	}

	s.mu.Lock()
	s.viewports = append(s.viewports, vp)
	s.mu.Unlock()
	return vp, nil
}

// Close closes every tab and shuts the browser down.
func (s *Session) Close() error {
	s.mu.Lock()
	for _, vp := range s.viewports {
		vp.cancel()
	}
	s.viewports = nil
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	// Give Chrome a moment to exit before the allocator kills it.
	time.Sleep(100 * time.Millisecond)
	if s.allocCancel != nil {
		s.allocCancel()
	}
	s.logger.Debug("Browser closed")
	return nil
}
