package main

import (
	"context"
	"fmt"

	"github.com/user/mapshot/pkg/adapters/chromeviewport"
	"github.com/user/mapshot/pkg/adapters/fileviewport"
	"github.com/user/mapshot/pkg/adapters/staticviewport"
	"github.com/user/mapshot/pkg/config"
	"github.com/user/mapshot/pkg/ports"
)

// flagViewports converts --url, --static and --image into viewport configs,
// numbering unnamed viewports after the offset configured ones.
func (cmd *CaptureCmd) flagViewports(offset int) ([]config.ViewportConfig, error) {
	var vps []config.ViewportConfig
	name := func(kind string) string {
		return fmt.Sprintf("%s-%d", kind, offset+len(vps)+1)
	}

	for _, url := range cmd.URL {
		vps = append(vps, config.ViewportConfig{
			Kind:     config.KindBrowser,
			Name:     name(config.KindBrowser),
			URL:      url,
			Selector: cmd.Selector,
			Width:    cmd.Width,
			Height:   cmd.Height,
		})
	}
	for _, spec := range cmd.Static {
		opts, err := staticviewport.ParseSpec(spec)
		if err != nil {
			return nil, err
		}
		vps = append(vps, config.ViewportConfig{
			Kind:     config.KindStatic,
			Name:     name(config.KindStatic),
			Lat:      opts.Lat,
			Lon:      opts.Lon,
			Zoom:     opts.Zoom,
			Width:    cmd.Width,
			Height:   cmd.Height,
			Provider: cmd.Provider,
		})
	}
	for _, path := range cmd.Image {
		vps = append(vps, config.ViewportConfig{
			Kind: config.KindFile,
			Name: name(config.KindFile),
			Path: path,
		})
	}
	return vps, nil
}

// viewportFactory creates viewports from config. Browser viewports share one
// browser, launched on first use.
type viewportFactory struct {
	cfg      config.Config
	fs       ports.FileSystem
	renderer ports.Renderer
	logger   ports.Logger

	session   *chromeviewport.Session
	launchErr error
}

func newViewportFactory(cfg config.Config, fs ports.FileSystem, renderer ports.Renderer, logger ports.Logger) *viewportFactory {
	return &viewportFactory{cfg: cfg, fs: fs, renderer: renderer, logger: logger}
}

// Build creates every configured viewport in order. Browser viewports that fail
// to open are kept as unavailable viewports so the capture reports them skipped.
func (f *viewportFactory) Build(ctx context.Context) ([]ports.Viewport, error) {
	vps := make([]ports.Viewport, 0, len(f.cfg.Viewports))
	for i, vc := range f.cfg.Viewports {
		if vc.Name == "" {
			vc.Name = fmt.Sprintf("%s-%d", vc.Kind, i+1)
		}
		switch vc.Kind {
		case config.KindBrowser:
			vp, err := f.openBrowser(ctx, vc)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				f.logger.Warn("Viewport %s skipped: %s", vc.Name, err)
				vps = append(vps, unavailableViewport{name: vc.Name, err: err})
				continue
			}
			vps = append(vps, vp)
		case config.KindStatic:
			opts := staticviewport.DefaultOptions(vc.Lat, vc.Lon)
			if vc.Zoom > 0 {
				opts.Zoom = vc.Zoom
			}
			if vc.Width > 0 && vc.Height > 0 {
				opts.Width, opts.Height = vc.Width, vc.Height
			}
			if vc.Provider != "" {
				opts.Provider = vc.Provider
			}
			vps = append(vps, staticviewport.New(vc.Name, opts, f.renderer))
		case config.KindFile:
			vps = append(vps, fileviewport.New(vc.Name, vc.Path, f.fs))
		default:
			return nil, fmt.Errorf("unknown viewport kind %q", vc.Kind)
		}
	}
	return vps, nil
}

func (f *viewportFactory) openBrowser(ctx context.Context, vc config.ViewportConfig) (ports.Viewport, error) {
	if f.launchErr != nil {
		return nil, f.launchErr
	}
	if f.session == nil {
		session := chromeviewport.NewSession(f.logger)
		b := f.cfg.Browser
		err := session.Launch(ctx, chromeviewport.Options{
			Headless:          b.Headless,
			ChromePath:        b.ChromePath,
			Incognito:         b.Incognito,
			UserAgent:         b.UserAgent,
			IgnoreHTTPSErrors: b.IgnoreHTTPSErrors,
			ProxyServer:       b.ProxyServer,
			Headers:           b.Headers,
		})
		if err != nil {
			f.logger.Error("Failed to launch browser: %s", err)
			f.launchErr = err
			return nil, err
		}
		f.session = session
	}

	opts := chromeviewport.DefaultViewportOptions(vc.Name, vc.URL)
	if vc.Selector != "" {
		opts.Selector = vc.Selector
	}
	if vc.Width > 0 && vc.Height > 0 {
		opts.Width, opts.Height = vc.Width, vc.Height
	}
	if vc.MapGlobal != "" {
		opts.MapGlobal = vc.MapGlobal
	}
	return f.session.Open(ctx, opts)
}

// Close shuts the browser down if one was launched.
func (f *viewportFactory) Close() {
	if f.session != nil {
		f.session.Close()
	}
}

// unavailableViewport stands in for a viewport that could not be opened.
type unavailableViewport struct {
	name string
	err  error
}

func (v unavailableViewport) Name() string {
	return v.name
}

func (v unavailableViewport) Surface(ctx context.Context) (ports.Surface, error) {
	return nil, fmt.Errorf("%w: %v", ports.ErrSurfaceUnavailable, v.err)
}
