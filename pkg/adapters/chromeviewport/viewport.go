package chromeviewport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/user/mapshot/pkg/ports"
)

// Viewport is one map page in a browser tab.
type Viewport struct {
	opts   ViewportOptions
	ctx    context.Context
	cancel context.CancelFunc
}

// Name returns the viewport name.
func (v *Viewport) Name() string {
	return v.opts.Name
}

// Options returns the options the viewport was opened with.
func (v *Viewport) Options() ViewportOptions {
	return v.opts
}

// Surface reports the map canvas, or ErrSurfaceUnavailable when the page has no
// canvas or it has no drawable area yet.
func (v *Viewport) Surface(ctx context.Context) (ports.Surface, error) {
	var ready bool
	if err := v.run(ctx, chromedp.Evaluate(canvasReadyScript(v.opts.Selector), &ready)); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrSurfaceUnavailable, err)
	}
	if !ready {
		return nil, ports.ErrSurfaceUnavailable
	}
	return &surface{viewport: v}, nil
}

// WaitStable resolves once the map reports idle, or after two animation frames when
// no map object is exposed.
func (v *Viewport) WaitStable(ctx context.Context) error {
	timeout := v.opts.StableTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var done bool
	err := v.run(waitCtx, chromedp.Evaluate(stableScript(v.opts.MapGlobal), &done,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}))
	if err != nil {
		return fmt.Errorf("wait stable: %w", err)
	}
	return nil
}

var (
	_ ports.Viewport   = (*Viewport)(nil)
	_ ports.Stabilizer = (*Viewport)(nil)
)

// run executes actions in the tab, stopping early when ctx is cancelled.
func (v *Viewport) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(v.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

type surface struct {
	viewport *Viewport
}

// Snapshot screenshots the canvas element as PNG.
func (s *surface) Snapshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.viewport.run(ctx, chromedp.Screenshot(s.viewport.opts.Selector, &buf, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

func canvasReadyScript(selector string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el) return false;
	const r = el.getBoundingClientRect();
	return r.width > 0 && r.height > 0;
})()`, jsString(selector))
}

func stableScript(mapGlobal string) string {
	return fmt.Sprintf(`new Promise((resolve) => {
	const frames = () => requestAnimationFrame(() => requestAnimationFrame(() => resolve(true)));
	const map = %s ? window[%s] : undefined;
	if (map && typeof map.loaded === 'function' && typeof map.once === 'function' && !map.loaded()) {
		map.once('idle', () => frames());
		return;
	}
	frames();
})`, jsString(mapGlobal), jsString(mapGlobal))
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
