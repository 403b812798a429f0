// Package resolve implements the surface resolution stage.
package resolve

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/user/mapshot/pkg/pipeline"
	"github.com/user/mapshot/pkg/ports"
)

// Stage reads the current surface of each viewport and drops those that
// have nothing to draw.
type Stage struct {
	renderer ports.Renderer
	sink     ports.DebugSink
	logger   ports.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewStage creates a new resolve stage.
func NewStage(renderer ports.Renderer, sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		renderer: renderer,
		sink:     sink,
		logger:   logger.WithComponent("resolve"),
		sleep:    sleepContext,
	}
}

// Execute settles the viewports and resolves their surfaces in order.
func (s *Stage) Execute(ctx context.Context, input pipeline.ResolveInput) (pipeline.ResolveResult, error) {
	result := pipeline.ResolveResult{
		Surfaces: []pipeline.Surface{},
	}
	if len(input.Viewports) == 0 {
		return result, nil
	}

	if err := s.settle(ctx, input); err != nil {
		return result, err
	}

	for i, vp := range input.Viewports {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		name := viewportName(vp, i)
		data, err := s.snapshot(ctx, vp)
		if err != nil {
			s.skip(&result, i, name, err)
			continue
		}

		img, err := s.renderer.DecodeImage(data, ports.FormatAuto)
		if err != nil {
			s.skip(&result, i, name, err)
			continue
		}

		surface := pipeline.Surface{
			Index:    len(result.Surfaces) + 1,
			Viewport: name,
			Image:    img,
			Raw:      data,
		}
		result.Surfaces = append(result.Surfaces, surface)

		if s.sink.Enabled() {
			s.sink.SaveSnapshot(surface.Index, name, data)
		}
	}

	s.logger.Debug("Resolved %d of %d viewport(s)", len(result.Surfaces), len(input.Viewports))
	return result, nil
}

// settle waits for in-flight redraws. Viewports that can signal stability are
// awaited; if any cannot, the fixed settle delay is slept once.
func (s *Stage) settle(ctx context.Context, input pipeline.ResolveInput) error {
	needDelay := false
	for i, vp := range input.Viewports {
		if vp == nil {
			continue
		}
		stabilizer, ok := vp.(ports.Stabilizer)
		if !ok {
			needDelay = true
			continue
		}
		name := viewportName(vp, i)
		s.logger.Debug("Waiting for viewport %s to settle", name)
		if err := stabilizer.WaitStable(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("Viewport %s did not settle: %s", name, err)
			needDelay = true
		}
	}

	if needDelay && input.SettleDelay > 0 {
		s.logger.Debug("Settling for %d ms", input.SettleDelay.Milliseconds())
		return s.sleep(ctx, input.SettleDelay)
	}
	return nil
}

func (s *Stage) snapshot(ctx context.Context, vp ports.Viewport) ([]byte, error) {
	if vp == nil {
		return nil, ports.ErrSurfaceUnavailable
	}
	surface, err := vp.Surface(ctx)
	if err != nil {
		return nil, err
	}
	if surface == nil {
		return nil, ports.ErrSurfaceUnavailable
	}
	data, err := surface.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ports.ErrSurfaceUnavailable
	}
	return data, nil
}

func (s *Stage) skip(result *pipeline.ResolveResult, i int, name string, err error) {
	reason := err.Error()
	if errors.Is(err, ports.ErrSurfaceUnavailable) {
		s.logger.Debug("Viewport %s skipped: %s", name, reason)
	} else {
		s.logger.Warn("Viewport %s skipped: %s", name, reason)
	}
	result.Skipped = append(result.Skipped, pipeline.SkippedViewport{
		Position: i + 1,
		Viewport: name,
		Reason:   reason,
	})
}

func viewportName(vp ports.Viewport, i int) string {
	if vp != nil {
		if name := vp.Name(); name != "" {
			return name
		}
	}
	return "viewport-" + strconv.Itoa(i+1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
