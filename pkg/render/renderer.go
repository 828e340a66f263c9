package render

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/comboom/pkg/cache"
	errs "github.com/matzehuels/comboom/pkg/errors"
	"github.com/matzehuels/comboom/pkg/layout"
	"github.com/matzehuels/comboom/pkg/observability"
)

// Renderer produces screenshots, serving repeats from a cache.
type Renderer struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRenderer creates a renderer. Nil arguments get a null cache, the
// default keyer and a discarding logger.
func NewRenderer(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Renderer {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Renderer{Cache: c, Keyer: keyer, Logger: logger}
}

// Render draws snap with opts. The boolean reports a cache hit.
func (r *Renderer) Render(ctx context.Context, snap layout.Snapshot, opts Options) ([]byte, bool, error) {
	if opts.Format == "" {
		opts.Format = FormatSVG
	}
	if opts.Engine == "" {
		opts.Engine = EngineNative
	}
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}

	key, err := r.key(snap, opts)
	if err != nil {
		return nil, false, err
	}
	if data, ok, err := r.Cache.Get(ctx, key); err != nil {
		r.Logger.Warn("cache read failed", "error", err)
	} else if ok {
		r.Logger.Debug("screenshot cache hit", "format", opts.Format)
		return data, true, nil
	}

	formats := []string{string(opts.Format)}
	hooks := observability.Render()
	hooks.OnRenderStart(ctx, formats)
	start := time.Now()

	data, err := r.render(ctx, snap, opts)
	hooks.OnRenderComplete(ctx, formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}
	r.Logger.Debug("screenshot rendered", "format", opts.Format, "engine", opts.Engine, "bytes", len(data), "took", time.Since(start))

	if err := r.Cache.Set(ctx, key, data, cache.TTLRender); err != nil {
		r.Logger.Warn("cache write failed", "error", err)
	}
	return data, false, nil
}

func (r *Renderer) render(ctx context.Context, snap layout.Snapshot, opts Options) ([]byte, error) {
	var svg []byte
	switch opts.Engine {
	case EngineGraphviz:
		var err error
		svg, err = RenderGraphviz(ctx, ToDOT(snap, DOTOptions{Labels: opts.Labels}))
		if err != nil {
			return nil, err
		}
	default:
		svgOpts := []SVGOption{WithSize(opts.Width, opts.Height)}
		if !opts.Labels {
			svgOpts = append(svgOpts, WithoutLabels())
		}
		svg = RenderSVG(snap, svgOpts...)
	}
	return convert(ctx, svg, opts)
}

func (r *Renderer) key(snap layout.Snapshot, opts Options) (string, error) {
	h, err := cache.HashJSON(snap)
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeInternal, err, "hash snapshot")
	}
	return r.Keyer.RenderKey(h, cache.RenderKeyOpts{
		Format: string(opts.Format),
		Engine: string(opts.Engine),
		Width:  opts.Width,
		Height: opts.Height,
		Labels: opts.Labels,
	}), nil
}
