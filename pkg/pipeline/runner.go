package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/comboom/pkg/cache"
	"github.com/matzehuels/comboom/pkg/combo"
	errs "github.com/matzehuels/comboom/pkg/errors"
	"github.com/matzehuels/comboom/pkg/layout"
	"github.com/matzehuels/comboom/pkg/render"
)

// ctxCheckEvery is how many frames run between cancellation checks.
const ctxCheckEvery = 64

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger; it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs settle then render.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForSettle(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := opts.ValidateForRender(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}
	h, err := ManifestHash(opts.Manifest)
	if err != nil {
		return nil, err
	}
	result.ManifestHash = h

	settleStart := time.Now()
	snap, settleHit, err := r.SettleWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}
	result.Snapshot = snap
	result.Stats = Stats{
		Members:    len(snap.Members),
		Clusters:   len(snap.Clusters),
		Relations:  len(snap.Edges),
		Frames:     opts.Frames,
		SettleTime: time.Since(settleStart),
	}
	result.CacheInfo.SettleHit = settleHit

	r.Logger.Info("settled layout",
		"members", result.Stats.Members,
		"clusters", result.Stats.Clusters,
		"frames", opts.Frames,
		"duration", result.Stats.SettleTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, snap, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// SettleWithCacheInfo settles the manifest, serving reproducible runs from
// the cache, and reports whether the cache was hit.
func (r *Runner) SettleWithCacheInfo(ctx context.Context, opts Options) (layout.Snapshot, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForSettle(); err != nil {
		return layout.Snapshot{}, false, err
	}
	if !opts.Reproducible() {
		snap, err := Settle(ctx, opts)
		return snap, false, err
	}

	key, err := r.settleKey(opts)
	if err != nil {
		return layout.Snapshot{}, false, err
	}

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if snap, err := layout.ReadSnapshot(bytes.NewReader(data)); err == nil {
				return snap, true, nil
			}
			// If decoding fails, fall through to recompute
		}
	}

	snap, err := Settle(ctx, opts)
	if err != nil {
		return layout.Snapshot{}, false, err
	}

	var buf bytes.Buffer
	if err := layout.WriteSnapshot(snap, &buf); err == nil {
		if err := r.Cache.Set(ctx, key, buf.Bytes(), cache.TTLSettle); err != nil {
			r.Logger.Warn("cache write failed", "error", err)
		}
	}
	return snap, false, nil
}

// RenderWithCacheInfo renders snap in every requested format and reports
// whether all of them came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, snap layout.Snapshot, opts Options) (map[render.Format][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	renderer := render.NewRenderer(r.Cache, r.Keyer, opts.Logger)
	if opts.Refresh {
		renderer.Cache = refreshCache{r.Cache}
	}

	allCached := true
	artifacts := make(map[render.Format][]byte, len(opts.Formats))
	for _, f := range opts.Formats {
		data, hit, err := renderer.Render(ctx, snap, opts.renderOptions(f))
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", f, err)
		}
		artifacts[f] = data
		allCached = allCached && hit
	}
	return artifacts, allCached, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) settleKey(opts Options) (string, error) {
	h, err := ManifestHash(opts.Manifest)
	if err != nil {
		return "", err
	}
	keyOpts, err := opts.SettleKeyOpts()
	if err != nil {
		return "", err
	}
	return r.Keyer.SettleKey(h, keyOpts), nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// =============================================================================
// Settle
// =============================================================================

// Settle loads the manifest and steps a fresh simulation opts.Frames times.
// It checks ctx between batches of frames.
func Settle(ctx context.Context, opts Options) (layout.Snapshot, error) {
	if err := opts.ValidateForSettle(); err != nil {
		return layout.Snapshot{}, err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	store, err := combo.Load(opts.Manifest, opts.Area, rand.New(rand.NewPCG(seed, seed)))
	if err != nil {
		return layout.Snapshot{}, err
	}
	sim, err := layout.New(store, opts.Layout, layout.WithLogger(opts.Logger))
	if err != nil {
		return layout.Snapshot{}, err
	}

	for i := range opts.Frames {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return layout.Snapshot{}, errs.Wrap(errs.ErrCodeInternal, err, "settle interrupted at frame %d", i)
			}
			if opts.OnFrame != nil {
				opts.OnFrame(i, opts.Frames)
			}
		}
		sim.Step(0)
	}
	if opts.OnFrame != nil {
		opts.OnFrame(opts.Frames, opts.Frames)
	}
	opts.Logger.Debug("settle finished", "frames", opts.Frames, "settled", sim.Settled(), "seed", seed)
	return sim.Snapshot(), nil
}

// refreshCache turns every read into a miss so that results are recomputed
// and written back.
type refreshCache struct{ cache.Cache }

func (refreshCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
