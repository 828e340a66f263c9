// Package pipeline runs layouts headless: load a manifest, step the
// simulation for a fixed number of frames, and render the result.
//
// The CLI's settle and render commands and any batch job share this package
// so that they behave the same and share one cache.
//
// # Architecture
//
// The pipeline has two stages:
//
//  1. Settle: load the manifest and step a [layout.Simulation] for Frames
//     frames, producing a [layout.Snapshot]
//  2. Render: draw the snapshot as SVG, PNG or PDF
//
// Each stage can run on its own. Both are cached by content hash when the
// run is reproducible, that is when a seed is given.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Manifest: m,
//	    Seed:     7,
//	    Formats:  []render.Format{render.FormatSVG},
//	})
//	svg := result.Artifacts[render.FormatSVG]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/comboom/pkg/cache"
	"github.com/matzehuels/comboom/pkg/combo"
	errs "github.com/matzehuels/comboom/pkg/errors"
	"github.com/matzehuels/comboom/pkg/layout"
	"github.com/matzehuels/comboom/pkg/render"
	"github.com/matzehuels/comboom/pkg/vec"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultFrames runs well past the settle transition so that edge
	// relaxation has converged once repulsion has eased off.
	DefaultFrames = 600

	// DefaultAreaRadius is the half-width of the square new members are
	// scattered over.
	DefaultAreaRadius = 1000.0

	// maxFrames bounds a single headless run.
	maxFrames = 1_000_000
)

// =============================================================================
// Options
// =============================================================================

// Options configures a pipeline run.
type Options struct {
	// Manifest is the layout to settle.
	Manifest combo.Manifest

	// Layout tunes the simulation. The zero value means layout.DefaultConfig.
	Layout layout.Config
	// Area is where new members are scattered. The zero value means a
	// square of radius DefaultAreaRadius around the origin.
	Area vec.Rect
	// Frames is the number of frames to step. Zero means DefaultFrames.
	Frames int
	// Seed makes placement reproducible. Zero picks a random seed and
	// disables the settle cache.
	Seed uint64
	// Refresh skips cache reads but still writes.
	Refresh bool

	// Formats to render. Empty means SVG only.
	Formats []render.Format
	// Render holds size, engine and labels. Format is taken from Formats.
	Render render.Options

	// OnFrame, when set, is called with the number of completed frames every
	// few frames during a settle and once at the end. It is not called when
	// the settled snapshot comes from the cache.
	OnFrame func(done, total int)

	Logger *log.Logger
}

// SetDefaults fills zero fields with their defaults.
func (o *Options) SetDefaults() {
	if o.Layout == (layout.Config{}) {
		o.Layout = layout.DefaultConfig()
	}
	if o.Area == (vec.Rect{}) {
		o.Area = vec.FromRadii(DefaultAreaRadius, DefaultAreaRadius)
	}
	if o.Frames == 0 {
		o.Frames = DefaultFrames
	}
	if len(o.Formats) == 0 {
		o.Formats = []render.Format{render.FormatSVG}
	}
	if o.Render == (render.Options{}) {
		o.Render = render.DefaultOptions()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForSettle checks the inputs of the settle stage.
func (o *Options) ValidateForSettle() error {
	o.SetDefaults()
	if o.Frames < 1 || o.Frames > maxFrames {
		return errs.New(errs.ErrCodeInvalidInput, "frames must be between 1 and %d (got %d)", maxFrames, o.Frames)
	}
	size := o.Area.Size()
	if size.X <= 0 || size.Y <= 0 {
		return errs.New(errs.ErrCodeInvalidInput, "placement area %v is empty", o.Area)
	}
	if err := o.Layout.Validate(); err != nil {
		return err
	}
	return o.Manifest.Validate()
}

// ValidateForRender checks the inputs of the render stage.
func (o *Options) ValidateForRender() error {
	o.SetDefaults()
	for _, f := range o.Formats {
		if _, err := render.ParseFormat(string(f)); err != nil {
			return err
		}
	}
	return o.renderOptions(render.FormatSVG).Validate()
}

// Reproducible reports whether the settle stage is deterministic.
func (o *Options) Reproducible() bool { return o.Seed != 0 }

// renderOptions returns the render options for one format.
func (o *Options) renderOptions(f render.Format) render.Options {
	opts := o.Render
	opts.Format = f
	if opts.Engine == "" {
		opts.Engine = render.EngineNative
	}
	return opts
}

// SettleKeyOpts returns the cache key inputs besides the manifest.
func (o *Options) SettleKeyOpts() (cache.SettleKeyOpts, error) {
	h, err := cache.HashJSON(struct {
		Layout layout.Config `json:"layout"`
		Area   vec.Rect      `json:"area"`
	}{o.Layout, o.Area})
	if err != nil {
		return cache.SettleKeyOpts{}, errs.Wrap(errs.ErrCodeInternal, err, "hash settle options")
	}
	return cache.SettleKeyOpts{Frames: o.Frames, Seed: o.Seed, ConfigHash: h}, nil
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// Snapshot is the settled layout.
	Snapshot layout.Snapshot

	// ManifestHash is the content hash of the manifest.
	ManifestHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[render.Format][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Members    int
	Clusters   int
	Relations  int
	Frames     int
	SettleTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	SettleHit bool // snapshot came from cache
	RenderHit bool // every artifact came from cache
}

// ManifestHash returns the content hash of m.
func ManifestHash(m combo.Manifest) (string, error) {
	h, err := cache.HashJSON(m)
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeInternal, err, "hash manifest")
	}
	return h, nil
}
