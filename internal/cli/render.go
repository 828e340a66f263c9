package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/comboom/pkg/layout"
	"github.com/matzehuels/comboom/pkg/pipeline"
	"github.com/matzehuels/comboom/pkg/render"
)

// renderFlags holds the screenshot flags shared by settle and render.
type renderFlags struct {
	formats string
	engine  string
	width   int
	height  int
	labels  bool
}

func (f *renderFlags) register(cmd *cobra.Command, defaultFormats string) {
	def := render.DefaultOptions()
	cmd.Flags().StringVarP(&f.formats, "format", "f", defaultFormats, "output format(s): svg, png, pdf, dot (comma-separated)")
	cmd.Flags().StringVar(&f.engine, "engine", string(def.Engine), "svg engine: native, graphviz")
	cmd.Flags().IntVar(&f.width, "width", def.Width, "canvas width in pixels")
	cmd.Flags().IntVar(&f.height, "height", def.Height, "canvas height in pixels")
	cmd.Flags().BoolVar(&f.labels, "labels", def.Labels, "draw member and cluster names")
}

// options overlays the flags the user set on base.
func (f *renderFlags) options(cmd *cobra.Command, base render.Options) render.Options {
	flags := cmd.Flags()
	if flags.Changed("engine") {
		base.Engine = render.Engine(f.engine)
	}
	if flags.Changed("width") {
		base.Width = f.width
	}
	if flags.Changed("height") {
		base.Height = f.height
	}
	if flags.Changed("labels") {
		base.Labels = f.labels
	}
	return base
}

// renderCommand creates the render command for screenshots of a snapshot.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags   renderFlags
		output  string
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "render [snapshot.json]",
		Short: "Render a snapshot to SVG, PNG, PDF or DOT",
		Long: `Render a snapshot to SVG, PNG, PDF or DOT.

The render command takes a snapshot file (produced by 'settle' or exported
with 'snapshots export') and draws it. Members keep their settled positions;
nothing is simulated.

PNG and PDF need rsvg-convert from librsvg. Results are cached locally.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeSnapshotFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, dot, err := parseFormats(flags.formats)
			if err != nil {
				return err
			}
			cfg, _, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := pipeline.Options{
				Formats: formats,
				Render:  flags.options(cmd, cfg.Render),
				Refresh: refresh,
				Logger:  c.Logger,
			}
			runner, err := c.newRunner(cmd.Context(), cfg.Cache, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			return c.runRender(cmd.Context(), runner, args[0], opts, dot, output)
		},
	}

	flags.register(cmd, "svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached screenshots")

	return cmd
}

// runRender loads the snapshot and renders it.
func (c *CLI) runRender(ctx context.Context, runner *pipeline.Runner, input string, opts pipeline.Options, dot bool, output string) error {
	snap, err := layout.ReadSnapshotFile(input)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", input, err)
	}
	c.Logger.Debug("loaded snapshot", "members", len(snap.Members), "tick", snap.Tick)

	return c.renderSnapshot(ctx, runner, snap, opts, dot, input, output)
}

// renderSnapshot renders snap in every requested format and writes the files
// next to input unless output says otherwise.
func (c *CLI) renderSnapshot(ctx context.Context, runner *pipeline.Runner, snap layout.Snapshot, opts pipeline.Options, dot bool, input, output string) error {
	p := artifactWriteParams{
		formats: opts.Formats,
		input:   input,
		output:  output,
	}

	if len(opts.Formats) > 0 {
		spinner := newSpinner(ctx, os.Stderr, fmt.Sprintf("Rendering %d members", len(snap.Members)), 0)
		spinner.Start()

		artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, snap, opts)
		if err != nil {
			spinner.Fail("Rendering failed")
			return fmt.Errorf("render: %w", err)
		}
		spinner.Stop()
		p.artifacts = artifacts
		p.cacheHit = cacheHit
	}
	if dot {
		p.dot = render.ToDOT(snap, render.DOTOptions{Labels: opts.Render.Labels})
	}

	return writeArtifacts(p)
}

// =============================================================================
// Output
// =============================================================================

type artifactWriteParams struct {
	artifacts map[render.Format][]byte
	formats   []render.Format
	dot       string
	input     string
	output    string
	cacheHit  bool
}

// writeArtifacts writes every artifact and DOT source to disk.
func writeArtifacts(p artifactWriteParams) error {
	count := len(p.formats)
	if p.dot != "" {
		count++
	}
	if count == 0 {
		return nil
	}
	single := count == 1

	var paths []string
	for _, f := range p.formats {
		path := outputPath(p.input, p.output, string(f), single)
		if err := writeFile(path, p.artifacts[f]); err != nil {
			return err
		}
		paths = append(paths, path)
	}
	if p.dot != "" {
		path := outputPath(p.input, p.output, formatDOT, single)
		if err := writeFile(path, []byte(p.dot)); err != nil {
			return err
		}
		paths = append(paths, path)
	}

	printSuccess("Rendered %d file(s) %s", len(paths), StyleDim.Render("(")+cacheLabel(p.cacheHit)+StyleDim.Render(")"))
	for _, path := range paths {
		printFile(path)
	}
	return nil
}

// writeFile writes data to path, creating parent directories.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
