package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/comboom/internal/config"
	"github.com/matzehuels/comboom/pkg/combo"
	"github.com/matzehuels/comboom/pkg/layout"
	"github.com/matzehuels/comboom/pkg/pipeline"
	"github.com/matzehuels/comboom/pkg/store"
)

// settleParams holds the settle command's flags.
type settleParams struct {
	frames  int
	seed    uint64
	output  string
	save    bool
	name    string
	noCache bool
	refresh bool
	render  renderFlags
}

// settleCommand creates the settle command for headless layouts.
func (c *CLI) settleCommand() *cobra.Command {
	var p settleParams

	cmd := &cobra.Command{
		Use:   "settle [manifest]",
		Short: "Settle a manifest headless and write a snapshot",
		Long: `Settle a manifest headless and write a snapshot.

The settle command loads a manifest (.json, .toml or .yaml), steps the
layout for a fixed number of frames without a terminal, and writes the
resulting snapshot next to the manifest.

With --seed the run is reproducible and cached. Add --format to render
screenshots in the same step, and --save to keep the snapshot in the
snapshot store.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeManifest,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := c.loadConfig()
			if err != nil {
				return err
			}
			return c.runSettle(cmd, args[0], cfg, p)
		},
	}

	cmd.Flags().IntVarP(&p.frames, "frames", "n", pipeline.DefaultFrames, "number of frames to step")
	cmd.Flags().Uint64Var(&p.seed, "seed", 0, "placement seed (0 picks one at random and skips the cache)")
	cmd.Flags().StringVarP(&p.output, "output", "o", "", "snapshot file (default <manifest>.snapshot.json)")
	cmd.Flags().BoolVar(&p.save, "save", false, "also save the snapshot to the snapshot store")
	cmd.Flags().StringVar(&p.name, "name", "", "name of the saved snapshot (default manifest file name)")
	cmd.Flags().BoolVar(&p.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&p.refresh, "refresh", false, "ignore cached results")
	p.render.register(cmd, "")

	return cmd
}

// runSettle settles the manifest, writes the snapshot and any screenshots.
func (c *CLI) runSettle(cmd *cobra.Command, input string, cfg config.Config, p settleParams) error {
	ctx := cmd.Context()

	formats, dot, err := parseFormats(p.render.formats)
	if err != nil {
		return err
	}
	if strings.TrimSpace(p.render.formats) == "" {
		formats = nil
	}

	m, err := combo.ReadManifestFile(input)
	if err != nil {
		return fmt.Errorf("load manifest %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, cfg.Cache, p.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		Manifest: m,
		Layout:   cfg.Layout,
		Area:     cfg.Area.Rect(),
		Frames:   p.frames,
		Seed:     p.seed,
		Refresh:  p.refresh,
		Formats:  formats,
		Render:   p.render.options(cmd, cfg.Render),
		Logger:   c.Logger,
	}

	opts.SetDefaults()
	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, os.Stderr, "Settling "+filepath.Base(input), opts.Frames)
	opts.OnFrame = spinner.Frame
	spinner.Start()

	snap, cacheHit, err := runner.SettleWithCacheInfo(ctx, opts)
	if err != nil {
		spinner.Fail("Settle failed")
		return fmt.Errorf("settle: %w", err)
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Settled %d frames", opts.Frames))

	out := outputPath(input, p.output, "snapshot.json", true)
	if err := layout.WriteSnapshotFile(snap, out); err != nil {
		return err
	}

	printSuccess("Settled %s", input)
	printStats(len(snap.Members), len(snap.Clusters), len(snap.Edges), cacheHit)
	printFile(out)

	if len(formats) > 0 || dot {
		opts.Formats = formats
		if err := c.renderSnapshot(ctx, runner, snap, opts, dot, out, ""); err != nil {
			return err
		}
	}

	if p.save {
		id, err := c.saveSnapshot(ctx, cfg.Store, snap, m, snapshotName(p.name, input))
		if err != nil {
			return err
		}
		printKeyValue("Saved as", StyleHighlight.Render(id))
	}

	printNewline()
	printNextStep("Render it", fmt.Sprintf("%s render %s -f png", appName, out))
	return nil
}

// saveSnapshot stores snap in the configured snapshot store.
func (c *CLI) saveSnapshot(ctx context.Context, cfg config.Store, snap layout.Snapshot, m combo.Manifest, name string) (string, error) {
	st, err := c.newStore(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer st.Close(ctx)

	hash, err := pipeline.ManifestHash(m)
	if err != nil {
		return "", err
	}
	id, err := st.Save(ctx, &store.Record{
		Name:         name,
		ManifestHash: hash,
		Snapshot:     snap,
	})
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	c.Logger.Debug("saved snapshot", "id", id, "name", name)
	return id, nil
}

// snapshotName falls back to the input file name without extension.
func snapshotName(name, input string) string {
	if name != "" {
		return name
	}
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
