package cli

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/comboom/internal/config"
	"github.com/matzehuels/comboom/pkg/combo"
	"github.com/matzehuels/comboom/pkg/layout"
	"github.com/matzehuels/comboom/pkg/render"
)

// runParams holds the run command's flags.
type runParams struct {
	seed       uint64
	fps        int
	noCollapse bool
	frozen     bool
	shotDir    string
	logFile    string
}

// runCommand creates the run command for the live terminal view.
func (c *CLI) runCommand() *cobra.Command {
	var p runParams

	cmd := &cobra.Command{
		Use:   "run [manifest]",
		Short: "Run a layout live in the terminal",
		Long: `Run a layout live in the terminal.

Members start at random points and settle while you watch. Drag a member
with the mouse to move it; it stays under the pointer until you let go.

Keys:
  enter   toggle cluster collapse
  space   freeze or resume the layout
  s       write an SVG screenshot
  p       show member positions (also logged with --log-file)
  l       toggle labels
  arrows  pan, +/- zoom, 0 fit
  h       help
  q       quit`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeManifest,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := c.loadConfig()
			if err != nil {
				return err
			}
			return c.runLive(cmd.Context(), args[0], cfg, p)
		},
	}

	cmd.Flags().Uint64Var(&p.seed, "seed", 0, "placement seed (0 picks one at random)")
	cmd.Flags().IntVar(&p.fps, "fps", 30, "frames per second")
	cmd.Flags().BoolVar(&p.noCollapse, "no-collapse", false, "start with cluster collapse off")
	cmd.Flags().BoolVar(&p.frozen, "frozen", false, "start frozen")
	cmd.Flags().StringVar(&p.shotDir, "screenshots", ".", "directory for screenshots")
	cmd.Flags().StringVar(&p.logFile, "log-file", "", "write simulation logs to this file")

	return cmd
}

// runLive loads the manifest and hands the simulation to bubbletea.
func (c *CLI) runLive(ctx context.Context, input string, cfg config.Config, p runParams) error {
	if p.fps <= 0 || p.fps > 240 {
		return fmt.Errorf("fps must be between 1 and 240 (got %d)", p.fps)
	}

	m, err := combo.ReadManifestFile(input)
	if err != nil {
		return fmt.Errorf("load manifest %s: %w", input, err)
	}

	seed := p.seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	area := cfg.Area.Rect()
	st, err := combo.Load(m, area, rand.New(rand.NewPCG(seed, seed)))
	if err != nil {
		return fmt.Errorf("load manifest %s: %w", input, err)
	}

	// The terminal belongs to bubbletea; simulation logs go to a file or nowhere.
	simLogger, closeLog, err := fileLogger(p.logFile, c.Logger.GetLevel())
	if err != nil {
		return err
	}
	defer closeLog()

	lcfg := cfg.Layout
	if p.noCollapse {
		lcfg.Collapse = false
	}
	lcfg.Frozen = lcfg.Frozen || p.frozen
	sim, err := layout.New(st, lcfg, layout.WithLogger(simLogger))
	if err != nil {
		return err
	}
	simLogger.Info("loaded manifest", "path", input, "seed", seed,
		"members", st.MemberCount(), "clusters", st.ClusterCount())

	shoot := c.screenshotter(ctx, cfg, p.shotDir)
	model := newLiveModel(sim, area, time.Second/time.Duration(p.fps), shoot)

	prog := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	final, err := prog.Run()
	if err != nil {
		return fmt.Errorf("live view: %w", err)
	}

	if lm, ok := final.(liveModel); ok {
		printSuccess("Stopped %s", phaseLabel(lm.sim.Ticks(), lm.sim.Settled()))
		printStats(st.MemberCount(), st.ClusterCount(), st.RelationCount(), false)
	}
	return nil
}

// screenshotter renders the current snapshot to an SVG file in dir.
func (c *CLI) screenshotter(ctx context.Context, cfg config.Config, dir string) screenshotFunc {
	renderer := render.NewRenderer(nil, nil, c.Logger)
	opts := cfg.Render
	opts.Format = render.FormatSVG

	return func(snap layout.Snapshot) (string, error) {
		data, _, err := renderer.Render(ctx, snap, opts)
		if err != nil {
			return "", err
		}
		name := fmt.Sprintf("%s-%s.svg", appName, time.Now().Format("20060102-150405.000"))
		path := filepath.Join(dir, name)
		if err := writeFile(path, data); err != nil {
			return "", err
		}
		return path, nil
	}
}
