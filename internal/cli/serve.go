package cli

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/comboom/internal/config"
	"github.com/matzehuels/comboom/internal/server"
	"github.com/matzehuels/comboom/pkg/combo"
	"github.com/matzehuels/comboom/pkg/layout"
	"github.com/matzehuels/comboom/pkg/observability"
	"github.com/matzehuels/comboom/pkg/pipeline"
	"github.com/matzehuels/comboom/pkg/render"
)

// serveParams holds the serve command's flags.
type serveParams struct {
	addr      string
	fps       int
	seed      uint64
	watch     bool
	noStore   bool
	noMetrics bool
	noCache   bool
}

// serveCommand creates the serve command for the HTTP frame server.
func (c *CLI) serveCommand() *cobra.Command {
	var p serveParams

	cmd := &cobra.Command{
		Use:   "serve [manifest]",
		Short: "Run a layout behind an HTTP API",
		Long: `Run a layout behind an HTTP API.

The server steps the layout at a fixed frame rate and accepts pointer input,
tuning changes and snapshot requests over HTTP. Screenshots are served from
/render/{svg,png,pdf} and Prometheus metrics from /metrics.

With --watch, edits to the [layout] table of the config file are applied to
the running layout.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeManifest,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := c.loadConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Server.Addr = p.addr
			}
			if flags.Changed("fps") {
				cfg.Server.FPS = p.fps
			}
			if flags.Changed("watch") {
				cfg.Server.Watch = p.watch
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runServe(ctx, args[0], cfg, path, p)
		},
	}

	def := config.Default().Server
	cmd.Flags().StringVar(&p.addr, "addr", def.Addr, "listen address")
	cmd.Flags().IntVar(&p.fps, "fps", def.FPS, "frames per second")
	cmd.Flags().Uint64Var(&p.seed, "seed", 0, "placement seed (0 picks one at random)")
	cmd.Flags().BoolVar(&p.watch, "watch", false, "apply config file changes while running")
	cmd.Flags().BoolVar(&p.noStore, "no-store", false, "disable the /snapshots routes")
	cmd.Flags().BoolVar(&p.noMetrics, "no-metrics", false, "disable /metrics")
	cmd.Flags().BoolVar(&p.noCache, "no-cache", false, "disable the screenshot cache")

	return cmd
}

// runServe builds the simulation and its collaborators and serves until ctx
// is done.
func (c *CLI) runServe(ctx context.Context, input string, cfg config.Config, cfgPath string, p serveParams) error {
	logger := loggerFromContext(ctx)

	var opts []server.Option
	if !p.noMetrics {
		gatherer, err := registerMetrics()
		if err != nil {
			return err
		}
		defer observability.Reset()
		opts = append(opts, server.WithGatherer(gatherer))
	}

	m, err := combo.ReadManifestFile(input)
	if err != nil {
		return fmt.Errorf("load manifest %s: %w", input, err)
	}
	hash, err := pipeline.ManifestHash(m)
	if err != nil {
		return err
	}

	seed := p.seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	st, err := combo.Load(m, cfg.Area.Rect(), rand.New(rand.NewPCG(seed, seed)))
	if err != nil {
		return fmt.Errorf("load manifest %s: %w", input, err)
	}
	sim, err := layout.New(st, cfg.Layout, layout.WithLogger(logger))
	if err != nil {
		return err
	}

	cc, err := c.newCache(ctx, cfg.Cache, p.noCache)
	if err != nil {
		return err
	}
	defer cc.Close()

	opts = append(opts,
		server.WithFrame(cfg.Server.Frame()),
		server.WithRenderer(render.NewRenderer(cc, newKeyer(cfg.Cache), logger)),
		server.WithLogger(logger),
		server.WithManifestHash(hash),
	)

	if !p.noStore {
		snaps, err := c.newStore(ctx, cfg.Store)
		if err != nil {
			logger.Warn("snapshot store unavailable", "error", err)
		} else {
			defer snaps.Close(context.WithoutCancel(ctx))
			opts = append(opts, server.WithStore(snaps))
		}
	}

	srv := server.New(sim, opts...)

	if cfg.Server.Watch {
		if cfgPath == "" {
			logger.Warn("no config file to watch")
		} else {
			go watchLayout(ctx, srv, cfgPath, cfg.Layout, logger)
		}
	}

	printInfo("Serving %s on %s", StyleHighlight.Render(input), StyleLink.Render(cfg.Server.Addr))
	printStats(st.MemberCount(), st.ClusterCount(), st.RelationCount(), false)
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

// watchLayout applies layout changes from the config file to srv. Only keys
// that differ from the previously loaded file are applied.
func watchLayout(ctx context.Context, srv *server.Server, path string, loaded layout.Config, logger *log.Logger) {
	err := config.Watch(ctx, path, logger, func(cfg config.Config) {
		if err := srv.ReloadConfig(ctx, loaded, cfg.Layout); err != nil {
			logger.Warn("layout change rejected", "error", err)
			return
		}
		loaded = cfg.Layout
	})
	if err != nil {
		logger.Error("config watcher stopped", "error", err)
	}
}

// registerMetrics installs Prometheus hooks on a fresh registry.
func registerMetrics() (prometheus.Gatherer, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom, err := observability.NewPrometheus(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	observability.SetSimulationHooks(prom)
	observability.SetCacheHooks(prom)
	observability.SetRenderHooks(prom)
	return prom.Gatherer(), nil
}
