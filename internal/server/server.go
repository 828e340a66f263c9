// Package server exposes a running layout over HTTP.
//
// A [Server] owns one [layout.Simulation] and advances it from a single
// frame-loop goroutine. HTTP handlers never touch the simulation directly:
// they post closures to the loop and wait for them to run between frames, so
// no lock guards the store.
//
// # Routes
//
//	GET    /healthz                  liveness
//	GET    /snapshot                 full layout snapshot
//	GET    /members, /clusters, /edges
//	GET    /render/{format}          screenshot (svg, png, pdf)
//	POST   /pointer/{down,move,up}   pointer input in world coordinates
//	GET    /tuning                   current layout config
//	PUT    /tuning                   merge and apply a partial layout config
//	POST   /toggle/{collapse,freeze}
//	GET    /snapshots                saved snapshots, newest first
//	POST   /snapshots                save the current layout
//	GET    /snapshots/{id}
//	POST   /snapshots/{id}/restore
//	DELETE /snapshots/{id}
//	GET    /metrics                  Prometheus exposition
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/comboom/pkg/layout"
	"github.com/matzehuels/comboom/pkg/render"
	"github.com/matzehuels/comboom/pkg/store"
)

// DefaultFrame is the frame duration used when none is configured (60 fps).
const DefaultFrame = time.Second / 60

const shutdownTimeout = 5 * time.Second

// Server drives a simulation and serves it over HTTP.
type Server struct {
	sim      *layout.Simulation
	frame    time.Duration
	renderer *render.Renderer
	store    store.Store
	gatherer prometheus.Gatherer
	logger   *log.Logger
	manifest string

	requests chan request
}

type request struct {
	fn   func(*layout.Simulation)
	done chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithFrame sets the frame duration.
func WithFrame(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.frame = d
		}
	}
}

// WithRenderer sets the screenshot renderer.
func WithRenderer(r *render.Renderer) Option {
	return func(s *Server) { s.renderer = r }
}

// WithStore enables the /snapshots routes.
func WithStore(st store.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithGatherer enables /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithLogger sets the request and frame-loop logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithManifestHash records the manifest hash on saved snapshots.
func WithManifestHash(h string) Option {
	return func(s *Server) { s.manifest = h }
}

// New creates a server for sim. The server takes ownership of sim: once
// [Server.Run] has started, nothing else may call into it.
func New(sim *layout.Simulation, opts ...Option) *Server {
	s := &Server{
		sim:      sim,
		frame:    DefaultFrame,
		logger:   log.New(io.Discard),
		requests: make(chan request),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.renderer == nil {
		s.renderer = render.NewRenderer(nil, nil, s.logger)
	}
	return s
}

// =============================================================================
// Frame Loop
// =============================================================================

// Run advances the simulation once per frame and executes queued requests
// between frames until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.frame)
	defer ticker.Stop()

	s.logger.Debug("frame loop started", "frame", s.frame)
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("frame loop stopped", "tick", s.sim.Ticks())
			return nil
		case <-ticker.C:
			s.sim.Step(s.frame)
		case req := <-s.requests:
			req.fn(s.sim)
			close(req.done)
		}
	}
}

// do runs fn on the frame loop and waits for it to finish.
func (s *Server) do(ctx context.Context, fn func(*layout.Simulation)) error {
	req := request{fn: fn, done: make(chan struct{})}
	select {
	case s.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	<-req.done
	return nil
}

// ReloadConfig applies the fields that changed between old and next to the
// live layout config, as the config watcher does on every file save. Live
// values of untouched fields, including those the settle transition wrote,
// are kept.
func (s *Server) ReloadConfig(ctx context.Context, old, next layout.Config) error {
	var err error
	if derr := s.do(ctx, func(sim *layout.Simulation) {
		err = sim.ApplyConfig(sim.Config().Rebase(old, next))
	}); derr != nil {
		return derr
	}
	return err
}

// ListenAndServe runs the frame loop and an HTTP server on addr until ctx is
// done, then shuts both down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	loopDone := make(chan error, 1)
	go func() { loopDone <- s.Run(ctx) }()

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", addr)
		serveErr <- srv.ListenAndServe()
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		cancel()
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if serr := srv.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = serr
	}
	<-loopDone
	return err
}
