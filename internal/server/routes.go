package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	errs "github.com/matzehuels/comboom/pkg/errors"
	"github.com/matzehuels/comboom/pkg/layout"
	"github.com/matzehuels/comboom/pkg/render"
	"github.com/matzehuels/comboom/pkg/store"
	"github.com/matzehuels/comboom/pkg/vec"
)

const maxBodyBytes = 1 << 20

// Handler returns the HTTP routes. Requests that touch the simulation block
// until the frame loop started by [Server.Run] picks them up.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.healthz)

	r.Get("/snapshot", s.snapshot)
	r.Get("/members", s.members)
	r.Get("/clusters", s.clusters)
	r.Get("/edges", s.edges)
	r.Get("/render/{format}", s.render)

	r.Route("/pointer", func(r chi.Router) {
		r.Post("/down", s.pointerDown)
		r.Post("/move", s.pointerMove)
		r.Post("/up", s.pointerUp)
	})

	r.Get("/tuning", s.getTuning)
	r.Put("/tuning", s.putTuning)
	r.Post("/toggle/collapse", s.toggleCollapse)
	r.Post("/toggle/freeze", s.toggleFreeze)

	r.Route("/snapshots", func(r chi.Router) {
		r.Get("/", s.listSnapshots)
		r.Post("/", s.saveSnapshot)
		r.Get("/{id}", s.loadSnapshot)
		r.Post("/{id}/restore", s.restoreSnapshot)
		r.Delete("/{id}", s.deleteSnapshot)
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// =============================================================================
// Queries
// =============================================================================

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	var snap layout.Snapshot
	if s.query(w, r, func(sim *layout.Simulation) { snap = sim.Snapshot() }) {
		writeJSON(w, http.StatusOK, snap)
	}
}

func (s *Server) members(w http.ResponseWriter, r *http.Request) {
	var out []layout.MemberView
	if s.query(w, r, func(sim *layout.Simulation) { out = sim.Members() }) {
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) clusters(w http.ResponseWriter, r *http.Request) {
	var out []layout.ClusterView
	if s.query(w, r, func(sim *layout.Simulation) { out = sim.Clusters() }) {
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) edges(w http.ResponseWriter, r *http.Request) {
	var out []layout.EdgeView
	if s.query(w, r, func(sim *layout.Simulation) { out = sim.Edges() }) {
		writeJSON(w, http.StatusOK, out)
	}
}

// render draws the current frame. The snapshot is taken on the frame loop;
// drawing happens on the request goroutine.
func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	opts, err := s.renderOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var snap layout.Snapshot
	if !s.query(w, r, func(sim *layout.Simulation) { snap = sim.Snapshot() }) {
		return
	}

	data, hit, err := s.renderer.Render(r.Context(), snap, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	cacheStatus := "miss"
	if hit {
		cacheStatus = "hit"
	}
	w.Header().Set("Content-Type", opts.Format.ContentType())
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// renderOptions reads ?engine=, ?width=, ?height= and ?labels= on top of the
// defaults.
func (s *Server) renderOptions(r *http.Request) (render.Options, error) {
	format, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		return render.Options{}, err
	}
	opts := render.DefaultOptions()
	opts.Format = format

	q := r.URL.Query()
	if v := q.Get("engine"); v != "" {
		opts.Engine = render.Engine(v)
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"width", &opts.Width}, {"height", &opts.Height}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return render.Options{}, errs.Wrap(errs.ErrCodeInvalidInput, err, "%s", p.name)
		}
		*p.dst = n
	}
	if v := q.Get("labels"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return render.Options{}, errs.Wrap(errs.ErrCodeInvalidInput, err, "labels")
		}
		opts.Labels = b
	}
	return opts, opts.Validate()
}

// =============================================================================
// Pointer
// =============================================================================

type pointerResponse struct {
	Selected string `json:"selected,omitempty"`
	Held     bool   `json:"held"`
}

func (s *Server) pointerDown(w http.ResponseWriter, r *http.Request) {
	s.pointer(w, r, func(sim *layout.Simulation, p vec.Vec2) { sim.PointerDown(p) })
}

func (s *Server) pointerMove(w http.ResponseWriter, r *http.Request) {
	s.pointer(w, r, func(sim *layout.Simulation, p vec.Vec2) { sim.PointerMove(p) })
}

func (s *Server) pointerUp(w http.ResponseWriter, r *http.Request) {
	var resp pointerResponse
	if s.query(w, r, func(sim *layout.Simulation) {
		sim.PointerUp()
		resp.Selected, resp.Held = sim.Selected()
	}) {
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) pointer(w http.ResponseWriter, r *http.Request, fn func(*layout.Simulation, vec.Vec2)) {
	var p vec.Vec2
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeError(w, err)
		return
	}
	if !p.IsFinite() {
		s.writeError(w, errs.New(errs.ErrCodeInvalidInput, "pointer position %s is not finite", p))
		return
	}

	var resp pointerResponse
	if s.query(w, r, func(sim *layout.Simulation) {
		fn(sim, p)
		resp.Selected, resp.Held = sim.Selected()
	}) {
		writeJSON(w, http.StatusOK, resp)
	}
}

// =============================================================================
// Tuning
// =============================================================================

func (s *Server) getTuning(w http.ResponseWriter, r *http.Request) {
	var cfg layout.Config
	if s.query(w, r, func(sim *layout.Simulation) { cfg = sim.Config() }) {
		writeJSON(w, http.StatusOK, cfg)
	}
}

// putTuning merges the body into the live config, so clients may send only
// the fields they change.
func (s *Server) putTuning(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, errs.Wrap(errs.ErrCodeInvalidInput, err, "read body"))
		return
	}

	var (
		cfg      layout.Config
		applyErr error
	)
	if !s.query(w, r, func(sim *layout.Simulation) {
		next := sim.Config()
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&next); err != nil {
			applyErr = errs.Wrap(errs.ErrCodeInvalidInput, err, "decode tuning")
			return
		}
		applyErr = sim.ApplyConfig(next)
		cfg = sim.Config()
	}) {
		return
	}
	if applyErr != nil {
		s.writeError(w, applyErr)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) toggleCollapse(w http.ResponseWriter, r *http.Request) {
	var on bool
	if s.query(w, r, func(sim *layout.Simulation) { on = sim.ToggleCollapse() }) {
		writeJSON(w, http.StatusOK, map[string]bool{"collapse": on})
	}
}

func (s *Server) toggleFreeze(w http.ResponseWriter, r *http.Request) {
	var on bool
	if s.query(w, r, func(sim *layout.Simulation) { on = sim.ToggleFrozen() }) {
		writeJSON(w, http.StatusOK, map[string]bool{"frozen": on})
	}
}

// =============================================================================
// Snapshots
// =============================================================================

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		s.writeError(w, errs.New(errs.ErrCodeUnsupported, "no snapshot store configured"))
		return false
	}
	return true
}

func (s *Server) listSnapshots(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	infos, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) saveSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	rec := &store.Record{
		Name:         r.URL.Query().Get("name"),
		ManifestHash: s.manifest,
	}
	if !s.query(w, r, func(sim *layout.Simulation) { rec.Snapshot = sim.Snapshot() }) {
		return
	}
	if rec.Name == "" {
		rec.Name = fmt.Sprintf("tick %d", rec.Snapshot.Tick)
	}

	if _, err := s.store.Save(r.Context(), rec); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("snapshot saved", "id", rec.ID, "name", rec.Name)
	writeJSON(w, http.StatusCreated, rec.Info())
}

func (s *Server) loadSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	rec, err := s.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) restoreSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	rec, err := s.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var restoreErr error
	if !s.query(w, r, func(sim *layout.Simulation) { restoreErr = sim.Restore(rec.Snapshot) }) {
		return
	}
	if restoreErr != nil {
		s.writeError(w, restoreErr)
		return
	}
	s.logger.Info("snapshot restored", "id", rec.ID, "name", rec.Name)
	writeJSON(w, http.StatusOK, rec.Info())
}

func (s *Server) deleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Helpers
// =============================================================================

// query runs fn on the frame loop. It reports false, having already written
// an error response, when the request was cancelled first.
func (s *Server) query(w http.ResponseWriter, r *http.Request, fn func(*layout.Simulation)) bool {
	if err := s.do(r.Context(), fn); err != nil {
		s.writeError(w, errs.Wrap(errs.ErrCodeInternal, err, "frame loop unavailable"))
		return false
	}
	return true
}

type errorResponse struct {
	Error string    `json:"error"`
	Code  errs.Code `json:"code,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: errs.UserMessage(err), Code: errs.GetCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "decode body")
	}
	return nil
}

// requestLogger logs each request at debug level; clients poll at frame rate.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"took", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
