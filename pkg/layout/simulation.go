package layout

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/comboom/pkg/combo"
	errs "github.com/matzehuels/comboom/pkg/errors"
	"github.com/matzehuels/comboom/pkg/observability"
	"github.com/matzehuels/comboom/pkg/vec"
)

// Simulation owns a store and advances it one frame per [Simulation.Step].
// It is not safe for concurrent use: a single goroutine drives frames and
// input, the way a render loop does.
type Simulation struct {
	store  *combo.Store
	cfg    Config
	ticks  int
	logger *log.Logger

	// pointer state: pinned is the selected member, "" when idle.
	pinned  string
	pointer vec.Vec2
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger used for state transitions.
func WithLogger(l *log.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a simulation over store. Centroids are computed immediately so
// that queries are meaningful before the first frame.
func New(store *combo.Store, cfg Config, opts ...Option) (*Simulation, error) {
	if store == nil {
		return nil, errs.New(errs.ErrCodeInvalidInput, "store is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{
		store:  store,
		cfg:    cfg,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}

	Aggregate(store)
	observability.Simulation().OnLoad(store.MemberCount(), store.ClusterCount(), store.RelationCount())
	s.logger.Debug("simulation ready", "members", store.MemberCount(), "clusters", store.ClusterCount())
	return s, nil
}

// Store returns the simulated store.
func (s *Simulation) Store() *combo.Store { return s.store }

// Ticks returns the frame counter. It is negative once the layout has settled.
func (s *Simulation) Ticks() int { return s.ticks }

// Settled reports whether the one-way settle transition has fired.
func (s *Simulation) Settled() bool { return s.ticks < 0 }

// =============================================================================
// Frame
// =============================================================================

// Step advances one frame: the tick counter and settle transition first, then
// unless frozen edge relaxation, centroid aggregation and, while collapsing,
// repulsion and cohesion. A member held by the pointer is placed at the
// pointer before the pipeline runs and is never moved by it.
//
// The pipeline is frame based, so dt, the wall time since the previous
// frame, does not scale any step.
func (s *Simulation) Step(dt time.Duration) {
	start := time.Now()

	s.ticks++
	if s.cfg.DecayAfter > 0 && s.ticks > s.cfg.DecayAfter {
		s.settle()
	}

	if m, ok := s.held(); ok {
		m.Pos = s.pointer
	}

	if !s.cfg.Frozen {
		RelaxEdges(s.store, s.cfg.Desired, s.cfg.EdgeFactor, s.pinned)
		Aggregate(s.store)
		if s.cfg.Collapse {
			Repel(s.store, s.cfg.Aggression, s.cfg.Falloff())
			Cohere(s.store, s.cfg.Pull, s.pinned)
		}
	}

	if elapsed := time.Since(start); dt > 0 && elapsed > dt {
		s.logger.Debug("frame overran", "tick", s.ticks, "elapsed", elapsed, "budget", dt)
	}
	observability.Simulation().OnStep(s.ticks, s.cfg.Frozen, time.Since(start))
}

// settle applies the one-way energetic to settled transition.
func (s *Simulation) settle() {
	s.ticks = decaySentinel
	s.cfg.Aggression = s.cfg.SettledAggression
	s.cfg.Collapse = false
	s.logger.Debug("layout settled", "aggression", s.cfg.Aggression)
	observability.Simulation().OnDecay(s.cfg.Aggression)
}

// =============================================================================
// Pointer
// =============================================================================

// PointerDown selects the first member, in store order, strictly within the
// pick radius of p. It returns the selected name, or false when nothing is
// in reach. A press while already dragging keeps the current selection.
func (s *Simulation) PointerDown(p vec.Vec2) (string, bool) {
	if s.pinned != "" {
		return s.pinned, true
	}
	for _, m := range s.store.Members() {
		if m.Pos.Dist(p) < s.cfg.PickRadius {
			s.pinned = m.Name
			s.pointer = m.Pos
			s.logger.Debug("member selected", "member", m.Name)
			observability.Simulation().OnSelect(m.Name)
			return m.Name, true
		}
	}
	return "", false
}

// PointerMove places the selected member at p. It is a no-op while idle.
func (s *Simulation) PointerMove(p vec.Vec2) {
	m, ok := s.held()
	if !ok {
		return
	}
	s.pointer = p
	m.Pos = p
}

// PointerUp releases the selected member, which rejoins the simulation on
// the next frame.
func (s *Simulation) PointerUp() {
	if s.pinned == "" {
		return
	}
	name := s.pinned
	s.pinned = ""
	s.logger.Debug("member released", "member", name)
	observability.Simulation().OnRelease(name)
}

// Selected returns the member currently held by the pointer.
func (s *Simulation) Selected() (string, bool) {
	return s.pinned, s.pinned != ""
}

func (s *Simulation) held() (*combo.Member, bool) {
	if s.pinned == "" {
		return nil, false
	}
	return s.store.Member(s.pinned)
}

// =============================================================================
// Tuning
// =============================================================================

// Config returns a copy of the live configuration.
func (s *Simulation) Config() Config { return s.cfg }

// ApplyConfig validates and replaces the live configuration. The tick
// counter is untouched, so a settled layout stays settled.
func (s *Simulation) ApplyConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}

// SetAggression sets the repulsion constant.
func (s *Simulation) SetAggression(v float64) error {
	return s.update(func(c *Config) { c.Aggression = v })
}

// SetEdgeRelaxation sets the desired separation and relaxation factor.
func (s *Simulation) SetEdgeRelaxation(desired, factor float64) error {
	return s.update(func(c *Config) {
		c.Desired = desired
		c.EdgeFactor = factor
	})
}

// SetPull sets the cohesion factor.
func (s *Simulation) SetPull(v float64) error {
	return s.update(func(c *Config) { c.Pull = v })
}

// SetCollapse enables or disables repulsion and cohesion.
func (s *Simulation) SetCollapse(on bool) { s.cfg.Collapse = on }

// SetFrozen stops or resumes the pipeline.
func (s *Simulation) SetFrozen(on bool) { s.cfg.Frozen = on }

// ToggleCollapse flips Collapse and returns the new value.
func (s *Simulation) ToggleCollapse() bool {
	s.cfg.Collapse = !s.cfg.Collapse
	return s.cfg.Collapse
}

// ToggleFrozen flips Frozen and returns the new value.
func (s *Simulation) ToggleFrozen() bool {
	s.cfg.Frozen = !s.cfg.Frozen
	return s.cfg.Frozen
}

func (s *Simulation) update(fn func(*Config)) error {
	cfg := s.cfg
	fn(&cfg)
	return s.ApplyConfig(cfg)
}

// LogMembers writes every member position at info level.
func (s *Simulation) LogMembers() {
	for _, m := range s.store.Members() {
		s.logger.Info("member", "name", m.Name, "pos", m.Pos.String())
	}
}
