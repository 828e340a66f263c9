package layout

import (
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/comboom/pkg/combo"
	errs "github.com/matzehuels/comboom/pkg/errors"
	"github.com/matzehuels/comboom/pkg/observability"
	"github.com/matzehuels/comboom/pkg/vec"
)

const frame = time.Second / 60

var bandSpecs = []combo.ClusterSpec{
	{Name: "Jazz", Color: "#e4572e", Members: []string{"ann", "bob", "cleo"}},
	{Name: "Funk", Color: "#29335c", Members: []string{"bob", "dave"}},
	{Name: "Solo", Color: "orange", Members: []string{"eve"}},
}

func newSim(t *testing.T, cfg Config, p map[string]vec.Vec2) *Simulation {
	t.Helper()
	sim, err := New(loadAt(t, bandSpecs, p), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sim
}

func positions(s *combo.Store) map[string]vec.Vec2 {
	out := make(map[string]vec.Vec2, s.MemberCount())
	for _, m := range s.Members() {
		out[m.Name] = m.Pos
	}
	return out
}

func TestNew(t *testing.T) {
	if _, err := New(nil, DefaultConfig()); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("nil store error = %v, want %s", err, errs.ErrCodeInvalidInput)
	}

	bad := DefaultConfig()
	bad.FalloffEnd = bad.FalloffStart - 1
	if _, err := New(loadAt(t, bandSpecs, nil), bad); !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("bad config error = %v, want %s", err, errs.ErrCodeInvalidConfig)
	}

	sim := newSim(t, DefaultConfig(), map[string]vec.Vec2{"eve": vec.New(12, 34)})
	if c, _ := sim.Store().Cluster("Solo"); c.Centroid != vec.New(12, 34) {
		t.Errorf("centroid before first step = %v, want (12, 34)", c.Centroid)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"ZeroDesired", func(c *Config) { c.Desired = 0 }},
		{"NegativeAggression", func(c *Config) { c.Aggression = -1 }},
		{"FactorAboveOne", func(c *Config) { c.EdgeFactor = 1.5 }},
		{"PullBelowZero", func(c *Config) { c.Pull = -0.1 }},
		{"InvertedFalloff", func(c *Config) { c.FalloffStart, c.FalloffEnd = 600, 500 }},
		{"ZeroPickRadius", func(c *Config) { c.PickRadius = 0 }},
		{"NegativeDecay", func(c *Config) { c.DecayAfter = -1 }},
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errs.Is(err, errs.ErrCodeInvalidConfig) {
				t.Errorf("Validate = %v, want %s", err, errs.ErrCodeInvalidConfig)
			}
		})
	}
}

func TestStepDecay(t *testing.T) {
	sim := newSim(t, DefaultConfig(), nil)

	for range DefaultDecayAfter {
		sim.Step(frame)
	}
	if sim.Settled() || sim.Ticks() != DefaultDecayAfter {
		t.Fatalf("after %d frames: ticks = %d, settled = %v", DefaultDecayAfter, sim.Ticks(), sim.Settled())
	}
	if got := sim.Config().Aggression; got != DefaultAggression {
		t.Fatalf("aggression = %v before settling", got)
	}

	sim.Step(frame)
	if !sim.Settled() || sim.Ticks() != decaySentinel {
		t.Fatalf("ticks = %d, want sentinel", sim.Ticks())
	}
	cfg := sim.Config()
	if cfg.Aggression != DefaultSettledAggression || cfg.Collapse {
		t.Errorf("settled config = aggression %v collapse %v", cfg.Aggression, cfg.Collapse)
	}

	// One-way: later tuning is not overwritten.
	if err := sim.SetAggression(3000); err != nil {
		t.Fatal(err)
	}
	sim.SetCollapse(true)
	for range 10 {
		sim.Step(frame)
	}
	if cfg := sim.Config(); cfg.Aggression != 3000 || !cfg.Collapse {
		t.Errorf("settle fired twice: %+v", cfg)
	}
}

func TestRebaseKeepsSettledState(t *testing.T) {
	sim := newSim(t, DefaultConfig(), nil)
	for range DefaultDecayAfter + 1 {
		sim.Step(frame)
	}
	if !sim.Settled() {
		t.Fatal("not settled")
	}

	tests := []struct {
		name           string
		edit           func(*Config)
		wantAggression float64
		wantCollapse   bool
		wantPick       float64
	}{
		{"UnrelatedKey", func(c *Config) { c.PickRadius = 90 }, DefaultSettledAggression, false, 90},
		{"NoChange", func(c *Config) {}, DefaultSettledAggression, false, DefaultPickRadius},
		{"AggressionEdited", func(c *Config) { c.Aggression = 2500 }, 2500, false, DefaultPickRadius},
	}
	settled := sim.Config()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := DefaultConfig()
			tt.edit(&next)
			got := settled.Rebase(DefaultConfig(), next)
			if got.Aggression != tt.wantAggression || got.Collapse != tt.wantCollapse || got.PickRadius != tt.wantPick {
				t.Errorf("rebased = aggression %v collapse %v pick %v", got.Aggression, got.Collapse, got.PickRadius)
			}
		})
	}

	next := DefaultConfig()
	next.PickRadius = 90
	if err := sim.ApplyConfig(sim.Config().Rebase(DefaultConfig(), next)); err != nil {
		t.Fatal(err)
	}
	if cfg := sim.Config(); !sim.Settled() || cfg.Collapse || cfg.Aggression != DefaultSettledAggression {
		t.Errorf("reload undid settling: %+v", cfg)
	}
}

func TestStepDecayDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DecayAfter = 0
	sim := newSim(t, cfg, nil)

	for range 2 * DefaultDecayAfter {
		sim.Step(frame)
	}
	if sim.Settled() || sim.Config().Aggression != DefaultAggression {
		t.Errorf("settled with decay disabled")
	}
}

func TestStepWithoutCollapseOnlyRelaxes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Collapse = false
	cfg.DecayAfter = 0
	sim := newSim(t, cfg, nil)
	ref := loadAt(t, bandSpecs, nil)

	for range 25 {
		sim.Step(frame)
		RelaxEdges(ref, cfg.Desired, cfg.EdgeFactor, "")
	}

	want := positions(ref)
	for name, got := range positions(sim.Store()) {
		if got != want[name] {
			t.Errorf("%s = %v, want %v", name, got, want[name])
		}
	}

	// Centroids still track members.
	Aggregate(ref)
	for _, c := range sim.Store().Clusters() {
		rc, _ := ref.Cluster(c.Name)
		if c.Centroid != rc.Centroid {
			t.Errorf("%s centroid = %v, want %v", c.Name, c.Centroid, rc.Centroid)
		}
	}
}

func TestStepFixedPoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Collapse = false
	sim, err := New(loadAt(t, []combo.ClusterSpec{{Name: "Duo", Color: "red", Members: []string{"a", "b"}}},
		map[string]vec.Vec2{"a": vec.New(0, 0), "b": vec.New(0, DefaultDesired)}), cfg)
	if err != nil {
		t.Fatal(err)
	}

	for range 5 {
		sim.Step(frame)
	}
	if got := positions(sim.Store()); got["a"] != vec.New(0, 0) || got["b"] != vec.New(0, DefaultDesired) {
		t.Errorf("fixed point moved: %v", got)
	}
}

func TestStepFrozen(t *testing.T) {
	sim := newSim(t, DefaultConfig(), map[string]vec.Vec2{"ann": vec.New(0, 0)})
	if !sim.ToggleFrozen() {
		t.Fatal("ToggleFrozen should report frozen")
	}
	before := positions(sim.Store())

	sim.Step(frame)
	if got := positions(sim.Store()); len(got) != len(before) {
		t.Fatal("member count changed")
	} else {
		for name, p := range got {
			if p != before[name] {
				t.Errorf("%s moved while frozen: %v -> %v", name, before[name], p)
			}
		}
	}
	if sim.Ticks() != 1 {
		t.Errorf("ticks = %d, want 1", sim.Ticks())
	}

	// Input is still processed.
	if _, ok := sim.PointerDown(vec.New(1, 1)); !ok {
		t.Fatal("PointerDown missed ann while frozen")
	}
	sim.PointerMove(vec.New(-40, 60))
	sim.Step(frame)
	if got := pos(t, sim.Store(), "ann"); got != vec.New(-40, 60) {
		t.Errorf("ann = %v, want (-40, 60)", got)
	}
}

func TestDragPinsMember(t *testing.T) {
	sim := newSim(t, DefaultConfig(), map[string]vec.Vec2{
		"ann": vec.New(0, 0),
		"bob": vec.New(100, 0),
	})

	name, ok := sim.PointerDown(vec.New(10, 10))
	if !ok || name != "ann" {
		t.Fatalf("PointerDown = %q, %v; want ann", name, ok)
	}
	sim.PointerMove(vec.New(500, 500))

	target := vec.New(500, 500)
	for i := range 20 {
		sim.Step(frame)
		if got := pos(t, sim.Store(), "ann"); got != target {
			t.Fatalf("frame %d: ann = %v, want %v", i, got, target)
		}
	}
	if sel, ok := sim.Selected(); !ok || sel != "ann" {
		t.Errorf("Selected = %q, %v", sel, ok)
	}

	sim.PointerUp()
	if _, ok := sim.Selected(); ok {
		t.Error("still selected after PointerUp")
	}
	sim.Step(frame)
	if got := pos(t, sim.Store(), "ann"); got == target {
		t.Error("ann did not rejoin the simulation after release")
	}
}

func TestPointerDownPick(t *testing.T) {
	tests := []struct {
		name   string
		at     vec.Vec2
		want   string
		wantOK bool
	}{
		{"Center", vec.New(0, 0), "ann", true},
		{"InsideRadius", vec.New(79.9, 0), "ann", true},
		{"OnRadius", vec.New(80, 0), "", false},
		{"Overlap", vec.New(0, 0.5), "ann", true},
		{"Later", vec.New(1000, 1000), "dave", true},
		{"Empty", vec.New(-700, 700), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newSim(t, DefaultConfig(), map[string]vec.Vec2{
				"ann":  vec.New(0, 0),
				"bob":  vec.New(0, 1),
				"cleo": vec.New(-300, -300),
				"dave": vec.New(1010, 1000),
				"eve":  vec.New(300, -300),
			})
			got, ok := sim.PointerDown(tt.at)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("PointerDown(%v) = %q, %v; want %q, %v", tt.at, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestPointerIdle(t *testing.T) {
	sim := newSim(t, DefaultConfig(), nil)
	before := positions(sim.Store())

	sim.PointerMove(vec.New(1, 1))
	sim.PointerUp()

	for name, p := range positions(sim.Store()) {
		if p != before[name] {
			t.Errorf("%s moved by idle pointer", name)
		}
	}
}

func TestTuning(t *testing.T) {
	sim := newSim(t, DefaultConfig(), nil)

	if err := sim.SetPull(0.5); err != nil {
		t.Fatalf("SetPull: %v", err)
	}
	if err := sim.SetEdgeRelaxation(200, 0.1); err != nil {
		t.Fatalf("SetEdgeRelaxation: %v", err)
	}
	if err := sim.SetPull(2); !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("SetPull(2) = %v, want invalid config", err)
	}
	if err := sim.SetAggression(-5); err == nil {
		t.Error("SetAggression(-5) accepted")
	}

	cfg := sim.Config()
	if cfg.Pull != 0.5 || cfg.Desired != 200 || cfg.EdgeFactor != 0.1 || cfg.Aggression != DefaultAggression {
		t.Errorf("config = %+v", cfg)
	}
	if sim.ToggleCollapse() {
		t.Error("ToggleCollapse should turn collapse off")
	}
}

type recordingHooks struct {
	observability.NoopSimulationHooks
	mu       sync.Mutex
	steps    int
	decays   int
	selects  []string
	releases []string
}

func (r *recordingHooks) OnStep(int, bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps++
}

func (r *recordingHooks) OnDecay(float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decays++
}

func (r *recordingHooks) OnSelect(m string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selects = append(r.selects, m)
}

func (r *recordingHooks) OnRelease(m string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releases = append(r.releases, m)
}

func TestSimulationHooks(t *testing.T) {
	rec := &recordingHooks{}
	observability.SetSimulationHooks(rec)
	defer observability.Reset()

	sim := newSim(t, DefaultConfig(), map[string]vec.Vec2{"eve": vec.New(2000, 2000)})
	for range DefaultDecayAfter + 5 {
		sim.Step(frame)
	}
	sim.PointerDown(vec.New(2000, 2000))
	sim.PointerUp()

	if rec.steps != DefaultDecayAfter+5 {
		t.Errorf("steps = %d", rec.steps)
	}
	if rec.decays != 1 {
		t.Errorf("decays = %d, want 1", rec.decays)
	}
	if len(rec.selects) != 1 || len(rec.releases) != 1 {
		t.Errorf("selects = %v, releases = %v", rec.selects, rec.releases)
	}
}
