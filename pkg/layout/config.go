package layout

import (
	errs "github.com/matzehuels/comboom/pkg/errors"
	"github.com/matzehuels/comboom/pkg/vec"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultDesired is the target separation of related members.
	DefaultDesired = 400.0

	// DefaultEdgeFactor is how far each member of a relation moves toward its
	// ideal point per frame.
	DefaultEdgeFactor = 0.02

	// DefaultAggression is the initial inter-cluster repulsion constant.
	DefaultAggression = 5000.0

	// DefaultFalloffStart and DefaultFalloffEnd bound the distance band over
	// which repulsion fades out.
	DefaultFalloffStart = 500.0
	DefaultFalloffEnd   = 600.0

	// DefaultPull is the per-frame cohesion blend toward the cluster centroid.
	DefaultPull = 0.1

	// DefaultPickRadius is the world-space radius within which a pointer-down
	// grabs a member.
	DefaultPickRadius = 80.0

	// DefaultDecayAfter is the number of frames after which the layout settles.
	DefaultDecayAfter = 100

	// DefaultSettledAggression replaces the repulsion constant once settled.
	DefaultSettledAggression = 1000.0
)

// decaySentinel is written to the tick counter once the settle transition has
// fired so that it can never fire again within a run.
const decaySentinel = -100_000_000

// Config holds every tuning knob of the layout. The zero value is not
// useful; start from [DefaultConfig].
type Config struct {
	// Desired is the separation that edge relaxation pulls related members to.
	Desired float64 `json:"desired" toml:"desired" yaml:"desired" validate:"gt=0"`
	// EdgeFactor is the edge relaxation blend: 0 freezes, 1 snaps.
	EdgeFactor float64 `json:"edge_factor" toml:"edge_factor" yaml:"edge_factor" validate:"gte=0,lte=1"`

	// Aggression scales inter-cluster repulsion.
	Aggression float64 `json:"aggression" toml:"aggression" yaml:"aggression" validate:"gte=0"`
	// FalloffStart is the nearest-neighbour distance at which repulsion starts to fade.
	FalloffStart float64 `json:"falloff_start" toml:"falloff_start" yaml:"falloff_start" validate:"gte=0"`
	// FalloffEnd is the nearest-neighbour distance at which repulsion is gone.
	FalloffEnd float64 `json:"falloff_end" toml:"falloff_end" yaml:"falloff_end" validate:"gtefield=FalloffStart"`

	// Pull is the cohesion blend toward the cluster centroid.
	Pull float64 `json:"pull" toml:"pull" yaml:"pull" validate:"gte=0,lte=1"`
	// Collapse enables repulsion and cohesion. When false only centroids are computed.
	Collapse bool `json:"collapse" toml:"collapse" yaml:"collapse"`
	// Frozen skips the whole pipeline; input is still processed.
	Frozen bool `json:"frozen" toml:"frozen" yaml:"frozen"`

	// PickRadius is the pointer grab radius in world units.
	PickRadius float64 `json:"pick_radius" toml:"pick_radius" yaml:"pick_radius" validate:"gt=0"`

	// DecayAfter is the frame count after which Aggression drops to
	// SettledAggression and Collapse turns off. Zero disables the transition.
	DecayAfter int `json:"decay_after" toml:"decay_after" yaml:"decay_after" validate:"gte=0"`
	// SettledAggression is the repulsion constant after the transition.
	SettledAggression float64 `json:"settled_aggression" toml:"settled_aggression" yaml:"settled_aggression" validate:"gte=0"`
}

// DefaultConfig returns the energetic initial configuration.
func DefaultConfig() Config {
	return Config{
		Desired:           DefaultDesired,
		EdgeFactor:        DefaultEdgeFactor,
		Aggression:        DefaultAggression,
		FalloffStart:      DefaultFalloffStart,
		FalloffEnd:        DefaultFalloffEnd,
		Pull:              DefaultPull,
		Collapse:          true,
		PickRadius:        DefaultPickRadius,
		DecayAfter:        DefaultDecayAfter,
		SettledAggression: DefaultSettledAggression,
	}
}

// Validate reports out-of-range values as errors.ErrCodeInvalidConfig.
func (c Config) Validate() error {
	return errs.Struct(errs.ErrCodeInvalidConfig, c)
}

// Falloff returns the repulsion falloff band.
func (c Config) Falloff() vec.Band {
	return vec.NewBand(c.FalloffStart, c.FalloffEnd)
}

// Rebase returns c with every field that differs between old and next taken
// from next. Fields a reload leaves alone keep their live value, so editing
// one knob does not undo the settle transition or runtime toggles.
func (c Config) Rebase(old, next Config) Config {
	rebase(&c.Desired, old.Desired, next.Desired)
	rebase(&c.EdgeFactor, old.EdgeFactor, next.EdgeFactor)
	rebase(&c.Aggression, old.Aggression, next.Aggression)
	rebase(&c.FalloffStart, old.FalloffStart, next.FalloffStart)
	rebase(&c.FalloffEnd, old.FalloffEnd, next.FalloffEnd)
	rebase(&c.Pull, old.Pull, next.Pull)
	rebase(&c.Collapse, old.Collapse, next.Collapse)
	rebase(&c.Frozen, old.Frozen, next.Frozen)
	rebase(&c.PickRadius, old.PickRadius, next.PickRadius)
	rebase(&c.DecayAfter, old.DecayAfter, next.DecayAfter)
	rebase(&c.SettledAggression, old.SettledAggression, next.SettledAggression)
	return c
}

func rebase[T comparable](dst *T, old, next T) {
	if old != next {
		*dst = next
	}
}
