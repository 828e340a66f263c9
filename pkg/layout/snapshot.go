package layout

import (
	"encoding/json"
	"io"
	"math"
	"os"

	errs "github.com/matzehuels/comboom/pkg/errors"
	"github.com/matzehuels/comboom/pkg/vec"
)

// MemberView is a read-only copy of a member for rendering.
type MemberView struct {
	Name     string   `json:"name" bson:"name"`
	Pos      vec.Vec2 `json:"pos" bson:"pos"`
	Clusters []string `json:"clusters" bson:"clusters"`
	Pinned   bool     `json:"pinned,omitempty" bson:"pinned,omitempty"`
}

// ClusterView is a read-only copy of a cluster for rendering.
type ClusterView struct {
	Name     string   `json:"name" bson:"name"`
	Color    string   `json:"color" bson:"color"`
	Centroid vec.Vec2 `json:"centroid" bson:"centroid"`
	Members  []string `json:"members" bson:"members"`
}

// Size returns the member count.
func (c ClusterView) Size() int { return len(c.Members) }

// EdgeView is one relation, drawn as a line in the cluster's color.
type EdgeView struct {
	A       string   `json:"a" bson:"a"`
	B       string   `json:"b" bson:"b"`
	Cluster string   `json:"cluster" bson:"cluster"`
	Color   string   `json:"color" bson:"color"`
	From    vec.Vec2 `json:"from" bson:"from"`
	To      vec.Vec2 `json:"to" bson:"to"`
}

// Snapshot is a self-contained copy of the layout at one frame.
type Snapshot struct {
	Tick     int           `json:"tick" bson:"tick"`
	Settled  bool          `json:"settled" bson:"settled"`
	Config   Config        `json:"config" bson:"config"`
	Members  []MemberView  `json:"members" bson:"members"`
	Clusters []ClusterView `json:"clusters" bson:"clusters"`
	Edges    []EdgeView    `json:"edges" bson:"edges"`
	Selected string        `json:"selected,omitempty" bson:"selected,omitempty"`
}

// =============================================================================
// Queries
// =============================================================================

// Members returns copies of every member in store order.
func (s *Simulation) Members() []MemberView {
	out := make([]MemberView, 0, s.store.MemberCount())
	for _, m := range s.store.Members() {
		out = append(out, MemberView{
			Name:     m.Name,
			Pos:      m.Pos,
			Clusters: s.store.ClustersOf(m.Name),
			Pinned:   m.Name == s.pinned,
		})
	}
	return out
}

// Clusters returns copies of every cluster in manifest order.
func (s *Simulation) Clusters() []ClusterView {
	out := make([]ClusterView, 0, s.store.ClusterCount())
	for _, c := range s.store.Clusters() {
		out = append(out, ClusterView{
			Name:     c.Name,
			Color:    c.Color,
			Centroid: c.Centroid,
			Members:  append([]string(nil), c.Members...),
		})
	}
	return out
}

// Edges returns one view per relation.
func (s *Simulation) Edges() []EdgeView {
	out := make([]EdgeView, 0, s.store.RelationCount())
	for r := range s.store.Relations() {
		out = append(out, EdgeView{
			A:       r.A.Name,
			B:       r.B.Name,
			Cluster: r.Cluster.Name,
			Color:   r.Cluster.Color,
			From:    r.A.Pos,
			To:      r.B.Pos,
		})
	}
	return out
}

// Snapshot captures the current frame.
func (s *Simulation) Snapshot() Snapshot {
	return Snapshot{
		Tick:     s.ticks,
		Settled:  s.Settled(),
		Config:   s.cfg,
		Members:  s.Members(),
		Clusters: s.Clusters(),
		Edges:    s.Edges(),
		Selected: s.pinned,
	}
}

// Restore moves members to the positions recorded in snap and adopts its
// configuration and tick counter. Members absent from the store are
// reported as errors.ErrCodeMemberNotFound; nothing is changed in that case.
func (s *Simulation) Restore(snap Snapshot) error {
	if err := snap.Config.Validate(); err != nil {
		return err
	}
	for _, mv := range snap.Members {
		if _, ok := s.store.Member(mv.Name); !ok {
			return errs.New(errs.ErrCodeMemberNotFound, "unknown member: %s", mv.Name)
		}
	}
	for _, mv := range snap.Members {
		if err := s.store.SetPosition(mv.Name, mv.Pos); err != nil {
			return err
		}
	}
	s.cfg = snap.Config
	s.ticks = snap.Tick
	Aggregate(s.store)
	return nil
}

// Bounds returns the smallest rectangle holding every member, or the zero
// Rect when there are none.
func (snap Snapshot) Bounds() vec.Rect {
	if len(snap.Members) == 0 {
		return vec.Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, m := range snap.Members {
		minX, maxX = min(minX, m.Pos.X), max(maxX, m.Pos.X)
		minY, maxY = min(minY, m.Pos.Y), max(maxY, m.Pos.Y)
	}
	return vec.Rect{Min: vec.New(minX, minY), Max: vec.New(maxX, maxY)}
}

// Cluster returns the cluster view with the given name.
func (snap Snapshot) Cluster(name string) (ClusterView, bool) {
	for _, c := range snap.Clusters {
		if c.Name == name {
			return c, true
		}
	}
	return ClusterView{}, false
}

// =============================================================================
// Serialization
// =============================================================================

// WriteSnapshot writes snap as indented JSON.
func WriteSnapshot(snap Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "encode snapshot")
	}
	return nil
}

// ReadSnapshot decodes a snapshot written by [WriteSnapshot].
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return Snapshot{}, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode snapshot")
	}
	return snap, nil
}

// WriteSnapshotFile writes snap to path.
func WriteSnapshotFile(snap Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "create snapshot file")
	}
	defer f.Close()
	return WriteSnapshot(snap, f)
}

// ReadSnapshotFile reads a snapshot from path.
func ReadSnapshotFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, errs.Wrap(errs.ErrCodeFileNotFound, err, "snapshot not found: %s", path)
		}
		return Snapshot{}, errs.Wrap(errs.ErrCodeInternal, err, "open snapshot")
	}
	defer f.Close()
	return ReadSnapshot(f)
}
