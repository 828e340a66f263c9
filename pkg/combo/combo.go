package combo

import (
	"errors"
	"fmt"
	"slices"

	"github.com/matzehuels/comboom/pkg/vec"
)

var (
	// ErrUnknownMember is returned by lookups for a member name that is not
	// in the store.
	ErrUnknownMember = errors.New("unknown member")

	// ErrUnknownCluster is returned by lookups for a cluster name that is not
	// in the store.
	ErrUnknownCluster = errors.New("unknown cluster")
)

// Fellow is one entry of a member's relation list: another member it shares
// a cluster with, and the cluster that induced the relation. A member has one
// Fellow per co-occurrence, so the same peer appears once for every cluster
// the two members share.
type Fellow struct {
	Peer    string `json:"peer"`
	Cluster string `json:"cluster"`
}

// Member is an individual entity placed in the layout.
type Member struct {
	Name    string
	Pos     vec.Vec2
	Fellows []Fellow
}

// Cluster is a named, colored group of members.
//
// Centroid is derived data: the layout recomputes it every frame as the mean
// of the member positions and then moves it during repulsion.
type Cluster struct {
	Name     string
	Color    string
	Members  []string
	Centroid vec.Vec2
}

// Size returns the number of members in the cluster.
func (c *Cluster) Size() int { return len(c.Members) }

// Store owns every Member and Cluster of one layout.
//
// Entities are kept in insertion order so that iteration, and therefore the
// in-place relaxation, is deterministic for a fixed starting state. Nothing is
// added or removed after [Load] returns; only positions and centroids change.
//
// The zero value is not usable - use [Load] or [NewStore].
// Store is not safe for concurrent use without external synchronization.
type Store struct {
	members  map[string]*Member
	clusters map[string]*Cluster
	order    []*Member
	corder   []*Cluster
}

// NewStore returns an empty store. Most callers want [Load] instead.
func NewStore() *Store {
	return &Store{
		members:  make(map[string]*Member),
		clusters: make(map[string]*Cluster),
	}
}

// Member returns the member with the given name.
func (s *Store) Member(name string) (*Member, bool) {
	m, ok := s.members[name]
	return m, ok
}

// Cluster returns the cluster with the given name.
func (s *Store) Cluster(name string) (*Cluster, bool) {
	c, ok := s.clusters[name]
	return c, ok
}

// Members returns all members in insertion order.
// The slice is shared with the store and must not be modified.
func (s *Store) Members() []*Member { return s.order }

// Clusters returns all clusters in insertion order.
// The slice is shared with the store and must not be modified.
func (s *Store) Clusters() []*Cluster { return s.corder }

// MemberCount returns the number of members.
func (s *Store) MemberCount() int { return len(s.order) }

// ClusterCount returns the number of clusters.
func (s *Store) ClusterCount() int { return len(s.corder) }

// MembersOf returns the members of the named cluster in manifest order.
func (s *Store) MembersOf(cluster string) ([]*Member, error) {
	c, ok := s.clusters[cluster]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCluster, cluster)
	}
	out := make([]*Member, 0, len(c.Members))
	for _, name := range c.Members {
		m, ok := s.members[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s (in cluster %s)", ErrUnknownMember, name, cluster)
		}
		out = append(out, m)
	}
	return out, nil
}

// ClustersOf returns the names of the clusters the member belongs to, in
// store order.
func (s *Store) ClustersOf(member string) []string {
	var out []string
	for _, c := range s.corder {
		if slices.Contains(c.Members, member) {
			out = append(out, c.Name)
		}
	}
	return out
}

// SetPosition moves a member. It is the only way positions change outside
// the layout steps.
func (s *Store) SetPosition(name string, p vec.Vec2) error {
	m, ok := s.members[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMember, name)
	}
	m.Pos = p
	return nil
}

// addCluster registers a cluster. The caller guarantees the name is new.
func (s *Store) addCluster(c *Cluster) {
	s.clusters[c.Name] = c
	s.corder = append(s.corder, c)
}

// memberOrCreate returns the named member, creating it at pos when absent.
func (s *Store) memberOrCreate(name string, pos vec.Vec2) *Member {
	if m, ok := s.members[name]; ok {
		return m
	}
	m := &Member{Name: name, Pos: pos}
	s.members[name] = m
	s.order = append(s.order, m)
	return m
}
