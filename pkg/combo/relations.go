package combo

import (
	"iter"
	"slices"

	errs "github.com/matzehuels/comboom/pkg/errors"
)

// Relation is one undirected co-occurrence edge: A and B share Cluster.
// A.Name is always lexicographically less than B.Name.
type Relation struct {
	A, B    *Member
	Cluster *Cluster
}

// Relations returns a lazy sequence of every co-occurrence edge.
//
// Each member's fellow list holds both directions of every edge, so a pair
// is only emitted from the side whose name sorts first; a peer with an equal
// or smaller name is skipped. That yields every edge exactly once per shared
// cluster, never both orderings and never a self-pair, regardless of the
// order members are walked in.
//
// The sequence is restartable: ranging over it again walks the store afresh.
func (s *Store) Relations() iter.Seq[Relation] {
	return func(yield func(Relation) bool) {
		for _, m := range s.order {
			for _, f := range m.Fellows {
				if f.Peer <= m.Name {
					continue
				}
				peer, ok := s.members[f.Peer]
				if !ok {
					continue
				}
				c, ok := s.clusters[f.Cluster]
				if !ok {
					continue
				}
				if !yield(Relation{A: m, B: peer, Cluster: c}) {
					return
				}
			}
		}
	}
}

// RelationCount returns the number of edges [Store.Relations] yields.
func (s *Store) RelationCount() int {
	n := 0
	for range s.Relations() {
		n++
	}
	return n
}

// Validate checks the store invariants: every fellow references an existing
// member and cluster, both members actually belong to that cluster, and every
// cluster member exists. Load calls Validate before returning, so a loaded
// store never fails it.
func (s *Store) Validate() error {
	for _, c := range s.corder {
		if len(c.Members) == 0 {
			return errs.New(errs.ErrCodeInvalidManifest, "cluster %q has no members", c.Name)
		}
		for _, name := range c.Members {
			if _, ok := s.members[name]; !ok {
				return errs.New(errs.ErrCodeDanglingReference, "cluster %q lists unknown member %q", c.Name, name)
			}
		}
	}
	for _, m := range s.order {
		for _, f := range m.Fellows {
			if f.Peer == m.Name {
				return errs.New(errs.ErrCodeDanglingReference, "member %q lists itself as fellow", m.Name)
			}
			if _, ok := s.members[f.Peer]; !ok {
				return errs.New(errs.ErrCodeDanglingReference, "member %q references unknown peer %q", m.Name, f.Peer)
			}
			c, ok := s.clusters[f.Cluster]
			if !ok {
				return errs.New(errs.ErrCodeDanglingReference, "member %q references unknown cluster %q", m.Name, f.Cluster)
			}
			if !slices.Contains(c.Members, m.Name) || !slices.Contains(c.Members, f.Peer) {
				return errs.New(errs.ErrCodeDanglingReference,
					"relation %q-%q is not induced by cluster %q", m.Name, f.Peer, f.Cluster)
			}
		}
	}
	return nil
}
