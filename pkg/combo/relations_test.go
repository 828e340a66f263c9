package combo

import (
	"fmt"
	"testing"

	errs "github.com/matzehuels/comboom/pkg/errors"
)

func TestRelationsExactlyOnce(t *testing.T) {
	m := bandManifest()
	s := mustLoad(t, m)

	want := 0
	for _, c := range m.Combos {
		n := len(c.Members)
		want += n * (n - 1) / 2
	}

	seen := map[string]int{}
	for r := range s.Relations() {
		if r.A == r.B || r.A.Name == r.B.Name {
			t.Fatalf("self pair %s", r.A.Name)
		}
		if r.A.Name >= r.B.Name {
			t.Errorf("pair not ordered: %s, %s", r.A.Name, r.B.Name)
		}
		key := fmt.Sprintf("%s|%s|%s", r.A.Name, r.B.Name, r.Cluster.Name)
		seen[key]++
		if rev := fmt.Sprintf("%s|%s|%s", r.B.Name, r.A.Name, r.Cluster.Name); seen[rev] > 0 {
			t.Errorf("both orderings emitted for %s", key)
		}
	}

	total := 0
	for key, n := range seen {
		if n != 1 {
			t.Errorf("%s emitted %d times", key, n)
		}
		total += n
	}
	if total != want {
		t.Errorf("edges = %d, want %d", total, want)
	}
	if got := s.RelationCount(); got != want {
		t.Errorf("RelationCount = %d, want %d", got, want)
	}
}

func TestRelationsSharedClusters(t *testing.T) {
	s := mustLoad(t, bandManifest())

	var clusters []string
	for r := range s.Relations() {
		if r.A.Name == "bob" && r.B.Name == "cleo" {
			clusters = append(clusters, r.Cluster.Name)
		}
	}
	if len(clusters) != 2 || clusters[0] != "Jazz" || clusters[1] != "Funk" {
		t.Errorf("bob-cleo clusters = %v, want [Jazz Funk]", clusters)
	}
}

func TestRelationsRestartable(t *testing.T) {
	s := mustLoad(t, bandManifest())
	seq := s.Relations()

	first, second := 0, 0
	for range seq {
		first++
	}
	for range seq {
		second++
	}
	if first == 0 || first != second {
		t.Errorf("passes yielded %d then %d", first, second)
	}

	n := 0
	for range seq {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("early break yielded %d", n)
	}
}

func TestRelationsSingleMemberCluster(t *testing.T) {
	s := mustLoad(t, Manifest{Combos: []ClusterSpec{
		{Name: "Solo", Color: "red", Members: []string{"eve"}},
	}})
	if got := s.RelationCount(); got != 0 {
		t.Errorf("RelationCount = %d, want 0", got)
	}
}

func TestValidateDangling(t *testing.T) {
	tests := []struct {
		name  string
		build func(s *Store)
	}{
		{
			name: "UnknownPeer",
			build: func(s *Store) {
				m, _ := s.Member("ann")
				m.Fellows = append(m.Fellows, Fellow{Peer: "ghost", Cluster: "Jazz"})
			},
		},
		{
			name: "UnknownCluster",
			build: func(s *Store) {
				m, _ := s.Member("ann")
				m.Fellows = append(m.Fellows, Fellow{Peer: "bob", Cluster: "Polka"})
			},
		},
		{
			name: "NotInducedByCluster",
			build: func(s *Store) {
				m, _ := s.Member("ann")
				m.Fellows = append(m.Fellows, Fellow{Peer: "dave", Cluster: "Funk"})
			},
		},
		{
			name: "SelfFellow",
			build: func(s *Store) {
				m, _ := s.Member("ann")
				m.Fellows = append(m.Fellows, Fellow{Peer: "ann", Cluster: "Jazz"})
			},
		},
		{
			name: "ClusterListsUnknownMember",
			build: func(s *Store) {
				c, _ := s.Cluster("Solo")
				c.Members = append(c.Members, "ghost")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustLoad(t, bandManifest())
			if err := s.Validate(); err != nil {
				t.Fatalf("fresh store invalid: %v", err)
			}
			tt.build(s)
			err := s.Validate()
			if !errs.Is(err, errs.ErrCodeDanglingReference) {
				t.Errorf("Validate() = %v, want %s", err, errs.ErrCodeDanglingReference)
			}
		})
	}
}
