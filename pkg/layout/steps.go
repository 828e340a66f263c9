package layout

import (
	"math"

	"github.com/matzehuels/comboom/pkg/combo"
	"github.com/matzehuels/comboom/pkg/vec"
)

// The steps below mutate the store in place, one relation or cluster at a
// time, so later updates within a frame see the results of earlier ones.
// A pinned member (by name, "" for none) is never written by any step.

// RelaxEdges pulls or pushes every related pair toward the desired
// separation. Each member moves toward its ideal point by factor; coincident
// pairs have no direction and are left alone.
func RelaxEdges(s *combo.Store, desired, factor float64, pinned string) {
	for r := range s.Relations() {
		a, b, ok := lerpEdge(r.A.Pos, r.B.Pos, factor, desired)
		if !ok {
			continue
		}
		if r.A.Name != pinned {
			r.A.Pos = a
		}
		if r.B.Name != pinned {
			r.B.Pos = b
		}
	}
}

// lerpEdge returns the new positions of a and b after one relaxation toward
// being desired apart along their current direction.
func lerpEdge(a, b vec.Vec2, factor, desired float64) (vec.Vec2, vec.Vec2, bool) {
	v := b.Sub(a)
	dir, ok := v.Normalize()
	if !ok {
		return a, b, false
	}
	center := a.Add(v.Scale(0.5))
	aIdeal := center.Add(dir.Scale(-desired / 2))
	bIdeal := center.Add(dir.Scale(desired / 2))
	return a.Lerp(aIdeal, factor), b.Lerp(bIdeal, factor), true
}

// Aggregate recomputes every cluster centroid as the mean of its member
// positions. Clusters always have at least one member once loaded.
func Aggregate(s *combo.Store) {
	for _, c := range s.Clusters() {
		var sum vec.Vec2
		for _, name := range c.Members {
			m, _ := s.Member(name)
			sum = sum.Add(m.Pos)
		}
		c.Centroid = sum.Scale(1 / float64(len(c.Members)))
	}
}

// Repel pushes cluster centroids away from each other. The force from each
// other cluster points away from it with magnitude aggression/distance. When
// the nearest other cluster is beyond falloff.Start the summed force is
// scaled down linearly, reaching zero at falloff.End.
func Repel(s *combo.Store, aggression float64, falloff vec.Band) {
	clusters := s.Clusters()
	for _, c := range clusters {
		c.Centroid = c.Centroid.Add(repulsion(c, clusters, aggression, falloff))
	}
}

// repulsion returns the force acting on c from every other cluster.
func repulsion(c *combo.Cluster, clusters []*combo.Cluster, aggression float64, falloff vec.Band) vec.Vec2 {
	var force vec.Vec2
	nearest := math.Inf(1)
	for _, o := range clusters {
		if o == c {
			continue
		}
		diff := o.Centroid.Sub(c.Centroid)
		d := diff.Len()
		nearest = min(nearest, d)

		dir, ok := diff.Normalize()
		if !ok {
			continue
		}
		force = force.Add(dir.Scale(-aggression / d))
	}

	if nearest > falloff.Start {
		force = force.Scale(max(0, 1-falloff.Normalize(nearest)))
	}
	return force
}

// Cohere blends every member toward the centroid of each cluster it belongs
// to. Members of several clusters are pulled once per cluster.
func Cohere(s *combo.Store, pull float64, pinned string) {
	for _, c := range s.Clusters() {
		for _, name := range c.Members {
			if name == pinned {
				continue
			}
			m, _ := s.Member(name)
			m.Pos = m.Pos.Lerp(c.Centroid, pull)
		}
	}
}
