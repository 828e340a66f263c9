// Package combo holds the member/cluster graph that the layout animates.
//
// # Model
//
// A [Member] is an individual identified by name with a 2D position. A
// [Cluster] ("combo") is a named, colored group of members. Two members that
// share a cluster are related; the relation is implicit and recorded on each
// member as a [Fellow] entry (peer name, inducing cluster). Members sharing
// several clusters are related once per shared cluster.
//
// # Loading
//
// A [Store] is built once from a [Manifest] and never gains or loses entities
// afterwards:
//
//	m, err := combo.ReadManifestFile("combos.json")
//	if err != nil {
//	    return err
//	}
//	store, err := combo.Load(m, vec.FromRadii(800, 600), rng)
//
// Load validates eagerly. Empty clusters, duplicate names and invalid colors
// are rejected with errors.ErrCodeInvalidManifest; dangling references are
// reported as errors.ErrCodeDanglingReference.
//
// # Relations
//
// [Store.Relations] enumerates every co-occurrence edge exactly once, ordered
// so that the first member's name sorts before the second's:
//
//	for r := range store.Relations() {
//	    fmt.Println(r.A.Name, r.B.Name, r.Cluster.Name)
//	}
//
// # Concurrency
//
// A Store is owned by a single frame loop. It is not safe for concurrent use.
package combo
