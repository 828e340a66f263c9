// Package pkg provides the core libraries for comboom layouts.
//
// # Overview
//
// Comboom places members that belong to one or more clusters on a plane and
// lets them settle. Members of a cluster attract each other along the edges
// of that cluster, clusters repel each other through their centroids, and
// the whole system cools down after a fixed number of ticks. The pkg
// directory is organized into three areas:
//
//  1. Domain: [combo], [vec] and [layout]
//  2. Output: [render] and [pipeline]
//  3. Infrastructure: [cache], [store], [observability], [errors] and [buildinfo]
//
// # Architecture
//
// The typical data flow:
//
//	Manifest (JSON, TOML or YAML)
//	         ↓
//	    [combo] package (members, clusters, relations)
//	         ↓
//	    [layout] package (force steps, pointer input, snapshots)
//	         ↓
//	    [render] package (SVG, PNG, PDF, DOT)
//
// # Quick Start
//
//	m, _ := combo.ReadManifestFile("band.toml")
//	st, _ := combo.Load(m, vec.FromRadii(1000, 1000), rand.New(rand.NewPCG(1, 1)))
//	sim, _ := layout.New(st, layout.DefaultConfig())
//	for range 600 {
//	    sim.Step(0)
//	}
//	svg := render.RenderSVG(sim.Snapshot())
//
// [pipeline.Runner] wraps the same steps with caching and is what the CLI
// and the frame server use.
//
// # Main Packages
//
// [vec] - Plane geometry: vectors, rectangles and the distance bands used by
// the force model.
//
// [combo] - The member and cluster store. Manifests are validated and loaded
// here, and every pair of members sharing a cluster becomes a relation.
//
// [layout] - The simulation. Each step applies cluster repulsion and edge
// relaxation, honors a held member and decays into a settled state.
// Snapshots capture positions for rendering and persistence.
//
// [render] - Screenshots of a snapshot. SVG is drawn natively; PNG and PDF are
// converted with rsvg-convert; Graphviz can lay out the DOT export instead.
//
// [cache] - Key/value cache for settled snapshots and screenshots with null,
// file and Redis backends.
//
// [store] - Named snapshot persistence in a directory or MongoDB.
//
// [observability] - Hooks for simulation, cache and render events with a
// Prometheus implementation.
//
// # Testing
//
//	go test ./pkg/...
//
// [combo]: https://pkg.go.dev/github.com/matzehuels/comboom/pkg/combo
// [vec]: https://pkg.go.dev/github.com/matzehuels/comboom/pkg/vec
// [layout]: https://pkg.go.dev/github.com/matzehuels/comboom/pkg/layout
// [render]: https://pkg.go.dev/github.com/matzehuels/comboom/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/comboom/pkg/pipeline
// [pipeline.Runner]: https://pkg.go.dev/github.com/matzehuels/comboom/pkg/pipeline#Runner
// [cache]: https://pkg.go.dev/github.com/matzehuels/comboom/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/comboom/pkg/store
// [observability]: https://pkg.go.dev/github.com/matzehuels/comboom/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/comboom/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/comboom/pkg/buildinfo
package pkg
