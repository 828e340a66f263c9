// Package layout settles a [combo.Store] into a readable picture.
//
// # Pipeline
//
// Every frame runs up to four steps over the store, in this order:
//
//  1. [RelaxEdges] moves each related pair toward the desired separation.
//  2. [Aggregate] recomputes cluster centroids from member positions.
//  3. [Repel] pushes cluster centroids apart, fading out with distance.
//  4. [Cohere] pulls members toward the centroids of their clusters.
//
// Steps 3 and 4 only run while [Config.Collapse] is set. A frozen
// simulation skips the pipeline entirely but still accepts pointer input.
//
// # Settling
//
// The layout starts energetic. After [Config.DecayAfter] frames the
// repulsion constant drops to [Config.SettledAggression] and collapse is
// switched off. The transition happens once per run.
//
// # Interaction
//
// [Simulation.PointerDown], [Simulation.PointerMove] and
// [Simulation.PointerUp] let a caller drag one member at a time. A dragged
// member sits exactly at the pointer and is ignored by every step, while
// its peers keep reacting to it.
//
// # Snapshots
//
// [Simulation.Snapshot] copies the frame into plain values suitable for
// rendering, JSON export and persistence; [Simulation.Restore] loads one
// back.
//
// [combo.Store]: github.com/matzehuels/comboom/pkg/combo.Store
package layout
