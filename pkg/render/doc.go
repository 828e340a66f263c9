// Package render turns layout snapshots into screenshots.
//
// # Engines
//
// Two engines produce SVG:
//
//   - [EngineNative] writes SVG directly with the canvas look: black member
//     discs with white outlines, cluster-colored links and cluster names
//     sized by membership.
//   - [EngineGraphviz] emits DOT with every node pinned at its layout
//     position ([ToDOT]) and lets Graphviz's neato engine draw it.
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert SVG using the external rsvg-convert tool
// (from librsvg).
//
//	svg := render.RenderSVG(snap, render.WithSize(5000, 2500))
//	png, err := render.ToPNG(ctx, svg, 5000)
//
// # Caching
//
// [Renderer] wraps both engines and the converters with a [cache.Cache]
// keyed by a hash of the snapshot and the options, and reports timings to
// the registered observability render hooks.
//
// [cache.Cache]: github.com/matzehuels/comboom/pkg/cache.Cache
package render
