// Package render draws registers as Graphviz diagrams.
//
// # Overview
//
// Two node-link views are available:
//
//   - [ImportsDOT]: one node per register, with an arrow to every register it
//     imports
//   - [DependenciesDOT]: one node per building block, with an arrow to every
//     block it depends on
//
// Both return DOT source that can be rendered in-process with [SVG] or saved
// and processed with external Graphviz tools.
//
//	dot := render.DependenciesDOT(reg, render.Options{Detailed: true})
//	svg, err := render.SVG(ctx, dot)
//
// # Styling
//
// Items declared by imported registers are drawn dashed. Retired and
// superseded items are filled grey. Dependencies that no loaded register
// declares are drawn dotted so broken links stand out.
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert SVG output using the external rsvg-convert
// tool (from librsvg).
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for SVG rendering.
package render
