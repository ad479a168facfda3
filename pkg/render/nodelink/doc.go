// Package nodelink renders the curriculum map as a static node-link diagram.
//
// # Overview
//
// Nodes are drawn as circles at the positions computed by the layout
// package and styled exactly like the interactive map: the selected course
// is highlighted, edges touching it are drawn thick and amber, and the rest
// are colored by their credit threshold. Labels are course codes; the
// course name and credit requirements appear as SVG tooltips.
//
// # Usage
//
//	layout.Assign(ds, layout.DefaultOptions())
//	dot := nodelink.ToDOT(ds, overlay.State{Selected: id}, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # DOT Format
//
// [ToDOT] emits DOT for the neato engine with every node pinned via
// pos="x,y!". It can be rendered with [RenderSVG] or saved and processed
// with external Graphviz tools (neato -n2 keeps the positions).
//
// # Dependencies
//
// [RenderSVG] uses [github.com/goccy/go-graphviz], which embeds Graphviz as
// WebAssembly, so no system installation is required.
package nodelink
