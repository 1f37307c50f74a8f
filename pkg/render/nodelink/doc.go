// Package nodelink renders build plans as node-link diagrams.
//
// # Usage
//
// Convert a plan to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(p, catalog, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The DOT source can also be written out as is and processed with the
// Graphviz command line tools.
//
// The generated DOT uses top-to-bottom layout (rankdir=TB): the product sits
// at the top and raw materials at the bottom.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is needed.
package nodelink
