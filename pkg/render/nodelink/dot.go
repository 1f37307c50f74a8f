package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/shipyard/pkg/plan"
	"github.com/matzehuels/shipyard/pkg/sde"
)

// Namer resolves display names. [catalog.Catalog] implements it.
type Namer interface {
	Name(id sde.TypeID) string
}

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds runs, storage use and surplus to node labels.
	// When false, only the name and total quantity are shown.
	Detailed bool
}

// node aggregates every plan node of one type.
type node struct {
	id          sde.TypeID
	requested   int64
	fromStorage int64
	runs        int64
	surplus     int64
	raw         bool
}

type edge struct {
	from, to sde.TypeID
}

// ToDOT converts a build plan to Graphviz DOT format.
//
// Each type appears once, even if the plan builds it on several branches;
// its quantities are summed. Edges point from a product to its inputs and
// are labelled with the total quantity consumed. Raw materials are drawn
// dashed and grey.
func ToDOT(p *plan.Plan, names Namer, opts Options) string {
	nodes := make(map[sde.TypeID]*node)
	var order []sde.TypeID
	edges := make(map[edge]int64)
	var edgeOrder []edge

	var visit func(n *plan.Node)
	visit = func(n *plan.Node) {
		agg, ok := nodes[n.TypeID]
		if !ok {
			agg = &node{id: n.TypeID, raw: n.Raw()}
			nodes[n.TypeID] = agg
			order = append(order, n.TypeID)
		}
		agg.requested += n.Requested
		agg.fromStorage += n.FromStorage
		agg.runs += n.Runs
		agg.surplus += n.Surplus

		for _, in := range n.Inputs {
			e := edge{n.TypeID, in.TypeID}
			if _, ok := edges[e]; !ok {
				edgeOrder = append(edgeOrder, e)
			}
			edges[e] += in.Requested
			visit(in)
		}
	}
	if p.Root != nil {
		visit(p.Root)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=18];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, id := range order {
		n := nodes[id]
		label := fmtLabel(n, names.Name(id), opts.Detailed)
		fmt.Fprintf(&buf, "  \"%d\" [%s];\n", id, strings.Join(fmtAttrs(n, label), ", "))
	}

	buf.WriteString("\n")
	for _, e := range edgeOrder {
		fmt.Fprintf(&buf, "  \"%d\" -> \"%d\" [label=%q];\n", e.from, e.to, "×"+strconv.FormatInt(edges[e], 10))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *node, name string, detailed bool) string {
	head := fmt.Sprintf("%d x %s", n.requested, name)
	if !detailed {
		return head
	}

	var parts []string
	if n.runs > 0 {
		parts = append(parts, fmt.Sprintf("runs: %d", n.runs))
	}
	if n.fromStorage > 0 {
		parts = append(parts, fmt.Sprintf("from storage: %d", n.fromStorage))
	}
	if n.surplus > 0 {
		parts = append(parts, fmt.Sprintf("surplus: %d", n.surplus))
	}
	if len(parts) == 0 {
		return head
	}
	return head + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n *node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.raw {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg tag so the drawing scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
