package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/curricula/pkg/curriculum"
	"github.com/matzehuels/curricula/pkg/overlay"
)

// Options configures curriculum map rendering.
type Options struct {
	// Scale multiplies layout coordinates (pixels) into points. Zero means 0.5.
	Scale float64

	// EdgeLabels prints each edge's hover text as a visible label.
	EdgeLabels bool
}

func (o Options) scale() float64 {
	if o.Scale <= 0 {
		return 0.5
	}
	return o.Scale
}

// ToDOT converts a laid-out dataset to Graphviz DOT for the neato engine.
// Every node is pinned at its layout position (y flipped, since Graphviz
// grows upwards) and styled like the interactive map under state.
// Endpoints that did not resolve to a node are drawn dashed and left for
// neato to place.
func ToDOT(ds *curriculum.Dataset, state overlay.State, opts Options) string {
	scale := opts.scale()
	filtered := ds.Program != ""

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=true;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [shape=circle, style=filled, fixedsize=true, width=0.9, fontname=\"Helvetica\", fontsize=10, fontcolor=white];\n")
	buf.WriteString("  edge [arrowsize=0.7, fontname=\"Helvetica\", fontsize=9];\n")
	buf.WriteString("\n")

	nodes := ds.Nodes()
	slices.SortFunc(nodes, func(a, b *curriculum.Node) int { return strings.Compare(string(a.ID), string(b.ID)) })
	for _, n := range nodes {
		box := overlay.NodeStyle(n, state)
		attrs := []string{
			fmt.Sprintf("label=%q", box.Label),
			fmt.Sprintf("pos=\"%s,%s!\"", num(n.Position.X*scale), num(-n.Position.Y*scale)),
			fmt.Sprintf("fillcolor=%q", box.Fill),
			fmt.Sprintf("color=%q", box.Stroke),
			fmt.Sprintf("penwidth=%s", num(box.LineWidth)),
			fmt.Sprintf("tooltip=%q", overlay.Tooltip(n, filtered)),
		}
		if state.IsSelected(n.ID) {
			attrs = append(attrs, "fontcolor=black")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", string(n.ID), strings.Join(attrs, ", "))
	}

	var dangling []curriculum.Identity
	for _, e := range ds.Edges() {
		for _, id := range []curriculum.Identity{e.Source, e.Target} {
			if !ds.Has(id) && !slices.Contains(dangling, id) {
				dangling = append(dangling, id)
			}
		}
	}
	for _, id := range dangling {
		fmt.Fprintf(&buf, "  %q [label=%q, style=\"dashed\", color=%q, fontcolor=%q];\n",
			string(id), id.Code(), overlay.ColorDirect, overlay.ColorDirect)
	}

	buf.WriteString("\n")
	for _, e := range ds.Edges() {
		stroke := overlay.EdgeStyle(e, state)
		target, _ := ds.Node(e.Target)
		attrs := []string{
			fmt.Sprintf("color=%q", stroke.Color),
			fmt.Sprintf("penwidth=%s", num(stroke.Width)),
			fmt.Sprintf("tooltip=%q", overlay.EdgeLabel(e, target)),
		}
		if opts.EdgeLabels {
			attrs = append(attrs, fmt.Sprintf("label=%q", overlay.EdgeLabel(e, target)))
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", string(e.Source), string(e.Target), strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func num(f float64) string {
	if f == 0 {
		f = 0 // no "-0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RenderSVG renders DOT produced by [ToDOT] to SVG with the neato engine.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

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

// normalizeViewBox replaces Graphviz's <svg> tag (pt units, odd origin)
// with one using a zero-origin viewBox and pixel dimensions.
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

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
