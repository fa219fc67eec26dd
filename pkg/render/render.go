// Package render produces SVG previews of boards via Graphviz.
//
// Nodes keep their board coordinates (the DOT output pins positions and
// selects the neato engine), so a preview rendered before and after an
// optimization run shows exactly what the optimizer changed.
package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/detangle/pkg/board"
)

// Options configures board preview rendering.
type Options struct {
	// Detailed includes item positions and snap sides in labels.
	// When false, only the item ID is shown.
	Detailed bool
}

// dotScale maps board units to Graphviz inches.
const dotScale = 72.0

// ToDOT converts a board document to Graphviz DOT format.
// The resulting DOT string can be rendered with [RenderSVG].
//
// Node positions are pinned (pos="x,y!") so Graphviz draws the board as it
// is, rather than computing its own layout. Connector snap sides become
// compass ports on the edge endpoints.
func ToDOT(doc *board.Document, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph board {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=ortho;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.1,0.05\"];\n")
	buf.WriteString("\n")

	for _, n := range doc.Nodes() {
		label := fmtLabel(n, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [label=%q, pos=\"%.2f,%.2f!\", width=%.2f, height=%.2f, fixedsize=true];\n",
			n.ID, label,
			n.X/dotScale, -n.Y/dotScale,
			n.EffectiveWidth()/dotScale, n.EffectiveHeight()/dotScale)
	}

	buf.WriteString("\n")
	for _, c := range doc.Connectors() {
		start, end := c.Endpoints()
		if start == "" || end == "" {
			continue
		}
		fmt.Fprintf(&buf, "  %s -> %s;\n", endpointRef(start, c.Start), endpointRef(end, c.End))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n board.Item, detailed bool) string {
	if !detailed {
		return n.ID
	}
	return fmt.Sprintf("%s\n(%.0f, %.0f)", n.ID, n.X, n.Y)
}

// endpointRef formats a node reference with an optional compass port derived
// from the endpoint's snap side.
func endpointRef(nodeID string, ep *board.Endpoint) string {
	ref := strconv.Quote(nodeID)
	if ep == nil {
		return ref
	}
	if port, ok := compassPort(ep.SnapTo); ok {
		return ref + ":" + port
	}
	return ref
}

func compassPort(side board.SnapSide) (string, bool) {
	switch side {
	case board.SnapTop:
		return "n", true
	case board.SnapRight:
		return "e", true
	case board.SnapBottom:
		return "s", true
	case board.SnapLeft:
		return "w", true
	default:
		return "", false
	}
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
	viewBoxRe = regexp.MustCompile(`viewBox="(-?[0-9.]+)\s+(-?[0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg tag so width/height match the
// viewBox dimensions. Graphviz emits point-based sizes that scale
// inconsistently across viewers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	x, _ := strconv.ParseFloat(string(match[1]), 64)
	y, _ := strconv.ParseFloat(string(match[2]), 64)
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.2f %.2f %.2f %.2f" width="%.0f" height="%.0f">`,
		x, y, w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
