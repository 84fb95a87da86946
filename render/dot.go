package render

import (
	"bytes"
	"fmt"
	"strconv"
)

// DOTRenderer outputs Graphviz DOT format
type DOTRenderer struct{}

// Name returns the name of the renderer
func (r *DOTRenderer) Name() string {
	return "DOT Renderer"
}

// Description returns a description of the renderer
func (r *DOTRenderer) Description() string {
	return "Renders graph in Graphviz DOT format, pinned to the computed layout (use neato -n)"
}

// ContentType returns the MIME type of the output
func (r *DOTRenderer) ContentType() string {
	return "text/vnd.graphviz"
}

// Render creates a DOT representation of the frame. Positions are in points
// with y flipped, as Graphviz expects.
func (r *DOTRenderer) Render(frame Frame, options *OutputOptions) ([]byte, error) {
	scene := Layout(frame)
	t := options.Theme

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  graph [bgcolor=%q, size=\"%g,%g\"];\n", t.Background, options.Width/72.0, options.Height/72.0)
	fmt.Fprintf(&buf, "  node [shape=box, style=\"rounded,filled\", fontname=\"Arial\", fontsize=%g, fontcolor=%q];\n",
		options.FontSize, t.Text)
	fmt.Fprintf(&buf, "  edge [color=%q, fontname=\"Arial\", fontsize=%g];\n", t.Edge, options.FontSize*0.8)

	for _, sh := range scene.Shapes {
		fill, stroke, width := t.shapeColors(sh.Selected)
		fmt.Fprintf(&buf, "  %s [label=%s, fillcolor=%q, color=%q, penwidth=%g, width=%g, height=%g, pos=\"%g,%g!\"];\n",
			strconv.Quote(sh.ID), strconv.Quote(sh.Label), fill, stroke, width,
			sh.Box.W/72.0, sh.Box.H/72.0, sh.Center.X, options.Height-sh.Center.Y)
	}

	for _, seg := range scene.Segments {
		if seg.Label != "" {
			fmt.Fprintf(&buf, "  %s -> %s [label=%s];\n", strconv.Quote(seg.From), strconv.Quote(seg.To), strconv.Quote(seg.Label))
			continue
		}
		fmt.Fprintf(&buf, "  %s -> %s;\n", strconv.Quote(seg.From), strconv.Quote(seg.To))
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}
