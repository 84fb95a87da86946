package render

import (
	"bytes"
	"fmt"
	"html"
	"time"

	"github.com/TFMV/solmap/geom"
)

// SVGRenderer outputs SVG format
type SVGRenderer struct{}

// Name returns the name of the renderer
func (r *SVGRenderer) Name() string {
	return "SVG Renderer"
}

// Description returns a description of the renderer
func (r *SVGRenderer) Description() string {
	return "Renders graphs as Scalable Vector Graphics (SVG) for high-quality vector output"
}

// ContentType returns the MIME type of the output
func (r *SVGRenderer) ContentType() string {
	return "image/svg+xml"
}

// Render creates an SVG representation of the frame
func (r *SVGRenderer) Render(frame Frame, options *OutputOptions) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="no"?>` + "\n")
	writeSVG(&buf, Layout(frame), options)
	return buf.Bytes(), nil
}

// writeSVG writes the <svg> element alone, so it can be embedded in a page
func writeSVG(buf *bytes.Buffer, scene Scene, options *OutputOptions) {
	t := options.Theme

	fmt.Fprintf(buf, `<svg id="graph" width="%g" height="%g" viewBox="0 0 %g %g" xmlns="http://www.w3.org/2000/svg">
<rect class="background" width="100%%" height="100%%" fill="%s"/>
`, options.Width, options.Height, options.Width, options.Height, t.Background)

	// Edges first so boxes cover any overlap
	buf.WriteString(`<g class="links">` + "\n")
	for _, seg := range scene.Segments {
		fmt.Fprintf(buf, `<line class="link" data-from="%s" data-to="%s" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="2"/>
`, html.EscapeString(seg.From), html.EscapeString(seg.To), seg.Start.X, seg.Start.Y, seg.End.X, seg.End.Y, t.Edge)
		if !seg.SelfLoop {
			fmt.Fprintf(buf, `<polygon class="arrowhead" points="%s" fill="%s"/>
`, points(seg.Head[:]), t.Edge)
		}
		if options.ShowEdgeLabels && seg.Label != "" {
			mid := seg.Start.Add(seg.End).Scale(0.5)
			fmt.Fprintf(buf, `<text class="link-label" x="%.2f" y="%.2f" font-family="sans-serif" font-size="%g" fill="%s" text-anchor="middle">%s</text>
`, mid.X, mid.Y-4, options.FontSize*0.8, t.Edge, html.EscapeString(seg.Label))
		}
	}
	buf.WriteString("</g>\n")

	buf.WriteString(`<g class="nodes">` + "\n")
	for _, sh := range scene.Shapes {
		fill, stroke, width := t.shapeColors(sh.Selected)
		class := "node"
		if sh.Selected {
			class += " selected"
		}
		fmt.Fprintf(buf, `<g class="%s" data-id="%s" transform="translate(%.2f,%.2f)">
  <rect x="%g" y="%g" width="%g" height="%g" rx="8" fill="%s" stroke="%s" stroke-width="%g"/>
  <text dy="0.35em" font-family="'IBM Plex Serif', serif" font-size="%g" fill="%s" text-anchor="middle">%s</text>
</g>
`, class, html.EscapeString(sh.ID), sh.Center.X, sh.Center.Y,
			-sh.Box.W/2, -sh.Box.H/2, sh.Box.W, sh.Box.H, fill, stroke, width,
			options.FontSize, t.Text, html.EscapeString(sh.Label))
	}
	buf.WriteString("</g>\n")

	if options.Title != "" {
		fmt.Fprintf(buf, `<text x="10" y="20" font-family="sans-serif" font-size="14" fill="#333333">%s</text>
`, html.EscapeString(options.Title))
	}

	if options.Timestamp {
		fmt.Fprintf(buf, `<text x="5" y="%g" font-family="sans-serif" font-size="8" fill="#808080">%s</text>
`, options.Height-5, time.Now().Format("2006-01-02 15:04:05"))
	}

	buf.WriteString("</svg>\n")
}

func points(ps []geom.Vec) string {
	var buf bytes.Buffer
	for i, p := range ps {
		if i > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprintf(&buf, "%.2f,%.2f", p.X, p.Y)
	}
	return buf.String()
}
