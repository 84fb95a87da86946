package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/TFMV/solmap/geom"
)

// supersample is the factor the PNG is drawn at before being scaled down
const supersample = 2

var (
	fontOnce sync.Once
	fontData *opentype.Font
	fontErr  error
)

func goRegular() (*opentype.Font, error) {
	fontOnce.Do(func() {
		fontData, fontErr = opentype.Parse(goregular.TTF)
	})
	return fontData, fontErr
}

// PNGRenderer rasterises the frame natively
type PNGRenderer struct{}

// Name returns the name of the renderer
func (r *PNGRenderer) Name() string {
	return "PNG Renderer"
}

// Description returns a description of the renderer
func (r *PNGRenderer) Description() string {
	return "Renders graph as a PNG image, supersampled for smooth edges"
}

// ContentType returns the MIME type of the output
func (r *PNGRenderer) ContentType() string {
	return "image/png"
}

// raster holds rendering parameters including scale
type raster struct {
	img   *image.RGBA
	scale float64
	face  font.Face
}

// Render creates a PNG image of the frame
func (r *PNGRenderer) Render(frame Frame, options *OutputOptions) ([]byte, error) {
	w, h := int(math.Ceil(options.Width)), int(math.Ceil(options.Height))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", w, h)
	}

	fnt, err := goRegular()
	if err != nil {
		return nil, fmt.Errorf("loading font: %w", err)
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    options.FontSize * supersample,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("creating font face: %w", err)
	}
	defer face.Close()

	large := image.NewRGBA(image.Rect(0, 0, w*supersample, h*supersample))
	ctx := &raster{img: large, scale: supersample, face: face}
	t := options.Theme

	draw.Draw(large, large.Bounds(), image.NewUniform(rgba(t.Background)), image.Point{}, draw.Src)

	scene := Layout(frame)
	edge := rgba(t.Edge)
	for _, seg := range scene.Segments {
		ctx.line(seg.Start, seg.End, 2, edge)
		if !seg.SelfLoop {
			ctx.triangle(seg.Head, edge)
		}
		if options.ShowEdgeLabels && seg.Label != "" {
			ctx.text(seg.Start.Add(seg.End).Scale(0.5).Sub(geom.Vec{Y: 8}), seg.Label, edge)
		}
	}

	for _, sh := range scene.Shapes {
		fill, stroke, width := t.shapeColors(sh.Selected)
		ctx.box(sh.Center, sh.Box, width, rgba(fill), rgba(stroke))
		ctx.text(sh.Center, sh.Label, rgba(t.Text))
	}

	final := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(final, final.Bounds(), large, large.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, final); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// px converts a layout point to pixels of the large image
func (r *raster) px(p geom.Vec) geom.Vec {
	return p.Scale(r.scale)
}

// box fills a node box and strokes its outline
func (r *raster) box(c geom.Vec, b geom.Box, strokeWidth float64, fill, stroke color.Color) {
	center := r.px(c)
	hw, hh := b.W/2*r.scale, b.H/2*r.scale
	sw := strokeWidth * r.scale

	outer := image.Rect(int(center.X-hw), int(center.Y-hh), int(center.X+hw), int(center.Y+hh))
	draw.Draw(r.img, outer, image.NewUniform(stroke), image.Point{}, draw.Src)
	inner := outer.Inset(int(math.Round(sw)))
	draw.Draw(r.img, inner, image.NewUniform(fill), image.Point{}, draw.Src)
}

// line draws a line between two points with thickness
func (r *raster) line(a, b geom.Vec, thickness float64, c color.Color) {
	a, b = r.px(a), r.px(b)
	d := b.Sub(a)
	dist := d.Len()
	half := thickness * r.scale / 2

	if dist < 1 {
		for ty := -half; ty <= half; ty++ {
			for tx := -half; tx <= half; tx++ {
				r.img.Set(int(a.X+tx), int(a.Y+ty), c)
			}
		}
		return
	}

	perp := geom.Vec{X: -d.Y / dist, Y: d.X / dist}
	steps := math.Max(math.Abs(d.X), math.Abs(d.Y))
	for i := 0.0; i <= steps; i++ {
		p := a.Add(d.Scale(i / steps))
		for off := -half; off <= half; off += 0.5 {
			q := p.Add(perp.Scale(off))
			r.img.Set(int(q.X), int(q.Y), c)
		}
	}
}

// triangle fills a triangle by scanning its bounding box
func (r *raster) triangle(pts [3]geom.Vec, c color.Color) {
	for i := range pts {
		pts[i] = r.px(pts[i])
	}
	minX := math.Floor(math.Min(pts[0].X, math.Min(pts[1].X, pts[2].X)))
	maxX := math.Ceil(math.Max(pts[0].X, math.Max(pts[1].X, pts[2].X)))
	minY := math.Floor(math.Min(pts[0].Y, math.Min(pts[1].Y, pts[2].Y)))
	maxY := math.Ceil(math.Max(pts[0].Y, math.Max(pts[1].Y, pts[2].Y)))

	edge := func(a, b, p geom.Vec) float64 {
		return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
	}
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := geom.Vec{X: x + 0.5, Y: y + 0.5}
			e0, e1, e2 := edge(pts[0], pts[1], p), edge(pts[1], pts[2], p), edge(pts[2], pts[0], p)
			if (e0 >= 0 && e1 >= 0 && e2 >= 0) || (e0 <= 0 && e1 <= 0 && e2 <= 0) {
				r.img.Set(int(x), int(y), c)
			}
		}
	}
}

// text draws s centred on c
func (r *raster) text(c geom.Vec, s string, col color.Color) {
	center := r.px(c)
	width := font.MeasureString(r.face, s).Ceil()
	ascent := r.face.Metrics().Ascent.Ceil()

	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(col),
		Face: r.face,
		Dot: fixed.Point26_6{
			X: fixed.I(int(center.X) - width/2),
			Y: fixed.I(int(center.Y) + ascent*35/100),
		},
	}
	d.DrawString(s)
}
