// Package geom holds the planar geometry shared by the layout engine, the
// interaction layer and the renderers: vectors, node boxes sized from their
// labels, boundary clipping and arrowheads.
package geom

import (
	"math"
	"unicode/utf8"
)

// Node box sizing. A box is as wide as its label plus padding, never narrower
// than MinWidth, and always Height tall.
const (
	CharWidth = 7.0
	Padding   = 16.0
	MinWidth  = 80.0
	Height    = 40.0
)

// Vec is a point or displacement in layout space
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v+o
func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

// Sub returns v-o
func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

// Scale returns v*s
func (v Vec) Scale(s float64) Vec { return Vec{v.X * s, v.Y * s} }

// Len returns the euclidean length of v
func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// IsFinite reports whether both components are finite numbers
func (v Vec) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// Box is the size of an axis-aligned node shape centred on the node position
type Box struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// NodeBox returns the shape of a node displaying label
func NodeBox(label string) Box {
	w := float64(utf8.RuneCountInString(label))*CharWidth + 2*Padding
	return Box{W: math.Max(w, MinWidth), H: Height}
}

// Radius is the radius of the smallest disk enclosing the box. Two nodes whose
// disks do not intersect cannot have overlapping boxes.
func (b Box) Radius() float64 {
	return math.Hypot(b.W/2, b.H/2)
}

// Contains reports whether p lies inside the box centred at c
func (b Box) Contains(c, p Vec) bool {
	return math.Abs(p.X-c.X) <= b.W/2 && math.Abs(p.Y-c.Y) <= b.H/2
}

// Overlaps reports whether box a centred at ca intersects box b centred at cb
func Overlaps(a Box, ca Vec, b Box, cb Vec) bool {
	return math.Abs(ca.X-cb.X) < (a.W+b.W)/2 && math.Abs(ca.Y-cb.Y) < (a.H+b.H)/2
}

// ClipToBox returns the point where the ray from c towards from leaves the
// box centred at c. When from coincides with c the centre is returned.
func ClipToBox(c Vec, b Box, from Vec) Vec {
	d := from.Sub(c)
	if d.X == 0 && d.Y == 0 {
		return c
	}
	t := math.Inf(1)
	if d.X != 0 {
		t = (b.W / 2) / math.Abs(d.X)
	}
	if d.Y != 0 {
		t = math.Min(t, (b.H/2)/math.Abs(d.Y))
	}
	return c.Add(d.Scale(t))
}

// Angle returns the direction of the segment a→b in radians
func Angle(a, b Vec) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}

// Arrowhead returns the three corners of an arrowhead whose tip sits at tip and
// which points along angle. size is the length of the head.
func Arrowhead(tip Vec, angle, size float64) [3]Vec {
	const spread = math.Pi / 6
	left := Vec{
		X: tip.X - size*math.Cos(angle-spread),
		Y: tip.Y - size*math.Sin(angle-spread),
	}
	right := Vec{
		X: tip.X - size*math.Cos(angle+spread),
		Y: tip.Y - size*math.Sin(angle+spread),
	}
	return [3]Vec{tip, left, right}
}
