package render

import (
	"errors"

	"github.com/TFMV/solmap/geom"
	"github.com/TFMV/solmap/models"
)

// ErrUnresolvedEndpoint marks an edge or node that had no usable position.
// Such items are left out of the picture and counted, never returned.
var ErrUnresolvedEndpoint = errors.New("unresolved endpoint position")

// ArrowSize is the length of an arrowhead in layout units
const ArrowSize = 10.0

// Frame is everything a renderer draws: the graph, where its nodes are right
// now and which one is selected. It is a value; renderers never write to it.
type Frame struct {
	Graph     *models.Graph       `json:"graph"`
	Positions map[string]geom.Vec `json:"positions"`
	Selected  string              `json:"selected,omitempty"`
	Dragging  string              `json:"dragging,omitempty"`
	Alpha     float64             `json:"alpha"`
	Tick      int                 `json:"tick"`
	Ignored   int                 `json:"ignored,omitempty"` // relationships dropped while building the graph
}

// Shape is a node as drawn
type Shape struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Center   geom.Vec `json:"center"`
	Box      geom.Box `json:"box"`
	Selected bool     `json:"selected"`
}

// Segment is an edge as drawn: a line from the source boundary to the target
// boundary with an arrowhead at the target end. Self-loops collapse to a
// zero-length segment on the node centre and carry no head.
type Segment struct {
	From     string      `json:"from"`
	To       string      `json:"to"`
	Label    string      `json:"label,omitempty"`
	Start    geom.Vec    `json:"start"`
	End      geom.Vec    `json:"end"`
	Head     [3]geom.Vec `json:"head"`
	SelfLoop bool        `json:"self_loop,omitempty"`
}

// Scene is the resolved geometry of a frame
type Scene struct {
	Shapes   []Shape   `json:"shapes"`
	Segments []Segment `json:"segments"`
	Skipped  int       `json:"skipped"` // items dropped with ErrUnresolvedEndpoint
}

// Layout resolves a frame into shapes and trimmed segments, in graph order
func Layout(f Frame) Scene {
	var scene Scene
	if f.Graph == nil {
		return scene
	}

	boxes := make(map[string]geom.Box, len(f.Graph.Nodes))
	for _, node := range f.Graph.Nodes {
		p, ok := f.Positions[node.ID]
		if !ok || !p.IsFinite() {
			scene.Skipped++
			continue
		}
		box := node.Box()
		boxes[node.ID] = box
		scene.Shapes = append(scene.Shapes, Shape{
			ID:       node.ID,
			Label:    node.DisplayLabel(),
			Center:   p,
			Box:      box,
			Selected: node.ID == f.Selected,
		})
	}

	for _, edge := range f.Graph.Edges {
		seg, err := segment(edge, f.Positions, boxes)
		if err != nil {
			scene.Skipped++
			continue
		}
		scene.Segments = append(scene.Segments, seg)
	}

	return scene
}

func segment(edge models.Edge, positions map[string]geom.Vec, boxes map[string]geom.Box) (Segment, error) {
	src, okS := positions[edge.From]
	dst, okT := positions[edge.To]
	srcBox, okSB := boxes[edge.From]
	dstBox, okTB := boxes[edge.To]
	if !okS || !okT || !okSB || !okTB {
		return Segment{}, ErrUnresolvedEndpoint
	}

	seg := Segment{From: edge.From, To: edge.To, Label: edge.Label}
	if edge.IsSelfLoop() || src == dst {
		seg.Start, seg.End = src, src
		seg.Head = [3]geom.Vec{src, src, src}
		seg.SelfLoop = true
		return seg, nil
	}

	seg.Start = geom.ClipToBox(src, srcBox, dst)
	seg.End = geom.ClipToBox(dst, dstBox, src)
	seg.Head = geom.Arrowhead(seg.End, geom.Angle(src, dst), ArrowSize)
	return seg, nil
}

// Bounds returns the smallest rectangle holding every shape of the scene
func (s Scene) Bounds() (minV, maxV geom.Vec) {
	for i, sh := range s.Shapes {
		lo := geom.Vec{X: sh.Center.X - sh.Box.W/2, Y: sh.Center.Y - sh.Box.H/2}
		hi := geom.Vec{X: sh.Center.X + sh.Box.W/2, Y: sh.Center.Y + sh.Box.H/2}
		if i == 0 {
			minV, maxV = lo, hi
			continue
		}
		minV = geom.Vec{X: min(minV.X, lo.X), Y: min(minV.Y, lo.Y)}
		maxV = geom.Vec{X: max(maxV.X, hi.X), Y: max(maxV.Y, hi.Y)}
	}
	return minV, maxV
}
