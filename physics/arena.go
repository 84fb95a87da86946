package physics

import (
	"fmt"

	"github.com/TFMV/solmap/geom"
	"github.com/TFMV/solmap/models"
)

// Arena is the mutable simulation state of one graph: a position, a velocity
// and an optional pin per node, indexed by node id. Engines integrate it on
// every tick; the interaction layer writes pins into it. It is not safe for
// concurrent use; callers serialise access (see interact.Controller).
type Arena struct {
	ids    []string
	index  map[string]int
	pos    []geom.Vec
	vel    []geom.Vec
	pins   []*geom.Vec
	boxes  []geom.Box
	degree []int
	links  []link
}

// link is an edge resolved to arena indices
type link struct {
	source, target int
}

// NewArena creates an empty arena
func NewArena() *Arena {
	return &Arena{index: make(map[string]int)}
}

// Reset loads graph into the arena, discarding all previous state. Nodes keep
// the position stored in the graph; velocities and pins are cleared.
func (a *Arena) Reset(graph *models.Graph) {
	n := len(graph.Nodes)
	a.ids = make([]string, n)
	a.index = make(map[string]int, n)
	a.pos = make([]geom.Vec, n)
	a.vel = make([]geom.Vec, n)
	a.pins = make([]*geom.Vec, n)
	a.boxes = make([]geom.Box, n)
	a.degree = make([]int, n)
	a.links = a.links[:0]

	degree := graph.Degree()
	for i, node := range graph.Nodes {
		a.ids[i] = node.ID
		a.degree[i] = degree[node.ID]
		a.index[node.ID] = i
		a.pos[i] = node.Position()
		a.boxes[i] = node.Box()
	}

	for _, edge := range graph.Edges {
		s, okS := a.index[edge.From]
		t, okT := a.index[edge.To]
		if !okS || !okT {
			continue
		}
		a.links = append(a.links, link{source: s, target: t})
	}
}

// Len returns the number of nodes in the arena
func (a *Arena) Len() int {
	return len(a.ids)
}

// Position returns the current position of the node id
func (a *Arena) Position(id string) (geom.Vec, bool) {
	i, ok := a.index[id]
	if !ok {
		return geom.Vec{}, false
	}
	return a.pos[i], true
}

// Positions returns a copy of every node position keyed by node id
func (a *Arena) Positions() map[string]geom.Vec {
	out := make(map[string]geom.Vec, len(a.ids))
	for i, id := range a.ids {
		out[id] = a.pos[i]
	}
	return out
}

// Pin fixes the node id at p. The position takes effect immediately, so the
// next reader (a tick or a render) already sees it.
func (a *Arena) Pin(id string, p geom.Vec) error {
	i, ok := a.index[id]
	if !ok {
		return fmt.Errorf("pin: unknown node %q", id)
	}
	pin := p
	a.pins[i] = &pin
	a.pos[i] = p
	a.vel[i] = geom.Vec{}
	return nil
}

// Unpin returns the node id to the simulation
func (a *Arena) Unpin(id string) {
	if i, ok := a.index[id]; ok {
		a.pins[i] = nil
	}
}

// IsPinned reports whether the node id is currently pinned
func (a *Arena) IsPinned(id string) bool {
	i, ok := a.index[id]
	return ok && a.pins[i] != nil
}

// holdPins moves every pinned node onto its pin and stops it
func (a *Arena) holdPins() {
	for i, p := range a.pins {
		if p != nil {
			a.pos[i] = *p
			a.vel[i] = geom.Vec{}
		}
	}
}

// apply returns a copy of graph with node positions taken from the arena
func (a *Arena) apply(graph *models.Graph) *models.Graph {
	out := graph.Clone()
	for i := range out.Nodes {
		if p, ok := a.Position(out.Nodes[i].ID); ok {
			out.Nodes[i].X = p.X
			out.Nodes[i].Y = p.Y
		}
	}
	return out
}
