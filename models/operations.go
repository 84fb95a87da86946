package models

import (
	"time"

	"github.com/google/uuid"
)

// NewGraph creates an empty graph with a unique ID
func NewGraph(name string) *Graph {
	return &Graph{
		ID:        uuid.New().String(),
		Name:      name,
		Nodes:     []Node{},
		Edges:     []Edge{},
		CreatedAt: time.Now(),
		index:     make(map[string]int),
	}
}

// BuildGraph assembles a graph from oracle output. Inputs are copied, never
// modified. Edges whose endpoints do not name a node are dropped, as are
// repeated node ids after the first; both are listed in the report. Order is
// otherwise preserved. An empty node list is an InputError wrapping
// ErrNoGraphData.
func BuildGraph(nodes []Node, edges []Edge) (*Graph, *BuildReport, error) {
	report := &BuildReport{}
	if len(nodes) == 0 {
		return nil, report, NewInputError(ErrNoGraphData, "oracle returned %d nodes", 0)
	}

	g := NewGraph("Causal Graph")
	g.Nodes = make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if _, exists := g.index[n.ID]; exists {
			report.DuplicateNodes = append(report.DuplicateNodes, n.ID)
			continue
		}
		g.index[n.ID] = len(g.Nodes)
		g.Nodes = append(g.Nodes, n)
	}

	g.Edges = make([]Edge, 0, len(edges))
	for _, e := range edges {
		_, fromOK := g.index[e.From]
		_, toOK := g.index[e.To]
		if !fromOK || !toOK {
			report.DroppedEdges = append(report.DroppedEdges, e)
			continue
		}
		g.Edges = append(g.Edges, e)
	}

	return g, report, nil
}

// NodeIndex returns the position of the node with the given id in g.Nodes
func (g *Graph) NodeIndex(id string) (int, bool) {
	if g.index == nil {
		g.reindex()
	}
	i, ok := g.index[id]
	return i, ok
}

// HasNode reports whether id names a node of the graph
func (g *Graph) HasNode(id string) bool {
	_, ok := g.NodeIndex(id)
	return ok
}

// reindex rebuilds the id index, for graphs decoded from JSON
func (g *Graph) reindex() {
	g.index = make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		if _, exists := g.index[n.ID]; !exists {
			g.index[n.ID] = i
		}
	}
}

// Clone returns a deep copy of the graph
func (g *Graph) Clone() *Graph {
	out := *g
	out.Nodes = append([]Node(nil), g.Nodes...)
	out.Edges = append([]Edge(nil), g.Edges...)
	out.index = nil
	return &out
}
