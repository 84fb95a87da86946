// Package models provides the causal graph data structures used throughout
// solmap: nodes, directed edges and the immutable graph built from an oracle
// response.
package models

import (
	"time"

	"github.com/TFMV/solmap/geom"
)

// Node is a concept extracted from the text
type Node struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// DisplayLabel returns the label shown on the node, falling back to the id
func (n Node) DisplayLabel() string {
	if n.Label == "" {
		return n.ID
	}
	return n.Label
}

// Box returns the node's shape, sized from its display label
func (n Node) Box() geom.Box {
	return geom.NodeBox(n.DisplayLabel())
}

// Position returns the node's stored position
func (n Node) Position() geom.Vec {
	return geom.Vec{X: n.X, Y: n.Y}
}

// Edge is a directed causal relationship: From leads to To
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// IsSelfLoop reports whether the edge starts and ends on the same node
func (e Edge) IsSelfLoop() bool {
	return e.From == e.To
}

// Graph is an ordered collection of nodes and edges. It is built once by
// BuildGraph and treated as read-only afterwards; positions live in the
// layout engine, not here.
type Graph struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nodes     []Node    `json:"nodes"`
	Edges     []Edge    `json:"edges"`
	CreatedAt time.Time `json:"created_at"`

	index map[string]int
}

// BuildReport describes what BuildGraph left out of the graph
type BuildReport struct {
	DroppedEdges   []Edge   `json:"dropped_edges,omitempty"`
	DuplicateNodes []string `json:"duplicate_nodes,omitempty"`
}

// Ignored returns the number of relationships that were dropped
func (r *BuildReport) Ignored() int {
	if r == nil {
		return 0
	}
	return len(r.DroppedEdges)
}
