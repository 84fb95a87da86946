package models

import (
	"fmt"
)

// FindNodeByID returns a node by its ID
func (g *Graph) FindNodeByID(id string) (*Node, error) {
	i, ok := g.NodeIndex(id)
	if !ok {
		return nil, fmt.Errorf("node with ID %s not found", id)
	}
	return &g.Nodes[i], nil
}

// FindOutgoingEdges returns all edges originating from a node (its effects)
func (g *Graph) FindOutgoingEdges(nodeID string) []Edge {
	var result []Edge
	for _, edge := range g.Edges {
		if edge.From == nodeID {
			result = append(result, edge)
		}
	}
	return result
}

// FindIncomingEdges returns all edges targeting a node (its causes)
func (g *Graph) FindIncomingEdges(nodeID string) []Edge {
	var result []Edge
	for _, edge := range g.Edges {
		if edge.To == nodeID {
			result = append(result, edge)
		}
	}
	return result
}

// Degree counts the edge endpoints touching each node. A self-loop counts
// twice, like any other edge.
func (g *Graph) Degree() map[string]int {
	degree := make(map[string]int, len(g.Nodes))
	for _, edge := range g.Edges {
		degree[edge.From]++
		degree[edge.To]++
	}
	return degree
}

// FindConnectedNodes returns all nodes directly connected to a node
func (g *Graph) FindConnectedNodes(nodeID string) []Node {
	var result []Node
	nodeMap := make(map[string]bool)

	for _, edge := range g.Edges {
		if edge.From == nodeID {
			nodeMap[edge.To] = true
		}
		if edge.To == nodeID {
			nodeMap[edge.From] = true
		}
	}

	for _, node := range g.Nodes {
		if nodeMap[node.ID] {
			result = append(result, node)
		}
	}

	return result
}
