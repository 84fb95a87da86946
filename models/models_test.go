package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workAnxiety() ([]Node, []Edge) {
	nodes := []Node{{ID: "work", Label: "work"}, {ID: "anxiety", Label: "anxiety"}}
	edges := []Edge{{From: "work", To: "anxiety"}}
	return nodes, edges
}

func TestBuildGraph(t *testing.T) {
	nodes, edges := workAnxiety()

	g, report, err := BuildGraph(nodes, edges)
	require.NoError(t, err)

	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Edges, 1)
	assert.Equal(t, 0, report.Ignored())
	assert.NotEmpty(t, g.ID)
}

func TestBuildGraph_DropsEdgeToMissingNode(t *testing.T) {
	nodes, edges := workAnxiety()
	edges = append(edges, Edge{From: "work", To: "missing"})

	g, report, err := BuildGraph(nodes, edges)
	require.NoError(t, err)

	assert.Len(t, g.Nodes, len(nodes))
	assert.Len(t, g.Edges, len(edges)-1)
	assert.Equal(t, 1, report.Ignored())
	assert.Equal(t, Edge{From: "work", To: "missing"}, report.DroppedEdges[0])
}

func TestBuildGraph_DoesNotMutateInputs(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "a", Label: "dup"}, {ID: "b"}}
	edges := []Edge{{From: "ghost", To: "a"}, {From: "a", To: "b"}}
	nodesCopy := append([]Node(nil), nodes...)
	edgesCopy := append([]Edge(nil), edges...)

	g, report, err := BuildGraph(nodes, edges)
	require.NoError(t, err)

	assert.Equal(t, nodesCopy, nodes)
	assert.Equal(t, edgesCopy, edges)
	assert.Equal(t, []string{"a"}, report.DuplicateNodes)
	assert.Equal(t, []Node{{ID: "a"}, {ID: "b"}}, g.Nodes)
	assert.Equal(t, []Edge{{From: "a", To: "b"}}, g.Edges)
}

func TestBuildGraph_PreservesOrderAndParallelEdges(t *testing.T) {
	nodes := []Node{{ID: "c"}, {ID: "a"}, {ID: "b"}}
	edges := []Edge{
		{From: "a", To: "b", Label: "first"},
		{From: "a", To: "b", Label: "second"},
		{From: "c", To: "c"},
	}

	g, _, err := BuildGraph(nodes, edges)
	require.NoError(t, err)

	assert.Equal(t, "c", g.Nodes[0].ID)
	assert.Equal(t, edges, g.Edges)
	assert.True(t, g.Edges[2].IsSelfLoop())
}

func TestBuildGraph_EmptyNodes(t *testing.T) {
	g, _, err := BuildGraph(nil, []Edge{{From: "a", To: "b"}})

	assert.Nil(t, g)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoGraphData))
	assert.True(t, IsInputError(err))
}

func TestGraphQueries(t *testing.T) {
	g, _, err := BuildGraph(
		[]Node{{ID: "work"}, {ID: "sleep"}, {ID: "anxiety"}},
		[]Edge{{From: "work", To: "anxiety"}, {From: "sleep", To: "anxiety"}, {From: "anxiety", To: "anxiety"}},
	)
	require.NoError(t, err)

	assert.Len(t, g.FindIncomingEdges("anxiety"), 3)
	assert.Len(t, g.FindOutgoingEdges("work"), 1)
	assert.Equal(t, 4, g.Degree()["anxiety"])
	assert.ElementsMatch(t, []string{"work", "sleep", "anxiety"}, ids(g.FindConnectedNodes("anxiety")))

	n, err := g.FindNodeByID("sleep")
	require.NoError(t, err)
	assert.Equal(t, "sleep", n.DisplayLabel())

	_, err = g.FindNodeByID("missing")
	assert.Error(t, err)
}

func TestGraph_NodeIndexAfterDecode(t *testing.T) {
	g := &Graph{Nodes: []Node{{ID: "x"}, {ID: "y"}}}

	i, ok := g.NodeIndex("y")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	assert.False(t, g.HasNode("z"))
}

func ids(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
