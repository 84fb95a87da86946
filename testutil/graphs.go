package testutil

import (
	"testing"

	"github.com/TFMV/solmap/models"
	"github.com/stretchr/testify/require"
)

// WorkAnxiety returns the two node graph "work makes me anxious"
func WorkAnxiety(t testing.TB) *models.Graph {
	t.Helper()
	g, _, err := models.BuildGraph(
		[]models.Node{{ID: "work", Label: "work"}, {ID: "anxiety", Label: "anxiety"}},
		[]models.Edge{{From: "work", To: "anxiety"}},
	)
	require.NoError(t, err)
	return g
}

// Positioned returns a graph whose nodes sit at fixed, well separated points
func Positioned(t testing.TB) *models.Graph {
	t.Helper()
	g, _, err := models.BuildGraph(
		[]models.Node{
			{ID: "work", Label: "work", X: 100, Y: 100},
			{ID: "anxiety", Label: "anxiety", X: 400, Y: 100},
			{ID: "poor_sleep", Label: "poor sleep", X: 250, Y: 350},
		},
		[]models.Edge{
			{From: "work", To: "anxiety", Label: "makes me"},
			{From: "anxiety", To: "poor_sleep"},
			{From: "poor_sleep", To: "poor_sleep"},
		},
	)
	require.NoError(t, err)
	return g
}
