package physics

import (
	"context"
	"fmt"
	"testing"

	"github.com/TFMV/solmap/geom"
	"github.com/TFMV/solmap/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() Settings {
	s := DefaultSettings()
	s.Seed = 42
	return s
}

func buildGraph(t *testing.T, nodes []models.Node, edges []models.Edge) *models.Graph {
	t.Helper()
	g, _, err := models.BuildGraph(nodes, edges)
	require.NoError(t, err)
	return g
}

func workAnxiety(t *testing.T) *models.Graph {
	return buildGraph(t,
		[]models.Node{{ID: "work", Label: "work"}, {ID: "anxiety", Label: "anxiety"}},
		[]models.Edge{{From: "work", To: "anxiety"}},
	)
}

func chain(t *testing.T, n int) *models.Graph {
	nodes := make([]models.Node, n)
	var edges []models.Edge
	for i := range nodes {
		nodes[i] = models.Node{ID: fmt.Sprintf("n%d", i), Label: fmt.Sprintf("concept %d", i)}
		if i > 0 {
			edges = append(edges, models.Edge{From: nodes[i-1].ID, To: nodes[i].ID})
		}
	}
	edges = append(edges, models.Edge{From: "n0", To: "n0"}, models.Edge{From: "n0", To: "n1"})
	return buildGraph(t, nodes, edges)
}

func engines() map[string]func() Engine {
	return map[string]func() Engine{
		"force": func() Engine { return NewForceSimulation(testSettings()) },
		"fr":    func() Engine { return NewForceDirectedLayout(testSettings()) },
	}
}

func TestEnginesConvergeToFinitePositions(t *testing.T) {
	for name, newEngine := range engines() {
		for _, size := range []int{1, 2, 7, 25} {
			t.Run(fmt.Sprintf("%s/%d", name, size), func(t *testing.T) {
				g := chain(t, size)
				e := newEngine()
				e.Initialize(g)

				ticks, settled, err := Run(context.Background(), e, 2000)
				require.NoError(t, err)
				assert.True(t, settled, "settled after %d ticks", ticks)

				positions := e.Positions()
				assert.Len(t, positions, size)
				for id, p := range positions {
					assert.True(t, p.IsFinite(), "node %s at %v", id, p)
				}
			})
		}
	}
}

func TestEngines_WorkAnxietyDoNotOverlap(t *testing.T) {
	for name, newEngine := range engines() {
		t.Run(name, func(t *testing.T) {
			g := workAnxiety(t)
			e := newEngine()
			e.Initialize(g)
			_, settled, err := Run(context.Background(), e, 2000)
			require.NoError(t, err)
			require.True(t, settled)

			work, _ := e.Position("work")
			anxiety, _ := e.Position("anxiety")
			assert.False(t, geom.Overlaps(g.Nodes[0].Box(), work, g.Nodes[1].Box(), anxiety),
				"work %v anxiety %v", work, anxiety)
		})
	}
}

func TestEngines_PinnedNodeHoldsPosition(t *testing.T) {
	for name, newEngine := range engines() {
		t.Run(name, func(t *testing.T) {
			e := newEngine()
			e.Initialize(chain(t, 5))
			target := geom.Vec{X: 123, Y: 321}

			require.NoError(t, e.Pin("n2", target))
			e.Reheat(0.3)
			for i := 0; i < 50; i++ {
				e.Step()
				p, ok := e.Position("n2")
				require.True(t, ok)
				assert.Equal(t, target, p)
			}
			assert.True(t, e.IsPinned("n2"))

			e.Unpin("n2")
			assert.False(t, e.IsPinned("n2"))
		})
	}
}

func TestEngines_PinUnknownNode(t *testing.T) {
	for name, newEngine := range engines() {
		t.Run(name, func(t *testing.T) {
			e := newEngine()
			e.Initialize(workAnxiety(t))
			assert.Error(t, e.Pin("missing", geom.Vec{}))
		})
	}
}

func TestEngines_ReheatKeepsRunning(t *testing.T) {
	for name, newEngine := range engines() {
		t.Run(name, func(t *testing.T) {
			e := newEngine()
			e.Initialize(workAnxiety(t))
			_, settled, _ := Run(context.Background(), e, 2000)
			require.True(t, settled)

			e.Reheat(0.3)
			assert.GreaterOrEqual(t, e.Alpha(), 0.3*0.9)
			for i := 0; i < 20; i++ {
				assert.False(t, e.Step())
			}

			e.Reheat(0)
			_, settled, _ = Run(context.Background(), e, 2000)
			assert.True(t, settled)
		})
	}
}

func TestEngines_SameGraphSameStructure(t *testing.T) {
	for name, newEngine := range engines() {
		t.Run(name, func(t *testing.T) {
			g := chain(t, 6)
			var laid []*models.Graph
			for i := 0; i < 2; i++ {
				e := newEngine()
				e.Initialize(g)
				_, _, err := Run(context.Background(), e, 2000)
				require.NoError(t, err)
				laid = append(laid, e.Apply(g))
			}
			assert.Len(t, laid[0].Nodes, len(laid[1].Nodes))
			assert.Len(t, laid[0].Edges, len(laid[1].Edges))
			assert.Equal(t, 0.0, g.Nodes[0].X, "Apply must not modify its input")
		})
	}
}

func TestForceSimulation_AlphaDecays(t *testing.T) {
	e := NewForceSimulation(testSettings())
	e.Initialize(workAnxiety(t))

	prev := e.Alpha()
	for i := 0; i < 10; i++ {
		e.Step()
		assert.Less(t, e.Alpha(), prev)
		prev = e.Alpha()
	}

	ticks, settled, err := Run(context.Background(), e, 0)
	require.NoError(t, err)
	assert.True(t, settled)
	assert.InDelta(t, 300, e.Ticks(), 5, "ran %d more ticks", ticks)
}

func TestInitialPlacementIsCircular(t *testing.T) {
	s := testSettings()
	e := NewForceSimulation(s)
	e.Initialize(chain(t, 8))

	for id, p := range e.Positions() {
		r := p.Sub(s.Center()).Len()
		assert.InDelta(t, s.InitialRadius, r, 3*s.Jitter, "node %s", id)
	}
}

func TestInitialPlacementKeepsStoredPositions(t *testing.T) {
	g := buildGraph(t, []models.Node{{ID: "a", X: 10, Y: 20}, {ID: "b"}}, nil)
	e := NewForceDirectedLayout(testSettings())
	e.Initialize(g)

	p, ok := e.Position("a")
	require.True(t, ok)
	assert.Equal(t, geom.Vec{X: 10, Y: 20}, p)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewForceSimulation(testSettings())
	e.Initialize(workAnxiety(t))
	ticks, settled, err := Run(ctx, e, 100)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, settled)
	assert.Zero(t, ticks)
}

func TestGetEngine(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "force", want: "Force Simulation"},
		{name: "", want: "Force Simulation"},
		{name: "fr", want: "Force-Directed Layout"},
		{name: "voronoi", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := GetEngine(tt.name, DefaultSettings())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.GetName())
		})
	}
}
