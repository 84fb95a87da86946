package physics

import (
	"math"

	"github.com/TFMV/solmap/geom"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// placement puts unplaced nodes on a circle around the centre. Simplex noise
// nudges each one off the circle so no two nodes start on the same point.
type placement struct {
	noise  opensimplex.Noise
	center geom.Vec
	radius float64
	amount float64
	scale  float64
}

func newPlacement(s Settings) placement {
	return placement{
		noise:  opensimplex.New(s.seed()),
		center: s.Center(),
		radius: s.InitialRadius,
		amount: s.Jitter,
		scale:  0.7,
	}
}

// at returns the start position of the i-th of n nodes
func (p placement) at(i, n int) geom.Vec {
	angle := 2 * math.Pi * float64(i) / float64(max(n, 1))
	base := geom.Vec{
		X: p.center.X + p.radius*math.Cos(angle),
		Y: p.center.Y + p.radius*math.Sin(angle),
	}
	t := float64(i) * p.scale
	return base.Add(geom.Vec{
		X: p.noise.Eval2(t, 0.5) * p.amount,
		Y: p.noise.Eval2(t+100, 0.5) * p.amount,
	})
}

// seed places every node of the arena still sitting at the origin
func (p placement) seed(a *Arena) {
	n := a.Len()
	for i := range a.pos {
		if a.pos[i] == (geom.Vec{}) || !a.pos[i].IsFinite() {
			a.pos[i] = p.at(i, n)
		}
	}
}
