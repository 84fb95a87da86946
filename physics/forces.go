package physics

import "math"

// The forces below follow the classic d3-force formulation. Each one adds to
// the arena velocities (center shifts positions directly) and is scaled by
// the current alpha.

// linkForce pulls the endpoints of every link toward distance. Strength is
// 1/min(degree) so hubs are not torn apart; bias moves the lighter end more.
type linkForce struct {
	distance  float64
	strengths []float64
	bias      []float64
}

func newLinkForce(a *Arena, distance float64) *linkForce {
	f := &linkForce{
		distance:  distance,
		strengths: make([]float64, len(a.links)),
		bias:      make([]float64, len(a.links)),
	}
	for i, l := range a.links {
		ds, dt := float64(a.degree[l.source]), float64(a.degree[l.target])
		f.strengths[i] = 1 / math.Min(ds, dt)
		f.bias[i] = ds / (ds + dt)
	}
	return f
}

func (f *linkForce) apply(a *Arena, alpha float64, rng *xorshift) {
	for i, l := range a.links {
		if l.source == l.target {
			continue
		}
		s, t := l.source, l.target
		x := a.pos[t].X + a.vel[t].X - a.pos[s].X - a.vel[s].X
		y := a.pos[t].Y + a.vel[t].Y - a.pos[s].Y - a.vel[s].Y
		if x == 0 {
			x = rng.jiggle()
		}
		if y == 0 {
			y = rng.jiggle()
		}
		d := math.Sqrt(x*x + y*y)
		k := (d - f.distance) / d * alpha * f.strengths[i]
		x *= k
		y *= k

		b := f.bias[i]
		a.vel[t].X -= x * b
		a.vel[t].Y -= y * b
		a.vel[s].X += x * (1 - b)
		a.vel[s].Y += y * (1 - b)
	}
}

// chargeForce makes every pair of nodes repel (negative strength) or attract.
// Pairs closer than distanceMin are treated as if they were at distanceMin.
type chargeForce struct {
	strength    float64
	distanceMin float64
}

func (f *chargeForce) apply(a *Arena, alpha float64, rng *xorshift) {
	min2 := f.distanceMin * f.distanceMin
	for i := range a.pos {
		for j := range a.pos {
			if i == j {
				continue
			}
			x := a.pos[j].X - a.pos[i].X
			y := a.pos[j].Y - a.pos[i].Y
			if x == 0 {
				x = rng.jiggle()
			}
			if y == 0 {
				y = rng.jiggle()
			}
			l := x*x + y*y
			if l < min2 {
				l = math.Sqrt(min2 * l)
			}
			w := f.strength * alpha / l
			a.vel[i].X += x * w
			a.vel[i].Y += y * w
		}
	}
}

// centerForce translates all nodes so their centroid sits on the centre
type centerForce struct {
	x, y float64
}

func (f *centerForce) apply(a *Arena) {
	n := len(a.pos)
	if n == 0 {
		return
	}
	var sx, sy float64
	for _, p := range a.pos {
		sx += p.X
		sy += p.Y
	}
	dx := f.x - sx/float64(n)
	dy := f.y - sy/float64(n)
	for i := range a.pos {
		a.pos[i].X += dx
		a.pos[i].Y += dy
	}
}

// collideForce treats nodes as disks and pushes overlapping pairs apart,
// the smaller disk moving further
type collideForce struct {
	radii []float64
}

func newCollideForce(a *Arena, padding float64) *collideForce {
	f := &collideForce{radii: make([]float64, len(a.boxes))}
	for i, b := range a.boxes {
		f.radii[i] = b.Radius() + padding
	}
	return f
}

func (f *collideForce) apply(a *Arena, rng *xorshift) {
	for i := range a.pos {
		ri := f.radii[i]
		ri2 := ri * ri
		xi := a.pos[i].X + a.vel[i].X
		yi := a.pos[i].Y + a.vel[i].Y
		for j := i + 1; j < len(a.pos); j++ {
			rj := f.radii[j]
			r := ri + rj
			x := xi - a.pos[j].X - a.vel[j].X
			y := yi - a.pos[j].Y - a.vel[j].Y
			l := x*x + y*y
			if l >= r*r {
				continue
			}
			if x == 0 {
				x = rng.jiggle()
				l += x * x
			}
			if y == 0 {
				y = rng.jiggle()
				l += y * y
			}
			l = math.Sqrt(l)
			k := (r - l) / l
			x *= k
			y *= k
			rj2 := rj * rj
			w := rj2 / (ri2 + rj2)
			a.vel[i].X += x * w
			a.vel[i].Y += y * w
			a.vel[j].X -= x * (1 - w)
			a.vel[j].Y -= y * (1 - w)
		}
	}
}
