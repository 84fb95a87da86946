package physics

import (
	"math"

	"github.com/TFMV/solmap/geom"
	"github.com/TFMV/solmap/models"
)

// ForceDirectedLayout implements a Fruchterman-Reingold force-directed layout.
// Temperature plays the role of alpha: it limits how far a node may move in
// one step and cools by a fixed factor every step.
type ForceDirectedLayout struct {
	*Arena

	settings        Settings
	forces          []geom.Vec
	temperature     float64
	floor           float64 // temperature never cools below this while reheated
	k               float64 // optimal distance
	ticks           int
	stable          bool
	energyThreshold float64
	gravity         float64 // Gravity factor
	repulsionForce  float64 // Repulsion strength
	dampingFactor   float64 // Damping for velocity
	springConstant  float64 // Spring stiffness
	cooling         float64
	maxStep         float64
	rng             xorshift
}

// NewForceDirectedLayout creates a new force-directed layout
func NewForceDirectedLayout(settings Settings) *ForceDirectedLayout {
	return &ForceDirectedLayout{
		Arena:           NewArena(),
		settings:        settings,
		temperature:     1.0,
		energyThreshold: 0.01,
		gravity:         0.05,
		repulsionForce:  math.Abs(settings.ChargeStrength) / 3,
		dampingFactor:   0.9,
		springConstant:  0.04,
		cooling:         0.95,
		maxStep:         settings.LinkDistance / 10,
		rng:             newXorshift(settings.seed()),
	}
}

// GetName returns the name of the layout algorithm
func (fd *ForceDirectedLayout) GetName() string {
	return "Force-Directed Layout"
}

// Initialize sets up the layout algorithm
func (fd *ForceDirectedLayout) Initialize(graph *models.Graph) {
	fd.Reset(graph)
	newPlacement(fd.settings).seed(fd.Arena)

	fd.forces = make([]geom.Vec, fd.Len())
	fd.k = fd.settings.LinkDistance
	fd.temperature = 1.0
	fd.floor = 0
	fd.ticks = 0
	fd.stable = false
}

// Step performs one iteration of the layout algorithm
func (fd *ForceDirectedLayout) Step() bool {
	if fd.Len() == 0 {
		return true
	}
	if fd.stable && fd.floor == 0 {
		fd.holdPins()
		return true
	}

	for i := range fd.forces {
		fd.forces[i] = geom.Vec{}
	}

	center := fd.settings.Center()
	span := math.Min(fd.settings.Width, fd.settings.Height)
	for i := range fd.pos {
		pos1 := fd.pos[i]

		// Gravity to center, stronger from far away
		d := center.Sub(pos1)
		distance := math.Max(0.1, d.Len())
		fd.forces[i] = fd.forces[i].Add(d.Scale(fd.gravity * distance / span))

		for j := i + 1; j < len(fd.pos); j++ {
			delta := pos1.Sub(fd.pos[j])
			if delta == (geom.Vec{}) {
				delta = geom.Vec{X: fd.rng.jiggle(), Y: fd.rng.jiggle()}
			}
			distance := math.Max(0.1, delta.Len())
			dir := delta.Scale(1 / distance)

			// F = k^2 / distance
			repulsive := (fd.k * fd.k / distance) * fd.repulsionForce / 100.0

			// Overlapping disks get an extra push proportional to the overlap
			overlap := fd.boxes[i].Radius() + fd.boxes[j].Radius() + fd.settings.CollisionPadding - distance
			if overlap > 0 {
				repulsive += overlap / 2
			}

			fd.forces[i] = fd.forces[i].Add(dir.Scale(repulsive))
			fd.forces[j] = fd.forces[j].Sub(dir.Scale(repulsive))
		}
	}

	// F = distance^2 / k along every link
	for _, l := range fd.links {
		if l.source == l.target {
			continue
		}
		delta := fd.pos[l.target].Sub(fd.pos[l.source])
		distance := math.Max(0.1, delta.Len())
		dir := delta.Scale(1 / distance)
		attractive := distance * distance / fd.k * fd.springConstant
		fd.forces[l.source] = fd.forces[l.source].Add(dir.Scale(attractive))
		fd.forces[l.target] = fd.forces[l.target].Sub(dir.Scale(attractive))
	}

	// Apply forces with temperature limiting (simulated annealing)
	limit := fd.temperature * fd.maxStep
	totalEnergy := 0.0
	free := 0
	for i, f := range fd.forces {
		if p := fd.pins[i]; p != nil {
			fd.pos[i] = *p
			fd.vel[i] = geom.Vec{}
			continue
		}

		magnitude := f.Len()
		if magnitude > limit && magnitude > 0 {
			f = f.Scale(limit / magnitude)
		}

		fd.vel[i] = fd.vel[i].Add(f).Scale(fd.dampingFactor)
		fd.pos[i] = fd.clamp(fd.pos[i].Add(fd.vel[i]), fd.boxes[i])

		totalEnergy += fd.vel[i].Len()
		free++
	}

	fd.temperature = math.Max(fd.temperature*fd.cooling, fd.floor)

	avgEnergy := 0.0
	if free > 0 {
		avgEnergy = totalEnergy / float64(free)
	}
	fd.stable = avgEnergy < fd.energyThreshold || fd.temperature < fd.settings.AlphaMin

	fd.ticks++
	return fd.stable && fd.floor == 0
}

// clamp keeps a node box inside the viewport
func (fd *ForceDirectedLayout) clamp(p geom.Vec, b geom.Box) geom.Vec {
	hw := math.Min(b.W/2, fd.settings.Width/2)
	hh := math.Min(b.H/2, fd.settings.Height/2)
	p.X = math.Max(hw, math.Min(fd.settings.Width-hw, p.X))
	p.Y = math.Max(hh, math.Min(fd.settings.Height-hh, p.Y))
	return p
}

// Apply returns a copy of graph carrying the current positions
func (fd *ForceDirectedLayout) Apply(graph *models.Graph) *models.Graph {
	return fd.apply(graph)
}

// Reheat keeps the temperature at or above target until Reheat(0)
func (fd *ForceDirectedLayout) Reheat(target float64) {
	fd.floor = target
	if fd.temperature < target {
		fd.temperature = target
	}
	if target > 0 {
		fd.stable = false
	}
}

// Alpha returns the current temperature
func (fd *ForceDirectedLayout) Alpha() float64 {
	return fd.temperature
}

// Ticks returns the number of steps run since Initialize
func (fd *ForceDirectedLayout) Ticks() int {
	return fd.ticks
}
