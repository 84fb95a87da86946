package physics

import (
	"github.com/TFMV/solmap/models"
)

// ForceSimulation is a velocity based particle simulation with link, charge,
// center and collision forces. Alpha decays geometrically toward alphaTarget
// and the simulation settles once both are below alphaMin.
type ForceSimulation struct {
	*Arena

	settings    Settings
	alpha       float64
	alphaTarget float64
	ticks       int
	rng         xorshift

	link    *linkForce
	charge  *chargeForce
	center  *centerForce
	collide *collideForce
}

// NewForceSimulation creates a simulation with the given settings
func NewForceSimulation(settings Settings) *ForceSimulation {
	c := settings.Center()
	return &ForceSimulation{
		Arena:    NewArena(),
		settings: settings,
		alpha:    1,
		rng:      newXorshift(settings.seed()),
		link:     &linkForce{distance: settings.LinkDistance},
		charge:   &chargeForce{strength: settings.ChargeStrength, distanceMin: settings.DistanceMin},
		center:   &centerForce{x: c.X, y: c.Y},
		collide:  &collideForce{},
	}
}

// GetName returns the name of the layout algorithm
func (fs *ForceSimulation) GetName() string {
	return "Force Simulation"
}

// Initialize loads the graph and places its nodes on the start circle
func (fs *ForceSimulation) Initialize(graph *models.Graph) {
	fs.Reset(graph)
	newPlacement(fs.settings).seed(fs.Arena)

	fs.link = newLinkForce(fs.Arena, fs.settings.LinkDistance)
	fs.collide = newCollideForce(fs.Arena, fs.settings.CollisionPadding)
	fs.alpha = 1
	fs.alphaTarget = 0
	fs.ticks = 0
}

// Step performs one tick
func (fs *ForceSimulation) Step() bool {
	if fs.settled() {
		fs.holdPins()
		return true
	}

	fs.alpha += (fs.alphaTarget - fs.alpha) * fs.settings.AlphaDecay

	fs.link.apply(fs.Arena, fs.alpha, &fs.rng)
	fs.charge.apply(fs.Arena, fs.alpha, &fs.rng)
	fs.center.apply(fs.Arena)
	fs.collide.apply(fs.Arena, &fs.rng)

	keep := 1 - fs.settings.VelocityDecay
	for i := range fs.pos {
		if p := fs.pins[i]; p != nil {
			fs.pos[i] = *p
			fs.vel[i].X, fs.vel[i].Y = 0, 0
			continue
		}
		fs.vel[i] = fs.vel[i].Scale(keep)
		fs.pos[i] = fs.pos[i].Add(fs.vel[i])
	}

	fs.ticks++
	return fs.settled()
}

func (fs *ForceSimulation) settled() bool {
	return fs.Len() == 0 || (fs.alpha < fs.settings.AlphaMin && fs.alphaTarget < fs.settings.AlphaMin)
}

// Apply returns a copy of graph carrying the current positions
func (fs *ForceSimulation) Apply(graph *models.Graph) *models.Graph {
	return fs.apply(graph)
}

// Reheat sets alphaTarget and lifts alpha to it when below
func (fs *ForceSimulation) Reheat(target float64) {
	fs.alphaTarget = target
	if fs.alpha < target {
		fs.alpha = target
	}
}

// Alpha returns the current energy
func (fs *ForceSimulation) Alpha() float64 {
	return fs.alpha
}

// Ticks returns the number of ticks run since Initialize
func (fs *ForceSimulation) Ticks() int {
	return fs.ticks
}
