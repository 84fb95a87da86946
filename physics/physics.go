package physics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/TFMV/solmap/geom"
	"github.com/TFMV/solmap/models"
)

// Engine is a layout algorithm driven one tick at a time. Both engines keep
// their state in an Arena, so pins written between two ticks are honoured by
// the next one. Engines are not safe for concurrent use.
type Engine interface {
	Initialize(graph *models.Graph)
	Step() bool // Returns true once settled
	Apply(graph *models.Graph) *models.Graph
	GetName() string

	Positions() map[string]geom.Vec
	Position(id string) (geom.Vec, bool)
	Pin(id string, p geom.Vec) error
	Unpin(id string)
	IsPinned(id string) bool

	// Reheat sets the energy the simulation decays toward and raises the
	// current energy to at least target. Reheat(0) lets it cool down.
	Reheat(target float64)
	Alpha() float64
	Ticks() int
}

// Settings holds the tunables shared by both engines
type Settings struct {
	Width            float64
	Height           float64
	LinkDistance     float64
	ChargeStrength   float64
	DistanceMin      float64
	CollisionPadding float64
	InitialRadius    float64
	Jitter           float64
	AlphaMin         float64
	AlphaDecay       float64
	VelocityDecay    float64
	MaxTicks         int
	Seed             int64
}

// DefaultSettings returns the settings of a 800x600 viewport
func DefaultSettings() Settings {
	return Settings{
		Width:            800,
		Height:           600,
		LinkDistance:     100,
		ChargeStrength:   -300,
		DistanceMin:      1,
		CollisionPadding: 5,
		InitialRadius:    100,
		Jitter:           2,
		AlphaMin:         0.001,
		AlphaDecay:       1 - math.Pow(0.001, 1.0/300),
		VelocityDecay:    0.4,
		MaxTicks:         1000,
	}
}

// Center returns the viewport centre
func (s Settings) Center() geom.Vec {
	return geom.Vec{X: s.Width / 2, Y: s.Height / 2}
}

func (s Settings) seed() int64 {
	if s.Seed != 0 {
		return s.Seed
	}
	return time.Now().UnixNano()
}

// GetEngine returns a layout engine by name
func GetEngine(name string, settings Settings) (Engine, error) {
	switch name {
	case "", "force", "d3":
		return NewForceSimulation(settings), nil
	case "fr", "manual":
		return NewForceDirectedLayout(settings), nil
	default:
		return nil, fmt.Errorf("unknown layout engine: %s", name)
	}
}

// Run steps the engine until it settles, maxTicks steps have run or ctx is
// done. It reports the number of ticks taken and whether the layout settled.
func Run(ctx context.Context, engine Engine, maxTicks int) (int, bool, error) {
	for i := 0; maxTicks <= 0 || i < maxTicks; i++ {
		select {
		case <-ctx.Done():
			return i, false, ctx.Err()
		default:
		}
		if engine.Step() {
			return i + 1, true, nil
		}
	}
	return maxTicks, false, nil
}

// xorshift is a small per-engine random source for tie breaking
type xorshift uint32

func newXorshift(seed int64) xorshift {
	s := uint32(seed) ^ uint32(seed>>32)
	if s == 0 {
		s = 1234567890
	}
	return xorshift(s)
}

func (x *xorshift) next() float64 {
	s := uint32(*x)
	s ^= s << 13
	s ^= s >> 17
	s ^= s << 5
	*x = xorshift(s)
	return float64(s) / float64(math.MaxUint32)
}

// jiggle returns a tiny random offset used when two nodes coincide
func (x *xorshift) jiggle() float64 {
	return (x.next() - 0.5) * 1e-6
}
