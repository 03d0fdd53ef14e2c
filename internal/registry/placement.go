package registry

import (
	"math"
	"math/rand"

	"github.com/aether-shell/aether/internal/types"
)

const (
	DefaultCascadeStep  = 40.0
	DefaultCenterJitter = 40.0
)

// DefaultCascadeOrigin is where the first cascaded window lands
var DefaultCascadeOrigin = types.Point{X: 100, Y: 100}

// Placer picks the initial top-left for a new window
type Placer interface {
	Place(size, viewport types.Size) types.Point
}

// CascadePlacer offsets each new window diagonally from the previous one
type CascadePlacer struct {
	Origin types.Point
	Step   float64

	spawned int
}

// NewCascadePlacer creates a cascade starting at origin
func NewCascadePlacer(origin types.Point, step float64) *CascadePlacer {
	return &CascadePlacer{Origin: origin, Step: step}
}

// Place returns origin + n*step. On an axis where the window would leave the
// viewport, the offset wraps around the free space instead, so consecutive
// windows keep distinct positions on small viewports.
func (p *CascadePlacer) Place(size, viewport types.Size) types.Point {
	offset := float64(p.spawned) * p.Step
	p.spawned++
	return types.Point{
		X: cascadeAxis(p.Origin.X, offset, size.Width, viewport.Width),
		Y: cascadeAxis(p.Origin.Y, offset, size.Height, viewport.Height),
	}
}

func cascadeAxis(origin, offset, size, extent float64) float64 {
	if pos := origin + offset; pos+size <= extent {
		return pos
	}
	free := extent - size
	if free <= 0 {
		return 0
	}
	if room := free - origin; room > 0 {
		return origin + math.Mod(offset, room)
	}
	return math.Mod(origin+offset, free)
}

// CenteredPlacer centers windows in the viewport with a random offset
type CenteredPlacer struct {
	Jitter float64
	Rand   *rand.Rand
}

// NewCenteredPlacer creates a centered placer drawing jitter from rng
func NewCenteredPlacer(jitter float64, rng *rand.Rand) *CenteredPlacer {
	return &CenteredPlacer{Jitter: jitter, Rand: rng}
}

// Place centers size in viewport, shifted by up to Jitter on each axis.
// The result never starts above or left of the viewport.
func (p *CenteredPlacer) Place(size, viewport types.Size) types.Point {
	x := (viewport.Width - size.Width) / 2
	y := (viewport.Height - size.Height) / 2
	if p.Jitter > 0 && p.Rand != nil {
		x += (p.Rand.Float64()*2 - 1) * p.Jitter
		y += (p.Rand.Float64()*2 - 1) * p.Jitter
	}
	return types.Point{X: max(0, x), Y: max(0, y)}
}
