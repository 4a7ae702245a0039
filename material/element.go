package material

import "math"

// Heading is a persisted direction bias. Components are normally in {-1,0,1};
// a liquid's flow commitment stretches DX to the partition width.
type Heading struct {
	DX, DY int
}

// IsZero reports whether h carries no bias.
func (h Heading) IsZero() bool { return h.DX == 0 && h.DY == 0 }

// Toward returns the unit heading from (x0,y0) to (x1,y1).
func Toward(x0, y0, x1, y1 int) Heading {
	return Heading{DX: sign(x1 - x0), DY: sign(y1 - y0)}
}

// Element is the physics state of one particle. Its position is the index of
// the cell holding it, so it carries no reference back to that cell.
type Element struct {
	Material    Material
	Density     float64
	Friction    float64
	Temperature float64
	Lifetime    int
	OnFire      bool
	Velocity    float64
	Heading     Heading

	// Active is false while the element travels in a packet between partitions.
	Active bool

	stamp uint64 // last tick this element was updated
}

// New returns a fresh element of material m with its default constants.
func New(m Material) Element {
	p := m.Props()
	return Element{
		Material:    m,
		Density:     p.Density,
		Friction:    p.Friction,
		Temperature: AmbientTemperature,
		Lifetime:    DefaultLifetime,
		Active:      true,
	}
}

// InvalidElement is returned for coordinates outside a partition.
// Its infinite density blocks every movement comparison.
var InvalidElement = Element{Material: Invalid, Density: math.Inf(1), Friction: 1}

// IsEmpty reports whether e is the Empty material.
func (e Element) IsEmpty() bool { return e.Material == Empty }

// GravityDirection returns +1 (down), -1 (up) or 0 relative to the ambient medium.
func (e Element) GravityDirection() int {
	switch {
	case e.Density > AmbientDensity:
		return 1
	case e.Density < AmbientDensity:
		return -1
	}
	return 0
}

// Updated reports whether e was already updated during tick.
func (e Element) Updated(tick uint64) bool { return e.stamp == tick }

// Stamp marks e as updated during tick.
func (e *Element) Stamp(tick uint64) { e.stamp = tick }

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
