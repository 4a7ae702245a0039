// Package material defines particle materials, their physical constants,
// and the per-particle element record stored in grid cells.
package material

import (
	"image/color"
	"math"
)

// Material is the type tag of a particle.
type Material uint8

const (
	Empty Material = iota
	Sand
	Water
	Wood
	Ice   // declared, not simulated
	Steam // declared, not simulated

	// Invalid tags the out-of-bounds sentinel. Never placed in a cell.
	Invalid Material = 0xFF
)

// Kind selects the update rules for a material.
type Kind uint8

const (
	KindPhysical      Kind = iota // generic element; Empty
	KindSolid                     // static solid with friction
	KindWood                      // immovable, infinite density
	KindMoveableSolid             // granular, slides diagonally
	KindLiquid                    // flows horizontally
	KindGas                       // no update rules yet
)

// Physical constants shared by all materials.
const (
	AmbientDensity     = 1.225
	AmbientTemperature = 20.0
	DefaultLifetime    = 1000
	DefaultDensity     = 1.0

	// FrictionSlideLimit is the friction below which a moveable solid may slide.
	FrictionSlideLimit = 0.5
)

// Props holds the fixed constants of a material.
type Props struct {
	Name      string
	Kind      Kind
	Density   float64
	Friction  float64
	Color     color.RGBA
	Placeable bool
}

var props = [...]Props{
	Empty: {Name: "empty", Kind: KindPhysical, Density: DefaultDensity, Color: color.RGBA{64, 64, 64, 255}, Placeable: true},
	Sand:  {Name: "sand", Kind: KindMoveableSolid, Density: 1520, Friction: 0, Color: color.RGBA{189, 183, 107, 255}, Placeable: true},
	Water: {Name: "water", Kind: KindLiquid, Density: 997, Color: color.RGBA{0, 0, 255, 255}, Placeable: true},
	Wood:  {Name: "wood", Kind: KindWood, Density: math.Inf(1), Friction: 1, Color: color.RGBA{55, 25, 0, 255}, Placeable: true},
	Ice:   {Name: "ice", Kind: KindSolid, Density: 917, Friction: 1, Color: color.RGBA{160, 220, 255, 255}},
	Steam: {Name: "steam", Kind: KindGas, Density: 0.6, Color: color.RGBA{200, 200, 200, 255}},
}

var invalidProps = Props{Name: "invalid", Kind: KindWood, Density: math.Inf(1), Friction: 1, Color: color.RGBA{0, 0, 0, 255}}

// Props returns the constants for m.
func (m Material) Props() Props {
	if int(m) < len(props) {
		return props[m]
	}
	return invalidProps
}

func (m Material) String() string { return m.Props().Name }

// Color returns the display color of m.
func (m Material) Color() color.RGBA { return m.Props().Color }

// Kind returns the update variant of m.
func (m Material) Kind() Kind { return m.Props().Kind }

// Placeable reports whether users may paint m into the grid.
func (m Material) Placeable() bool { return m.Props().Placeable }

// All returns every declared material in tag order, excluding Invalid.
func All() []Material {
	out := make([]Material, len(props))
	for i := range props {
		out[i] = Material(i)
	}
	return out
}

// Parse looks up a material by name.
func Parse(name string) (Material, bool) {
	for i, p := range props {
		if p.Name == name {
			return Material(i), true
		}
	}
	return Invalid, false
}

// Palette returns the display color for every declared material, indexed by tag.
func Palette() []color.RGBA {
	out := make([]color.RGBA, len(props))
	for i, p := range props {
		out[i] = p.Color
	}
	return out
}
