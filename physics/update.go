// Package physics implements the per-particle state machine: density-driven
// gravity, diagonal spreading, and long-range liquid flow within a partition,
// with handoff to a neighboring partition at the edges.
package physics

import (
	"math"
	"math/rand/v2"

	"github.com/pthm-cable/sandfall/grid"
	"github.com/pthm-cable/sandfall/material"
)

// Exchanger connects a partition to its neighbors.
type Exchanger interface {
	// NeighborSwap hands the element at from to the partition beyond the
	// edge that to crosses. It returns true only if ownership left the
	// local cell.
	NeighborSwap(from, to grid.Point) bool
	// Peek returns the material the neighbor last published for the
	// out-of-bounds cell at. It reports false when no neighbor covers at.
	Peek(at grid.Point) (material.Material, bool)
}

// Sim is the context for updating elements of one partition during one tick.
type Sim struct {
	Grid     *grid.TileSet
	Exchange Exchanger // nil means no neighbors
	Rand     *rand.Rand
	Tick     uint64 // must be nonzero
}

// Outcome is the result of one movement rule.
type Outcome uint8

const (
	Stayed    Outcome = iota
	Moved             // swapped within the partition
	HandedOff         // ownership left for a neighbor's inbox
)

// Update advances the element at (x, y) by one tick and reports whether
// anything moved. Empty cells, inactive elements, and elements already
// updated this tick are skipped.
func Update(s *Sim, x, y int) bool {
	e := s.Grid.Ref(x, y)
	if e == nil || e.IsEmpty() || !e.Active || e.Updated(s.Tick) {
		return false
	}
	e.Stamp(s.Tick)

	switch e.Material.Kind() {
	case material.KindPhysical:
		return updateGranular(s, x, y, spreadRules{diagonal: true, lateral: true})
	case material.KindMoveableSolid:
		// Only low-friction grains slide.
		rules := spreadRules{diagonal: e.Friction < material.FrictionSlideLimit}
		return updateGranular(s, x, y, rules)
	case material.KindLiquid:
		return updateLiquid(s, x, y)
	default:
		// Wood, static solids, and gases do not move.
		return false
	}
}

func updateGranular(s *Sim, x, y int, rules spreadRules) bool {
	g, p := GravityUpdate(s, x, y)
	if g == HandedOff {
		return true
	}
	sp, _ := spreadUpdate(s, p.X, p.Y, rules)
	return g == Moved || sp != Stayed
}

func updateLiquid(s *Sim, x, y int) bool {
	g, p := GravityUpdate(s, x, y)
	if g == HandedOff {
		return true
	}
	sp, _ := spreadUpdate(s, p.X, p.Y, spreadRules{diagonal: true})
	if sp != Stayed || g == Moved {
		return true
	}
	out, _ := FlowUpdate(s, p.X, p.Y)
	return out != Stayed
}

// GravityUpdate moves the element at (x, y) one cell along its gravity
// direction when the target is Empty or yields to it by density. Crossing the
// top or bottom edge requests a handoff. It returns the outcome and the
// element's position afterwards.
func GravityUpdate(s *Sim, x, y int) (Outcome, grid.Point) {
	here := grid.Point{X: x, Y: y}
	e := s.Grid.At(x, y)
	dir := e.GravityDirection()
	if dir == 0 {
		return Stayed, here
	}
	ty := y + dir
	if !s.Grid.InBounds(x, ty) {
		if s.handoff(here, grid.Point{X: x, Y: ty}) {
			return HandedOff, here
		}
		return Stayed, here
	}
	if !canEnter(e, s.Grid.At(x, ty), dir) {
		return Stayed, here
	}
	s.move(x, y, x, ty)
	return Moved, grid.Point{X: x, Y: ty}
}

// canEnter reports whether mover may swap into target when travelling with
// vertical component dy. Lateral moves use the downward rule.
func canEnter(mover, target material.Element, dy int) bool {
	if target.IsEmpty() {
		return true
	}
	if math.IsInf(target.Density, 1) || target.Material == material.Invalid {
		return false
	}
	if dy < 0 {
		return target.Density > mover.Density
	}
	return target.Density < mover.Density
}

// move swaps the mover at (x, y) into (tx, ty) and points its heading there.
func (s *Sim) move(x, y, tx, ty int) {
	s.Grid.Swap(x, y, tx, ty)
	s.Grid.Ref(tx, ty).Heading = material.Toward(x, y, tx, ty)
}

// peek looks up an out-of-bounds cell in the neighbor's published border.
func (s *Sim) peek(at grid.Point) (material.Element, bool) {
	if s.Exchange == nil {
		return material.Element{}, false
	}
	m, ok := s.Exchange.Peek(at)
	if !ok {
		return material.Element{}, false
	}
	return material.New(m), true
}

func (s *Sim) handoff(from, to grid.Point) bool {
	if s.Exchange == nil {
		return false
	}
	return s.Exchange.NeighborSwap(from, to)
}

// HorizontalDirectionFromHeading returns the sign of h's horizontal component,
// or a fair coin flip between -1 and 1 when it is zero.
func HorizontalDirectionFromHeading(h material.Heading, r *rand.Rand) int {
	switch {
	case h.DX > 0:
		return 1
	case h.DX < 0:
		return -1
	}
	if r.IntN(2) == 0 {
		return -1
	}
	return 1
}
