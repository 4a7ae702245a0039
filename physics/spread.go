package physics

import (
	"github.com/pthm-cable/sandfall/grid"
	"github.com/pthm-cable/sandfall/material"
)

type spreadRules struct {
	diagonal bool // down-left and down-right tiers
	lateral  bool // left and right tiers
}

// SpreadUpdate applies the generic spreading rules to the element at (x, y):
// down-left and down-right first, then left and right. Empty targets win over
// less dense ones within a tier, and ties follow the element's heading.
func SpreadUpdate(s *Sim, x, y int) (Outcome, grid.Point) {
	return spreadUpdate(s, x, y, spreadRules{diagonal: true, lateral: true})
}

func spreadUpdate(s *Sim, x, y int, rules spreadRules) (Outcome, grid.Point) {
	here := grid.Point{X: x, Y: y}
	if !rules.diagonal && !rules.lateral {
		return Stayed, here
	}
	e := s.Grid.At(x, y)
	fall := e.GravityDirection()
	first := HorizontalDirectionFromHeading(e.Heading, s.Rand)
	sides := [2]int{first, -first}
	diagonal := rules.diagonal && fall != 0

	if diagonal {
		for _, wantEmpty := range [2]bool{true, false} {
			for _, sx := range sides {
				if s.diagonalOpen(e, x, y, sx, fall, wantEmpty) {
					s.move(x, y, x+sx, y+fall)
					return Moved, grid.Point{X: x + sx, Y: y + fall}
				}
			}
		}
	}
	if rules.lateral {
		for _, wantEmpty := range [2]bool{true, false} {
			for _, sx := range sides {
				if s.lateralOpen(e, x, y, sx, wantEmpty) {
					s.move(x, y, x+sx, y)
					return Moved, grid.Point{X: x + sx, Y: y}
				}
			}
		}
	}

	// Nothing moved locally; try the same candidates across an edge.
	if diagonal {
		for _, sx := range sides {
			to := grid.Point{X: x + sx, Y: y + fall}
			if s.Grid.InBounds(to.X, to.Y) {
				continue
			}
			if !s.lateralPassable(e, x, y, sx, fall) {
				continue
			}
			if s.handoff(here, to) {
				return HandedOff, here
			}
		}
	}
	if rules.lateral {
		for _, sx := range sides {
			to := grid.Point{X: x + sx, Y: y}
			if !s.Grid.InBounds(to.X, to.Y) && s.handoff(here, to) {
				return HandedOff, here
			}
		}
	}
	return Stayed, here
}

// diagonalOpen checks the diagonal target on side sx. The lateral cell must
// also be passable so elements cannot squeeze through a solid corner.
func (s *Sim) diagonalOpen(e material.Element, x, y, sx, fall int, wantEmpty bool) bool {
	tx, ty := x+sx, y+fall
	if !s.Grid.InBounds(tx, ty) || !s.Grid.InBounds(x+sx, y) {
		return false
	}
	if !canEnter(e, s.Grid.At(x+sx, y), fall) {
		return false
	}
	return s.open(e, tx, ty, fall, wantEmpty)
}

// lateralPassable checks the cell beside (x, y) on side sx for a diagonal
// move. Past the edge it asks the neighbor; without one the move is blocked.
func (s *Sim) lateralPassable(e material.Element, x, y, sx, fall int) bool {
	if s.Grid.InBounds(x+sx, y) {
		return canEnter(e, s.Grid.At(x+sx, y), fall)
	}
	t, ok := s.peek(grid.Point{X: x + sx, Y: y})
	return ok && canEnter(e, t, fall)
}

func (s *Sim) lateralOpen(e material.Element, x, y, sx int, wantEmpty bool) bool {
	if !s.Grid.InBounds(x+sx, y) {
		return false
	}
	return s.open(e, x+sx, y, 0, wantEmpty)
}

func (s *Sim) open(e material.Element, tx, ty, dy int, wantEmpty bool) bool {
	t := s.Grid.At(tx, ty)
	if wantEmpty {
		return t.IsEmpty()
	}
	return !t.IsEmpty() && canEnter(e, t, dy)
}
