package physics

import (
	"github.com/pthm-cable/sandfall/grid"
	"github.com/pthm-cable/sandfall/material"
)

// FlowUpdate commits the liquid at (x, y) to a horizontal heading as wide as
// the partition and scans along it. The scan stops short of a denser obstacle
// or the partition edge, or lands early above a drop. At most one swap or one
// handoff results. The heading is zeroed after a scan, kept by a handoff, and
// left as it was when the adjacent edge has no neighbor.
func FlowUpdate(s *Sim, x, y int) (Outcome, grid.Point) {
	here := grid.Point{X: x, Y: y}
	e := s.Grid.Ref(x, y)
	w := s.Grid.Width()
	mover := *e
	heading := e.Heading
	fall := mover.GravityDirection()
	sx := s.flowDirection(mover, x, y)
	e.Heading = material.Heading{DX: sx * w}

	stop := x
	for i := 1; i <= w; i++ {
		cx := x + sx*i
		if !s.Grid.InBounds(cx, y) {
			if i == 1 {
				if s.handoff(here, grid.Point{X: cx, Y: y}) {
					return HandedOff, here
				}
				e.Heading = heading
				return Stayed, here
			}
			break
		}
		t := s.Grid.At(cx, y)
		if t.Density > mover.Density || t.Material == material.Invalid {
			break
		}
		if !canEnter(mover, t, 0) {
			// Same density: flow passes through without landing.
			continue
		}
		stop = cx
		if t.IsEmpty() && fall != 0 && s.Grid.IsEmpty(cx, y+fall) {
			break
		}
	}

	e.Heading = material.Heading{}
	if stop == x {
		return Stayed, here
	}
	s.Grid.Swap(x, y, stop, y)
	return Moved, grid.Point{X: stop, Y: y}
}

// flowDirection keeps the heading's sign when it has one. Otherwise it picks
// the only open side, or flips a coin when both or neither are open.
func (s *Sim) flowDirection(e material.Element, x, y int) int {
	if e.Heading.DX != 0 {
		return HorizontalDirectionFromHeading(e.Heading, s.Rand)
	}
	left, right := s.flowOpen(e, x-1, y), s.flowOpen(e, x+1, y)
	switch {
	case left && !right:
		return -1
	case right && !left:
		return 1
	}
	return HorizontalDirectionFromHeading(e.Heading, s.Rand)
}

func (s *Sim) flowOpen(e material.Element, x, y int) bool {
	if !s.Grid.InBounds(x, y) {
		return false
	}
	return s.Grid.At(x, y).Density <= e.Density
}
