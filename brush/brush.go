// Package brush rasterizes viewer strokes into grid cells and places them.
package brush

import (
	"errors"

	"github.com/pthm-cable/sandfall/engine"
	"github.com/pthm-cable/sandfall/grid"
	"github.com/pthm-cable/sandfall/material"
)

// Placer accepts placements in global grid coordinates.
type Placer interface {
	Place(x, y int, m material.Material) error
}

// Tool paints one material with a disk of the given radius.
type Tool struct {
	Radius   int
	Material material.Material
}

// Circle returns the cells of a filled disk of radius r centered on (cx, cy).
// Radius 0 is the single center cell.
func Circle(cx, cy, r int) []grid.Point {
	r = max(r, 0)
	pts := make([]grid.Point, 0, (2*r+1)*(2*r+1))
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				pts = append(pts, grid.Point{X: cx + dx, Y: cy + dy})
			}
		}
	}
	return pts
}

// Line returns the cells from (x0, y0) to (x1, y1) inclusive (Bresenham).
func Line(x0, y0, x1, y1 int) []grid.Point {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	pts := make([]grid.Point, 0, max(dx, -dy)+1)
	e := dx + dy
	for {
		pts = append(pts, grid.Point{X: x0, Y: y0})
		if x0 == x1 && y0 == y1 {
			return pts
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// Stroke returns the cells covered by sweeping a disk of radius r along the
// line from a to b, each cell once.
func Stroke(a, b grid.Point, r int) []grid.Point {
	seen := make(map[grid.Point]struct{})
	var out []grid.Point
	for _, c := range Line(a.X, a.Y, b.X, b.Y) {
		for _, p := range Circle(c.X, c.Y, r) {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// Paint places the brush material on every point. Points outside the grid
// are skipped. It stops at the first other error and reports how many
// cells were placed.
func (b Tool) Paint(dst Placer, pts []grid.Point) (int, error) {
	placed := 0
	for _, p := range pts {
		err := dst.Place(p.X, p.Y, b.Material)
		switch {
		case err == nil:
			placed++
		case errors.Is(err, engine.ErrOutOfBounds):
		default:
			return placed, err
		}
	}
	return placed, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
