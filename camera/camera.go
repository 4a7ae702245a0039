// Package camera maps window pixels to grid cells for the viewer.
package camera

import "math"

// Viewport controls which part of the grid is drawn and at what size.
// At zoom 1 the whole grid fills the window; zooming in lets the view pan
// within the grid bounds.
type Viewport struct {
	// Window size in pixels
	ScreenW, ScreenH float32

	// Window pixels per grid cell at zoom 1
	Scale int

	// Grid cell shown at the top-left corner of the window
	X, Y float32

	// Zoom level and its upper bound (lower bound is 1)
	Zoom, MaxZoom float32

	gridW, gridH int
}

// New creates a viewport for a window of the given size.
func New(screenW, screenH, scale int) *Viewport {
	v := &Viewport{Scale: max(scale, 1), Zoom: 1, MaxZoom: 8}
	v.Resize(screenW, screenH)
	return v
}

// Resize adapts to a new window size and returns the grid size, in cells,
// that fills it.
func (v *Viewport) Resize(screenW, screenH int) (gridW, gridH int) {
	v.ScreenW, v.ScreenH = float32(screenW), float32(screenH)
	v.gridW, v.gridH = screenW/v.Scale, screenH/v.Scale
	v.clampPan()
	return v.gridW, v.gridH
}

// GridSize returns the grid size that fills the window.
func (v *Viewport) GridSize() (w, h int) { return v.gridW, v.gridH }

// CellSize returns the on-screen size of one cell in pixels.
func (v *Viewport) CellSize() float32 { return float32(v.Scale) * v.Zoom }

// ScreenToGrid converts a window position to the cell under it. ok is false
// outside the grid.
func (v *Viewport) ScreenToGrid(sx, sy float32) (gx, gy int, ok bool) {
	cs := v.CellSize()
	gx = int(math.Floor(float64(v.X + sx/cs)))
	gy = int(math.Floor(float64(v.Y + sy/cs)))
	return gx, gy, gx >= 0 && gy >= 0 && gx < v.gridW && gy < v.gridH
}

// GridToScreen returns the window position of a cell's top-left corner.
func (v *Viewport) GridToScreen(gx, gy int) (sx, sy float32) {
	cs := v.CellSize()
	return (float32(gx) - v.X) * cs, (float32(gy) - v.Y) * cs
}

// Visible returns the visible grid rectangle in cells, clipped to the grid.
func (v *Viewport) Visible() (x, y, w, h float32) {
	cs := v.CellSize()
	w = min(v.ScreenW/cs, float32(v.gridW))
	h = min(v.ScreenH/cs, float32(v.gridH))
	return v.X, v.Y, w, h
}

// Pan moves the view by a delta in screen pixels.
func (v *Viewport) Pan(dx, dy float32) {
	cs := v.CellSize()
	v.X += dx / cs
	v.Y += dy / cs
	v.clampPan()
}

// ZoomAt multiplies the zoom by factor, keeping the cell under (sx, sy) fixed.
func (v *Viewport) ZoomAt(sx, sy, factor float32) {
	before := v.CellSize()
	fx, fy := v.X+sx/before, v.Y+sy/before
	v.Zoom = clamp(v.Zoom*factor, 1, v.MaxZoom)
	after := v.CellSize()
	v.X, v.Y = fx-sx/after, fy-sy/after
	v.clampPan()
}

// Reset returns to zoom 1 with the whole grid visible.
func (v *Viewport) Reset() {
	v.Zoom = 1
	v.X, v.Y = 0, 0
}

func (v *Viewport) clampPan() {
	cs := v.CellSize()
	v.X = clamp(v.X, 0, max(float32(v.gridW)-v.ScreenW/cs, 0))
	v.Y = clamp(v.Y, 0, max(float32(v.gridH)-v.ScreenH/cs, 0))
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
