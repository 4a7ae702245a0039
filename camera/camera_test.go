package camera

import (
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	v := New(1000, 800, 4)

	if w, h := v.GridSize(); w != 250 || h != 200 {
		t.Errorf("grid = %dx%d, want 250x200", w, h)
	}
	if v.Zoom != 1 || v.X != 0 || v.Y != 0 {
		t.Errorf("expected unzoomed view at origin, got zoom %f at (%f,%f)", v.Zoom, v.X, v.Y)
	}
}

func TestScreenToGrid(t *testing.T) {
	v := New(1000, 800, 4)

	tests := []struct {
		sx, sy float32
		gx, gy int
		ok     bool
	}{
		{0, 0, 0, 0, true},
		{3.9, 3.9, 0, 0, true},
		{4, 8, 1, 2, true},
		{999, 799, 249, 199, true},
		{1000, 10, 250, 2, false},
		{-1, 10, -1, 2, false},
	}
	for _, tt := range tests {
		gx, gy, ok := v.ScreenToGrid(tt.sx, tt.sy)
		if gx != tt.gx || gy != tt.gy || ok != tt.ok {
			t.Errorf("ScreenToGrid(%v,%v) = (%d,%d,%v), want (%d,%d,%v)",
				tt.sx, tt.sy, gx, gy, ok, tt.gx, tt.gy, tt.ok)
		}
	}
}

func TestGridToScreenRoundtrip(t *testing.T) {
	v := New(1000, 800, 4)
	v.ZoomAt(500, 400, 2)

	for _, c := range [][2]int{{130, 110}, {200, 150}, {180, 120}} {
		sx, sy := v.GridToScreen(c[0], c[1])
		gx, gy, _ := v.ScreenToGrid(sx+0.5, sy+0.5)
		if gx != c[0] || gy != c[1] {
			t.Errorf("roundtrip (%d,%d) -> (%f,%f) -> (%d,%d)", c[0], c[1], sx, sy, gx, gy)
		}
	}
}

func TestZoomAtKeepsCursorCell(t *testing.T) {
	v := New(1000, 800, 4)

	before, _, _ := v.ScreenToGrid(600, 300)
	v.ZoomAt(600, 300, 2)
	after, _, _ := v.ScreenToGrid(600, 300)

	if before != after {
		t.Errorf("cell under cursor moved from %d to %d", before, after)
	}
	if v.Zoom != 2 {
		t.Errorf("zoom = %f, want 2", v.Zoom)
	}
}

func TestZoomClamped(t *testing.T) {
	v := New(1000, 800, 4)

	v.ZoomAt(0, 0, 0.1)
	if v.Zoom != 1 {
		t.Errorf("zoom below 1: %f", v.Zoom)
	}
	v.ZoomAt(0, 0, 100)
	if v.Zoom != v.MaxZoom {
		t.Errorf("zoom above max: %f", v.Zoom)
	}
}

func TestPanStaysInsideGrid(t *testing.T) {
	v := New(1000, 800, 4)

	v.Pan(100, 100)
	if v.X != 0 || v.Y != 0 {
		t.Errorf("unzoomed view panned to (%f,%f)", v.X, v.Y)
	}

	v.ZoomAt(0, 0, 2) // half the grid visible
	v.Pan(1e6, 1e6)
	if math.Abs(float64(v.X-125)) > 1e-3 || math.Abs(float64(v.Y-100)) > 1e-3 {
		t.Errorf("pan past the edge to (%f,%f), want (125,100)", v.X, v.Y)
	}
	v.Pan(-1e6, -1e6)
	if v.X != 0 || v.Y != 0 {
		t.Errorf("pan past the origin to (%f,%f)", v.X, v.Y)
	}
}

func TestResizeFollowsWindow(t *testing.T) {
	v := New(1000, 800, 4)

	w, h := v.Resize(640, 480)
	if w != 160 || h != 120 {
		t.Errorf("grid after resize = %dx%d, want 160x120", w, h)
	}
	x, y, vw, vh := v.Visible()
	if x != 0 || y != 0 || vw != 160 || vh != 120 {
		t.Errorf("visible = (%f,%f,%f,%f)", x, y, vw, vh)
	}
}

func TestReset(t *testing.T) {
	v := New(1000, 800, 4)
	v.ZoomAt(500, 400, 3)
	v.Reset()

	if v.Zoom != 1 || v.X != 0 || v.Y != 0 {
		t.Errorf("reset left zoom %f at (%f,%f)", v.Zoom, v.X, v.Y)
	}
}
