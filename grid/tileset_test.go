package grid

import (
	"math"
	"testing"

	"github.com/pthm-cable/sandfall/material"
)

func TestTileSet_NewIsEmpty(t *testing.T) {
	ts := New(3, 2)
	for x := 0; x < 3; x++ {
		for y := 0; y < 2; y++ {
			if !ts.IsEmpty(x, y) {
				t.Errorf("cell (%d,%d) = %v, want empty", x, y, ts.At(x, y).Material)
			}
			if c := ts.Cell(x, y); c.Pos != (Point{x, y}) {
				t.Errorf("cell (%d,%d) records position %v", x, y, c.Pos)
			}
		}
	}
}

func TestTileSet_OutOfBoundsSentinel(t *testing.T) {
	ts := New(2, 2)
	for _, p := range []Point{{-1, 0}, {0, -1}, {2, 0}, {0, 2}} {
		e := ts.At(p.X, p.Y)
		if e.Material != material.Invalid {
			t.Errorf("At(%v) material = %v, want invalid", p, e.Material)
		}
		if !math.IsInf(e.Density, 1) {
			t.Errorf("At(%v) density = %f, want +Inf", p, e.Density)
		}
		if ts.IsEmpty(p.X, p.Y) {
			t.Errorf("IsEmpty(%v) = true outside bounds", p)
		}
		if ts.Set(p.X, p.Y, material.New(material.Sand)) {
			t.Errorf("Set(%v) succeeded outside bounds", p)
		}
	}
}

func TestTileSet_SwapIsSelfInverse(t *testing.T) {
	ts := New(2, 2)
	ts.Fill(0, 0, material.Sand)
	ts.Fill(1, 1, material.Water)
	a, b := ts.At(0, 0), ts.At(1, 1)

	if !ts.Swap(0, 0, 1, 1) {
		t.Fatal("swap failed")
	}
	if ts.At(0, 0).Material != material.Water || ts.At(1, 1).Material != material.Sand {
		t.Fatalf("swap did not exchange elements")
	}
	ts.Swap(0, 0, 1, 1)
	if ts.At(0, 0) != a || ts.At(1, 1) != b {
		t.Errorf("double swap did not restore original elements")
	}
}

func TestTileSet_SwapOutOfBounds(t *testing.T) {
	ts := New(2, 2)
	ts.Fill(0, 0, material.Sand)
	if ts.Swap(0, 0, -1, 0) {
		t.Error("swap with out-of-bounds cell succeeded")
	}
	if ts.At(0, 0).Material != material.Sand {
		t.Error("failed swap modified the grid")
	}
}

func TestTileSet_TakeLeavesEmpty(t *testing.T) {
	ts := New(2, 2)
	ts.Fill(1, 0, material.Sand)
	e, ok := ts.Take(1, 0)
	if !ok || e.Material != material.Sand {
		t.Fatalf("Take = %v, %v", e.Material, ok)
	}
	if !ts.IsEmpty(1, 0) {
		t.Error("cell not empty after Take")
	}
}

func TestTileSet_ResizePreservesOverlap(t *testing.T) {
	ts := New(4, 4)
	mats := []material.Material{material.Sand, material.Water, material.Wood, material.Empty}
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			ts.Fill(x, y, mats[(x+y)%len(mats)])
		}
	}

	ts.Resize(6, 6)
	if ts.Width() != 6 || ts.Height() != 6 {
		t.Fatalf("size = %dx%d, want 6x6", ts.Width(), ts.Height())
	}
	for x := 0; x < 6; x++ {
		for y := 0; y < 6; y++ {
			got := ts.At(x, y).Material
			if x < 4 && y < 4 {
				if want := mats[(x+y)%len(mats)]; got != want {
					t.Errorf("(%d,%d) = %v, want %v", x, y, got, want)
				}
			} else if got != material.Empty {
				t.Errorf("new cell (%d,%d) = %v, want empty", x, y, got)
			}
			if c := ts.Cell(x, y); c.Pos != (Point{x, y}) {
				t.Errorf("cell (%d,%d) records position %v", x, y, c.Pos)
			}
		}
	}
}

func TestTileSet_ResizeShrink(t *testing.T) {
	ts := New(4, 4)
	ts.Fill(1, 1, material.Sand)
	ts.Fill(3, 3, material.Water)
	ts.Resize(2, 2)
	if ts.At(1, 1).Material != material.Sand {
		t.Error("overlap lost on shrink")
	}
	if ts.InBounds(3, 3) {
		t.Error("(3,3) still in bounds after shrink")
	}
}

func TestTileSet_ClearAndCensus(t *testing.T) {
	ts := New(3, 3)
	ts.Fill(0, 0, material.Sand)
	ts.Fill(1, 0, material.Sand)
	ts.Fill(2, 2, material.Water)

	counts := ts.Census()
	if counts[material.Sand] != 2 || counts[material.Water] != 1 || counts[material.Empty] != 6 {
		t.Errorf("census = %v", counts)
	}
	ts.Clear()
	if got := ts.Census()[material.Empty]; got != 9 {
		t.Errorf("empty after clear = %d, want 9", got)
	}
}
