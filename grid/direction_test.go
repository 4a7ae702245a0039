package grid

import (
	"testing"

	"github.com/pthm-cable/sandfall/material"
)

func TestDirection_Opposite(t *testing.T) {
	for _, d := range Directions {
		if d.Opposite().Opposite() != d {
			t.Errorf("%v: opposite not involutive", d)
		}
		dx, dy := d.Offset()
		ox, oy := d.Opposite().Offset()
		if dx != -ox || dy != -oy {
			t.Errorf("%v: opposite offset (%d,%d), want (%d,%d)", d, ox, oy, -dx, -dy)
		}
	}
}

func TestCrossing(t *testing.T) {
	tests := []struct {
		p    Point
		want Direction
	}{
		{Point{1, 1}, None},
		{Point{4, 1}, Right},
		{Point{-1, 1}, Left},
		{Point{1, -1}, Top},
		{Point{1, 3}, Bottom},
		{Point{-1, 3}, BottomLeft},
		{Point{4, -1}, TopRight},
	}
	for _, tt := range tests {
		if got := Crossing(tt.p, 4, 3); got != tt.want {
			t.Errorf("Crossing(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		d    Direction
		want Point
	}{
		{"right edge lands in left column", Point{4, 2}, Right, Point{0, 2}},
		{"left edge lands in right column", Point{-1, 2}, Left, Point{3, 2}},
		{"bottom edge lands in top row", Point{1, 3}, Bottom, Point{1, 0}},
		{"top edge lands in bottom row", Point{1, -1}, Top, Point{1, 2}},
		{"diagonal lands in opposite corner", Point{-1, 3}, BottomLeft, Point{3, 0}},
		{"diagonal step keeps row offset", Point{-1, 1}, Left, Point{3, 1}},
	}
	for _, tt := range tests {
		if got := Translate(tt.p, tt.d, 4, 3, 4, 3); got != tt.want {
			t.Errorf("%s: Translate(%v, %v) = %v, want %v", tt.name, tt.p, tt.d, got, tt.want)
		}
	}
}

func TestBorder_SnapshotEdges(t *testing.T) {
	ts := New(3, 3)
	ts.Fill(0, 1, material.Sand)
	ts.Fill(2, 2, material.Water)
	b := Snapshot(ts)

	if m, ok := b.At(Point{0, 1}); !ok || m != material.Sand {
		t.Errorf("left edge = %v, %v", m, ok)
	}
	if m, ok := b.At(Point{2, 2}); !ok || m != material.Water {
		t.Errorf("corner = %v, %v", m, ok)
	}
	if _, ok := b.At(Point{1, 1}); ok {
		t.Error("interior cell reported as border")
	}
	if !b.IsEmpty(Point{1, 0}) {
		t.Error("empty top edge cell not reported empty")
	}

	ts.Fill(1, 0, material.Wood)
	if !b.IsEmpty(Point{1, 0}) {
		t.Error("snapshot changed after grid mutation")
	}
}
