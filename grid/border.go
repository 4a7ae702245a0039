package grid

import "github.com/pthm-cable/sandfall/material"

// Border is a read-only copy of the materials along a partition's edges.
// Owners publish one after each tick so neighbors can check a destination
// without touching cells they do not own.
type Border struct {
	W, H   int
	Top    []material.Material
	Bottom []material.Material
	Left   []material.Material
	Right  []material.Material
}

// Snapshot copies the edges of t.
func Snapshot(t *TileSet) *Border {
	b := &Border{
		W:      t.w,
		H:      t.h,
		Top:    make([]material.Material, t.w),
		Bottom: make([]material.Material, t.w),
		Left:   make([]material.Material, t.h),
		Right:  make([]material.Material, t.h),
	}
	for x := 0; x < t.w; x++ {
		b.Top[x] = t.At(x, 0).Material
		b.Bottom[x] = t.At(x, t.h-1).Material
	}
	for y := 0; y < t.h; y++ {
		b.Left[y] = t.At(0, y).Material
		b.Right[y] = t.At(t.w-1, y).Material
	}
	return b
}

// At returns the material at p if p lies on the border.
func (b *Border) At(p Point) (material.Material, bool) {
	if b == nil || p.X < 0 || p.X >= b.W || p.Y < 0 || p.Y >= b.H {
		return material.Invalid, false
	}
	switch {
	case p.Y == 0:
		return b.Top[p.X], true
	case p.Y == b.H-1:
		return b.Bottom[p.X], true
	case p.X == 0:
		return b.Left[p.Y], true
	case p.X == b.W-1:
		return b.Right[p.Y], true
	}
	return material.Invalid, false
}

// IsEmpty reports whether p is a border cell last seen holding Empty.
func (b *Border) IsEmpty(p Point) bool {
	m, ok := b.At(p)
	return ok && m == material.Empty
}
