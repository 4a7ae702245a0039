// Package grid provides the partition storage used by workers: a dense,
// bounds-checked arena of cells plus the direction helpers used to address
// neighboring partitions.
package grid

import "github.com/pthm-cable/sandfall/material"

// Point is a cell coordinate in a partition's local frame.
// X grows to the right and Y grows downward.
type Point struct {
	X, Y int
}

// Add returns p offset by (dx, dy).
func (p Point) Add(dx, dy int) Point { return Point{p.X + dx, p.Y + dy} }

// Cell is one grid slot. It always holds exactly one element; Empty is a
// material, not the absence of one.
type Cell struct {
	Pos  Point
	Elem material.Element
}

// TileSet is a rectangular partition of cells stored column-major.
// All access is bounds-checked; out-of-range reads return the invalid sentinel.
type TileSet struct {
	w, h  int
	cells []Cell
}

// New creates a w x h partition filled with Empty.
func New(w, h int) *TileSet {
	t := &TileSet{}
	t.alloc(max(w, 0), max(h, 0))
	return t
}

func (t *TileSet) alloc(w, h int) {
	t.w, t.h = w, h
	t.cells = make([]Cell, w*h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			t.cells[x*h+y] = Cell{Pos: Point{x, y}, Elem: material.New(material.Empty)}
		}
	}
}

// Width returns the number of columns.
func (t *TileSet) Width() int { return t.w }

// Height returns the number of rows.
func (t *TileSet) Height() int { return t.h }

// InBounds reports whether (x, y) addresses a cell.
func (t *TileSet) InBounds(x, y int) bool {
	return x >= 0 && x < t.w && y >= 0 && y < t.h
}

// Cell returns the cell at (x, y), or nil when out of bounds.
func (t *TileSet) Cell(x, y int) *Cell {
	if !t.InBounds(x, y) {
		return nil
	}
	return &t.cells[x*t.h+y]
}

// At returns a copy of the element at (x, y), or material.InvalidElement
// when out of bounds.
func (t *TileSet) At(x, y int) material.Element {
	if !t.InBounds(x, y) {
		return material.InvalidElement
	}
	return t.cells[x*t.h+y].Elem
}

// Ref returns a pointer to the element at (x, y) for in-place updates, or nil.
func (t *TileSet) Ref(x, y int) *material.Element {
	if c := t.Cell(x, y); c != nil {
		return &c.Elem
	}
	return nil
}

// IsEmpty reports whether (x, y) is in bounds and holds Empty.
func (t *TileSet) IsEmpty(x, y int) bool {
	return t.InBounds(x, y) && t.cells[x*t.h+y].Elem.IsEmpty()
}

// Set replaces the element at (x, y). Returns false when out of bounds.
func (t *TileSet) Set(x, y int, e material.Element) bool {
	c := t.Cell(x, y)
	if c == nil {
		return false
	}
	c.Elem = e
	return true
}

// Fill assigns a fresh element of material m at (x, y).
func (t *TileSet) Fill(x, y int, m material.Material) bool {
	return t.Set(x, y, material.New(m))
}

// Take removes the element at (x, y), leaving Empty behind.
func (t *TileSet) Take(x, y int) (material.Element, bool) {
	c := t.Cell(x, y)
	if c == nil {
		return material.InvalidElement, false
	}
	e := c.Elem
	c.Elem = material.New(material.Empty)
	return e, true
}

// Swap exchanges the elements of two cells. Both must be in bounds.
func (t *TileSet) Swap(x0, y0, x1, y1 int) bool {
	a, b := t.Cell(x0, y0), t.Cell(x1, y1)
	if a == nil || b == nil {
		return false
	}
	a.Elem, b.Elem = b.Elem, a.Elem
	return true
}

// Resize changes the partition to w x h. The overlapping region keeps its
// elements; new cells are Empty.
func (t *TileSet) Resize(w, h int) {
	if w == t.w && h == t.h {
		return
	}
	old, ow, oh := t.cells, t.w, t.h
	t.alloc(max(w, 0), max(h, 0))
	for x := 0; x < min(ow, t.w); x++ {
		for y := 0; y < min(oh, t.h); y++ {
			t.cells[x*t.h+y].Elem = old[x*oh+y].Elem
		}
	}
}

// Clear resets every cell to Empty.
func (t *TileSet) Clear() {
	for i := range t.cells {
		t.cells[i].Elem = material.New(material.Empty)
	}
}

// Census counts cells per material, indexed by tag.
func (t *TileSet) Census() []int {
	counts := make([]int, len(material.All()))
	for i := range t.cells {
		if m := int(t.cells[i].Elem.Material); m < len(counts) {
			counts[m]++
		}
	}
	return counts
}
