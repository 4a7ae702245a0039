package grid

// Direction names one of the eight partitions around a partition.
type Direction uint8

const (
	None Direction = iota
	Top
	TopRight
	Right
	BottomRight
	Bottom
	BottomLeft
	Left
	TopLeft
)

// Directions lists the eight neighbor directions.
var Directions = [8]Direction{Top, TopRight, Right, BottomRight, Bottom, BottomLeft, Left, TopLeft}

var offsets = [...][2]int{
	None:        {0, 0},
	Top:         {0, -1},
	TopRight:    {1, -1},
	Right:       {1, 0},
	BottomRight: {1, 1},
	Bottom:      {0, 1},
	BottomLeft:  {-1, 1},
	Left:        {-1, 0},
	TopLeft:     {-1, -1},
}

var names = [...]string{"none", "top", "top_right", "right", "bottom_right", "bottom", "bottom_left", "left", "top_left"}

func (d Direction) String() string {
	if int(d) < len(names) {
		return names[d]
	}
	return "unknown"
}

// Offset returns the column and row step of d.
func (d Direction) Offset() (dx, dy int) {
	o := offsets[d]
	return o[0], o[1]
}

// Opposite returns the direction pointing back.
func (d Direction) Opposite() Direction {
	dx, dy := d.Offset()
	return FromOffset(-dx, -dy)
}

// FromOffset maps a step (each component clamped to its sign) to a direction.
func FromOffset(dx, dy int) Direction {
	dx, dy = clampUnit(dx), clampUnit(dy)
	for d, o := range offsets {
		if o[0] == dx && o[1] == dy {
			return Direction(d)
		}
	}
	return None
}

// Crossing returns the direction of the edge(s) that p lies beyond in a
// w x h partition, or None when p is inside it.
func Crossing(p Point, w, h int) Direction {
	dx, dy := 0, 0
	switch {
	case p.X < 0:
		dx = -1
	case p.X >= w:
		dx = 1
	}
	switch {
	case p.Y < 0:
		dy = -1
	case p.Y >= h:
		dy = 1
	}
	return FromOffset(dx, dy)
}

// Translate converts p, which lies beyond a srcW x srcH partition in
// direction d, into the local frame of the dstW x dstH neighbor there.
func Translate(p Point, d Direction, srcW, srcH, dstW, dstH int) Point {
	dx, dy := d.Offset()
	switch dx {
	case 1:
		p.X -= srcW
	case -1:
		p.X += dstW
	}
	switch dy {
	case 1:
		p.Y -= srcH
	case -1:
		p.Y += dstH
	}
	return p
}

func clampUnit(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
