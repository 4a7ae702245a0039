package worker

import (
	"github.com/pthm-cable/sandfall/grid"
	"github.com/pthm-cable/sandfall/material"
)

// Packet carries an element between partitions. While a packet exists its
// element is owned by no cell.
type Packet struct {
	Elem   material.Element
	Source *Worker        // worker that sent this packet
	From   grid.Point     // cell the element left, in Source's frame
	Dest   grid.Point     // target cell in the receiver's frame
	Dir    grid.Direction // direction of travel
	Hops   int            // relays and failed resolutions so far
}

// NeighborSwap implements physics.Exchanger. It moves the element at from into
// the inbox of the neighbor beyond the edge that to crosses. It only succeeds
// when the neighbor exists, last published the destination as Empty, and
// accepts the packet; otherwise the local cell is left untouched.
func (w *Worker) NeighborSwap(from, to grid.Point) bool {
	err := w.handoff(from, to)
	if err != nil && err != ErrNoNeighbor {
		w.counters.HandoffsRejected.Add(1)
	}
	return err == nil
}

func (w *Worker) handoff(from, to grid.Point) error {
	pw, ph := w.tiles.Width(), w.tiles.Height()
	dir := grid.Crossing(to, pw, ph)
	if dir == grid.None {
		return ErrNoNeighbor
	}
	n := w.neighbors[dir]
	if n == nil {
		return ErrNoNeighbor
	}
	ns := n.Size()
	dest := grid.Translate(to, dir, pw, ph, ns.W, ns.H)
	if !n.Border().IsEmpty(dest) {
		return ErrDestinationClaimed
	}

	// The cell is emptied before the packet is visible to the neighbor, so the
	// element is never in both places at once.
	e, ok := w.tiles.Take(from.X, from.Y)
	if !ok {
		return ErrNoNeighbor
	}
	e.Active = false
	p := Packet{Elem: e, Source: w, From: from, Dest: dest, Dir: dir}
	if err := n.offer(p); err != nil {
		e.Active = true
		w.tiles.Set(from.X, from.Y, e)
		return err
	}
	w.counters.HandoffsSent.Add(1)
	return nil
}

// Peek implements physics.Exchanger. It translates at, a cell just past one of
// w's edges, into the neighbor's frame and reads the neighbor's published
// border there.
func (w *Worker) Peek(at grid.Point) (material.Material, bool) {
	pw, ph := w.tiles.Width(), w.tiles.Height()
	dir := grid.Crossing(at, pw, ph)
	if dir == grid.None {
		return material.Invalid, false
	}
	n := w.neighbors[dir]
	if n == nil {
		return material.Invalid, false
	}
	ns := n.Size()
	return n.Border().At(grid.Translate(at, dir, pw, ph, ns.W, ns.H))
}

// offer appends p to w's inbox unless its destination is already claimed by
// a queued packet or the inbox is full. Safe to call from any goroutine.
func (w *Worker) offer(p Packet) error {
	if _, loaded := w.claims.LoadOrStore(p.Dest, struct{}{}); loaded {
		return ErrDestinationClaimed
	}
	select {
	case w.inbox <- p:
		return nil
	default:
		w.claims.Delete(p.Dest)
		return ErrQueueFull
	}
}

// drain resolves held packets and everything queued when the drain began.
func (w *Worker) drain() {
	w.batch = append(w.batch[:0], w.held...)
	w.held = w.held[:0]
	for n := len(w.inbox); n > 0; n-- {
		w.batch = append(w.batch, <-w.inbox)
	}
	for _, p := range w.batch {
		w.resolve(p)
	}
}

// resolve lands p at its destination if Empty. Otherwise it relays p onward
// in its direction of travel, then back to its sender. Once p has used up its
// relays it lands in the nearest Empty cell. A packet that cannot go anywhere
// is held for the next drain; packets are never dropped.
func (w *Worker) resolve(p Packet) {
	if w.land(p.Dest, p.Elem) {
		w.claims.Delete(p.Dest)
		w.counters.Landed.Add(1)
		return
	}

	if p.Hops < w.opts.MaxRelayHops {
		if w.relayOnward(p) || w.relayBack(p) {
			w.claims.Delete(p.Dest)
			w.counters.Relayed.Add(1)
			return
		}
	} else if at, ok := w.nearestEmpty(p.Dest); ok {
		w.land(at, p.Elem)
		w.claims.Delete(p.Dest)
		w.counters.Landed.Add(1)
		return
	}

	p.Hops++
	w.held = append(w.held, p)
	w.counters.Retained.Add(1)
}

// land materializes e at at if that cell is Empty.
func (w *Worker) land(at grid.Point, e material.Element) bool {
	if !w.tiles.IsEmpty(at.X, at.Y) {
		return false
	}
	e.Active = true
	e.Stamp(0)
	w.tiles.Set(at.X, at.Y, e)
	return true
}

// relayOnward tries the next cell along p's direction of travel, which may lie
// in another partition.
func (w *Worker) relayOnward(p Packet) bool {
	dx, dy := p.Dir.Offset()
	next := p.Dest.Add(dx, dy)
	pw, ph := w.tiles.Width(), w.tiles.Height()
	if w.tiles.InBounds(next.X, next.Y) {
		return w.land(next, p.Elem)
	}
	dir := grid.Crossing(next, pw, ph)
	n := w.neighbors[dir]
	if dir == grid.None || n == nil {
		return false
	}
	ns := n.Size()
	fwd := p
	fwd.Dest = grid.Translate(next, dir, pw, ph, ns.W, ns.H)
	fwd.Dir = dir
	fwd.Hops++
	return n.offer(fwd) == nil
}

// relayBack returns p to the cell it left in its sender's partition.
func (w *Worker) relayBack(p Packet) bool {
	if p.Source == nil || p.Source == w {
		return false
	}
	back := Packet{
		Elem:   p.Elem,
		Source: w,
		From:   p.Dest,
		Dest:   p.From,
		Dir:    p.Dir.Opposite(),
		Hops:   p.Hops + 1,
	}
	return p.Source.offer(back) == nil
}

// nearestEmpty searches square rings around at for an Empty cell.
func (w *Worker) nearestEmpty(at grid.Point) (grid.Point, bool) {
	pw, ph := w.tiles.Width(), w.tiles.Height()
	for r := 0; r < max(pw, ph); r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if max(abs(dx), abs(dy)) != r {
					continue
				}
				if x, y := at.X+dx, at.Y+dy; w.tiles.IsEmpty(x, y) {
					return grid.Point{X: x, Y: y}, true
				}
			}
		}
	}
	return grid.Point{}, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
