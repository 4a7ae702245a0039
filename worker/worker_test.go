package worker

import (
	"context"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/pthm-cable/sandfall/grid"
	"github.com/pthm-cable/sandfall/material"
)

func newTestWorker(row, col, w, h int) *Worker {
	return New(Options{
		Row: row, Col: col,
		Width: w, Height: h,
		Seed:          1,
		TickInterval:  time.Millisecond,
		LockTimeout:   time.Millisecond,
		InboxCapacity: 16,
		MaxRelayHops:  4,
	})
}

// pair links two side-by-side workers.
func pair(w, h int) (left, right *Worker) {
	left, right = newTestWorker(0, 0, w, h), newTestWorker(0, 1, w, h)
	left.SetNeighbor(grid.Right, right)
	right.SetNeighbor(grid.Left, left)
	return left, right
}

// peek returns the queued packets without consuming them.
func peek(w *Worker) []Packet {
	var out []Packet
	for n := len(w.inbox); n > 0; n-- {
		p := <-w.inbox
		out = append(out, p)
		w.inbox <- p
	}
	return out
}

func TestWorker_BoundaryHandoff(t *testing.T) {
	p, n := pair(4, 1)
	water := material.New(material.Water)
	water.Heading = material.Heading{DX: 1}
	p.Tiles().Set(3, 0, water)
	n.Tiles().Fill(1, 0, material.Wood)

	p.Step()

	if !p.Tiles().IsEmpty(3, 0) {
		t.Fatalf("source cell holds %v after handoff", p.Tiles().At(3, 0).Material)
	}
	queued := peek(n)
	if len(queued) != 1 {
		t.Fatalf("neighbor inbox has %d packets, want 1", len(queued))
	}
	if queued[0].Elem.Active {
		t.Error("element in flight is still active")
	}
	if queued[0].Dest != (grid.Point{X: 0, Y: 0}) {
		t.Errorf("destination = %v, want (0,0)", queued[0].Dest)
	}

	n.Step()

	got := n.Tiles().At(0, 0)
	if got.Material != material.Water {
		t.Fatalf("destination holds %v, want water", got.Material)
	}
	if !got.Active {
		t.Error("landed element is not active")
	}
	if n.InFlight() != 0 {
		t.Errorf("in flight after drain = %d", n.InFlight())
	}
}

func TestWorker_HandoffWithoutNeighborIsNoop(t *testing.T) {
	w := newTestWorker(0, 0, 2, 2)
	w.Tiles().Fill(1, 1, material.Sand)

	if w.NeighborSwap(grid.Point{X: 1, Y: 1}, grid.Point{X: 1, Y: 2}) {
		t.Fatal("handoff succeeded without a neighbor")
	}
	if w.Tiles().At(1, 1).Material != material.Sand {
		t.Error("failed handoff changed the source cell")
	}
	if got := w.Counters().HandoffsRejected.Load(); got != 0 {
		t.Errorf("missing neighbor counted as rejection: %d", got)
	}
}

func TestWorker_HandoffBlockedByBorder(t *testing.T) {
	p, n := pair(3, 3)
	n.Tiles().Fill(0, 1, material.Wood)
	n.publish()
	p.Tiles().Fill(2, 1, material.Sand)

	if p.NeighborSwap(grid.Point{X: 2, Y: 1}, grid.Point{X: 3, Y: 1}) {
		t.Fatal("handoff into an occupied border cell succeeded")
	}
	if p.Tiles().At(2, 1).Material != material.Sand {
		t.Error("rejected handoff lost the element")
	}
}

func TestWorker_DiagonalHandoffRespectsNeighborCorner(t *testing.T) {
	p, n := pair(3, 3)
	n.Tiles().Fill(0, 0, material.Wood)
	n.Step() // publish the corner
	p.Tiles().Fill(2, 0, material.Sand)
	for _, c := range []grid.Point{{X: 2, Y: 1}, {X: 1, Y: 0}, {X: 1, Y: 1}} {
		p.Tiles().Fill(c.X, c.Y, material.Wood)
	}

	p.Step()
	n.Step()

	if got := p.Tiles().At(2, 0).Material; got != material.Sand {
		t.Errorf("source cell holds %v, want sand kept behind the neighbor's wood", got)
	}
	if got := n.Tiles().Census()[material.Sand]; got != 0 {
		t.Errorf("neighbor holds %d sand", got)
	}
}

func TestWorker_DiagonalHandoffPastOpenCorner(t *testing.T) {
	p, n := pair(3, 3)
	p.Tiles().Fill(2, 0, material.Sand)
	for _, c := range []grid.Point{{X: 2, Y: 1}, {X: 1, Y: 0}, {X: 1, Y: 1}} {
		p.Tiles().Fill(c.X, c.Y, material.Wood)
	}

	p.Step()
	n.Step()

	if !p.Tiles().IsEmpty(2, 0) {
		t.Errorf("source cell holds %v, want the sand handed off", p.Tiles().At(2, 0).Material)
	}
	if got := n.Tiles().Census()[material.Sand]; got != 1 {
		t.Errorf("neighbor holds %d sand, want 1", got)
	}
}

func TestWorker_Peek(t *testing.T) {
	p, n := pair(3, 2)
	n.Tiles().Fill(0, 1, material.Wood)
	n.Step()

	if m, ok := p.Peek(grid.Point{X: 3, Y: 1}); !ok || m != material.Wood {
		t.Errorf("Peek right edge = %v, %v; want wood", m, ok)
	}
	if m, ok := p.Peek(grid.Point{X: 3, Y: 0}); !ok || m != material.Empty {
		t.Errorf("Peek right edge = %v, %v; want empty", m, ok)
	}
	if _, ok := p.Peek(grid.Point{X: -1, Y: 0}); ok {
		t.Error("Peek past an edge without a neighbor reported a cell")
	}
	if _, ok := p.Peek(grid.Point{X: 1, Y: 1}); ok {
		t.Error("Peek of a local cell reported a neighbor cell")
	}
}

func TestWorker_ClaimRejectsDuplicateDestination(t *testing.T) {
	w := newTestWorker(0, 0, 3, 3)
	pkt := Packet{Elem: material.New(material.Sand), Dest: grid.Point{X: 0, Y: 0}, Dir: grid.Right}
	if err := w.offer(pkt); err != nil {
		t.Fatalf("first offer: %v", err)
	}
	if err := w.offer(pkt); err != ErrDestinationClaimed {
		t.Errorf("second offer error = %v, want ErrDestinationClaimed", err)
	}

	w.Step()
	if err := w.offer(pkt); err != nil {
		t.Errorf("claim not released after landing: %v", err)
	}
}

func TestWorker_OfferFullInbox(t *testing.T) {
	w := New(Options{Width: 4, Height: 4, InboxCapacity: 1})
	if err := w.offer(Packet{Dest: grid.Point{X: 0, Y: 0}}); err != nil {
		t.Fatalf("first offer: %v", err)
	}
	if err := w.offer(Packet{Dest: grid.Point{X: 1, Y: 0}}); err != ErrQueueFull {
		t.Errorf("offer to full inbox = %v, want ErrQueueFull", err)
	}
	// The rejected packet must not leave a stale claim.
	if _, ok := w.claims.Load(grid.Point{X: 1, Y: 0}); ok {
		t.Error("claim kept for rejected packet")
	}
}

func TestWorker_RelayOnward(t *testing.T) {
	p, n := pair(4, 1)
	n.Tiles().Fill(0, 0, material.Wood)
	pkt := Packet{Elem: material.New(material.Sand), Source: p, From: grid.Point{X: 3, Y: 0}, Dest: grid.Point{X: 0, Y: 0}, Dir: grid.Right}
	pkt.Elem.Active = false
	if err := n.offer(pkt); err != nil {
		t.Fatal(err)
	}

	n.drain()

	if got := n.Tiles().At(1, 0); got.Material != material.Sand || !got.Active {
		t.Errorf("cell past the occupied destination = %v active=%v, want active sand", got.Material, got.Active)
	}
	if n.Counters().Relayed.Load() != 1 {
		t.Errorf("relayed = %d, want 1", n.Counters().Relayed.Load())
	}
}

func TestWorker_RelayBackToSender(t *testing.T) {
	p, n := pair(2, 1)
	n.Tiles().Fill(0, 0, material.Wood)
	n.Tiles().Fill(1, 0, material.Wood)
	pkt := Packet{Elem: material.New(material.Sand), Source: p, From: grid.Point{X: 1, Y: 0}, Dest: grid.Point{X: 0, Y: 0}, Dir: grid.Right}
	if err := n.offer(pkt); err != nil {
		t.Fatal(err)
	}

	n.drain()
	if n.InFlight() != 0 {
		t.Fatalf("receiver still holds %d packets", n.InFlight())
	}
	if p.InFlight() != 1 {
		t.Fatalf("sender inbox = %d packets, want 1", p.InFlight())
	}

	p.drain()
	if p.Tiles().At(1, 0).Material != material.Sand {
		t.Errorf("returned element not restored to its source cell")
	}
}

func TestWorker_ExhaustedPacketLandsNearby(t *testing.T) {
	w := newTestWorker(0, 0, 3, 3)
	w.Tiles().Fill(0, 0, material.Wood)
	pkt := Packet{Elem: material.New(material.Sand), Dest: grid.Point{X: 0, Y: 0}, Dir: grid.Right, Hops: w.opts.MaxRelayHops}
	w.resolve(pkt)

	counts := w.Tiles().Census()
	if counts[material.Sand] != 1 {
		t.Errorf("sand count = %d, want 1", counts[material.Sand])
	}
	if w.InFlight() != 0 {
		t.Errorf("packet still in flight")
	}
}

func TestWorker_HeldPacketRetries(t *testing.T) {
	w := newTestWorker(0, 0, 1, 1)
	w.Tiles().Fill(0, 0, material.Wood)
	pkt := Packet{Elem: material.New(material.Sand), Dest: grid.Point{X: 0, Y: 0}, Dir: grid.Bottom}
	w.resolve(pkt)
	if w.InFlight() != 1 {
		t.Fatalf("in flight = %d, want 1 held packet", w.InFlight())
	}

	w.Tiles().Fill(0, 0, material.Empty)
	w.drain()
	if w.Tiles().At(0, 0).Material != material.Sand {
		t.Error("held packet did not land once its destination freed")
	}
}

func TestWorker_ResizePreservesOverlap(t *testing.T) {
	w := newTestWorker(1, 2, 4, 4)
	w.Tiles().Fill(0, 0, material.Wood)
	w.Tiles().Fill(3, 3, material.Wood)

	w.RequestResize(6, 6)
	w.Step()

	if s := w.Size(); s != (Size{W: 6, H: 6}) {
		t.Fatalf("size = %+v, want 6x6", s)
	}
	if w.Offset() != (grid.Point{X: 12, Y: 6}) {
		t.Errorf("offset = %v, want (12,6)", w.Offset())
	}
	if w.Tiles().At(0, 0).Material != material.Wood || w.Tiles().At(3, 3).Material != material.Wood {
		t.Error("overlap not preserved")
	}
	if got := w.Tiles().Census()[material.Empty]; got != 34 {
		t.Errorf("empty cells = %d, want 34", got)
	}
}

func TestWorker_OffsetFollowsResizeWhileRunning(t *testing.T) {
	w := newTestWorker(1, 2, 4, 3)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	w.RequestResize(5, 2)
	want := grid.Point{X: 10, Y: 2}
	deadline := time.Now().Add(time.Second)
	for w.Offset() != want && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	if got := w.Offset(); got != want {
		t.Errorf("offset = %v, want %v", got, want)
	}
}

func TestWorker_ClearDiscardsQueues(t *testing.T) {
	w := newTestWorker(0, 0, 3, 3)
	w.Tiles().Fill(1, 1, material.Wood)
	w.offer(Packet{Elem: material.New(material.Sand), Dest: grid.Point{X: 0, Y: 0}})
	w.held = append(w.held, Packet{Elem: material.New(material.Water)})

	w.RequestClear()
	w.serviceClear()

	if got := w.Tiles().Census()[material.Empty]; got != 9 {
		t.Errorf("empty cells after clear = %d, want 9", got)
	}
	if w.InFlight() != 0 {
		t.Errorf("in flight after clear = %d", w.InFlight())
	}
}

func TestWorker_PlacementAppliedOnStep(t *testing.T) {
	w := newTestWorker(0, 0, 3, 3)
	if err := w.Place(grid.Point{X: 1, Y: 1}, material.Wood); err != nil {
		t.Fatal(err)
	}
	w.Place(grid.Point{X: 0, Y: 0}, material.Steam)
	w.Place(grid.Point{X: 9, Y: 9}, material.Wood)

	w.Step()

	if w.Tiles().At(1, 1).Material != material.Wood {
		t.Error("placement not applied")
	}
	if w.Tiles().At(0, 0).Material != material.Empty {
		t.Error("non-placeable material was placed")
	}
	if got := w.Counters().Placements.Load(); got != 1 {
		t.Errorf("placements = %d, want 1", got)
	}
}

type captureSurface struct {
	mu     sync.Mutex
	x0, y0 int
	w, h   int
	pix    []color.RGBA
}

func (c *captureSurface) Blit(x0, y0, w, h int, pix []color.RGBA) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.x0, c.y0, c.w, c.h = x0, y0, w, h
	c.pix = append(c.pix[:0], pix...)
	return nil
}

func TestWorker_ProjectsColors(t *testing.T) {
	surf := &captureSurface{}
	w := New(Options{Row: 1, Col: 1, Width: 2, Height: 2, Surface: surf})
	w.Tiles().Fill(1, 0, material.Wood)

	w.Step()

	if surf.x0 != 2 || surf.y0 != 2 || surf.w != 2 || surf.h != 2 {
		t.Fatalf("blit rect = (%d,%d %dx%d), want (2,2 2x2)", surf.x0, surf.y0, surf.w, surf.h)
	}
	if surf.pix[1] != material.Wood.Color() {
		t.Errorf("pixel (1,0) = %v, want wood color", surf.pix[1])
	}
	if surf.pix[0] != material.Empty.Color() {
		t.Errorf("pixel (0,0) = %v, want empty color", surf.pix[0])
	}
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	w := newTestWorker(0, 0, 4, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	if w.Counters().Ticks.Load() == 0 {
		t.Error("worker never ticked")
	}
}

func TestTryLockFor(t *testing.T) {
	var mu sync.Mutex
	if !TryLockFor(&mu, time.Millisecond) {
		t.Fatal("free mutex not acquired")
	}
	start := time.Now()
	if TryLockFor(&mu, 2*time.Millisecond) {
		t.Fatal("held mutex acquired")
	}
	if time.Since(start) < 2*time.Millisecond {
		t.Error("gave up before the timeout")
	}
	mu.Unlock()
}
