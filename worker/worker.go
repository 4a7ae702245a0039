// Package worker runs one partition of the grid. Each worker owns its cells
// outright, ticks on its own timer, and trades particles with up to eight
// neighbors through packet inboxes.
package worker

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pthm-cable/sandfall/grid"
	"github.com/pthm-cable/sandfall/material"
	"github.com/pthm-cable/sandfall/physics"
	"github.com/pthm-cable/sandfall/telemetry"
)

var (
	ErrNoNeighbor         = errors.New("worker: no neighbor in that direction")
	ErrQueueFull          = errors.New("worker: queue full")
	ErrDestinationClaimed = errors.New("worker: destination already claimed")
	ErrLockUnavailable    = errors.New("worker: lock unavailable")
)

// Surface receives a worker's projected colors. Blit copies a w x h block of
// row-major pixels to (x0, y0) and may fail with ErrLockUnavailable.
type Surface interface {
	Blit(x0, y0, w, h int, pix []color.RGBA) error
}

// Options configures a worker.
type Options struct {
	Row, Col          int // position in the worker topology
	Width, Height     int // initial partition size in cells
	Seed              uint64
	TickInterval      time.Duration
	LockTimeout       time.Duration
	InboxCapacity     int
	PlacementCapacity int
	MaxRelayHops      int
	PerfWindow        int
	Surface           Surface // nil disables projection
	Logger            *slog.Logger
}

// Size is a partition's dimensions in cells.
type Size struct {
	W, H int
}

// Placement is a user request to assign a material to a local cell.
type Placement struct {
	At       grid.Point
	Material material.Material
}

// Worker owns one partition and everything needed to advance it.
type Worker struct {
	id   string
	row  int
	col  int
	opts Options
	log  *slog.Logger

	// Owner-only state, touched by the goroutine running Step.
	tiles  *grid.TileSet
	sim    physics.Sim
	cols   []int
	held   []Packet
	batch  []Packet
	pix    []color.RGBA

	neighbors [grid.TopLeft + 1]*Worker // indexed by grid.Direction; fixed before Run

	inbox      chan Packet
	claims     sync.Map // grid.Point -> struct{}, destinations of queued packets
	placements chan Placement

	size   atomic.Pointer[Size]
	offset atomic.Pointer[grid.Point]
	border atomic.Pointer[grid.Border]

	resizeMu      sync.Mutex
	pendingResize *Size
	resizeFlag    atomic.Bool
	clearFlag     atomic.Bool

	perf     *telemetry.PerfCollector
	counters telemetry.Counters
}

// New creates a worker with an Empty partition.
func New(opts Options) *Worker {
	if opts.InboxCapacity < 1 {
		opts.InboxCapacity = 1024
	}
	if opts.PlacementCapacity < 1 {
		opts.PlacementCapacity = 4096
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 33 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := fmt.Sprintf("r%dc%d", opts.Row, opts.Col)

	w := &Worker{
		id:         id,
		row:        opts.Row,
		col:        opts.Col,
		opts:       opts,
		log:        logger.With("worker", id),
		tiles:      grid.New(opts.Width, opts.Height),
		inbox:      make(chan Packet, opts.InboxCapacity),
		placements: make(chan Placement, opts.PlacementCapacity),
		perf:       telemetry.NewPerfCollector(opts.PerfWindow),
	}
	w.sim = physics.Sim{
		Grid:     w.tiles,
		Exchange: w,
		Rand:     rand.New(rand.NewPCG(opts.Seed, uint64(opts.Row)<<32|uint64(opts.Col))),
	}
	w.offset.Store(&grid.Point{X: opts.Col * w.tiles.Width(), Y: opts.Row * w.tiles.Height()})
	w.size.Store(&Size{W: w.tiles.Width(), H: w.tiles.Height()})
	w.publish()
	return w
}

// ID returns the worker's name, "r<row>c<col>".
func (w *Worker) ID() string { return w.id }

// Row returns the worker's row in the topology.
func (w *Worker) Row() int { return w.row }

// Col returns the worker's column in the topology.
func (w *Worker) Col() int { return w.col }

// Size returns the partition size most recently adopted.
func (w *Worker) Size() Size { return *w.size.Load() }

// Border returns the edge snapshot published after the last tick.
func (w *Worker) Border() *grid.Border { return w.border.Load() }

// Tiles exposes the partition. Only safe from the owner or while stopped.
func (w *Worker) Tiles() *grid.TileSet { return w.tiles }

// Offset returns the partition's top-left cell in the global grid, as of the
// last adopted resize. Safe from any goroutine.
func (w *Worker) Offset() grid.Point { return *w.offset.Load() }

// Counters returns the worker's event counters.
func (w *Worker) Counters() *telemetry.Counters { return &w.counters }

// Perf returns timing statistics over the recent ticks.
func (w *Worker) Perf() telemetry.PerfStats { return w.perf.Stats() }

// Neighbor returns the worker in direction d, or nil.
func (w *Worker) Neighbor(d grid.Direction) *Worker { return w.neighbors[d] }

// SetNeighbor links n in direction d. Must be called before Run.
func (w *Worker) SetNeighbor(d grid.Direction, n *Worker) {
	w.neighbors[d] = n
}

// InFlight counts packets this worker holds that have not yet landed.
// Only meaningful while the worker is stopped.
func (w *Worker) InFlight() int { return len(w.inbox) + len(w.held) }

// Place queues a material assignment for a local cell. It is applied at the
// start of the worker's next tick.
func (w *Worker) Place(at grid.Point, m material.Material) error {
	select {
	case w.placements <- Placement{At: at, Material: m}:
		return nil
	default:
		return ErrQueueFull
	}
}

// RequestResize asks the worker to adopt a new partition size on its next tick.
func (w *Worker) RequestResize(width, height int) {
	w.resizeMu.Lock()
	w.pendingResize = &Size{W: max(width, 0), H: max(height, 0)}
	w.resizeMu.Unlock()
	w.resizeFlag.Store(true)
}

// RequestClear asks the worker to empty its partition on its next tick.
func (w *Worker) RequestClear() {
	w.clearFlag.Store(true)
}

// Run ticks the worker on its own timer until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.opts.TickInterval)
	defer ticker.Stop()

	w.log.Debug("worker started", "width", w.tiles.Width(), "height", w.tiles.Height())
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("worker stopped", "ticks", w.sim.Tick, "in_flight", len(w.held))
			return
		case <-ticker.C:
			w.Step()
		}
	}
}

// Step runs one tick: drain inbound packets, service resize and clear
// requests, apply placements, simulate, and project to the surface.
func (w *Worker) Step() {
	w.sim.Tick++
	w.perf.StartTick()

	w.perf.StartPhase(telemetry.PhaseDrain)
	w.drain()

	w.perf.StartPhase(telemetry.PhaseResize)
	w.serviceResize()

	w.perf.StartPhase(telemetry.PhaseClear)
	w.serviceClear()

	w.perf.StartPhase(telemetry.PhasePlace)
	w.applyPlacements()

	w.perf.StartPhase(telemetry.PhaseSimulate)
	var moves int
	w.cols, moves = physics.Simulate(&w.sim, w.cols)
	w.counters.Moves.Add(int64(moves))

	w.perf.StartPhase(telemetry.PhaseProject)
	w.project()
	w.publish()

	w.perf.EndTick()
	w.counters.Ticks.Add(1)
}

func (w *Worker) serviceResize() {
	if !w.resizeFlag.Load() {
		return
	}
	if !TryLockFor(&w.resizeMu, w.opts.LockTimeout) {
		w.counters.Deferred.Add(1)
		return
	}
	req := w.pendingResize
	w.pendingResize = nil
	w.resizeFlag.Store(false)
	w.resizeMu.Unlock()
	if req == nil {
		return
	}

	w.tiles.Resize(req.W, req.H)
	off := grid.Point{X: w.col * req.W, Y: w.row * req.H}
	w.offset.Store(&off)
	w.size.Store(&Size{W: req.W, H: req.H})
	w.log.Debug("partition resized", "width", req.W, "height", req.H, "offset_x", off.X, "offset_y", off.Y)
}

func (w *Worker) serviceClear() {
	if !w.clearFlag.Swap(false) {
		return
	}
	w.tiles.Clear()
	for n := len(w.inbox); n > 0; n-- {
		<-w.inbox
	}
	w.held = w.held[:0]
	w.claims.Range(func(k, _ any) bool {
		w.claims.Delete(k)
		return true
	})
	w.log.Debug("partition cleared")
}

func (w *Worker) applyPlacements() {
	for n := len(w.placements); n > 0; n-- {
		p := <-w.placements
		if !p.Material.Placeable() {
			continue
		}
		if w.tiles.Fill(p.At.X, p.At.Y, p.Material) {
			w.counters.Placements.Add(1)
		}
	}
}

// project copies the partition's colors into its rectangle of the surface.
// Skipped while a resize is pending so stale dimensions are never drawn.
func (w *Worker) project() {
	if w.opts.Surface == nil || w.resizeFlag.Load() {
		return
	}
	pw, ph := w.tiles.Width(), w.tiles.Height()
	if cap(w.pix) < pw*ph {
		w.pix = make([]color.RGBA, pw*ph)
	}
	w.pix = w.pix[:pw*ph]
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			w.pix[y*pw+x] = w.tiles.At(x, y).Material.Color()
		}
	}
	off := w.Offset()
	if err := w.opts.Surface.Blit(off.X, off.Y, pw, ph, w.pix); err != nil {
		w.counters.Deferred.Add(1)
	}
}

func (w *Worker) publish() {
	w.border.Store(grid.Snapshot(w.tiles))
}

// TryLockFor polls mu.TryLock until it succeeds or timeout elapses.
func TryLockFor(mu interface{ TryLock() bool }, timeout time.Duration) bool {
	if mu.TryLock() {
		return true
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		time.Sleep(50 * time.Microsecond)
		if mu.TryLock() {
			return true
		}
	}
	return false
}
