// Package engine wires workers into a grid topology, routes user placement
// to the owning partition, and manages the shared output surface and the
// workers' lifecycle.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pthm-cable/sandfall/config"
	"github.com/pthm-cable/sandfall/grid"
	"github.com/pthm-cable/sandfall/material"
	"github.com/pthm-cable/sandfall/telemetry"
	"github.com/pthm-cable/sandfall/worker"
)

var (
	ErrOutOfBounds = errors.New("engine: coordinate outside the tiled area")
	ErrBusy        = errors.New("engine: placement queue full")
)

// Engine owns the workers of one simulation.
type Engine struct {
	cfg  *config.Config
	log  *slog.Logger
	rows int
	cols int

	mu     sync.Mutex // guards the dimensions below
	width  int
	height int
	pw, ph int // partition size

	workers []*worker.Worker // row-major
	surface *Surface

	runMu   sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool

	collector *telemetry.Collector
	output    *telemetry.OutputManager
}

// New builds the worker topology described by cfg. seed makes runs repeatable.
func New(cfg *config.Config, seed uint64, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	d := cfg.Derived
	e := &Engine{
		cfg:     cfg,
		log:     logger,
		rows:    cfg.Grid.WorkerRows,
		cols:    cfg.Grid.WorkerCols,
		width:   d.GridW,
		height:  d.GridH,
		pw:      d.PartitionW,
		ph:      d.PartitionH,
		surface: NewSurface(d.GridW, d.GridH, d.LockTimeout),
	}

	e.workers = make([]*worker.Worker, e.rows*e.cols)
	for r := 0; r < e.rows; r++ {
		for c := 0; c < e.cols; c++ {
			e.workers[r*e.cols+c] = worker.New(worker.Options{
				Row:               r,
				Col:               c,
				Width:             e.pw,
				Height:            e.ph,
				Seed:              seed,
				TickInterval:      d.TickInterval,
				LockTimeout:       d.LockTimeout,
				InboxCapacity:     cfg.Worker.InboxCapacity,
				PlacementCapacity: cfg.Worker.PlacementCapacity,
				MaxRelayHops:      cfg.Worker.MaxRelayHops,
				PerfWindow:        cfg.Telemetry.PerfWindowTicks,
				Surface:           e.surface,
				Logger:            logger,
			})
		}
	}
	e.link()

	logger.Info("engine created",
		"width", e.width, "height", e.height,
		"workers", len(e.workers), "partition_w", e.pw, "partition_h", e.ph)
	return e
}

// link connects every worker to its eight neighbors. Runs once, before any
// worker goroutine starts.
func (e *Engine) link() {
	for r := 0; r < e.rows; r++ {
		for c := 0; c < e.cols; c++ {
			w := e.Worker(r, c)
			for _, d := range grid.Directions {
				dx, dy := d.Offset()
				if n := e.Worker(r+dy, c+dx); n != nil {
					w.SetNeighbor(d, n)
				}
			}
		}
	}
}

// SetOutput enables CSV telemetry output. Call before Start.
func (e *Engine) SetOutput(om *telemetry.OutputManager) {
	e.output = om
}

// Worker returns the worker at (row, col), or nil outside the topology.
func (e *Engine) Worker(row, col int) *worker.Worker {
	if row < 0 || row >= e.rows || col < 0 || col >= e.cols {
		return nil
	}
	return e.workers[row*e.cols+col]
}

// Workers returns all workers in row-major order.
func (e *Engine) Workers() []*worker.Worker { return e.workers }

// Surface returns the shared output surface.
func (e *Engine) Surface() *Surface { return e.surface }

// Size returns the grid size in cells.
func (e *Engine) Size() (w, h int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.width, e.height
}

// Start launches one goroutine per worker plus the telemetry coordinator.
func (e *Engine) Start(ctx context.Context) {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.running {
		return
	}
	ctx, e.cancel = context.WithCancel(ctx)
	e.running = true

	for _, w := range e.workers {
		e.wg.Add(1)
		go func(w *worker.Worker) {
			defer e.wg.Done()
			w.Run(ctx)
		}(w)
	}

	e.collector = telemetry.NewCollector(e.cfg.Derived.StatsWindow, time.Now())
	e.wg.Add(1)
	go e.coordinate(ctx)

	e.log.Info("engine started", "workers", len(e.workers), "tick", e.cfg.Derived.TickInterval)
}

// Stop signals every worker to finish its current tick and waits until all
// have exited.
func (e *Engine) Stop() {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if !e.running {
		return
	}
	e.cancel()
	e.wg.Wait()
	e.running = false
	e.flush(time.Now())
	e.log.Info("engine stopped")
}

// Running reports whether worker goroutines are active.
func (e *Engine) Running() bool {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.running
}

// Step ticks every worker once, in row-major order, on the calling
// goroutine. Used for headless runs and tests; a no-op while running.
func (e *Engine) Step() {
	if e.Running() {
		e.log.Warn("step ignored while workers are running")
		return
	}
	for _, w := range e.workers {
		w.Step()
	}
}

// Place assigns material m to the global cell (x, y). The owning worker
// applies it on its next tick.
func (e *Engine) Place(x, y int, m material.Material) error {
	e.mu.Lock()
	pw, ph := e.pw, e.ph
	e.mu.Unlock()

	if x < 0 || y < 0 || pw == 0 || ph == 0 {
		return ErrOutOfBounds
	}
	col, row := x/pw, y/ph
	w := e.Worker(row, col)
	if w == nil {
		return ErrOutOfBounds
	}
	local := grid.Point{X: x - col*pw, Y: y - row*ph}
	if err := w.Place(local, m); err != nil {
		return fmt.Errorf("%w: worker %s: %v", ErrBusy, w.ID(), err)
	}
	return nil
}

// Resize changes the grid to width x height cells. Each worker adopts its
// new partition size on its next tick.
func (e *Engine) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	e.mu.Lock()
	if width == e.width && height == e.height {
		e.mu.Unlock()
		return
	}
	e.width, e.height = width, height
	e.pw, e.ph = width/e.cols, height/e.rows
	pw, ph := e.pw, e.ph
	e.mu.Unlock()

	e.surface.Resize(width, height)
	for _, w := range e.workers {
		w.RequestResize(pw, ph)
	}
	e.log.Info("grid resized", "width", width, "height", height, "partition_w", pw, "partition_h", ph)
}

// Clear empties every partition on each worker's next tick.
func (e *Engine) Clear() {
	for _, w := range e.workers {
		w.RequestClear()
	}
	e.log.Info("grid cleared")
}

// Census counts particles per material plus packets in flight.
type Census struct {
	Counts   []int // indexed by material tag
	InFlight int
}

// Particles returns the number of non-Empty elements, including those in flight.
func (c Census) Particles() int {
	n := c.InFlight
	for m, count := range c.Counts {
		if material.Material(m) != material.Empty {
			n += count
		}
	}
	return n
}

// Census tallies every partition. Only valid while the engine is stopped.
func (e *Engine) Census() Census {
	c := Census{Counts: make([]int, len(material.All()))}
	for _, w := range e.workers {
		for m, n := range w.Tiles().Census() {
			c.Counts[m] += n
		}
		c.InFlight += w.InFlight()
	}
	return c
}

// Samples reads every worker's counters and timing.
func (e *Engine) Samples() []telemetry.WorkerSample {
	out := make([]telemetry.WorkerSample, 0, len(e.workers))
	for _, w := range e.workers {
		out = append(out, telemetry.WorkerSample{
			ID:       w.ID(),
			Counters: w.Counters().Snapshot(),
			Perf:     w.Perf(),
		})
	}
	return out
}

// coordinate periodically aggregates worker telemetry. It plays no part in
// the simulation itself.
func (e *Engine) coordinate(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if e.collector.ShouldFlush(now) {
				e.flush(now)
			}
		}
	}
}

// flush closes the current telemetry window, logging it and writing CSV rows.
func (e *Engine) flush(now time.Time) {
	if e.collector == nil {
		return
	}
	samples := e.Samples()
	stats := e.collector.Flush(now, samples)
	stats.LogStats(e.log)
	for _, sm := range samples {
		sm.Perf.LogStats(e.log.With("worker", sm.ID))
	}
	if err := e.output.WriteWindow(stats); err != nil {
		e.log.Error("failed to write window stats", "error", err)
	}
	if err := e.output.WritePerf(stats.Window, samples); err != nil {
		e.log.Error("failed to write perf stats", "error", err)
	}
}

// FlushTelemetry closes the current window on demand, for headless runs
// driven by Step.
func (e *Engine) FlushTelemetry() {
	if e.collector == nil {
		e.collector = telemetry.NewCollector(e.cfg.Derived.StatsWindow, time.Now())
		return
	}
	e.flush(time.Now())
}

// Capture records the material layout of the whole grid. Only valid while
// the engine is stopped.
func (e *Engine) Capture(seed uint64) *telemetry.Snapshot {
	width, height := e.Size()
	snap := telemetry.NewSnapshot(width, height)
	snap.Seed = seed
	var ticks int64
	for _, w := range e.workers {
		ticks = max(ticks, w.Counters().Ticks.Load())
	}
	snap.Tick = ticks
	snap.Encode(func(x, y int) material.Material {
		w, local := e.owner(x, y)
		if w == nil {
			return material.Empty
		}
		return w.Tiles().At(local.X, local.Y).Material
	})
	return snap
}

// Restore resizes the grid to the snapshot and queues every non-Empty cell
// as a placement. The layout appears on the next tick.
func (e *Engine) Restore(snap *telemetry.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	e.Clear()
	e.Resize(snap.Width, snap.Height)
	for y := 0; y < snap.Height; y++ {
		for x := 0; x < snap.Width; x++ {
			m := snap.At(x, y)
			if m == material.Empty {
				continue
			}
			if err := e.Place(x, y, m); err != nil && !errors.Is(err, ErrOutOfBounds) {
				return fmt.Errorf("restoring (%d,%d): %w", x, y, err)
			}
		}
	}
	e.log.Info("snapshot restored", "width", snap.Width, "height", snap.Height, "tick", snap.Tick)
	return nil
}

// owner returns the worker holding global cell (x, y) and the local point.
func (e *Engine) owner(x, y int) (*worker.Worker, grid.Point) {
	for _, w := range e.workers {
		off := w.Offset()
		if w.Tiles().InBounds(x-off.X, y-off.Y) {
			return w, grid.Point{X: x - off.X, Y: y - off.Y}
		}
	}
	return nil, grid.Point{}
}
