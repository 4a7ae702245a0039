// Package game is the interactive viewer: it draws the engine's surface with
// raylib and turns mouse and keyboard input into placements.
package game

import (
	"context"
	"image/color"
	"log/slog"

	"github.com/pthm-cable/sandfall/brush"
	"github.com/pthm-cable/sandfall/camera"
	"github.com/pthm-cable/sandfall/config"
	"github.com/pthm-cable/sandfall/engine"
	"github.com/pthm-cable/sandfall/grid"
	"github.com/pthm-cable/sandfall/material"
	"github.com/pthm-cable/sandfall/renderer"
	"github.com/pthm-cable/sandfall/telemetry"
	"github.com/pthm-cable/sandfall/ui"
)

// Panel layout
const (
	panelX      = 10
	panelY      = 10
	panelWidth  = 260
	toggleH     = 24
	frameWindow = 120 // frames in the FPS rolling window
)

// Game holds the viewer state. The simulation itself runs on the engine's
// worker goroutines; the viewer only reads the surface and sends placements.
type Game struct {
	eng  *engine.Engine
	view *camera.Viewport
	log  *slog.Logger
	perf *telemetry.PerfCollector

	ctx context.Context

	tool      brush.Tool
	maxRadius int
	materials []material.Material // picker order
	selected  int32

	// Shift-drag line anchor, and the last painted cell of a freehand drag
	lineStart *grid.Point
	lastPaint *grid.Point

	grid    *renderer.GridRenderer
	pix     []color.RGBA
	hud     *ui.HUD
	workers *ui.WorkerPanel

	screenW, screenH int
	showHelp         bool
	showWorkers      bool
}

// NewGame creates the viewer and starts the engine. Must be called after the
// raylib window is open.
func NewGame(ctx context.Context, eng *engine.Engine, cfg *config.Config, logger *slog.Logger) *Game {
	g := &Game{
		eng:       eng,
		view:      camera.New(cfg.Screen.Width, cfg.Screen.Height, cfg.Screen.CellScale),
		log:       logger,
		perf:      telemetry.NewPerfCollector(frameWindow),
		ctx:       ctx,
		maxRadius: cfg.Brush.MaxRadius,
		materials: []material.Material{material.Sand, material.Water, material.Wood, material.Empty},
		screenW:   cfg.Screen.Width,
		screenH:   cfg.Screen.Height,
		showHelp:  true,
		grid:      renderer.NewGridRenderer(material.Empty.Color()),
		hud:       ui.NewHUD(),
		workers:   ui.NewWorkerPanel(int32(cfg.Screen.Width)-330, 10, 320),
	}

	m, ok := material.Parse(cfg.Brush.DefaultMaterial)
	if !ok || !m.Placeable() {
		logger.Warn("unknown brush material, using sand", "material", cfg.Brush.DefaultMaterial)
		m = material.Sand
	}
	g.tool = brush.Tool{Radius: cfg.Brush.Radius, Material: m}
	for i, pm := range g.materials {
		if pm == m {
			g.selected = int32(i)
		}
	}

	// Grid follows the window.
	w, h := g.view.GridSize()
	eng.Resize(w, h)
	g.grid.Init(w, h)

	eng.Start(ctx)
	return g
}

// Update handles one frame of input.
func (g *Game) Update() {
	g.perf.RecordFrame()
	g.handleInput()
}

// Unload stops the engine and frees GPU resources.
func (g *Game) Unload() {
	g.eng.Stop()
	g.grid.Unload()
}

// selectMaterial makes the picker entry i the brush material.
func (g *Game) selectMaterial(i int) {
	if i < 0 || i >= len(g.materials) {
		return
	}
	g.selected = int32(i)
	g.tool.Material = g.materials[i]
}

// togglePause stops or restarts the worker goroutines.
func (g *Game) togglePause() {
	if g.eng.Running() {
		g.eng.Stop()
		g.log.Info("paused")
		return
	}
	g.eng.Start(g.ctx)
	g.log.Info("resumed")
}

// paint places the brush along pts and logs placement back-pressure once per
// stroke.
func (g *Game) paint(pts []grid.Point) {
	if _, err := g.tool.Paint(g.eng, pts); err != nil {
		g.log.Debug("placement dropped", "error", err)
	}
}
