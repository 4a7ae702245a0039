package game

import (
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sandfall/brush"
	"github.com/pthm-cable/sandfall/grid"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		g.togglePause()
	}
	if rl.IsKeyPressed(rl.KeyH) {
		g.showHelp = !g.showHelp
	}
	if rl.IsKeyPressed(rl.KeyP) {
		g.showWorkers = !g.showWorkers
	}
	if rl.IsKeyPressed(rl.KeyC) {
		g.eng.Clear()
	}

	// Material hotkeys 1-4 follow the picker order.
	for i := range g.materials {
		if rl.IsKeyPressed(int32(rl.KeyOne) + int32(i)) {
			g.selectMaterial(i)
		}
	}

	// Brush radius with [ and ]
	if rl.IsKeyPressed(rl.KeyLeftBracket) && g.tool.Radius > 0 {
		g.tool.Radius--
	}
	if rl.IsKeyPressed(rl.KeyRightBracket) && g.tool.Radius < g.maxRadius {
		g.tool.Radius++
	}

	g.handleViewInput()
	g.handleBrush()
}

// handleResize regrows the grid to fill a resized window.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w, h := rl.GetScreenWidth(), rl.GetScreenHeight()
	if w == g.screenW && h == g.screenH {
		return
	}
	g.screenW, g.screenH = w, h

	gw, gh := g.view.Resize(w, h)
	g.eng.Resize(gw, gh)
	g.grid.Init(gw, gh)
	g.workers.SetPosition(int32(w)-330, 10)
}

// handleViewInput processes pan and zoom controls.
func (g *Game) handleViewInput() {
	mouse := rl.GetMousePosition()

	if wheel := rl.GetMouseWheelMove(); wheel != 0 && !g.overPanel(mouse) {
		// Zoom toward the cursor
		g.view.ZoomAt(mouse.X, mouse.Y, 1+wheel*0.1)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		g.view.Pan(-d.X, -d.Y)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		g.view.Reset()
	}
}

// handleBrush paints with the left mouse button. Holding shift draws a
// straight line from the press point to the release point.
func (g *Game) handleBrush() {
	mouse := rl.GetMousePosition()
	gx, gy, _ := g.view.ScreenToGrid(mouse.X, mouse.Y)
	cur := grid.Point{X: gx, Y: gy}
	shift := rl.IsKeyDown(rl.KeyLeftShift) || rl.IsKeyDown(rl.KeyRightShift)

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		if g.overPanel(mouse) {
			return
		}
		if shift {
			g.lineStart = &cur
			return
		}
		g.paint(brush.Circle(cur.X, cur.Y, g.tool.Radius))
		g.lastPaint = &cur
		return
	}

	if rl.IsMouseButtonReleased(rl.MouseButtonLeft) {
		if g.lineStart != nil {
			g.paint(brush.Stroke(*g.lineStart, cur, g.tool.Radius))
		}
		g.lineStart, g.lastPaint = nil, nil
		return
	}

	if rl.IsMouseButtonDown(rl.MouseButtonLeft) && g.lastPaint != nil && *g.lastPaint != cur {
		// Fill the gap left by a fast drag.
		g.paint(brush.Stroke(*g.lastPaint, cur, g.tool.Radius))
		g.lastPaint = &cur
	}
}

// overPanel reports whether a screen position is over the control panel.
func (g *Game) overPanel(p rl.Vector2) bool {
	return rl.CheckCollisionPointRec(p, g.panelBounds())
}

func (g *Game) panelBounds() rl.Rectangle {
	return rl.Rectangle{X: panelX, Y: panelY, Width: panelWidth, Height: 150}
}

// pickerText is the raygui toggle group label: entries separated by ';'.
func (g *Game) pickerText() string {
	names := make([]string, len(g.materials))
	for i, m := range g.materials {
		names[i] = m.String()
	}
	return strings.Join(names, ";")
}
