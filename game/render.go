package game

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sandfall/ui"
)

const controlsLegend = "LMB paint  shift+drag line  RMB pan  wheel zoom  1-4 material  [ ] radius  C clear  space pause  P workers  H help"

// Draw renders the grid and the controls.
func (g *Game) Draw() {
	rl.BeginDrawing()
	defer rl.EndDrawing()
	rl.ClearBackground(rl.Black)

	g.drawGrid()
	g.drawBrushPreview()
	g.drawPanel()
	if g.showWorkers {
		g.workers.Draw(g.eng.Samples())
	}
	if g.showHelp {
		w, h := g.eng.Size()
		g.hud.Draw(ui.HUDData{
			FPS:          int(g.perf.Stats().FPS),
			GridW:        w,
			GridH:        h,
			Workers:      len(g.eng.Workers()),
			Zoom:         g.view.Zoom,
			Paused:       !g.eng.Running(),
			Material:     g.tool.Material.String(),
			Radius:       g.tool.Radius,
			ScreenHeight: int32(g.screenH),
		})
		g.hud.DrawControls(int32(g.screenH), controlsLegend)
	}
}

// drawGrid uploads the latest surface snapshot and draws the visible part.
func (g *Game) drawGrid() {
	var w, h int
	g.pix, w, h = g.eng.Surface().Snapshot(g.pix)
	// The surface can change size between the snapshot and this frame's
	// resize; keep the previous texture until they agree.
	g.grid.Update(g.pix, w, h)

	x, y, vw, vh := g.view.Visible()
	cs := g.view.CellSize()
	src := rl.Rectangle{X: x, Y: y, Width: vw, Height: vh}
	dst := rl.Rectangle{X: 0, Y: 0, Width: vw * cs, Height: vh * cs}
	g.grid.Draw(src, dst)
}

// drawBrushPreview outlines the brush under the cursor and the pending line.
func (g *Game) drawBrushPreview() {
	mouse := rl.GetMousePosition()
	if g.overPanel(mouse) {
		return
	}
	cs := g.view.CellSize()
	radius := (float32(g.tool.Radius) + 0.5) * cs
	outline := rl.Color{R: 255, G: 255, B: 255, A: 160}
	rl.DrawCircleLines(int32(mouse.X), int32(mouse.Y), radius, outline)

	if g.lineStart != nil {
		sx, sy := g.view.GridToScreen(g.lineStart.X, g.lineStart.Y)
		start := rl.Vector2{X: sx + cs/2, Y: sy + cs/2}
		rl.DrawLineV(start, mouse, outline)
	}
}

// drawPanel draws the material picker, radius slider and buttons.
func (g *Game) drawPanel() {
	bounds := g.panelBounds()
	rl.DrawRectangleRec(bounds, rl.Color{R: 20, G: 20, B: 20, A: 200})

	x := bounds.X + 10
	y := bounds.Y + 10

	// Material picker
	entryW := (bounds.Width - 20) / float32(len(g.materials))
	active := gui.ToggleGroup(rl.Rectangle{X: x, Y: y, Width: entryW, Height: toggleH}, g.pickerText(), g.selected)
	if active != g.selected {
		g.selectMaterial(int(active))
	}
	y += toggleH + 16

	// Brush radius slider
	rl.DrawText("Brush radius", int32(x), int32(y), 12, rl.LightGray)
	y += 16
	newRadius := gui.SliderBar(
		rl.Rectangle{X: x + 10, Y: y, Width: bounds.Width - 80, Height: 18},
		"0", fmt.Sprintf("%d", g.maxRadius),
		float32(g.tool.Radius), 0, float32(g.maxRadius),
	)
	g.tool.Radius = int(newRadius + 0.5)
	rl.DrawText(fmt.Sprintf("%d", g.tool.Radius), int32(x+bounds.Width-50), int32(y+2), 14, rl.LightGray)
	y += 30

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 110, Height: 28}, "Clear") {
		g.eng.Clear()
	}
	label := "Pause"
	if !g.eng.Running() {
		label = "Resume"
	}
	if gui.Button(rl.Rectangle{X: x + 120, Y: y, Width: 110, Height: 28}, label) {
		g.togglePause()
	}
}
