package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sandfall/telemetry"
)

// HUDData holds all the data needed to render the status line.
type HUDData struct {
	FPS          int
	GridW, GridH int
	Workers      int
	Zoom         float32
	Paused       bool
	Material     string
	Radius       int
	ScreenHeight int32
}

// HUD renders the status line and key legend at the bottom of the screen.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	y := data.ScreenHeight - 44
	rl.DrawText(fmt.Sprintf("FPS %d | grid %dx%d | workers %d | zoom %.1fx | %s r=%d",
		data.FPS, data.GridW, data.GridH, data.Workers, data.Zoom, data.Material, data.Radius),
		10, y, 14, rl.RayWhite)
	if data.Paused {
		rl.DrawText("PAUSED", 10, y-20, 16, h.renderer.Theme.SectionHeader)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-22, 12, rl.Gray)
}

// WorkerPanel lists per-worker tick timing and exchange counters.
type WorkerPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewWorkerPanel creates a worker panel anchored at (x, y).
func NewWorkerPanel(x, y, width int32) *WorkerPanel {
	return &WorkerPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (p *WorkerPanel) SetPosition(x, y int32) {
	p.x, p.y = x, y
}

// Draw renders one row per worker and a phase breakdown averaged over all.
func (p *WorkerPanel) Draw(samples []telemetry.WorkerSample) {
	r := p.renderer
	th := r.Theme
	height := th.Padding*2 + th.LineHeight*int32(len(samples)+9)
	r.DrawPanel(p.x, p.y, p.width, height)

	x := p.x + th.Padding
	y := r.DrawSectionHeader(x, p.y+th.Padding, "Workers")

	var mean float64
	for _, s := range samples {
		mean += float64(s.Perf.AvgTickDuration.Microseconds())
	}
	if len(samples) > 0 {
		mean /= float64(len(samples))
	}

	phases := make(map[string]float64)
	for _, s := range samples {
		color := th.ValueColor
		us := float64(s.Perf.AvgTickDuration.Microseconds())
		switch {
		case mean > 0 && us > 2*mean:
			color = th.HotColor
		case mean > 0 && us > 1.3*mean:
			color = th.WarnColor
		}
		rl.DrawText(WorkerRow(s), x, y, th.FontSize, color)
		y += th.LineHeight
		for phase, pct := range s.Perf.PhasePct {
			phases[phase] += pct / float64(len(samples))
		}
	}

	y = r.DrawSectionHeader(x, y+4, "Tick phases")
	for _, phase := range []string{
		telemetry.PhaseDrain, telemetry.PhaseResize, telemetry.PhaseClear,
		telemetry.PhasePlace, telemetry.PhaseSimulate, telemetry.PhaseProject,
	} {
		y = r.DrawBar(x, y, phase, phases[phase], p.width-2*th.Padding)
	}
}

// WorkerRow formats one worker's line in the panel.
func WorkerRow(s telemetry.WorkerSample) string {
	c := s.Counters
	return fmt.Sprintf("%-5s %5dus %4.0f/s  out %-6d in %-6d wait %d",
		s.ID, s.Perf.AvgTickDuration.Microseconds(), s.Perf.TicksPerSecond,
		c.HandoffsSent, c.Landed, c.Retained)
}
