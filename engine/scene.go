package engine

import "github.com/pthm-cable/sandfall/material"

// SeedDemo queues a demo scene: a column of sand above a wood shelf and a
// pool of water along the floor. Returns the number of queued placements.
func (e *Engine) SeedDemo() int {
	w, h := e.Size()
	placed := 0
	place := func(x, y int, m material.Material) {
		if err := e.Place(x, y, m); err != nil {
			e.log.Debug("seed placement skipped", "x", x, "y", y, "error", err)
			return
		}
		placed++
	}

	shelfY := h / 2
	for x := w / 4; x < w/2; x++ {
		place(x, shelfY, material.Wood)
	}
	for y := h - h/5; y < h; y++ {
		for x := 0; x < w; x += 2 {
			place(x, y, material.Water)
		}
	}
	for y := 0; y < h/4; y++ {
		for x := w/3 - 3; x <= w/3+3; x++ {
			place(x, y, material.Sand)
		}
	}
	return placed
}
