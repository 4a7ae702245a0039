package engine

import "github.com/pthm-cable/sandfall/material"

// TerrainCells generates a noise terrain for a width x height grid:
//
//  1. Dunes: 1D noise along X fills the bottom 15-35% with sand.
//  2. Ledges: 2D noise above a threshold places wood in the middle band.
//  3. Pools: water fills dune hollows below the mean dune line.
//  4. Caves: a second 2D pass carves holes through the dunes.
//
// The result is indexed [x][y]; Empty cells are left unset.
func TerrainCells(width, height int, seed uint64) [][]material.Material {
	cells := make([][]material.Material, width)
	for x := range cells {
		cells[x] = make([]material.Material, height)
	}
	if width == 0 || height == 0 {
		return cells
	}
	noise := newPerlin(seed)

	// Dunes
	const duneScale = 0.04
	surface := make([]int, width)
	meanTop := 0
	for x := 0; x < width; x++ {
		n := noise.noise2D(float64(x)*duneScale, 0.5)
		ratio := 0.25 + n*0.10
		top := height - int(float64(height)*ratio)
		top = min(max(top, 1), height-1)
		surface[x] = top
		meanTop += top
		for y := top; y < height; y++ {
			cells[x][y] = material.Sand
		}
	}
	meanTop /= width

	// Ledges in the band between a fifth and a half of the height
	const ledgeScale = 0.08
	const ledgeThreshold = 0.45
	for x := 0; x < width; x++ {
		for y := height / 5; y < height/2; y++ {
			if noise.noise2D(float64(x)*ledgeScale+50, float64(y)*ledgeScale*3+50) > ledgeThreshold {
				cells[x][y] = material.Wood
			}
		}
	}

	// Pools
	for x := 0; x < width; x++ {
		for y := meanTop; y < surface[x]; y++ {
			cells[x][y] = material.Water
		}
	}

	// Caves
	const caveScale = 0.1
	const caveThreshold = 0.5
	for x := 0; x < width; x++ {
		for y := surface[x] + 2; y < height; y++ {
			if noise.noise2D(float64(x)*caveScale+300, float64(y)*caveScale+300) > caveThreshold {
				cells[x][y] = material.Empty
			}
		}
	}
	return cells
}

// SeedTerrain queues a generated terrain (see TerrainCells) over the current
// grid. Returns the number of queued placements.
func (e *Engine) SeedTerrain(seed uint64) int {
	w, h := e.Size()
	cells := TerrainCells(w, h, seed)
	placed := 0
	for x, col := range cells {
		for y, m := range col {
			if m == material.Empty {
				continue
			}
			if err := e.Place(x, y, m); err != nil {
				e.log.Debug("terrain placement skipped", "x", x, "y", y, "error", err)
				continue
			}
			placed++
		}
	}
	return placed
}
