package engine

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pthm-cable/sandfall/config"
	"github.com/pthm-cable/sandfall/grid"
	"github.com/pthm-cable/sandfall/material"
)

// testConfig loads the defaults with a small 2x2 topology over a 16x16 grid.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `grid:
  width: 16
  height: 16
  worker_rows: 2
  worker_cols: 2
worker:
  tick_ms: 1
  lock_timeout_ms: 5
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	return cfg
}

func TestEngine_Topology(t *testing.T) {
	e := New(testConfig(t), 1, nil)

	if got := len(e.Workers()); got != 4 {
		t.Fatalf("workers = %d, want 4", got)
	}
	w := e.Worker(1, 1)
	if w.Offset().X != 8 || w.Offset().Y != 8 {
		t.Errorf("offset of r1c1 = %v, want (8,8)", w.Offset())
	}
	if e.Worker(2, 0) != nil || e.Worker(0, -1) != nil {
		t.Error("worker outside the topology should be nil")
	}

	// Each corner worker has exactly three neighbors in a 2x2 layout.
	for _, w := range e.Workers() {
		n := 0
		for _, d := range grid.Directions {
			if w.Neighbor(d) != nil {
				n++
			}
		}
		if n != 3 {
			t.Errorf("worker %s has %d neighbors, want 3", w.ID(), n)
		}
	}
}

func TestEngine_PlaceRoutesToOwner(t *testing.T) {
	e := New(testConfig(t), 1, nil)

	if err := e.Place(10, 3, material.Wood); err != nil {
		t.Fatalf("Place: %v", err)
	}
	e.Step()

	if got := e.Worker(0, 1).Tiles().At(2, 3).Material; got != material.Wood {
		t.Errorf("r0c1 local (2,3) = %v, want wood", got)
	}
	if got := e.Census().Counts[material.Wood]; got != 1 {
		t.Errorf("wood count = %d, want 1", got)
	}
}

func TestEngine_PlaceOutOfBounds(t *testing.T) {
	e := New(testConfig(t), 1, nil)

	for _, p := range [][2]int{{-1, 0}, {0, -1}, {16, 0}, {0, 16}} {
		if err := e.Place(p[0], p[1], material.Sand); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Place(%d,%d) error = %v, want ErrOutOfBounds", p[0], p[1], err)
		}
	}
}

func TestEngine_ConservationAcrossPartitions(t *testing.T) {
	e := New(testConfig(t), 7, nil)

	placed := 0
	for x := 0; x < 16; x++ {
		for y := 0; y < 4; y++ {
			m := material.Sand
			if (x+y)%3 == 0 {
				m = material.Water
			}
			if err := e.Place(x, y, m); err != nil {
				t.Fatalf("Place(%d,%d): %v", x, y, err)
			}
			placed++
		}
	}

	for i := 0; i < 300; i++ {
		e.Step()
		if got := e.Census().Particles(); got != placed {
			t.Fatalf("step %d: %d particles, want %d", i, got, placed)
		}
	}

	// Everything has fallen out of the top partitions' first rows.
	for _, w := range []int{0, 1} {
		tiles := e.Workers()[w].Tiles()
		for x := 0; x < tiles.Width(); x++ {
			if !tiles.IsEmpty(x, 0) {
				t.Errorf("worker %d still holds %v at (%d,0)", w, tiles.At(x, 0).Material, x)
			}
		}
	}
}

func TestEngine_ConcurrentRunConserves(t *testing.T) {
	e := New(testConfig(t), 3, nil)

	placed := 0
	for x := 2; x < 14; x++ {
		if err := e.Place(x, 0, material.Sand); err != nil {
			t.Fatal(err)
		}
		if err := e.Place(x, 1, material.Water); err != nil {
			t.Fatal(err)
		}
		placed += 2
	}

	e.Start(context.Background())
	if !e.Running() {
		t.Fatal("engine not running after Start")
	}
	time.Sleep(100 * time.Millisecond)
	e.Stop()

	if e.Running() {
		t.Fatal("engine still running after Stop")
	}
	if got := e.Census().Particles(); got != placed {
		t.Errorf("particles after concurrent run = %d, want %d", got, placed)
	}
	var ticks int64
	for _, s := range e.Samples() {
		ticks += s.Counters.Ticks
	}
	if ticks == 0 {
		t.Error("no ticks recorded")
	}
}

func TestEngine_StepIgnoredWhileRunning(t *testing.T) {
	e := New(testConfig(t), 1, nil)
	e.Start(context.Background())
	defer e.Stop()

	e.Step() // must not race with the worker goroutines
}

func TestEngine_Resize(t *testing.T) {
	e := New(testConfig(t), 1, nil)
	if err := e.Place(1, 1, material.Wood); err != nil {
		t.Fatal(err)
	}
	e.Step()

	e.Resize(24, 20)
	e.Step()

	if w, h := e.Size(); w != 24 || h != 20 {
		t.Errorf("size = %dx%d, want 24x20", w, h)
	}
	if w, h := e.Surface().Size(); w != 24 || h != 20 {
		t.Errorf("surface = %dx%d, want 24x20", w, h)
	}
	w := e.Worker(1, 1)
	if w.Tiles().Width() != 12 || w.Tiles().Height() != 10 {
		t.Errorf("partition = %dx%d, want 12x10", w.Tiles().Width(), w.Tiles().Height())
	}
	if w.Offset().X != 12 || w.Offset().Y != 10 {
		t.Errorf("offset = %v, want (12,10)", w.Offset())
	}
	if got := e.Worker(0, 0).Tiles().At(1, 1).Material; got != material.Wood {
		t.Errorf("wood lost across resize, cell holds %v", got)
	}
	if err := e.Place(23, 19, material.Wood); err != nil {
		t.Errorf("Place in grown area: %v", err)
	}
}

func TestEngine_Clear(t *testing.T) {
	e := New(testConfig(t), 1, nil)
	for x := 0; x < 16; x++ {
		if err := e.Place(x, 7, material.Sand); err != nil {
			t.Fatal(err)
		}
	}
	e.Step()
	e.Step() // some grains are now in flight across the row boundary

	e.Clear()
	e.Step()

	if got := e.Census().Particles(); got != 0 {
		t.Errorf("particles after clear = %d, want 0", got)
	}
}

func TestEngine_SurfaceShowsPlacement(t *testing.T) {
	e := New(testConfig(t), 1, nil)
	if err := e.Place(12, 12, material.Wood); err != nil {
		t.Fatal(err)
	}
	e.Step()

	if got := e.Surface().At(12, 12); got != material.Wood.Color() {
		t.Errorf("surface at (12,12) = %v, want wood color", got)
	}
	if got := e.Surface().At(0, 0); got != material.Empty.Color() {
		t.Errorf("surface at (0,0) = %v, want empty color", got)
	}
}

func TestSurface_BlitClips(t *testing.T) {
	s := NewSurface(4, 4, time.Millisecond)
	red := color.RGBA{R: 255, A: 255}
	pix := []color.RGBA{red, red, red, red}

	if err := s.Blit(3, 3, 2, 2, pix); err != nil {
		t.Fatalf("Blit: %v", err)
	}
	if s.At(3, 3) != red {
		t.Error("in-bounds pixel not written")
	}
	if s.At(2, 3) == red || s.At(3, 2) == red {
		t.Error("pixel outside the blit rectangle written")
	}

	snap, w, h := s.Snapshot(nil)
	if w != 4 || h != 4 || len(snap) != 16 {
		t.Fatalf("snapshot %dx%d len %d", w, h, len(snap))
	}
	if snap[15] != red {
		t.Error("snapshot missing blitted pixel")
	}
}

func TestSurface_BlitTimesOutWhileLocked(t *testing.T) {
	s := NewSurface(2, 2, 2*time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.Blit(0, 0, 1, 1, []color.RGBA{{}})
	if err == nil {
		t.Fatal("Blit succeeded while the surface was locked")
	}
}

func TestEngine_CaptureRestore(t *testing.T) {
	e := New(testConfig(t), 1, nil)
	for x := 4; x < 12; x++ {
		if err := e.Place(x, 10, material.Wood); err != nil {
			t.Fatal(err)
		}
	}
	e.Step()

	snap := e.Capture(1)
	if snap.Width != 16 || snap.Height != 16 {
		t.Fatalf("snapshot size %dx%d", snap.Width, snap.Height)
	}
	if snap.Census["wood"] != 8 {
		t.Errorf("captured wood = %d, want 8", snap.Census["wood"])
	}

	other := New(testConfig(t), 2, nil)
	if err := other.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	other.Step()

	if got := other.Census().Counts[material.Wood]; got != 8 {
		t.Errorf("restored wood = %d, want 8", got)
	}
	if got := other.Worker(1, 1).Tiles().At(3, 2).Material; got != material.Wood {
		t.Errorf("global (11,10) = %v, want wood", got)
	}
}
