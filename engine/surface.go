package engine

import (
	"image/color"
	"sync"
	"time"

	"github.com/pthm-cable/sandfall/material"
	"github.com/pthm-cable/sandfall/worker"
)

// Surface is the shared output image: one color per grid cell, row-major.
// Workers blit their partitions into it; viewers take snapshots.
type Surface struct {
	mu      sync.RWMutex
	w, h    int
	pix     []color.RGBA
	timeout time.Duration
}

// NewSurface creates a w x h surface filled with the Empty color. Blits give
// up after timeout if the surface is busy.
func NewSurface(w, h int, timeout time.Duration) *Surface {
	s := &Surface{timeout: timeout}
	s.alloc(w, h)
	return s
}

func (s *Surface) alloc(w, h int) {
	s.w, s.h = max(w, 0), max(h, 0)
	s.pix = make([]color.RGBA, s.w*s.h)
	empty := material.Empty.Color()
	for i := range s.pix {
		s.pix[i] = empty
	}
}

// Resize reallocates the surface. Previous contents are discarded; workers
// repaint their partitions on their next tick.
func (s *Surface) Resize(w, h int) {
	s.mu.Lock()
	s.alloc(w, h)
	s.mu.Unlock()
}

// Size returns the surface dimensions.
func (s *Surface) Size() (w, h int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w, s.h
}

// Blit copies a w x h block of row-major pixels to (x0, y0), clipped to the
// surface. It returns worker.ErrLockUnavailable if the lock is not acquired
// within the surface timeout.
func (s *Surface) Blit(x0, y0, w, h int, pix []color.RGBA) error {
	if !worker.TryLockFor(&s.mu, s.timeout) {
		return worker.ErrLockUnavailable
	}
	defer s.mu.Unlock()

	for y := 0; y < h; y++ {
		sy := y0 + y
		if sy < 0 || sy >= s.h {
			continue
		}
		for x := 0; x < w; x++ {
			sx := x0 + x
			if sx < 0 || sx >= s.w {
				continue
			}
			s.pix[sy*s.w+sx] = pix[y*w+x]
		}
	}
	return nil
}

// Snapshot copies the surface into dst, growing it if needed, and returns
// the copy with its dimensions.
func (s *Surface) Snapshot(dst []color.RGBA) ([]color.RGBA, int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cap(dst) < len(s.pix) {
		dst = make([]color.RGBA, len(s.pix))
	}
	dst = dst[:len(s.pix)]
	copy(dst, s.pix)
	return dst, s.w, s.h
}

// At returns the color at (x, y), or transparent black outside the surface.
func (s *Surface) At(x, y int) color.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if x < 0 || x >= s.w || y < 0 || y >= s.h {
		return color.RGBA{}
	}
	return s.pix[y*s.w+x]
}
