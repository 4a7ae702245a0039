// Package renderer draws the simulation surface with raylib.
package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// GridRenderer keeps one texel per grid cell on the GPU and draws it scaled.
type GridRenderer struct {
	tex        rl.Texture2D
	texW, texH int

	background  color.RGBA
	initialized bool
}

// NewGridRenderer creates a renderer whose texture starts filled with bg.
func NewGridRenderer(bg color.RGBA) *GridRenderer {
	return &GridRenderer{background: bg}
}

// Init (re)creates the texture for a w x h grid (must be called after the
// raylib window is created). Same-size calls are no-ops.
func (r *GridRenderer) Init(w, h int) {
	if r.initialized && w == r.texW && h == r.texH {
		return
	}
	r.Unload()
	if w <= 0 || h <= 0 {
		return
	}

	r.texW = w
	r.texH = h

	img := rl.GenImageColor(w, h, r.background)
	r.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(r.tex, rl.FilterPoint)
	rl.UnloadImage(img)

	r.initialized = true
}

// Size returns the texture dimensions.
func (r *GridRenderer) Size() (w, h int) { return r.texW, r.texH }

// Update uploads new cell colors. Returns false, leaving the texture as is,
// when the pixels do not match the texture size.
func (r *GridRenderer) Update(pixels []color.RGBA, w, h int) bool {
	if !r.initialized || w != r.texW || h != r.texH || len(pixels) != w*h {
		return false
	}
	rl.UpdateTexture(r.tex, pixels)
	return true
}

// Draw renders the src rectangle of the grid (in cells) into dst (in pixels).
func (r *GridRenderer) Draw(src, dst rl.Rectangle) {
	if !r.initialized {
		return
	}
	rl.DrawTexturePro(r.tex, src, dst, rl.Vector2{}, 0, rl.White)
}

// Unload frees GPU resources.
func (r *GridRenderer) Unload() {
	if !r.initialized {
		return
	}
	rl.UnloadTexture(r.tex)
	r.texW, r.texH = 0, 0
	r.initialized = false
}
