package host

import (
	"image"
	"image/color"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/texshare/render"
)

// PatternSource is a Source that paints a test pattern: a background whose
// hue cycles with the frame number and, on backends that can fill
// rectangles, a bar that sweeps left to right.
type PatternSource struct {
	mu     sync.Mutex
	width  uint32
	height uint32
	frame  uint64
}

// NewPatternSource returns a pattern of the given native size.
func NewPatternSource(width, height uint32) *PatternSource {
	return &PatternSource{width: width, height: height}
}

// BaseWidth returns the native width.
func (p *PatternSource) BaseWidth() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width
}

// BaseHeight returns the native height.
func (p *PatternSource) BaseHeight() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.height
}

// Resize changes the native size.
func (p *PatternSource) Resize(width, height uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.width, p.height = width, height
}

// Frames returns the number of frames rendered.
func (p *PatternSource) Frames() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame
}

// VideoRender paints frame n of the pattern and advances the counter.
func (p *PatternSource) VideoRender(g render.Graphics) {
	p.mu.Lock()
	n, w, h := p.frame, int(p.width), int(p.height)
	p.frame++
	p.mu.Unlock()

	bg := PatternColor(n)
	_ = g.Clear(gputypes.Color{
		R: float64(bg.R) / 255,
		G: float64(bg.G) / 255,
		B: float64(bg.B) / 255,
		A: 1,
	})

	f, ok := g.(render.RectFiller)
	if !ok || w == 0 {
		return
	}
	bar := max(w/16, 1)
	x := int(n) % max(w-bar, 1)
	_ = f.FillRect(image.Rect(x, 0, x+bar, h), color.RGBA{R: 255, G: 255, B: 255, A: 255})
}

// PatternColor returns the opaque background color of frame n. Adjacent
// frames never share a color.
func PatternColor(n uint64) color.RGBA {
	return color.RGBA{
		R: uint8(n * 37),
		G: uint8(n*59 + 85),
		B: uint8(n*13 + 170),
		A: 255,
	}
}
