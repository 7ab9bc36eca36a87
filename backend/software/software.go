// Package software provides a CPU graphics backend.
//
// Textures are *image.RGBA buffers. Shared textures receive a process-local
// handle from a monotonically increasing counter, so the publish/lookup
// flow can be exercised end to end without a GPU. The backend registers
// itself as "software" on import.
package software

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gogpu/texshare/backend"
	"github.com/gogpu/texshare/render"
)

func init() {
	backend.Register(backend.BackendSoftware, func() (backend.Backend, error) {
		return New(), nil
	})
}

// ErrTextureDestroyed is returned when operating on a destroyed texture.
var ErrTextureDestroyed = errors.New("software: texture has been destroyed")

// nextHandle is shared by all software graphics instances so handles stay
// unique within the process.
var nextHandle atomic.Uintptr

// Texture is a CPU texture.
type Texture struct {
	img    *image.RGBA
	label  string
	format gputypes.TextureFormat
	usage  render.TextureUsage
	handle uintptr
	owner  *Graphics
}

// Width returns the texture width in pixels.
func (t *Texture) Width() uint32 { return uint32(t.img.Rect.Dx()) } //nolint:gosec // bounded by CreateTexture

// Height returns the texture height in pixels.
func (t *Texture) Height() uint32 { return uint32(t.img.Rect.Dy()) } //nolint:gosec // bounded by CreateTexture

// Format returns the pixel format.
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// Usage returns the usage flags.
func (t *Texture) Usage() render.TextureUsage { return t.usage }

// SharedHandle returns the process-local handle, or 0 for unshared textures.
func (t *Texture) SharedHandle() uintptr { return t.handle }

// Label returns the debug label.
func (t *Texture) Label() string { return t.label }

// Image returns the pixel buffer. The image shares memory with the texture.
func (t *Texture) Image() *image.RGBA { return t.img }

// Graphics is a CPU implementation of render.Graphics.
type Graphics struct {
	*render.StateStack

	mu sync.Mutex

	live      map[*Texture]struct{}
	created   int
	destroyed int
	closed    bool
}

// New creates a software graphics backend.
func New() *Graphics {
	return &Graphics{
		StateStack: render.NewStateStack(),
		live:       make(map[*Texture]struct{}),
	}
}

// Name returns "software".
func (g *Graphics) Name() string { return backend.BackendSoftware }

// DeviceHandle returns a null device: the software backend has no GPU.
func (g *Graphics) DeviceHandle() render.DeviceHandle { return render.NullDeviceHandle{} }

// Enter acquires exclusive access.
func (g *Graphics) Enter() { g.mu.Lock() }

// Leave releases exclusive access.
func (g *Graphics) Leave() { g.mu.Unlock() }

// CreateTexture allocates an RGBA texture.
func (g *Graphics) CreateTexture(desc render.TextureDescriptor) (render.Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("software: create %q %dx%d: %w", desc.Label, desc.Width, desc.Height, render.ErrInvalidDimensions)
	}
	t := &Texture{
		img:    image.NewRGBA(image.Rect(0, 0, int(desc.Width), int(desc.Height))),
		label:  desc.Label,
		format: desc.Format,
		usage:  desc.Usage,
		owner:  g,
	}
	if desc.Usage.Has(render.TextureUsageShared) {
		t.handle = nextHandle.Add(1)
	}
	g.live[t] = struct{}{}
	g.created++
	return t, nil
}

// DestroyTexture releases a texture. Destroying nil or an already destroyed
// texture is a no-op.
func (g *Graphics) DestroyTexture(t render.Texture) {
	st, ok := t.(*Texture)
	if !ok || st == nil {
		return
	}
	if _, live := g.live[st]; !live {
		return
	}
	if g.RenderTarget() == render.Texture(st) {
		g.SetRenderTarget(nil, g.ColorSpace())
	}
	delete(g.live, st)
	g.destroyed++
}

// Clear fills the bound target with c. The color components are
// premultiplied alpha in [0, 1].
func (g *Graphics) Clear(c gputypes.Color) error {
	dst, err := g.boundTarget()
	if err != nil {
		return err
	}
	draw.Draw(dst.img, dst.img.Rect, image.NewUniform(toRGBA(c)), image.Point{}, draw.Src)
	return nil
}

// FillRect paints r on the bound target, clipped to the viewport, using
// the current blend function.
func (g *Graphics) FillRect(r image.Rectangle, c color.Color) error {
	dst, err := g.boundTarget()
	if err != nil {
		return err
	}
	vp := g.Viewport()
	clip := image.Rect(vp.X, vp.Y, vp.X+vp.Width, vp.Y+vp.Height)
	op := draw.Over
	if g.BlendState().Overwrites() {
		op = draw.Src
	}
	draw.Draw(dst.img, r.Intersect(clip), image.NewUniform(c), image.Point{}, op)
	return nil
}

// CopyTexture copies src into dst.
func (g *Graphics) CopyTexture(dst, src render.Texture) error {
	d, err := g.own(dst)
	if err != nil {
		return err
	}
	s, err := g.own(src)
	if err != nil {
		return err
	}
	if !render.SameSize(d, s) {
		return fmt.Errorf("software: copy %dx%d into %dx%d: %w",
			s.Width(), s.Height(), d.Width(), d.Height(), render.ErrSizeMismatch)
	}
	draw.Copy(d.img, image.Point{}, s.img, s.img.Rect, draw.Src, nil)
	return nil
}

// LiveTextures returns the number of allocated textures.
func (g *Graphics) LiveTextures() int { return len(g.live) }

// Counts returns the number of textures created and destroyed so far.
func (g *Graphics) Counts() (created, destroyed int) { return g.created, g.destroyed }

// Close destroys all remaining textures.
func (g *Graphics) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	for t := range g.live {
		delete(g.live, t)
		g.destroyed++
	}
	g.SetRenderTarget(nil, render.ColorSpaceSRGB)
	g.closed = true
}

func (g *Graphics) boundTarget() (*Texture, error) {
	t := g.RenderTarget()
	if t == nil {
		return nil, render.ErrNoRenderTarget
	}
	return g.own(t)
}

func (g *Graphics) own(t render.Texture) (*Texture, error) {
	st, ok := t.(*Texture)
	if !ok || st == nil || st.owner != g {
		return nil, render.ErrForeignTexture
	}
	if _, live := g.live[st]; !live {
		return nil, fmt.Errorf("software: texture %q: %w", st.label, ErrTextureDestroyed)
	}
	return st, nil
}

func toRGBA(c gputypes.Color) color.RGBA {
	return color.RGBA{
		R: unit8(c.R),
		G: unit8(c.G),
		B: unit8(c.B),
		A: unit8(c.A),
	}
}

func unit8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}

var (
	_ render.Graphics    = (*Graphics)(nil)
	_ render.DeviceOwner = (*Graphics)(nil)
	_ render.RectFiller  = (*Graphics)(nil)
	_ backend.Backend    = (*Graphics)(nil)
)
