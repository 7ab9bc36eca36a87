package software

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/texshare/backend"
	"github.com/gogpu/texshare/render"
)

func mustCreate(t *testing.T, g *Graphics, desc render.TextureDescriptor) *Texture {
	t.Helper()
	tex, err := g.CreateTexture(desc)
	if err != nil {
		t.Fatalf("CreateTexture(%q) failed: %v", desc.Label, err)
	}
	return tex.(*Texture)
}

func TestRegistered(t *testing.T) {
	if !backend.IsRegistered(backend.BackendSoftware) {
		t.Fatal("software backend not registered on import")
	}
	b, err := backend.Get(backend.BackendSoftware)
	if err != nil {
		t.Fatalf("Get(software) failed: %v", err)
	}
	defer b.Close()
	if b.Name() != "software" {
		t.Errorf("Name() = %q, want software", b.Name())
	}
}

func TestCreateTexture(t *testing.T) {
	g := New()
	defer g.Close()

	tex := mustCreate(t, g, render.RenderTargetDescriptor("buf", 320, 240, gputypes.TextureFormatRGBA8Unorm))
	if tex.Width() != 320 || tex.Height() != 240 {
		t.Errorf("size = %dx%d, want 320x240", tex.Width(), tex.Height())
	}
	if tex.SharedHandle() != 0 {
		t.Errorf("SharedHandle() = %d, want 0 for unshared texture", tex.SharedHandle())
	}
	if tex.Label() != "buf" {
		t.Errorf("Label() = %q, want buf", tex.Label())
	}
	if g.LiveTextures() != 1 {
		t.Errorf("LiveTextures() = %d, want 1", g.LiveTextures())
	}
}

func TestCreateTextureZeroSize(t *testing.T) {
	g := New()
	defer g.Close()

	_, err := g.CreateTexture(render.RenderTargetDescriptor("empty", 0, 10, gputypes.TextureFormatRGBA8Unorm))
	if !errors.Is(err, render.ErrInvalidDimensions) {
		t.Errorf("err = %v, want ErrInvalidDimensions", err)
	}
}

func TestSharedHandlesAreUnique(t *testing.T) {
	g1, g2 := New(), New()
	defer g1.Close()
	defer g2.Close()

	a := mustCreate(t, g1, render.SharedTextureDescriptor("a", 4, 4, gputypes.TextureFormatRGBA8Unorm))
	b := mustCreate(t, g2, render.SharedTextureDescriptor("b", 4, 4, gputypes.TextureFormatRGBA8Unorm))
	if a.SharedHandle() == 0 || b.SharedHandle() == 0 {
		t.Fatal("shared textures must have a non-zero handle")
	}
	if a.SharedHandle() == b.SharedHandle() {
		t.Errorf("handles collide: %d", a.SharedHandle())
	}
}

func TestDestroyTexture(t *testing.T) {
	g := New()
	defer g.Close()

	tex := mustCreate(t, g, render.RenderTargetDescriptor("buf", 8, 8, gputypes.TextureFormatRGBA8Unorm))
	g.SetRenderTarget(tex, render.ColorSpaceSRGB)

	g.DestroyTexture(tex)
	g.DestroyTexture(tex) // double destroy is a no-op
	g.DestroyTexture(nil)

	if g.RenderTarget() != nil {
		t.Error("destroying the bound target should unbind it")
	}
	created, destroyed := g.Counts()
	if created != 1 || destroyed != 1 {
		t.Errorf("Counts() = %d, %d, want 1, 1", created, destroyed)
	}
	if err := g.CopyTexture(tex, tex); !errors.Is(err, ErrTextureDestroyed) {
		t.Errorf("CopyTexture on destroyed texture: err = %v, want ErrTextureDestroyed", err)
	}
}

func TestClearWithoutTarget(t *testing.T) {
	g := New()
	defer g.Close()

	if err := g.Clear(gputypes.Color{}); !errors.Is(err, render.ErrNoRenderTarget) {
		t.Errorf("Clear() err = %v, want ErrNoRenderTarget", err)
	}
}

func TestClearAndFill(t *testing.T) {
	g := New()
	defer g.Close()

	tex := mustCreate(t, g, render.RenderTargetDescriptor("buf", 4, 4, gputypes.TextureFormatRGBA8Unorm))
	restore := render.BindTarget(g, tex, render.ColorSpaceSRGB)
	defer restore()

	if err := g.Clear(gputypes.Color{R: 1, G: 0, B: 0, A: 1}); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if got := tex.Image().RGBAAt(3, 3); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("pixel after clear = %v, want opaque red", got)
	}

	// Half-transparent fill with overwrite blending replaces the pixel.
	popBlend := render.PushBlend(g, render.BlendOverwrite)
	if err := g.FillRect(image.Rect(0, 0, 2, 2), color.RGBA{G: 64, A: 128}); err != nil {
		t.Fatalf("FillRect() failed: %v", err)
	}
	popBlend()
	if got := tex.Image().RGBAAt(0, 0); got != (color.RGBA{G: 64, A: 128}) {
		t.Errorf("overwrite pixel = %v, want {0 64 0 128}", got)
	}

	// With the default over blend the same fill composites.
	if err := g.FillRect(image.Rect(2, 2, 4, 4), color.RGBA{G: 64, A: 128}); err != nil {
		t.Fatalf("FillRect() failed: %v", err)
	}
	if got := tex.Image().RGBAAt(3, 3); got.R == 0 || got.A != 255 {
		t.Errorf("over pixel = %v, want red showing through", got)
	}
}

func TestFillRectClipsToViewport(t *testing.T) {
	g := New()
	defer g.Close()

	tex := mustCreate(t, g, render.RenderTargetDescriptor("buf", 4, 4, gputypes.TextureFormatRGBA8Unorm))
	g.SetRenderTarget(tex, render.ColorSpaceSRGB)
	g.SetViewport(render.Viewport{Width: 2, Height: 2})

	if err := g.FillRect(image.Rect(0, 0, 4, 4), color.White); err != nil {
		t.Fatalf("FillRect() failed: %v", err)
	}
	if got := tex.Image().RGBAAt(3, 3); got.A != 0 {
		t.Errorf("pixel outside viewport = %v, want untouched", got)
	}
}

func TestCopyTexture(t *testing.T) {
	g := New()
	defer g.Close()

	src := mustCreate(t, g, render.RenderTargetDescriptor("src", 4, 4, gputypes.TextureFormatRGBA8Unorm))
	dst := mustCreate(t, g, render.SharedTextureDescriptor("dst", 4, 4, gputypes.TextureFormatRGBA8Unorm))
	src.Image().SetRGBA(1, 2, color.RGBA{B: 200, A: 255})

	if err := g.CopyTexture(dst, src); err != nil {
		t.Fatalf("CopyTexture() failed: %v", err)
	}
	if got := dst.Image().RGBAAt(1, 2); got != (color.RGBA{B: 200, A: 255}) {
		t.Errorf("copied pixel = %v, want {0 0 200 255}", got)
	}
}

func TestCopyTextureSizeMismatch(t *testing.T) {
	g := New()
	defer g.Close()

	src := mustCreate(t, g, render.RenderTargetDescriptor("src", 4, 4, gputypes.TextureFormatRGBA8Unorm))
	dst := mustCreate(t, g, render.RenderTargetDescriptor("dst", 8, 4, gputypes.TextureFormatRGBA8Unorm))
	if err := g.CopyTexture(dst, src); !errors.Is(err, render.ErrSizeMismatch) {
		t.Errorf("err = %v, want ErrSizeMismatch", err)
	}
}

func TestCopyForeignTexture(t *testing.T) {
	g1, g2 := New(), New()
	defer g1.Close()
	defer g2.Close()

	a := mustCreate(t, g1, render.RenderTargetDescriptor("a", 4, 4, gputypes.TextureFormatRGBA8Unorm))
	b := mustCreate(t, g2, render.RenderTargetDescriptor("b", 4, 4, gputypes.TextureFormatRGBA8Unorm))
	if err := g1.CopyTexture(a, b); !errors.Is(err, render.ErrForeignTexture) {
		t.Errorf("err = %v, want ErrForeignTexture", err)
	}
}

func TestScopedHelpersRestoreState(t *testing.T) {
	g := New()
	defer g.Close()

	host := mustCreate(t, g, render.RenderTargetDescriptor("host", 16, 16, gputypes.TextureFormatRGBA8Unorm))
	buf := mustCreate(t, g, render.RenderTargetDescriptor("buf", 4, 4, gputypes.TextureFormatRGBA8Unorm))
	g.SetRenderTarget(host, render.ColorSpaceSRGB16F)
	g.SetMatrix(render.Matrix{A: 3, D: 3})

	func() {
		pop := render.PushTransforms(g)
		defer pop()
		restore := render.BindTarget(g, buf, render.ColorSpaceSRGB)
		defer restore()

		if !g.Matrix().IsIdentity() {
			t.Error("PushTransforms should reset the matrix")
		}
		if g.RenderTarget() != render.Texture(buf) || g.ColorSpace() != render.ColorSpaceSRGB {
			t.Error("BindTarget did not bind the buffer")
		}
	}()

	if g.RenderTarget() != render.Texture(host) {
		t.Error("render target not restored")
	}
	if g.ColorSpace() != render.ColorSpaceSRGB16F {
		t.Errorf("color space = %v, want srgb16f", g.ColorSpace())
	}
	if g.Matrix() != (render.Matrix{A: 3, D: 3}) {
		t.Errorf("matrix = %+v, want restored", g.Matrix())
	}
	if g.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", g.Depth())
	}
}

func TestExclusive(t *testing.T) {
	g := New()
	defer g.Close()

	ran := false
	render.Exclusive(g, func() { ran = true })
	if !ran {
		t.Error("Exclusive did not run fn")
	}
	// The lock must be free again.
	g.Enter()
	g.Leave()
}

func TestDeviceHandle(t *testing.T) {
	g := New()
	defer g.Close()
	if g.DeviceHandle().SurfaceFormat() != gputypes.TextureFormatUndefined {
		t.Error("software device handle should report an undefined surface format")
	}
}

func TestCloseIdempotent(t *testing.T) {
	g := New()
	mustCreate(t, g, render.RenderTargetDescriptor("buf", 4, 4, gputypes.TextureFormatRGBA8Unorm))
	g.Close()
	g.Close()
	if g.LiveTextures() != 0 {
		t.Errorf("LiveTextures() = %d after Close, want 0", g.LiveTextures())
	}
}
