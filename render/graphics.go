// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"image"
	"image/color"

	"github.com/gogpu/gputypes"
)

// Common graphics errors.
var (
	// ErrSizeMismatch is returned when copying between textures of different sizes.
	ErrSizeMismatch = errors.New("render: texture size mismatch")

	// ErrForeignTexture is returned when a texture created by another backend is used.
	ErrForeignTexture = errors.New("render: texture belongs to another backend")

	// ErrNoRenderTarget is returned when an operation needs a bound render target.
	ErrNoRenderTarget = errors.New("render: no render target bound")

	// ErrInvalidDimensions is returned when a texture would have a zero side.
	ErrInvalidDimensions = errors.New("render: invalid dimensions")
)

// ColorSpace is the encoding a render target is interpreted under while
// blending and presenting.
type ColorSpace uint8

const (
	// ColorSpaceSRGB is standard gamma-corrected RGB.
	ColorSpaceSRGB ColorSpace = iota
	// ColorSpaceSRGB16F is linear sRGB in half-float.
	ColorSpaceSRGB16F
	// ColorSpaceRec2100PQ is Rec. 2100 with the PQ transfer function.
	ColorSpaceRec2100PQ
	// ColorSpaceRec2100HLG is Rec. 2100 with the HLG transfer function.
	ColorSpaceRec2100HLG
)

func (c ColorSpace) String() string {
	switch c {
	case ColorSpaceSRGB:
		return "srgb"
	case ColorSpaceSRGB16F:
		return "srgb16f"
	case ColorSpaceRec2100PQ:
		return "rec2100-pq"
	case ColorSpaceRec2100HLG:
		return "rec2100-hlg"
	default:
		return "unknown"
	}
}

// Blend is a color blend function.
type Blend struct {
	Src gputypes.BlendFactor
	Dst gputypes.BlendFactor
	Op  gputypes.BlendOperation
}

var (
	// BlendOverwrite replaces the destination with the source, ignoring alpha.
	BlendOverwrite = Blend{Src: gputypes.BlendFactorOne, Dst: gputypes.BlendFactorZero, Op: gputypes.BlendOperationAdd}

	// BlendPremultipliedOver composites premultiplied source over destination.
	BlendPremultipliedOver = Blend{Src: gputypes.BlendFactorOne, Dst: gputypes.BlendFactorOneMinusSrcAlpha, Op: gputypes.BlendOperationAdd}
)

// Overwrites reports whether b copies the source unchanged.
func (b Blend) Overwrites() bool {
	return b.Src == gputypes.BlendFactorOne && b.Dst == gputypes.BlendFactorZero
}

// Viewport is a pixel rectangle of the bound render target.
type Viewport struct {
	X, Y          int
	Width, Height int
}

// Projection is an orthographic projection volume.
type Projection struct {
	Left, Right float32
	Top, Bottom float32
	Near, Far   float32
}

// Matrix is a 2D affine transform [a c e; b d f].
type Matrix struct {
	A, B, C, D, E, F float64
}

// Identity returns the identity transform.
func Identity() Matrix { return Matrix{A: 1, D: 1} }

// IsIdentity reports whether m is the identity transform.
func (m Matrix) IsIdentity() bool { return m == Identity() }

// TextureAllocator creates and destroys textures.
type TextureAllocator interface {
	// CreateTexture allocates a texture. Returns an error if the backend
	// cannot satisfy the descriptor.
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// DestroyTexture releases a texture. Destroying nil is a no-op.
	DestroyTexture(t Texture)
}

// TargetBinder binds the texture rendering commands are directed to.
type TargetBinder interface {
	// RenderTarget returns the bound target, or nil for the host's default target.
	RenderTarget() Texture

	// ColorSpace returns the color space of the bound target.
	ColorSpace() ColorSpace

	// SetRenderTarget binds t under the given color space.
	SetRenderTarget(t Texture, space ColorSpace)
}

// TransformStack holds viewport, projection and model transform state.
type TransformStack interface {
	PushViewport()
	PopViewport()
	SetViewport(v Viewport)

	PushProjection()
	PopProjection()
	Ortho(p Projection)

	PushMatrix()
	PopMatrix()
	MatrixIdentity()
}

// BlendStack holds the blend function applied by draw commands.
type BlendStack interface {
	PushBlendState()
	PopBlendState()
	SetBlend(b Blend)
	BlendState() Blend
}

// Graphics is the host graphics subsystem.
//
// All methods except Enter and Leave must be called with exclusive access
// held, either by the caller (Enter/Leave) or by the host around its
// per-frame render callbacks.
type Graphics interface {
	TextureAllocator
	TargetBinder
	TransformStack
	BlendStack

	// Clear fills the bound render target with c.
	Clear(c gputypes.Color) error

	// CopyTexture copies the full contents of src into dst. Both textures
	// must have the same size and format.
	CopyTexture(dst, src Texture) error

	// Enter acquires exclusive access to the graphics subsystem.
	Enter()

	// Leave releases exclusive access acquired with Enter.
	Leave()
}

// RectFiller is implemented by backends that can paint solid rectangles
// into the bound target with the current blend function.
type RectFiller interface {
	FillRect(r image.Rectangle, c color.Color) error
}

// Exclusive runs fn while holding exclusive access to g.
func Exclusive(g Graphics, fn func()) {
	g.Enter()
	defer g.Leave()
	fn()
}

// BindTarget saves the bound render target and color space, binds t under
// space and returns a function that restores the saved pair. The restore
// function must run on every exit path:
//
//	restore := render.BindTarget(g, tex, render.ColorSpaceSRGB)
//	defer restore()
func BindTarget(g Graphics, t Texture, space ColorSpace) (restore func()) {
	prevTarget := g.RenderTarget()
	prevSpace := g.ColorSpace()
	g.SetRenderTarget(t, space)
	return func() {
		g.SetRenderTarget(prevTarget, prevSpace)
	}
}

// PushTransforms saves viewport, projection and matrix, resets the matrix
// to identity and returns a function that pops all three in reverse order.
func PushTransforms(g Graphics) (pop func()) {
	g.PushViewport()
	g.PushProjection()
	g.PushMatrix()
	g.MatrixIdentity()
	return func() {
		g.PopMatrix()
		g.PopProjection()
		g.PopViewport()
	}
}

// PushBlend saves the blend state, sets b and returns a function that pops it.
func PushBlend(g Graphics, b Blend) (pop func()) {
	g.PushBlendState()
	g.SetBlend(b)
	return g.PopBlendState
}

// SameSize reports whether a and b have identical dimensions.
func SameSize(a, b Texture) bool {
	return a.Width() == b.Width() && a.Height() == b.Height()
}
