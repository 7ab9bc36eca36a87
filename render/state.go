// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

// StateStack is a backend-independent implementation of TargetBinder,
// TransformStack and BlendStack. Backends embed it and read the current
// state when encoding commands.
//
// Popping an empty stack leaves the current value unchanged.
//
// StateStack is NOT safe for concurrent use; callers hold exclusive
// graphics access.
type StateStack struct {
	target Texture
	space  ColorSpace

	viewport  Viewport
	viewports []Viewport

	projection  Projection
	projections []Projection

	matrix   Matrix
	matrices []Matrix

	blend  Blend
	blends []Blend
}

// NewStateStack returns a state stack with identity transform and
// premultiplied-over blending bound to the default target.
func NewStateStack() *StateStack {
	return &StateStack{
		matrix: Identity(),
		blend:  BlendPremultipliedOver,
	}
}

// RenderTarget returns the bound target.
func (s *StateStack) RenderTarget() Texture { return s.target }

// ColorSpace returns the color space of the bound target.
func (s *StateStack) ColorSpace() ColorSpace { return s.space }

// SetRenderTarget binds t under space. When t is non-nil the viewport is
// reset to cover the whole texture.
func (s *StateStack) SetRenderTarget(t Texture, space ColorSpace) {
	s.target = t
	s.space = space
	if t != nil {
		s.viewport = Viewport{Width: int(t.Width()), Height: int(t.Height())}
	}
}

// PushViewport saves the viewport.
func (s *StateStack) PushViewport() { s.viewports = append(s.viewports, s.viewport) }

// PopViewport restores the last saved viewport.
func (s *StateStack) PopViewport() {
	if n := len(s.viewports); n > 0 {
		s.viewport = s.viewports[n-1]
		s.viewports = s.viewports[:n-1]
	}
}

// SetViewport sets the viewport.
func (s *StateStack) SetViewport(v Viewport) { s.viewport = v }

// Viewport returns the viewport.
func (s *StateStack) Viewport() Viewport { return s.viewport }

// PushProjection saves the projection.
func (s *StateStack) PushProjection() { s.projections = append(s.projections, s.projection) }

// PopProjection restores the last saved projection.
func (s *StateStack) PopProjection() {
	if n := len(s.projections); n > 0 {
		s.projection = s.projections[n-1]
		s.projections = s.projections[:n-1]
	}
}

// Ortho sets an orthographic projection.
func (s *StateStack) Ortho(p Projection) { s.projection = p }

// Projection returns the projection.
func (s *StateStack) Projection() Projection { return s.projection }

// PushMatrix saves the model transform.
func (s *StateStack) PushMatrix() { s.matrices = append(s.matrices, s.matrix) }

// PopMatrix restores the last saved model transform.
func (s *StateStack) PopMatrix() {
	if n := len(s.matrices); n > 0 {
		s.matrix = s.matrices[n-1]
		s.matrices = s.matrices[:n-1]
	}
}

// MatrixIdentity resets the model transform.
func (s *StateStack) MatrixIdentity() { s.matrix = Identity() }

// SetMatrix sets the model transform.
func (s *StateStack) SetMatrix(m Matrix) { s.matrix = m }

// Matrix returns the model transform.
func (s *StateStack) Matrix() Matrix { return s.matrix }

// PushBlendState saves the blend function.
func (s *StateStack) PushBlendState() { s.blends = append(s.blends, s.blend) }

// PopBlendState restores the last saved blend function.
func (s *StateStack) PopBlendState() {
	if n := len(s.blends); n > 0 {
		s.blend = s.blends[n-1]
		s.blends = s.blends[:n-1]
	}
}

// SetBlend sets the blend function.
func (s *StateStack) SetBlend(b Blend) { s.blend = b }

// BlendState returns the blend function.
func (s *StateStack) BlendState() Blend { return s.blend }

// Depth returns the number of saved entries across all stacks. A balanced
// caller leaves it unchanged.
func (s *StateStack) Depth() int {
	return len(s.viewports) + len(s.projections) + len(s.matrices) + len(s.blends)
}
