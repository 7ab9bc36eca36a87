package texshare

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/texshare/host"
	"github.com/gogpu/texshare/internal/pingpong"
	"github.com/gogpu/texshare/render"
	"github.com/gogpu/texshare/share"
)

// ErrTextureAllocation is returned by Pipeline.Render when a reset could not
// allocate one of its textures. The pipeline is left uninitialized with
// its channel released, so the next Render retries the reset.
var ErrTextureAllocation = errors.New("texshare: texture allocation failed")

// Texture labels.
const (
	labelBufferA = "texshare_buffer_a"
	labelBufferB = "texshare_buffer_b"
	labelShared  = "texshare_shared"
)

// Orthographic depth range used while rendering the source.
const (
	orthoNear = -100
	orthoFar  = 100
)

// Stats counts pipeline activity.
type Stats struct {
	// Frames is the number of completed Render calls that drew a frame.
	Frames uint64

	// Copies is the number of buffer-to-shared-texture copies.
	Copies uint64

	// Resets is the number of successful texture recreations.
	Resets uint64
}

// Pipeline double-buffers the frames of a source into a shared texture.
//
// Each Render draws the source into the draw buffer, copies the buffer
// completed by the previous Render into the shared texture and swaps the
// two. The shared texture therefore lags the source by one frame, and the
// buffer being copied is never the one being drawn.
//
// Pipeline is not safe for concurrent use. All methods must be called with
// exclusive graphics access held.
type Pipeline struct {
	g              render.Graphics
	sender         *share.Sender
	format         gputypes.TextureFormat
	firstFrameCopy bool

	width   uint32
	height  uint32
	buffers pingpong.Pair[render.Texture]
	shared  render.Texture

	// fresh is set by a reset and cleared by the first Render after it:
	// the ready buffer holds no frame at the current size yet.
	fresh bool

	stats Stats
}

// NewPipeline returns an uninitialized pipeline. Textures are allocated by
// the first Render.
func NewPipeline(g render.Graphics, sender *share.Sender, format gputypes.TextureFormat) *Pipeline {
	return &Pipeline{g: g, sender: sender, format: format}
}

// Size returns the current texture size, or 0, 0 before the first reset.
func (p *Pipeline) Size() (width, height uint32) { return p.width, p.height }

// SharedTexture returns the published texture, or nil before the first
// reset.
func (p *Pipeline) SharedTexture() render.Texture { return p.shared }

// SharedHandle returns the handle of the published texture, or 0.
func (p *Pipeline) SharedHandle() uintptr {
	if p.shared == nil {
		return 0
	}
	return p.shared.SharedHandle()
}

// Stats returns the activity counters.
func (p *Pipeline) Stats() Stats { return p.stats }

// Render runs one frame of src at width x height. A nil source or a zero
// size is skipped without touching any state.
func (p *Pipeline) Render(src host.Source, width, height uint32) error {
	if src == nil || width == 0 || height == 0 {
		return nil
	}

	if width != p.width || height != p.height {
		if err := p.reset(width, height); err != nil {
			return err
		}
	}

	if err := p.draw(src); err != nil {
		return err
	}

	var err error
	if !p.fresh || p.firstFrameCopy {
		if err = p.g.CopyTexture(p.shared, p.buffers.Ready()); err != nil {
			err = fmt.Errorf("texshare: copy %s buffer: %w", p.buffers.DrawTag().Other(), err)
		} else {
			p.stats.Copies++
		}
	}

	p.fresh = false
	p.buffers.Flip()
	p.stats.Frames++
	return err
}

// draw renders src into the draw buffer and restores the host's target,
// transforms and blend state on return.
func (p *Pipeline) draw(src host.Source) error {
	pop := render.PushTransforms(p.g)
	defer pop()

	restore := render.BindTarget(p.g, p.buffers.Draw(), render.ColorSpaceSRGB)
	defer restore()

	p.g.SetViewport(render.Viewport{Width: int(p.width), Height: int(p.height)})
	if err := p.g.Clear(gputypes.Color{}); err != nil {
		return fmt.Errorf("texshare: clear %s buffer: %w", p.buffers.DrawTag(), err)
	}
	p.g.Ortho(render.Projection{
		Left:   0,
		Right:  float32(p.width),
		Top:    0,
		Bottom: float32(p.height),
		Near:   orthoNear,
		Far:    orthoFar,
	})

	popBlend := render.PushBlend(p.g, render.BlendOverwrite)
	defer popBlend()

	src.VideoRender(p.g)
	return nil
}

// reset recreates both buffers and the shared texture at width x height
// and publishes the new texture. The old channel is released before the
// old shared texture is destroyed.
func (p *Pipeline) reset(width, height uint32) error {
	log := Logger()
	log.Debug("texshare: reset",
		"from_width", p.width, "from_height", p.height,
		"to_width", width, "to_height", height)

	p.sender.Release()
	p.destroyTextures()
	p.width, p.height = 0, 0

	a, err := p.g.CreateTexture(render.RenderTargetDescriptor(labelBufferA, width, height, p.format))
	if err != nil {
		return fmt.Errorf("%w: buffer A %dx%d: %w", ErrTextureAllocation, width, height, err)
	}
	b, err := p.g.CreateTexture(render.RenderTargetDescriptor(labelBufferB, width, height, p.format))
	if err != nil {
		p.g.DestroyTexture(a)
		return fmt.Errorf("%w: buffer B %dx%d: %w", ErrTextureAllocation, width, height, err)
	}
	shared, err := p.g.CreateTexture(render.SharedTextureDescriptor(labelShared, width, height, p.format))
	if err != nil {
		p.g.DestroyTexture(b)
		p.g.DestroyTexture(a)
		return fmt.Errorf("%w: shared %dx%d: %w", ErrTextureAllocation, width, height, err)
	}

	p.buffers.Set(a, b)
	p.shared = shared
	p.width, p.height = width, height
	p.fresh = true
	p.stats.Resets++

	p.sender.Create(shared.SharedHandle(), width, height)
	return nil
}

// destroyTextures frees the shared texture, then buffer B, then buffer A.
func (p *Pipeline) destroyTextures() {
	if p.shared != nil {
		p.g.DestroyTexture(p.shared)
		p.shared = nil
	}
	a, b := p.buffers.Clear()
	if b != nil {
		p.g.DestroyTexture(b)
	}
	if a != nil {
		p.g.DestroyTexture(a)
	}
}

// Destroy releases the channel and frees all textures. The pipeline
// returns to the uninitialized state; calling Destroy again is a no-op.
func (p *Pipeline) Destroy() {
	p.sender.Release()
	p.destroyTextures()
	p.width, p.height = 0, 0
	p.fresh = false
}
