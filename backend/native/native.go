//go:build !nogpu

package native

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/texshare/backend"
	"github.com/gogpu/texshare/internal/logx"
	"github.com/gogpu/texshare/render"
)

// Native backend errors.
var (
	// ErrNilDevice is returned when New is called without a device or queue.
	ErrNilDevice = errors.New("native: device or queue is nil")

	// ErrNoAdapter is returned when the hal instance reports no adapters.
	ErrNoAdapter = errors.New("native: no GPU adapters found")

	// ErrTextureDestroyed is returned when operating on a destroyed texture.
	ErrTextureDestroyed = errors.New("native: texture has been destroyed")

	// ErrGPUTimeout is returned when a submission does not finish in time.
	ErrGPUTimeout = errors.New("native: timed out waiting for GPU")
)

// submitTimeout bounds every fence wait.
const submitTimeout = 5 * time.Second

var nextHandle atomic.Uintptr

// Texture is a hal texture with its default view.
type Texture struct {
	tex    hal.Texture
	view   hal.TextureView
	label  string
	width  uint32
	height uint32
	format gputypes.TextureFormat
	usage  render.TextureUsage
	handle uintptr
	owner  *Graphics
}

// Width returns the texture width in pixels.
func (t *Texture) Width() uint32 { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() uint32 { return t.height }

// Format returns the pixel format.
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// Usage returns the usage flags.
func (t *Texture) Usage() render.TextureUsage { return t.usage }

// SharedHandle returns the process-local handle, or 0 for unshared textures.
func (t *Texture) SharedHandle() uintptr { return t.handle }

// Raw returns the hal texture.
func (t *Texture) Raw() hal.Texture { return t.tex }

// View returns the default texture view.
func (t *Texture) View() hal.TextureView { return t.view }

// Graphics is a render.Graphics implementation on a hal device.
type Graphics struct {
	*render.StateStack

	mu sync.Mutex

	device hal.Device
	queue  hal.Queue

	// release tears down resources owned by Open (device, instance).
	release func()

	live   map[*Texture]struct{}
	fill   fillResources
	closed bool
}

// New wraps a host-owned device and queue. Close does not destroy them.
func New(device hal.Device, queue hal.Queue) (*Graphics, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	return &Graphics{
		StateStack: render.NewStateStack(),
		device:     device,
		queue:      queue,
		live:       make(map[*Texture]struct{}),
	}, nil
}

// InstanceCreator creates hal instances. hal backends such as the Vulkan
// backend and noop.API satisfy it.
type InstanceCreator interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// Open creates an instance from api, opens the first discrete or
// integrated adapter (falling back to the first adapter) and returns
// graphics that own the device. Close destroys the device and instance.
func Open(api InstanceCreator) (*Graphics, error) {
	instance, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}

	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open device: %w", err)
	}
	logx.Logger().Debug("native: opened adapter", "name", selected.Info.Name)

	g, err := New(openDev.Device, openDev.Queue)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	g.release = func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return g, nil
}

// Name returns "native".
func (g *Graphics) Name() string { return backend.BackendNative }

// Device returns the hal device.
func (g *Graphics) Device() hal.Device { return g.device }

// Enter acquires exclusive access.
func (g *Graphics) Enter() { g.mu.Lock() }

// Leave releases exclusive access.
func (g *Graphics) Leave() { g.mu.Unlock() }

// CreateTexture allocates a 2D texture and its default view.
func (g *Graphics) CreateTexture(desc render.TextureDescriptor) (render.Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("native: create %q %dx%d: %w", desc.Label, desc.Width, desc.Height, render.ErrInvalidDimensions)
	}

	tex, err := g.device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         desc.Usage.GPU(),
	})
	if err != nil {
		return nil, fmt.Errorf("native: create texture %q: %w", desc.Label, err)
	}

	view, err := g.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: desc.Label + "_view",
	})
	if err != nil {
		g.device.DestroyTexture(tex)
		return nil, fmt.Errorf("native: create texture view %q: %w", desc.Label, err)
	}

	t := &Texture{
		tex:    tex,
		view:   view,
		label:  desc.Label,
		width:  desc.Width,
		height: desc.Height,
		format: desc.Format,
		usage:  desc.Usage,
		owner:  g,
	}
	if desc.Usage.Has(render.TextureUsageShared) {
		t.handle = nextHandle.Add(1)
	}
	g.live[t] = struct{}{}
	return t, nil
}

// DestroyTexture releases the view and then the texture. Destroying nil,
// a foreign texture or an already destroyed texture is a no-op.
func (g *Graphics) DestroyTexture(t render.Texture) {
	nt, ok := t.(*Texture)
	if !ok || nt == nil {
		return
	}
	if _, live := g.live[nt]; !live {
		return
	}
	if g.RenderTarget() == render.Texture(nt) {
		g.SetRenderTarget(nil, g.ColorSpace())
	}
	g.destroy(nt)
}

func (g *Graphics) destroy(t *Texture) {
	if t.view != nil {
		g.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		g.device.DestroyTexture(t.tex)
		t.tex = nil
	}
	delete(g.live, t)
}

// Clear fills the bound target with c.
func (g *Graphics) Clear(c gputypes.Color) error {
	target := g.RenderTarget()
	if target == nil {
		return render.ErrNoRenderTarget
	}
	dst, err := g.own(target)
	if err != nil {
		return err
	}
	return g.submit("texshare_clear", func(encoder hal.CommandEncoder) {
		rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "texshare_clear_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:       dst.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: c,
			}},
		})
		rp.End()
	})
}

// CopyTexture copies src into dst. Both are transitioned to copy layouts
// for the copy and back to render attachments afterwards.
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
		return fmt.Errorf("native: copy %dx%d into %dx%d: %w",
			s.Width(), s.Height(), d.Width(), d.Height(), render.ErrSizeMismatch)
	}

	return g.submit("texshare_copy", func(encoder hal.CommandEncoder) {
		encoder.TransitionTextures([]hal.TextureBarrier{
			{
				Texture: s.tex,
				Usage: hal.TextureUsageTransition{
					OldUsage: gputypes.TextureUsageRenderAttachment,
					NewUsage: gputypes.TextureUsageCopySrc,
				},
			},
			{
				Texture: d.tex,
				Usage: hal.TextureUsageTransition{
					OldUsage: gputypes.TextureUsageRenderAttachment,
					NewUsage: gputypes.TextureUsageCopyDst,
				},
			},
		})

		encoder.CopyTextureToTexture(s.tex, d.tex, []hal.TextureCopy{{
			SrcBase: hal.ImageCopyTexture{Texture: s.tex, MipLevel: 0},
			DstBase: hal.ImageCopyTexture{Texture: d.tex, MipLevel: 0},
			Size:    hal.Extent3D{Width: s.width, Height: s.height, DepthOrArrayLayers: 1},
		}})

		encoder.TransitionTextures([]hal.TextureBarrier{
			{
				Texture: s.tex,
				Usage: hal.TextureUsageTransition{
					OldUsage: gputypes.TextureUsageCopySrc,
					NewUsage: gputypes.TextureUsageRenderAttachment,
				},
			},
			{
				Texture: d.tex,
				Usage: hal.TextureUsageTransition{
					OldUsage: gputypes.TextureUsageCopyDst,
					NewUsage: gputypes.TextureUsageRenderAttachment,
				},
			},
		})
	})
}

// submit records commands with record, submits them and waits on a fence.
func (g *Graphics) submit(label string, record func(encoder hal.CommandEncoder)) error {
	encoder, err := g.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: label,
	})
	if err != nil {
		return fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("native: begin encoding: %w", err)
	}

	record(encoder)

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding: %w", err)
	}
	defer g.device.FreeCommandBuffer(cmdBuf)

	fence, err := g.device.CreateFence()
	if err != nil {
		return fmt.Errorf("native: create fence: %w", err)
	}
	defer g.device.DestroyFence(fence)

	if err := g.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("native: submit: %w", err)
	}
	ok, err := g.device.Wait(fence, 1, submitTimeout)
	if err != nil {
		return fmt.Errorf("native: wait: %w", err)
	}
	if !ok {
		return ErrGPUTimeout
	}
	return nil
}

func (g *Graphics) own(t render.Texture) (*Texture, error) {
	nt, ok := t.(*Texture)
	if !ok || nt == nil || nt.owner != g {
		return nil, render.ErrForeignTexture
	}
	if _, live := g.live[nt]; !live {
		return nil, fmt.Errorf("native: texture %q: %w", nt.label, ErrTextureDestroyed)
	}
	return nt, nil
}

// LiveTextures returns the number of allocated textures.
func (g *Graphics) LiveTextures() int { return len(g.live) }

// Close destroys remaining textures and fill pipelines and, for graphics
// created by Open, the device and instance. Close is idempotent.
func (g *Graphics) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	for t := range g.live {
		g.destroy(t)
	}
	g.destroyFill()
	g.SetRenderTarget(nil, render.ColorSpaceSRGB)
	if g.release != nil {
		g.release()
		g.release = nil
	}
}

var (
	_ render.Graphics = (*Graphics)(nil)
	_ backend.Backend = (*Graphics)(nil)
)
