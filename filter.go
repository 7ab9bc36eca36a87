package texshare

import (
	"github.com/gogpu/texshare/host"
	"github.com/gogpu/texshare/render"
	"github.com/gogpu/texshare/settings"
	"github.com/gogpu/texshare/share"
)

// Filter is one attached instance of the shared texture filter.
//
// On creation it publishes the configured channel name against an empty
// placeholder and registers a render callback with the runtime. Every
// tick the callback feeds the parent source through the Pipeline.
type Filter struct {
	rt       host.Runtime
	ctx      host.Context
	g        render.Graphics
	sender   *share.Sender
	pipeline *Pipeline

	// destroyed is guarded by exclusive graphics access.
	destroyed bool
}

// NewFilter creates a filter attached to ctx and applies data. A nil data
// uses ctx.Settings(). Settings with neither a sender name nor a default
// for it get the filter defaults on a copy, so the channel is published
// under DefaultSenderName.
func NewFilter(rt host.Runtime, ctx host.Context, data *settings.Data, opts ...FilterOption) *Filter {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.directory == nil {
		o.directory = share.NewMemoryDirectory()
	}

	g := rt.Graphics()
	sender := share.NewSender(o.directory, o.format)
	p := NewPipeline(g, sender, o.format)
	p.firstFrameCopy = o.firstFrameCopy

	f := &Filter{
		rt:       rt,
		ctx:      ctx,
		g:        g,
		sender:   sender,
		pipeline: p,
	}
	if data == nil && ctx != nil {
		data = ctx.Settings()
	}
	if data != nil && !data.Has(settings.KeySenderName) && !data.HasDefault(settings.KeySenderName) {
		data = data.Clone()
		Defaults(data)
	}
	f.Update(data)

	Logger().Info("texshare: filter created", "channel", sender.Name())
	return f
}

// Pipeline returns the filter's frame pipeline.
func (f *Filter) Pipeline() *Pipeline { return f.pipeline }

// ChannelName returns the live channel name.
func (f *Filter) ChannelName() string { return f.sender.Name() }

// Update applies data. With exclusive graphics access held it removes the
// render callback, republishes the channel if the configured name changed
// and adds the callback again. The render buffers are left untouched.
func (f *Filter) Update(data *settings.Data) {
	if data == nil {
		return
	}
	name := data.String(settings.KeySenderName)

	render.Exclusive(f.g, func() {
		if f.destroyed {
			return
		}
		f.rt.RemoveMainRenderCallback(f)

		w, h := f.pipeline.Size()
		f.sender.Rename(name, f.pipeline.SharedHandle(), w, h)

		f.rt.AddMainRenderCallback(f, f.renderTick)
	})
}

// Apply re-reads the instance settings, as the properties apply button
// does.
func (f *Filter) Apply() {
	if f.ctx == nil {
		return
	}
	f.Update(f.ctx.Settings())
}

// VideoRender asks the host to skip the default render of the parent: the
// pipeline already consumed it this tick.
func (f *Filter) VideoRender() {
	if f.ctx == nil {
		return
	}
	f.ctx.SkipVideoFilter()
}

// Destroy removes the render callback, releases the channel and frees the
// textures. Calling Destroy more than once is a no-op.
func (f *Filter) Destroy() {
	render.Exclusive(f.g, func() {
		if f.destroyed {
			return
		}
		f.destroyed = true
		f.rt.RemoveMainRenderCallback(f)
		f.pipeline.Destroy()
	})
	Logger().Info("texshare: filter destroyed", "channel", f.sender.Name())
}

// renderTick is the per-tick callback. The host holds exclusive graphics
// access while it runs. The canvas size is ignored: the pipeline follows
// the parent's native size.
func (f *Filter) renderTick(_, _ uint32) {
	if f.destroyed || f.ctx == nil {
		return
	}
	src := f.ctx.Parent()
	if src == nil {
		return
	}
	w, h := src.BaseWidth(), src.BaseHeight()
	if w == 0 || h == 0 {
		return
	}
	if err := f.pipeline.Render(src, w, h); err != nil {
		Logger().Warn("texshare: render failed", "channel", f.sender.Name(), "err", err)
	}
}

var _ host.Instance = (*Filter)(nil)
