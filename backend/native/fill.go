//go:build !nogpu

package native

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/texshare/render"
)

//go:embed shaders/fill.wgsl
var fillShaderWGSL string

// fillVertexStride is the byte stride per vertex.
// Layout per vertex:
//
//	position (vec2<f32>) = 8 bytes  (location 0, clip space)
//	color    (vec4<f32>) = 16 bytes (location 1, premultiplied)
const fillVertexStride = 24

// fillPipelineKey selects a pipeline variant. Pipelines are specialised on
// the target format and the blend function.
type fillPipelineKey struct {
	format gputypes.TextureFormat
	blend  render.Blend
}

// fillResources holds the lazily created solid-fill GPU objects.
type fillResources struct {
	shader    hal.ShaderModule
	layout    hal.PipelineLayout
	pipelines map[fillPipelineKey]hal.RenderPipeline
}

// compileFillShader compiles the fill shader to SPIR-V words.
func compileFillShader() ([]uint32, error) {
	spirvBytes, err := naga.Compile(fillShaderWGSL)
	if err != nil {
		return nil, fmt.Errorf("native: compile fill shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return code, nil
}

// FillRect paints r on the bound target, clipped to the viewport, using the
// current blend function. The rectangle is drawn as two triangles by a
// render pass that loads the existing contents.
func (g *Graphics) FillRect(r image.Rectangle, c color.Color) error {
	target := g.RenderTarget()
	if target == nil {
		return render.ErrNoRenderTarget
	}
	dst, err := g.own(target)
	if err != nil {
		return err
	}

	vp := g.Viewport()
	clip := image.Rect(vp.X, vp.Y, vp.X+vp.Width, vp.Y+vp.Height).
		Intersect(image.Rect(0, 0, int(dst.width), int(dst.height)))
	r = r.Intersect(clip)
	if r.Empty() {
		return nil
	}

	pipeline, err := g.fillPipeline(dst.format, g.BlendState())
	if err != nil {
		return err
	}

	data := fillVertices(r, dst.width, dst.height, c)
	vertBuf, err := g.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "texshare_fill_verts",
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("native: create fill vertex buffer: %w", err)
	}
	defer g.device.DestroyBuffer(vertBuf)
	g.queue.WriteBuffer(vertBuf, 0, data)

	return g.submit("texshare_fill", func(encoder hal.CommandEncoder) {
		rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "texshare_fill_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:    dst.view,
				LoadOp:  gputypes.LoadOpLoad,
				StoreOp: gputypes.StoreOpStore,
			}},
		})
		rp.SetPipeline(pipeline)
		rp.SetVertexBuffer(0, vertBuf, 0)
		rp.Draw(6, 1, 0, 0)
		rp.End()
	})
}

// fillPipeline returns the pipeline for format and blend, creating the
// shared shader module and layout on first use.
func (g *Graphics) fillPipeline(format gputypes.TextureFormat, blend render.Blend) (hal.RenderPipeline, error) {
	key := fillPipelineKey{format: format, blend: blend}
	if p, ok := g.fill.pipelines[key]; ok {
		return p, nil
	}

	if g.fill.shader == nil {
		code, err := compileFillShader()
		if err != nil {
			return nil, err
		}
		shader, err := g.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  "texshare_fill_shader",
			Source: hal.ShaderSource{SPIRV: code},
		})
		if err != nil {
			return nil, fmt.Errorf("native: create fill shader module: %w", err)
		}
		g.fill.shader = shader
	}

	if g.fill.layout == nil {
		layout, err := g.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
			Label: "texshare_fill_layout",
		})
		if err != nil {
			return nil, fmt.Errorf("native: create fill pipeline layout: %w", err)
		}
		g.fill.layout = layout
	}

	state := blendState(blend)
	pipeline, err := g.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "texshare_fill_pipeline",
		Layout: g.fill.layout,
		Vertex: hal.VertexState{
			Module:     g.fill.shader,
			EntryPoint: "vs_main",
			Buffers:    fillVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     g.fill.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    format,
				Blend:     &state,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("native: create fill pipeline: %w", err)
	}

	if g.fill.pipelines == nil {
		g.fill.pipelines = make(map[fillPipelineKey]hal.RenderPipeline)
	}
	g.fill.pipelines[key] = pipeline
	return pipeline, nil
}

// destroyFill releases the fill pipelines, layout and shader module.
func (g *Graphics) destroyFill() {
	for key, p := range g.fill.pipelines {
		g.device.DestroyRenderPipeline(p)
		delete(g.fill.pipelines, key)
	}
	if g.fill.layout != nil {
		g.device.DestroyPipelineLayout(g.fill.layout)
		g.fill.layout = nil
	}
	if g.fill.shader != nil {
		g.device.DestroyShaderModule(g.fill.shader)
		g.fill.shader = nil
	}
}

// FillPipelines returns the number of cached fill pipeline variants.
func (g *Graphics) FillPipelines() int { return len(g.fill.pipelines) }

func blendState(b render.Blend) gputypes.BlendState {
	c := gputypes.BlendComponent{
		SrcFactor: b.Src,
		DstFactor: b.Dst,
		Operation: b.Op,
	}
	return gputypes.BlendState{Color: c, Alpha: c}
}

func fillVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{{
		ArrayStride: fillVertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
			{Format: gputypes.VertexFormatFloat32x4, Offset: 8, ShaderLocation: 1}, // color
		},
	}}
}

// fillVertices builds two triangles covering r on a width x height target.
func fillVertices(r image.Rectangle, width, height uint32, c color.Color) []byte {
	cr, cg, cb, ca := c.RGBA()
	rgba := [4]float32{
		float32(cr) / 0xffff,
		float32(cg) / 0xffff,
		float32(cb) / 0xffff,
		float32(ca) / 0xffff,
	}

	x0, y0 := toClip(r.Min.X, r.Min.Y, width, height)
	x1, y1 := toClip(r.Max.X, r.Max.Y, width, height)

	// Triangle 1: TL, TR, BL. Triangle 2: TR, BR, BL.
	corners := [6][2]float32{
		{x0, y0}, {x1, y0}, {x0, y1},
		{x1, y0}, {x1, y1}, {x0, y1},
	}

	buf := make([]byte, len(corners)*fillVertexStride)
	for i, p := range corners {
		v := buf[i*fillVertexStride:]
		binary.LittleEndian.PutUint32(v[0:4], math.Float32bits(p[0]))
		binary.LittleEndian.PutUint32(v[4:8], math.Float32bits(p[1]))
		for j, ch := range rgba {
			binary.LittleEndian.PutUint32(v[8+4*j:], math.Float32bits(ch))
		}
	}
	return buf
}

// toClip maps a pixel position to clip space, with y pointing down in
// pixels and up in clip space.
func toClip(x, y int, width, height uint32) (float32, float32) {
	return 2*float32(x)/float32(width) - 1, 1 - 2*float32(y)/float32(height)
}

var _ render.RectFiller = (*Graphics)(nil)
