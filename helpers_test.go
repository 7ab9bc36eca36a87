package texshare

import (
	"errors"
	"fmt"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/texshare/backend/software"
	"github.com/gogpu/texshare/host"
	"github.com/gogpu/texshare/render"
	"github.com/gogpu/texshare/settings"
	"github.com/gogpu/texshare/share"
)

// recordingDirectory is a MemoryDirectory that logs every call.
type recordingDirectory struct {
	*share.MemoryDirectory
	events    []string
	onRelease func()
}

func newRecordingDirectory() *recordingDirectory {
	return &recordingDirectory{MemoryDirectory: share.NewMemoryDirectory()}
}

func (d *recordingDirectory) Register(ch share.Channel) error {
	d.events = append(d.events, fmt.Sprintf("create %s %dx%d", ch.Name, ch.Width, ch.Height))
	return d.MemoryDirectory.Register(ch)
}

func (d *recordingDirectory) Unregister(ch share.Channel) error {
	d.events = append(d.events, "release "+ch.Name)
	if d.onRelease != nil {
		d.onRelease()
	}
	return d.MemoryDirectory.Unregister(ch)
}

// since returns the events logged after the first n.
func (d *recordingDirectory) since(n int) []string {
	return append([]string(nil), d.events[n:]...)
}

var errInjected = errors.New("injected allocation failure")

// trackingGraphics wraps the software backend, logs destroyed texture
// labels and can fail allocations by label.
type trackingGraphics struct {
	*software.Graphics
	destroyed []string
	failLabel string
}

func newTrackingGraphics() *trackingGraphics {
	return &trackingGraphics{Graphics: software.New()}
}

func (g *trackingGraphics) CreateTexture(desc render.TextureDescriptor) (render.Texture, error) {
	if desc.Label == g.failLabel {
		return nil, errInjected
	}
	return g.Graphics.CreateTexture(desc)
}

func (g *trackingGraphics) DestroyTexture(t render.Texture) {
	if st, ok := t.(*software.Texture); ok && st != nil {
		g.destroyed = append(g.destroyed, st.Label())
	}
	g.Graphics.DestroyTexture(t)
}

var errClear = errors.New("injected clear failure")

// failClearGraphics is the software backend with a failing Clear.
type failClearGraphics struct {
	*software.Graphics
	clears int
}

func (g *failClearGraphics) Clear(gputypes.Color) error {
	g.clears++
	return errClear
}

// frameSource clears the target to frameColor(n) on its n-th render,
// counting from 1, and checks the state it renders under.
type frameSource struct {
	t      *testing.T
	width  uint32
	height uint32
	frames uint64
	drawn  []render.Texture
}

func (s *frameSource) BaseWidth() uint32  { return s.width }
func (s *frameSource) BaseHeight() uint32 { return s.height }

func (s *frameSource) VideoRender(g render.Graphics) {
	s.frames++
	target := g.RenderTarget()
	s.drawn = append(s.drawn, target)

	if g.ColorSpace() != render.ColorSpaceSRGB {
		s.t.Errorf("frame %d rendered under %v, want srgb", s.frames, g.ColorSpace())
	}
	if !g.BlendState().Overwrites() {
		s.t.Errorf("frame %d rendered with blend %+v, want overwrite", s.frames, g.BlendState())
	}
	c := frameColor(s.frames)
	if err := g.Clear(gputypes.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: 1,
	}); err != nil {
		s.t.Errorf("frame %d clear: %v", s.frames, err)
	}
}

func frameColor(n uint64) color.RGBA {
	return color.RGBA{R: uint8(n), G: 0x80, B: 0x40, A: 0xff}
}

// fixture is a filter on a software loop with a recording directory.
type fixture struct {
	g      *trackingGraphics
	loop   *host.Loop
	dir    *recordingDirectory
	src    *frameSource
	ctx    *host.Effect
	filter *Filter
}

func newFixture(t *testing.T, name string, opts ...FilterOption) *fixture {
	t.Helper()
	g := newTrackingGraphics()
	t.Cleanup(g.Close)

	fx := &fixture{
		g:    g,
		loop: host.NewLoop(g),
		dir:  newRecordingDirectory(),
		src:  &frameSource{t: t},
	}
	data := settings.New()
	Defaults(data)
	if name != "" {
		data.SetString(settings.KeySenderName, name)
	}
	fx.ctx = host.NewEffect(fx.src, data)

	opts = append([]FilterOption{WithDirectory(fx.dir)}, opts...)
	fx.filter = NewFilter(fx.loop, fx.ctx, nil, opts...)
	t.Cleanup(fx.filter.Destroy)
	return fx
}

// tick renders one host frame with the source at width x height.
func (fx *fixture) tick(width, height uint32) {
	fx.src.width, fx.src.height = width, height
	fx.loop.Tick(1920, 1080)
}

// sharedPixel returns the top-left pixel of the shared texture.
func (fx *fixture) sharedPixel(t *testing.T) color.RGBA {
	t.Helper()
	tex, ok := fx.filter.Pipeline().SharedTexture().(*software.Texture)
	if !ok {
		t.Fatal("no shared texture")
	}
	return tex.Image().RGBAAt(0, 0)
}

func equalEvents(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
