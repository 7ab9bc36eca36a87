// Command texshare runs a test pattern through the shared texture filter
// on a simulated host loop and publishes it on a named channel.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gogpu/texshare"
	"github.com/gogpu/texshare/backend"
	_ "github.com/gogpu/texshare/backend/native"
	"github.com/gogpu/texshare/backend/software"
	"github.com/gogpu/texshare/host"
	"github.com/gogpu/texshare/settings"
	"github.com/gogpu/texshare/share"
	"github.com/gogpu/texshare/share/sqlitedir"
)

type options struct {
	backend   string
	frames    int
	interval  time.Duration
	size      string
	resize    string
	resizeAt  int
	name      string
	settings  string
	directory string
	list      bool
	forget    int
	output    string
	verbose   bool
}

func main() {
	var o options
	flag.StringVar(&o.backend, "backend", "", "graphics backend (software, native); empty picks the best available")
	flag.IntVar(&o.frames, "frames", 60, "number of host ticks to run")
	flag.DurationVar(&o.interval, "interval", 16*time.Millisecond, "delay between ticks")
	flag.StringVar(&o.size, "size", "640x360", "source size WxH")
	flag.StringVar(&o.resize, "resize", "", "resize the source to WxH during the run")
	flag.IntVar(&o.resizeAt, "resize-at", 30, "tick at which -resize applies")
	flag.StringVar(&o.name, "name", "", "channel name (overrides settings)")
	flag.StringVar(&o.settings, "settings", "", "TOML settings file, reloaded on change")
	flag.StringVar(&o.directory, "directory", "", "SQLite channel directory; empty keeps channels in memory")
	flag.BoolVar(&o.list, "list", false, "list published channels and exit")
	flag.IntVar(&o.forget, "forget", 0, "remove channels left in -directory by the given owner process id and exit")
	flag.StringVar(&o.output, "output", "", "write the last shared frame to a PNG file (software backend)")
	flag.BoolVar(&o.verbose, "v", false, "verbose logging")
	flag.Parse()

	if o.verbose {
		texshare.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	} else {
		texshare.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, o); err != nil {
		log.Fatalf("texshare: %v", err)
	}
}

func run(ctx context.Context, o options) error {
	dir, closeDir, err := openDirectory(o.directory)
	if err != nil {
		return err
	}
	defer closeDir()

	if o.forget != 0 {
		return forgetOwner(dir, o.forget)
	}
	if o.list {
		return listChannels(dir)
	}

	width, height, err := parseSize(o.size)
	if err != nil {
		return fmt.Errorf("-size: %w", err)
	}
	var resizeW, resizeH uint32
	if o.resize != "" {
		if resizeW, resizeH, err = parseSize(o.resize); err != nil {
			return fmt.Errorf("-resize: %w", err)
		}
	}

	var b backend.Backend
	if o.backend == "" {
		b, err = backend.Default()
	} else {
		b, err = backend.Get(o.backend)
	}
	if err != nil {
		return err
	}
	defer b.Close()
	log.Printf("Using %s backend", b.Name())

	defaults := settings.New()
	texshare.Defaults(defaults)
	data := defaults.Clone()
	if o.settings != "" {
		loaded, err := settings.Load(o.settings)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Printf("Settings file %s not found, using defaults", o.settings)
		case err != nil:
			return err
		default:
			data.Apply(loaded)
		}
	}
	if o.name != "" {
		data.SetString(settings.KeySenderName, o.name)
	}

	loop := host.NewLoop(b)
	src := host.NewPatternSource(width, height)
	effect := host.NewEffect(src, data)

	reg := host.NewRegistry(loop)
	if err := texshare.Register(reg, texshare.WithDirectory(dir)); err != nil {
		return err
	}
	inst, err := reg.Create(texshare.FilterID, effect, nil)
	if err != nil {
		return err
	}
	defer inst.Destroy()
	filter := inst.(*texshare.Filter)

	if o.settings != "" {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			err := settings.Watch(watchCtx, o.settings, func(loaded *settings.Data) {
				next := defaults.Clone()
				next.Apply(loaded)
				if o.name != "" {
					next.SetString(settings.KeySenderName, o.name)
				}
				effect.SetSettings(next)
				filter.Apply()
				log.Printf("Settings reloaded, channel %q", filter.ChannelName())
			})
			if err != nil {
				log.Printf("Settings watch stopped: %v", err)
			}
		}()
	}

	ticker := time.NewTicker(max(o.interval, time.Millisecond))
	defer ticker.Stop()

ticks:
	for i := 0; i < o.frames; i++ {
		if resizeW != 0 && i == o.resizeAt {
			src.Resize(resizeW, resizeH)
			log.Printf("Resized source to %dx%d", resizeW, resizeH)
		}
		inst.VideoRender()
		loop.Tick(width, height)

		select {
		case <-ctx.Done():
			log.Printf("Interrupted after %d ticks", i+1)
			break ticks
		case <-ticker.C:
		}
	}

	stats := filter.Pipeline().Stats()
	w, h := filter.Pipeline().Size()
	log.Printf("Published %q at %dx%d: %d frames, %d copies, %d resets",
		filter.ChannelName(), w, h, stats.Frames, stats.Copies, stats.Resets)

	if o.output != "" {
		if err := writePNG(o.output, filter); err != nil {
			return err
		}
		log.Printf("Last shared frame saved to %s", o.output)
	}
	return listChannels(dir)
}

// openDirectory returns the channel catalog and its close function.
func openDirectory(path string) (share.Catalog, func(), error) {
	if path == "" {
		return share.NewMemoryDirectory(), func() {}, nil
	}
	d, err := sqlitedir.Open(path, sqlitedir.WithOwner(os.Getpid()))
	if err != nil {
		return nil, nil, err
	}
	return d, func() {
		if err := d.Close(); err != nil {
			log.Printf("Closing directory: %v", err)
		}
	}, nil
}

// forgetOwner removes the rows of a process that exited without releasing
// its channels.
func forgetOwner(c share.Catalog, owner int) error {
	d, ok := c.(*sqlitedir.Directory)
	if !ok {
		return errors.New("-forget needs -directory")
	}
	if owner == d.Owner() {
		return fmt.Errorf("-forget: %d is this process", owner)
	}
	n, err := d.RemoveOwner(owner)
	if err != nil {
		return err
	}
	log.Printf("Removed %d channels of owner %d", n, owner)
	return nil
}

func listChannels(c share.Catalog) error {
	channels, err := c.List()
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		fmt.Println("no channels")
		return nil
	}
	for _, ch := range channels {
		fmt.Println(ch)
	}
	return nil
}

func writePNG(path string, f *texshare.Filter) error {
	tex, ok := f.Pipeline().SharedTexture().(*software.Texture)
	if !ok {
		return errors.New("-output needs the software backend and at least one published frame")
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, tex.Image()); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// parseSize parses "WxH" into non-zero dimensions.
func parseSize(s string) (width, height uint32, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q is not WxH", s)
	}
	w, err := strconv.ParseUint(ws, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: width: %w", s, err)
	}
	h, err := strconv.ParseUint(hs, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: height: %w", s, err)
	}
	if w == 0 || h == 0 {
		return 0, 0, fmt.Errorf("size %q must be non-zero", s)
	}
	return uint32(w), uint32(h), nil
}
