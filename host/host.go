// Package host defines what a compositing host provides to a video filter
// and ships a small reference runtime implementing it.
//
// The contracts are Source (the upstream producer a filter is attached
// to), Context (the hosting effect instance) and Runtime (graphics access
// and per-tick callbacks). Loop, Effect and Registry implement them for
// tests and the demo command.
package host

import (
	"errors"

	"github.com/gogpu/texshare/render"
	"github.com/gogpu/texshare/settings"
)

// Host errors.
var (
	// ErrUnknownFilter is returned when creating a filter id that was never registered.
	ErrUnknownFilter = errors.New("host: unknown filter")

	// ErrDuplicateFilter is returned when registering an id twice.
	ErrDuplicateFilter = errors.New("host: filter already registered")

	// ErrInvalidFilter is returned when registering a FilterInfo without id or constructor.
	ErrInvalidFilter = errors.New("host: invalid filter info")
)

// Source is an upstream producer of frames.
type Source interface {
	// BaseWidth returns the source's native width in pixels.
	BaseWidth() uint32

	// BaseHeight returns the source's native height in pixels.
	BaseHeight() uint32

	// VideoRender paints the current frame into the bound render target.
	VideoRender(g render.Graphics)
}

// Context is the hosting effect instance a filter is attached to.
type Context interface {
	// Parent returns the upstream source, or nil while detached.
	Parent() Source

	// Settings returns the instance's current configuration.
	Settings() *settings.Data

	// SkipVideoFilter tells the host not to render the parent through the
	// default compositing path for this frame.
	SkipVideoFilter()
}

// RenderCallback is invoked once per global render tick with the output
// canvas size.
type RenderCallback func(cx, cy uint32)

// Runtime is the host's graphics and scheduling surface.
type Runtime interface {
	// Graphics returns the host graphics subsystem.
	Graphics() render.Graphics

	// AddMainRenderCallback registers cb under key, replacing a previous
	// callback with the same key. Callers hold exclusive graphics access.
	AddMainRenderCallback(key any, cb RenderCallback)

	// RemoveMainRenderCallback removes the callback registered under key.
	// Removing an unknown key is a no-op. Callers hold exclusive graphics
	// access.
	RemoveMainRenderCallback(key any)
}
