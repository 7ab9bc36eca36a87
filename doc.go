// Package texshare is a video filter that publishes the frame of the source
// it is attached to as a shared GPU texture on a named channel, so other
// processes on the same machine can read it.
//
// # Overview
//
// A Filter is created by the host for every effect instance. It registers a
// per-tick render callback and, on every tick, its Pipeline renders the
// upstream source into one of two off-screen buffers, copies the buffer
// finished on the previous tick into the shared texture and swaps the
// buffers. When the upstream size changes, all three textures are
// recreated and the channel is published again against the new texture.
//
// The channel name comes from the instance settings (key
// settings.KeySenderName). Applying settings with a different name
// releases the old channel and publishes the new one without touching the
// render buffers.
//
// # Quick Start
//
//	g := software.New()
//	loop := host.NewLoop(g)
//	src := host.NewPatternSource(1920, 1080)
//	ctx := host.NewEffect(src, settings.New())
//
//	reg := host.NewRegistry(loop)
//	texshare.Register(reg, texshare.WithDirectory(share.NewMemoryDirectory()))
//	f, _ := reg.Create(texshare.FilterID, ctx, nil)
//	defer f.Destroy()
//
//	loop.Tick(1920, 1080)
//
// # Architecture
//
//   - render: the host graphics contract (textures, targets, state stacks)
//   - backend: graphics backends (software, native hal)
//   - share: channel directory, name ownership and the Sender
//   - host: host contracts plus a reference runtime
//   - settings: configuration blob, TOML loading and file watching
//
// # Thread Safety
//
// Render callbacks run with exclusive graphics access held by the host.
// Update and Destroy take that access themselves; do not call them from
// inside a render callback.
package texshare

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
