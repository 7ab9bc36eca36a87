package texshare

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/texshare/share"
)

// DefaultFormat is the pixel format of the buffers and the shared texture.
const DefaultFormat = gputypes.TextureFormatRGBA8Unorm

// FilterOption configures a Filter during creation.
// Use functional options to customize Filter behavior.
//
// Example:
//
//	// Default: RGBA8 textures published into a fresh in-memory directory
//	f := texshare.NewFilter(rt, ctx, data)
//
//	// Cross-process directory (dependency injection)
//	dir, _ := sqlitedir.Open("/run/texshare/channels.db")
//	f := texshare.NewFilter(rt, ctx, data, texshare.WithDirectory(dir))
type FilterOption func(*filterOptions)

// filterOptions holds optional configuration for Filter creation.
type filterOptions struct {
	format         gputypes.TextureFormat
	directory      share.Directory
	firstFrameCopy bool
}

// defaultOptions returns the default filter options.
func defaultOptions() filterOptions {
	return filterOptions{
		format:    DefaultFormat,
		directory: nil, // Will be set to a MemoryDirectory if nil
	}
}

// WithFormat sets the pixel format. The format is fixed for the lifetime
// of the filter.
func WithFormat(f gputypes.TextureFormat) FilterOption {
	return func(o *filterOptions) {
		o.format = f
	}
}

// WithDirectory sets the directory channels are published into.
func WithDirectory(d share.Directory) FilterOption {
	return func(o *filterOptions) {
		o.directory = d
	}
}

// WithFirstFrameCopy controls the copy on the first tick after a resize.
// By default that copy is skipped because the ready buffer has not been
// rendered at the new size yet, and the shared texture stays blank for
// one tick. Enabling it copies the freshly cleared buffer instead.
func WithFirstFrameCopy(enabled bool) FilterOption {
	return func(o *filterOptions) {
		o.firstFrameCopy = enabled
	}
}
