// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access from the host application.
//
// Key principle: texshare RECEIVES its graphics device from the host, it
// does NOT create one. Backends that sit on a host-owned device report it
// through DeviceOwner.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider.
type DeviceHandle = gpucontext.DeviceProvider

// DeviceOwner is implemented by Graphics backends that can report the
// device they render with.
type DeviceOwner interface {
	DeviceHandle() DeviceHandle
}

// TextureDescriptor describes parameters for creating a texture.
// This mirrors the WebGPU GPUTextureDescriptor specification.
type TextureDescriptor struct {
	// Label is an optional debug label for the texture.
	Label string

	// Width is the texture width in pixels.
	Width uint32

	// Height is the texture height in pixels.
	Height uint32

	// Format is the texture pixel format.
	Format gputypes.TextureFormat

	// Usage specifies how the texture will be used.
	Usage TextureUsage
}

// TextureUsage specifies how a texture can be used.
// These flags can be combined with bitwise OR.
type TextureUsage uint32

const (
	// TextureUsageCopySrc allows the texture to be used as a copy source.
	TextureUsageCopySrc TextureUsage = 1 << iota

	// TextureUsageCopyDst allows the texture to be used as a copy destination.
	TextureUsageCopyDst

	// TextureUsageTextureBinding allows the texture to be used in a texture binding.
	TextureUsageTextureBinding

	// TextureUsageRenderAttachment allows the texture to be used as a render target.
	TextureUsageRenderAttachment

	// TextureUsageShared allocates the texture so that its native handle can
	// be opened by another process on the same device.
	TextureUsageShared
)

// Has reports whether all flags in f are set.
func (u TextureUsage) Has(f TextureUsage) bool { return u&f == f }

// GPU converts the usage to WebGPU usage flags. TextureUsageShared has no
// WebGPU equivalent and is dropped.
func (u TextureUsage) GPU() gputypes.TextureUsage {
	var out gputypes.TextureUsage
	if u.Has(TextureUsageCopySrc) {
		out |= gputypes.TextureUsageCopySrc
	}
	if u.Has(TextureUsageCopyDst) {
		out |= gputypes.TextureUsageCopyDst
	}
	if u.Has(TextureUsageTextureBinding) {
		out |= gputypes.TextureUsageTextureBinding
	}
	if u.Has(TextureUsageRenderAttachment) {
		out |= gputypes.TextureUsageRenderAttachment
	}
	return out
}

// Texture represents a GPU texture resource owned by a Graphics backend.
type Texture interface {
	// Width returns the texture width in pixels.
	Width() uint32

	// Height returns the texture height in pixels.
	Height() uint32

	// Format returns the texture pixel format.
	Format() gputypes.TextureFormat

	// Usage returns the flags the texture was created with.
	Usage() TextureUsage

	// SharedHandle returns the native cross-process handle, or 0 if the
	// texture was not created with TextureUsageShared.
	SharedHandle() uintptr
}

// RenderTargetDescriptor returns a descriptor for an off-screen render
// target that can be copied from.
func RenderTargetDescriptor(label string, width, height uint32, format gputypes.TextureFormat) TextureDescriptor {
	return TextureDescriptor{
		Label:  label,
		Width:  width,
		Height: height,
		Format: format,
		Usage:  TextureUsageRenderAttachment | TextureUsageCopySrc | TextureUsageTextureBinding,
	}
}

// SharedTextureDescriptor returns a descriptor for a render target whose
// native handle can be published to other processes.
func SharedTextureDescriptor(label string, width, height uint32, format gputypes.TextureFormat) TextureDescriptor {
	return TextureDescriptor{
		Label:  label,
		Width:  width,
		Height: height,
		Format: format,
		Usage:  TextureUsageRenderAttachment | TextureUsageCopyDst | TextureUsageShared,
	}
}

// NullDeviceHandle is a DeviceHandle that provides nil implementations.
// Used by CPU-only backends where no GPU is available.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}
