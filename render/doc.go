// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render defines the host graphics contract texshare renders through.
//
// # Key Principle
//
// texshare RECEIVES a graphics subsystem from the host application, it does
// NOT create its own. The host owns the device, the render-target stack and
// the exclusive-access lock; texshare only allocates its own textures and
// issues clear, draw and copy commands against them.
//
// # Core Interfaces
//
//   - Graphics: texture allocation, render-target binding, transform and
//     blend stacks, clear, copy, and exclusive access (Enter/Leave)
//   - Texture: a backend texture with an optional cross-process handle
//   - DeviceHandle: GPU device access, an alias of gpucontext.DeviceProvider
//
// StateStack implements the target, transform and blend parts of Graphics
// so backends only provide allocation, clear and copy.
//
// # Scoped State
//
// Host state touched during a render call must be restored on every exit
// path. The helpers return the undo step so it can be deferred:
//
//	pop := render.PushTransforms(g)
//	defer pop()
//	restore := render.BindTarget(g, buffer, render.ColorSpaceSRGB)
//	defer restore()
//	popBlend := render.PushBlend(g, render.BlendOverwrite)
//	defer popBlend()
//
// # Thread Safety
//
// Graphics implementations serialize through Enter/Leave. Every other
// method assumes the caller holds exclusive access.
package render
