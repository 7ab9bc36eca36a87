// Package native provides a GPU graphics backend on top of gogpu/wgpu hal.
//
// Textures are hal textures with a default view. Clear encodes a render pass
// whose only effect is the load-op clear; CopyTexture encodes a
// texture-to-texture copy. Every command buffer is submitted with a fence
// and waited on, so the caller observes finished GPU work when a call
// returns.
//
// hal does not expose OS-level shareable handles, so shared textures get a
// process-local handle from a counter. Consumers in the same process (or a
// Directory that maps handles) can still resolve them.
//
// The backend registers itself as "native" on import and opens the Vulkan
// hal backend on first use. Build with -tags nogpu to leave it out.
package native
