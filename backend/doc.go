// Package backend provides a pluggable graphics backend registry.
//
// A backend is a render.Graphics implementation with a name and a Close
// method. Hosts that own a real graphics device pass their own
// render.Graphics to texshare directly; the registry serves standalone
// hosts such as the demo command.
//
// # Backend Registration
//
// The software backend registers itself on import:
//
//	import _ "github.com/gogpu/texshare/backend/software"
//
// The native backend needs a wgpu HAL API and registers explicitly:
//
//	native.Register(vulkan.API{})
//
// # Backend Selection
//
//	// Best available backend (native > software)
//	b, err := backend.Default()
//
//	// Or a specific backend
//	b, err := backend.Get(backend.BackendSoftware)
package backend
