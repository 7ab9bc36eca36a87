//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan" // registers the Vulkan hal backend

	"github.com/gogpu/texshare/backend"
)

func init() {
	backend.Register(backend.BackendNative, openVulkan)
}

func openVulkan() (backend.Backend, error) {
	api, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("native: vulkan: %w", backend.ErrBackendNotAvailable)
	}
	return Open(api)
}
