package backend

import (
	"errors"

	"github.com/gogpu/texshare/render"
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU-based software backend.
	BackendSoftware = "software"
	// BackendNative is the name of the Pure Go GPU backend (gogpu/wgpu).
	BackendNative = "native"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Backend is a graphics subsystem that can be shut down.
//
// Backends must be registered via Register() and are selected via
// Get() or Default().
type Backend interface {
	render.Graphics

	// Name returns the backend identifier (e.g., "software", "native").
	Name() string

	// Close releases all backend resources.
	// The backend should not be used after Close is called.
	Close()
}
