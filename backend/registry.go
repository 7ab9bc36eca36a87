package backend

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/texshare/internal/logx"
)

// Factory creates a new backend instance.
type Factory func() (Backend, error)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	backendPriority = []string{BackendNative, BackendSoftware}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the sorted names of registered backends.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get creates a backend instance by name.
func Get(name string) (Backend, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	b, err := factory()
	if err != nil {
		return nil, fmt.Errorf("backend %q: %w", name, err)
	}
	return b, nil
}

// Default returns the best available backend based on priority.
// Priority order: native > software. A backend whose factory fails is
// skipped with a warning.
func Default() (Backend, error) {
	for _, name := range backendPriority {
		if !IsRegistered(name) {
			continue
		}
		b, err := Get(name)
		if err != nil {
			logx.Logger().Warn("backend unavailable, trying next", "backend", name, "err", err)
			continue
		}
		return b, nil
	}

	// Fallback: first registered backend by name.
	for _, name := range Available() {
		if b, err := Get(name); err == nil {
			return b, nil
		}
	}
	return nil, ErrBackendNotAvailable
}
