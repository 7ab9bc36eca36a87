package host

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/texshare/settings"
)

// Instance is a live filter created by a Registry.
type Instance interface {
	// Update applies new configuration.
	Update(data *settings.Data)

	// VideoRender is called in place of the default render of the parent.
	VideoRender()

	// Destroy releases everything the instance owns.
	Destroy()
}

// FilterInfo describes a filter type.
type FilterInfo struct {
	// ID is the stable identifier, e.g. "texshare_filter".
	ID string

	// Name is the display name.
	Name string

	// Defaults fills in default settings before construction. Optional.
	Defaults func(data *settings.Data)

	// Create constructs an instance.
	Create func(rt Runtime, ctx Context, data *settings.Data) Instance
}

// Registry maps filter ids to their descriptions. It is safe for
// concurrent use.
type Registry struct {
	rt Runtime

	mu    sync.RWMutex
	infos map[string]FilterInfo
}

// NewRegistry returns an empty registry whose filters run on rt.
func NewRegistry(rt Runtime) *Registry {
	return &Registry{rt: rt, infos: make(map[string]FilterInfo)}
}

// Register adds info.
func (r *Registry) Register(info FilterInfo) error {
	if info.ID == "" || info.Create == nil {
		return fmt.Errorf("%w: %q", ErrInvalidFilter, info.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.infos[info.ID]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateFilter, info.ID)
	}
	r.infos[info.ID] = info
	return nil
}

// Lookup returns the info registered under id.
func (r *Registry) Lookup(id string) (FilterInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.infos[id]
	if !ok {
		return FilterInfo{}, fmt.Errorf("%w: %q", ErrUnknownFilter, id)
	}
	return info, nil
}

// IDs returns the registered ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.infos))
	for id := range r.infos {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Create applies the filter's defaults to data and constructs an instance
// attached to ctx. A nil data uses ctx.Settings().
func (r *Registry) Create(id string, ctx Context, data *settings.Data) (Instance, error) {
	info, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = ctx.Settings()
	}
	if info.Defaults != nil {
		info.Defaults(data)
	}
	return info.Create(r.rt, ctx, data), nil
}
