package host

import (
	"sync"

	"github.com/gogpu/texshare/settings"
)

// Effect is a reference Context: one filter slot in a source's effect
// chain.
type Effect struct {
	mu      sync.Mutex
	parent  Source
	data    *settings.Data
	skipped int
}

// NewEffect returns an effect attached to parent. A nil data gets empty
// settings.
func NewEffect(parent Source, data *settings.Data) *Effect {
	if data == nil {
		data = settings.New()
	}
	return &Effect{parent: parent, data: data}
}

// Parent returns the upstream source, or nil while detached.
func (e *Effect) Parent() Source {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.parent
}

// SetParent attaches the effect to s. Passing nil detaches it.
func (e *Effect) SetParent(s Source) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.parent = s
}

// Settings returns the effect's configuration.
func (e *Effect) Settings() *settings.Data {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.data
}

// SetSettings replaces the effect's configuration.
func (e *Effect) SetSettings(d *settings.Data) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.data = d
}

// SkipVideoFilter records a skip request.
func (e *Effect) SkipVideoFilter() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.skipped++
}

// Skipped returns the number of skip requests received.
func (e *Effect) Skipped() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.skipped
}

var _ Context = (*Effect)(nil)
