package host

import (
	"sync"

	"github.com/gogpu/texshare/render"
)

type callbackEntry struct {
	key any
	cb  RenderCallback
}

// Loop is a single-threaded reference Runtime. Tick runs every registered
// callback in registration order while holding exclusive graphics access,
// the way a compositor serializes its per-frame render callbacks.
type Loop struct {
	g render.Graphics

	mu        sync.Mutex
	callbacks []callbackEntry
	ticks     uint64
}

// NewLoop returns a loop rendering with g.
func NewLoop(g render.Graphics) *Loop {
	return &Loop{g: g}
}

// Graphics returns the loop's graphics subsystem.
func (l *Loop) Graphics() render.Graphics { return l.g }

// AddMainRenderCallback registers cb under key.
func (l *Loop) AddMainRenderCallback(key any, cb RenderCallback) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.callbacks {
		if l.callbacks[i].key == key {
			l.callbacks[i].cb = cb
			return
		}
	}
	l.callbacks = append(l.callbacks, callbackEntry{key: key, cb: cb})
}

// RemoveMainRenderCallback removes the callback registered under key.
func (l *Loop) RemoveMainRenderCallback(key any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.callbacks {
		if l.callbacks[i].key == key {
			l.callbacks = append(l.callbacks[:i], l.callbacks[i+1:]...)
			return
		}
	}
}

// Callbacks returns the number of registered callbacks.
func (l *Loop) Callbacks() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.callbacks)
}

// Ticks returns the number of completed ticks.
func (l *Loop) Ticks() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ticks
}

// Tick runs one render tick at canvas size cx x cy. Callbacks registered
// or removed during the tick take effect on the next one.
func (l *Loop) Tick(cx, cy uint32) {
	l.g.Enter()
	defer l.g.Leave()

	l.mu.Lock()
	snapshot := make([]callbackEntry, len(l.callbacks))
	copy(snapshot, l.callbacks)
	l.mu.Unlock()

	for _, e := range snapshot {
		e.cb(cx, cy)
	}

	l.mu.Lock()
	l.ticks++
	l.mu.Unlock()
}

var _ Runtime = (*Loop)(nil)
