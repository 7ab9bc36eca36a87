package share

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

// MemoryDirectory is an in-process Catalog. It is safe for concurrent use.
type MemoryDirectory struct {
	mu       sync.RWMutex
	owner    int
	channels map[string]Channel
}

// NewMemoryDirectory returns an empty directory owned by this process.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		owner:    os.Getpid(),
		channels: make(map[string]Channel),
	}
}

// Register publishes ch. A name held by another sender returns ErrExists.
func (d *MemoryDirectory) Register(ch Channel) error {
	if ch.Name == "" {
		return ErrEmptyName
	}
	if ch.Owner == 0 {
		ch.Owner = d.owner
	}
	key := Key(ch.Name)

	d.mu.Lock()
	defer d.mu.Unlock()
	if cur, ok := d.channels[key]; ok && !cur.SameHolder(ch) {
		return fmt.Errorf("%w: %q held by owner %d sender %d", ErrExists, ch.Name, cur.Owner, cur.Sender)
	}
	d.channels[key] = ch
	return nil
}

// Unregister removes ch.Name if ch's sender holds it.
func (d *MemoryDirectory) Unregister(ch Channel) error {
	if ch.Owner == 0 {
		ch.Owner = d.owner
	}
	key := Key(ch.Name)

	d.mu.Lock()
	defer d.mu.Unlock()
	cur, ok := d.channels[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, ch.Name)
	}
	if !cur.SameHolder(ch) {
		return fmt.Errorf("%w: %q", ErrNotOwner, ch.Name)
	}
	delete(d.channels, key)
	return nil
}

// Lookup returns the named channel.
func (d *MemoryDirectory) Lookup(name string) (Channel, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ch, ok := d.channels[Key(name)]
	if !ok {
		return Channel{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return ch, nil
}

// List returns all channels sorted by name.
func (d *MemoryDirectory) List() ([]Channel, error) {
	d.mu.RLock()
	out := make([]Channel, 0, len(d.channels))
	for _, ch := range d.channels {
		out = append(out, ch)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Len returns the number of registered channels.
func (d *MemoryDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.channels)
}

var _ Catalog = (*MemoryDirectory)(nil)
