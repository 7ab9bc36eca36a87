// Package pingpong provides a two-slot resource pair whose roles alternate
// every frame: one slot receives the next draw while the other holds the
// most recently completed one.
package pingpong

// Tag names one slot of a Pair.
type Tag uint8

const (
	// A is the first slot.
	A Tag = iota
	// B is the second slot.
	B
)

// Other returns the opposite slot.
func (t Tag) Other() Tag {
	if t == A {
		return B
	}
	return A
}

// String returns "A" or "B".
func (t Tag) String() string {
	if t == A {
		return "A"
	}
	return "B"
}

// Pair holds two equivalent resources. The draw slot receives the next
// render; the ready slot is the one completed on the previous frame.
//
// The zero value has both slots empty and A as the draw slot.
type Pair[T any] struct {
	slots [2]T
	draw  Tag
}

// Set replaces both slots. The draw tag is left unchanged.
func (p *Pair[T]) Set(a, b T) {
	p.slots[A] = a
	p.slots[B] = b
}

// Get returns the resource in slot t.
func (p *Pair[T]) Get(t Tag) T { return p.slots[t] }

// DrawTag returns the slot that receives the next draw.
func (p *Pair[T]) DrawTag() Tag { return p.draw }

// Draw returns the resource that receives the next draw.
func (p *Pair[T]) Draw() T { return p.slots[p.draw] }

// Ready returns the resource completed on the previous frame.
func (p *Pair[T]) Ready() T { return p.slots[p.draw.Other()] }

// Flip swaps the draw and ready roles.
func (p *Pair[T]) Flip() { p.draw = p.draw.Other() }

// Clear empties both slots and returns their previous contents.
func (p *Pair[T]) Clear() (a, b T) {
	var zero T
	a, b = p.slots[A], p.slots[B]
	p.slots[A], p.slots[B] = zero, zero
	return a, b
}
