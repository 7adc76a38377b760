// Package slotpool is a fixed-capacity arena of slots linked into a circular
// list.
//
// All storage is allocated by New. After that, PushBack and Remove move slots
// between a free list and the used ring without allocating. Slots are addressed
// by Handle, which carries a generation counter so a handle to a freed (or
// freed and reused) slot is detected instead of aliasing the new occupant.
//
// A Pool is not safe for concurrent use.
package slotpool

import "errors"

var ErrInvalidCapacity = errors.New("slotpool: capacity must be > 0")

const none = -1

// Handle is a stable reference to a used slot. The zero Handle refers to nothing.
type Handle struct {
	idx int32
	gen uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h.gen == 0 }

// Index returns the slot index (diagnostics only).
func (h Handle) Index() int { return int(h.idx) }

type slot[T any] struct {
	val  T
	gen  uint32
	used bool
	prev int32
	next int32
}

// Pool holds up to Cap values of T.
type Pool[T any] struct {
	slots []slot[T]
	head  int32 // first used slot, or none
	free  int32 // free list head (singly linked through next), or none
	n     int
}

// New allocates a pool with room for capacity values.
func New[T any](capacity int) (*Pool[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	p := &Pool[T]{slots: make([]slot[T], capacity), head: none}
	for i := range p.slots {
		p.slots[i].prev = none
		p.slots[i].next = int32(i + 1)
	}
	p.slots[capacity-1].next = none
	p.free = 0
	return p, nil
}

func (p *Pool[T]) Len() int { return p.n }

func (p *Pool[T]) Cap() int { return len(p.slots) }

// Valid reports whether h refers to a slot that is still in use.
func (p *Pool[T]) Valid(h Handle) bool {
	if h.gen == 0 || h.idx < 0 || int(h.idx) >= len(p.slots) {
		return false
	}
	s := &p.slots[h.idx]
	return s.used && s.gen == h.gen
}

// PushBack takes a free slot and links it at the tail of the ring.
// ok is false when the pool is full.
func (p *Pool[T]) PushBack() (h Handle, v *T, ok bool) {
	if p.free == none {
		return Handle{}, nil, false
	}
	i := p.free
	s := &p.slots[i]
	p.free = s.next

	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.used = true

	if p.head == none {
		s.prev, s.next = i, i
		p.head = i
	} else {
		tail := p.slots[p.head].prev
		s.prev, s.next = tail, p.head
		p.slots[tail].next = i
		p.slots[p.head].prev = i
	}
	p.n++
	return Handle{idx: i, gen: s.gen}, &s.val, true
}

// Remove unlinks h and returns its slot to the free list. The stored value is
// reset to its zero value. Stale handles are ignored.
func (p *Pool[T]) Remove(h Handle) bool {
	if !p.Valid(h) {
		return false
	}
	i := h.idx
	s := &p.slots[i]
	if s.next == i {
		p.head = none
	} else {
		p.slots[s.prev].next = s.next
		p.slots[s.next].prev = s.prev
		if p.head == i {
			p.head = s.next
		}
	}

	var zero T
	s.val = zero
	s.used = false
	// Bump generation on free so handles held across the gap stay invalid.
	s.gen++
	s.prev = none
	s.next = p.free
	p.free = i
	p.n--
	return true
}

// Get returns a pointer to the value behind h.
func (p *Pool[T]) Get(h Handle) (*T, bool) {
	if !p.Valid(h) {
		return nil, false
	}
	return &p.slots[h.idx].val, true
}

// Head returns the first used slot.
func (p *Pool[T]) Head() (Handle, bool) {
	if p.head == none {
		return Handle{}, false
	}
	return p.handle(p.head), true
}

// Next returns the successor of h. The tail's successor is the head.
func (p *Pool[T]) Next(h Handle) (Handle, bool) {
	if !p.Valid(h) {
		return Handle{}, false
	}
	return p.handle(p.slots[h.idx].next), true
}

// Each visits used slots from the head in ring order until fn returns false.
// fn must not add or remove slots.
func (p *Pool[T]) Each(fn func(h Handle, v *T) bool) {
	if p.head == none {
		return
	}
	i := p.head
	for {
		if !fn(p.handle(i), &p.slots[i].val) {
			return
		}
		i = p.slots[i].next
		if i == p.head {
			return
		}
	}
}

func (p *Pool[T]) handle(i int32) Handle {
	return Handle{idx: i, gen: p.slots[i].gen}
}
