// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfs

import "code.hybscloud.com/atomix"

// Pool is a fixed-capacity link allocator.
//
// All slots are allocated up front; the pool never touches the heap again.
// Free slots are tracked in the same tagged Treiber free list the [Arena]
// uses for reclaimed slots, so Allocate and Deallocate are lock-free and safe
// from any number of goroutines.
//
// Allocate returns ErrOutOfMemory while every slot is live. A stack backed
// by a Pool therefore holds at most Cap elements; TryPush reports the limit
// and Push panics on it.
//
// Memory: Cap link slots + 8 bytes per slot for the free-list successor
type Pool[T any] struct {
	_      pad
	free   freeList[T]
	_      pad
	live   atomix.Int64
	_      pad
	slots  []freeSlot[T]
	layout Layout
}

// NewPool creates a pool with room for capacity links.
// Capacity rounds up to the next power of 2.
//
// Panics if capacity < 2.
func NewPool[T any](capacity int) *Pool[T] {
	if capacity < 2 {
		panic("lfs: capacity must be >= 2")
	}

	n := roundToPow2(capacity)
	p := &Pool[T]{
		slots:  make([]freeSlot[T], n),
		layout: LayoutOf[Link[T]](),
	}
	// Pushed in reverse so the first Allocate returns handle 1
	for i := n; i > 0; i-- {
		p.free.push(Handle(i), &p.slots[i-1])
	}

	return p
}

// Allocate takes a free slot.
// Returns ErrOutOfMemory if every slot is live.
func (p *Pool[T]) Allocate(layout Layout) (Handle, error) {
	if layout != p.layout {
		return NilHandle, ErrLayout
	}
	h, ok := p.free.pop(p.slot)
	if !ok {
		return NilHandle, ErrOutOfMemory
	}
	p.live.AddAcqRel(1)
	return h, nil
}

// Deallocate returns a slot to the pool.
func (p *Pool[T]) Deallocate(h Handle, layout Layout) {
	if layout != p.layout {
		panic("lfs: deallocate with mismatched layout")
	}
	if h == NilHandle || uint64(h) > uint64(len(p.slots)) {
		panic("lfs: deallocate of foreign handle")
	}
	if p.live.AddAcqRel(-1) < 0 {
		panic("lfs: pool deallocate without allocate")
	}
	p.free.push(h, p.slot(h))
}

// Link resolves a live handle to its slot.
func (p *Pool[T]) Link(h Handle) *Link[T] {
	return &p.slots[h-1].link
}

// Cap returns the number of slots.
func (p *Pool[T]) Cap() int {
	return len(p.slots)
}

// Live returns the number of allocated, not yet deallocated slots.
func (p *Pool[T]) Live() int {
	return int(p.live.LoadAcquire())
}

func (p *Pool[T]) slot(h Handle) *freeSlot[T] {
	return &p.slots[h-1]
}
