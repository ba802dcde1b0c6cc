// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfs

import (
	"math/bits"
	"sync/atomic"

	"code.hybscloud.com/atomix"
)

const (
	// defaultSegmentSize is the number of slots in the first arena segment.
	defaultSegmentSize = 64

	// maxSegments bounds the segment table. Segment k holds base<<k slots,
	// so 32 segments cover every handle for any base >= 2.
	maxSegments = 32
)

// Arena is an unbounded, lock-free link allocator.
//
// Slots live in segments that double in size; segment k holds base<<k slots
// and is created on first use with a pointer CAS. Segments are never moved
// or freed, so a slot's address is stable for the arena's lifetime.
//
// Deallocated slots go onto a Treiber free list and are reused before new
// slots are carved. The free-list head is tagged with a version counter
// bumped on every update, so a stalled Allocate cannot mistake a reused
// slot for the one it observed.
//
// All methods are safe for concurrent use.
type Arena[T any] struct {
	_      pad
	free   freeList[T]
	_      pad
	next   atomix.Uint64 // Slots carved so far (FAA)
	_      pad
	live   atomix.Int64
	_      pad
	segs   [maxSegments]atomic.Pointer[arenaSegment[T]]
	base   uint64 // Slots in segment 0 (power of 2)
	shift  uint   // log2(base)
	layout Layout
}

type arenaSegment[T any] struct {
	slots []freeSlot[T]
}

// NewArena creates an arena with the default segment size.
func NewArena[T any]() *Arena[T] {
	return NewArenaSize[T](defaultSegmentSize)
}

// NewArenaSize creates an arena whose first segment holds size slots.
// Size rounds up to the next power of 2.
//
// Panics if size < 2.
func NewArenaSize[T any](size int) *Arena[T] {
	if size < 2 {
		panic("lfs: segment size must be >= 2")
	}
	base := uint64(roundToPow2(size))
	return &Arena[T]{
		base:   base,
		shift:  uint(bits.TrailingZeros64(base)),
		layout: LayoutOf[Link[T]](),
	}
}

// Allocate reserves a slot, reusing a reclaimed one when available.
// Returns ErrOutOfMemory once every handle is live.
func (a *Arena[T]) Allocate(layout Layout) (Handle, error) {
	if layout != a.layout {
		return NilHandle, ErrLayout
	}
	if h, ok := a.free.pop(a.slot); ok {
		a.live.AddAcqRel(1)
		return h, nil
	}

	i := a.next.AddAcqRel(1) - 1
	if i >= maxHandles {
		return NilHandle, ErrOutOfMemory
	}
	k, _ := a.locate(i)
	a.segment(k)
	a.live.AddAcqRel(1)
	return Handle(i + 1), nil
}

// Deallocate returns a slot to the free list.
func (a *Arena[T]) Deallocate(h Handle, layout Layout) {
	if layout != a.layout {
		panic("lfs: deallocate with mismatched layout")
	}
	if h == NilHandle {
		panic("lfs: deallocate of nil handle")
	}
	a.free.push(h, a.slot(h))
	a.live.AddAcqRel(-1)
}

// Link resolves a live handle to its slot.
func (a *Arena[T]) Link(h Handle) *Link[T] {
	return &a.slot(h).link
}

// Live returns the number of allocated, not yet deallocated slots.
func (a *Arena[T]) Live() int {
	return int(a.live.LoadAcquire())
}

// locate maps a slot index to its segment and the offset within it.
func (a *Arena[T]) locate(i uint64) (k int, off uint64) {
	k = bits.Len64((i>>a.shift)+1) - 1
	return k, i - (a.base<<k - a.base)
}

// segment returns segment k, creating it if no allocation has reached it yet.
func (a *Arena[T]) segment(k int) *arenaSegment[T] {
	if seg := a.segs[k].Load(); seg != nil {
		return seg
	}
	seg := &arenaSegment[T]{slots: make([]freeSlot[T], a.base<<k)}
	if a.segs[k].CompareAndSwap(nil, seg) {
		return seg
	}
	// Lost the race; the winner's segment is authoritative
	return a.segs[k].Load()
}

func (a *Arena[T]) slot(h Handle) *freeSlot[T] {
	k, off := a.locate(uint64(h) - 1)
	return &a.segs[k].Load().slots[off]
}
