// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfs

import "unsafe"

// Handle identifies one allocated link slot.
//
// Handles replace addresses: the stack links slots by handle, and the
// allocator that issued a handle resolves it back to its [Link]. Valid
// handles are in [1, 2^32-1]; [NilHandle] marks the end of a chain.
type Handle uint32

// NilHandle is the reserved empty sentinel. No allocator returns it.
const NilHandle Handle = 0

// maxHandles is the number of distinct non-nil handles.
const maxHandles = 1<<32 - 1

// Layout describes the size and alignment of an allocation.
type Layout struct {
	Size  uintptr
	Align uintptr
}

// LayoutOf returns the layout of T.
func LayoutOf[T any]() Layout {
	var v T
	return Layout{Size: unsafe.Sizeof(v), Align: unsafe.Alignof(v)}
}

// Allocator is the allocation capability a [Stack] draws its links from.
//
// Every link a stack publishes is obtained with Allocate and returned with
// Deallocate, both keyed by the layout of [Link] for the element type.
// Implementations must be safe for concurrent use: many producers allocate
// while the single consumer deallocates.
//
// Link resolves a live handle to its slot. The returned pointer stays valid
// until the handle is deallocated.
//
// [Arena] is the unbounded default. [Pool] is a fixed-capacity alternative
// that never grows after construction.
type Allocator[T any] interface {
	// Allocate reserves one slot.
	// Returns ErrOutOfMemory when no slot is available, ErrLayout when the
	// layout is not the one the allocator serves.
	Allocate(layout Layout) (Handle, error)

	// Deallocate returns a slot obtained from Allocate with the same layout.
	// Deallocating a handle twice is undefined behavior.
	Deallocate(h Handle, layout Layout)

	// Link resolves a live handle.
	Link(h Handle) *Link[T]
}

// Pusher is the interface for publishing elements.
//
// The element is passed by pointer to avoid copying large structs. The stack
// stores a copy of the pointed-to value. On failure the pointed-to value is
// left untouched, so no data is lost.
type Pusher[T any] interface {
	// Push publishes an element, panicking if no link can be allocated.
	Push(elem *T)

	// TryPush publishes an element.
	// Returns nil on success, or the allocation error with *elem unconsumed.
	TryPush(elem *T) error
}

// Popper is the interface for retiring elements.
type Popper[T any] interface {
	// Pop removes and returns the most recently published element.
	// Returns (zero-value, false) if the stack is empty.
	Pop() (T, bool)
}

// Releaser is implemented by payloads that hold resources.
//
// [Stack.Destroy] calls Release once on every payload it drains. The check
// is made on the element value, so T itself must implement Releaser: for a
// struct whose Release has a pointer receiver, store *T in the stack, or
// that Release is never called.
type Releaser interface {
	Release()
}

// noCopy may be embedded into structs which must not be copied
// after the first use. Checked by go vet's copylocks analyzer.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
