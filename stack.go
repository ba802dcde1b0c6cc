// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfs

import (
	"iter"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Stack is a CAS-based unbounded LIFO stack of links.
//
// Many producers publish concurrently through [Producer]; one consumer
// retires through [Consumer]. Both handles come from [Stack.Split]. Retire is
// restricted to a single caller, so a link can be freed as soon as it is
// unlinked: no other goroutine can still be reading it, and no reclamation
// scheme is needed.
//
// The head word packs the number of reachable links with the handle of the
// most recent one, so every publish and retire updates both in one CAS and
// Len is exact.
//
// Methods of Stack itself (Push, TryPush, Pop, Drain, Destroy) are the
// exclusive fast paths: they skip the CAS loop and require the caller to
// guarantee no concurrent access. They panic while the stack is split.
//
// Memory: one link slot per element, drawn from the stack's [Allocator]
type Stack[T any] struct {
	_      pad
	head   atomix.Uint64 // count<<32 | handle of the most recent link
	_      pad
	split  atomix.Uint64 // 1 while a Producer/Consumer pair borrows the stack
	alloc  Allocator[T]
	layout Layout
}

// NewStack creates an empty stack backed by a default [Arena].
func NewStack[T any]() *Stack[T] {
	return NewStackIn[T](NewArena[T]())
}

// NewStackIn creates an empty stack that allocates its links from alloc.
func NewStackIn[T any](alloc Allocator[T]) *Stack[T] {
	if alloc == nil {
		panic("lfs: nil allocator")
	}
	return &Stack[T]{
		alloc:  alloc,
		layout: LayoutOf[Link[T]](),
	}
}

// Allocator returns the allocator the stack draws its links from.
func (s *Stack[T]) Allocator() Allocator[T] {
	return s.alloc
}

// Split borrows the stack as one [Producer] and one [Consumer].
//
// The Producer may be copied freely and used from any number of goroutines.
// The Consumer must stay with one goroutine at a time. The split lasts until
// [Consumer.Detach]; splitting again before that panics.
func (s *Stack[T]) Split() (Producer[T], *Consumer[T]) {
	if !s.split.CompareAndSwapAcqRel(0, 1) {
		panic("lfs: stack already split")
	}
	return Producer[T]{s: s}, &Consumer[T]{s: s}
}

// IsEmpty reports whether no link is reachable from the head.
func (s *Stack[T]) IsEmpty() bool {
	_, top := unpackWord(s.head.LoadAcquire())
	return top == NilHandle
}

// Len returns the number of elements reachable from the head.
func (s *Stack[T]) Len() int {
	count, _ := unpackWord(s.head.LoadAcquire())
	return int(count)
}

// Push publishes an element (exclusive access only).
// Panics if the allocator cannot provide a link.
func (s *Stack[T]) Push(elem *T) {
	if err := s.TryPush(elem); err != nil {
		panic("lfs: failed to allocate link for push: " + err.Error())
	}
}

// TryPush publishes an element (exclusive access only).
// Returns the allocator's error with *elem unconsumed on failure.
func (s *Stack[T]) TryPush(elem *T) error {
	s.mustOwn()
	h, l, err := s.makeLink(elem)
	if err != nil {
		return err
	}
	count, top := unpackWord(s.head.LoadRelaxed())
	l.next = top
	s.head.StoreRelaxed(packWord(count+1, h))
	return nil
}

// Pop removes and returns the most recently published element (exclusive
// access only). Returns (zero-value, false) if the stack is empty.
func (s *Stack[T]) Pop() (T, bool) {
	s.mustOwn()
	return s.popOwned()
}

// Drain returns an iterator that pops every element, most recent first
// (exclusive access only). Stopping the iteration early leaves the remaining
// elements in place.
func (s *Stack[T]) Drain() iter.Seq[T] {
	return func(yield func(T) bool) {
		s.mustOwn()
		for {
			elem, ok := s.popOwned()
			if !ok || !yield(elem) {
				return
			}
		}
	}
}

// Destroy retires every remaining element and returns its link to the
// allocator (exclusive access only). Payloads implementing [Releaser] are
// released once each. The stack is empty and reusable afterwards.
func (s *Stack[T]) Destroy() {
	s.mustOwn()
	for {
		elem, ok := s.popOwned()
		if !ok {
			return
		}
		if r, ok := any(elem).(Releaser); ok {
			r.Release()
		}
	}
}

// tryPushShared publishes an element concurrently with other publishers and
// the single retirer.
func (s *Stack[T]) tryPushShared(elem *T) error {
	h, l, err := s.makeLink(elem)
	if err != nil {
		return err
	}

	sw := spin.Wait{}
	for {
		old := s.head.LoadAcquire()
		count, top := unpackWord(old)
		// l is unreachable until the CAS succeeds
		l.next = top
		if s.head.CompareAndSwapAcqRel(old, packWord(count+1, h)) {
			return nil
		}
		sw.Once()
	}
}

// popShared retires the head link concurrently with publishers.
// At most one popShared may run at a time.
func (s *Stack[T]) popShared() (T, bool) {
	sw := spin.Wait{}
	for {
		old := s.head.LoadAcquire()
		count, top := unpackWord(old)
		if top == NilHandle {
			var zero T
			return zero, false
		}

		l := s.alloc.Link(top)
		next := l.next
		if s.head.CompareAndSwapAcqRel(old, packWord(count-1, next)) {
			return s.consumeLink(top, l), true
		}
		sw.Once()
	}
}

func (s *Stack[T]) popOwned() (T, bool) {
	count, top := unpackWord(s.head.LoadRelaxed())
	if top == NilHandle {
		var zero T
		return zero, false
	}
	l := s.alloc.Link(top)
	s.head.StoreRelaxed(packWord(count-1, l.next))
	return s.consumeLink(top, l), true
}

// makeLink allocates a link and copies *elem into it.
func (s *Stack[T]) makeLink(elem *T) (Handle, *Link[T], error) {
	h, err := s.alloc.Allocate(s.layout)
	if err != nil {
		return NilHandle, nil, err
	}
	if h == NilHandle {
		panic("lfs: allocator returned nil handle")
	}
	l := s.alloc.Link(h)
	l.next = NilHandle
	l.data = *elem
	return h, l, nil
}

// consumeLink moves the payload out of an unlinked link and deallocates it.
// Must be called once per handle.
func (s *Stack[T]) consumeLink(h Handle, l *Link[T]) T {
	elem := l.data
	var zero T
	l.data = zero // Allow GC of referenced objects
	l.next = NilHandle
	s.alloc.Deallocate(h, s.layout)
	return elem
}

func (s *Stack[T]) mustOwn() {
	if s.split.LoadAcquire() != 0 {
		panic("lfs: exclusive access on a split stack")
	}
}

// packWord packs a 32-bit counter with a handle into one CAS word.
func packWord(count uint32, h Handle) uint64 {
	return uint64(count)<<32 | uint64(h)
}

func unpackWord(w uint64) (uint32, Handle) {
	return uint32(w >> 32), Handle(w)
}
