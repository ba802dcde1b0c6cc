// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfs

import "code.hybscloud.com/atomix"

// Producer publishes elements to its [Stack] (multiple producers safe).
//
// Producer is a reference to the stack, nothing more: copies share the same
// stack and may be used from any number of goroutines at once. Every call
// goes through the concurrent publish protocol, which is lock-free: a failed
// CAS means another publish or retire succeeded.
type Producer[T any] struct {
	s *Stack[T]
}

// Stack returns the underlying stack.
func (p Producer[T]) Stack() *Stack[T] {
	return p.s
}

// Push publishes an element.
// Panics if the allocator cannot provide a link; use TryPush to handle
// allocation failure.
func (p Producer[T]) Push(elem *T) {
	if err := p.TryPush(elem); err != nil {
		panic("lfs: failed to allocate link for push: " + err.Error())
	}
}

// TryPush publishes an element.
// Returns the allocator's error with *elem unconsumed on failure.
func (p Producer[T]) TryPush(elem *T) error {
	return p.s.tryPushShared(elem)
}

// Consumer retires elements from its [Stack] (single consumer only).
//
// There is one Consumer per split, and it must not be copied. Pop calls on a
// Consumer must not overlap; an overlapping call is detected and panics
// instead of freeing a link twice.
type Consumer[T any] struct {
	_       noCopy
	s       *Stack[T]
	popping atomix.Uint64
}

// Stack returns the underlying stack.
func (c *Consumer[T]) Stack() *Stack[T] {
	return c.s
}

// Pop removes and returns the most recently published element.
// Returns (zero-value, false) if the stack is empty.
func (c *Consumer[T]) Pop() (T, bool) {
	if !c.popping.CompareAndSwapAcqRel(0, 1) {
		panic("lfs: concurrent Pop on Consumer")
	}
	if c.s == nil {
		c.popping.StoreRelease(0)
		panic("lfs: Consumer used after Detach")
	}
	elem, ok := c.s.popShared()
	c.popping.StoreRelease(0)
	return elem, ok
}

// Dequeue removes and returns the most recently published element.
// Returns (zero-value, ErrWouldBlock) if the stack is empty.
//
// Dequeue is Pop in the non-blocking error form used across the iox
// ecosystem, so a Consumer can sit behind retry loops built on
// [code.hybscloud.com/iox.Backoff].
func (c *Consumer[T]) Dequeue() (T, error) {
	elem, ok := c.Pop()
	if !ok {
		return elem, ErrWouldBlock
	}
	return elem, nil
}

// IsEmpty reports whether the stack has no elements.
// Panics after Detach.
func (c *Consumer[T]) IsEmpty() bool {
	return c.stack().IsEmpty()
}

// Len returns the number of elements in the stack.
// Panics after Detach.
func (c *Consumer[T]) Len() int {
	return c.stack().Len()
}

// Detach ends the split, returning the stack to exclusive use.
//
// The caller ensures every Producer of the split has stopped publishing.
// The Consumer cannot be used afterwards.
func (c *Consumer[T]) Detach() {
	if !c.popping.CompareAndSwapAcqRel(0, 1) {
		panic("lfs: Detach during Pop")
	}
	if c.s != nil {
		c.s.split.StoreRelease(0)
		c.s = nil
	}
	c.popping.StoreRelease(0)
}

func (c *Consumer[T]) stack() *Stack[T] {
	if c.s == nil {
		panic("lfs: Consumer used after Detach")
	}
	return c.s
}
