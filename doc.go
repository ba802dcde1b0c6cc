// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package lfs provides a lock-free, unbounded multi-producer single-consumer
// link stack with injected allocation.
//
// A [Stack] is a chain of links hanging off one atomic head word. Producers
// publish a link with a CAS on the head; the single consumer retires the head
// link with a CAS on the same word. Both operate at the same end, so
// retrieval order is last-in-first-out:
//
//	push A, push B, push C → pop C, pop B, pop A
//
// Links are taken from an [Allocator] and returned to it on retire. Because
// only one goroutine ever retires, a link can be returned the moment it is
// unlinked: no hazard pointers or epochs are needed.
//
// # Quick Start
//
//	s := lfs.NewStack[Event]()
//	p, c := s.Split()
//
//	// Any number of producers
//	go func() {
//	    ev := Event{ID: 1}
//	    p.Push(&ev)
//	}()
//
//	// Exactly one consumer
//	for {
//	    ev, ok := c.Pop()
//	    if !ok {
//	        break // Empty right now
//	    }
//	    handle(ev)
//	}
//
// Builder API selects the allocator:
//
//	s := lfs.Build[Event](lfs.New())                    // → Arena (unbounded)
//	s := lfs.Build[Event](lfs.New().SegmentSize(4096))  // → Arena, larger segments
//	s := lfs.Build[Event](lfs.New().Fixed(1024))        // → Pool (1024 slots)
//
// # Split and Exclusive Use
//
// [Stack.Split] borrows the stack as a [Producer] and a [Consumer]:
//
//   - Producer: a plain reference. Copy it into as many goroutines as needed;
//     Push and TryPush use the concurrent publish protocol.
//   - Consumer: one per split, not copyable. Pop uses the retire protocol,
//     which must never run twice at once. Overlapping Pop calls panic.
//
// [Consumer.Detach] ends the split. While a split is active, the Stack's own
// Push, TryPush, Pop, Drain and Destroy panic. Those methods are exclusive
// fast paths that rewrite the head without CAS, for single-goroutine use and
// teardown:
//
//	s := lfs.NewStack[int]()
//	for i := range 3 {
//	    s.Push(&i)
//	}
//	for v := range s.Drain() {
//	    fmt.Println(v) // 2, 1, 0
//	}
//
// # Allocators
//
// [Arena] is the default: segments double in size on demand and reclaimed
// slots are reused through a tagged lock-free free list. [Pool] preallocates
// a fixed number of slots and tracks the free ones with the same list. It
// never grows, for environments that must not touch the heap after startup. Custom allocators implement [Allocator]:
//
//	type Allocator[T any] interface {
//	    Allocate(layout Layout) (Handle, error)
//	    Deallocate(h Handle, layout Layout)
//	    Link(h Handle) *Link[T]
//	}
//
// Handles stand in for addresses. [NilHandle] is reserved for the empty
// chain. Allocators must be safe for concurrent use.
//
// # Error Handling
//
// Allocation failure is the only failure. TryPush returns the allocator's
// error ([ErrOutOfMemory] for Arena and Pool) and leaves the element in place:
//
//	v := Event{ID: 7}
//	if err := p.TryPush(&v); err != nil {
//	    fallback(v) // v was not consumed
//	}
//
// Push turns allocation failure into a panic.
//
// An empty stack is not an error: Pop returns (zero-value, false).
// [Consumer.Dequeue] is the same operation in the iox form, returning
// [ErrWouldBlock] on empty:
//
//	backoff := iox.Backoff{}
//	for {
//	    ev, err := c.Dequeue()
//	    if lfs.IsWouldBlock(err) {
//	        backoff.Wait()
//	        continue
//	    }
//	    backoff.Reset()
//	    handle(ev)
//	}
//
// # Length
//
// The head word packs the element count with the head handle, so every
// publish and retire changes both in one CAS. [Stack.Len] is exact at the
// instant it loads the head.
//
// # Teardown
//
// [Stack.Destroy] drains every remaining element, returns each link to the
// allocator and calls Release on payloads implementing [Releaser]. The
// element type itself must implement it; store pointers when Release has a
// pointer receiver. The caller ensures no other goroutine is using the stack.
//
// # Progress
//
// Publish and retire are lock-free, not wait-free: a failed CAS means some
// other operation succeeded, and the loser retries after a CPU pause hint.
// No operation blocks. There is no capacity limit other than the
// allocator's and no timeout or cancellation.
//
// # Race Detection
//
// Link fields are plain memory published through acquire-release operations
// on the head word. The race detector cannot observe that ordering and may
// report false positives; concurrent tests check [RaceEnabled] and skip.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, and [code.hybscloud.com/spin] for CPU pause instructions.
package lfs
