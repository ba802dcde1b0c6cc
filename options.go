// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfs

// Options configures stack creation and allocator selection.
type Options struct {
	// Arena first segment size (rounds up to next power of 2)
	segmentSize int

	// Fixed pool capacity; 0 selects an unbounded arena
	fixed int
}

// Builder creates stacks with fluent configuration.
//
// The builder selects the allocator: an unbounded [Arena] by default, or a
// fixed-capacity [Pool] when Fixed is set.
//
// Example:
//
//	// Unbounded, default segment size
//	s := lfs.Build[Event](lfs.New())
//
//	// Unbounded, larger first segment for bursty producers
//	s := lfs.Build[Event](lfs.New().SegmentSize(4096))
//
//	// At most 1024 elements, no heap growth after construction
//	s := lfs.Build[Event](lfs.New().Fixed(1024))
type Builder struct {
	opts Options
}

// New creates a stack builder with the default configuration.
func New() *Builder {
	return &Builder{opts: Options{segmentSize: defaultSegmentSize}}
}

// SegmentSize sets the number of slots in the arena's first segment.
// Later segments double in size. Ignored when Fixed is set.
//
// Panics if size < 2.
func (b *Builder) SegmentSize(size int) *Builder {
	if size < 2 {
		panic("lfs: segment size must be >= 2")
	}
	b.opts.segmentSize = size
	return b
}

// Fixed selects a [Pool] allocator with room for capacity links.
// Capacity rounds up to the next power of 2.
//
// Panics if capacity < 2.
func (b *Builder) Fixed(capacity int) *Builder {
	if capacity < 2 {
		panic("lfs: capacity must be >= 2")
	}
	b.opts.fixed = capacity
	return b
}

// Build creates an empty Stack[T] with the configured allocator.
//
// Allocator selection:
//
//	Fixed(n) → Pool (n slots, ErrOutOfMemory when full)
//	default  → Arena (unbounded, segments start at SegmentSize)
func Build[T any](b *Builder) *Stack[T] {
	if b.opts.fixed > 0 {
		return NewStackIn[T](NewPool[T](b.opts.fixed))
	}
	return NewStackIn[T](NewArenaSize[T](b.opts.segmentSize))
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte
