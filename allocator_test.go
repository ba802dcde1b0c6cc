// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfs_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/lfs"
)

// failingAllocator wraps an Arena and fails its failOn-th Allocate call.
type failingAllocator[T any] struct {
	*lfs.Arena[T]
	failOn int
	calls  int
}

func (f *failingAllocator[T]) Allocate(layout lfs.Layout) (lfs.Handle, error) {
	f.calls++
	if f.calls == f.failOn {
		return lfs.NilHandle, lfs.ErrOutOfMemory
	}
	return f.Arena.Allocate(layout)
}

// nilHandleAllocator hands out the reserved nil handle without an error.
type nilHandleAllocator[T any] struct {
	*lfs.Arena[T]
}

func (nilHandleAllocator[T]) Allocate(lfs.Layout) (lfs.Handle, error) {
	return lfs.NilHandle, nil
}

// =============================================================================
// Arena
// =============================================================================

// TestArenaAllocate tests handle uniqueness across segment growth.
func TestArenaAllocate(t *testing.T) {
	a := lfs.NewArenaSize[int](2)
	layout := lfs.LayoutOf[lfs.Link[int]]()

	seen := make(map[lfs.Handle]bool)
	links := make(map[*lfs.Link[int]]bool)
	for i := range 100 {
		h, err := a.Allocate(layout)
		if err != nil {
			t.Fatalf("Allocate(%d): %v", i, err)
		}
		if h == lfs.NilHandle {
			t.Fatalf("Allocate(%d): got NilHandle", i)
		}
		if seen[h] {
			t.Fatalf("Allocate(%d): duplicate handle %d", i, h)
		}
		seen[h] = true
		links[a.Link(h)] = true
	}
	if len(links) != 100 {
		t.Fatalf("distinct links: got %d, want 100", len(links))
	}
	if a.Live() != 100 {
		t.Fatalf("Live: got %d, want 100", a.Live())
	}

	for h := range seen {
		a.Deallocate(h, layout)
	}
	if a.Live() != 0 {
		t.Fatalf("Live after Deallocate: got %d, want 0", a.Live())
	}
}

// TestArenaReuse tests that reclaimed slots are handed out again.
func TestArenaReuse(t *testing.T) {
	a := lfs.NewArena[int]()
	layout := lfs.LayoutOf[lfs.Link[int]]()

	h1, _ := a.Allocate(layout)
	h2, _ := a.Allocate(layout)
	a.Deallocate(h1, layout)

	h3, err := a.Allocate(layout)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if h3 != h1 {
		t.Fatalf("Allocate after Deallocate: got %d, want reused %d", h3, h1)
	}
	if h3 == h2 {
		t.Fatal("Allocate: reused a live handle")
	}
}

// TestArenaLayout tests that a foreign layout is rejected.
func TestArenaLayout(t *testing.T) {
	a := lfs.NewArena[int]()
	if _, err := a.Allocate(lfs.LayoutOf[lfs.Link[string]]()); !errors.Is(err, lfs.ErrLayout) {
		t.Fatalf("Allocate with foreign layout: got %v, want ErrLayout", err)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for Deallocate with foreign layout")
		}
	}()
	h, _ := a.Allocate(lfs.LayoutOf[lfs.Link[int]]())
	a.Deallocate(h, lfs.Layout{Size: 1, Align: 1})
}

// =============================================================================
// Pool
// =============================================================================

// TestPoolCapacity tests capacity rounding and exhaustion.
func TestPoolCapacity(t *testing.T) {
	p := lfs.NewPool[int](3)
	layout := lfs.LayoutOf[lfs.Link[int]]()

	if p.Cap() != 4 {
		t.Fatalf("Cap: got %d, want 4", p.Cap())
	}

	var hs []lfs.Handle
	for i := range 4 {
		h, err := p.Allocate(layout)
		if err != nil {
			t.Fatalf("Allocate(%d): %v", i, err)
		}
		hs = append(hs, h)
	}
	if _, err := p.Allocate(layout); !errors.Is(err, lfs.ErrOutOfMemory) {
		t.Fatalf("Allocate on full: got %v, want ErrOutOfMemory", err)
	}
	if p.Live() != 4 {
		t.Fatalf("Live: got %d, want 4", p.Live())
	}

	p.Deallocate(hs[2], layout)
	h, err := p.Allocate(layout)
	if err != nil {
		t.Fatalf("Allocate after Deallocate: %v", err)
	}
	if h != hs[2] {
		t.Fatalf("Allocate after Deallocate: got %d, want %d", h, hs[2])
	}
}

// TestPoolLayout tests that a foreign layout is rejected.
func TestPoolLayout(t *testing.T) {
	p := lfs.NewPool[int](2)
	if _, err := p.Allocate(lfs.LayoutOf[lfs.Link[[4]int]]()); !errors.Is(err, lfs.ErrLayout) {
		t.Fatalf("Allocate with foreign layout: got %v, want ErrLayout", err)
	}
}

// TestPoolForeignHandle tests that an out-of-range handle panics.
func TestPoolForeignHandle(t *testing.T) {
	p := lfs.NewPool[int](2)
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for foreign handle")
		}
	}()
	p.Deallocate(lfs.Handle(99), lfs.LayoutOf[lfs.Link[int]]())
}

// TestPoolBackedStack tests that a pool-backed stack reports the limit.
func TestPoolBackedStack(t *testing.T) {
	s := lfs.Build[int](lfs.New().Fixed(4))
	pool := s.Allocator().(*lfs.Pool[int])
	p, c := s.Split()

	for i := range 4 {
		if err := p.TryPush(&i); err != nil {
			t.Fatalf("TryPush(%d): %v", i, err)
		}
	}
	v := 99
	if err := p.TryPush(&v); !errors.Is(err, lfs.ErrOutOfMemory) {
		t.Fatalf("TryPush on full: got %v, want ErrOutOfMemory", err)
	}
	if v != 99 {
		t.Fatalf("payload after failed TryPush: got %d, want 99", v)
	}

	if got, _ := c.Pop(); got != 3 {
		t.Fatalf("Pop: got %d, want 3", got)
	}
	if err := p.TryPush(&v); err != nil {
		t.Fatalf("TryPush after Pop: %v", err)
	}
	if pool.Live() != 4 {
		t.Fatalf("Live: got %d, want 4", pool.Live())
	}

	c.Detach()
	s.Destroy()
	if pool.Live() != 0 {
		t.Fatalf("Live after Destroy: got %d, want 0", pool.Live())
	}
}

// =============================================================================
// Allocation Failure
// =============================================================================

// TestAllocFailureFidelity tests that a failed publish keeps the payload and
// leaves the stack unchanged, through both publish paths.
func TestAllocFailureFidelity(t *testing.T) {
	tests := []struct {
		name  string
		split bool
	}{
		{"Exclusive", false},
		{"Producer", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alloc := &failingAllocator[string]{Arena: lfs.NewArena[string](), failOn: 3}
			s := lfs.NewStackIn[string](alloc)

			push := s.TryPush
			pop := s.Pop
			if tt.split {
				p, c := s.Split()
				push = p.TryPush
				pop = c.Pop
			}

			for _, v := range []string{"a", "b"} {
				if err := push(&v); err != nil {
					t.Fatalf("TryPush(%q): %v", v, err)
				}
			}

			v := "payload"
			err := push(&v)
			if !errors.Is(err, lfs.ErrOutOfMemory) {
				t.Fatalf("TryPush on failing call: got %v, want ErrOutOfMemory", err)
			}
			if v != "payload" {
				t.Fatalf("payload after failure: got %q, want %q", v, "payload")
			}
			if s.Len() != 2 || s.IsEmpty() {
				t.Fatalf("after failure: Len=%d IsEmpty=%v, want 2 false", s.Len(), s.IsEmpty())
			}

			// The next call succeeds again
			if err := push(&v); err != nil {
				t.Fatalf("TryPush after failure: %v", err)
			}
			for _, want := range []string{"payload", "b", "a"} {
				if got, ok := pop(); !ok || got != want {
					t.Fatalf("Pop: got (%q, %v), want (%q, true)", got, ok, want)
				}
			}
			if alloc.Live() != 0 {
				t.Fatalf("Live: got %d, want 0", alloc.Live())
			}
		})
	}
}

// TestAllocFailureOnEmpty tests that a failed first publish leaves the stack empty.
func TestAllocFailureOnEmpty(t *testing.T) {
	alloc := &failingAllocator[int]{Arena: lfs.NewArena[int](), failOn: 1}
	s := lfs.NewStackIn[int](alloc)

	v := 42
	if err := s.TryPush(&v); !errors.Is(err, lfs.ErrOutOfMemory) {
		t.Fatalf("TryPush: got %v, want ErrOutOfMemory", err)
	}
	if v != 42 {
		t.Fatalf("payload: got %d, want 42", v)
	}
	if !s.IsEmpty() {
		t.Fatal("IsEmpty after failure: got false")
	}
	if _, ok := s.Pop(); ok {
		t.Fatal("Pop after failure: got value, want empty")
	}
}

// TestNilHandleFromAllocator tests that a nil handle is never published.
func TestNilHandleFromAllocator(t *testing.T) {
	tests := []struct {
		name string
		push func(s *lfs.Stack[int], v *int)
	}{
		{"Exclusive", func(s *lfs.Stack[int], v *int) { s.TryPush(v) }},
		{"Producer", func(s *lfs.Stack[int], v *int) {
			p, c := s.Split()
			defer c.Detach()
			p.TryPush(v)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := lfs.NewStackIn[int](nilHandleAllocator[int]{Arena: lfs.NewArena[int]()})
			v := 1
			func() {
				defer func() {
					if r := recover(); r == nil {
						t.Fatal("expected panic for nil handle")
					}
				}()
				tt.push(s, &v)
			}()
			if s.Len() != 0 || !s.IsEmpty() {
				t.Fatalf("after rejected push: Len=%d IsEmpty=%v, want 0 true", s.Len(), s.IsEmpty())
			}
		})
	}
}
