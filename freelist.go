// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfs

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// freeSlot is a link slot together with its free-list successor.
type freeSlot[T any] struct {
	link Link[T]
	free atomix.Uint64 // Next reclaimed handle while on the free list
}

// freeList is a Treiber stack of reclaimed slot handles.
//
// Any number of goroutines may push and pop. The head carries a version tag
// in its upper 32 bits, bumped on every update, so a pop that stalled between
// reading the head and its CAS fails instead of installing a stale successor.
type freeList[T any] struct {
	head atomix.Uint64 // tag<<32 | first reclaimed handle
}

// pop takes the most recently reclaimed handle.
// resolve maps a handle to its slot.
func (f *freeList[T]) pop(resolve func(Handle) *freeSlot[T]) (Handle, bool) {
	sw := spin.Wait{}
	for {
		old := f.head.LoadAcquire()
		tag, top := unpackWord(old)
		if top == NilHandle {
			return NilHandle, false
		}
		// May read a slot that was popped and pushed again meanwhile; the
		// tag makes the CAS below fail in that case.
		next := Handle(resolve(top).free.LoadAcquire())
		if f.head.CompareAndSwapAcqRel(old, packWord(tag+1, next)) {
			return top, true
		}
		sw.Once()
	}
}

// push reclaims h, whose slot is s.
func (f *freeList[T]) push(h Handle, s *freeSlot[T]) {
	sw := spin.Wait{}
	for {
		old := f.head.LoadAcquire()
		tag, top := unpackWord(old)
		s.free.StoreRelaxed(uint64(top))
		if f.head.CompareAndSwapAcqRel(old, packWord(tag+1, h)) {
			return
		}
		sw.Once()
	}
}
