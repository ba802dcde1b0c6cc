// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfs

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrOutOfMemory indicates the allocator could not provide a link slot.
//
// TryPush returns it (or the error of a custom allocator) without consuming
// the element: the payload pointed to by elem is left untouched, so the
// caller still owns it.
//
// Example:
//
//	v := Event{ID: 7}
//	if err := p.TryPush(&v); errors.Is(err, lfs.ErrOutOfMemory) {
//	    spill(v) // v is unchanged
//	}
var ErrOutOfMemory = errors.New("lfs: out of memory")

// ErrLayout indicates an allocator was asked for a layout it does not serve.
var ErrLayout = errors.New("lfs: layout mismatch")

// ErrWouldBlock indicates the operation cannot proceed immediately.
//
// Only [Consumer.Dequeue] returns it, when the stack is empty. It is a control
// flow signal, not a failure: Pop reports the same condition as (zero, false).
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
