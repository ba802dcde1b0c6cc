// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfs

// Link is one slot of a stack chain.
//
// A link holds a payload and the handle of the link that was the head
// immediately before it was published. next is written only while the link
// is unreachable from other goroutines and read once, when the link is
// retired.
//
// Allocators store links; only the stack reads or writes their fields.
type Link[T any] struct {
	next Handle
	data T
}
