// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package core

import (
	"sync/atomic"

	"github.com/gogpu/cbpool/hal"
	"github.com/gogpu/cbpool/types"
)

// CommandBuffer is a lease on a window of command words, either carved out
// of the pool's ring or supplied directly by the caller as a display list.
//
// The zero value is never meaningful outside the package; callers only
// ever see a *CommandBuffer returned by one of [Pool]'s methods. The same
// descriptor is reused across many leases via [Pool]'s free-list — see
// acquireDescriptor and releaseDescriptor in freelist.go.
type CommandBuffer struct {
	pool *Pool

	// Pool-backed mode: offset into pool.words. Display-list mode:
	// unused, the buffer lives in words below instead.
	offset uint32
	words  []uint32 // display-list mode only; caller-owned backing store

	curSize     uint32
	maxSize     uint32
	displayList bool
	submitTime  uint64

	// overrun is the guest-supplied growth callback for display-list
	// buffers opened via BeginUserCommandBuffer. Nil for pool-backed
	// buffers and for one-shot QueueDisplayList submissions.
	overrun hal.DisplayListOverrunFunc

	next atomic.Pointer[CommandBuffer]
}

// Buffer returns the full writable capacity of the lease, words[0:MaxSize()].
// The caller writes new commands starting at words[CurSize():] and then
// calls Advance to record how much it wrote. The returned slice's
// capacity is pinned to MaxSize(), so appending past it reallocates
// instead of silently spilling into whatever the ring holds next.
func (cb *CommandBuffer) Buffer() []uint32 {
	if cb.displayList {
		return cb.words[:cb.maxSize:cb.maxSize]
	}
	return cb.pool.words[cb.offset : cb.offset+cb.maxSize : cb.offset+cb.maxSize]
}

// Words returns the live portion of the buffer, satisfying
// hal.CommandBufferHandle.
func (cb *CommandBuffer) Words() []uint32 {
	return cb.Buffer()[:cb.curSize]
}

// CurSize returns the number of words written so far.
func (cb *CommandBuffer) CurSize() uint32 { return cb.curSize }

// MaxSize returns the number of words reserved for this lease.
func (cb *CommandBuffer) MaxSize() uint32 { return cb.maxSize }

// DisplayList reports whether this buffer bypasses the pool.
func (cb *CommandBuffer) DisplayList() bool { return cb.displayList }

// SetSubmitTime records the timestamp a GPU queue assigned at submission.
func (cb *CommandBuffer) SetSubmitTime(t uint64) { cb.submitTime = t }

// SubmitTime returns the timestamp set by SetSubmitTime, or 0 if none was
// ever recorded.
func (cb *CommandBuffer) SubmitTime() uint64 { return cb.submitTime }

// Advance records that the caller wrote n more words starting at the
// previous CurSize(). It aborts if that would run past MaxSize() — the
// caller is expected to have called GetCommandBuffer with enough room
// first.
func (cb *CommandBuffer) Advance(n uint32) {
	if cb.curSize+n > cb.maxSize {
		cb.pool.abort("CommandBuffer.Advance: %d + %d exceeds maxSize %d", cb.curSize, n, cb.maxSize)
	}
	cb.curSize += n
}

// PadCommandBuffer rounds cb's CurSize up to the next 4-word boundary,
// filling the gap with the device byte-order's filler word. Both the pool
// and the guest call this before handing a buffer off — to the GPU queue
// for pool-backed buffers, or to QueueDisplayList for display lists.
func (p *Pool) PadCommandBuffer(cb *CommandBuffer) {
	newSize := types.AlignUpWords(cb.curSize)
	if newSize == cb.curSize {
		return
	}
	filler := types.FillerWordFor(p.byteOrder)
	buf := cb.Buffer()
	for i := cb.curSize; i < newSize; i++ {
		buf[i] = filler
	}
	cb.curSize = newSize
}

func sameBacking(a, b []uint32) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == len(b)
	}
	return &a[0] == &b[0]
}
