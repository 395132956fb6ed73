// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package core

import (
	"github.com/gogpu/cbpool/hal"
	"github.com/gogpu/cbpool/types"
)

// QueueDisplayList submits a caller-owned buffer directly to the GPU
// queue, bypassing the ring entirely. words is how many of buffer's words
// are valid commands; buffer itself must have room for at least
// AlignUpWords(words), since padding writes past the valid region up to
// the next alignment boundary. Unlike a user command buffer opened with
// BeginUserCommandBuffer, a display list queued this way is already
// complete — there is no growth callback, since nothing writes into it
// after this call.
func (p *Pool) QueueDisplayList(buffer []uint32, words uint32) {
	d := p.acquireDescriptor()
	d.words = buffer
	d.offset = 0
	d.curSize = words
	d.maxSize = uint32(len(buffer))
	d.displayList = true

	p.PadCommandBuffer(d)
	// The queued buffer is complete: shrink maxSize to the padded length so
	// FreeCommandBuffer's curSize==maxSize check holds when it retires.
	d.maxSize = d.curSize
	p.metrics.incQueued()
	hal.Logger().Debug("queueing display list", "instance", p.instanceID, "words", d.curSize)
	p.collab.Queue.QueueCommandBuffer(d)
}

// BeginUserCommandBuffer opens a display-list session on the calling
// core: the caller writes directly into buffer via the returned
// descriptor, growing it through overrun if it runs out of room, until
// EndUserCommandBuffer closes the session.
//
// If the calling core is the main graphics core, its current pool-backed
// lease is flushed first — a display list and a pool-backed buffer cannot
// be active on the main core at the same time.
func (p *Pool) BeginUserCommandBuffer(buffer []uint32, words uint32, overrun hal.DisplayListOverrunFunc) *CommandBuffer {
	coreID := p.collab.Cores.CoreID()
	if coreID == p.collab.Cores.MainGraphicsCoreID() {
		if cur := p.registry[coreID].Load(); cur != nil && !cur.displayList {
			p.flushActiveCommandBuffer(coreID)
		}
	}
	if cur := p.registry[coreID].Load(); cur != nil {
		p.abort("BeginUserCommandBuffer: a command buffer is already active on core %d", coreID)
	}

	d := p.acquireDescriptor()
	d.words = buffer
	d.offset = 0
	d.curSize = 0
	d.maxSize = words
	d.displayList = true
	d.overrun = overrun

	p.registry[coreID].Store(d)
	return d
}

// EndUserCommandBuffer closes the calling core's display-list session,
// pads the buffer to alignment, and returns how many words were written.
// buffer must be the same backing array passed to BeginUserCommandBuffer
// (or the most recent buffer installed by an overrun callback).
//
// If the calling core is the main graphics core, a fresh pool-backed
// lease is installed as its new active buffer, restoring normal
// pool-backed operation.
func (p *Pool) EndUserCommandBuffer(buffer []uint32) uint32 {
	coreID := p.collab.Cores.CoreID()
	cur := p.registry[coreID].Load()
	if cur == nil || !cur.displayList || !sameBacking(cur.words, buffer) {
		p.abort("EndUserCommandBuffer: no matching active display list on core %d", coreID)
	}

	p.PadCommandBuffer(cur)
	used := cur.curSize
	p.registry[coreID].Store(nil)
	p.releaseDescriptor(cur)

	if coreID == p.collab.Cores.MainGraphicsCoreID() {
		next, ok := p.AllocateCommandBuffer(types.MinLeaseWords)
		if ok {
			p.registry[coreID].Store(next)
		}
	}
	return used
}

// GetUserCommandBuffer returns the calling core's currently open
// display-list buffer and its capacity, or ok=false if no display-list
// session is open on this core.
func (p *Pool) GetUserCommandBuffer() (buf []uint32, max uint32, ok bool) {
	coreID := p.collab.Cores.CoreID()
	cur := p.registry[coreID].Load()
	if cur == nil || !cur.displayList {
		return nil, 0, false
	}
	return cur.Buffer(), cur.maxSize, true
}
