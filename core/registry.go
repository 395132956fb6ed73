// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package core

import (
	"fmt"

	"github.com/gogpu/cbpool/hal"
)

// GetCommandBuffer returns the calling core's active command buffer, with
// room for at least wantedWords more. If the active buffer doesn't have
// that much room left, it is flushed (see flushCommandBuffer): a
// pool-backed buffer is replaced by a fresh lease, while a display-list
// buffer keeps its descriptor and moves to storage supplied by its
// overrun callback.
//
// Every core has its own slot in the registry, but only the main graphics
// core's slot is ever populated by AllocateCommandBuffer; other cores only
// have an active buffer if they've opened one themselves via
// BeginUserCommandBuffer.
func (p *Pool) GetCommandBuffer(wantedWords uint32) (*CommandBuffer, error) {
	coreID := p.collab.Cores.CoreID()
	cur := p.registry[coreID].Load()
	if cur == nil {
		return nil, fmt.Errorf("cbpool: core %d has no active command buffer", coreID)
	}
	if cur.curSize+wantedWords <= cur.maxSize {
		return cur, nil
	}
	return p.flushCommandBuffer(coreID, wantedWords)
}

// flushCommandBuffer retires the calling core's active buffer and installs
// a replacement with room for wantedWords. Pool-backed buffers go through
// flushActiveCommandBuffer and a fresh AllocateCommandBuffer call;
// display-list buffers call the guest's overrun callback to grow in
// place, since they live outside the ring entirely.
func (p *Pool) flushCommandBuffer(coreID int, wantedWords uint32) (*CommandBuffer, error) {
	cur := p.registry[coreID].Load()
	if cur == nil {
		return nil, fmt.Errorf("cbpool: core %d has no active command buffer", coreID)
	}
	p.PadCommandBuffer(cur)

	if cur.displayList {
		usedBytes := cur.curSize * 4
		neededBytes := wantedWords * 4
		newBuf, newSizeBytes := cur.overrun(cur.Buffer(), usedBytes, neededBytes)
		if newBuf == nil || newSizeBytes == 0 {
			p.abort("displayListOverrun refused to grow the buffer on core %d", coreID)
		}
		cur.words = newBuf
		cur.curSize = 0
		cur.maxSize = newSizeBytes / 4
		return cur, nil
	}

	if coreID != p.collab.Cores.MainGraphicsCoreID() {
		p.abort("flushCommandBuffer: pool-backed buffer active on non-main core %d", coreID)
	}
	p.flushActiveCommandBuffer(coreID)

	next, ok := p.AllocateCommandBuffer(wantedWords)
	if !ok {
		return nil, fmt.Errorf("cbpool: AllocateCommandBuffer refused on core %d", coreID)
	}
	p.registry[coreID].Store(next)
	return next, nil
}

// flushActiveCommandBuffer retires the main graphics core's pool-backed
// active buffer: it clears the pool's single-lease flag, shrinks the
// lease down to what was actually written, and either releases the
// descriptor immediately (nothing was written) or hands it to the GPU
// queue for asynchronous consumption.
func (p *Pool) flushActiveCommandBuffer(coreID int) {
	cur := p.registry[coreID].Load()
	if cur == nil || cur.displayList {
		p.abort("flushActiveCommandBuffer: no active pool-backed buffer on core %d", coreID)
	}

	p.mu.Lock()
	if !p.leased {
		p.mu.Unlock()
		p.abort("flushActiveCommandBuffer: no lease outstanding on core %d", coreID)
	}
	p.leased = false
	p.mu.Unlock()

	p.returnToPool(cur.offset, cur.curSize, cur.maxSize)
	cur.maxSize = cur.curSize
	p.registry[coreID].Store(nil)

	if cur.curSize == 0 {
		p.releaseDescriptor(cur)
		return
	}

	p.metrics.incQueued()
	hal.Logger().Debug("queueing pool-backed command buffer",
		"instance", p.instanceID, "core", coreID, "words", cur.curSize)
	p.collab.Queue.QueueCommandBuffer(cur)
}
