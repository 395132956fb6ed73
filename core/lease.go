// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package core

import (
	"time"

	"github.com/gogpu/cbpool/hal"
)

// AllocateCommandBuffer grants the main graphics core a new pool-backed
// lease of at least wantedWords (rounded up to types.MinLeaseWords,
// capped at types.MaxLeaseWords regardless of how much room is free). If
// the ring has no room, it blocks on the GPU's retirement clock and
// retries until room opens up; there is no timeout or cancellation.
//
// Called from any core other than the main graphics core, it logs a
// warning and returns (nil, false) instead of granting a lease — only the
// main graphics core is allowed to own the pool's single outstanding
// lease. Called while a lease is already outstanding, it aborts: that is
// a protocol violation, not a contention case, since the pool hands out
// at most one lease at a time by construction.
func (p *Pool) AllocateCommandBuffer(wantedWords uint32) (*CommandBuffer, bool) {
	coreID := p.collab.Cores.CoreID()
	if coreID != p.collab.Cores.MainGraphicsCoreID() {
		hal.Logger().Warn("AllocateCommandBuffer called from a non-main core",
			"instance", p.instanceID, "core", coreID)
		return nil, false
	}

	p.mu.Lock()
	alreadyLeased := p.leased
	p.mu.Unlock()
	if alreadyLeased {
		p.abort("AllocateCommandBuffer: a lease is already outstanding")
	}

	var offset, granted uint32
	var ok bool
	for {
		offset, granted, ok = p.allocateFromPool(wantedWords)
		if ok {
			break
		}
		target := p.collab.Timestamps.RetiredTimestamp() + 1
		hal.Logger().Debug("pool full, waiting for retirement",
			"instance", p.instanceID, "target", target)
		start := time.Now()
		p.collab.Timestamps.WaitForTimestamp(target)
		p.metrics.observeWait(time.Since(start))
	}

	d := p.acquireDescriptor()
	d.offset = offset
	d.curSize = 0
	d.maxSize = granted
	d.displayList = false

	p.mu.Lock()
	p.leased = true
	p.mu.Unlock()

	p.metrics.incLeases()
	return d, true
}

// FreeCommandBuffer is called by the GPU queue once a buffer it received
// has been fully consumed. It asserts the buffer was written all the way
// to its reserved capacity — a partially written buffer should have been
// shrunk with returnToPool before being queued, not freed directly — then
// returns a pool-backed buffer's words to the ring and releases the
// descriptor back to the free-list either way.
func (p *Pool) FreeCommandBuffer(d *CommandBuffer) {
	if d.curSize != d.maxSize {
		p.abort("FreeCommandBuffer: curSize=%d != maxSize=%d", d.curSize, d.maxSize)
	}
	if !d.displayList {
		p.freeToPool(d.offset, d.maxSize)
	}
	p.releaseDescriptor(d)
}
