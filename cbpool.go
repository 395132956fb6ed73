// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package cbpool

import (
	"github.com/gogpu/cbpool/core"
	"github.com/gogpu/cbpool/hal"
)

// Collaborators bundles the host-supplied services a Pool needs. See
// package hal for the individual contracts.
type Collaborators = core.Collaborators

// Option configures a Pool at construction time.
type Option = core.Option

// Metrics holds the Prometheus collectors a Pool updates as it runs.
// Build one with [NewMetrics] and attach it with [WithMetrics].
type Metrics = core.Metrics

// NewMetrics builds a Pool's metric collectors, registering them with reg
// if it is non-nil.
var NewMetrics = core.NewMetrics

// WithMetrics attaches a Metrics built by NewMetrics to a Pool.
var WithMetrics = core.WithMetrics

// WithAbortHandler installs a hook run just before a Pool panics on a
// detected programming defect.
var WithAbortHandler = core.WithAbortHandler

// WithByteOrder sets the device byte order command buffer padding is
// swapped into. Defaults to big-endian.
var WithByteOrder = core.WithByteOrder

// Pool leases windows of a fixed command-word ring out to CPU cores and
// reclaims them as the GPU retires them. The zero value is not usable;
// build one with [New].
type Pool struct {
	core     *core.Pool
	released bool
}

// New constructs an uninitialized Pool. Call [Pool.Init] before leasing
// or flushing anything.
func New(opts ...Option) *Pool {
	return &Pool{core: core.NewPool(opts...)}
}

// Init installs the ring's backing storage and collaborators and leases
// the initial active command buffer for the main graphics core. Must be
// called exactly once, from the main graphics core, before any other
// method.
func (p *Pool) Init(words []uint32, collab Collaborators) error {
	if p.released {
		return ErrReleased
	}
	p.core.Init(words, collab)
	return nil
}

// GetCommandBuffer returns the calling core's active command buffer, with
// room for at least wantedWords more, flushing and replacing it first if
// it doesn't have that much room left.
func (p *Pool) GetCommandBuffer(wantedWords uint32) (*CommandBuffer, error) {
	if p.released {
		return nil, ErrReleased
	}
	return p.core.GetCommandBuffer(wantedWords)
}

// AllocateCommandBuffer grants the main graphics core a new pool-backed
// lease. See [core.Pool.AllocateCommandBuffer] for the full contract.
func (p *Pool) AllocateCommandBuffer(wantedWords uint32) (*CommandBuffer, bool) {
	if p.released {
		return nil, false
	}
	return p.core.AllocateCommandBuffer(wantedWords)
}

// FreeCommandBuffer returns a fully-written buffer's words to the ring
// (if pool-backed) and recycles its descriptor. Called by the GPU queue
// once a buffer it received has retired.
func (p *Pool) FreeCommandBuffer(cb *CommandBuffer) error {
	if p.released {
		return ErrReleased
	}
	p.core.FreeCommandBuffer(cb)
	return nil
}

// PadCommandBuffer rounds cb's written length up to a 4-word boundary,
// filling the gap with the device byte order's filler word.
func (p *Pool) PadCommandBuffer(cb *CommandBuffer) error {
	if p.released {
		return ErrReleased
	}
	p.core.PadCommandBuffer(cb)
	return nil
}

// QueueDisplayList submits a caller-owned, already-complete buffer
// directly to the GPU queue, bypassing the ring.
func (p *Pool) QueueDisplayList(buffer []uint32, words uint32) error {
	if p.released {
		return ErrReleased
	}
	p.core.QueueDisplayList(buffer, words)
	return nil
}

// BeginUserCommandBuffer opens a display-list session on the calling
// core, backed directly by buffer instead of the ring. overrun is called
// if the session runs out of room; pass nil if the session will never
// need to grow.
func (p *Pool) BeginUserCommandBuffer(buffer []uint32, words uint32, overrun hal.DisplayListOverrunFunc) (*CommandBuffer, error) {
	if p.released {
		return nil, ErrReleased
	}
	return p.core.BeginUserCommandBuffer(buffer, words, overrun), nil
}

// EndUserCommandBuffer closes the calling core's display-list session and
// returns how many words were written, padded to alignment.
func (p *Pool) EndUserCommandBuffer(buffer []uint32) (uint32, error) {
	if p.released {
		return 0, ErrReleased
	}
	return p.core.EndUserCommandBuffer(buffer), nil
}

// GetUserCommandBuffer returns the calling core's open display-list
// buffer and its capacity, or ok=false if no session is open.
func (p *Pool) GetUserCommandBuffer() (buf []uint32, max uint32, ok bool) {
	if p.released {
		return nil, 0, false
	}
	return p.core.GetUserCommandBuffer()
}

// Release marks the pool unusable. Subsequent calls return ErrReleased.
func (p *Pool) Release() {
	p.released = true
}
