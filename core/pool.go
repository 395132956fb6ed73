// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package core

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/gogpu/cbpool/hal"
	"github.com/gogpu/cbpool/types"
)

// tailEmpty is the sentinel tail value meaning "the ring holds no
// un-retired lease" — distinct from any real word offset, since offset 0
// is a valid tail once the ring has wrapped.
const tailEmpty = ^uint32(0)

// Collaborators bundles the host-supplied services a Pool needs: which
// core is calling, where finished buffers go, and how to wait for the GPU
// to catch up. None of these are implemented by this module; see package
// hal for the contracts.
type Collaborators struct {
	Cores      hal.CoreIDProvider
	Queue      hal.GPUQueue
	Timestamps hal.RetiredTimestampService
}

// Pool is a fixed ring of command words leased out to CPU cores and
// reclaimed as the GPU retires them. The zero value is not usable; build
// one with [NewPool] and call [Pool.Init] before any other method.
type Pool struct {
	// mu guards the ring state: words, head, tail, skipped and leased.
	// It is held only for the duration of a single ring operation
	// (allocateFromPool, returnToPool, freeToPool) or a check or update
	// of leased — never across a call into a collaborator.
	mu      sync.Mutex
	words   []uint32
	head    uint32
	tail    uint32
	skipped uint32
	leased  bool

	freeHead atomic.Pointer[CommandBuffer]
	registry []atomic.Pointer[CommandBuffer]

	collab     Collaborators
	metrics    *Metrics
	byteOrder  binary.ByteOrder
	onAbort    func(msg string)
	instanceID string
}

// Option configures a Pool at construction time.
type Option func(*Pool)

// WithMetrics attaches Prometheus collectors built by [NewMetrics]. A Pool
// built without this option records no metrics.
func WithMetrics(m *Metrics) Option {
	return func(p *Pool) { p.metrics = m }
}

// WithAbortHandler installs a hook run just before the pool panics on a
// detected programming defect, after the failure has already been logged.
// Typical uses are flushing telemetry or notifying a supervisor; the hook
// cannot prevent the panic that follows it.
func WithAbortHandler(f func(msg string)) Option {
	return func(p *Pool) { p.onAbort = f }
}

// WithByteOrder sets the device byte order PadCommandBuffer swaps its
// filler word into. Defaults to big-endian, matching the console GPUs
// this pool design descends from.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(p *Pool) { p.byteOrder = order }
}

// NewPool constructs an uninitialized Pool. Call [Pool.Init] before
// leasing or flushing anything.
func NewPool(opts ...Option) *Pool {
	p := &Pool{
		byteOrder:  binary.BigEndian,
		instanceID: newInstanceID(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Init installs the backing ring storage and collaborators, and leases
// the initial active command buffer for the main graphics core. It must
// be called exactly once, from the main graphics core, before any other
// Pool method.
func (p *Pool) Init(words []uint32, collab Collaborators) {
	if collab.Cores.CoreID() != collab.Cores.MainGraphicsCoreID() {
		p.abort("Init: must be called from the main graphics core (%d), called from core %d",
			collab.Cores.MainGraphicsCoreID(), collab.Cores.CoreID())
	}
	if len(words) == 0 {
		p.abort("Init: ring storage must be non-empty")
	}

	p.mu.Lock()
	p.words = words
	p.head = 0
	p.tail = tailEmpty
	p.skipped = 0
	p.leased = false
	p.mu.Unlock()

	p.collab = collab
	p.registry = make([]atomic.Pointer[CommandBuffer], collab.Cores.CoreCount())

	hal.Logger().Info("command buffer pool initialized",
		"instance", p.instanceID, "words", len(words), "cores", collab.Cores.CoreCount())

	d, ok := p.AllocateCommandBuffer(types.MinLeaseWords)
	if !ok {
		p.abort("Init: failed to obtain the initial lease")
	}
	p.registry[collab.Cores.MainGraphicsCoreID()].Store(d)
}

// allocateFromPool implements the ring's core allocation step: find a
// contiguous run of at least wantedWords starting at head, wrapping once
// if the tail end of the buffer doesn't have room but the base end does.
// Returns the old head (the lease's offset), the granted size — which is
// the whole contiguous run found, capped at types.MaxLeaseWords, not just
// wantedWords — and whether a run was found at all.
func (p *Pool) allocateFromPool(wantedWords uint32) (offset uint32, granted uint32, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if wantedWords < types.MinLeaseWords {
		wantedWords = types.MinLeaseWords
	}
	total := uint32(len(p.words))
	if wantedWords > total {
		p.abort("allocateFromPool: requested %d words exceeds ring size %d", wantedWords, total)
	}

	var available uint32
	switch {
	case p.tail == tailEmpty:
		if p.head != 0 {
			p.abort("allocateFromPool: ring reports empty but head=%d, want 0", p.head)
		}
		available = total
		p.tail = p.head

	case p.head == p.tail:
		// head only ever lands back on tail via a grant that used up all
		// the room before tail (forward or after a wrap); freeToPool and
		// returnToPool normalize a genuinely drained ring back to the
		// tailEmpty sentinel instead of leaving head==tail. So this state
		// means the ring is completely full, not empty.
		return 0, 0, false

	case p.head < p.tail:
		available = p.tail - p.head
		if available < wantedWords {
			return 0, 0, false
		}

	default: // p.head > p.tail: room may exist only by wrapping
		available = total - p.head
		if available < wantedWords {
			leading := p.tail
			if leading < wantedWords {
				return 0, 0, false
			}
			p.skipped = total - p.head
			p.head = 0
			available = leading
			p.metrics.incWraps()
			hal.Logger().Info("ring wrapped", "instance", p.instanceID, "skipped", p.skipped)
		}
	}

	granted = available
	if granted > types.MaxLeaseWords {
		granted = types.MaxLeaseWords
	}

	offset = p.head
	p.head += granted
	p.metrics.setHead(p.head)
	p.metrics.setTail(p.tail)
	p.metrics.setSkipped(p.skipped)
	return offset, granted, true
}

// returnToPool shrinks an in-progress lease down to the portion actually
// used, moving head back to offset+usedWords. It asserts the lease being
// returned is the most recent one granted — head must still equal
// offset+originalWords — since only the most recent lease can be
// un-granted without corrupting the ring. If the lease started at tail and
// none of it was used, the ring holds nothing and is reset to empty.
func (p *Pool) returnToPool(offset, usedWords, originalWords uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.head != offset+originalWords {
		p.abort("returnToPool: head=%d, want %d (offset=%d + original=%d)",
			p.head, offset+originalWords, offset, originalWords)
	}
	p.head = offset + usedWords
	if usedWords == 0 && p.head == p.tail {
		// The returned lease was the only live data and none of it was
		// used: the ring is empty, so normalize it to the tailEmpty state
		// rather than leaving head==tail, which allocateFromPool reads as
		// full.
		p.head = 0
		p.tail = tailEmpty
		p.skipped = 0
		p.metrics.setTail(p.tail)
		p.metrics.setSkipped(p.skipped)
	}
	p.metrics.setHead(p.head)
}

// freeToPool retires a previously granted lease, advancing tail past it.
// It aborts if offset isn't exactly where tail expects the next
// retirement to start — leases must retire in the order they were
// granted.
func (p *Pool) freeToPool(offset, words uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := uint32(len(p.words))
	if p.tail != tailEmpty && p.tail+p.skipped == total {
		p.skipped = 0
		p.tail = 0
	}

	if p.tail != offset {
		p.abort("freeToPool: out-of-order retirement: tail=%d, want %d", p.tail, offset)
	}

	p.tail += words
	if p.tail == p.head {
		p.head = 0
		p.tail = tailEmpty
		p.skipped = 0
	}
	p.metrics.setHead(p.head)
	p.metrics.setTail(p.tail)
	p.metrics.setSkipped(p.skipped)
}
