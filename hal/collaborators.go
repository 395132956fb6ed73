// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hal

// CoreIDProvider identifies the calling CPU core and the topology the pool
// runs under. A single core, chosen by the host at startup, is the "main
// graphics core" — the only core permitted to own pool-backed leases.
type CoreIDProvider interface {
	// CoreID returns the id of the CPU core the calling goroutine is
	// currently running on.
	CoreID() int

	// MainGraphicsCoreID returns the id of the core allowed to own
	// pool-backed leases. Constant for the lifetime of the process.
	MainGraphicsCoreID() int

	// CoreCount returns the upper bound on core ids; valid ids are
	// [0, CoreCount()).
	CoreCount() int
}

// CommandBufferHandle is the read-only view of a command buffer exposed to
// [GPUQueue]. It exists so hal does not need to import core (which would
// create an import cycle), while still letting the queue collaborator read
// the fields it needs to submit and, eventually, retire the buffer.
type CommandBufferHandle interface {
	// Words returns the live portion of the buffer, words[0:CurSize()].
	Words() []uint32

	// CurSize returns the number of words written.
	CurSize() uint32

	// MaxSize returns the number of words reserved for this lease.
	MaxSize() uint32

	// DisplayList reports whether this buffer bypasses the pool.
	DisplayList() bool

	// SetSubmitTime records the timestamp assigned at submission.
	SetSubmitTime(t uint64)
}

// GPUQueue enqueues a completed command buffer for asynchronous consumption
// by the real GPU driver. The driver eventually calls back into
// core.Pool.FreeCommandBuffer once the buffer retires.
type GPUQueue interface {
	QueueCommandBuffer(cb CommandBufferHandle)
}

// RetiredTimestampService exposes the GPU's monotonically increasing
// retirement clock. AllocateCommandBuffer blocks on WaitForTimestamp when
// the ring has no room for a new lease.
type RetiredTimestampService interface {
	// RetiredTimestamp returns the timestamp of the most recently retired
	// buffer.
	RetiredTimestamp() uint64

	// WaitForTimestamp blocks the calling goroutine until
	// RetiredTimestamp() >= t.
	WaitForTimestamp(t uint64)
}

// DisplayListOverrunFunc grows a caller-owned display-list buffer that has
// run out of room. oldBuf is the full capacity of the buffer being
// replaced; usedBytes is how much of it holds live commands; neededBytes
// is how much additional room the caller is about to write.
//
// usedBytes and neededBytes are byte counts, not word counts, matching the
// guest's own accounting of display-list buffers it owns directly. The
// pool converts newSizeBytes back to words before installing the
// replacement.
//
// Returns the replacement buffer and its size in bytes. A nil buffer or a
// zero size signals the guest could not grow the buffer — a fatal
// condition the pool aborts on.
type DisplayListOverrunFunc func(oldBuf []uint32, usedBytes, neededBytes uint32) (newBuf []uint32, newSizeBytes uint32)
