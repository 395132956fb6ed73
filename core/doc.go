// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package core implements the command-buffer pool: a fixed ring of GPU
// command words, leased out in large chunks to the main graphics core and
// reclaimed once the GPU retires them. Other cores write only into
// caller-owned display lists.
//
// [Pool] is the whole of it. A [Pool] owns a single contiguous []uint32
// (the ring), a lock-free free-list of reusable [CommandBuffer] handles,
// and a per-core registry of the buffer each core is currently writing
// into. The pool never allocates GPU memory or talks to a real device;
// those concerns live behind the [github.com/gogpu/cbpool/hal]
// collaborator interfaces the embedding host supplies at Init.
//
// Violations of the pool's protocol — double leases, out-of-order
// retirement, a caller-owned buffer whose guest refuses to grow it — are
// programming defects, not recoverable errors. The pool reports them by
// panicking with a [FatalError] after logging at error level, mirroring
// the abort-on-corruption semantics the original console GPU command
// buffer manager used.
package core
