// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package cbpool is a command-buffer pool and lease manager for a
// console-style GPU command processor: one fixed ring of command words,
// leased out in large chunks to the main graphics core and reclaimed as
// the GPU retires them. Other cores write only into caller-owned display
// lists.
//
// [New] builds a [Pool]; [Pool.Init] installs its backing storage and the
// host-supplied [Collaborators] — who the calling core is, where
// finished buffers go, and how to wait for the GPU. From there,
// [Pool.GetCommandBuffer] hands the calling core its active buffer,
// flushing and replacing it automatically once it runs out of room, and
// [Pool.QueueDisplayList] / [Pool.BeginUserCommandBuffer] let a caller
// bypass the ring entirely with its own buffer.
//
// This package is a thin, released-guarded facade over the actual
// implementation in [github.com/gogpu/cbpool/core]; see that package's
// documentation for the full protocol and its invariants.
package cbpool
