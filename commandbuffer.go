// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package cbpool

import "github.com/gogpu/cbpool/core"

// CommandBuffer is a lease on a window of command words, either carved
// out of a Pool's ring or supplied directly by the caller as a display
// list. Obtained from [Pool.GetCommandBuffer], [Pool.AllocateCommandBuffer],
// or [Pool.BeginUserCommandBuffer].
type CommandBuffer = core.CommandBuffer

// FatalError is the panic value a Pool raises when it detects a
// programming defect — a violated protocol invariant, not a recoverable
// runtime error.
type FatalError = core.FatalError
