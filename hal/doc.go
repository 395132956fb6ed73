// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package hal defines the contracts this module expects from its host
// environment, plus the ambient logger shared by the rest of the module.
//
// Unlike a full hardware-abstraction layer for a GPU API, this package does
// not implement any GPU backend. It only describes the collaborators the
// core pool needs from the surrounding system:
//
//   - [CoreIDProvider] — identifies the calling CPU core and the single
//     "main graphics core" allowed to own pool-backed leases.
//   - [GPUQueue] — receives finished command buffers for asynchronous
//     consumption by the real GPU driver.
//   - [RetiredTimestampService] — the monotonically increasing retirement
//     clock the pool blocks on when it runs out of room.
//   - [DisplayListOverrunFunc] — the guest-supplied growth callback used by
//     caller-owned display-list buffers.
//
// All of the above are provided by the embedding host; this package and the
// core pool never implement them directly. See [SetLogger] for the ambient
// logging surface shared across the module.
package hal
