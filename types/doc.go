// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package types holds the wire-level constants used by
// [github.com/gogpu/cbpool/core], plus two small helpers built on them:
// [FillerWordFor] and [AlignUpWords].
package types
