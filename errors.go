// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package cbpool

import "errors"

// ErrReleased is returned by every Pool method once Release has been
// called.
var ErrReleased = errors.New("cbpool: pool is released")
