// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package core

import "github.com/google/uuid"

// newInstanceID returns a fresh identifier for a Pool, attached to every
// log record it emits so multiple pools in one process (or one pool
// across restarts in a test) can be told apart in shared log output.
func newInstanceID() string {
	return uuid.NewString()
}
