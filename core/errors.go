// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package core

import (
	"fmt"

	"github.com/gogpu/cbpool/hal"
)

// FatalError is the panic value abort raises. It wraps a programming
// defect detected inside the pool — a violated invariant, not a
// recoverable runtime error — mirroring the process-killing assert the
// original console command buffer manager used for the same conditions.
// There is no meaningful caller to return an error to, so these
// conditions panic instead of propagating through a normal error return.
type FatalError struct {
	Msg string
}

func (e *FatalError) Error() string { return e.Msg }

// abort logs msg at error level, gives any configured abort handler a
// chance to run (flush telemetry, notify a supervisor), and then always
// panics with a *FatalError. It never returns control to its caller, even
// if onAbort itself returns normally.
func (p *Pool) abort(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	hal.Logger().Error(msg, "instance", p.instanceID)
	if p.onAbort != nil {
		p.onAbort(msg)
	}
	panic(&FatalError{Msg: msg})
}
