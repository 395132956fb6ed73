// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package corebind simulates a fixed set of CPU cores for code that needs
// to reason about which core it's running on, the way the command-buffer
// pool's single-lease and main-graphics-core rules do.
//
// Go has no portable way to pin a goroutine to a hardware core, so this
// package dedicates one runtime.LockOSThread'd goroutine per simulated
// core instead — the same affinity guarantee the pool actually needs is
// "exactly one goroutine ever calls in as this core at a time", which a
// locked OS thread with a serialized work queue provides just as well as
// real pinning would.
//
// A [Set]'s [hal.CoreIDProvider] is a single shared value, not one
// instance per core: its CoreID method answers "which simulated core's
// dispatch loop is calling right now", resolved dynamically against a
// registry keyed by goroutine identity. That mirrors a real getCoreId()
// reading a per-core hardware register rather than taking a parameter —
// the caller never has to thread an explicit core handle through.
package corebind

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gogpu/cbpool/hal"
)

// Core is a dedicated, locked OS thread that runs work handed to it one
// call at a time, standing in for a CPU core.
type Core struct {
	id      int
	funcs   chan func()
	done    chan struct{}
	running atomic.Bool
}

// newCore starts a Core bound to reg and blocks until its dispatch loop
// has registered itself and is ready to accept work.
func newCore(id int, reg *registry) *Core {
	c := &Core{
		id:    id,
		funcs: make(chan func(), 16),
		done:  make(chan struct{}),
	}
	c.running.Store(true)

	ready := make(chan struct{})
	go c.loop(reg, ready)
	<-ready
	return c
}

// loop is the dispatch goroutine body: lock to an OS thread, bind that
// thread's goroutine identity to this core's ID in reg, then serve funcs
// one at a time until told to stop.
func (c *Core) loop(reg *registry, ready chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if reg != nil {
		reg.bind(c.id)
	}
	close(ready)

	for {
		select {
		case f := <-c.funcs:
			f()
		case <-c.done:
			return
		}
	}
}

// ID returns this core's simulated id.
func (c *Core) ID() int { return c.id }

// dispatch hands f to the core's queue and blocks until it has run, or
// returns immediately without running f if the core has already stopped.
func (c *Core) dispatch(f func()) {
	if !c.running.Load() {
		return
	}
	done := make(chan struct{})
	c.funcs <- func() {
		f()
		close(done)
	}
	<-done
}

// Call runs f on this core and returns its result.
func (c *Core) Call(f func() any) any {
	var result any
	c.dispatch(func() { result = f() })
	return result
}

// CallVoid runs f on this core and waits for it to finish.
func (c *Core) CallVoid(f func()) {
	c.dispatch(f)
}

// CallAsync runs f on this core without waiting for it to finish.
func (c *Core) CallAsync(f func()) {
	if !c.running.Load() {
		return
	}
	select {
	case c.funcs <- f:
	default:
		c.CallVoid(f) // queue full, fall back to synchronous dispatch
	}
}

// Stop shuts down the core's dispatch loop. Safe to call more than once.
func (c *Core) Stop() {
	if c.running.Swap(false) {
		close(c.done)
	}
}

// IsRunning reports whether the core is still accepting work.
func (c *Core) IsRunning() bool { return c.running.Load() }

// Set is a fixed collection of simulated cores, one of which is
// designated the main graphics core.
type Set struct {
	cores   []*Core
	mainIdx int
	reg     *registry
}

// NewSet starts n simulated cores and designates core mainIdx as the main
// graphics core.
func NewSet(n, mainIdx int) *Set {
	reg := newRegistry()
	cores := make([]*Core, n)
	for i := range cores {
		cores[i] = newCore(i, reg)
	}
	return &Set{cores: cores, mainIdx: mainIdx, reg: reg}
}

// Core returns the simulated core with the given id.
func (s *Set) Core(id int) *Core { return s.cores[id] }

// MainCore returns the designated main graphics core.
func (s *Set) MainCore() *Core { return s.cores[s.mainIdx] }

// Stop shuts down every core in the set.
func (s *Set) Stop() {
	for _, c := range s.cores {
		c.Stop()
	}
}

// CoreIDProvider returns a single hal.CoreIDProvider shared by every
// simulated core in s. Its CoreID method looks up whichever core's
// dispatch loop is the one calling, so the same provider value can be
// handed to a Pool once at Init and still report a different ID
// depending on which core actually made the call — call it only from
// inside a closure dispatched via Core.Call/CallVoid/CallAsync.
func (s *Set) CoreIDProvider() hal.CoreIDProvider {
	return dynamicCores{reg: s.reg, mainID: s.mainIdx, count: len(s.cores)}
}

type dynamicCores struct {
	reg    *registry
	mainID int
	count  int
}

func (d dynamicCores) CoreID() int {
	id, ok := d.reg.current()
	if !ok {
		panic("corebind: CoreID called from outside any simulated core's dispatch loop")
	}
	return id
}

func (d dynamicCores) MainGraphicsCoreID() int { return d.mainID }
func (d dynamicCores) CoreCount() int          { return d.count }

// registry maps the goroutine identity of each simulated core's
// dedicated dispatch loop to that core's ID. Each loop binds itself once,
// at startup, since a Core's dispatch goroutine never changes identity
// for the life of the Core.
type registry struct {
	mu     sync.RWMutex
	byGoID map[int64]int
}

func newRegistry() *registry {
	return &registry{byGoID: make(map[int64]int)}
}

func (r *registry) bind(coreID int) {
	r.mu.Lock()
	r.byGoID[goroutineID()] = coreID
	r.mu.Unlock()
}

func (r *registry) current() (coreID int, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	coreID, ok = r.byGoID[goroutineID()]
	return coreID, ok
}

// goroutineID extracts the calling goroutine's runtime ID from its own
// stack trace header ("goroutine 123 [running]:"). Go exposes no public
// API for this; it's used only to let a single CoreIDProvider value
// answer "which simulated core is this" without every call site having
// to pass that answer in explicitly.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
