// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package core

import (
	"sync"

	"github.com/gogpu/cbpool/hal"
)

// fakeCores is a single-goroutine-at-a-time stand-in for hal.CoreIDProvider.
// Tests drive it explicitly with setCore instead of modeling real
// per-goroutine affinity, since the pool's protocol only cares which core
// ID a call reports, not how that ID was determined.
type fakeCores struct {
	main    int
	count   int
	current int
}

func (f *fakeCores) CoreID() int             { return f.current }
func (f *fakeCores) MainGraphicsCoreID() int  { return f.main }
func (f *fakeCores) CoreCount() int           { return f.count }
func (f *fakeCores) setCore(id int)           { f.current = id }

// fakeQueue records every buffer handed to QueueCommandBuffer and signals
// notify so tests can wait for a flush to land without polling.
type fakeQueue struct {
	mu       sync.Mutex
	received []hal.CommandBufferHandle
	notify   chan struct{}
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{notify: make(chan struct{}, 64)}
}

func (q *fakeQueue) QueueCommandBuffer(cb hal.CommandBufferHandle) {
	q.mu.Lock()
	q.received = append(q.received, cb)
	q.mu.Unlock()
	q.notify <- struct{}{}
}

func (q *fakeQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.received)
}

// fakeTimestamps is a manually-advanced retirement clock. WaitForTimestamp
// blocks on a condition variable instead of busy-looping, the same shape
// a real GPU-interrupt-driven implementation would have.
type fakeTimestamps struct {
	mu      sync.Mutex
	cond    *sync.Cond
	retired uint64
}

func newFakeTimestamps() *fakeTimestamps {
	f := &fakeTimestamps{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

func (f *fakeTimestamps) RetiredTimestamp() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.retired
}

func (f *fakeTimestamps) WaitForTimestamp(t uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for f.retired < t {
		f.cond.Wait()
	}
}

func (f *fakeTimestamps) retire(t uint64) {
	f.mu.Lock()
	f.retired = t
	f.cond.Broadcast()
	f.mu.Unlock()
}

func newTestPool(words int, coreCount int) (*Pool, *fakeCores, *fakeQueue, *fakeTimestamps) {
	cores := &fakeCores{main: 0, count: coreCount}
	queue := newFakeQueue()
	ts := newFakeTimestamps()
	p := NewPool(WithAbortHandler(func(string) {}))
	p.Init(make([]uint32, words), Collaborators{Cores: cores, Queue: queue, Timestamps: ts})
	return p, cores, queue, ts
}
