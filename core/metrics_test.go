// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package core

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.setHead(1)
	m.setTail(2)
	m.setSkipped(3)
	m.incLeases()
	m.incWraps()
	m.incDescriptorsAllocated()
	m.incQueued()
	m.observeWait(0)
}

func TestMetrics_GaugesTrackRingState(t *testing.T) {
	m := NewMetrics(nil)

	// A ring larger than MaxLeaseWords so the initial lease (capped at
	// 0x20000) leaves room behind it: the second allocation below can
	// then succeed immediately, without blocking on a GPU retirement
	// that never comes in this test.
	// m is attached before Init so the initial lease is counted too.
	queue := newFakeQueue()
	p := NewPool(WithAbortHandler(func(string) {}), WithMetrics(m))
	p.Init(make([]uint32, 0x40000), Collaborators{
		Cores: &fakeCores{main: 0, count: 1}, Queue: queue, Timestamps: newFakeTimestamps(),
	})

	cur, err := p.GetCommandBuffer(0)
	if err != nil {
		t.Fatalf("GetCommandBuffer: %v", err)
	}
	cur.Advance(4)

	if _, err := p.GetCommandBuffer(0x20000); err != nil {
		t.Fatalf("GetCommandBuffer: %v", err)
	}

	if got := testutil.ToFloat64(m.tailWords); got != 0 {
		t.Errorf("tailWords = %v, want 0 (no lease has retired yet)", got)
	}
	if got := testutil.ToFloat64(m.leasesTotal); got != 2 {
		t.Errorf("leasesTotal = %v, want 2 (the initial lease plus one flush-triggered lease)", got)
	}
	if got := testutil.ToFloat64(m.queuedTotal); got != 1 {
		t.Errorf("queuedTotal = %v, want 1", got)
	}
	if queue.len() != 1 {
		t.Errorf("queue received %d buffers, want 1", queue.len())
	}
}

func TestMetrics_WrapsTotalIncrementsOnWrap(t *testing.T) {
	m := NewMetrics(nil)
	p := &Pool{words: make([]uint32, 1000), head: 950, tail: 300, metrics: m}

	if _, _, ok := p.allocateFromPool(60); !ok { // rounded up to 256; only [0,300) fits
		t.Fatal("expected wraparound allocation to succeed")
	}
	if got := testutil.ToFloat64(m.wrapsTotal); got != 1 {
		t.Errorf("wrapsTotal = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.skippedWords); got != 50 {
		t.Errorf("skippedWords = %v, want 50", got)
	}
}

func TestMetrics_DescriptorsAllocatedTotalCountsFreshAllocations(t *testing.T) {
	m := NewMetrics(nil)
	p := &Pool{metrics: m}

	d1 := p.acquireDescriptor()
	d2 := p.acquireDescriptor()
	if got := testutil.ToFloat64(m.descriptorsAllocatedTotal); got != 2 {
		t.Errorf("descriptorsAllocatedTotal = %v, want 2", got)
	}

	p.releaseDescriptor(d1)
	p.acquireDescriptor() // reused from the free-list, not a fresh allocation
	if got := testutil.ToFloat64(m.descriptorsAllocatedTotal); got != 2 {
		t.Errorf("descriptorsAllocatedTotal after reuse = %v, want still 2", got)
	}
	_ = d2
}
