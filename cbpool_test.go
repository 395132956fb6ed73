// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package cbpool

import (
	"errors"
	"testing"

	"github.com/gogpu/cbpool/hal"
)

type singleCore struct{}

func (singleCore) CoreID() int            { return 0 }
func (singleCore) MainGraphicsCoreID() int { return 0 }
func (singleCore) CoreCount() int          { return 1 }

type discardQueue struct{ received []hal.CommandBufferHandle }

func (q *discardQueue) QueueCommandBuffer(cb hal.CommandBufferHandle) {
	q.received = append(q.received, cb)
}

type instantTimestamps struct{}

func (instantTimestamps) RetiredTimestamp() uint64    { return ^uint64(0) }
func (instantTimestamps) WaitForTimestamp(t uint64) {}

func TestPool_EndToEndLifecycle(t *testing.T) {
	p := New()
	queue := &discardQueue{}
	err := p.Init(make([]uint32, 4096), Collaborators{
		Cores:      singleCore{},
		Queue:      queue,
		Timestamps: instantTimestamps{},
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	cb, err := p.GetCommandBuffer(16)
	if err != nil {
		t.Fatalf("GetCommandBuffer: %v", err)
	}
	cb.Advance(16)

	if err := p.PadCommandBuffer(cb); err != nil {
		t.Fatalf("PadCommandBuffer: %v", err)
	}
}

func TestPool_MethodsReturnErrReleasedAfterRelease(t *testing.T) {
	p := New()
	p.Release()

	if err := p.Init(make([]uint32, 16), Collaborators{}); !errors.Is(err, ErrReleased) {
		t.Errorf("Init after Release = %v, want ErrReleased", err)
	}
	if _, err := p.GetCommandBuffer(4); !errors.Is(err, ErrReleased) {
		t.Errorf("GetCommandBuffer after Release = %v, want ErrReleased", err)
	}
	if _, ok := p.AllocateCommandBuffer(4); ok {
		t.Error("AllocateCommandBuffer after Release should fail")
	}
	if err := p.QueueDisplayList(nil, 0); !errors.Is(err, ErrReleased) {
		t.Errorf("QueueDisplayList after Release = %v, want ErrReleased", err)
	}
	if _, _, ok := p.GetUserCommandBuffer(); ok {
		t.Error("GetUserCommandBuffer after Release should report no session")
	}
}
