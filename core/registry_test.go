// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package core

import (
	"sync"
	"testing"

	"github.com/gogpu/cbpool/internal/corebind"
	"github.com/gogpu/cbpool/types"
)

func TestGetCommandBuffer_NoActiveBufferErrors(t *testing.T) {
	p, cores, _, _ := newTestPool(4096, 2)
	cores.setCore(1) // non-main core, never opened a session

	if _, err := p.GetCommandBuffer(8); err == nil {
		t.Fatal("expected an error when the calling core has no active buffer")
	}
}

// TestRegistry_IndependentDisplayListSessionsPerCore exercises two
// non-main cores each holding their own display-list session: writes and
// flushes on one core's buffer must never touch the other's registry slot
// or backing storage.
func TestRegistry_IndependentDisplayListSessionsPerCore(t *testing.T) {
	p, cores, _, _ := newTestPool(4096, 3)

	bufA := make([]uint32, 32)
	bufB := make([]uint32, 32)

	cores.setCore(1)
	cbA := p.BeginUserCommandBuffer(bufA, 32, nil)
	cbA.Advance(5)

	cores.setCore(2)
	cbB := p.BeginUserCommandBuffer(bufB, 32, nil)
	cbB.Advance(9)

	// Each core's GetUserCommandBuffer must report only its own session.
	cores.setCore(1)
	buf, max, ok := p.GetUserCommandBuffer()
	if !ok {
		t.Fatal("core 1 should report an open display-list session")
	}
	if max != 32 || &buf[0] != &bufA[0] {
		t.Error("core 1's session does not match its own buffer")
	}
	if cbA.CurSize() != 5 {
		t.Errorf("core 1 CurSize = %d, want 5 (unaffected by core 2's writes)", cbA.CurSize())
	}

	cores.setCore(2)
	buf, max, ok = p.GetUserCommandBuffer()
	if !ok {
		t.Fatal("core 2 should report an open display-list session")
	}
	if max != 32 || &buf[0] != &bufB[0] {
		t.Error("core 2's session does not match its own buffer")
	}
	if cbB.CurSize() != 9 {
		t.Errorf("core 2 CurSize = %d, want 9", cbB.CurSize())
	}

	// Ending one session must not disturb the other's.
	cores.setCore(1)
	used := p.EndUserCommandBuffer(bufA)
	if used != 8 { // 5 padded up to the next 4-word boundary
		t.Errorf("core 1 EndUserCommandBuffer = %d, want 8", used)
	}
	if _, _, ok := p.GetUserCommandBuffer(); ok {
		t.Error("core 1 should report no session after End")
	}

	cores.setCore(2)
	if _, _, ok := p.GetUserCommandBuffer(); !ok {
		t.Error("core 2's session should survive core 1's End")
	}
	if cbB.CurSize() != 9 {
		t.Errorf("core 2 CurSize = %d after core 1's End, want unchanged 9", cbB.CurSize())
	}
}

func TestFlushCommandBuffer_AbortsOnPoolBackedNonMainCore(t *testing.T) {
	p, cores, _, _ := newTestPool(4096, 2)

	// Smuggle a pool-backed descriptor into a non-main core's slot to
	// simulate the protocol violation flushCommandBuffer guards against;
	// this can't happen through the public API, only by a caller that
	// has otherwise corrupted the registry.
	d := p.acquireDescriptor()
	d.displayList = false
	d.maxSize = 10
	p.registry[1].Store(d)
	cores.setCore(1)

	expectAbort(t, func() {
		p.flushCommandBuffer(1, 4)
	})
}

// TestRegistry_CorebindCoresHoldIndependentSessionsConcurrently drives the
// same independent-sessions-per-core scenario as
// TestRegistry_IndependentDisplayListSessionsPerCore, but through real
// corebind.Core dispatch loops running on distinct, locked OS threads at
// the same time, rather than a single goroutine flipping fakeCores
// between calls. Each non-main core opens, writes to, and closes its own
// display-list session while the others are doing the same; none of them
// should ever observe another core's buffer or registry slot.
func TestRegistry_CorebindCoresHoldIndependentSessionsConcurrently(t *testing.T) {
	const numCores = 4
	set := corebind.NewSet(numCores, 0)
	defer set.Stop()

	provider := set.CoreIDProvider()
	queue := newFakeQueue()
	ts := newFakeTimestamps()
	p := NewPool(WithAbortHandler(func(msg string) { t.Errorf("pool aborted: %s", msg) }))

	set.MainCore().CallVoid(func() {
		p.Init(make([]uint32, 4096), Collaborators{Cores: provider, Queue: queue, Timestamps: ts})
	})

	var wg sync.WaitGroup
	used := make([]uint32, numCores)
	for coreID := 1; coreID < numCores; coreID++ {
		coreID := coreID
		wg.Add(1)
		go func() {
			defer wg.Done()
			set.Core(coreID).CallVoid(func() {
				buf := make([]uint32, 64)
				cb := p.BeginUserCommandBuffer(buf, uint32(len(buf)), nil)
				for i := 0; i < coreID; i++ {
					cb.Advance(1)
				}
				if _, _, ok := p.GetUserCommandBuffer(); !ok {
					t.Errorf("core %d: expected an open display-list session", coreID)
				}
				used[coreID] = p.EndUserCommandBuffer(buf)
			})
		}()
	}
	wg.Wait()

	for coreID := 1; coreID < numCores; coreID++ {
		want := types.AlignUpWords(uint32(coreID))
		if used[coreID] != want {
			t.Errorf("core %d: EndUserCommandBuffer = %d, want %d (no cross-talk)", coreID, used[coreID], want)
		}
	}
}
