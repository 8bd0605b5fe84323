package rdg

import (
	"testing"
	"time"
)

func TestNewFrameSyncManagerRejectsNonPositiveFramesInFlight(t *testing.T) {
	dev := &fakeDevice{}
	if _, err := NewFrameSyncManager(dev, 0); err == nil {
		t.Fatal("framesInFlight=0 must be rejected")
	}
}

func TestNewFrameSyncManagerCreatesOneFencePerSlot(t *testing.T) {
	dev := &fakeDevice{}
	m, err := NewFrameSyncManager(dev, 3)
	if err != nil {
		t.Fatalf("NewFrameSyncManager: %v", err)
	}
	if dev.fenceCount != 3 {
		t.Fatalf("expected 3 fences created, got %d", dev.fenceCount)
	}
	if len(m.slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(m.slots))
	}
}

func TestFrameSyncManagerFirstAcquireNeverBlocks(t *testing.T) {
	dev := &fakeDevice{}
	m, err := NewFrameSyncManager(dev, 2)
	if err != nil {
		t.Fatal(err)
	}
	// The first acquire of a slot must not wait - slot.value is still 0.
	bundle, err := m.Acquire(time.Millisecond)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if bundle.Fence() == nil {
		t.Fatal("bundle must carry a non-nil fence")
	}
	if bundle.Value() != 1 {
		t.Fatalf("bundle.Value() = %d, want 1", bundle.Value())
	}
}

func TestFrameSyncManagerAdvanceRotatesSlots(t *testing.T) {
	dev := &fakeDevice{}
	m, err := NewFrameSyncManager(dev, 2)
	if err != nil {
		t.Fatal(err)
	}
	if m.current != 0 {
		t.Fatalf("current = %d, want 0 initially", m.current)
	}
	m.Advance()
	if m.current != 1 {
		t.Fatalf("current = %d, want 1 after one Advance", m.current)
	}
	m.Advance()
	if m.current != 0 {
		t.Fatalf("current = %d, want 0 after wrapping around N=2 slots", m.current)
	}
}

// After N+1 Advance calls (the invariant in spec.md §8 item 7), the rotation
// wraps past slot 0 and lands on slot 1; Advance itself never waits, the
// fence wait on a revisited slot happens in Acquire.
func TestFrameSyncManagerNPlusOneAdvancesRevisitFirstSlot(t *testing.T) {
	dev := &fakeDevice{}
	const n = 2
	m, err := NewFrameSyncManager(dev, n)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Acquire(time.Millisecond); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n+1; i++ {
		m.Advance()
	}
	if m.current != 1 {
		t.Fatalf("after N+1=%d advances from slot 0 with N=%d slots, current = %d, want 1", n+1, n, m.current)
	}
}

func TestFrameSyncManagerWaitAllSkipsNeverSubmittedSlots(t *testing.T) {
	dev := &fakeDevice{}
	m, err := NewFrameSyncManager(dev, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.WaitAll(time.Millisecond); err != nil {
		t.Fatalf("WaitAll on a fresh manager must succeed (nothing submitted yet): %v", err)
	}
}

func TestFrameSyncManagerCloseDestroysFences(t *testing.T) {
	dev := &fakeDevice{}
	m, err := NewFrameSyncManager(dev, 2)
	if err != nil {
		t.Fatal(err)
	}
	m.Close()
	for i, s := range m.slots {
		if s.fence != nil {
			t.Fatalf("slot %d still holds a fence after Close", i)
		}
	}
}
