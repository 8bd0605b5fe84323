package rdg

import (
	"fmt"
	"time"

	"github.com/gogpu/rdg/hal"
)

// SyncBundle is the per-frame synchronization handle [Graph.Execute] signals
// on GPU completion: a timeline fence plus the value it will reach once the
// frame's command buffer finishes. This adapts the frame-sync collaborator
// to the fence-value model hal.Queue.Submit exposes (see [FrameSyncManager]
// doc) rather than a literal pair of binary image-available/render-finished
// semaphores; a hal.Queue implementation remains free to manage whatever
// binary semaphores a swapchain present needs internally.
type SyncBundle struct {
	fence hal.Fence
	value uint64
}

// Fence returns the bundle's fence.
func (s *SyncBundle) Fence() hal.Fence { return s.fence }

// Value returns the value the fence reaches once this frame completes.
func (s *SyncBundle) Value() uint64 { return s.value }

// frameSlot is one frame-in-flight's fence state.
type frameSlot struct {
	fence hal.Fence
	// value is the value this slot's fence will reach once its frame
	// completes; zero means the slot has never been submitted.
	value uint64
}

// FrameSyncManager is the long-lived collaborator that bounds how many
// frames may be in flight at once. Like [AliasingPool], one manager is
// created by the caller and reused across every frame's Graph (§9); it owns
// one fence per frame-in-flight slot and rotates through them.
type FrameSyncManager struct {
	device    hal.Device
	slots     []frameSlot
	current   int
	nextValue uint64
}

// NewFrameSyncManager creates a manager with framesInFlight fence slots.
func NewFrameSyncManager(device hal.Device, framesInFlight int) (*FrameSyncManager, error) {
	if framesInFlight < 1 {
		return nil, fmt.Errorf("rdg: NewFrameSyncManager: framesInFlight must be at least 1, got %d", framesInFlight)
	}
	m := &FrameSyncManager{device: device, slots: make([]frameSlot, framesInFlight)}
	for i := range m.slots {
		fence, err := device.CreateFence()
		if err != nil {
			for j := 0; j < i; j++ {
				device.DestroyFence(m.slots[j].fence)
			}
			return nil, fmt.Errorf("rdg: NewFrameSyncManager: create fence %d: %w", i, err)
		}
		m.slots[i].fence = fence
	}
	return m, nil
}

// Acquire waits for the current slot's previous frame to finish (a no-op
// the first framesInFlight times through), then returns the [SyncBundle]
// this frame's Graph.Execute should signal. Call [FrameSyncManager.Advance]
// once the frame is recorded to move to the next slot.
func (m *FrameSyncManager) Acquire(timeout time.Duration) (*SyncBundle, error) {
	slot := &m.slots[m.current]
	if slot.value != 0 {
		done, err := m.device.Wait(slot.fence, slot.value, timeout)
		if err != nil {
			return nil, fmt.Errorf("rdg: FrameSyncManager.Acquire: wait: %w", err)
		}
		if !done {
			return nil, fmt.Errorf("rdg: FrameSyncManager.Acquire: timed out waiting for slot %d", m.current)
		}
	}
	m.nextValue++
	slot.value = m.nextValue
	return &SyncBundle{fence: slot.fence, value: slot.value}, nil
}

// Advance rotates to the next frame-in-flight slot.
func (m *FrameSyncManager) Advance() {
	m.current = (m.current + 1) % len(m.slots)
}

// WaitAll blocks until every in-flight frame has completed. Call this
// before destroying the device or any resource the graphs touched.
func (m *FrameSyncManager) WaitAll(timeout time.Duration) error {
	for i := range m.slots {
		if m.slots[i].value == 0 {
			continue
		}
		done, err := m.device.Wait(m.slots[i].fence, m.slots[i].value, timeout)
		if err != nil {
			return fmt.Errorf("rdg: FrameSyncManager.WaitAll: wait on slot %d: %w", i, err)
		}
		if !done {
			return fmt.Errorf("rdg: FrameSyncManager.WaitAll: timed out waiting for slot %d", i)
		}
	}
	return nil
}

// Close destroys every fence the manager owns. Call WaitAll first.
func (m *FrameSyncManager) Close() {
	for i := range m.slots {
		if m.slots[i].fence != nil {
			m.device.DestroyFence(m.slots[i].fence)
			m.slots[i].fence = nil
		}
	}
}
