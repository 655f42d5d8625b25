package ergon

import (
	"sync"
	"testing"
	"time"
)

func TestRingPushPop(t *testing.T) {
	r := newRing(4)
	s := newSlot(0)
	if !r.push(s, 0) {
		t.Fatal("push should succeed into an empty ring")
	}
	if got := r.depth(); got != 1 {
		t.Fatalf("depth() = %d, want 1", got)
	}
	popped, ok := r.pop(0)
	if !ok || popped != s {
		t.Fatalf("pop() = (%v, %v), want (%v, true)", popped, ok, s)
	}
	if got := r.depth(); got != 0 {
		t.Fatalf("depth() = %d, want 0", got)
	}
}

func TestRingPopEmptyPolls(t *testing.T) {
	r := newRing(2)
	if _, ok := r.pop(0); ok {
		t.Fatal("pop(0) on an empty ring should fail")
	}
}

func TestRingPushFullPolls(t *testing.T) {
	r := newRing(1)
	if !r.push(newSlot(0), 0) {
		t.Fatal("first push should succeed")
	}
	if r.push(newSlot(1), 0) {
		t.Fatal("push into a full ring should fail with timeout 0")
	}
}

func TestRingUnpublishBySlot(t *testing.T) {
	r := newRing(4)
	s := newSlot(0)
	r.push(s, 0)
	if !r.unpublishBySlot(s) {
		t.Fatal("unpublishBySlot should succeed on a still-queued slot")
	}
	if s.workRingPos.Load() != -1 {
		t.Error("unpublishBySlot should reset workRingPos to -1")
	}
	// Consumer side must observe a spurious nil, not the stolen slot.
	popped, ok := r.pop(0)
	if ok && popped != nil {
		t.Fatalf("pop() after unpublish should be nil or empty, got %v", popped)
	}
}

func TestRingUnpublishBySlotNotQueued(t *testing.T) {
	r := newRing(4)
	s := newSlot(0)
	if r.unpublishBySlot(s) {
		t.Fatal("unpublishBySlot should fail on a slot that was never queued")
	}
}

func TestRingFIFOOrder(t *testing.T) {
	r := newRing(8)
	slots := make([]*slot, 5)
	for i := range slots {
		slots[i] = newSlot(int32(i))
		if !r.push(slots[i], 0) {
			t.Fatalf("push #%d failed", i)
		}
	}
	for i := range slots {
		got, ok := r.pop(0)
		if !ok || got != slots[i] {
			t.Fatalf("pop #%d = %v, want %v", i, got, slots[i])
		}
	}
}

func TestRingConcurrentPushPop(t *testing.T) {
	r := newRing(16)
	const n = 500
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for !r.push(newSlot(int32(i)), 10*time.Millisecond) {
			}
		}
	}()

	popped := 0
	go func() {
		defer wg.Done()
		for popped < n {
			if s, ok := r.pop(10 * time.Millisecond); ok && s != nil {
				popped++
			}
		}
	}()

	wg.Wait()
	if popped != n {
		t.Fatalf("popped %d items, want %d", popped, n)
	}
}
