package ergon

import "testing"

func TestDestroyIsIdempotent(t *testing.T) {
	p, err := NewWithDefaults(2)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}
	p.Destroy(true)
	p.Destroy(true) // must not panic or hang
}

func TestDestroyDrainsUndispatchedWork(t *testing.T) {
	p, err := NewWithDefaults(0)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}

	n := 5
	ran := make([]bool, n)
	for i := 0; i < n; i++ {
		i := i
		p.Push(func(ctx WorkerContext) { ran[i] = true }, nil, true) // deferred
	}

	p.Destroy(true)

	for i, r := range ran {
		if !r {
			t.Errorf("job %d was never drained/executed by Destroy", i)
		}
	}
}

func TestDestroyDrainsOverflowedWork(t *testing.T) {
	// A one-cell work ring forces every job past the first into the
	// overflow ring, exercising the relay-rendezvous branch of Destroy.
	p, err := NewBuilder(0).WithRingCapacity(1).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	n := 20
	ran := make([]bool, n)
	for i := 0; i < n; i++ {
		i := i
		p.Push(func(ctx WorkerContext) { ran[i] = true }, nil, false)
	}

	p.Destroy(true)

	for i, r := range ran {
		if !r {
			t.Errorf("overflowed job %d was never drained by Destroy", i)
		}
	}
}

func TestDestroyIncompleteLeavesSlotsAllocated(t *testing.T) {
	p, err := NewWithDefaults(1)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}

	h := p.Push(func(ctx WorkerContext) {}, nil, false)
	p.Destroy(false)

	if p.table.head == nil {
		t.Error("Destroy(false) should leave the slot table chunks allocated")
	}
	if !h.Valid() {
		t.Fatal("handle should still decode as valid after Destroy(false)")
	}
}

func TestDestroyCompleteReleasesSlotTable(t *testing.T) {
	p, err := NewWithDefaults(1)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}

	p.Push(func(ctx WorkerContext) {}, nil, false)
	p.Destroy(true)

	if p.table.head != nil {
		t.Error("Destroy(true) should release every slot-table chunk")
	}
}

func TestDestroyJoinsWorkerGoroutines(t *testing.T) {
	p, err := NewWithDefaults(4)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}

	for i := 0; i < 100; i++ {
		p.Push(func(ctx WorkerContext) {}, nil, false)
	}

	// Destroy must run on the owner goroutine. If workerWG.Wait() or the
	// relay rendezvous ever deadlocks, this call hangs and the test
	// binary's own timeout catches it.
	p.Destroy(true)
}
