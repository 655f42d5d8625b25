package ergon

import (
	"testing"
	"time"
)

func TestPushAndWaitSingle(t *testing.T) {
	p, err := NewWithDefaults(2)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}
	defer p.Destroy(true)

	ran := make(chan struct{}, 1)
	h := p.Push(func(ctx WorkerContext) { ran <- struct{}{} }, nil, false)
	if !h.Valid() {
		t.Fatalf("Push returned invalid handle: %v", h.ErrorKind())
	}

	result := p.WaitSingleFor(h, 2*time.Second)
	if !result.OK() {
		t.Fatalf("WaitSingleFor = %v, want OK", result.Err)
	}
	select {
	case <-ran:
	default:
		t.Error("job procedure never ran")
	}
}

func TestPushDeferredDoesNotDispatch(t *testing.T) {
	p, err := NewWithDefaults(0)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}
	defer p.relayCancel()

	h := p.Push(func(ctx WorkerContext) {}, nil, true)
	s := p.table.slotAt(h.index())
	if s.workRingPos.Load() >= 0 {
		t.Error("a deferred Push should not be dispatched")
	}
}

func TestDispatchByHandleForcesDeferred(t *testing.T) {
	p, err := NewWithDefaults(0)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}
	defer p.relayCancel()

	h := p.Push(func(ctx WorkerContext) {}, nil, true)
	if !p.DispatchByHandle(h) {
		t.Fatal("DispatchByHandle should succeed on a valid deferred handle")
	}

	select {
	case <-p.workRing.readReady():
		p.workRing.claim()
	case <-time.After(time.Second):
		t.Fatal("slot was never dispatched")
	}
}

func TestDispatchByHandleInvalidHandle(t *testing.T) {
	p, err := NewWithDefaults(0)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}
	defer p.relayCancel()

	if p.DispatchByHandle(HandleEmpty) {
		t.Error("DispatchByHandle(HandleEmpty) should return false")
	}
}

func TestReleaseResetsHandleAndFreesSlot(t *testing.T) {
	p, err := NewWithDefaults(1)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}
	defer p.Destroy(true)

	h := p.Push(func(ctx WorkerContext) {}, nil, false)
	p.WaitSingleFor(h, 2*time.Second)

	p.Release(&h)
	if h != HandleEmpty {
		t.Errorf("Release should set handle to HandleEmpty, got %v", h)
	}
}

func TestReleaseStealsQueuedSlot(t *testing.T) {
	p, err := NewWithDefaults(0)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}
	defer p.relayCancel()

	ran := false
	h := p.Push(func(ctx WorkerContext) { ran = true }, nil, false)
	p.Release(&h)

	if ran {
		t.Error("Release should abandon a stolen job, not execute it")
	}
}

func TestCancelSetsAdvisoryFlag(t *testing.T) {
	p, err := NewWithDefaults(0)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}
	defer p.relayCancel()

	h := p.Push(func(ctx WorkerContext) {}, nil, true)
	p.Cancel(h)
	s := p.table.slotAt(h.index())
	if s.cancelled.Load() == 0 {
		t.Error("Cancel should set the cancelled flag")
	}
}

func TestCancelDoesNotPreemptRunningJob(t *testing.T) {
	// Supplemented regression case (SPEC_FULL.md): a cancelled job that
	// never polls is_cancelled still runs to completion and signals
	// normally.
	p, err := NewWithDefaults(1)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}
	defer p.Destroy(true)

	completed := false
	h := p.Push(func(ctx WorkerContext) {
		completed = true
	}, nil, false)
	p.Cancel(h)

	result := p.WaitSingleFor(h, 2*time.Second)
	if !result.OK() {
		t.Fatalf("WaitSingleFor = %v, want OK", result.Err)
	}
	if !completed {
		t.Error("a cancelled but non-polling job must still run to completion")
	}
}

func TestStorageReturnsInlineBuffer(t *testing.T) {
	p, err := NewWithDefaults(0)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}
	defer p.relayCancel()

	h := p.Push(func(ctx WorkerContext) {}, nil, true)
	buf := p.Storage(h)
	if len(buf) != MaxStorageBytes {
		t.Errorf("Storage() len = %d, want %d", len(buf), MaxStorageBytes)
	}
}

func TestProgressReflectsReportedValue(t *testing.T) {
	p, err := NewWithDefaults(1)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}
	defer p.Destroy(true)

	h := p.Push(func(ctx WorkerContext) {
		ReportProgress(ctx, 7)
	}, nil, false)
	p.WaitSingleFor(h, 2*time.Second)

	if got := p.Progress(h); got != 7 {
		t.Errorf("Progress() = %d, want 7", got)
	}
}

func TestNewRejectsNegativeWorkers(t *testing.T) {
	if _, err := New(Config{Workers: -1}); err == nil {
		t.Fatal("New should reject a negative worker count")
	}
}
