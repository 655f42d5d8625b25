package ergon

import (
	"testing"
	"time"
)

func TestWorkerLoopExecutesDispatchedJobs(t *testing.T) {
	p, err := NewWithDefaults(3)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}
	defer p.Destroy(true)

	const n = 50
	handles := make([]Handle, n)
	for i := range handles {
		handles[i] = p.Push(func(ctx WorkerContext) {
			time.Sleep(time.Millisecond)
		}, nil, false)
	}

	result := p.WaitAllFor(handles, 5*time.Second)
	if !result.OK() {
		t.Fatalf("WaitAllFor = %v, want OK", result.Err)
	}
}

func TestWorkerLoopExitsOnShutdown(t *testing.T) {
	p, err := NewWithDefaults(2)
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}

	done := make(chan struct{})
	go func() {
		p.workerWG.Wait()
		close(done)
	}()

	close(p.shutdown)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("workers never exited after shutdown was signaled")
	}
	p.relayCancel()
}

func TestSetupCalledOnStartAndTeardown(t *testing.T) {
	var startCalls, teardownCalls int
	p, err := NewBuilder(2).
		WithSetup(func(workerID int, teardown bool) {
			if teardown {
				teardownCalls++
			} else {
				startCalls++
			}
		}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	p.Destroy(true)

	if startCalls != 2 {
		t.Errorf("startCalls = %d, want 2", startCalls)
	}
	if teardownCalls != 2 {
		t.Errorf("teardownCalls = %d, want 2", teardownCalls)
	}
}
