// Package ergon provides a fixed-capacity, single-producer/multi-consumer
// asynchronous execution engine: a lock-free bounded work queue, a
// slot-based handle allocator, a dispatch relay absorbing submission
// bursts, and a composite wait engine that can steal work onto the
// calling goroutine instead of sleeping.
//
// # Quick Start
//
// Basic usage with default configuration:
//
//	pool, err := ergon.NewWithDefaults(4)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Destroy(true)
//
//	h := pool.Push(func(ctx ergon.WorkerContext) {
//		// job body
//	}, nil, false)
//	pool.WaitSingle(h)
//
// # Builder
//
// For anything beyond the defaults, use Builder:
//
//	pool, err := ergon.NewBuilder(8).
//		WithRingCapacity(512).
//		WithMaxWaitChunk(32).
//		WithOnInternalError(func(event string, err error) {
//			log.Printf("ergon: %s: %v", event, err)
//		}).
//		Build()
//
// # Deferred submission and waiting
//
// Push can stage a job without dispatching it (deferred=true); a later
// DispatchByHandle or any Wait* call forces it into the pipeline. The
// Wait family ranges from a single handle up through an arbitrarily
// large slice, and an owner blocked on a wait opportunistically steals
// and runs still-queued jobs on its own goroutine rather than sleeping
// through avoidable idle time:
//
//	handles := make([]ergon.Handle, n)
//	for i := range handles {
//		handles[i] = pool.Push(job, i, true)
//	}
//	result := pool.WaitAllFor(handles, 5*time.Second)
//	if !result.OK() {
//		// timed out or no valid handle in the set
//	}
//
// # Cancellation and progress
//
// Cancel(handle) sets a cooperative, advisory flag; a running job
// observes it via ergon.IsCancelled(ctx) at its own discretion and is
// never preempted. ReportProgress(ctx, n) and Pool.Progress(handle) form
// the matching pair for a job to publish, and the owner to observe, a
// monotonic progress counter.
//
// # Ownership
//
// Every Pool is bound to the goroutine that created it. Push,
// DispatchByHandle, Release, every Wait* call, and Destroy must all be
// called from that same goroutine; calling any of them from another
// goroutine panics. Worker goroutines only ever touch the work ring and
// a slot's own fields — never the slot table or the dispatch array.
package ergon
