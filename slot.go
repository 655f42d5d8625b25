// slot.go: per-job state record
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package ergon

import "sync/atomic"

// storageBytes is the minimum inline storage every slot carries for a
// typed wrapper (kept out of scope here, see SPEC_FULL.md) to stash a
// return value without a heap allocation.
const storageBytes = 32

// procedureFunc is the user-supplied job body.
type procedureFunc func(ctx WorkerContext)

// slot is the fundamental unit of job state (spec.md §3). Slot records
// are allocated once per chunk and reused across release/realloc cycles;
// only event survives a release untouched, everything else is
// reinitialized by the owner before each reuse.
type slot struct {
	index int32

	event *manualResetEvent // lazily created, retained across reuse

	storage [storageBytes]byte
	context any
	proc    procedureFunc

	progressReport atomic.Int32
	cancelled      atomic.Int32
	eventSignaled  atomic.Int32
	workRingPos    atomic.Int32 // -1 when staged/idle, >=0 is the ring index

	// pending is owner-only: set true the moment the owner successfully
	// places s into a ring, cleared only on reset. It covers the window
	// workRingPos can't: once cleared to -1 by a worker's claim, nothing
	// distinguishes "never dispatched" from "a worker already owns it"
	// except this flag, and re-dispatching the latter double-executes
	// the job. Callers must only dispatch a slot when !pending.
	pending bool
}

func newSlot(index int32) *slot {
	s := &slot{index: index}
	s.workRingPos.Store(-1)
	return s
}

// reset reinitializes a slot for a fresh submission. The event is left
// alone: it is created lazily on first use and, once created, persists
// across release/reuse so repeated submissions don't pay allocation cost.
func (s *slot) reset(proc procedureFunc, ctx any) {
	s.context = ctx
	s.proc = proc
	s.storage = [storageBytes]byte{}
	s.progressReport.Store(0)
	s.cancelled.Store(0)
	s.eventSignaled.Store(0)
	s.workRingPos.Store(-1)
	s.pending = false
	if s.event == nil {
		s.event = newManualResetEvent()
	} else {
		s.event.Reset()
	}
}

func (s *slot) isSignaled() bool {
	return s.eventSignaled.Load() == 1
}

func (s *slot) markSignaled() {
	s.eventSignaled.Store(1)
}

// run executes the slot's procedure and marks completion, exactly the
// sequence spec.md §4.5 requires of a worker: invoke, release-store
// eventSignaled, signal the event.
func (s *slot) run(threadID int64) {
	ctx := WorkerContext{ThreadID: threadID, Storage: s.storage[:], internal: s}
	s.proc(ctx)
	s.markSignaled()
	s.event.Set()
}

// WorkerContext is passed to a job's procedure. Storage is the slot's
// inline buffer; internal backs ReportProgress/IsCancelled/Progress.
type WorkerContext struct {
	ThreadID int64
	Storage  []byte
	internal *slot
}

// ReportProgress publishes a monotonic progress counter the owner can
// observe via Progress(handle). Advisory only; no ordering obligations
// beyond the release store itself.
func ReportProgress(ctx WorkerContext, n int32) {
	ctx.internal.progressReport.Store(n)
}

// IsCancelled reports whether the owner has requested cooperative
// cancellation. Polling this is entirely at the job's discretion; the
// engine never preempts a running job.
func IsCancelled(ctx WorkerContext) bool {
	return ctx.internal.cancelled.Load() != 0
}

// Progress returns the last value this job itself reported via
// ReportProgress, read back from inside the job. This is the
// worker-context accessor SPEC_FULL.md supplements from original_source/
// for jobs that resume multi-stage work and want their own last-reported
// stage without separate local bookkeeping.
func (ctx WorkerContext) Progress() int32 {
	return ctx.internal.progressReport.Load()
}
