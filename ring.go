// ring.go: bounded lock-free MPMC slot-pointer ring
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package ergon

import (
	"sync/atomic"
	"time"
)

// ring is a fixed-capacity array of slot pointers guarded by a ticketed
// cursor protocol and a pair of counting semaphores, directly descended
// from the teacher's MPSC ringBuffer (buffer.go) generalized from a
// single-consumer value buffer to a multi-producer multi-consumer
// pointer ring: "reserve the slot first with CAS, then publish" becomes
// "claim a ticket with CAS, then CAS the cell itself", the same
// two-phase discipline that prevents two producers (or here, two
// ticket-holders) from writing the same cell.
//
// Invariants (verified in ring_test.go):
//   - for all i, cells[i] != nil implies cells[i].workRingPos == i
//   - two pushers never obtain the same ticket (single-winner CAS)
type ring struct {
	cells    []atomic.Pointer[slot]
	capacity int32

	readPos  atomic.Int32
	writePos atomic.Int32

	readSem  *countingSemaphore // counts publishable items
	writeSem *countingSemaphore // counts free cells
}

func newRing(capacity int) *ring {
	return &ring{
		cells:    make([]atomic.Pointer[slot], capacity),
		capacity: int32(capacity),
		readSem:  newCountingSemaphore(capacity, 0),
		writeSem: newCountingSemaphore(capacity, capacity),
	}
}

// push publishes s into the ring, waiting up to timeout for a free
// cell (timeout<0 infinite, 0 a poll). Returns false on timeout or on a
// transient failed-publish race (spec.md §9 open question): the write
// ticket is never leaked — the cell that lost the race stays claimed by
// whichever pointer already occupies it, and the next pop to pass that
// position restores the write-semaphore credit exactly as if this push
// had never happened.
func (r *ring) push(s *slot, timeout time.Duration) bool {
	if !r.writeSem.acquire(timeout) {
		return false
	}
	return r.publish(s)
}

// publish does the ticket-claim-then-CAS-cell sequence assuming a
// write-semaphore token has already been consumed by the caller (the
// dispatch relay consumes it as one arm of a select, see dispatch.go,
// rather than through acquire, to multiplex it with other signals).
func (r *ring) publish(s *slot) bool {
	for {
		w := r.writePos.Load()
		nw := (w + 1) % r.capacity
		if r.writePos.CompareAndSwap(w, nw) {
			if r.cells[w].CompareAndSwap(nil, s) {
				s.workRingPos.Store(w)
				r.readSem.release1()
				return true
			}
			return false
		}
	}
}

// pop claims the next published slot, blocking up to timeout. The
// returned slot may be nil with ok==true: another goroutine stole the
// slot via unpublishBySlot after it was published but before this pop
// reached it; callers must tolerate the spurious nil.
func (r *ring) pop(timeout time.Duration) (s *slot, ok bool) {
	if !r.readSem.acquire(timeout) {
		return nil, false
	}
	return r.claim(), true
}

// claim does the ticket-advance-then-exchange sequence assuming a
// read-semaphore token has already been consumed by the caller (a
// select arm in the worker loop or dispatch relay).
func (r *ring) claim() *slot {
	for {
		rp := r.readPos.Load()
		nr := (rp + 1) % r.capacity
		if r.readPos.CompareAndSwap(rp, nr) {
			popped := r.cells[rp].Swap(nil)
			r.writeSem.release1()
			if popped != nil {
				popped.workRingPos.Store(-1)
			}
			return popped
		}
	}
}

// unpublishBySlot removes s from its recorded ring position if it is
// still there, without touching cursors or semaphores — the consumer
// that eventually advances past that position observes a null cell and
// moves on. Used by the owner to steal work onto the calling goroutine.
func (r *ring) unpublishBySlot(s *slot) bool {
	p := s.workRingPos.Load()
	if p < 0 {
		return false
	}
	if !r.cells[p].CompareAndSwap(s, nil) {
		return false
	}
	s.workRingPos.Store(-1)
	return true
}

// depth is a best-effort queue-depth estimate for observability gauges.
func (r *ring) depth() int {
	return int(r.capacity) - r.writeSem.available()
}

// readReady is the channel a select can multiplex on to learn "an item
// is publishable"; receiving from it consumes the same token acquire
// would, so a received-then-claim pair is equivalent to pop(0).
func (r *ring) readReady() <-chan struct{} {
	return r.readSem.tokens
}

// writeReady is the write-semaphore analog of readReady, signaling "a
// cell is free"; receiving from it consumes the token publish expects.
func (r *ring) writeReady() <-chan struct{} {
	return r.writeSem.tokens
}
