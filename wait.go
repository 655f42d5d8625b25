// wait.go: the wait engine — single/multi handle, chunked polling,
// infinite-wait stealing, and the registered-wait fallback
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package ergon

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Infinite is the timeout sentinel meaning "block until satisfied".
// A timeout of 0 means poll without blocking; any positive duration
// blocks up to that long.
const Infinite time.Duration = -1

// WaitSingle blocks until h's job completes.
func (p *Pool) WaitSingle(h Handle) WaitResult {
	return p.WaitSingleFor(h, Infinite)
}

// WaitSingleFor is Case A of spec.md §4.7: if the slot already
// completed, return immediately; on an infinite-timeout wait, first try
// to steal the job out of the work ring and run it on the caller
// (avoiding a context switch); otherwise block on the slot's event.
func (p *Pool) WaitSingleFor(h Handle, timeout time.Duration) WaitResult {
	p.assertOwner()

	_, span := p.tracer.StartSpan(context.Background(), spanWait)
	span.SetTag(tagCount, "1")
	defer span.Finish()

	if !h.Valid() {
		return WaitResult{Err: NotPermitted}
	}
	s := p.table.slotAt(h.index())

	if s.isSignaled() {
		return WaitResult{Err: OK}
	}

	if s.workRingPos.Load() < 0 && !s.pending {
		p.dispatch(s)
	}

	if timeout == Infinite {
		if p.workRing.unpublishBySlot(s) {
			p.metrics.Counter(metricStealTotal).Inc()
			p.emitJobStolen(h)
			p.executeSlot(s)
			return WaitResult{Err: OK}
		}
	}

	if s.event.Wait(timeout) {
		s.markSignaled()
		return WaitResult{Err: OK}
	}
	return WaitResult{Err: TimedOut}
}

// WaitAll blocks until every handle's job has completed.
func (p *Pool) WaitAll(handles []Handle) WaitResult {
	_, err := p.waitMulti(handles, true, Infinite)
	return WaitResult{Err: err}
}

// WaitAllFor is WaitAll bounded by timeout.
func (p *Pool) WaitAllFor(handles []Handle, timeout time.Duration) WaitResult {
	_, err := p.waitMulti(handles, true, timeout)
	return WaitResult{Err: err}
}

// WaitAny blocks until at least one handle's job has completed.
func (p *Pool) WaitAny(handles []Handle) WaitAnyResult {
	idx, err := p.waitMulti(handles, false, Infinite)
	return WaitAnyResult{Index: idx, Err: err}
}

// WaitAnyFor is WaitAny bounded by timeout.
func (p *Pool) WaitAnyFor(handles []Handle, timeout time.Duration) WaitAnyResult {
	idx, err := p.waitMulti(handles, false, timeout)
	return WaitAnyResult{Index: idx, Err: err}
}

// waitMulti dispatches to the right case of spec.md §4.7 based on
// (count, timeout, waitAll): Case B for small sets, Case C for an
// infinite wait-all over a large set, Case D otherwise.
func (p *Pool) waitMulti(handles []Handle, waitAll bool, timeout time.Duration) (int, ErrorKind) {
	p.assertOwner()

	_, span := p.tracer.StartSpan(context.Background(), spanWait)
	span.SetTag(tagCount, strconv.Itoa(len(handles)))
	defer span.Finish()

	if len(handles) == 0 {
		return -1, InvalidArgument
	}

	if len(handles) <= p.maxWaitChunk {
		return p.waitSmallSet(handles, waitAll, timeout)
	}
	if waitAll && timeout == Infinite {
		return p.waitAllInfiniteChunked(handles)
	}
	return p.waitRegisteredFallback(handles, waitAll, timeout)
}

// tryDispatchNonBlocking attempts to place s into the work ring or the
// overflow ring without blocking, returning false if both are
// momentarily saturated.
func (p *Pool) tryDispatchNonBlocking(s *slot) bool {
	if p.workRing.push(s, 0) {
		s.pending = true
		p.metrics.Counter(metricDispatchDirect).Inc()
		return true
	}
	if p.overflowRing.push(s, 0) {
		s.pending = true
		p.metrics.Counter(metricDispatchOverflow).Inc()
		return true
	}
	return false
}

// stealOrRunInline steals s out of the work ring and runs it on the
// caller if it's queued there, or — if it was never successfully
// queued anywhere — simply runs it directly.
func (p *Pool) stealOrRunInline(s *slot, h Handle) {
	p.workRing.unpublishBySlot(s) // no-op if not present; either way we now run it
	p.metrics.Counter(metricStealTotal).Inc()
	p.emitJobStolen(h)
	p.executeSlot(s)
}

// waitSmallSet is Case B: a multi-handle wait over at most maxWaitChunk
// handles, using the event-channel multi-wait directly.
func (p *Pool) waitSmallSet(handles []Handle, waitAll bool, timeout time.Duration) (int, ErrorKind) {
	type entry struct {
		origIdx int
		s       *slot
	}

	var pending []entry
	anyValid := false
	for i, h := range handles {
		if !h.Valid() {
			continue
		}
		anyValid = true
		s := p.table.slotAt(h.index())
		if s.isSignaled() {
			if !waitAll {
				return i, OK
			}
			continue
		}
		pending = append(pending, entry{origIdx: i, s: s})
	}
	if !anyValid {
		return -1, NotPermitted
	}
	if len(pending) == 0 {
		return -1, OK // wait-all, everything already signaled
	}

	for _, e := range pending {
		if e.s.isSignaled() || e.s.workRingPos.Load() >= 0 || e.s.pending {
			continue
		}
		if p.tryDispatchNonBlocking(e.s) {
			continue
		}
		switch {
		case waitAll && timeout == Infinite:
			p.stealOrRunInline(e.s, handles[e.origIdx])
		case waitAll && timeout == 0:
			return -1, TimedOut
		default:
			return p.waitRegisteredFallback(handles, waitAll, timeout)
		}
	}

	// An infinite wait-all steals back whatever is still sitting in the
	// work ring and runs it on the caller rather than sleeping on it.
	if waitAll && timeout == Infinite {
		for _, e := range pending {
			if !e.s.isSignaled() && p.workRing.unpublishBySlot(e.s) {
				p.stealOrRunInline(e.s, handles[e.origIdx])
			}
		}
	}

	var chans []<-chan struct{}
	var idxMap []int
	for _, e := range pending {
		if e.s.isSignaled() {
			continue
		}
		chans = append(chans, e.s.event.C())
		idxMap = append(idxMap, e.origIdx)
	}
	if len(chans) == 0 {
		if !waitAll {
			return pending[0].origIdx, OK
		}
		return -1, OK
	}

	chosen, ok := waitMultiple(chans, waitAll, timeout)
	if !ok {
		return -1, TimedOut
	}

	if waitAll {
		for _, e := range pending {
			e.s.markSignaled()
		}
		return -1, OK
	}
	idx := idxMap[chosen]
	p.table.slotAt(handles[idx].index()).markSignaled()
	return idx, OK
}

// waitAllInfiniteChunked is Case C: an infinite wait-all over more than
// maxWaitChunk handles. It repeatedly sweeps the handles in
// maxWaitChunk-sized chunks, stealing anything still sitting in the
// work ring to run on the caller, and multi-waiting on anything a
// worker already claimed — blocking only when a full sweep finds
// nothing left to steal, so the owner never sleeps while there's
// cheaper-than-a-context-switch work it could do itself.
func (p *Pool) waitAllInfiniteChunked(handles []Handle) (int, ErrorKind) {
	anyValid := false
	remaining := make([]bool, len(handles))
	for i, h := range handles {
		if h.Valid() {
			anyValid = true
			remaining[i] = true
		}
	}
	if !anyValid {
		return -1, NotPermitted
	}

	firstPass := true
	for {
		allDone := true
		progressedThisPass := false

		for start := 0; start < len(handles); start += p.maxWaitChunk {
			end := start + p.maxWaitChunk
			if end > len(handles) {
				end = len(handles)
			}

			var pendingChans []<-chan struct{}
			for i := start; i < end; i++ {
				if !remaining[i] {
					continue
				}
				h := handles[i]
				s := p.table.slotAt(h.index())
				if s.isSignaled() {
					remaining[i] = false
					continue
				}
				allDone = false

				if s.workRingPos.Load() < 0 && !s.pending {
					p.dispatch(s)
				}
				if p.workRing.unpublishBySlot(s) {
					p.stealOrRunInline(s, h)
					remaining[i] = false
					progressedThisPass = true
					continue
				}
				pendingChans = append(pendingChans, s.event.C())
			}

			if len(pendingChans) > 0 {
				timeout := Infinite
				if firstPass || progressedThisPass {
					timeout = 0
				}
				if _, ok := waitMultiple(pendingChans, true, timeout); ok {
					progressedThisPass = true
				}
			}
		}

		if allDone {
			break
		}
		firstPass = false
	}

	for _, h := range handles {
		if h.Valid() {
			p.table.slotAt(h.index()).markSignaled()
		}
	}
	return -1, OK
}

// waitRegisteredFallback is Case D: the per-handle registered-wait
// fallback for sets larger than the host multi-wait's cap, or for a
// small set whose dispatch attempt couldn't resolve synchronously. It
// reproduces the described semantics (one-shot timer, per-handle
// registration, single-fire semaphore) with a goroutine per handle
// racing the slot's event against a shared deadline, which is the
// idiomatic Go shape of "register a callback on a thread-pool wait
// facility".
func (p *Pool) waitRegisteredFallback(handles []Handle, waitAll bool, timeout time.Duration) (int, ErrorKind) {
	p.metrics.Counter(metricRegisteredFallback).Inc()

	type entry struct {
		idx int
		s   *slot
	}
	var ents []entry
	anyValid := false
	for i, h := range handles {
		if !h.Valid() {
			continue
		}
		anyValid = true
		s := p.table.slotAt(h.index())
		if s.isSignaled() {
			if !waitAll {
				return i, OK
			}
			continue
		}
		ents = append(ents, entry{i, s})
	}
	if !anyValid {
		return -1, NotPermitted
	}
	if len(ents) == 0 {
		return -1, OK
	}

	for _, e := range ents {
		if e.s.workRingPos.Load() < 0 && !e.s.pending {
			p.dispatch(e.s)
		}
	}

	if timeout == 0 {
		allSignaled := true
		for _, e := range ents {
			if !e.s.isSignaled() {
				allSignaled = false
				break
			}
		}
		if allSignaled {
			return -1, OK
		}
		return -1, TimedOut
	}

	var deadline <-chan time.Time
	if timeout > 0 {
		deadline = p.clock.After(timeout)
	}

	done := make(chan struct{})
	var stopOnce sync.Once
	stop := func() { stopOnce.Do(func() { close(done) }) }

	resultIdx := make(chan int, 1)
	var wg sync.WaitGroup
	wg.Add(len(ents))
	for _, e := range ents {
		go func(e entry) {
			defer wg.Done()
			select {
			case <-e.s.event.C():
				if !waitAll {
					select {
					case resultIdx <- e.idx:
						stop()
					default:
					}
				}
			case <-done:
			}
		}(e)
	}

	if waitAll {
		allDone := make(chan struct{})
		go func() {
			wg.Wait()
			close(allDone)
		}()
		select {
		case <-allDone:
			for _, e := range ents {
				e.s.markSignaled()
			}
			return -1, OK
		case <-deadline:
			stop()
			wg.Wait()
			return -1, TimedOut
		}
	}

	select {
	case idx := <-resultIdx:
		stop()
		wg.Wait()
		p.table.slotAt(handles[idx].index()).markSignaled()
		return idx, OK
	case <-deadline:
		stop()
		wg.Wait()
		return -1, TimedOut
	}
}
