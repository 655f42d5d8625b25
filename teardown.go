// teardown.go: the two-phase pool shutdown protocol
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package ergon

// Destroy tears the pool down (spec.md §4.8). It signals every worker to
// exit, drains whatever work is still sitting in either ring on the
// owner goroutine, along with any deferred job that was never dispatched
// (so a caller who forgot to Wait doesn't silently lose jobs), rendezvous with the dispatch relay to make sure nothing is
// still in flight between the overflow ring and the work ring, then
// joins both the workers and the relay.
//
// If complete is true, every slot's event and the slot-table chunks are
// released; if false, they're left for the process to reclaim, trading
// a clean teardown for a faster one — the same complete/fast distinction
// the teacher's Logger.Close draws between a flush-and-sync close and a
// best-effort one.
func (p *Pool) Destroy(complete bool) {
	p.assertOwner()
	if p.destroyed {
		return
	}
	p.destroyed = true

	close(p.shutdown)

	p.drainRemaining()

	// Deferred jobs that were never dispatched sit in neither ring; run
	// them here so they are not lost either.
	for c := p.table.head; c != nil; c = c.next {
		for i := range c.slots {
			s := &c.slots[i]
			if s.proc != nil && !s.pending && !s.isSignaled() {
				p.executeSlot(s)
			}
		}
	}

	p.workerWG.Wait()

	for {
		empty := p.relay.ask(reqReadyToShutdown)
		if !empty {
			p.drainRemaining()
			p.relay.ask(reqResume)
			continue
		}
		// Re-check both rings with a zero timeout; the relay answered
		// "empty" but a slot may have crossed from overflow to work in
		// between, per the rationale in spec.md §4.8.
		if p.drainRemaining() > 0 {
			p.relay.ask(reqResume)
			continue
		}
		p.relay.ask(reqShutdownNow)
		break
	}

	<-p.relayDone
	p.relayCancel()

	if complete {
		p.releaseAllResources()
	}
}

// drainRemaining pops everything currently sitting in either ring with
// a zero timeout and executes it inline on the owner goroutine. Returns
// the number of jobs drained.
func (p *Pool) drainRemaining() int {
	drained := 0
	for {
		progressed := false
		if s, ok := p.workRing.pop(0); ok && s != nil {
			p.executeSlot(s)
			drained++
			progressed = true
		}
		if s, ok := p.overflowRing.pop(0); ok && s != nil {
			p.executeSlot(s)
			drained++
			progressed = true
		}
		if !progressed {
			return drained
		}
	}
}

// releaseAllResources walks every allocated slot-table chunk and drops
// its events, then drops the chunk chain itself, for a "complete"
// Destroy. Owner-exclusive: no other goroutine touches the table by
// this point.
func (p *Pool) releaseAllResources() {
	for c := p.table.head; c != nil; c = c.next {
		for i := range c.slots {
			c.slots[i].event = nil
			c.slots[i].context = nil
			c.slots[i].proc = nil
		}
	}
	p.table.head = nil
}
