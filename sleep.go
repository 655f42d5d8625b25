// sleep.go: plain sleep helper alongside the wait API
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package ergon

import "time"

// Sleep blocks the owner goroutine for d, routed through the pool's
// injected clock so a test running against clockz.NewFakeClock() can
// advance it deterministically instead of waiting on wall time. A
// supplemented parity helper alongside the Wait family for jobs that
// just need the owner to pause rather than wait on a handle.
func (p *Pool) Sleep(d time.Duration) {
	p.assertOwner()
	if d <= 0 {
		return
	}
	<-p.clock.After(d)
}
