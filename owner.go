// owner.go: owner-goroutine enforcement
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package ergon

import (
	"bytes"
	"runtime"
	"strconv"
)

// currentGoroutineID returns the numeric ID of the calling goroutine.
//
// Go deliberately does not expose goroutine identity; this parses the
// leading "goroutine N [...]" line of a single-goroutine stack trace,
// the standard minimal technique for this exact problem absent a
// supporting library. It backs the owner-goroutine assertion in §5 of
// the design and supplies WorkerContext.ThreadID for every executed job.
func currentGoroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return -1
	}
	return id
}

// assertOwner panics if the calling goroutine is not the pool's owner.
// Every exported operation restricted to the owner goroutine (Push,
// DispatchByHandle, Release, the Wait family, Destroy) calls this first.
func (p *Pool) assertOwner() {
	if currentGoroutineID() != p.ownerGoroutine {
		panic("ergon: called from a goroutine other than the owner")
	}
}
