// event.go: manual-reset signaling object
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package ergon

import (
	"reflect"
	"sync"
	"time"
)

// manualResetEvent is the binary manual-reset signaling primitive the
// design's signaling-layer contract (§6) requires: Set/Reset/Wait plus a
// channel suitable for composing into a multi-wait. It stays signaled
// across Wait calls until explicitly Reset, matching a Win32-style
// manual-reset event rather than Go's usual one-shot "close to signal"
// idiom, which is why it needs the replace-the-channel Reset below
// instead of a bare close(ch).
type manualResetEvent struct {
	mu       sync.Mutex
	ch       chan struct{}
	signaled bool
}

func newManualResetEvent() *manualResetEvent {
	return &manualResetEvent{ch: make(chan struct{})}
}

// Set signals the event. Idempotent.
func (e *manualResetEvent) Set() {
	e.mu.Lock()
	if !e.signaled {
		e.signaled = true
		close(e.ch)
	}
	e.mu.Unlock()
}

// Reset clears the event for reuse. Only the owner goroutine calls this,
// and only after observing completion, so there is no concurrent Wait
// racing the channel replacement.
func (e *manualResetEvent) Reset() {
	e.mu.Lock()
	if e.signaled {
		e.ch = make(chan struct{})
		e.signaled = false
	}
	e.mu.Unlock()
}

// C returns the current underlying channel, closed once the event is signaled.
func (e *manualResetEvent) C() <-chan struct{} {
	e.mu.Lock()
	ch := e.ch
	e.mu.Unlock()
	return ch
}

// IsSet reports whether the event is currently signaled.
func (e *manualResetEvent) IsSet() bool {
	e.mu.Lock()
	s := e.signaled
	e.mu.Unlock()
	return s
}

// Wait blocks until the event is signaled or the timeout elapses.
// timeout < 0 blocks indefinitely; timeout == 0 polls without blocking.
func (e *manualResetEvent) Wait(timeout time.Duration) bool {
	ch := e.C()
	if timeout == 0 {
		select {
		case <-ch:
			return true
		default:
			return false
		}
	}
	if timeout < 0 {
		<-ch
		return true
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-ch:
		return true
	case <-t.C:
		return false
	}
}

// waitMultiple blocks on an arbitrary number of channels (the host
// multi-wait primitive of §6 contract (e)), returning the index of the
// first ready channel for "wait any", or blocking until all are ready
// for "wait all". A static `select` can't express a variadic channel
// set, so this composes them with reflect.Select the way a Go program
// idiomatically multiplexes a slice of channels determined at runtime.
func waitMultiple(chans []<-chan struct{}, waitAll bool, timeout time.Duration) (index int, ok bool) {
	if len(chans) == 0 {
		return -1, true
	}

	var deadlineCh <-chan struct{}
	if timeout >= 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		dc := make(chan struct{})
		go func() {
			<-t.C
			close(dc)
		}()
		deadlineCh = dc
	}

	if !waitAll {
		cases := make([]reflect.SelectCase, 0, len(chans)+1)
		for _, c := range chans {
			cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(c)})
		}
		if deadlineCh != nil {
			cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(deadlineCh)})
		}
		chosen, _, _ := reflect.Select(cases)
		if chosen >= len(chans) {
			return -1, false
		}
		return chosen, true
	}

	remaining := make(map[int]struct{}, len(chans))
	for i := range chans {
		remaining[i] = struct{}{}
	}
	for len(remaining) > 0 {
		cases := make([]reflect.SelectCase, 0, len(remaining)+1)
		idxs := make([]int, 0, len(remaining))
		for i := range remaining {
			cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(chans[i])})
			idxs = append(idxs, i)
		}
		if deadlineCh != nil {
			cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(deadlineCh)})
		}
		chosen, _, _ := reflect.Select(cases)
		if chosen >= len(idxs) {
			return -1, false
		}
		delete(remaining, idxs[chosen])
	}
	return -1, true
}
