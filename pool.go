// pool.go: configuration, construction, and the submission/release path
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package ergon

import (
	"context"
	"errors"
	"sync"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Default configuration constants (spec.md §6).
const (
	RingCapacity = 256
	// SlotsPerChunk is the slot-table table chunk size; see slottable.go.
	SlotsPerChunk = slotsPerChunk
	MaxWaitChunk  = 64
	// MaxStorageBytes is the inline per-slot storage a typed wrapper can use.
	MaxStorageBytes = storageBytes
)

// Config configures a Pool. Mirrors the teacher's config-struct +
// constructor-family pattern (lethe.go's Logger / LoggerConfig): a
// single struct with safe zero-value defaults, filled in by New.
type Config struct {
	// Workers is the number of long-lived worker goroutines. Zero is a
	// supported degenerate mode: nothing drains the work ring, so every
	// WaitSingle/WaitAll ends up executing its job inline via stealing.
	Workers int

	RingCapacity int
	DispatchCap  int
	MaxWaitChunk int

	// Clock is the injectable time source used for every timeout and
	// for the registered-wait fallback's one-shot timer. Defaults to
	// clockz.RealClock; tests supply clockz.NewFakeClock().
	Clock clockz.Clock

	// Setup is called once per worker at startup and once at teardown,
	// both times on that worker's own goroutine.
	Setup SetupFunc

	// OnInternalError is the callback behind Pool.reportError, mirroring
	// lethe.go's ErrorCallback. No engine code path calls reportError, so
	// the engine itself never invokes this callback.
	OnInternalError func(event string, err error)

	Metrics *metricz.Registry
	Tracer  *tracez.Tracer
	Hooks   *hookz.Hooks[LifecycleEvent]
}

// Pool is the execution engine: a fixed-capacity worker pool fed by a
// bounded lock-free ring, with a dispatch relay absorbing overflow and
// a wait engine that can steal work onto the calling goroutine.
type Pool struct {
	workers int

	workRing     *ring
	overflowRing *ring
	relay        *dispatchRelay
	relayCancel  context.CancelFunc

	table slotTable

	shutdown  chan struct{}
	workerWG  sync.WaitGroup
	relayDone <-chan struct{}

	ownerGoroutine int64
	maxWaitChunk   int
	clock          clockz.Clock

	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[LifecycleEvent]

	setup           SetupFunc
	onInternalError func(event string, err error)

	destroyed bool
}

func (c *Config) applyDefaults() {
	if c.RingCapacity <= 0 {
		c.RingCapacity = RingCapacity
	}
	if c.DispatchCap <= 0 {
		c.DispatchCap = RingCapacity
	}
	if c.MaxWaitChunk <= 0 {
		c.MaxWaitChunk = MaxWaitChunk
	}
	if c.Clock == nil {
		c.Clock = clockz.RealClock
	}
	if c.Metrics == nil {
		c.Metrics = newMetricsRegistry()
	}
	if c.Tracer == nil {
		c.Tracer = tracez.New()
	}
	if c.Hooks == nil {
		c.Hooks = hookz.New[LifecycleEvent]()
	}
}

// New creates a Pool from an explicit Config. The calling goroutine
// becomes the pool's owner: every subsequent Push, DispatchByHandle,
// Release, Wait*, and Destroy call must come from this same goroutine.
func New(cfg Config) (*Pool, error) {
	if cfg.Workers < 0 {
		return nil, errors.New("ergon: Workers must be >= 0")
	}
	cfg.applyDefaults()

	p := &Pool{
		workers:         cfg.Workers,
		workRing:        newRing(cfg.RingCapacity),
		overflowRing:    newRing(cfg.DispatchCap),
		shutdown:        make(chan struct{}),
		ownerGoroutine:  currentGoroutineID(),
		maxWaitChunk:    cfg.MaxWaitChunk,
		clock:           cfg.Clock,
		metrics:         cfg.Metrics,
		tracer:          cfg.Tracer,
		hooks:           cfg.Hooks,
		setup:           cfg.Setup,
		onInternalError: cfg.OnInternalError,
	}

	p.relay = newDispatchRelay(p, p.workRing, p.overflowRing)
	relayCtx, cancel := context.WithCancel(context.Background())
	p.relayCancel = cancel
	p.relayDone = p.relay.stopped
	go p.relay.run(relayCtx)

	p.workerWG.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.workerLoop(i)
	}

	return p, nil
}

// NewWithDefaults creates a Pool with n worker goroutines and every
// other Config field left at its default.
func NewWithDefaults(workers int) (*Pool, error) {
	return New(Config{Workers: workers})
}

func (p *Pool) reportError(event string, err error) {
	if p.onInternalError != nil {
		p.onInternalError(event, err)
	}
}

// Push submits a job. If deferred is false, it is dispatched
// immediately (spec.md §4.6); otherwise it sits idle until
// DispatchByHandle or a Wait call forces it in. Allocation failure is
// encoded into the returned Handle rather than a second return value,
// so the handle threads uniformly through Release/Wait either way.
func (p *Pool) Push(proc func(ctx WorkerContext), jobCtx any, deferred bool) Handle {
	p.assertOwner()

	_, span := p.tracer.StartSpan(context.Background(), spanPush)
	defer span.Finish()

	s, index, kind := p.table.allocSlot()
	if kind != OK {
		span.SetTag(tagResult, kind.Error())
		return handleForError(kind)
	}

	s.reset(procedureFunc(proc), jobCtx)
	p.metrics.Counter(metricPushTotal).Inc()

	h := handleForIndex(index)
	span.SetTag(tagHandle, h.String())

	if !deferred {
		p.dispatch(s)
	}
	p.observeQueueDepth()
	return h
}

// DispatchByHandle forces a deferred slot into the dispatch pipeline.
// A no-op returning true if the slot is already queued.
func (p *Pool) DispatchByHandle(h Handle) bool {
	p.assertOwner()
	if !h.Valid() {
		return false
	}
	s := p.table.slotAt(h.index())
	if s.workRingPos.Load() >= 0 || s.pending {
		return true
	}
	p.dispatch(s)
	return true
}

// Release returns a slot to the slot table, blocking if a worker is
// actively running its job. Sets *h to HandleEmpty unconditionally.
//
// Per spec.md §4.6: if the slot is still sitting in the work ring and
// hasn't signaled, Release first tries to steal it out via
// unpublishBySlot. Unlike the Wait engine's stealing, a successful
// steal here simply abandons the job — the owner released the handle
// without waiting for it, which is a valid (if wasteful) use of the
// API. If the steal fails (a worker already claimed the slot), Release
// blocks on the slot's event until that worker finishes, since the
// slot's storage can't be safely reset while still in use.
func (p *Pool) Release(h *Handle) {
	p.assertOwner()
	if h == nil {
		return
	}
	if !h.Valid() {
		*h = HandleEmpty
		return
	}

	s := p.table.slotAt(h.index())
	if !s.isSignaled() && (s.workRingPos.Load() >= 0 || s.pending) {
		if !p.workRing.unpublishBySlot(s) {
			s.event.Wait(-1)
		}
	}

	s.event.Reset()
	s.context = nil
	s.proc = nil
	p.table.freeSlot(h.index())
	p.metrics.Counter(metricReleaseTotal).Inc()
	*h = HandleEmpty
}

// Cancel sets an advisory, relaxed cancellation flag. It never
// preempts a running job and never causes a wait to return Canceled on
// its own (spec.md §5).
func (p *Pool) Cancel(h Handle) {
	p.assertOwner()
	if !h.Valid() {
		return
	}
	p.table.slotAt(h.index()).cancelled.Store(1)
}

// Storage returns the slot's inline buffer for a typed wrapper to use.
func (p *Pool) Storage(h Handle) []byte {
	p.assertOwner()
	if !h.Valid() {
		return nil
	}
	s := p.table.slotAt(h.index())
	return s.storage[:]
}

// Progress reads the job's last-reported progress counter.
func (p *Pool) Progress(h Handle) int32 {
	p.assertOwner()
	if !h.Valid() {
		return 0
	}
	return p.table.slotAt(h.index()).progressReport.Load()
}
