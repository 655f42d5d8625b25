// observability.go: metrics, tracing, and lifecycle hooks
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package ergon

import (
	"context"

	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Metric, span, and hook keys, named the way zoobzio/pipz names its own
// (backoff.go, fallback.go): "component.thing.total" for counters,
// "component.operation" for spans, "thing.event" for hook keys.
const (
	metricPushTotal            = metricz.Key("ergon.push.total")
	metricDispatchDirect       = metricz.Key("ergon.dispatch.direct.total")
	metricDispatchOverflow     = metricz.Key("ergon.dispatch.overflow.total")
	metricStealTotal           = metricz.Key("ergon.steal.total")
	metricRegisteredFallback   = metricz.Key("ergon.wait.registered_fallback.total")
	metricReleaseTotal         = metricz.Key("ergon.release.total")
	metricQueueDepth           = metricz.Key("ergon.queue.depth")
	metricDispatchBacklogGauge = metricz.Key("ergon.dispatch.backlog")

	spanPush            = tracez.Key("ergon.push")
	spanWait            = tracez.Key("ergon.wait")
	spanDispatchForward = tracez.Key("ergon.dispatch.forward")

	tagHandle = tracez.Tag("ergon.handle")
	tagCount  = tracez.Tag("ergon.handle_count")
	tagResult = tracez.Tag("ergon.result")

	hookWorkerStarted = hookz.Key("worker.started")
	hookWorkerStopped = hookz.Key("worker.stopped")
	hookJobCompleted  = hookz.Key("job.completed")
	hookJobStolen     = hookz.Key("job.stolen")
)

// LifecycleEvent is emitted through Config.Hooks for the events above.
type LifecycleEvent struct {
	Kind     string
	WorkerID int
	Handle   Handle
}

func newMetricsRegistry() *metricz.Registry {
	m := metricz.New()
	m.Counter(metricPushTotal)
	m.Counter(metricDispatchDirect)
	m.Counter(metricDispatchOverflow)
	m.Counter(metricStealTotal)
	m.Counter(metricRegisteredFallback)
	m.Counter(metricReleaseTotal)
	m.Gauge(metricQueueDepth)
	m.Gauge(metricDispatchBacklogGauge)
	return m
}

func (p *Pool) observeDispatchBacklog(n int) {
	p.metrics.Gauge(metricDispatchBacklogGauge).Set(float64(n))
}

func (p *Pool) observeQueueDepth() {
	p.metrics.Gauge(metricQueueDepth).Set(float64(p.workRing.depth()))
}

func (p *Pool) emitWorkerStarted(id int) {
	_ = p.hooks.Emit(context.Background(), hookWorkerStarted, LifecycleEvent{Kind: "worker.started", WorkerID: id})
}

func (p *Pool) emitWorkerStopped(id int) {
	_ = p.hooks.Emit(context.Background(), hookWorkerStopped, LifecycleEvent{Kind: "worker.stopped", WorkerID: id})
}

func (p *Pool) emitJobCompleted(h Handle) {
	_ = p.hooks.Emit(context.Background(), hookJobCompleted, LifecycleEvent{Kind: "job.completed", Handle: h})
}

func (p *Pool) emitJobStolen(h Handle) {
	_ = p.hooks.Emit(context.Background(), hookJobStolen, LifecycleEvent{Kind: "job.stolen", Handle: h})
}
