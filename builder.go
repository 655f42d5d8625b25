// builder.go: fluent Pool construction
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package ergon

import (
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Builder provides a fluent interface for constructing a Pool, mirroring
// the teacher family's Builder[T] (other_examples/agilira-iris's
// zephyroslite.Builder[T]) adapted from a generic ring-buffer builder to
// a concrete Pool one.
type Builder struct {
	cfg Config
}

// NewBuilder starts a fluent Pool configuration with the given worker count.
func NewBuilder(workers int) *Builder {
	return &Builder{cfg: Config{Workers: workers}}
}

// WithRingCapacity overrides the work-ring capacity (default RingCapacity).
func (b *Builder) WithRingCapacity(n int) *Builder {
	b.cfg.RingCapacity = n
	return b
}

// WithDispatchCapacity overrides the overflow-ring capacity (default RingCapacity).
func (b *Builder) WithDispatchCapacity(n int) *Builder {
	b.cfg.DispatchCap = n
	return b
}

// WithMaxWaitChunk overrides the chunk size used by the small-set
// multi-wait path (default MaxWaitChunk).
func (b *Builder) WithMaxWaitChunk(n int) *Builder {
	b.cfg.MaxWaitChunk = n
	return b
}

// WithClock injects a clockz.Clock, primarily for deterministic tests.
func (b *Builder) WithClock(c clockz.Clock) *Builder {
	b.cfg.Clock = c
	return b
}

// WithSetup registers the per-worker startup/teardown callback.
func (b *Builder) WithSetup(fn SetupFunc) *Builder {
	b.cfg.Setup = fn
	return b
}

// WithOnInternalError registers the Config.OnInternalError callback.
func (b *Builder) WithOnInternalError(fn func(event string, err error)) *Builder {
	b.cfg.OnInternalError = fn
	return b
}

// WithMetrics injects a pre-configured metrics registry.
func (b *Builder) WithMetrics(m *metricz.Registry) *Builder {
	b.cfg.Metrics = m
	return b
}

// WithTracer injects a pre-configured tracer.
func (b *Builder) WithTracer(t *tracez.Tracer) *Builder {
	b.cfg.Tracer = t
	return b
}

// WithHooks injects a pre-configured hook registry.
func (b *Builder) WithHooks(h *hookz.Hooks[LifecycleEvent]) *Builder {
	b.cfg.Hooks = h
	return b
}

// Build constructs the Pool from the accumulated configuration.
func (b *Builder) Build() (*Pool, error) {
	return New(b.cfg)
}
