// Command ergon-bench spins up a pool, submits a configurable number of
// synthetic jobs, and reports completion latency. Grounded on the
// teacher corpus's preference for a runnable example over bare unit
// tests (agilira-lethe/examples/), reusing the pool's own Config.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	timecache "github.com/agilira/go-timecache"

	"github.com/agilira/ergon"
)

func main() {
	workers := flag.Int("workers", 4, "worker goroutine count")
	jobsFlag := flag.String("jobs", "100K", "number of synthetic jobs to submit (accepts K/M suffixes)")
	ringFlag := flag.String("ring-capacity", "256", "work ring capacity (accepts K/M suffixes)")
	deferred := flag.Bool("deferred", false, "stage jobs without dispatching, forcing them in via Wait")
	flag.Parse()

	jobs, err := ergon.ParseCount(*jobsFlag)
	if err != nil {
		log.Fatalf("ergon-bench: %v", err)
	}
	ringCapacity, err := ergon.ParseCount(*ringFlag)
	if err != nil {
		log.Fatalf("ergon-bench: %v", err)
	}

	pool, err := ergon.NewBuilder(*workers).
		WithRingCapacity(ringCapacity).
		WithOnInternalError(func(event string, err error) {
			fmt.Fprintf(os.Stderr, "ergon-bench: internal error: %s: %v\n", event, err)
		}).
		Build()
	if err != nil {
		log.Fatalf("ergon-bench: building pool: %v", err)
	}
	defer pool.Destroy(true)

	// Elapsed times come from a millisecond-resolution cached clock,
	// sampled once before submission, once after it, and once after
	// completion.
	clock := timecache.NewWithResolution(time.Millisecond)
	defer clock.Stop()

	handles := make([]ergon.Handle, jobs)
	start := clock.CachedTime()
	for i := range handles {
		i := i
		handles[i] = pool.Push(func(ctx ergon.WorkerContext) {
			_ = i // synthetic job body; real workloads do actual work here
		}, i, *deferred)
	}
	submitted := clock.CachedTime()

	result := pool.WaitAll(handles)
	completed := clock.CachedTime()

	if !result.OK() {
		log.Fatalf("ergon-bench: wait-all failed: %s", result.Err)
	}

	fmt.Printf("jobs:         %d\n", jobs)
	fmt.Printf("workers:      %d\n", *workers)
	fmt.Printf("ring cap:     %d\n", ringCapacity)
	fmt.Printf("deferred:     %v\n", *deferred)
	fmt.Printf("submit time:  %s\n", submitted.Sub(start))
	fmt.Printf("total time:   %s\n", completed.Sub(start))
}
