// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package workers implements the process-wide pool of goroutines used to run
// the blocks of parallel reductions.
//
// The pool bounds how many blocks run concurrently across all reductions in
// flight. It never queues nor blocks: if the pool is saturated the caller is
// expected to run the task inline, which guarantees progress even for
// reductions nested inside a fetch or combine callback.
package workers

import (
	"runtime"
	"sync"
)

// Pool of workers to run reduction blocks.
//
// Tasks are pure compute and are expected not to block on each other, so the
// cap on running goroutines is exactly MaxParallelism.
type Pool struct {
	// maxParallelism is the limit of concurrently running tasks.
	maxParallelism int
	mu             sync.Mutex
	numRunning     int
}

// New returns a new Pool of workers with the default parallelism (runtime.NumCPU()).
func New() *Pool {
	return &Pool{maxParallelism: runtime.NumCPU()}
}

var defaultPool = sync.OnceValue(New)

// Default returns the pool shared by all reductions in the process.
// It is created lazily on the first call.
func Default() *Pool {
	return defaultPool()
}

// IsEnabled returns whether parallelism is enabled (maxParallelism is != 0).
func (p *Pool) IsEnabled() bool {
	return p.maxParallelism != 0
}

// IsUnlimited returns whether parallelism is unlimited (maxParallelism < 0).
func (p *Pool) IsUnlimited() bool {
	return p.maxParallelism < 0
}

// MaxParallelism is the limit of concurrently running tasks.
// If set to 0 parallelism is disabled.
// If set to -1 parallelism is unlimited.
func (p *Pool) MaxParallelism() int {
	return p.maxParallelism
}

// SetMaxParallelism sets the maxParallelism.
//
// Only change the parallelism before any workers start running. If changed
// during execution the behavior is undefined.
func (p *Pool) SetMaxParallelism(maxParallelism int) {
	p.maxParallelism = maxParallelism
}

// lockedIsFull returns whether all available workers are in use.
//
// It must be called with p.mu acquired.
func (p *Pool) lockedIsFull() bool {
	if p.maxParallelism == 0 {
		return true
	} else if p.maxParallelism < 0 {
		return false
	}
	return p.numRunning >= p.maxParallelism
}

// StartIfAvailable runs the task in a separate goroutine, if there are workers
// left. It returns true if it found a worker to run the task, false otherwise,
// in which case the caller should run the task inline.
//
// It's up to the caller to synchronize the end of the task execution.
func (p *Pool) StartIfAvailable(task func()) bool {
	if p.IsUnlimited() {
		go task()
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lockedIsFull() {
		return false
	}
	p.numRunning++
	go func() {
		task()
		p.mu.Lock()
		p.numRunning--
		p.mu.Unlock()
	}()
	return true
}
