// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package algorithms

import (
	"sync"

	"k8s.io/klog/v2"

	"github.com/gomlx/reductions/devices"
	"github.com/gomlx/reductions/internal/workers"
	"github.com/gomlx/reductions/reducers"
)

// reduceAccelerator reduces with the decomposition of a GPU reduction
// kernel: a grid of fixed-size blocks of virtual threads, each thread
// accumulating a grid-strided share of the range, each block merging its
// thread accumulators with a power-of-two tree, and a final tree over the
// block partials.
//
// It runs on host goroutines (one per block), but reproduces the association
// order such a kernel would use, so results match run to run for a fixed
// device tuning and range. The grid-stride assignment interleaves elements
// across threads, hence the commutativity requirement on combines.
func reduceAccelerator[T any](dev devices.Device, start, end int, fetch Fetch[T], reducer reducers.Reducer[T]) (T, error) {
	n := end - start
	numBlocks, blockSize := accelPartition(dev, n)
	// Total virtual threads in the grid, the stride between the elements of
	// one thread.
	gridThreads := numBlocks * blockSize
	klog.V(2).Infof("reductions: accelerator reduce of [%d, %d) on a grid of %d blocks x %d threads",
		start, end, numBlocks, blockSize)

	blockPartials := make([]T, numBlocks)
	var trap faultTrap
	var wg sync.WaitGroup
	wg.Add(numBlocks)
	pool := workers.Default()
	for b := range numBlocks {
		task := func() {
			defer wg.Done()
			index := -1
			defer trap.trap(&index)
			blockPartials[b] = accelBlock(b, blockSize, gridThreads, start, end, fetch, reducer, &index)
		}
		if !pool.StartIfAvailable(task) {
			task()
		}
	}
	wg.Wait()
	if err := trap.err(); err != nil {
		var zero T
		return zero, err
	}
	return combinePartials(blockPartials, reducer)
}

// accelBlock emulates one block: blockSize virtual threads each folding the
// elements of their grid-strided share, then the thread accumulators merged
// with the halving tree a kernel runs in shared memory.
//
// Threads may own no element at all (the grid can be larger than the range),
// so each accumulator slot carries an occupied flag, mirroring the bounds
// guard of a kernel. Block b always owns at least the element of its thread
// 0, so the returned accs[0] is always occupied.
func accelBlock[T any](b, blockSize, gridThreads, start, end int, fetch Fetch[T], reducer reducers.Reducer[T], index *int) T {
	accs := make([]T, blockSize)
	occupied := make([]bool, blockSize)
	for t := range blockSize {
		first := start + b*blockSize + t
		for i := first; i < end; i += gridThreads {
			*index = i
			if !occupied[t] {
				accs[t] = fetch(i)
				occupied[t] = true
			} else {
				accs[t] = reducer.Combine(accs[t], fetch(i))
			}
		}
	}
	// Tree phase, no element index to attribute faults to.
	*index = -1
	for s := blockSize / 2; s > 0; s /= 2 {
		for t := range s {
			if !occupied[t+s] {
				continue
			}
			if occupied[t] {
				accs[t] = reducer.Combine(accs[t], accs[t+s])
			} else {
				accs[t] = accs[t+s]
				occupied[t] = true
			}
		}
	}
	return accs[0]
}
